package main

import (
	"context"
	"fmt"
	"os"

	"strategy-trader/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
