package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Strategy Trader Configuration

[trading]
# Candle resolution in minutes: "1", "5", "15", "60", or "D" for daily
resolution = "5"
# Polling cadence for live paper-trading sessions, in seconds
poll_interval_seconds = 60

[risk]
# Starting capital for new sessions, in INR
initial_capital = 100000.0
# Position size as percentage of available cash
position_size_percent = 10.0
# Stop-loss distance from entry, percent (0 disables)
stop_loss_percent = 2.0
# Profit target distance from entry, percent (0 disables)
target_percent = 5.0
# Maximum concurrent open positions
max_positions = 5
# Brokerage charge per executed leg, in INR
charge_per_trade = 20.0
# Simulated slippage per fill, percent
slippage_percent = 0.0

[logging]
# Log level: debug, info, warn, error
level = "info"
# Log to the console
console = true
# Log to a rotating file under the config directory
file = true

[storage]
# Session database path. Empty means <config dir>/sessions.db
db_path = ""
`

func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}
