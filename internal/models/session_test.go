package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionResults_ForceClosed(t *testing.T) {
	at := time.Date(2024, 6, 3, 15, 30, 0, 0, time.UTC)
	results := &SessionResults{
		ClosedTrades: []Trade{
			{ID: "t1", Symbol: "RELIANCE", ExitReason: ExitTarget, ExitTime: at},
			{ID: "t2", Symbol: "INFY", ExitReason: ExitStopped, ExitTime: at},
			{ID: "t3", Symbol: "TCS", ExitReason: ExitSignalReversal, ExitTime: at},
			{ID: "t4", Symbol: "HDFC", ExitReason: ExitStopped, ExitTime: at},
		},
	}

	closed := results.ForceClosed()
	assert.Len(t, closed, 2)
	assert.Equal(t, "t2", closed[0].ID)
	assert.Equal(t, "t4", closed[1].ID)

	assert.Empty(t, (&SessionResults{}).ForceClosed())
}
