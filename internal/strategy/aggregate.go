package strategy

import (
	"fmt"
	"strings"

	"strategy-trader/internal/models"
)

// Aggregate combines the signals of every active strategy for one instant
// into a single decision.
//
// Any BUY alongside any SELL is a conflict and resolves to HOLD, carrying
// the names of the disagreeing strategies instead of silently dropping
// either side. Concurring signals collapse into one decision attributed to
// every agreeing strategy, with their average confidence.
func Aggregate(signals []models.Signal) models.Decision {
	var (
		buys  []models.Signal
		sells []models.Signal
	)
	for _, s := range signals {
		switch s.Action {
		case models.ActionBuy:
			buys = append(buys, s)
		case models.ActionSell:
			sells = append(sells, s)
		}
	}

	decision := models.Decision{Action: models.ActionHold}
	if len(signals) > 0 {
		last := signals[len(signals)-1]
		decision.Timestamp = last.Timestamp
		decision.Symbol = last.Symbol
		decision.Price = last.Price
	}

	switch {
	case len(buys) == 0 && len(sells) == 0:
		return decision

	case len(buys) > 0 && len(sells) > 0:
		decision.Reason = fmt.Sprintf("conflict: buy [%s] vs sell [%s]",
			strings.Join(names(buys), ", "), strings.Join(names(sells), ", "))
		decision.Strategies = append(names(buys), names(sells)...)
		return decision

	case len(buys) > 0:
		return agree(decision, models.ActionBuy, buys)

	default:
		return agree(decision, models.ActionSell, sells)
	}
}

func agree(decision models.Decision, action models.Action, agreeing []models.Signal) models.Decision {
	decision.Action = action
	decision.Strategies = names(agreeing)
	decision.Timestamp = agreeing[0].Timestamp
	decision.Symbol = agreeing[0].Symbol
	decision.Price = agreeing[0].Price

	total := 0.0
	for _, s := range agreeing {
		total += s.Confidence
	}
	decision.Confidence = total / float64(len(agreeing))
	decision.Reason = strings.Join(decision.Strategies, ", ")
	return decision
}

func names(signals []models.Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.Strategy
	}
	return out
}
