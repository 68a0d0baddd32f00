package runner

import (
	"fmt"
	"strings"

	"signal_bridge/internal/executor"
	"signal_bridge/internal/models"
)

func formatReport(sig *models.TradingSignal, r executor.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📡 %s %s (channel %d)\n", sig.Action, sig.Symbol, sig.ChannelID)

	if r.Aborted != "" {
		fmt.Fprintf(&b, "⛔️ aborted: %s", r.Aborted)
		return b.String()
	}

	for _, leg := range []*executor.LegResult{r.Market, r.Pending} {
		if leg == nil {
			continue
		}
		icon := "❌"
		if leg.Outcome == executor.OutcomeDone {
			icon = "✅"
		}
		fmt.Fprintf(&b, "%s %s %s @ %g vol=%g sl=%g tp=%g: %s\n",
			icon, leg.Leg, leg.Request.Type, leg.Request.Price, leg.Request.Volume,
			leg.Request.SL, leg.Request.TP, leg.Detail)
	}

	var marks []string
	if r.TPOverridden {
		marks = append(marks, "TP")
	}
	if r.SLOverridden {
		marks = append(marks, "SL")
	}
	if len(marks) > 0 {
		fmt.Fprintf(&b, "⚠️ threshold override: %s", strings.Join(marks, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
