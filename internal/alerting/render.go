package alerting

import (
	"fmt"
	"strings"
	"time"

	"fxwatch/internal/quote"
)

const observedLayout = "2006-01-02 15:04:05 MST"

// RenderTitle builds the card name; it always embeds the amount.
func RenderTitle(rec quote.Record) string {
	return fmt.Sprintf("🚨 ALERT: %s at %s %s", rec.Pair.String(), rec.Amount.StringFixed(2), rec.Pair.Quote)
}

// RenderDescription builds the Markdown card body.
func RenderDescription(rec quote.Record, policy quote.Policy) string {
	builder := strings.Builder{}
	builder.WriteString("## 🚨 Exchange rate alert\n\n")
	builder.WriteString(fmt.Sprintf("**Current value:** %s %s  \n", rec.Amount.StringFixed(2), rec.Pair.Quote))
	builder.WriteString(fmt.Sprintf("**Change:** %s%% %s  \n", rec.PercentChange.StringFixed(2), trendIcon(rec)))
	builder.WriteString(fmt.Sprintf("**Threshold:** %s %s  \n", policy.Threshold.StringFixed(2), rec.Pair.Quote))
	builder.WriteString(fmt.Sprintf("**Observed at:** %s\n\n", rec.ObservedAt.UTC().Format(observedLayout)))
	builder.WriteString("---\n\n")
	builder.WriteString("### ⚠️ Recommended action\n")
	builder.WriteString("- Check whether this is a moment to buy or sell\n")
	builder.WriteString("- Review the market trend\n")
	builder.WriteString("- Talk to a financial advisor if needed\n\n")
	builder.WriteString("---\n\n")
	builder.WriteString(fmt.Sprintf("*Created automatically by fxwatch at %s*\n", time.Now().UTC().Format(time.RFC3339)))
	return builder.String()
}

func trendIcon(rec quote.Record) string {
	switch rec.Direction() {
	case "up":
		return "📈"
	case "down":
		return "📉"
	default:
		return "➖"
	}
}
