package notifier

import (
	"fmt"
	"strings"
	"time"

	"EconSentinel/internal/insight"
	"EconSentinel/internal/model"
	"EconSentinel/internal/query"
)

// FormatRefreshReport formats the outcome of one refresh cycle.
func FormatRefreshReport(signals []*model.ScoredSignal, recession *model.RecessionSnapshot, failures map[string]error) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>EconSentinel Refresh</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))

	for _, sig := range signals {
		b.WriteString(fmt.Sprintf("%s <b>%s</b>: %.2f\n", scoreEmoji(sig.Score), sig.Name, sig.Score))
		b.WriteString(fmt.Sprintf("   %s\n", sig.Summary))
	}

	if recession != nil {
		b.WriteString("\n")
		b.WriteString(formatRecessionLines(recession.Probability, recession.Assessment, recession.Spread, recession.Trend, recession.DataAsOf))
	}

	if len(failures) > 0 {
		b.WriteString("\n⚠️ <b>Failures:</b>\n")
		for name, err := range failures {
			b.WriteString(fmt.Sprintf("   %s: %v\n", name, err))
		}
	}

	return b.String()
}

// FormatSignals formats the latest snapshot of every signal.
func FormatSignals(records []query.SignalRecord) string {
	var b strings.Builder
	b.WriteString("📈 <b>Economic Signals</b>\n\n")
	for _, r := range records {
		b.WriteString(fmt.Sprintf("%s <b>%s</b>: %.2f", scoreEmoji(r.Score), r.Name, r.Score))
		if len(r.Tags) > 0 {
			b.WriteString(fmt.Sprintf(" [%s]", strings.Join(r.Tags, ", ")))
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("   %s\n", r.Summary))
		b.WriteString(fmt.Sprintf("   as of %s\n", r.DataAsOf.Format("2006-01-02")))
	}
	return b.String()
}

// FormatRecession formats the latest composite snapshot.
func FormatRecession(r *query.RecessionRecord) string {
	var b strings.Builder
	b.WriteString("🌡 <b>Recession Probability</b>\n\n")
	b.WriteString(formatRecessionLines(r.Probability, r.Assessment, r.Spread, r.Trend, r.DataAsOf))
	b.WriteString(fmt.Sprintf("Signals contributing: %d\n", r.SignalCount))
	return b.String()
}

// FormatChanges formats significant score moves.
func FormatChanges(changes []insight.Change) string {
	if len(changes) == 0 {
		return "No significant signal changes in this period."
	}
	var b strings.Builder
	b.WriteString("🔀 <b>Signal Changes</b>\n\n")
	for _, c := range changes {
		arrow := "⬆️"
		if c.Direction == insight.DirectionFalling {
			arrow = "⬇️"
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b>: %.2f -> %.2f (%+.2f) on %s\n",
			arrow, c.Signal, c.From, c.To, c.Delta, c.ToDate.Format("2006-01-02")))
	}
	return b.String()
}

// FormatAlerts formats triggered alert conditions.
func FormatAlerts(alerts []insight.Alert) string {
	if len(alerts) == 0 {
		return "No active alerts in this period."
	}
	var b strings.Builder
	b.WriteString("🚨 <b>Alerts</b>\n\n")
	for _, a := range alerts {
		b.WriteString(fmt.Sprintf("• %s (%s)\n", a.Message, a.AsOf.Format("2006-01-02")))
	}
	return b.String()
}

// FormatGDP formats real GDP observations, most recent last.
func FormatGDP(records []query.GDPRecord) string {
	var b strings.Builder
	b.WriteString("🏭 <b>Real GDP</b>\n\n")
	// Show at most the last 8 quarters; older points add noise in chat.
	start := 0
	if len(records) > 8 {
		start = len(records) - 8
	}
	for _, r := range records[start:] {
		b.WriteString(fmt.Sprintf("%s: %.1f", r.Date.Format("2006-01-02"), r.Value))
		if r.GrowthPct != 0 {
			b.WriteString(fmt.Sprintf(" (%+.2f%%)", r.GrowthPct))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatComparison formats the co-movement of two signals.
func FormatComparison(r *query.ComparisonRecord) string {
	var b strings.Builder
	b.WriteString("🔗 <b>Signal Comparison</b>\n\n")
	b.WriteString(fmt.Sprintf("<b>%s</b> vs <b>%s</b>\n", r.SignalA, r.SignalB))
	b.WriteString(fmt.Sprintf("Correlation: %+.2f over %d shared snapshots\n", r.Correlation, r.Points))
	b.WriteString(fmt.Sprintf("Reading: %s\n", correlationReading(r.Correlation)))
	return b.String()
}

func correlationReading(c float64) string {
	switch {
	case c >= 0.7:
		return "moving strongly together"
	case c >= 0.3:
		return "moving somewhat together"
	case c <= -0.7:
		return "moving strongly opposite"
	case c <= -0.3:
		return "moving somewhat opposite"
	default:
		return "little relationship"
	}
}

// FormatHelp lists the available commands.
func FormatHelp() string {
	return strings.Join([]string{
		"Available commands:",
		"• /signals: latest signal scores",
		"• /recession: composite recession probability",
		"• /changes: significant moves (last 1y)",
		"• /alerts: triggered alerts (last 1y)",
		"• /gdp: real GDP, recent quarters",
		"• /compare <signal> <signal>: score correlation (last 1y)",
		"• /refresh: run a refresh cycle now",
	}, "\n")
}

func formatRecessionLines(probability float64, assessment string, spread float64, trend string, asOf time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Probability: <b>%.0f%%</b> (%s)\n", probability*100, assessment))
	b.WriteString(fmt.Sprintf("10Y-2Y spread: %+.2f\n", spread))
	b.WriteString(fmt.Sprintf("Trend: %s %s\n", trendEmoji(trend), trend))
	b.WriteString(fmt.Sprintf("As of: %s\n", asOf.Format("2006-01-02")))
	return b.String()
}

func scoreEmoji(score float64) string {
	switch {
	case score >= 0.7:
		return "🔴"
	case score >= 0.4:
		return "🟡"
	default:
		return "🟢"
	}
}

func trendEmoji(trend string) string {
	switch trend {
	case model.TrendUp:
		return "📈"
	case model.TrendDown:
		return "📉"
	default:
		return "➡️"
	}
}
