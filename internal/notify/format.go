package notify

import (
	"fmt"
	"strings"

	"github.com/mihirgan06/Arbiter/internal/domain"
)

// Event types used to filter notifications.
const (
	EventDiscrepancy = "discrepancy"
	EventArbitrage   = "arbitrage"
	EventScanError   = "scan_error"
)

// FormatDiscrepancy renders a detected discrepancy as a notification
// title and message.
func FormatDiscrepancy(d domain.DiscrepancyResult) (title, message string) {
	title = fmt.Sprintf("Discrepancy: %s (%.0f bps)", d.EventTitle, d.MaxSpread*10000)

	var b strings.Builder
	fmt.Fprintf(&b, "Spread %.3f (%.1f%%), confidence %.2f\n", d.MaxSpread, d.SpreadPercent, d.Confidence)
	for _, m := range d.Markets {
		fmt.Fprintf(&b, "- %s %s: YES %.3f\n", m.Platform, m.ExternalID, m.YesProbability)
	}
	for _, n := range d.LikelyDrivers {
		fmt.Fprintf(&b, "news: %s (%s)\n", n.Title, n.Source)
	}
	return title, strings.TrimRight(b.String(), "\n")
}

// FormatArbitrage renders a cross-venue arbitrage opportunity attached to a
// discrepancy group.
func FormatArbitrage(eventTitle string, opp domain.ArbOpportunity) (title, message string) {
	title = fmt.Sprintf("Arbitrage: %s (+%.2f%%)", eventTitle, opp.TheoreticalReturn)
	message = fmt.Sprintf(
		"Combined cost %.3f, theoretical return %.2f%%, confidence %.2f",
		opp.CombinedCost, opp.TheoreticalReturn, opp.Confidence,
	)
	return title, message
}
