package chat

import (
	"fmt"
	"sort"
	"strings"
)

// FormatQuerySummary renders the user-facing reply for an executed expense
// query. Creation and unclassified turns do not go through the formatter:
// their reply is the model's own text, unmodified.
func FormatQuerySummary(categoryName string, period Period, summary QuerySummary) string {
	var b strings.Builder

	if strings.EqualFold(categoryName, AllCategories) {
		fmt.Fprintf(&b, "Based on your records, you spent $%s %s.", summary.Total.StringFixed(2), period)
	} else {
		fmt.Fprintf(&b, "Based on your records, you spent $%s on %s %s.", summary.Total.StringFixed(2), categoryName, period)
	}

	if len(summary.ByCategory) > 1 {
		b.WriteString(" Here's the breakdown by category:")
		for _, sub := range sortedByAmountDesc(summary.ByCategory) {
			fmt.Fprintf(&b, "\n- %s: $%s", sub.Name, sub.Amount.StringFixed(2))
		}
	}

	if summary.TransactionCount > 0 {
		noun := "transactions"
		if summary.TransactionCount == 1 {
			noun = "transaction"
		}
		fmt.Fprintf(&b, "\n\nThis includes %d %s", summary.TransactionCount, noun)
		if summary.TransactionCount > 1 {
			fmt.Fprintf(&b, " with an average of $%s per transaction.", summary.Average.StringFixed(2))
		} else {
			b.WriteString(".")
		}
	}

	return b.String()
}

// sortedByAmountDesc orders subtotals by descending amount; ties keep
// first-seen order.
func sortedByAmountDesc(subs []CategorySubtotal) []CategorySubtotal {
	out := make([]CategorySubtotal, len(subs))
	copy(out, subs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.GreaterThan(out[j].Amount)
	})
	return out
}
