package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dvloznov/submanager/internal/domain"
	infraBQ "github.com/dvloznov/submanager/internal/infra/bigquery"
	"github.com/olekukonko/tablewriter"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown format %q, want table or json", format)
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// render writes subscriptions and their summary in the given format.
func render(w io.Writer, format string, subs []domain.Subscription, summary domain.StatisticsSummary) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Subscriptions []domain.Subscription    `json:"subscriptions"`
			Summary       domain.StatisticsSummary `json:"summary"`
		}{subs, summary})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Amount", "Frequency", "Category", "Next Payment", "Payments", "Confidence"})
	for _, s := range subs {
		name := s.Name
		if s.MarkedForCancellation {
			name += " (cancel)"
		}
		table.Append([]string{
			name,
			money(s.Amount),
			string(s.Frequency),
			string(s.Category),
			s.NextPaymentDate.String(),
			strconv.Itoa(s.TransactionCount),
			strconv.Itoa(s.Confidence) + "%",
		})
	}
	table.Render()

	fmt.Fprintf(w, "\n%d subscriptions, %s per month, %s per year\n",
		summary.Count, money(summary.TotalMonthly), money(summary.TotalYearly))
	if summary.MostExpensive != nil {
		fmt.Fprintf(w, "Most expensive: %s (%s)\n", summary.MostExpensive.Name, money(summary.MostExpensive.Amount))
	}
	return nil
}

func renderRuns(w io.Writer, runs []*infraBQ.RunSummaryRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Run ID", "Source", "Subscriptions", "Detected"})
	for _, r := range runs {
		table.Append([]string{
			r.RunID,
			r.Source,
			strconv.FormatInt(r.SubscriptionCount, 10),
			r.DetectedTS.Format(time.RFC3339),
		})
	}
	table.Render()
}
