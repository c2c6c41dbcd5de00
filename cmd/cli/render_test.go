package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/submanager/internal/domain"
	"github.com/dvloznov/submanager/internal/stats"
)

func sampleSubs() []domain.Subscription {
	return []domain.Subscription{
		{
			ID:                    "netflix",
			Name:                  "Netflix",
			Amount:                15.99,
			Frequency:             domain.FrequencyMonthly,
			Category:              domain.CategoryStreaming,
			NextPaymentDate:       civil.Date{Year: 2024, Month: 2, Day: 1},
			TransactionCount:      3,
			Confidence:            90,
			MarkedForCancellation: true,
		},
	}
}

func TestRender_Table(t *testing.T) {
	subs := sampleSubs()
	var buf bytes.Buffer

	if err := render(&buf, formatTable, subs, stats.Summarize(subs)); err != nil {
		t.Fatalf("render() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Netflix (cancel)", "15.99", "2024-02-01", "90%", "1 subscriptions, 15.99 per month, 191.88 per year"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_JSON(t *testing.T) {
	subs := sampleSubs()
	var buf bytes.Buffer

	if err := render(&buf, formatJSON, subs, stats.Summarize(subs)); err != nil {
		t.Fatalf("render() error = %v", err)
	}

	var got struct {
		Subscriptions []domain.Subscription    `json:"subscriptions"`
		Summary       domain.StatisticsSummary `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Subscriptions) != 1 || got.Summary.TotalMonthly != 15.99 {
		t.Errorf("decoded = %+v", got)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"table", false},
		{"json", false},
		{"csv", true},
		{"", true},
	}
	for _, tt := range tests {
		if err := validateFormat(tt.format); (err != nil) != tt.wantErr {
			t.Errorf("validateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}
