// Package detector finds recurring subscriptions in a set of transactions.
package detector

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/submanager/internal/domain"
)

// Detector runs grouping and classification with a fixed set of thresholds.
// It keeps no state between runs.
type Detector struct {
	thresholds Thresholds
}

// New returns a detector after validating t.
func New(t Thresholds) (*Detector, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("detector.New: %w", err)
	}
	return &Detector{thresholds: t}, nil
}

// Default returns a detector with DefaultThresholds.
func Default() *Detector {
	return &Detector{thresholds: DefaultThresholds()}
}

// Thresholds returns the detector's configuration.
func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// Detect keeps transactions dated on or after today minus lookbackMonths
// months, groups them and classifies each group. The result is ordered by
// amount, highest first; ties keep group order. A lookbackMonths of zero or
// less disables the window.
func (d *Detector) Detect(txs []domain.Transaction, lookbackMonths int, today civil.Date) []domain.Subscription {
	window := txs
	if lookbackMonths > 0 {
		cutoff := LookbackCutoff(today, lookbackMonths)
		window = make([]domain.Transaction, 0, len(txs))
		for _, tx := range txs {
			if !tx.Date.Before(cutoff) {
				window = append(window, tx)
			}
		}
	}

	subs := make([]domain.Subscription, 0)
	for _, g := range Group(window, d.thresholds.KeyMaxLength) {
		if sub, ok := Classify(g, d.thresholds); ok {
			subs = append(subs, sub)
		}
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Amount > subs[j].Amount
	})
	return subs
}

// LookbackCutoff returns today moved back by months calendar months, with
// the day clamped to the length of the target month (2024-03-31 minus one
// month is 2024-02-29).
func LookbackCutoff(today civil.Date, months int) civil.Date {
	first := time.Date(today.Year, today.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -months, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	return civil.Date{Year: first.Year(), Month: first.Month(), Day: min(today.Day, lastDay)}
}

// Detect runs a default detector.
func Detect(txs []domain.Transaction, lookbackMonths int, today civil.Date) []domain.Subscription {
	return Default().Detect(txs, lookbackMonths, today)
}
