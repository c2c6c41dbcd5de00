// Package results holds the outcome of one detection run and the per-session
// store the HTTP API keeps them in.
package results

import (
	"fmt"
	"time"

	"github.com/dvloznov/submanager/internal/domain"
	"github.com/dvloznov/submanager/internal/stats"
)

// ResultSet is a caller-owned detection result. A new run replaces it
// entirely; only cancellation marks and removals change it afterwards.
type ResultSet struct {
	RunID          string                `json:"runId"`
	Source         string                `json:"source"`
	GeneratedAt    time.Time             `json:"generatedAt"`
	LookbackMonths int                   `json:"lookbackMonths"`
	Subscriptions  []domain.Subscription `json:"subscriptions"`
	Dropped        int                   `json:"dropped"`
}

// MarkCancelled flags the subscription with the given id for cancellation
// and returns the updated value.
func (r *ResultSet) MarkCancelled(id string) (domain.Subscription, error) {
	i := r.index(id)
	if i < 0 {
		return domain.Subscription{}, fmt.Errorf("MarkCancelled: %s: %w", id, domain.ErrNotFound)
	}
	r.Subscriptions[i].MarkedForCancellation = true
	return r.Subscriptions[i], nil
}

// Remove deletes the subscription with the given id, keeping the order of
// the rest.
func (r *ResultSet) Remove(id string) error {
	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("Remove: %s: %w", id, domain.ErrNotFound)
	}
	r.Subscriptions = append(r.Subscriptions[:i:i], r.Subscriptions[i+1:]...)
	return nil
}

// Summary recomputes statistics over the current subscriptions.
func (r *ResultSet) Summary() domain.StatisticsSummary {
	return stats.Summarize(r.Subscriptions)
}

// Clone returns a deep copy.
func (r *ResultSet) Clone() *ResultSet {
	c := *r
	c.Subscriptions = make([]domain.Subscription, len(r.Subscriptions))
	copy(c.Subscriptions, r.Subscriptions)
	return &c
}

func (r *ResultSet) index(id string) int {
	for i, s := range r.Subscriptions {
		if s.ID == id {
			return i
		}
	}
	return -1
}
