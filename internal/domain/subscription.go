package domain

import (
	"cloud.google.com/go/civil"
)

// Frequency is the detected cadence of a recurring charge.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Subscription is a recurring charge derived from a recurrence group.
// Only MarkedForCancellation changes after detection.
type Subscription struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Amount                float64    `json:"amount"`
	Frequency             Frequency  `json:"frequency"`
	Category              Category   `json:"category"`
	LastPaymentDate       civil.Date `json:"lastPaymentDate"`
	NextPaymentDate       civil.Date `json:"nextPaymentDate"`
	TransactionCount      int        `json:"transactionCount"`
	TotalSpent            float64    `json:"totalSpent"`
	Confidence            int        `json:"confidence"`
	MarkedForCancellation bool       `json:"markedForCancellation"`
}

// CategoryTotal aggregates the subscriptions of one category.
type CategoryTotal struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// UpcomingPayment is a reduced view of a subscription's next charge.
type UpcomingPayment struct {
	Name   string     `json:"name"`
	Amount float64    `json:"amount"`
	Date   civil.Date `json:"date"`
}

// StatisticsSummary rolls up a set of subscriptions. It is always derived
// and never stored on its own.
type StatisticsSummary struct {
	Count               int                        `json:"count"`
	TotalMonthly        float64                    `json:"totalMonthly"`
	TotalYearly         float64                    `json:"totalYearly"`
	ByCategory          map[Category]CategoryTotal `json:"byCategory"`
	MostExpensive       *Subscription              `json:"mostExpensive"`
	UpcomingPayments    []UpcomingPayment          `json:"upcomingPayments"`
	AverageSubscription float64                    `json:"averageSubscription"`
}
