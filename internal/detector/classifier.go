package detector

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/submanager/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// subscriptionNamespace scopes the name-based UUIDs given to subscriptions.
var subscriptionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/dvloznov/submanager/subscriptions"))

// maxNameWords caps how many words of the description make up a name.
const maxNameWords = 3

// SubscriptionID returns the stable identifier for a grouping key.
func SubscriptionID(key string) string {
	return uuid.NewSHA1(subscriptionNamespace, []byte(key)).String()
}

// Classify decides whether a group is a recurring subscription.
//
// The confidence score is a heuristic sum of an occurrence score, an amount
// consistency score and a per-cadence prior; it is not a calibrated
// probability.
func Classify(g RecurrenceGroup, t Thresholds) (domain.Subscription, bool) {
	n := len(g.Transactions)
	if n < MinTransactions {
		return domain.Subscription{}, false
	}

	mean, variance, lo, hi := amountStats(g.Transactions)
	if mean <= 0 {
		return domain.Subscription{}, false
	}
	ratio := variance / mean
	if ratio > t.MaxVarianceRatio || (hi-lo)/mean > t.MaxAmountSpread {
		return domain.Subscription{}, false
	}

	byDate := make([]domain.Transaction, n)
	copy(byDate, g.Transactions)
	sort.SliceStable(byDate, func(i, j int) bool {
		return byDate[i].Date.Before(byDate[j].Date)
	})

	var gapSum int
	for i := 1; i < n; i++ {
		gapSum += byDate[i].Date.DaysSince(byDate[i-1].Date)
	}
	avgGap := float64(gapSum) / float64(n-1)

	band, ok := t.band(avgGap)
	if !ok {
		return domain.Subscription{}, false
	}

	last := byDate[n-1].Date
	first := g.Transactions[0]

	return domain.Subscription{
		ID:               SubscriptionID(g.Key),
		Name:             displayName(first.Description, g.Key),
		Amount:           round2(mean),
		Frequency:        band.Frequency,
		Category:         first.Category,
		LastPaymentDate:  last,
		NextPaymentDate:  AddPeriod(last, band.Period),
		TransactionCount: n,
		TotalSpent:       round2(mean * float64(n)),
		Confidence:       confidence(n, ratio, band.CadencePrior),
	}, true
}

// AddPeriod advances d by p using calendar arithmetic.
func AddPeriod(d civil.Date, p Period) civil.Date {
	return civil.DateOf(d.In(time.UTC).AddDate(p.Years, p.Months, p.Days))
}

func confidence(count int, ratio float64, prior int) int {
	countScore := math.Min(float64(count*CountScorePerTransaction), MaxCountScore)
	consistency := math.Max(0, MaxConsistencyScore-ratio*100)

	score := int(math.Round(countScore + consistency + float64(prior)))
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

// amountStats returns the mean, population variance, minimum and maximum.
func amountStats(txs []domain.Transaction) (mean, variance, lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	var sum float64
	for _, tx := range txs {
		sum += tx.Amount
		lo = math.Min(lo, tx.Amount)
		hi = math.Max(hi, tx.Amount)
	}
	mean = sum / float64(len(txs))

	for _, tx := range txs {
		d := tx.Amount - mean
		variance += d * d
	}
	variance /= float64(len(txs))
	return mean, variance, lo, hi
}

// displayName keeps the first few words that carry letters and no digits,
// title-cased. It falls back to the grouping key.
func displayName(description, key string) string {
	var words []string
	for _, w := range strings.Fields(description) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if !significant(w) {
			continue
		}
		words = append(words, w)
		if len(words) == maxNameWords {
			break
		}
	}

	name := strings.Join(words, " ")
	if name == "" {
		name = key
	}
	return cases.Title(language.Und).String(name)
}

func significant(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsDigit(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
