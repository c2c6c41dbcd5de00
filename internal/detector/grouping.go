package detector

import (
	"regexp"
	"strings"

	"github.com/dvloznov/submanager/internal/domain"
)

// RecurrenceGroup holds transactions that share a normalized description key.
type RecurrenceGroup struct {
	Key          string
	Transactions []domain.Transaction
}

var (
	keyDateRe    = regexp.MustCompile(`\d{1,4}[/.\-]\d{1,2}(?:[/.\-]\d{1,4})?`)
	keyDigitsRe  = regexp.MustCompile(`\d+`)
	keyNonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// NormalizeKey reduces a description to its grouping key: lowercase, dates
// and digit runs removed, punctuation turned into spaces, whitespace
// collapsed, then truncated to maxLen runes.
func NormalizeKey(description string, maxLen int) string {
	s := strings.ToLower(description)
	s = keyDateRe.ReplaceAllString(s, " ")
	s = keyDigitsRe.ReplaceAllString(s, "")
	s = keyNonWordRe.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")

	if r := []rune(s); maxLen > 0 && len(r) > maxLen {
		s = string(r[:maxLen])
	}
	return s
}

// Group clusters transactions by normalized key. Groups come back in order
// of first appearance and keep the input order of their members; every
// transaction lands in exactly one group.
func Group(txs []domain.Transaction, keyMaxLen int) []RecurrenceGroup {
	index := make(map[string]int)
	var groups []RecurrenceGroup

	for _, tx := range txs {
		key := NormalizeKey(tx.Description, keyMaxLen)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, RecurrenceGroup{Key: key})
		}
		groups[i].Transactions = append(groups[i].Transactions, tx)
	}
	return groups
}

// Flatten concatenates groups back into one sequence.
func Flatten(groups []RecurrenceGroup) []domain.Transaction {
	var out []domain.Transaction
	for _, g := range groups {
		out = append(out, g.Transactions...)
	}
	return out
}
