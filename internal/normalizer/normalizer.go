// Package normalizer turns raw statement rows and document text lines into
// canonical transactions.
package normalizer

import (
	"errors"
	"sort"
	"strings"
	"unicode"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/submanager/internal/categorizer"
	"github.com/dvloznov/submanager/internal/domain"
)

// Aliases lists, per field, the column names tried in priority order.
type Aliases struct {
	Date        []string `yaml:"date"`
	Description []string `yaml:"description"`
	Amount      []string `yaml:"amount"`
}

// DefaultAliases covers the export formats of the banks seen so far.
var DefaultAliases = Aliases{
	Date:        []string{"date", "date_operation", "transaction_date", "dateop", "date_valeur", "booking_date"},
	Description: []string{"description", "libelle", "label", "details", "memo", "narrative", "payee"},
	Amount:      []string{"amount", "montant", "debit", "value", "sum"},
}

// Normalizer converts raw records into transactions. It holds no mutable
// state and is safe for concurrent use.
type Normalizer struct {
	dateKeys        []string
	descriptionKeys []string
	amountKeys      []string
	categorizer     *categorizer.Categorizer
}

// New returns a normalizer resolving columns through aliases and
// categorizing with c.
func New(aliases Aliases, c *categorizer.Categorizer) *Normalizer {
	return &Normalizer{
		dateKeys:        canonicalKeys(aliases.Date),
		descriptionKeys: canonicalKeys(aliases.Description),
		amountKeys:      canonicalKeys(aliases.Amount),
		categorizer:     c,
	}
}

// Default returns a normalizer with DefaultAliases and the default keyword table.
func Default() *Normalizer {
	return New(DefaultAliases, categorizer.Default())
}

// Result is the outcome of normalizing a batch.
type Result struct {
	// Transactions are sorted by date, most recent first.
	Transactions []domain.Transaction
	// Dropped holds one *domain.MalformedRecordError per skipped record.
	Dropped []error
}

// NormalizeRow converts one column-name → value mapping.
func (n *Normalizer) NormalizeRow(row map[string]string) (domain.Transaction, error) {
	cols := make(map[string]string, len(row))
	for k, v := range row {
		cols[canonicalKey(k)] = v
	}

	rawDate, ok := lookup(cols, n.dateKeys)
	if !ok {
		return domain.Transaction{}, &domain.MalformedRecordError{Reason: "no date column"}
	}
	date, err := ParseDate(rawDate)
	if err != nil {
		return domain.Transaction{}, &domain.MalformedRecordError{Reason: err.Error()}
	}

	desc, ok := lookup(cols, n.descriptionKeys)
	if !ok {
		return domain.Transaction{}, &domain.MalformedRecordError{Reason: "no description"}
	}
	desc = collapseSpaces(desc)

	rawAmount, ok := lookup(cols, n.amountKeys)
	if !ok {
		return domain.Transaction{}, &domain.MalformedRecordError{Reason: "no amount column"}
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return domain.Transaction{}, &domain.MalformedRecordError{Reason: err.Error()}
	}

	return n.transaction(date, desc, amount), nil
}

// NormalizeLine converts one line of extracted document text. The line must
// carry a date token and a signed decimal amount; the rest is the description.
// The first date is the transaction date; later dates (value dates) are
// discarded before the amount search.
func (n *Normalizer) NormalizeLine(line string) (domain.Transaction, error) {
	loc := lineDateRe.FindStringIndex(line)
	if loc == nil {
		return domain.Transaction{}, &domain.MalformedRecordError{Reason: "no date token"}
	}
	date, err := ParseDate(line[loc[0]:loc[1]])
	if err != nil {
		return domain.Transaction{}, &domain.MalformedRecordError{Reason: err.Error()}
	}
	rest := lineDateRe.ReplaceAllString(line[:loc[0]]+" "+line[loc[1]:], " ")

	aloc := lineAmountRe.FindStringIndex(rest)
	if aloc == nil {
		return domain.Transaction{}, &domain.MalformedRecordError{Reason: "no amount token"}
	}
	amount, err := parseAmountToken(rest[aloc[0]:aloc[1]])
	if err != nil {
		return domain.Transaction{}, &domain.MalformedRecordError{Reason: err.Error()}
	}

	desc := collapseSpaces(rest[:aloc[0]] + " " + rest[aloc[1]:])
	if desc == "" {
		return domain.Transaction{}, &domain.MalformedRecordError{Reason: "no description"}
	}
	return n.transaction(date, desc, amount), nil
}

// NormalizeRows converts a batch of rows, dropping malformed ones.
func (n *Normalizer) NormalizeRows(rows []map[string]string) Result {
	res := Result{Transactions: make([]domain.Transaction, 0, len(rows))}
	for i, row := range rows {
		tx, err := n.NormalizeRow(row)
		if err != nil {
			res.Dropped = append(res.Dropped, withLine(err, i+1))
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	sortByDateDesc(res.Transactions)
	return res
}

// NormalizeText converts extracted document text line by line. Blank lines
// are ignored and not reported as dropped.
func (n *Normalizer) NormalizeText(text string) Result {
	var res Result
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tx, err := n.NormalizeLine(line)
		if err != nil {
			res.Dropped = append(res.Dropped, withLine(err, i+1))
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	sortByDateDesc(res.Transactions)
	return res
}

func (n *Normalizer) transaction(date civil.Date, desc string, amount float64) domain.Transaction {
	return domain.Transaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Category:    n.categorizer.Categorize(desc),
	}
}

func sortByDateDesc(txs []domain.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
}

func withLine(err error, line int) error {
	var mre *domain.MalformedRecordError
	if errors.As(err, &mre) {
		return &domain.MalformedRecordError{Line: line, Reason: mre.Reason}
	}
	return err
}

// lookup returns the first non-blank value among keys.
func lookup(cols map[string]string, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := cols[k]; ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// canonicalKey lowercases a column name and drops whitespace and underscores.
func canonicalKey(k string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' {
			return -1
		}
		return unicode.ToLower(r)
	}, k)
}

func canonicalKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, canonicalKey(k))
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
