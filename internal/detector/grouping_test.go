package detector

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/submanager/internal/domain"
	"github.com/google/go-cmp/cmp"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"NETFLIX ABONNEMENT", "netflix abonnement"},
		{"PRLV SEPA NETFLIX.COM 12/03/2024", "prlv sepa netflix com"},
		{"CB SPOTIFY  P1A2B3 15.01", "cb spotify pab"},
		{"Amazon*Prime   -   Video", "amazon prime video"},
		{"   ", ""},
		{"Café Crème", "café crème"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeKey(tt.input, DefaultKeyMaxLength); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeKey_Truncates(t *testing.T) {
	long := strings.Repeat("abonnement ", 20)
	got := NormalizeKey(long, DefaultKeyMaxLength)
	if n := len([]rune(got)); n != DefaultKeyMaxLength {
		t.Errorf("len(NormalizeKey()) = %d, want %d", n, DefaultKeyMaxLength)
	}
}

func TestGroup(t *testing.T) {
	txs := []domain.Transaction{
		{Date: date(2024, 3, 1), Description: "NETFLIX 0301", Amount: 15.99},
		{Date: date(2024, 3, 1), Description: "Spotify", Amount: 9.99},
		{Date: date(2024, 2, 1), Description: "netflix 0201", Amount: 15.99},
		{Date: date(2024, 1, 1), Description: "Gym", Amount: 30},
	}

	groups := Group(txs, DefaultKeyMaxLength)

	if len(groups) != 3 {
		t.Fatalf("len(Group()) = %d, want 3", len(groups))
	}
	wantKeys := []string{"netflix", "spotify", "gym"}
	for i, g := range groups {
		if g.Key != wantKeys[i] {
			t.Errorf("groups[%d].Key = %q, want %q", i, g.Key, wantKeys[i])
		}
	}
	if len(groups[0].Transactions) != 2 {
		t.Errorf("netflix group size = %d, want 2", len(groups[0].Transactions))
	}

	total := 0
	for _, g := range groups {
		total += len(g.Transactions)
	}
	if total != len(txs) {
		t.Errorf("grouped %d transactions, want %d", total, len(txs))
	}
}

func TestGroup_Idempotent(t *testing.T) {
	txs := []domain.Transaction{
		{Date: date(2024, 3, 1), Description: "NETFLIX", Amount: 15.99},
		{Date: date(2024, 3, 2), Description: "EDF 123", Amount: 60},
		{Date: date(2024, 2, 1), Description: "netflix", Amount: 15.99},
		{Date: date(2024, 2, 2), Description: "EDF 456", Amount: 61},
		{Date: date(2024, 1, 5), Description: "Lunch", Amount: 12},
	}

	once := Group(txs, DefaultKeyMaxLength)
	twice := Group(Flatten(once), DefaultKeyMaxLength)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("re-grouping changed groups (-once +twice):\n%s", diff)
	}
}

func TestGroup_Empty(t *testing.T) {
	if got := Group(nil, DefaultKeyMaxLength); len(got) != 0 {
		t.Errorf("Group(nil) = %v, want empty", got)
	}
}
