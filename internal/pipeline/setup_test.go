package pipeline

import (
	"testing"

	"github.com/dvloznov/submanager/internal/config"
)

func TestSetup_Offline(t *testing.T) {
	cfg := config.Default()

	res, err := Setup(testContext(), cfg, SetupOptions{})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer res.Close()

	if res.Storage != nil || res.Repo != nil {
		t.Errorf("unexpected clients: storage %v, repo %v", res.Storage, res.Repo)
	}

	rs, err := Run(testContext(), res.Pipeline, &PipelineState{Filename: "dec.csv", Data: []byte(netflixCSV), Today: today})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rs.Subscriptions) != 1 {
		t.Errorf("len(Subscriptions) = %d, want 1", len(rs.Subscriptions))
	}
}

func TestSetup_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Detection.Bands = []config.BandConfig{{Frequency: "hourly", MinDays: 1, MaxDays: 2}}

	if _, err := Setup(testContext(), cfg, SetupOptions{}); err == nil {
		t.Fatal("expected error for unknown band frequency")
	}
}
