package refresh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/econoscale/econoscale/internal/config"
	"github.com/econoscale/econoscale/internal/snapshot"
	"github.com/econoscale/econoscale/internal/source"
	"github.com/econoscale/econoscale/pkg/models"
)

const (
	priceBody = `{"bitcoin":{"usd":67000.0,"eur":61500.0,"jpy":10500000.0,"cny":480000.0,"xau":25.0,"xag":2100.0}}`
	gdpBody   = `{"values":{"NGDPD":{"USA":{"2024":27000},"CHN":{"2024":18000},"JPN":{"2024":4200},"DEU":{"2024":4500},"FRA":{"2024":3000}}}}`
)

func testSetup(t *testing.T, priceURL, gdpURL string) (*Refresher, *snapshot.Store) {
	t.Helper()
	cfg := &config.Config{
		Feeds: config.FeedsConfig{
			PriceURL:   priceURL + "?vs_currencies=%s",
			GdpURL:     gdpURL,
			QuoteUnits: []string{"usd", "eur", "jpy", "cny", "xau", "xag"},
		},
		Fetch: config.FetchConfig{
			AttemptTimeoutSec: 2,
			DomainCeilingSec:  5,
			MinCountries:      3,
			RequestsPerMinute: 1000,
			Transports:        []config.TransportConfig{{Name: "direct"}},
		},
		Snapshot: config.SnapshotConfig{Dir: "/snapshots", PriceMaxAgeHour: 24, GdpMaxAgeHour: 168},
		Rank:     config.RankConfig{FiatTopN: 30},
	}
	client, err := source.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	store := snapshot.NewWithFs(afero.NewMemMapFs(), &cfg.Snapshot)
	return NewWithDeps(client, store, cfg), store
}

func serveBody(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
}

func serveDown() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
}

func TestRefreshLiveSuccess(t *testing.T) {
	priceSrv := serveBody(priceBody)
	defer priceSrv.Close()
	gdpSrv := serveBody(gdpBody)
	defer gdpSrv.Close()

	r, store := testSetup(t, priceSrv.URL, gdpSrv.URL)
	report, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if report.Price.State != StateSucceeded || report.Gdp.State != StateSucceeded {
		t.Errorf("states = %s/%s, want succeeded/succeeded", report.Price.State, report.Gdp.State)
	}
	if report.Degraded() {
		t.Error("live success must not be degraded")
	}
	if len(report.Entities) == 0 {
		t.Fatal("no entities in report")
	}
	if report.Entities[0].Rank != 1 {
		t.Errorf("first entity rank = %d", report.Entities[0].Rank)
	}

	// Successful fetch must persist both snapshots.
	if _, ok := store.Read(models.DomainPrice); !ok {
		t.Error("price snapshot not written")
	}
	if _, ok := store.Read(models.DomainGdp); !ok {
		t.Error("gdp snapshot not written")
	}
}

func TestRefreshDegradesToSnapshot(t *testing.T) {
	priceSrv := serveBody(priceBody)
	gdpSrv := serveBody(gdpBody)

	r, _ := testSetup(t, priceSrv.URL, gdpSrv.URL)

	// First cycle populates the snapshots, then both feeds go dark.
	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	priceSrv.Close()
	gdpSrv.Close()

	report, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh with snapshots available: %v", err)
	}
	if report.Price.State != StateDegraded || report.Gdp.State != StateDegraded {
		t.Fatalf("states = %s/%s, want degraded/degraded", report.Price.State, report.Gdp.State)
	}
	if report.Price.Source != models.SourceCache {
		t.Errorf("price source = %s, want cache", report.Price.Source)
	}
	if report.Price.Age < 0 {
		t.Errorf("cache age = %v", report.Price.Age)
	}
	if len(report.Entities) == 0 {
		t.Fatal("degraded cycle must still produce a ranking")
	}
	if !report.Degraded() {
		t.Error("Degraded() = false")
	}
}

func TestRefreshTotalPriceFailure(t *testing.T) {
	priceDown := serveDown()
	defer priceDown.Close()
	gdpSrv := serveBody(gdpBody)
	defer gdpSrv.Close()

	r, _ := testSetup(t, priceDown.URL, gdpSrv.URL)
	report, err := r.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected error: price domain failed with no snapshot")
	}
	if report == nil || report.Price.State != StateFailed {
		t.Fatalf("price state = %+v, want failed", report)
	}
	if report.Price.Err == "" {
		t.Error("failed outcome must carry the underlying error")
	}
}

func TestRefreshGdpFailureDegradesToCryptoOnly(t *testing.T) {
	priceSrv := serveBody(priceBody)
	defer priceSrv.Close()
	gdpDown := serveDown()
	defer gdpDown.Close()

	r, _ := testSetup(t, priceSrv.URL, gdpDown.URL)
	report, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("gdp-only failure must not fail the cycle: %v", err)
	}
	if report.Gdp.State != StateFailed {
		t.Errorf("gdp state = %s, want failed", report.Gdp.State)
	}
	for _, e := range report.Entities {
		if e.Kind == models.KindFiat {
			t.Errorf("unexpected fiat row %s with gdp failed", e.Code)
		}
	}
	if len(report.Entities) != 3 { // btc + gold + silver
		t.Errorf("entities = %d, want 3", len(report.Entities))
	}
}

func TestRefreshGdpSnapshotFallbackKeepsFiat(t *testing.T) {
	priceSrv := serveBody(priceBody)
	defer priceSrv.Close()
	gdpSrv := serveBody(gdpBody)

	r, _ := testSetup(t, priceSrv.URL, gdpSrv.URL)
	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	gdpSrv.Close()

	report, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Gdp.State != StateDegraded {
		t.Fatalf("gdp state = %s, want degraded", report.Gdp.State)
	}
	fiat := 0
	for _, e := range report.Entities {
		if e.Kind == models.KindFiat {
			fiat++
		}
	}
	if fiat == 0 {
		t.Error("snapshot fallback should still yield fiat rows")
	}
}

func TestRefreshHonorsCeiling(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write([]byte(priceBody))
	}))
	defer slow.Close()
	gdpSrv := serveBody(gdpBody)
	defer gdpSrv.Close()

	r, _ := testSetup(t, slow.URL, gdpSrv.URL)
	r.ceiling = 100 * time.Millisecond

	start := time.Now()
	_, err := r.Refresh(context.Background())
	if err == nil {
		t.Fatal("expected failure: price fetch exceeds the ceiling and no snapshot exists")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("refresh took %v, ceiling not enforced", elapsed)
	}
}
