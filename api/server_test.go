package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"

	"github.com/econoscale/econoscale/internal/config"
	"github.com/econoscale/econoscale/internal/refresh"
	"github.com/econoscale/econoscale/internal/snapshot"
	"github.com/econoscale/econoscale/internal/source"
)

const (
	priceBody = `{"bitcoin":{"usd":67000.0,"eur":61500.0,"jpy":10500000.0,"xau":25.0}}`
	gdpBody   = `{"values":{"NGDPD":{"USA":{"2024":27000},"CHN":{"2024":18000},"JPN":{"2024":4200},"DEU":{"2024":4500}}}}`
)

func testServer(t *testing.T, priceURL, gdpURL string) *Server {
	t.Helper()
	cfg := &config.Config{
		Feeds: config.FeedsConfig{
			PriceURL:   priceURL + "?vs_currencies=%s",
			GdpURL:     gdpURL,
			QuoteUnits: []string{"usd", "eur", "jpy", "xau"},
		},
		Fetch: config.FetchConfig{
			AttemptTimeoutSec: 2,
			DomainCeilingSec:  5,
			MinCountries:      3,
			RequestsPerMinute: 1000,
			Transports:        []config.TransportConfig{{Name: "direct"}},
		},
		Snapshot: config.SnapshotConfig{Dir: "/snapshots", PriceMaxAgeHour: 24, GdpMaxAgeHour: 168},
		Rank:     config.RankConfig{FiatTopN: 30, CacheTTLSec: 300},
		API:      config.APIConfig{Host: "127.0.0.1", Port: 0},
	}
	client, err := source.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	store := snapshot.NewWithFs(afero.NewMemMapFs(), &cfg.Snapshot)
	return NewServerWithDeps(cfg, refresh.NewWithDeps(client, store, cfg), store)
}

func TestHealthz(t *testing.T) {
	srv := testServer(t, "http://127.0.0.1:0", "http://127.0.0.1:0")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
}

func TestRankEndpoint(t *testing.T) {
	var priceHits atomic.Int32
	priceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		priceHits.Add(1)
		w.Write([]byte(priceBody))
	}))
	defer priceSrv.Close()
	gdpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(gdpBody))
	}))
	defer gdpSrv.Close()

	srv := testServer(t, priceSrv.URL, gdpSrv.URL)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rank", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("rank = %d: %s", rec.Code, rec.Body.String())
	}

	var report refresh.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Entities) == 0 {
		t.Fatal("empty entity list")
	}
	for i, e := range report.Entities {
		if e.Rank != i+1 {
			t.Errorf("rank at %d = %d", i, e.Rank)
		}
	}

	// Second request is served from the TTL cache, not a new fetch.
	rec2 := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/api/v1/rank", nil))
	if rec2.Code != http.StatusOK {
		t.Fatalf("cached rank = %d", rec2.Code)
	}
	if priceHits.Load() != 1 {
		t.Errorf("price feed hit %d times, want 1 (cache)", priceHits.Load())
	}

	// refresh=true bypasses the cache.
	rec3 := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec3, httptest.NewRequest(http.MethodGet, "/api/v1/rank?refresh=true", nil))
	if rec3.Code != http.StatusOK {
		t.Fatalf("forced rank = %d", rec3.Code)
	}
	if priceHits.Load() != 2 {
		t.Errorf("price feed hit %d times, want 2 after forced refresh", priceHits.Load())
	}
}

func TestRankTotalFailure(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer down.Close()

	srv := testServer(t, down.URL, down.URL)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rank", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("rank with all feeds down = %d, want 502", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["error"] == "" {
		t.Error("error payload missing message")
	}
}

func TestStatusEndpoint(t *testing.T) {
	priceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(priceBody))
	}))
	defer priceSrv.Close()
	gdpSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(gdpBody))
	}))
	defer gdpSrv.Close()

	srv := testServer(t, priceSrv.URL, gdpSrv.URL)

	// Before any refresh: both snapshots absent.
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var before struct {
		Snapshots []domainStatus `json:"snapshots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatal(err)
	}
	if len(before.Snapshots) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(before.Snapshots))
	}
	for _, st := range before.Snapshots {
		if st.Present {
			t.Errorf("domain %s present before any refresh", st.Domain)
		}
	}

	// After a refresh both snapshots exist.
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rank", nil))
	if rec.Code != http.StatusOK {
		t.Fatal("seed refresh failed")
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	var after struct {
		Snapshots []domainStatus `json:"snapshots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatal(err)
	}
	for _, st := range after.Snapshots {
		if !st.Present {
			t.Errorf("domain %s absent after refresh", st.Domain)
		}
		if st.Stale {
			t.Errorf("domain %s stale immediately after refresh", st.Domain)
		}
	}
}
