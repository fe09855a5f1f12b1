// Package refresh binds the source client and the snapshot store into
// the fetch-with-fallback protocol: try the live transport chain, fall
// back to the persisted snapshot, surface an error only when neither
// yields data.
//
// The two feed domains run concurrently and join before aggregation.
package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/econoscale/econoscale/internal/config"
	"github.com/econoscale/econoscale/internal/rank"
	"github.com/econoscale/econoscale/internal/snapshot"
	"github.com/econoscale/econoscale/internal/source"
	"github.com/econoscale/econoscale/pkg/models"
)

// State is the per-domain outcome of one refresh cycle.
type State string

const (
	StateSucceeded State = "succeeded" // live fetch, snapshot updated
	StateDegraded  State = "degraded"  // live fetch failed, snapshot served
	StateFailed    State = "failed"    // no live data and no snapshot
)

// Outcome describes how one domain's payload was obtained. When Source
// is cache, Age and Stale let callers surface an advisory.
type Outcome struct {
	Domain models.Domain     `json:"domain"`
	State  State             `json:"state"`
	Source models.DataSource `json:"source,omitempty"`
	Age    time.Duration     `json:"age,omitempty"`
	Stale  bool              `json:"stale,omitempty"`
	Err    string            `json:"error,omitempty"`
}

// Report is the product of one refresh cycle.
type Report struct {
	Entities    []models.RankedEntity `json:"entities"`
	Price       Outcome               `json:"price"`
	Gdp         Outcome               `json:"gdp"`
	Diagnostics []string              `json:"diagnostics,omitempty"`
	RefreshedAt time.Time             `json:"refreshed_at"`
}

// Degraded reports whether any domain was served from cache.
func (r *Report) Degraded() bool {
	return r.Price.State == StateDegraded || r.Gdp.State == StateDegraded
}

// Refresher runs refresh cycles. It is safe to run overlapping cycles;
// the snapshot store serializes writes per domain.
type Refresher struct {
	client  *source.Client
	store   *snapshot.Store
	ceiling time.Duration
	topN    int
}

// New builds a refresher from configuration.
func New(cfg *config.Config) (*Refresher, error) {
	client, err := source.New(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithDeps(client, snapshot.New(&cfg.Snapshot), cfg), nil
}

// NewWithDeps wires a refresher from explicit dependencies (tests use an
// in-memory snapshot store and stub servers).
func NewWithDeps(client *source.Client, store *snapshot.Store, cfg *config.Config) *Refresher {
	return &Refresher{
		client:  client,
		store:   store,
		ceiling: cfg.Fetch.DomainCeiling(),
		topN:    cfg.Rank.FiatTopN,
	}
}

// Refresh runs one full cycle: fetch both domains concurrently, fall
// back per domain, aggregate. A price-domain total failure fails the
// cycle; a GDP-domain total failure degrades to a crypto/metals-only
// ranking.
func (r *Refresher) Refresh(ctx context.Context) (*Report, error) {
	var (
		prices       models.PriceTable
		gdp          *models.GdpData
		priceOutcome Outcome
		gdpOutcome   Outcome
	)

	// Join barrier: aggregation needs both domains (or their fallback
	// outcomes) before it can run.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prices, priceOutcome = r.fetchPrice(gctx)
		return nil
	})
	g.Go(func() error {
		gdp, gdpOutcome = r.fetchGdp(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Price:       priceOutcome,
		Gdp:         gdpOutcome,
		RefreshedAt: time.Now(),
	}

	if priceOutcome.State == StateFailed {
		return report, fmt.Errorf("refresh: price domain failed with no snapshot: %s", priceOutcome.Err)
	}
	if gdpOutcome.State == StateFailed {
		log.Printf("refresh: gdp domain failed with no snapshot, ranking crypto/metals only")
		gdp = nil
	}

	res, err := rank.Aggregate(prices, gdp, rank.Options{FiatTopN: r.topN})
	if err != nil {
		return report, fmt.Errorf("refresh: %w", err)
	}
	report.Entities = res.Entities
	report.Diagnostics = res.Diagnostics
	return report, nil
}

// fetchPrice runs the price domain's fetch-then-fallback path.
func (r *Refresher) fetchPrice(ctx context.Context) (models.PriceTable, Outcome) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.ceiling)
	defer cancel()

	table, err := r.client.FetchPrice(fetchCtx)
	if err == nil {
		if werr := r.store.Write(models.DomainPrice, "live", table); werr != nil {
			// A failed cache write never invalidates a good live fetch.
			log.Printf("refresh: price snapshot write failed: %v", werr)
		}
		return table, Outcome{Domain: models.DomainPrice, State: StateSucceeded, Source: models.SourceLive}
	}

	snap, ok := r.store.Read(models.DomainPrice)
	if !ok {
		return nil, Outcome{Domain: models.DomainPrice, State: StateFailed, Err: err.Error()}
	}
	var cached models.PriceTable
	if uerr := json.Unmarshal(snap.Data, &cached); uerr != nil {
		return nil, Outcome{Domain: models.DomainPrice, State: StateFailed, Err: err.Error()}
	}
	log.Printf("refresh: price feed degraded to snapshot (%s old): %v", snap.Age(time.Now()).Round(time.Minute), err)
	return cached, Outcome{
		Domain: models.DomainPrice,
		State:  StateDegraded,
		Source: models.SourceCache,
		Age:    snap.Age(time.Now()),
		Stale:  r.store.Stale(snap, time.Now()),
	}
}

// fetchGdp runs the GDP domain's fetch-then-fallback path.
func (r *Refresher) fetchGdp(ctx context.Context) (*models.GdpData, Outcome) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.ceiling)
	defer cancel()

	data, err := r.client.FetchGdp(fetchCtx)
	if err == nil {
		if werr := r.store.Write(models.DomainGdp, data.Year, data); werr != nil {
			log.Printf("refresh: gdp snapshot write failed: %v", werr)
		}
		return data, Outcome{Domain: models.DomainGdp, State: StateSucceeded, Source: models.SourceLive}
	}

	snap, ok := r.store.Read(models.DomainGdp)
	if !ok {
		return nil, Outcome{Domain: models.DomainGdp, State: StateFailed, Err: err.Error()}
	}
	var cached models.GdpData
	if uerr := json.Unmarshal(snap.Data, &cached); uerr != nil {
		return nil, Outcome{Domain: models.DomainGdp, State: StateFailed, Err: err.Error()}
	}
	log.Printf("refresh: gdp feed degraded to snapshot (%s old): %v", snap.Age(time.Now()).Round(time.Minute), err)
	return &cached, Outcome{
		Domain: models.DomainGdp,
		State:  StateDegraded,
		Source: models.SourceCache,
		Age:    snap.Age(time.Now()),
		Stale:  r.store.Stale(snap, time.Now()),
	}
}
