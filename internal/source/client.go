// Package source fetches raw price and GDP payloads from the upstream
// feeds, walking an ordered list of transport strategies (direct call
// first, then proxy relays) until one yields a structurally valid body.
//
// The client is stateless: it owns no persisted data. Snapshot fallback
// is the orchestrator's job.
package source

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/econoscale/econoscale/internal/config"
	"github.com/econoscale/econoscale/internal/infra"
	"github.com/econoscale/econoscale/pkg/models"
)

// maxBodySize caps response bodies so a misbehaving relay cannot balloon
// memory.
const maxBodySize = 10 << 20

// FetchError is returned when every transport strategy has failed for a
// domain. It carries the last underlying error.
type FetchError struct {
	Domain   models.Domain
	Attempts int
	LastErr  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s feed: all %d transport strategies failed: %v", e.Domain, e.Attempts, e.LastErr)
}

func (e *FetchError) Unwrap() error { return e.LastErr }

// Client fetches and validates payloads for both feed domains.
type Client struct {
	http       *http.Client
	strategies []Strategy
	limiter    *infra.RateLimiter

	priceURL     string
	gdpURL       string
	quoteUnits   []string
	minCountries int
	attemptTO    time.Duration
}

// New builds a client from configuration.
func New(cfg *config.Config) (*Client, error) {
	strategies, err := Strategies(cfg.Fetch.Transports)
	if err != nil {
		return nil, err
	}
	rpm := cfg.Fetch.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	return &Client{
		http:         &http.Client{Timeout: cfg.Fetch.AttemptTimeout()},
		strategies:   strategies,
		limiter:      infra.NewRateLimiter(rpm, time.Minute),
		priceURL:     fmt.Sprintf(cfg.Feeds.PriceURL, strings.Join(cfg.Feeds.QuoteUnits, ",")),
		gdpURL:       cfg.Feeds.GdpURL,
		quoteUnits:   cfg.Feeds.QuoteUnits,
		minCountries: cfg.Fetch.MinCountries,
		attemptTO:    cfg.Fetch.AttemptTimeout(),
	}, nil
}

// FetchPrice fetches the BTC price table (quote-unit code → price).
func (c *Client) FetchPrice(ctx context.Context) (models.PriceTable, error) {
	var table models.PriceTable
	err := c.fetch(ctx, models.DomainPrice, c.priceURL, func(body []byte) error {
		t, err := decodePrice(body)
		if err != nil {
			return err
		}
		table = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// FetchGdp fetches the per-country annual GDP table (billions of USD).
func (c *Client) FetchGdp(ctx context.Context) (*models.GdpData, error) {
	var data *models.GdpData
	err := c.fetch(ctx, models.DomainGdp, c.gdpURL, func(body []byte) error {
		d, err := decodeGdp(body, c.minCountries)
		if err != nil {
			return err
		}
		data = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// fetch walks the strategy list. A transport error, non-2xx status,
// unwrap failure, or shape validation failure is a soft failure that
// advances to the next strategy; only when every strategy has failed does
// fetch return a *FetchError.
func (c *Client) fetch(ctx context.Context, domain models.Domain, target string, decode func([]byte) error) error {
	var lastErr error
	for _, strat := range c.strategies {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		body, err := c.attempt(ctx, strat, target)
		if err == nil {
			err = decode(body)
			if err == nil {
				return nil
			}
		}
		if ctx.Err() != nil {
			// The outer ceiling expired; no point trying further relays.
			if lastErr == nil {
				lastErr = ctx.Err()
			}
			break
		}
		log.Printf("source: %s fetch via %q failed: %v", domain, strat.Name, err)
		lastErr = err
	}
	return &FetchError{Domain: domain, Attempts: len(c.strategies), LastErr: lastErr}
}

// attempt issues one bounded request through a single strategy.
func (c *Client) attempt(ctx context.Context, strat Strategy, target string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTO)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, strat.RequestURL(target), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, strat.Name)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	return strat.UnwrapBody(body)
}
