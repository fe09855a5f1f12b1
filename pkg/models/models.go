// Package models defines the shared data models exchanged between the
// source clients, the snapshot store, the aggregator, and the API layer.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Domain identifies one of the two independent upstream data feeds.
type Domain string

const (
	DomainPrice Domain = "price"
	DomainGdp   Domain = "gdp"
)

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	return d == DomainPrice || d == DomainGdp
}

// ReferenceFiat is the pivot quote unit every derived calculation hangs off.
const ReferenceFiat = "usd"

// PriceTable maps a quote-unit code (lower-case fiat or metal code) to the
// price of one BTC expressed in that unit. A price that is zero or negative
// is treated as absent, never as a defined quote.
type PriceTable map[string]float64

// Quote returns the price for code (case-insensitive) and whether a
// positive quote exists.
func (p PriceTable) Quote(code string) (float64, bool) {
	v, ok := p[strings.ToLower(code)]
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// GdpData is one GDP feed payload: the latest annual GDP estimate per
// country, in billions of USD, plus the fiscal year the values refer to.
type GdpData struct {
	Year      string             `json:"year"`
	Countries map[string]float64 `json:"countries"`
}

// EntityKind classifies a ranked entity.
type EntityKind string

const (
	KindCrypto EntityKind = "crypto"
	KindMetal  EntityKind = "metal"
	KindFiat   EntityKind = "fiat"
)

// RankedEntity is one row of the aggregator output. A fresh list is built
// on every refresh cycle; rows are never mutated in place.
type RankedEntity struct {
	Rank         int        `json:"rank"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	Kind         EntityKind `json:"kind"`
	EconomicSize float64    `json:"economic_size"` // USD: GDP for fiat, price×supply for crypto/metals
	UnitPrice    float64    `json:"unit_price"`    // USD per one entity unit
	SatsPerUnit  float64    `json:"sats_per_unit"` // base units bought by one entity unit
	UnitsPerBTC  float64    `json:"units_per_btc"` // entity units bought by one BTC
}

// Snapshot is the persisted last-known-good payload for one domain.
type Snapshot struct {
	Timestamp int64           `json:"timestamp"` // epoch millis at capture
	Period    string          `json:"period"`    // fiscal year or source identifier
	Domain    Domain          `json:"domain"`
	Data      json.RawMessage `json:"data"`
}

// Age returns how old the snapshot is relative to now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(s.Timestamp))
}

// DataSource tells callers whether a payload came from a live fetch or
// from the snapshot fallback.
type DataSource string

const (
	SourceLive  DataSource = "live"
	SourceCache DataSource = "cache"
)
