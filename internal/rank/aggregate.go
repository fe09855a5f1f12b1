// Package rank turns one price payload and one GDP payload into the
// ranked entity list that is the system's external product.
//
// Everything here is a pure transform: no I/O, no retained state, safe
// to call from any number of concurrent refresh cycles.
package rank

import (
	"errors"
	"fmt"
	"sort"

	"github.com/econoscale/econoscale/pkg/models"
	"github.com/econoscale/econoscale/pkg/sats"
)

// ErrNoPivotPrice is returned when the price payload carries no positive
// reference-fiat quote. Every derived figure divides through that quote,
// so aggregation cannot proceed without it.
var ErrNoPivotPrice = errors.New("rank: no reference-fiat BTC price available")

// Options tunes one aggregation pass.
type Options struct {
	// FiatTopN caps fiat entities by economic size before the final
	// merge, so the output reflects "top N economies", not "top N of
	// everything". Zero means the default of 30.
	FiatTopN int
}

const defaultFiatTopN = 30

// Result is one aggregation cycle's output: a freshly built ranked list
// and the diagnostics recorded for entities omitted along the way.
type Result struct {
	Entities    []models.RankedEntity `json:"entities"`
	Diagnostics []string              `json:"diagnostics,omitempty"`
}

// Aggregate builds the ranked comparison list from a price table and a
// GDP table. A nil or empty gdp degrades gracefully to a crypto/metals
// only ranking; a missing reference-fiat quote is the one fatal case.
func Aggregate(prices models.PriceTable, gdp *models.GdpData, opts Options) (*Result, error) {
	usdPrice, ok := prices.Quote(models.ReferenceFiat)
	if !ok {
		return nil, ErrNoPivotPrice
	}

	topN := opts.FiatTopN
	if topN <= 0 {
		topN = defaultFiatTopN
	}

	res := &Result{}

	// Base asset: market cap against an assumed fixed supply. The row
	// carries its reference-fiat unit price, never a self-referential
	// "1 sats = 1 sats" quote.
	entities := []models.RankedEntity{{
		Code:         "btc",
		Name:         "Bitcoin",
		Kind:         models.KindCrypto,
		EconomicSize: usdPrice * btcSupply,
		UnitPrice:    usdPrice,
		SatsPerUnit:  sats.PerBTC,
		UnitsPerBTC:  1,
	}}

	entities = append(entities, metalEntities(prices, usdPrice, res)...)
	entities = append(entities, fiatEntities(prices, gdp, usdPrice, topN, res)...)

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].EconomicSize > entities[j].EconomicSize
	})
	for i := range entities {
		entities[i].Rank = i + 1
	}

	res.Entities = entities
	return res, nil
}

// metalEntities derives fiat prices for the configured metals from the
// BTC cross rate. A metal without a quote is omitted entirely — no
// partial rows.
func metalEntities(prices models.PriceTable, usdPrice float64, res *Result) []models.RankedEntity {
	out := make([]models.RankedEntity, 0, len(metals))
	for _, m := range metals {
		quote, ok := prices.Quote(m.Code) // troy ounces per BTC
		if !ok {
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("metal %s omitted: no price quote", m.Code))
			continue
		}
		unitPrice := usdPrice / quote // USD per troy ounce
		out = append(out, models.RankedEntity{
			Code:         m.Code,
			Name:         m.Name,
			Kind:         models.KindMetal,
			EconomicSize: m.Tons * troyOuncesPerTon * unitPrice,
			UnitPrice:    unitPrice,
			SatsPerUnit:  sats.FromFiat(1, quote),
			UnitsPerBTC:  quote,
		})
	}
	return out
}

// fiatEntities consolidates per-country GDP into currency-level entries,
// prices them, and truncates to the top N by economic size.
func fiatEntities(prices models.PriceTable, gdp *models.GdpData, usdPrice float64, topN int, res *Result) []models.RankedEntity {
	if gdp == nil || len(gdp.Countries) == 0 {
		res.Diagnostics = append(res.Diagnostics, "gdp data absent: fiat entities omitted")
		return nil
	}

	// Sum GDP per currency so Eurozone members become one EUR economy
	// instead of twenty rows. Countries with no mapping are dropped.
	gdpByCurrency := make(map[string]float64)
	for country, billions := range gdp.Countries {
		cur, ok := CurrencyFor(country)
		if !ok {
			continue
		}
		gdpByCurrency[cur] += billions
	}

	// Deterministic input order so equal-size ties break stably.
	codes := make([]string, 0, len(gdpByCurrency))
	for cur := range gdpByCurrency {
		codes = append(codes, cur)
	}
	sort.Strings(codes)

	out := make([]models.RankedEntity, 0, len(codes))
	for _, cur := range codes {
		quote, ok := prices.Quote(cur)
		if !ok {
			res.Diagnostics = append(res.Diagnostics,
				fmt.Sprintf("fiat %s omitted: no price quote (gdp %.1fB USD)", cur, gdpByCurrency[cur]))
			continue
		}
		out = append(out, models.RankedEntity{
			Code:         cur,
			Name:         CurrencyName(cur),
			Kind:         models.KindFiat,
			EconomicSize: gdpByCurrency[cur] * 1e9,
			UnitPrice:    usdPrice / quote,
			SatsPerUnit:  sats.FromFiat(1, quote),
			UnitsPerBTC:  quote,
		})
	}

	// Top-N by size, applied before the final merge.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EconomicSize > out[j].EconomicSize
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
