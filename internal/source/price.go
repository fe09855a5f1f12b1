package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/econoscale/econoscale/pkg/models"
)

// ErrMissingReferenceQuote marks a price payload that parses but lacks a
// positive quote for the reference fiat. Every derived calculation pivots
// on that quote, so the payload is useless.
var ErrMissingReferenceQuote = errors.New("price payload missing positive " + models.ReferenceFiat + " quote")

// priceEnvelope is the simple-price response shape:
//
//	{"bitcoin": {"usd": 67000, "eur": 61500, "xau": 25.1, ...}}
type priceEnvelope struct {
	Bitcoin map[string]float64 `json:"bitcoin"`
}

// decodePrice parses and validates a price feed body. Quote codes are
// canonicalized to lower case; zero and negative prices are dropped so a
// defined-zero quote can never leak downstream.
func decodePrice(body []byte) (models.PriceTable, error) {
	var env priceEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode price payload: %w", err)
	}
	if len(env.Bitcoin) == 0 {
		return nil, errors.New("price payload has no bitcoin entry")
	}

	table := make(models.PriceTable, len(env.Bitcoin))
	for code, price := range env.Bitcoin {
		if price <= 0 {
			continue
		}
		table[strings.ToLower(code)] = price
	}

	if _, ok := table.Quote(models.ReferenceFiat); !ok {
		return nil, ErrMissingReferenceQuote
	}
	return table, nil
}
