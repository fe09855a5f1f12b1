// Package sats provides pure conversions between satoshis, BTC and fiat
// amounts, plus display formatting for the ranking output.
//
// All conversions tolerate missing upstream prices: a zero or negative
// price yields a zero result rather than an error, so a degraded feed
// never crashes the aggregation pipeline.
package sats

// PerBTC is the fixed number of satoshis in one BTC.
const PerBTC = 100_000_000

// FromBTC converts a BTC amount to satoshis.
func FromBTC(btc float64) float64 {
	return btc * PerBTC
}

// ToBTC converts a satoshi amount to BTC.
func ToBTC(s float64) float64 {
	return s / PerBTC
}

// FromFiat converts a fiat amount to satoshis given the BTC price in that
// fiat. A non-positive price yields 0.
func FromFiat(amount, btcPrice float64) float64 {
	return FromBTC(FiatToBTC(amount, btcPrice))
}

// ToFiat converts a satoshi amount to fiat given the BTC price in that
// fiat. A non-positive price yields 0.
func ToFiat(s, btcPrice float64) float64 {
	return BTCToFiat(ToBTC(s), btcPrice)
}

// FiatToBTC converts a fiat amount to BTC. A non-positive price yields 0.
func FiatToBTC(amount, btcPrice float64) float64 {
	if btcPrice <= 0 {
		return 0
	}
	return amount / btcPrice
}

// BTCToFiat converts a BTC amount to fiat. A non-positive price yields 0.
func BTCToFiat(btc, btcPrice float64) float64 {
	if btcPrice <= 0 {
		return 0
	}
	return btc * btcPrice
}
