package sats

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer renders numbers with locale-aware thousands separators.
var printer = message.NewPrinter(language.English)

// currencySymbols maps quote-unit codes to display symbols. Codes without
// an entry are rendered as "<CODE> <number>".
var currencySymbols = map[string]string{
	"usd": "$", "eur": "€", "gbp": "£", "jpy": "¥", "cny": "¥",
	"krw": "₩", "inr": "₹", "rub": "₽", "try": "₺", "thb": "฿",
	"vnd": "₫", "ils": "₪", "ngn": "₦", "php": "₱", "uah": "₴",
	"btc": "₿",
}

// FormatNumber renders v with thousands separators, switching to
// exponential notation for magnitudes under 1e-6 so dust amounts stay
// readable.
func FormatNumber(v float64) string {
	abs := math.Abs(v)
	if abs > 0 && abs < 1e-6 {
		return fmt.Sprintf("%.2e", v)
	}
	if v == math.Trunc(v) && abs < 1e15 {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}

// FormatAmount renders a monetary amount for the given quote-unit code.
// Unrecognized codes fall back to a "<CODE> <number>" composite rather
// than failing.
func FormatAmount(code string, v float64) string {
	sym, ok := currencySymbols[strings.ToLower(code)]
	if !ok {
		return strings.ToUpper(code) + " " + FormatNumber(v)
	}
	return sym + FormatNumber(v)
}

// FormatSats renders a satoshi amount with its unit suffix.
func FormatSats(s float64) string {
	return FormatNumber(s) + " sats"
}
