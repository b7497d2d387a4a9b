package symbols

import (
	"fmt"
	"strings"
)

const maxSymbolLen = 12

// Normalize trims and uppercases a ticker and rejects anything the data
// source could not resolve.
func Normalize(symbol string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return "", fmt.Errorf("ticker is required")
	}
	if !IsValidSymbol(sym) {
		return "", fmt.Errorf("invalid ticker %q", symbol)
	}
	return sym, nil
}

// IsValidSymbol accepts Yahoo-style tickers: letters and digits plus the
// index caret, class dot, dash and the "=" of futures and FX pairs.
func IsValidSymbol(symbol string) bool {
	if len(symbol) == 0 || len(symbol) > maxSymbolLen {
		return false
	}
	for i, c := range symbol {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '^' && i == 0:
		case c == '.' || c == '-' || c == '=':
		default:
			return false
		}
	}
	return true
}
