// Package premium normalizes monetary values coming from upstream records.
//
// Stored premiums arrive as numbers, numeric strings or hand-typed currency
// strings. Normalize is the one place that turns them into a decimal, using a
// fixed order of attempts:
//
//  1. numeric types are taken as-is;
//  2. strings are parsed exactly, then again with everything but digits and
//     the decimal point stripped ("$1,250.00" -> 1250.00); a minus sign ahead
//     of the first digit or accounting parentheses mark the value negative;
//  3. anything else is zero.
//
// Negative, NaN and infinite values are zero as well. Normalize never fails:
// a malformed premium contributes nothing but the record still counts.
package premium

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// AnnualMultiplier converts a monthly premium into annualized premium.
const AnnualMultiplier = 12

var (
	nonNumericRegex = regexp.MustCompile(`[^0-9.]+`)
	annualFactor    = decimal.NewFromInt(AnnualMultiplier)
)

// Normalize coerces v into a non-negative finite decimal.
func Normalize(v any) decimal.Decimal {
	d, ok := parse(v)
	if !ok || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Annualize returns the normalized premium multiplied by AnnualMultiplier.
func Annualize(v any) decimal.Decimal {
	return Normalize(v).Mul(annualFactor)
}

// Float is Normalize converted for presentation.
func Float(v any) float64 {
	return Normalize(v).InexactFloat64()
}

// Valid reports whether v parses without falling back to zero.
func Valid(v any) bool {
	d, ok := parse(v)
	return ok && !d.IsNegative()
}

func parse(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		return *val, true
	case float64:
		return fromFloat(val)
	case float32:
		return fromFloat(float64(val))
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int8:
		return decimal.NewFromInt(int64(val)), true
	case int16:
		return decimal.NewFromInt(int64(val)), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case uint:
		return decimal.NewFromUint64(uint64(val)), true
	case uint8:
		return decimal.NewFromUint64(uint64(val)), true
	case uint16:
		return decimal.NewFromUint64(uint64(val)), true
	case uint32:
		return decimal.NewFromUint64(uint64(val)), true
	case uint64:
		return decimal.NewFromUint64(val), true
	case json.Number:
		return parseString(string(val))
	case string:
		return parseString(val)
	case []byte:
		return parseString(string(val))
	default:
		return decimal.Zero, false
	}
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func parseString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}
	stripped := nonNumericRegex.ReplaceAllString(s, "")
	if stripped == "" || stripped == "." {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(stripped)
	if err != nil {
		return decimal.Zero, false
	}
	if negativeText(s) {
		return d.Neg(), true
	}
	return d, true
}

// negativeText reports a minus before the first digit ("-$50", "$-50.00")
// or a value wrapped in parentheses ("(50.00)").
func negativeText(s string) bool {
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return true
	}
	i := strings.IndexAny(s, "0123456789")
	return i > 0 && strings.Contains(s[:i], "-")
}
