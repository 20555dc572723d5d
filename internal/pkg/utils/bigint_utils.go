package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatBigInt converts a big.Int value to a human-readable string,
// considering the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
// Returns the formatted string and an error if conversion is problematic.
func FormatBigInt(amount *big.Int, decimals uint8) (string, error) {
	if amount == nil {
		return "0.0", nil
	}

	if decimals == 0 {
		return amount.String(), nil
	}

	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(amountFloat, divisor)

	formattedStr := value.Text('f', int(decimals))

	if strings.Contains(formattedStr, ".") {
		formattedStr = strings.TrimRight(formattedStr, "0")
		formattedStr = strings.TrimRight(formattedStr, ".")
	}
	if strings.HasPrefix(formattedStr, ".") {
		formattedStr = "0" + formattedStr
	}
	if formattedStr == "" && amount.Sign() == 0 {
		return "0", nil
	}
	if formattedStr == "" && amount.Sign() != 0 {
		return value.Text('f', 2), fmt.Errorf("formatting resulted in empty string for non-zero value")
	}

	return formattedStr, nil
}

// ParseUnits converts a decimal string to its smallest-unit integer for the
// given number of decimals, without going through floating point.
// Example: value="1.5", decimals=6 => 1500000. Excess fractional digits are an
// error rather than silently truncated.
func ParseUnits(value string, decimals uint8) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(value, "-") {
		return nil, fmt.Errorf("negative amount %q", value)
	}
	value = strings.TrimPrefix(value, "+")

	intPart := value
	fracPart := ""
	if idx := strings.IndexByte(value, '.'); idx >= 0 {
		intPart = value[:idx]
		fracPart = value[idx+1:]
	}
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("malformed amount %q", value)
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d fractional digits", value, decimals)
	}
	fracPart += strings.Repeat("0", int(decimals)-len(fracPart))

	combined := intPart + fracPart
	result, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount %q", value)
	}
	return result, nil
}

// IsPositiveDecimal reports whether the string parses as a decimal number
// strictly greater than zero.
func IsPositiveDecimal(value string) bool {
	f, ok := new(big.Float).SetString(strings.TrimSpace(value))
	return ok && f.Sign() > 0
}

// AmountOutMin computes the minimum acceptable output enforced on-chain:
// floor(amountOut * (1000 - floor(slippagePercent*10)) / 1000), in integer
// arithmetic scaled by 1000 to avoid floating-point drift.
func AmountOutMin(amountOut *big.Int, slippagePercent float64) *big.Int {
	perMille := big.NewInt(1000 - int64(slippagePercent*10))
	min := new(big.Int).Mul(amountOut, perMille)
	return min.Div(min, big.NewInt(1000))
}
