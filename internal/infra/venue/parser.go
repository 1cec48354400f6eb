package venue

import (
	"errors"
	"strconv"
	"strings"

	"maker_go/pkg/quant"
)

// ParsePriceCents parses a decimal price string (e.g. "99.50") into
// integer cents. It avoids float64 entirely.
func ParsePriceCents(s string) (quant.Price, error) {
	v, err := parseFixedPoint(s, 2)
	return quant.Price(v), err
}

// ParseFeeCents parses a decimal fee string into integer cents.
// Negative values are maker rebates.
func ParseFeeCents(s string) (int64, error) {
	return parseFixedPoint(s, 2)
}

// parseFixedPoint parses a decimal string into an integer scaled by
// 10^decimals. Example: "1.23", decimals=2 -> 123. Excess precision is
// truncated toward zero.
func parseFixedPoint(s string, decimals int) (int64, error) {
	if s == "" {
		return 0, nil
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, errors.New("invalid decimal format: multiple dots")
	}

	integerPart := parts[0]
	fractionalPart := ""
	if len(parts) == 2 {
		fractionalPart = parts[1]
	}

	sign := int64(1)
	if strings.HasPrefix(integerPart, "-") {
		sign = -1
		integerPart = integerPart[1:]
	}

	intVal, err := strconv.ParseInt(integerPart, 10, 64)
	if err != nil {
		if integerPart == "" {
			intVal = 0 // ".5" case
		} else {
			return 0, err
		}
	}

	if len(fractionalPart) > decimals {
		fractionalPart = fractionalPart[:decimals]
	} else {
		fractionalPart = fractionalPart + strings.Repeat("0", decimals-len(fractionalPart))
	}

	fracVal := int64(0)
	if fractionalPart != "" {
		fracVal, err = strconv.ParseInt(fractionalPart, 10, 64)
		if err != nil {
			return 0, err
		}
	}

	multiplier := int64(1)
	for i := 0; i < decimals; i++ {
		multiplier *= 10
	}

	return (intVal*multiplier + fracVal) * sign, nil
}
