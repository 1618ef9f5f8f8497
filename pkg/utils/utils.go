package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TruncateString shortens str to at most num runes.
func TruncateString(str string, num int) string {
	if num < 0 {
		num = 0
	}
	runes := []rune(str)
	if len(runes) <= num {
		return str
	}
	if num <= 3 {
		return string(runes[:num])
	}
	return string(runes[:num-3]) + "..."
}

func AddCommas(s string) string {
	if len(s) == 0 {
		return s
	}
	parts := strings.Split(s, ".")
	integerPart := parts[0]
	sign := ""
	if strings.HasPrefix(integerPart, "-") {
		sign = "-"
		integerPart = integerPart[1:]
	}

	n := len(integerPart)
	if n <= 3 {
		return s
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(integerPart[:remainder])
		result.WriteString(",")
	}
	for i := remainder; i < n; i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(integerPart[i : i+3])
	}

	if len(parts) > 1 {
		result.WriteString(".")
		result.WriteString(parts[1])
	}
	return result.String()
}

func FormatFloat(f float64, decimals int) string {
	return AddCommas(fmt.Sprintf("%.*f", decimals, f))
}

// ParseAmount reads an integer token amount as returned by the contracts.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount scales a raw amount down by decimals and groups thousands.
// Values that are not numbers are returned unchanged.
func FormatAmount(raw string, decimals int) string {
	d, ok := ParseAmount(raw)
	if !ok {
		return raw
	}
	if decimals > 0 {
		d = d.Shift(int32(-decimals))
	}
	return AddCommas(d.String())
}

// AmountFloat converts a raw amount for charting.
func AmountFloat(raw string, decimals int) (float64, bool) {
	d, ok := ParseAmount(raw)
	if !ok {
		return 0, false
	}
	if decimals > 0 {
		d = d.Shift(int32(-decimals))
	}
	f, _ := d.Float64()
	return f, true
}

// ShortAddress abbreviates long wallet addresses for narrow layouts.
func ShortAddress(addr string) string {
	runes := []rune(addr)
	if len(runes) <= 14 {
		return addr
	}
	return string(runes[:8]) + "..." + string(runes[len(runes)-4:])
}
