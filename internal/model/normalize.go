package model

import (
	"strconv"
	"strings"
)

var numberCleaner = strings.NewReplacer(",", "", "$", "", "(", "-", ")", "")

// NormalizeNumber coerces a raw extracted value into a float. Accounting
// notation is accepted: thousands separators and dollar signs are stripped
// and parenthesized values read as negative. Empty strings, lone dashes, and
// anything unparseable map to nil; this never errors.
func NormalizeNumber(v any) *float64 {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		f := x
		return &f
	case float32:
		f := float64(x)
		return &f
	case int:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case string:
		s := strings.TrimSpace(numberCleaner.Replace(strings.TrimSpace(x)))
		if s == "" || s == "-" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}

// NormalizeCIK strips separators from an SEC Central Index Key and left-pads
// it with zeros to the canonical 10 digits.
func NormalizeCIK(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) >= 10 {
		return digits
	}
	return strings.Repeat("0", 10-len(digits)) + digits
}

// formatIdentifier renders a numeric identifier without a fractional part.
func formatIdentifier(f float64) string {
	return strconv.FormatInt(int64(f), 10)
}
