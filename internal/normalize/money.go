package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountNoise = regexp.MustCompile(`[^0-9.,]`)

// ParseAmount canonicalizes a printed money amount into whole units.
// Both "$ 120.000" (dot thousands) and "1,234.50" (comma thousands) are
// accepted; fractions are rounded half-up. Negative amounts are rejected.
func ParseAmount(s string) (int64, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if isNegative(raw) {
		return 0, fmt.Errorf("negative amount %q", s)
	}

	cleaned := amountNoise.ReplaceAllString(raw, "")
	if strings.Trim(cleaned, ".,") == "" {
		return 0, fmt.Errorf("no digits in amount %q", s)
	}

	d, err := decimal.NewFromString(canonicalSeparators(cleaned))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d.Round(0).IntPart(), nil
}

// isNegative reports a minus sign anywhere in the amount, or digits wrapped
// in accounting parentheses, as in "$-500" or "$ (1.000)".
func isNegative(raw string) bool {
	if strings.Contains(raw, "-") {
		return true
	}
	first := strings.IndexAny(raw, "0123456789")
	if first < 0 {
		return false
	}
	last := strings.LastIndexAny(raw, "0123456789")
	return strings.Contains(raw[:first], "(") && strings.Contains(raw[last:], ")")
}

// canonicalSeparators rewrites a digits-and-separators string so that '.'
// is the only separator and marks the decimal point.
func canonicalSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		return resolveSingleSeparator(s, ".")
	case lastComma >= 0:
		return resolveSingleSeparator(s, ",")
	}
	return s
}

// resolveSingleSeparator treats sep as a thousands separator when it repeats
// or is followed by exactly three digits, otherwise as the decimal point.
func resolveSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	i := strings.Index(s, sep)
	if len(s)-i-1 == 3 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}

// FormatAmount renders whole units with thousands grouping, e.g. $120,000.
func FormatAmount(v int64) string {
	p := message.NewPrinter(language.English)
	if v < 0 {
		return p.Sprintf("-$%d", -v)
	}
	return p.Sprintf("$%d", v)
}
