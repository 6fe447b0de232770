package dart

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseAmount converts a reported monetary token into a signed value.
// Commas are thousands separators, a token wrapped in parentheses is negative,
// and empty, dash-only or unparsable input yields 0.
func ParseAmount(s string) float64 {
	v, _ := LookupAmount(s)
	return v
}

// LookupAmount is ParseAmount with an explicit presence flag, so callers can tell
// a blank column apart from a legitimately reported zero.
func LookupAmount(s string) (float64, bool) {
	cleaned := strings.ReplaceAll(s, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" || cleaned == "-" || cleaned == "—" {
		return 0, false
	}

	negative := false
	if strings.Contains(cleaned, "(") && strings.Contains(cleaned, ")") {
		negative = true
		cleaned = strings.NewReplacer("(", "", ")", "").Replace(cleaned)
		cleaned = strings.TrimSpace(cleaned)
	}

	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}

	if negative {
		val = -abs(val)
	}
	return val, true
}

var (
	nonNumeric = regexp.MustCompile(`[^0-9.\-]`)
	exponent   = regexp.MustCompile(`\d[eE][+-]?\d`)
)

// Korean filings mark negatives with a leading triangle.
const (
	negativeTriangle      = "\u25b3"
	negativeTriangleSolid = "\u25b2"
)

// coerceNumeric is the lenient conversion applied to fact text. Plain numbers,
// exponents included, go straight to ParseFloat. Otherwise everything that is
// not a digit, dot or minus is dropped after parentheses or a leading triangle
// become a leading minus. It reports false when nothing numeric remains.
func coerceNumeric(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	negative := false
	for _, marker := range []string{negativeTriangle, negativeTriangleSolid} {
		if rest, ok := strings.CutPrefix(text, marker); ok {
			negative = true
			text = strings.TrimSpace(rest)
			break
		}
	}

	if val, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64); err == nil {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		if negative {
			val = -abs(val)
		}
		return val, true
	}
	if exponent.MatchString(text) {
		return 0, false
	}

	if strings.Contains(text, "(") && strings.Contains(text, ")") {
		negative = true
	}
	cleaned := nonNumeric.ReplaceAllString(text, "")
	if strings.HasPrefix(cleaned, "-") {
		negative = true
	}
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	if cleaned == "" || cleaned == "." {
		return 0, false
	}

	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		val = -val
	}
	return val, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
