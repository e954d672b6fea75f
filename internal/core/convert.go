package core

// convert.go provides the lenient conversions between cell text and
// editable values.
//
// These functions handle the messy reality of scraped menu data:
//   - Persian and Arabic-Indic digits and separators in numbers
//   - Currency words and thousand separators in prices
//   - Trailing garbage after a numeric prefix ("120000 toman")
//   - Loosely formatted clock times ("9:0")
//
// Numeric conversions never fail: unparseable input yields 0.

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/JonMunkholm/MenuEditor/internal/tabular"
)

// numericPrefix matches the longest leading decimal number after cleanup.
// Matches integers, decimals, and scientific notation.
var numericPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// digitReplacer maps Persian and Arabic-Indic digits and separators to ASCII.
var digitReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"٫", ".", // Arabic decimal separator
	"٬", "", // Arabic thousands separator
	" ", "",
)

// decimalComma rewrites a lone comma followed by one or two digits, as in
// "12,5", to a decimal point. Any other comma is a thousands separator and
// is removed.
func decimalComma(s string) string {
	i := strings.IndexByte(s, ',')
	if i > 0 && isASCIIDigit(s[i-1]) && strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		j := i + 1
		for j < len(s) && isASCIIDigit(s[j]) {
			j++
		}
		if n := j - i - 1; n == 1 || n == 2 {
			return s[:i] + "." + s[i+1:]
		}
	}
	return strings.ReplaceAll(s, ",", "")
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

// currencyWords are stripped before parsing a price.
var currencyWords = []string{"تومان", "ریال", "toman", "rial", "irr", "$"}

// ParseNumber converts cell or input text to a number.
// Returns 0 for empty, non-numeric, or non-finite input.
func ParseNumber(s string) float64 {
	s = decimalComma(strings.TrimSpace(digitReplacer.Replace(s)))
	lower := strings.ToLower(s)
	for _, w := range currencyWords {
		if strings.HasPrefix(lower, w) {
			s = strings.TrimSpace(s[len(w):])
			lower = strings.ToLower(s)
		}
	}

	m := numericPrefix.FindString(s)
	if m == "" {
		return 0
	}

	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ParseNonNegative is ParseNumber clamped to at least 0.
func ParseNonNegative(s string) float64 {
	return math.Max(0, ParseNumber(s))
}

// ParseRating is ParseNumber clamped to the 0-5 rating scale.
func ParseRating(s string) float64 {
	return math.Min(5, ParseNonNegative(s))
}

// FormatNumber renders a number the shortest way that round-trips, with no
// exponent for ordinary prices ("120000", "4.5").
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseFlag reports whether a cell holds a true boolean ("true", "True").
func ParseFlag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// FormatFlag renders a boolean the way the platforms export it.
func FormatFlag(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// TagsToText renders a JSON array cell as a comma-separated input value.
// Anything that is not a JSON array is returned unchanged.
func TagsToText(cell string) string {
	if strings.TrimSpace(cell) == "" {
		return ""
	}

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(cell), &arr); err != nil {
		return cell
	}

	parts := make([]string, len(arr))
	for i, raw := range arr {
		parts[i] = tabular.ScalarText(raw)
	}
	return strings.Join(parts, ", ")
}

// TagsToJSON converts a comma-separated input value to a JSON array cell.
// Blank entries are dropped.
func TagsToJSON(text string) string {
	tags := []string{}
	for _, t := range strings.Split(text, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	cell, _ := encodeJSON(tags)
	return cell
}

// encodeJSON renders v as a single-line JSON cell. '<', '>' and '&' are
// written as is.
func encodeJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Default clock bounds for malformed stored times.
const (
	DefaultStartClock = "00:00"
	DefaultStopClock  = "23:59"
)

// NormalizeClock pads a loosely formatted "H:M" time to "HH:MM".
// Returns fallback for missing or malformed input.
func NormalizeClock(s, fallback string) string {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return fallback
	}

	hh, mm := parts[0], parts[1]
	if mm == "" {
		mm = "00"
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 || len(hh) > 2 || len(mm) > 2 {
		return fallback
	}
	return twoDigits(h) + ":" + twoDigits(m)
}

// ValidClock reports whether s is a 24-hour "HH:MM" time.
func ValidClock(s string) bool {
	return len(s) == 5 && NormalizeClock(s, "") == s
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// SectionID returns the view identifier of a category section. Whitespace
// runs become a single '-' and the result is lower-cased.
func SectionID(p Platform, category string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range category {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return "category-section-" + string(p) + "-" + strings.ToLower(b.String())
}

// IsProbablyRTL reports whether text contains Arabic, Persian, or Hebrew
// script and should be displayed right-to-left.
func IsProbablyRTL(text string) bool {
	for _, r := range text {
		switch {
		case r >= 0x0590 && r <= 0x05FF,
			r >= 0x0600 && r <= 0x06FF,
			r >= 0x0750 && r <= 0x077F,
			r >= 0xFB50 && r <= 0xFDFF,
			r >= 0xFE70 && r <= 0xFEFF:
			return true
		}
	}
	return false
}

// sanitizeFileToken replaces every character outside [A-Za-z0-9] with '_'.
func sanitizeFileToken(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
