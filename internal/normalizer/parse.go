package normalizer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"cloud.google.com/go/civil"
)

var dateRe = regexp.MustCompile(`^(\d{1,4})[/.\-](\d{1,2})[/.\-](\d{1,4})$`)

// ParseDate reads a day/month/year date with "/", "-" or "." separators.
// Two-digit years land in the 2000s. A four-digit first component is read
// as an ISO year-month-day date. Anything after the first space or "T" is
// ignored so that timestamp columns still resolve.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}

	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return civil.Date{}, fmt.Errorf("unrecognized date %q", s)
	}

	var yearStr, monthStr, dayStr string
	if len(m[1]) == 4 {
		yearStr, monthStr, dayStr = m[1], m[2], m[3]
		if len(dayStr) > 2 {
			return civil.Date{}, fmt.Errorf("unrecognized date %q", s)
		}
	} else {
		if len(m[1]) > 2 {
			return civil.Date{}, fmt.Errorf("unrecognized date %q", s)
		}
		dayStr, monthStr, yearStr = m[1], m[2], m[3]
	}

	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)

	switch len(yearStr) {
	case 2:
		year += 2000
	case 4:
	default:
		return civil.Date{}, fmt.Errorf("unrecognized year in date %q", s)
	}

	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if !d.IsValid() {
		return civil.Date{}, fmt.Errorf("invalid calendar date %q", s)
	}
	return d, nil
}

// ParseAmount strips whitespace, turns a decimal comma into a dot and
// returns the absolute value.
func ParseAmount(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite amount %q", s)
	}
	return math.Abs(v), nil
}

var (
	lineDateRe   = regexp.MustCompile(`\b(?:\d{4}-\d{1,2}-\d{1,2}|\d{1,2}[/.\-]\d{1,2}[/.\-](?:\d{4}|\d{2}))\b`)
	lineAmountRe = regexp.MustCompile(`[-+]?\d{1,3}(?:[ .\x{00A0}]\d{3})+,\d{2}\b|[-+]?\d{1,3}(?:[ ,\x{00A0}]\d{3})+\.\d{2}\b|[-+]?\d+[.,]\d{2}\b`)
)

// parseAmountToken reads an amount matched inside free text, where
// thousands separators may be present. The separator two digits before the
// end is the decimal mark.
func parseAmountToken(tok string) (float64, error) {
	tok = strings.TrimSpace(tok)
	if len(tok) < 4 {
		return ParseAmount(tok)
	}
	intPart, frac := tok[:len(tok)-3], tok[len(tok)-2:]
	intPart = strings.Map(func(r rune) rune {
		switch {
		case r == '.' || r == ',' || unicode.IsSpace(r):
			return -1
		}
		return r
	}, intPart)
	return ParseAmount(intPart + "." + frac)
}
