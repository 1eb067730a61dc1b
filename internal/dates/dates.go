// Package dates parses the loosely formatted dates that appear on scanned
// statements and invoices.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

const (
	defaultDay  = 1
	defaultYear = 1970
)

var separators = regexp.MustCompile(`[/\-.\s]+`)

var months = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "sept": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// nativeLayouts are tried when the token heuristics cannot decide.
var nativeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"20060102",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	"January 2 2006",
	"Jan 2 2006",
}

// Parse interprets raw as a calendar date. It understands day-first numeric
// dates (12/10/2023), ISO dates (2023-10-12) and dates with an English month
// name in any position (12-Oct-2023, October 12, 2023). It reports false when
// no valid date can be derived.
func Parse(raw string) (civil.Date, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return civil.Date{}, false
	}

	var tokens []string
	for _, t := range separators.Split(s, -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}

	if d, ok := parseWithMonthName(tokens); ok {
		return d, true
	}
	if len(tokens) >= 3 {
		return parseNumeric(tokens)
	}
	return parseNative(s)
}

func parseWithMonthName(tokens []string) (civil.Date, bool) {
	monthIdx := -1
	var month time.Month
	for i, t := range tokens {
		if m, ok := months[strings.ToLower(t)]; ok {
			monthIdx, month = i, m
			break
		}
	}
	if monthIdx < 0 {
		return civil.Date{}, false
	}

	day, year := 0, 0
	for i, t := range tokens {
		if i == monthIdx {
			continue
		}
		n, ok := number(t)
		if !ok {
			continue
		}
		switch {
		case n > 1000:
			year = n
		case day == 0 && n >= 1 && n <= 31:
			day = n
		case year == 0:
			year = expandYear(n)
		}
	}
	if day == 0 {
		day = defaultDay
	}
	if year == 0 {
		year = defaultYear
	}
	return valid(civil.Date{Year: year, Month: month, Day: day})
}

func parseNumeric(tokens []string) (civil.Date, bool) {
	var parts [3]int
	for i := 0; i < 3; i++ {
		n, ok := leadingNumber(tokens[i])
		if !ok {
			return civil.Date{}, false
		}
		parts[i] = n
	}

	if len(tokens[0]) == 4 {
		return valid(civil.Date{Year: parts[0], Month: time.Month(parts[1]), Day: parts[2]})
	}
	return valid(civil.Date{Year: expandYear(parts[2]), Month: time.Month(parts[1]), Day: parts[0]})
}

func parseNative(s string) (civil.Date, bool) {
	for _, layout := range nativeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

func valid(d civil.Date) (civil.Date, bool) {
	if !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}

func expandYear(y int) int {
	if y < 100 {
		return y + 2000
	}
	return y
}

// number parses a whole token, tolerating ordinal suffixes such as "12th".
func number(t string) (int, bool) {
	t = strings.ToLower(t)
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if strings.HasSuffix(t, suffix) {
			t = strings.TrimSuffix(t, suffix)
			break
		}
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, false
	}
	return n, true
}

// leadingNumber parses the digits at the start of t, so "12T10:00:00Z" reads as 12.
func leadingNumber(t string) (int, bool) {
	end := 0
	for end < len(t) && t[end] >= '0' && t[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(t[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Canonical renders raw as YYYY-MM-DD, or returns it trimmed when it cannot be parsed.
func Canonical(raw string) string {
	if d, ok := Parse(raw); ok {
		return d.String()
	}
	return strings.TrimSpace(raw)
}

// Range is an inclusive period. A zero bound is open.
type Range struct {
	From civil.Date
	To   civil.Date
}

// IsZero reports whether neither bound is set.
func (r Range) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether raw falls inside the range. Dates that cannot be
// parsed are always contained so they stay visible for manual review.
func (r Range) Contains(raw string) bool {
	d, ok := Parse(raw)
	if !ok {
		return true
	}
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// ParseRange builds a Range from two optional bounds in any format Parse
// accepts. An empty bound stays open.
func ParseRange(from, to string) (Range, error) {
	var r Range
	if strings.TrimSpace(from) != "" {
		d, ok := Parse(from)
		if !ok {
			return Range{}, fmt.Errorf("dates.ParseRange: invalid start date %q", from)
		}
		r.From = d
	}
	if strings.TrimSpace(to) != "" {
		d, ok := Parse(to)
		if !ok {
			return Range{}, fmt.Errorf("dates.ParseRange: invalid end date %q", to)
		}
		r.To = d
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return Range{}, fmt.Errorf("dates.ParseRange: end %s is before start %s", r.To, r.From)
	}
	return r, nil
}
