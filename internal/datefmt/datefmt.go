// Package datefmt formats dates with moment-style patterns such as
// "DD.MM.YYYY", the format users already have in their note settings.
package datefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISODate is the layout of the date picked for a note and of the date part
// of recording file names.
const ISODate = "2006-01-02"

// tokens are ordered longest first so "YYYY" wins over "YY" and "DDDD"
// over "DD".
var tokens = []struct {
	moment string
	format func(time.Time) string
}{
	{"YYYY", layout("2006")},
	{"MMMM", layout("January")},
	{"DDDD", layout("002")},
	{"dddd", layout("Monday")},
	{"MMM", layout("Jan")},
	{"DDD", func(t time.Time) string { return strconv.Itoa(t.YearDay()) }},
	{"ddd", layout("Mon")},
	{"YY", layout("06")},
	{"MM", layout("01")},
	{"Do", func(t time.Time) string { return ordinal(t.Day()) }},
	{"DD", layout("02")},
	{"HH", layout("15")},
	{"hh", layout("03")},
	{"mm", layout("04")},
	{"ss", layout("05")},
	{"M", layout("1")},
	{"D", layout("2")},
	{"H", layout("15")},
	{"h", layout("3")},
	{"m", layout("4")},
	{"s", layout("5")},
	{"A", layout("PM")},
	{"a", layout("pm")},
}

func layout(l string) func(time.Time) string {
	return func(t time.Time) string { return t.Format(l) }
}

// ordinal renders 1st, 2nd, 3rd, 4th, 11th, 12th, 13th, 21st.
func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}

// Format renders t using a moment-style pattern. Text inside square
// brackets is copied literally, as in moment.
func Format(t time.Time, pattern string) string {
	var sb strings.Builder
	for i := 0; i < len(pattern); {
		if pattern[i] == '[' {
			end := strings.IndexByte(pattern[i:], ']')
			if end > 0 {
				sb.WriteString(pattern[i+1 : i+end])
				i += end + 1
				continue
			}
		}
		matched := false
		for _, tok := range tokens {
			if strings.HasPrefix(pattern[i:], tok.moment) {
				sb.WriteString(tok.format(t))
				i += len(tok.moment)
				matched = true
				break
			}
		}
		if !matched {
			sb.WriteByte(pattern[i])
			i++
		}
	}
	return sb.String()
}

// ParseISO parses a YYYY-MM-DD date.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatISO reformats a YYYY-MM-DD date with pattern.
func FormatISO(date, pattern string) (string, error) {
	t, err := ParseISO(date)
	if err != nil {
		return "", err
	}
	return Format(t, pattern), nil
}
