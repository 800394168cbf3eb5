package record

import (
	"strings"
	"time"
)

// dateLayouts are tried in order; the first that parses wins.  Day and
// month may be written with or without a leading zero.
var dateLayouts = []string{
	"2006-1-2",
	"2/1/2006",
	"20060102",
	"2006",
}

// ParseDate interprets the textual date formats seen across sources.  An
// empty or unparseable value yields ok=false and is treated as absent.
// ISO timestamps are accepted through their leading date component.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true
		}
	}
	if len(s) > 10 && (s[10] == 'T' || s[10] == ' ') {
		if parsed, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// FormatCompactDate converts YYYYMMDD to YYYY-MM-DD.  Any other input is
// returned unchanged.
func FormatCompactDate(s string) string {
	if len(s) != 8 {
		return s
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return s
		}
	}
	return s[:4] + "-" + s[4:6] + "-" + s[6:]
}

// FormatDate renders t as YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

//Personal.AI order the ending
