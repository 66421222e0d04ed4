package domain

import (
	"strings"
	"time"
)

// DateLayout is the DD.MM.YYYY literal used at every file and API boundary.
const DateLayout = "02.01.2006"

// ParseDate parses a DD.MM.YYYY literal.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &FormatError{Value: value, Layout: DateLayout}
	}
	return t, nil
}

// FormatDate renders t as DD.MM.YYYY.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
