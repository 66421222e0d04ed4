package recommend

import (
	"slices"
	"strconv"
	"strings"

	"github.com/andresuchdata/autoorder/internal/domain"
)

// ParsePeriod parses a period selector value. Empty input yields fallback.
func ParsePeriod(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if fallback < 1 {
			return DefaultPeriod, nil
		}
		return fallback, nil
	}
	p, err := strconv.Atoi(raw)
	if err != nil || p < 1 {
		return 0, domain.NewValidationError("period", "period %q must be a positive integer", raw)
	}
	return p, nil
}

// IsStandardPeriod reports whether p is one of StandardPeriods.
func IsStandardPeriod(p int) bool {
	return slices.Contains(StandardPeriods, p)
}
