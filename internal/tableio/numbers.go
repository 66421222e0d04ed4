package tableio

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberSpaceStripper = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "")
	decimalPattern      = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
)

// parseNumber parses a quantity cell. Blank cells yield (0, true, nil).
// Spaces are thousands separators. When both comma and dot appear, the last
// one is the decimal separator; a single comma alone is a decimal separator.
// Only plain decimal notation is accepted, so NaN, Inf and hex literals fail.
func parseNumber(raw string) (float64, bool, error) {
	v := numberSpaceStripper.Replace(strings.TrimSpace(raw))
	if v == "" {
		return 0, true, nil
	}
	comma, dot := strings.LastIndex(v, ","), strings.LastIndex(v, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		v = strings.Replace(strings.ReplaceAll(v, ".", ""), ",", ".", 1)
	case comma >= 0 && dot >= 0:
		v = strings.ReplaceAll(v, ",", "")
	case strings.Count(v, ",") == 1:
		v = strings.Replace(v, ",", ".", 1)
	case strings.Count(v, ",") > 1:
		v = strings.ReplaceAll(v, ",", "")
	case strings.Count(v, ".") > 1:
		v = strings.ReplaceAll(v, ".", "")
	}
	if !decimalPattern.MatchString(v) {
		return 0, false, fmt.Errorf("not a number: %q", raw)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("not a number: %q", raw)
	}
	return f, false, nil
}

// ParseQuantity parses a non-blank quantity with the same rules as
// spreadsheet cells.
func ParseQuantity(raw string) (float64, error) {
	f, blank, err := parseNumber(raw)
	if err != nil {
		return 0, err
	}
	if blank {
		return 0, fmt.Errorf("quantity is empty")
	}
	return f, nil
}

func formatCell(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
