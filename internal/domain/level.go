package domain

import "strings"

// Level is a read-time classification of a recommended quantity.
type Level string

const (
	LevelNormal Level = ""
	LevelLow    Level = "low"
	LevelHigh   Level = "high"
)

// Quantities below LowThreshold are low, above HighThreshold are high.
const (
	LowThreshold  = 10.0
	HighThreshold = 250.0
)

var levelLabels = map[Level]string{
	LevelLow:    "Low",
	LevelHigh:   "High",
	LevelNormal: "Normal",
}

var levelCodes = map[string]Level{
	"low":    LevelLow,
	"high":   LevelHigh,
	"normal": LevelNormal,
}

// Classify derives the level of a quantity. It is never stored.
func Classify(qty float64) Level {
	switch {
	case qty < LowThreshold:
		return LevelLow
	case qty > HighThreshold:
		return LevelHigh
	default:
		return LevelNormal
	}
}

// Label returns a human-readable label for a level.
func (l Level) Label() string {
	if label, ok := levelLabels[l]; ok {
		return label
	}
	return "Normal"
}

// ParseLevel returns the level for a given label (case-insensitive).
func ParseLevel(label string) (Level, bool) {
	level, ok := levelCodes[strings.ToLower(strings.TrimSpace(label))]
	return level, ok
}
