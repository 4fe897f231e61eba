package analysis

import "strings"

// ScoreLevel is the normalised sustainability score
type ScoreLevel string

const (
	ScoreHigh    ScoreLevel = "high"
	ScoreMedium  ScoreLevel = "medium"
	ScoreLow     ScoreLevel = "low"
	ScoreUnknown ScoreLevel = "unknown"
)

var badgeClasses = map[ScoreLevel]string{
	ScoreHigh:    "bg-green-100 text-green-800 border-green-200",
	ScoreMedium:  "bg-yellow-100 text-yellow-800 border-yellow-200",
	ScoreLow:     "bg-red-100 text-red-800 border-red-200",
	ScoreUnknown: "bg-gray-100 text-gray-800 border-gray-200",
}

// LevelOf matches score case-insensitively against high, medium and low.
// Anything else, surrounding whitespace included, is ScoreUnknown.
func LevelOf(score string) ScoreLevel {
	switch strings.ToLower(score) {
	case "high":
		return ScoreHigh
	case "medium":
		return ScoreMedium
	case "low":
		return ScoreLow
	default:
		return ScoreUnknown
	}
}

// BadgeClass returns the CSS classes of the score badge
func BadgeClass(score string) string {
	return badgeClasses[LevelOf(score)]
}
