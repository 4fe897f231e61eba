package analysis_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/bryanwahyu/greenscan/internal/domain/analysis"
)

func TestBadgeClass(t *testing.T) {
	green := "bg-green-100 text-green-800 border-green-200"
	yellow := "bg-yellow-100 text-yellow-800 border-yellow-200"
	red := "bg-red-100 text-red-800 border-red-200"
	gray := "bg-gray-100 text-gray-800 border-gray-200"

	tests := []struct {
		score string
		want  string
	}{
		{"High", green},
		{"HIGH", green},
		{"high", green},
		{"Medium", yellow},
		{"mEdIuM", yellow},
		{"Low", red},
		{"N/A", gray},
		{"", gray},
		{" High", gray},
		{"very high", gray},
	}

	for _, tt := range tests {
		t.Run(tt.score, func(t *testing.T) {
			gt.Equal(t, analysis.BadgeClass(tt.score), tt.want)
		})
	}
}

func TestLevelOf(t *testing.T) {
	gt.Equal(t, analysis.LevelOf("Medium"), analysis.ScoreMedium)
	gt.Equal(t, analysis.LevelOf("unknown"), analysis.ScoreUnknown)
}

func TestHasCertifications(t *testing.T) {
	gt.False(t, analysis.Result{Certifications: analysis.NoCertifications}.HasCertifications())
	gt.False(t, analysis.Result{}.HasCertifications())
	gt.True(t, analysis.Result{Certifications: "FSC"}.HasCertifications())
}
