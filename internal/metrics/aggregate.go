package metrics

import (
	"math"

	"github.com/avelar/sitegauge/internal/types"
)

// Average computes the unweighted mean of each category score across
// all audited routes, rounded to the nearest integer. Routes that
// failed and were recorded as all-zero metrics count toward the
// denominator. An empty (or nil) collection averages to zero rather
// than dividing by zero.
func Average(results *types.RouteResults) types.AverageScores {
	n := results.Len()
	if n == 0 {
		return types.AverageScores{}
	}

	var perf, access, best, seo int
	results.Each(func(_ string, m types.Metrics) {
		perf += m.Performance
		access += m.Accessibility
		best += m.BestPractices
		seo += m.SEO
	})

	return types.AverageScores{
		Performance:   roundMean(perf, n),
		Accessibility: roundMean(access, n),
		BestPractices: roundMean(best, n),
		SEO:           roundMean(seo, n),
	}
}

func roundMean(sum, n int) int {
	return int(math.Round(float64(sum) / float64(n)))
}

// ScoreDelta is the per-category difference between two runs.
type ScoreDelta struct {
	Performance   int `json:"performance"`
	Accessibility int `json:"accessibility"`
	BestPractices int `json:"bestPractices"`
	SEO           int `json:"seo"`
}

// Diff returns b minus a for each category, the shape the comparison
// view renders as improvement/regression badges.
func Diff(a, b types.AverageScores) ScoreDelta {
	return ScoreDelta{
		Performance:   b.Performance - a.Performance,
		Accessibility: b.Accessibility - a.Accessibility,
		BestPractices: b.BestPractices - a.BestPractices,
		SEO:           b.SEO - a.SEO,
	}
}
