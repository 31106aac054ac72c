package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/avelar/sitegauge/internal/types"
)

func TestAverage_TwoRoutes(t *testing.T) {
	// Home scores 0.8, About scores 0.6 -> 80 and 60 -> mean 70.
	r := types.NewRouteResults()
	r.Set("/", types.Metrics{Performance: 80})
	r.Set("/about", types.Metrics{Performance: 60})

	avg := Average(r)
	assert.Equal(t, 70, avg.Performance)
	assert.Equal(t, 0, avg.Accessibility)
	assert.Equal(t, 0, avg.BestPractices)
	assert.Equal(t, 0, avg.SEO)
}

func TestAverage_RoundsToNearest(t *testing.T) {
	r := types.NewRouteResults()
	r.Set("/", types.Metrics{Performance: 80, SEO: 33})
	r.Set("/a", types.Metrics{Performance: 81, SEO: 33})
	r.Set("/b", types.Metrics{Performance: 81, SEO: 34})

	avg := Average(r)
	assert.Equal(t, 81, avg.Performance) // 242/3 = 80.67
	assert.Equal(t, 33, avg.SEO)         // 100/3 = 33.33
}

func TestAverage_Empty(t *testing.T) {
	assert.Equal(t, types.AverageScores{}, Average(types.NewRouteResults()))
	assert.Equal(t, types.AverageScores{}, Average(nil))
}

func TestAverage_FailedRouteCountsInDenominator(t *testing.T) {
	r := types.NewRouteResults()
	r.Set("/", types.Metrics{Performance: 90, Accessibility: 90, BestPractices: 90, SEO: 90})
	r.Set("/broken", types.Metrics{}) // audit failed, recorded as zeros
	r.Set("/c", types.Metrics{Performance: 90, Accessibility: 90, BestPractices: 90, SEO: 90})

	avg := Average(r)
	assert.Equal(t, types.AverageScores{Performance: 60, Accessibility: 60, BestPractices: 60, SEO: 60}, avg)
}

func TestDiff(t *testing.T) {
	a := types.AverageScores{Performance: 70, Accessibility: 90, BestPractices: 80, SEO: 100}
	b := types.AverageScores{Performance: 85, Accessibility: 88, BestPractices: 80, SEO: 95}

	d := Diff(a, b)
	assert.Equal(t, 15, d.Performance)
	assert.Equal(t, -2, d.Accessibility)
	assert.Equal(t, 0, d.BestPractices)
	assert.Equal(t, -5, d.SEO)
}
