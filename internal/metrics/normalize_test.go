package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostedResponse = `{
	"lighthouseResult": {
		"categories": {
			"performance": {"score": 0.8},
			"accessibility": {"score": 0.95},
			"best-practices": {"score": 1},
			"seo": {"score": 0.655}
		},
		"audits": {
			"first-contentful-paint": {"numericValue": 1234.5, "score": 0.9, "displayValue": "1.2 s", "title": "First Contentful Paint"},
			"largest-contentful-paint": {"numericValue": 2500, "score": 0.75, "displayValue": "2.5 s", "title": "Largest Contentful Paint"},
			"cumulative-layout-shift": {"numericValue": 0.05, "score": 1, "displayValue": "0.05", "title": "Cumulative Layout Shift"},
			"max-potential-fid": {"numericValue": 130, "score": 0.6, "displayValue": "130 ms", "title": "Max Potential First Input Delay"},
			"total-blocking-time": {"numericValue": 310, "score": 0.55, "displayValue": "310 ms", "title": "Total Blocking Time"},
			"speed-index": {"numericValue": 3400, "score": 0.7, "displayValue": "3.4 s", "title": "Speed Index"}
		}
	}
}`

func TestNormalize_HostedShape(t *testing.T) {
	m, vitals, err := Normalize([]byte(hostedResponse))
	require.NoError(t, err)

	assert.Equal(t, 80, m.Performance)
	assert.Equal(t, 95, m.Accessibility)
	assert.Equal(t, 100, m.BestPractices)
	assert.Equal(t, 66, m.SEO) // 0.655 rounds up

	assert.InDelta(t, 1234.5, m.FCP, 0.001)
	assert.InDelta(t, 2500, m.LCP, 0.001)
	assert.InDelta(t, 0.05, m.CLS, 0.001)
	assert.InDelta(t, 130, m.FID, 0.001) // max-potential-fid substituted silently
	assert.InDelta(t, 310, m.TBT, 0.001)
	assert.InDelta(t, 3400, m.SI, 0.001)

	require.Contains(t, vitals, "lcp")
	assert.Equal(t, 75, vitals["lcp"].Score)
	assert.Equal(t, "2.5 s", vitals["lcp"].DisplayValue)
	assert.Equal(t, "Largest Contentful Paint", vitals["lcp"].Title)
}

func TestNormalize_BareLocalShape(t *testing.T) {
	raw := `{
		"categories": {"performance": {"score": 0.6}},
		"audits": {
			"first-contentful-paint": {"numericValue": 900, "score": 0.95}
		}
	}`
	m, vitals, err := Normalize([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, 60, m.Performance)
	assert.Equal(t, 0, m.Accessibility) // absent category
	assert.InDelta(t, 900, m.FCP, 0.001)
	assert.Contains(t, vitals, "fcp")
	assert.NotContains(t, vitals, "lcp") // audit absent, no detail record
	assert.Zero(t, m.LCP)
}

func TestNormalize_DisplayValueFallback(t *testing.T) {
	tests := []struct {
		name    string
		display string
		isTime  bool
		want    float64
	}{
		{"seconds convert to ms", "1.2 s", true, 1200},
		{"milliseconds pass through", "310 ms", true, 310},
		{"no space before unit", "2.5s", true, 2500},
		{"cls stays a bare ratio", "0.12", false, 0.12},
		{"integer", "4 s", true, 4000},
		{"unparseable", "n/a", true, 0},
		{"empty", "", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseDisplayValue(tt.display, tt.isTime), 0.001)
		})
	}
}

func TestNormalize_PrefersNumericValueOverDisplay(t *testing.T) {
	raw := `{
		"categories": {},
		"audits": {
			"speed-index": {"numericValue": 3412.7, "displayValue": "3.4 s"}
		}
	}`
	m, _, err := Normalize([]byte(raw))
	require.NoError(t, err)
	assert.InDelta(t, 3412.7, m.SI, 0.001)
}

func TestNormalize_NullScoresAreZero(t *testing.T) {
	raw := `{
		"categories": {"performance": {"score": null}},
		"audits": {
			"total-blocking-time": {"numericValue": 10, "score": null}
		}
	}`
	m, vitals, err := Normalize([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Performance)
	assert.Equal(t, 0, vitals["tbt"].Score)
}

func TestNormalize_FIDPrimaryWins(t *testing.T) {
	raw := `{
		"categories": {},
		"audits": {
			"first-input-delay": {"numericValue": 45},
			"max-potential-fid": {"numericValue": 200}
		}
	}`
	m, _, err := Normalize([]byte(raw))
	require.NoError(t, err)
	assert.InDelta(t, 45, m.FID, 0.001)
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "<html>hello</html>"},
		{"no wrapper fields", `{"foo": "bar"}`},
		{"empty object", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize([]byte(tt.raw))
			require.Error(t, err)
			var malformed *ErrMalformedAuditResponse
			assert.ErrorAs(t, err, &malformed)
		})
	}
}

func TestNormalize_MissingFieldsNeverError(t *testing.T) {
	// A response with the wrapper but nothing useful inside normalizes
	// to all zeros instead of failing.
	m, vitals, err := Normalize([]byte(`{"lighthouseResult": {"categories": {}, "audits": {}}}`))
	require.NoError(t, err)
	assert.True(t, m.IsZero())
	assert.Empty(t, vitals)
}
