// Package metrics converts raw audit responses into the canonical
// Metrics shape and computes per-run aggregates.
package metrics

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"

	"github.com/spf13/cast"

	"github.com/avelar/sitegauge/internal/types"
)

// ErrMalformedAuditResponse is returned when a raw response cannot be
// parsed as JSON at all or is missing the audit-result wrapper. Missing
// individual categories or audits never trigger it; those fields just
// normalize to zero.
type ErrMalformedAuditResponse struct {
	Reason string
}

func (e *ErrMalformedAuditResponse) Error() string {
	return fmt.Sprintf("malformed audit response: %s", e.Reason)
}

// rawCategory and rawAudit are deliberately loose: PageSpeed and the
// local lighthouse CLI both emit scores as numbers, but null, string and
// missing variants all show up in the wild depending on scoreDisplayMode.
type rawCategory struct {
	Score any `json:"score"`
}

type rawAudit struct {
	Score        any    `json:"score"`
	NumericValue any    `json:"numericValue"`
	DisplayValue string `json:"displayValue"`
	Title        string `json:"title"`
}

type lighthouseResult struct {
	Categories map[string]rawCategory `json:"categories"`
	Audits     map[string]rawAudit    `json:"audits"`
}

// envelope covers the hosted API shape, which nests the lighthouse
// result one level down. The local runner emits the result bare.
type envelope struct {
	LighthouseResult *lighthouseResult `json:"lighthouseResult"`
}

type timingField struct {
	key     string // CoreWebVitals key
	auditID string
	// fallbackID substitutes for a missing primary audit under the same
	// output field; the caller cannot tell which one was used.
	fallbackID string
	isTime     bool // display values in seconds convert to milliseconds
}

var timingFields = []timingField{
	{key: "fcp", auditID: "first-contentful-paint", isTime: true},
	{key: "lcp", auditID: "largest-contentful-paint", isTime: true},
	{key: "cls", auditID: "cumulative-layout-shift"},
	{key: "fid", auditID: "first-input-delay", fallbackID: "max-potential-fid", isTime: true},
	{key: "tbt", auditID: "total-blocking-time", isTime: true},
	{key: "si", auditID: "speed-index", isTime: true},
}

var displayNumber = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*(ms|s)?`)

// Normalize converts one raw audit response, in either upstream shape,
// into a fully-populated Metrics record plus the per-metric web-vitals
// detail. Every Metrics field is set; anything the audit did not report
// is zero.
func Normalize(raw []byte) (types.Metrics, types.CoreWebVitals, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return types.Metrics{}, nil, &ErrMalformedAuditResponse{Reason: err.Error()}
	}

	lhr := env.LighthouseResult
	if lhr == nil {
		var bare lighthouseResult
		if err := json.Unmarshal(raw, &bare); err != nil {
			return types.Metrics{}, nil, &ErrMalformedAuditResponse{Reason: err.Error()}
		}
		lhr = &bare
	}
	if lhr.Categories == nil && lhr.Audits == nil {
		return types.Metrics{}, nil, &ErrMalformedAuditResponse{Reason: "no lighthouseResult wrapper or categories/audits found"}
	}

	m := types.Metrics{
		Performance:   categoryScore(lhr.Categories, "performance"),
		Accessibility: categoryScore(lhr.Categories, "accessibility"),
		BestPractices: categoryScore(lhr.Categories, "best-practices"),
		SEO:           categoryScore(lhr.Categories, "seo"),
	}

	vitals := types.CoreWebVitals{}
	for _, f := range timingFields {
		audit, ok := lookupAudit(lhr.Audits, f)
		if !ok {
			continue
		}
		value := auditValue(audit, f.isTime)
		switch f.key {
		case "fcp":
			m.FCP = value
		case "lcp":
			m.LCP = value
		case "cls":
			m.CLS = value
		case "fid":
			m.FID = value
		case "tbt":
			m.TBT = value
		case "si":
			m.SI = value
		}
		vitals[f.key] = types.VitalDetail{
			Value:        value,
			Score:        scaleScore(audit.Score),
			DisplayValue: audit.DisplayValue,
			Title:        audit.Title,
		}
	}

	return m, vitals, nil
}

func lookupAudit(audits map[string]rawAudit, f timingField) (rawAudit, bool) {
	if a, ok := audits[f.auditID]; ok {
		return a, true
	}
	if f.fallbackID != "" {
		if a, ok := audits[f.fallbackID]; ok {
			return a, true
		}
	}
	return rawAudit{}, false
}

// categoryScore reads a 0-1 category score and scales it to 0-100.
// Absent or unparseable scores are 0.
func categoryScore(categories map[string]rawCategory, name string) int {
	c, ok := categories[name]
	if !ok {
		return 0
	}
	return scaleScore(c.Score)
}

func scaleScore(v any) int {
	if v == nil {
		return 0
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0
	}
	return int(math.Round(f * 100))
}

// auditValue resolves an audit's measurement: numericValue when present,
// otherwise the first number in the display string. Time-based displays
// in seconds convert to milliseconds; CLS stays a bare ratio.
func auditValue(a rawAudit, isTime bool) float64 {
	if a.NumericValue != nil {
		if f, err := cast.ToFloat64E(a.NumericValue); err == nil {
			return f
		}
	}
	return parseDisplayValue(a.DisplayValue, isTime)
}

func parseDisplayValue(display string, isTime bool) float64 {
	match := displayNumber.FindStringSubmatch(display)
	if match == nil {
		return 0
	}
	f, err := cast.ToFloat64E(match[1])
	if err != nil {
		return 0
	}
	if isTime && match[2] == "s" {
		return f * 1000
	}
	return f
}
