// Package audit abstracts the upstream audit providers: the hosted
// PageSpeed Insights API and a locally-installed lighthouse CLI. Both
// return the raw response verbatim; normalization happens downstream so
// the raw document stays available for export.
package audit

import (
	"context"

	"github.com/avelar/sitegauge/internal/types"
)

// Provider runs one audit against a fully-resolved URL.
type Provider interface {
	// Audit performs the audit and returns the raw response body. The
	// error, when non-nil, is an *Error carrying the failure kind.
	Audit(ctx context.Context, url string, strategy types.Strategy) ([]byte, error)
	// Name identifies the provider in logs and artifacts.
	Name() string
}
