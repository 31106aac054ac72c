package audit

import "fmt"

// Kind classifies an audit call failure.
type Kind string

const (
	// KindNetwork covers transport-level failures reaching the provider.
	KindNetwork Kind = "network"
	// KindRateLimited means the provider refused the call with a quota error.
	KindRateLimited Kind = "rate_limited"
	// KindInvalidURL means the provider rejected the target URL.
	KindInvalidURL Kind = "invalid_url"
	// KindUpstream is any other non-2xx provider response.
	KindUpstream Kind = "upstream"
)

// Error is a failed audit call. The orchestrator treats every kind the
// same way (zero metrics for the route), but logs and diagnostics keep
// the distinction.
type Error struct {
	Kind   Kind
	URL    string
	Status int
	Body   string
	Cause  error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("audit %s failed (%s, status %d)", e.URL, e.Kind, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("audit %s failed (%s): %v", e.URL, e.Kind, e.Cause)
	}
	return fmt.Sprintf("audit %s failed (%s)", e.URL, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
