// Package store persists run results. A remote Postgres table is the
// durable tier; a small bbolt-backed list is the fallback when the
// remote store is unreachable or not configured. Every operation
// reports which tier actually served it.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/avelar/sitegauge/internal/metrics"
	"github.com/avelar/sitegauge/internal/types"
)

// Origin identifies the backing tier that served an operation.
type Origin string

const (
	OriginRemote Origin = "remote"
	OriginLocal  Origin = "local"
)

// ListLimit caps remote history queries.
const ListLimit = 50

// ErrNotFound is returned when neither tier holds the requested result.
var ErrNotFound = errors.New("result not found")

// ErrSchemaMissing marks a reachable remote store whose results table
// has not been provisioned.
var ErrSchemaMissing = errors.New("results table missing")

// RemoteStore is the durable tier. *PGRemote is the production
// implementation; tests substitute fakes.
type RemoteStore interface {
	// Insert persists a result and returns it with the server-assigned
	// created_at/updated_at columns filled in.
	Insert(ctx context.Context, res *types.RunResult) (*types.RunResult, error)
	// ListByDomain returns up to limit results newest-first, optionally
	// filtered by exact domain match (empty domain means all).
	ListByDomain(ctx context.Context, domain string, limit int) ([]types.RunResult, error)
	// Domains returns the distinct domains, most recently created first.
	Domains(ctx context.Context) ([]string, error)
	// GetByID returns the result with the given id, or (nil, nil) on miss.
	GetByID(ctx context.Context, id string) (*types.RunResult, error)
	// Probe performs a lightweight existence check against the results
	// table. It returns ErrSchemaMissing (wrapped) when the table is
	// absent and the underlying error for anything else.
	Probe(ctx context.Context) error
}

// Store is the persistence facade the rest of the system talks to.
type Store struct {
	remote RemoteStore // nil when no credentials were configured
	local  *Fallback
	log    *zap.SugaredLogger
}

// New creates a Store. remote may be nil, which pins every operation to
// the local fallback for the process lifetime.
func New(remote RemoteStore, local *Fallback, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{remote: remote, local: local, log: log}
}

// SaveInput is the caller-supplied portion of a result. Derived fields
// (domain, avg_scores) are always recomputed here, never trusted.
type SaveInput struct {
	ID        string
	URL       string
	Timestamp time.Time
	Routes    []types.RouteConfig
	Results   *types.RouteResults
}

// NewID returns a time-derived result id.
func NewID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// buildResult fills in every derived field and normalizes the timestamp
// to a single canonical representation (UTC, millisecond precision).
func buildResult(in SaveInput) *types.RunResult {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	id := in.ID
	if id == "" {
		id = NewID()
	}
	results := in.Results
	if results == nil {
		results = types.NewRouteResults()
	}
	return &types.RunResult{
		ID:        id,
		Domain:    types.DomainFromURL(in.URL),
		URL:       in.URL,
		Timestamp: ts.UTC().Truncate(time.Millisecond),
		Routes:    in.Routes,
		Results:   results,
		AvgScores: metrics.Average(results),
	}
}

// SaveResult persists a run. The remote tier is tried first; on any
// remote failure the result degrades to local-only persistence instead
// of failing the run. On remote success the record is also cached
// locally, best effort. An error is returned only when both tiers
// reject the write.
func (s *Store) SaveResult(ctx context.Context, in SaveInput) (*types.RunResult, Origin, error) {
	res := buildResult(in)

	if s.remote != nil {
		saved, err := s.remote.Insert(ctx, res)
		if err == nil {
			if cacheErr := s.local.Insert(saved); cacheErr != nil {
				s.log.Debugw("local cache write failed", "id", saved.ID, "error", cacheErr)
			}
			return saved, OriginRemote, nil
		}
		s.log.Warnw("remote save failed, falling back to local store", "id", res.ID, "error", err)
	}

	if err := s.local.Insert(res); err != nil {
		return nil, OriginLocal, fmt.Errorf("failed to save result to either store: %w", err)
	}
	return res, OriginLocal, nil
}

// GetResultsByDomain returns stored results newest-first, optionally
// filtered by domain. Remote errors fall back to the local list.
func (s *Store) GetResultsByDomain(ctx context.Context, domain string) ([]types.RunResult, Origin, error) {
	if s.remote != nil {
		results, err := s.remote.ListByDomain(ctx, domain, ListLimit)
		if err == nil {
			return results, OriginRemote, nil
		}
		s.log.Warnw("remote list failed, reading local store", "domain", domain, "error", err)
	}

	results, err := s.local.List(domain)
	if err != nil {
		return nil, OriginLocal, fmt.Errorf("failed to read results from either store: %w", err)
	}
	return results, OriginLocal, nil
}

// GetResults returns every stored result across all domains.
func (s *Store) GetResults(ctx context.Context) ([]types.RunResult, Origin, error) {
	return s.GetResultsByDomain(ctx, "")
}

// GetAllDomains returns the distinct set of audited domains. The
// fallback path re-derives each domain from the stored URL rather than
// trusting the cached field.
func (s *Store) GetAllDomains(ctx context.Context) ([]string, Origin, error) {
	if s.remote != nil {
		domains, err := s.remote.Domains(ctx)
		if err == nil {
			return domains, OriginRemote, nil
		}
		s.log.Warnw("remote domain query failed, reading local store", "error", err)
	}

	domains, err := s.local.Domains()
	if err != nil {
		return nil, OriginLocal, fmt.Errorf("failed to read domains from either store: %w", err)
	}
	return domains, OriginLocal, nil
}

// GetResultByID looks a result up by exact id, remote first, local scan
// on miss or error. Returns ErrNotFound when neither tier has it.
func (s *Store) GetResultByID(ctx context.Context, id string) (*types.RunResult, Origin, error) {
	if s.remote != nil {
		res, err := s.remote.GetByID(ctx, id)
		if err == nil && res != nil {
			return res, OriginRemote, nil
		}
		if err != nil {
			s.log.Warnw("remote lookup failed, scanning local store", "id", id, "error", err)
		}
	}

	res, err := s.local.GetByID(id)
	if err != nil {
		return nil, OriginLocal, fmt.Errorf("failed to look up result %s: %w", id, err)
	}
	if res == nil {
		return nil, OriginLocal, ErrNotFound
	}
	return res, OriginLocal, nil
}

// StatusReason encodes why the remote store is unusable.
type StatusReason string

const (
	ReasonNotConfigured   StatusReason = "not_configured"
	ReasonSchemaMissing   StatusReason = "schema_missing"
	ReasonConnectionError StatusReason = "connection_error"
)

// ConnectionStatus is the result of a remote store probe. This is the
// one surface that reports store error detail instead of silently
// degrading; the dashboard's diagnostics view renders it.
type ConnectionStatus struct {
	OK     bool         `json:"ok"`
	Reason StatusReason `json:"reason,omitempty"`
	Detail string       `json:"detail,omitempty"`
}

// TestConnection probes the remote store and classifies the failure.
func (s *Store) TestConnection(ctx context.Context) ConnectionStatus {
	if s.remote == nil {
		return ConnectionStatus{Reason: ReasonNotConfigured, Detail: "no database credentials configured; running in local-only mode"}
	}

	err := s.remote.Probe(ctx)
	switch {
	case err == nil:
		return ConnectionStatus{OK: true}
	case errors.Is(err, ErrSchemaMissing):
		return ConnectionStatus{Reason: ReasonSchemaMissing, Detail: err.Error()}
	default:
		return ConnectionStatus{Reason: ReasonConnectionError, Detail: err.Error()}
	}
}
