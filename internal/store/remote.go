package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelar/sitegauge/internal/types"
)

// pgUndefinedTable is the Postgres error code for a missing relation.
const pgUndefinedTable = "42P01"

// PGRemote is the Postgres-backed remote store. Schema (provisioned
// externally):
//
//	lighthouse_results(id text primary key, domain text, url text,
//	  timestamp timestamptz, routes jsonb, results jsonb,
//	  avg_scores jsonb, created_at timestamptz default now(),
//	  updated_at timestamptz default now())
type PGRemote struct {
	pool *pgxpool.Pool
}

// ConnectRemote establishes a connection pool and verifies it.
func ConnectRemote(ctx context.Context, databaseURL string) (*PGRemote, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PGRemote{pool: pool}, nil
}

// Close closes the connection pool.
func (r *PGRemote) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Insert persists a result row. routes, results and avg_scores are
// stored as opaque JSON documents.
func (r *PGRemote) Insert(ctx context.Context, res *types.RunResult) (*types.RunResult, error) {
	routesJSON, err := json.Marshal(res.Routes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal routes: %w", err)
	}
	resultsJSON, err := json.Marshal(res.Results)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal results: %w", err)
	}
	avgJSON, err := json.Marshal(res.AvgScores)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal avg_scores: %w", err)
	}

	saved := *res
	err = r.pool.QueryRow(ctx,
		`INSERT INTO lighthouse_results (id, domain, url, timestamp, routes, results, avg_scores)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		res.ID, res.Domain, res.URL, res.Timestamp, routesJSON, resultsJSON, avgJSON,
	).Scan(&saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert result: %w", err)
	}
	return &saved, nil
}

const selectColumns = `id, domain, url, timestamp, routes, results, avg_scores, created_at, updated_at`

func scanResult(row pgx.Row) (*types.RunResult, error) {
	var res types.RunResult
	var routesJSON, resultsJSON, avgJSON []byte

	err := row.Scan(&res.ID, &res.Domain, &res.URL, &res.Timestamp,
		&routesJSON, &resultsJSON, &avgJSON, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(routesJSON, &res.Routes); err != nil {
		return nil, fmt.Errorf("failed to decode routes: %w", err)
	}
	res.Results = types.NewRouteResults()
	if err := json.Unmarshal(resultsJSON, res.Results); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	if err := json.Unmarshal(avgJSON, &res.AvgScores); err != nil {
		return nil, fmt.Errorf("failed to decode avg_scores: %w", err)
	}
	return &res, nil
}

// ListByDomain returns up to limit rows newest-first, filtered to an
// exact domain when one is given.
func (r *PGRemote) ListByDomain(ctx context.Context, domain string, limit int) ([]types.RunResult, error) {
	query := `SELECT ` + selectColumns + ` FROM lighthouse_results`
	args := []any{}
	if domain != "" {
		query += ` WHERE domain = $1`
		args = append(args, domain)
	}
	query += fmt.Sprintf(` ORDER BY timestamp DESC LIMIT %d`, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []types.RunResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// Domains returns the distinct domains, most recently created first.
func (r *PGRemote) Domains(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT domain FROM lighthouse_results GROUP BY domain ORDER BY MAX(created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// GetByID returns a single row, or (nil, nil) when the id is unknown.
func (r *PGRemote) GetByID(ctx context.Context, id string) (*types.RunResult, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM lighthouse_results WHERE id = $1`, id)
	res, err := scanResult(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return res, nil
}

// Probe checks that the results table exists and is queryable.
func (r *PGRemote) Probe(ctx context.Context) error {
	var one int
	err := r.pool.QueryRow(ctx, `SELECT 1 FROM lighthouse_results LIMIT 1`).Scan(&one)
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return fmt.Errorf("%w: %s", ErrSchemaMissing, pgErr.Message)
	}
	return fmt.Errorf("failed to probe results table: %w", err)
}
