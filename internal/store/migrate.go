package store

import (
	"context"
)

// MigrationReport summarizes one fallback migration pass.
type MigrationReport struct {
	Attempted int      `json:"attempted"`
	Migrated  int      `json:"migrated"`
	FailedIDs []string `json:"failed_ids,omitempty"`
	Skipped   bool     `json:"skipped"`
	Reason    string   `json:"reason,omitempty"`
}

// MigrateFallback uploads results that exist only in the local fallback
// to the remote store. It runs once at process start. Derived fields
// (domain, avg_scores) are recomputed from each record's url and
// results rather than copied from the cached row. A failed record is
// logged and skipped; it stays in the local list so a later startup can
// retry it, and only confirmed-migrated records are removed.
func (s *Store) MigrateFallback(ctx context.Context) (*MigrationReport, error) {
	status := s.TestConnection(ctx)
	if !status.OK {
		s.log.Infow("skipping fallback migration", "reason", status.Reason)
		return &MigrationReport{Skipped: true, Reason: string(status.Reason)}, nil
	}

	entries, err := s.local.All()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &MigrationReport{}, nil
	}

	report := &MigrationReport{Attempted: len(entries)}
	var migrated []string
	for _, entry := range entries {
		res := buildResult(SaveInput{
			ID:        entry.ID,
			URL:       entry.URL,
			Timestamp: entry.Timestamp,
			Routes:    entry.Routes,
			Results:   entry.Results,
		})
		if _, err := s.remote.Insert(ctx, res); err != nil {
			s.log.Warnw("failed to migrate fallback result", "id", entry.ID, "error", err)
			report.FailedIDs = append(report.FailedIDs, entry.ID)
			continue
		}
		migrated = append(migrated, entry.ID)
	}
	report.Migrated = len(migrated)

	if err := s.local.Remove(migrated); err != nil {
		s.log.Warnw("failed to prune migrated results from fallback", "error", err)
	}

	s.log.Infow("fallback migration finished",
		"attempted", report.Attempted, "migrated", report.Migrated, "failed", len(report.FailedIDs))
	return report, nil
}
