package localstore

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"webshopsync/internal/syncrun"
)

var runColumns = []string{"id", "started_at", "finished_at", "status", "since", "pushed", "failed", "error"}

func (s *Store) CreateRun(ctx context.Context, run *syncrun.Run) error {
	_, err := s.exec(ctx, s.sb.
		Insert("sync_runs").
		Columns("id", "started_at", "status", "since").
		Values(run.ID, run.StartedAt, run.Status, run.Since))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *Store) UpdateRun(ctx context.Context, run *syncrun.Run) error {
	n, err := s.exec(ctx, s.sb.
		Update("sync_runs").
		SetMap(map[string]interface{}{
			"finished_at": run.FinishedAt,
			"status":      run.Status,
			"pushed":      run.Pushed,
			"failed":      run.Failed,
			"error":       run.Error,
		}).
		Where(sq.Eq{"id": run.ID}))
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) RecordFailure(ctx context.Context, f syncrun.Failure) error {
	_, err := s.exec(ctx, s.sb.
		Insert("sync_run_failures").
		Columns("run_id", "kind", "entity_key", "reason").
		Values(f.RunID, string(f.Kind), f.Key, f.Reason).
		Suffix("ON CONFLICT (run_id, kind, entity_key) DO UPDATE SET reason = EXCLUDED.reason"))
	if err != nil {
		return fmt.Errorf("record failure of %s %s: %w", f.Kind, f.Key, err)
	}
	return nil
}

func (s *Store) LastCompletedRun(ctx context.Context) (*syncrun.Run, error) {
	run, err := selectOne[syncrun.Run](ctx, s.db, s.sb.
		Select(runColumns...).
		From("sync_runs").
		Where(sq.Eq{"status": syncrun.StatusCompleted}).
		OrderBy("started_at DESC").
		Limit(1))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last completed run: %w", err)
	}
	return &run, nil
}

func (s *Store) Failures(ctx context.Context, runID string) ([]syncrun.Failure, error) {
	failures, err := selectAll[syncrun.Failure](ctx, s.db, s.sb.
		Select("run_id", "kind", "entity_key", "reason").
		From("sync_run_failures").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("kind", "entity_key"))
	if err != nil {
		return nil, fmt.Errorf("failures of run %s: %w", runID, err)
	}
	return failures, nil
}
