package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/segmentio/ksuid"
	_ "modernc.org/sqlite"

	"mediabot/internal/models"
)

const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"

// Journal stores one row per finished run. It only holds counters.
type Journal struct {
	db *sqlx.DB
}

type runRow struct {
	ID         string `db:"id"`
	UserID     int64  `db:"user_id"`
	Kind       string `db:"kind"`
	Total      int    `db:"total"`
	Succeeded  int    `db:"succeeded"`
	Failed     int    `db:"failed"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
}

func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", path+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate journal: %w", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts run, assigning a ksuid when ID is empty.
func (j *Journal) Record(ctx context.Context, run models.BatchRun) error {
	if run.ID == "" {
		run.ID = ksuid.New().String()
	}

	row := runRow{
		ID:         run.ID,
		UserID:     int64(run.UserID),
		Kind:       string(run.Kind),
		Total:      run.Outcome.Total,
		Succeeded:  run.Outcome.Succeeded,
		Failed:     run.Outcome.Failed,
		StartedAt:  run.StartedAt.UnixMilli(),
		FinishedAt: run.FinishedAt.UnixMilli(),
	}

	_, err := j.db.NamedExecContext(ctx, `
		INSERT INTO batch_runs (id, user_id, kind, total, succeeded, failed, started_at, finished_at)
		VALUES (:id, :user_id, :kind, :total, :succeeded, :failed, :started_at, :finished_at)`, row)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	return nil
}

const totalsQuery = `
	SELECT COUNT(*) AS runs,
	       COALESCE(SUM(total), 0) AS total,
	       COALESCE(SUM(succeeded), 0) AS succeeded,
	       COALESCE(SUM(failed), 0) AS failed
	FROM batch_runs`

func (j *Journal) Totals(ctx context.Context) (models.Totals, error) {
	var t models.Totals
	if err := j.db.GetContext(ctx, &t, totalsQuery); err != nil {
		return models.Totals{}, fmt.Errorf("failed to read totals: %w", err)
	}

	return t, nil
}

func (j *Journal) UserTotals(ctx context.Context, user models.UserID) (models.Totals, error) {
	var t models.Totals
	if err := j.db.GetContext(ctx, &t, totalsQuery+` WHERE user_id = ?`, int64(user)); err != nil {
		return models.Totals{}, fmt.Errorf("failed to read totals for user %d: %w", user, err)
	}

	return t, nil
}

// Recent returns the user's latest runs, newest first.
func (j *Journal) Recent(ctx context.Context, user models.UserID, limit int) ([]models.BatchRun, error) {
	var rows []runRow
	err := j.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, kind, total, succeeded, failed, started_at, finished_at
		FROM batch_runs
		WHERE user_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, int64(user), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	runs := make([]models.BatchRun, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, models.BatchRun{
			ID:     r.ID,
			UserID: models.UserID(r.UserID),
			Kind:   models.RunKind(r.Kind),
			Outcome: models.BulkOutcome{
				Total:     r.Total,
				Succeeded: r.Succeeded,
				Failed:    r.Failed,
			},
			StartedAt:  time.UnixMilli(r.StartedAt),
			FinishedAt: time.UnixMilli(r.FinishedAt),
		})
	}

	return runs, nil
}
