package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/abdulachik/tweettask/internal/task"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries runs the history queries against a connection or transaction.
type Queries struct {
	db DBTX
}

// New creates Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx binds the queries to a transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// TaskRun is a row of task_runs.
type TaskRun struct {
	ID         string
	Operation  string
	Succeeded  bool
	ResultID   string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// OperationCount is the number of runs of one operation.
type OperationCount struct {
	Operation string
	Total     int64
	Failed    int64
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const insertTaskRun = `
INSERT INTO task_runs (id, operation, succeeded, result_id, error, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

// InsertTaskRun stores one run.
func (q *Queries) InsertTaskRun(ctx context.Context, r TaskRun) error {
	_, err := q.db.ExecContext(ctx, insertTaskRun,
		r.ID,
		r.Operation,
		r.Succeeded,
		r.ResultID,
		r.Error,
		r.StartedAt.UTC().Format(timeLayout),
		r.FinishedAt.UTC().Format(timeLayout),
	)
	return err
}

const listTaskRuns = `
SELECT id, operation, succeeded, result_id, error, started_at, finished_at
FROM task_runs
ORDER BY started_at DESC
LIMIT ?
`

// ListTaskRuns returns the most recent runs, newest first.
func (q *Queries) ListTaskRuns(ctx context.Context, limit int) ([]TaskRun, error) {
	rows, err := q.db.QueryContext(ctx, listTaskRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []TaskRun
	for rows.Next() {
		var (
			r                   TaskRun
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Operation, &r.Succeeded, &r.ResultID, &r.Error, &started, &finished); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at of run %s: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("parse finished_at of run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

const countTaskRunsByOperation = `
SELECT operation, COUNT(*), SUM(CASE WHEN succeeded THEN 0 ELSE 1 END)
FROM task_runs
GROUP BY operation
ORDER BY operation
`

// CountTaskRunsByOperation totals runs and failures per operation.
func (q *Queries) CountTaskRunsByOperation(ctx context.Context) ([]OperationCount, error) {
	rows, err := q.db.QueryContext(ctx, countTaskRunsByOperation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []OperationCount
	for rows.Next() {
		var c OperationCount
		if err := rows.Scan(&c.Operation, &c.Total, &c.Failed); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// RecordRun implements task.Recorder.
func (q *Queries) RecordRun(ctx context.Context, run task.Run) error {
	err := q.InsertTaskRun(ctx, TaskRun{
		ID:         run.ID.String(),
		Operation:  string(run.Operation),
		Succeeded:  run.Succeeded,
		ResultID:   run.ResultID,
		Error:      run.Error,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	})
	if err != nil {
		return fmt.Errorf("insert task run: %w", err)
	}
	return nil
}
