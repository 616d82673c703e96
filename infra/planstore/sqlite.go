// Package planstore provides the SQLite-backed plan and event stores.
package planstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
	coreplanstore "github.com/GoToMarketNow/lawnflow-dispatch/core/planstore"
)

// SQLiteStore persists dispatch plans and their event trail to a SQLite
// database. Plans are stored as JSON records keyed by (business, date, mode).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS dispatch_plans (
        plan_id TEXT NOT NULL,
        business_id TEXT NOT NULL,
        plan_date TEXT NOT NULL,
        mode TEXT NOT NULL,
        status TEXT NOT NULL,
        record TEXT NOT NULL,
        updated_at INTEGER NOT NULL,
        UNIQUE(business_id, plan_date, mode)
    );
    CREATE TABLE IF NOT EXISTS dispatch_plan_events (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        plan_id TEXT NOT NULL,
        event_type TEXT NOT NULL,
        ts INTEGER NOT NULL,
        record TEXT NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Upsert fully replaces any plan stored under the same key.
func (s *SQLiteStore) Upsert(ctx context.Context, plan *model.DispatchPlan) error {
	b, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dispatch_plans (plan_id, business_id, plan_date, mode, status, record, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(business_id, plan_date, mode) DO UPDATE SET
             plan_id = excluded.plan_id,
             status = excluded.status,
             record = excluded.record,
             updated_at = excluded.updated_at`,
		plan.ID, plan.Key.BusinessID, plan.Key.PlanDate, string(plan.Key.Mode),
		string(plan.Status), string(b), plan.UpdatedAt.Unix())
	return err
}

// GetByKey returns the plan stored under key.
func (s *SQLiteStore) GetByKey(ctx context.Context, key model.PlanKey) (*model.DispatchPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record FROM dispatch_plans WHERE business_id = ? AND plan_date = ? AND mode = ?`,
		key.BusinessID, key.PlanDate, string(key.Mode))
	return scanPlan(row)
}

// GetByID returns the plan with the given id.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*model.DispatchPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record FROM dispatch_plans WHERE plan_id = ?`, id)
	return scanPlan(row)
}

func scanPlan(row *sql.Row) (*model.DispatchPlan, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, coreplanstore.ErrNotFound
		}
		return nil, err
	}
	var p model.DispatchPlan
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	return &p, nil
}

// Append writes the event to the database.
func (s *SQLiteStore) Append(ctx context.Context, ev model.PlanEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO dispatch_plan_events (plan_id, event_type, ts, record) VALUES (?, ?, ?, ?)`,
		ev.PlanID, string(ev.Type), ev.Timestamp.Unix(), string(b))
	return err
}

// ListByPlan returns the events for a plan in append order.
func (s *SQLiteStore) ListByPlan(ctx context.Context, planID string) ([]model.PlanEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM dispatch_plan_events WHERE plan_id = ? ORDER BY id`, planID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.PlanEvent
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var ev model.PlanEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
