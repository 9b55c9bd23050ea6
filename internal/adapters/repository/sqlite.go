package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/maumcare/pulse/internal/cohort"
	"github.com/maumcare/pulse/internal/report"
)

// Archive persists finished runs into SQLite so a run's output survives
// the process. The in-memory store stays the working state; the archive is
// append-only history keyed by run id.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (or creates) the SQLite archive at dsn and ensures the
// schema exists. An empty dsn uses a local pulse.db file.
func OpenArchive(ctx context.Context, dsn string) (*Archive, error) {
	if dsn == "" {
		dsn = "file:pulse.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrPersistence, err)
	}

	// modernc sqlite allows one writer; keep the pool at a single conn.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrPersistence, err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: schema: %v", ErrPersistence, err)
	}

	return &Archive{db: db}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// SaveRun archives one run's store snapshot and summary in a single
// transaction.
func (a *Archive) SaveRun(ctx context.Context, store Store, summary report.Summary) (err error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertRun(ctx, tx, summary); err != nil {
		return err
	}
	if err = insertParticipants(ctx, tx, summary.RunID, store); err != nil {
		return err
	}
	if err = insertGroups(ctx, tx, summary.RunID, store.Groups(ctx)); err != nil {
		return err
	}
	if err = insertAnomalies(ctx, tx, summary); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrPersistence, err)
	}
	return nil
}

// LoadDocument reloads a run's exported document from the archive.
func (a *Archive) LoadDocument(ctx context.Context, runID string) (Document, error) {
	doc := Document{Groups: make(map[string]GroupDoc)}

	rows, err := a.db.QueryContext(ctx,
		`SELECT participant_id, name, team, role, gender, phone, analysis_json
		   FROM participants WHERE run_id = ? ORDER BY participant_id`, runID)
	if err != nil {
		return doc, fmt.Errorf("%w: query participants: %v", ErrPersistence, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p ParticipantDoc
		var analysisJSON string
		if err := rows.Scan(&p.ID, &p.Name, &p.Team, &p.Role, &p.Gender, &p.Phone, &analysisJSON); err != nil {
			return doc, fmt.Errorf("%w: scan participant: %v", ErrPersistence, err)
		}
		if err := json.Unmarshal([]byte(analysisJSON), &p.Analysis); err != nil {
			return doc, fmt.Errorf("%w: decode analysis: %v", ErrPersistence, err)
		}
		doc.Participants = append(doc.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return doc, fmt.Errorf("%w: iterate participants: %v", ErrPersistence, err)
	}

	groupRows, err := a.db.QueryContext(ctx,
		`SELECT name, participant_count, analysis_json
		   FROM group_baselines WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return doc, fmt.Errorf("%w: query groups: %v", ErrPersistence, err)
	}
	defer groupRows.Close()

	for groupRows.Next() {
		var name, analysisJSON string
		var g GroupDoc
		if err := groupRows.Scan(&name, &g.ParticipantCount, &analysisJSON); err != nil {
			return doc, fmt.Errorf("%w: scan group: %v", ErrPersistence, err)
		}
		if err := json.Unmarshal([]byte(analysisJSON), &g.Analysis); err != nil {
			return doc, fmt.Errorf("%w: decode group analysis: %v", ErrPersistence, err)
		}
		doc.Groups[name] = g
	}
	if err := groupRows.Err(); err != nil {
		return doc, fmt.Errorf("%w: iterate groups: %v", ErrPersistence, err)
	}

	return doc, nil
}

// Runs lists archived run ids, most recent first.
func (a *Archive) Runs(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT run_id FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: query runs: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan run: %v", ErrPersistence, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate runs: %v", ErrPersistence, err)
	}
	return ids, nil
}

func insertRun(ctx context.Context, tx *sql.Tx, summary report.Summary) error {
	weeksJSON, err := json.Marshal(summary.Weeks)
	if err != nil {
		return fmt.Errorf("%w: encode weeks: %v", ErrPersistence, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, participants, responses_scored, weeks_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		summary.StartedAt.UnixMilli(),
		summary.FinishedAt.UnixMilli(),
		summary.Participants,
		summary.ResponsesScored,
		string(weeksJSON),
	)
	if err != nil {
		return fmt.Errorf("%w: insert run: %v", ErrPersistence, err)
	}
	return nil
}

func insertParticipants(ctx context.Context, tx *sql.Tx, runID string, store Store) error {
	doc := Export(ctx, store)
	for _, p := range doc.Participants {
		analysisJSON, err := json.Marshal(p.Analysis)
		if err != nil {
			return fmt.Errorf("%w: encode analysis: %v", ErrPersistence, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO participants (run_id, participant_id, name, team, role, gender, phone, analysis_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, p.ID, p.Name, p.Team, p.Role, p.Gender, p.Phone, string(analysisJSON),
		)
		if err != nil {
			return fmt.Errorf("%w: insert participant %q: %v", ErrPersistence, p.ID, err)
		}
	}
	return nil
}

func insertGroups(ctx context.Context, tx *sql.Tx, runID string, groups []cohort.GroupAnalysis) error {
	for _, group := range groups {
		analysis := make(map[string]WeekDoc, len(group.Analysis))
		for label, baseline := range group.Analysis {
			analysis[label] = WeekDoc{
				CategoryAverages: roundMap(baseline.CategoryAverages),
				TypeAverages:     roundNested(baseline.TypeAverages),
			}
		}
		analysisJSON, err := json.Marshal(analysis)
		if err != nil {
			return fmt.Errorf("%w: encode group analysis: %v", ErrPersistence, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO group_baselines (run_id, name, participant_count, analysis_json)
			 VALUES (?, ?, ?, ?)`,
			runID, group.Name, group.ParticipantCount, string(analysisJSON),
		)
		if err != nil {
			return fmt.Errorf("%w: insert group %q: %v", ErrPersistence, group.Name, err)
		}
	}
	return nil
}

func insertAnomalies(ctx context.Context, tx *sql.Tx, summary report.Summary) error {
	now := time.Now().UnixMilli()
	for _, anomaly := range summary.Anomalies {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO anomalies (run_id, kind, participant_id, week, detail, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			summary.RunID, string(anomaly.Kind), anomaly.ParticipantID, anomaly.Week, anomaly.Detail, now,
		)
		if err != nil {
			return fmt.Errorf("%w: insert anomaly: %v", ErrPersistence, err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaSQLite)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT PRIMARY KEY,
  started_at INTEGER NOT NULL,
  finished_at INTEGER NOT NULL,
  participants INTEGER NOT NULL,
  responses_scored INTEGER NOT NULL,
  weeks_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
  run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  participant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  team TEXT NOT NULL,
  role TEXT NOT NULL,
  gender TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  analysis_json TEXT NOT NULL,
  PRIMARY KEY (run_id, participant_id)
);

CREATE TABLE IF NOT EXISTS group_baselines (
  run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  participant_count INTEGER NOT NULL,
  analysis_json TEXT NOT NULL,
  PRIMARY KEY (run_id, name)
);

CREATE TABLE IF NOT EXISTS anomalies (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
  kind TEXT NOT NULL,
  participant_id TEXT NOT NULL DEFAULT '',
  week INTEGER NOT NULL DEFAULT 0,
  detail TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`
