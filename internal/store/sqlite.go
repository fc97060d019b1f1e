package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/estimate-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS accounts (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	annual_revenue  TEXT,
	archived        INTEGER NOT NULL DEFAULT 0,
	segment_by_year TEXT NOT NULL DEFAULT '{}',
	segment_letter  TEXT NOT NULL DEFAULT '',
	snoozed_until   TEXT,
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS estimates (
	seq                INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id        TEXT,
	account_id         TEXT,
	status             TEXT,
	pipeline_status    TEXT,
	price_ex_tax       TEXT,
	price_inc_tax      TEXT,
	estimate_date      TEXT,
	close_date         TEXT,
	contract_start     TEXT,
	contract_end       TEXT,
	created_date       TEXT,
	division           TEXT,
	address            TEXT,
	estimate_type      TEXT,
	exclude_from_stats INTEGER NOT NULL DEFAULT 0,
	archived           INTEGER NOT NULL DEFAULT 0,
	ingested_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_estimates_external_id ON estimates(external_id);
CREATE INDEX IF NOT EXISTS idx_estimates_account_id ON estimates(account_id);

CREATE TABLE IF NOT EXISTS estimate_results (
	external_id     TEXT PRIMARY KEY,
	account_id      TEXT NOT NULL DEFAULT '',
	outcome         TEXT NOT NULL,
	years           TEXT NOT NULL DEFAULT '[]',
	undated         INTEGER NOT NULL DEFAULT 0,
	excluded_reason TEXT NOT NULL DEFAULT '',
	computed_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS classification_runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	params      TEXT NOT NULL DEFAULT '{}',
	summary     TEXT,
	error       TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_classification_runs_status ON classification_runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListEstimates(ctx context.Context, page Page) ([]model.EstimateRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(external_id, ''), COALESCE(account_id, ''),
			COALESCE(status, ''), COALESCE(pipeline_status, ''),
			COALESCE(price_ex_tax, ''), COALESCE(price_inc_tax, ''),
			COALESCE(estimate_date, ''), COALESCE(close_date, ''),
			COALESCE(contract_start, ''), COALESCE(contract_end, ''), COALESCE(created_date, ''),
			COALESCE(division, ''), COALESCE(address, ''), COALESCE(estimate_type, ''),
			exclude_from_stats, archived
		 FROM estimates ORDER BY seq LIMIT ? OFFSET ?`,
		page.Limit, page.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list estimates")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.EstimateRecord
	for rows.Next() {
		var r estimateRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan estimate")
		}
		rec, err := r.record()
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: decode estimate")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list estimates iterate")
}

func (s *SQLiteStore) ListAccounts(ctx context.Context, page Page) ([]model.AccountRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, COALESCE(name, ''), COALESCE(annual_revenue, ''), archived,
			COALESCE(segment_by_year, '{}'), COALESCE(segment_letter, ''), COALESCE(snoozed_until, '')
		 FROM accounts ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit, page.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list accounts")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.AccountRecord
	for rows.Next() {
		var r accountRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan account")
		}
		rec, err := r.record()
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: decode account")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list accounts iterate")
}

func (s *SQLiteStore) SaveSegments(ctx context.Context, accountID string, byYear map[int]model.Segment, letter model.Segment) error {
	segJSON, err := EncodeSegments(byYear)
	if err != nil {
		return eris.Wrap(err, "sqlite: save segments")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET segment_by_year = ?, segment_letter = ?, updated_at = ? WHERE id = ?`,
		segJSON, string(letter), time.Now().UTC(), accountID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save segments %s", accountID)
	}
	return checkRowsAffected(res, "account", accountID)
}

func (s *SQLiteStore) SaveEstimateResults(ctx context.Context, results []model.EstimateResult) (int64, error) {
	rows, skipped, err := resultRows(results, time.Now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: save estimate results")
	}
	if skipped > 0 {
		zap.L().Warn("sqlite: skipped results without external id", zap.Int("count", skipped))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO estimate_results (external_id, account_id, outcome, years, undated, excluded_reason, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO UPDATE SET
			account_id = excluded.account_id,
			outcome = excluded.outcome,
			years = excluded.years,
			undated = excluded.undated,
			excluded_reason = excluded.excluded_reason,
			computed_at = excluded.computed_at`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert result")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, row := range rows {
		res, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert result %v", row[0])
		}
		affected, _ := res.RowsAffected()
		n += affected
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit results")
	}
	return n, nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, kind model.RunKind, params model.RunParams) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal run params")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO classification_runs (id, kind, status, params, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(kind), string(model.RunStatusRunning), string(paramsJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Kind:      kind,
		Status:    model.RunStatusRunning,
		Params:    params,
		StartedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE classification_runs SET status = ?, summary = ?, finished_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE classification_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var paramsJSON, summaryJSON string
	var finished sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, status, params, COALESCE(summary, ''), COALESCE(error, ''), started_at, finished_at
		 FROM classification_runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &r.Kind, &r.Status, &paramsJSON, &summaryJSON, &r.Error, &r.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("sqlite: get run %s: run not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	if err := decodeRun(&r, paramsJSON, summaryJSON); err != nil {
		return nil, eris.Wrap(err, "sqlite: get run")
	}
	return &r, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
