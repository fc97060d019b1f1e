package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/db"
	"github.com/sells-group/estimate-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	listEstimatesSQL = `SELECT COALESCE(external_id, ''), COALESCE(account_id, ''),
	COALESCE(status, ''), COALESCE(pipeline_status, ''),
	COALESCE(price_ex_tax::text, ''), COALESCE(price_inc_tax::text, ''),
	COALESCE(estimate_date, ''), COALESCE(close_date, ''),
	COALESCE(contract_start, ''), COALESCE(contract_end, ''), COALESCE(created_date, ''),
	COALESCE(division, ''), COALESCE(address, ''), COALESCE(estimate_type, ''),
	exclude_from_stats, archived
FROM estimates ORDER BY seq LIMIT $1 OFFSET $2`

	listAccountsSQL = `SELECT id, COALESCE(name, ''), COALESCE(annual_revenue::text, ''), archived,
	COALESCE(segment_by_year::text, '{}'), COALESCE(segment_letter, ''), COALESCE(snoozed_until, '')
FROM accounts ORDER BY id LIMIT $1 OFFSET $2`

	saveSegmentsSQL = `UPDATE accounts SET segment_by_year = $1::jsonb, segment_letter = $2, updated_at = $3 WHERE id = $4`
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"list_estimates": listEstimatesSQL,
	"list_accounts":  listAccountsSQL,
	"save_segments":  saveSegmentsSQL,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				// Tables may not exist before the first migrate.
				zap.L().Debug("postgres: skip prepare", zap.String("statement", name), zap.Error(err))
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS accounts (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	annual_revenue  NUMERIC(18,2),
	archived        BOOLEAN NOT NULL DEFAULT false,
	segment_by_year JSONB NOT NULL DEFAULT '{}'::jsonb,
	segment_letter  TEXT NOT NULL DEFAULT '',
	snoozed_until   TEXT,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS estimates (
	seq                BIGSERIAL PRIMARY KEY,
	external_id        TEXT,
	account_id         TEXT,
	status             TEXT,
	pipeline_status    TEXT,
	price_ex_tax       NUMERIC(18,2),
	price_inc_tax      NUMERIC(18,2),
	estimate_date      TEXT,
	close_date         TEXT,
	contract_start     TEXT,
	contract_end       TEXT,
	created_date       TEXT,
	division           TEXT,
	address            TEXT,
	estimate_type      TEXT,
	exclude_from_stats BOOLEAN NOT NULL DEFAULT false,
	archived           BOOLEAN NOT NULL DEFAULT false,
	ingested_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_estimates_external_id ON estimates(external_id);
CREATE INDEX IF NOT EXISTS idx_estimates_account_id ON estimates(account_id);

CREATE TABLE IF NOT EXISTS estimate_results (
	external_id     TEXT PRIMARY KEY,
	account_id      TEXT NOT NULL DEFAULT '',
	outcome         TEXT NOT NULL,
	years           JSONB NOT NULL DEFAULT '[]'::jsonb,
	undated         BOOLEAN NOT NULL DEFAULT false,
	excluded_reason TEXT NOT NULL DEFAULT '',
	computed_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS classification_runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	kind        TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	params      JSONB NOT NULL DEFAULT '{}'::jsonb,
	summary     JSONB,
	error       TEXT,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_classification_runs_status ON classification_runs(status);
`

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ListEstimates(ctx context.Context, page Page) ([]model.EstimateRecord, error) {
	rows, err := s.pool.Query(ctx, listEstimatesSQL, page.Limit, page.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list estimates")
	}
	defer rows.Close()

	var out []model.EstimateRecord
	for rows.Next() {
		var r estimateRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan estimate")
		}
		rec, err := r.record()
		if err != nil {
			return nil, eris.Wrap(err, "postgres: decode estimate")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list estimates iterate")
}

func (s *PostgresStore) ListAccounts(ctx context.Context, page Page) ([]model.AccountRecord, error) {
	rows, err := s.pool.Query(ctx, listAccountsSQL, page.Limit, page.Offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list accounts")
	}
	defer rows.Close()

	var out []model.AccountRecord
	for rows.Next() {
		var r accountRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan account")
		}
		rec, err := r.record()
		if err != nil {
			return nil, eris.Wrap(err, "postgres: decode account")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list accounts iterate")
}

func (s *PostgresStore) SaveSegments(ctx context.Context, accountID string, byYear map[int]model.Segment, letter model.Segment) error {
	segJSON, err := EncodeSegments(byYear)
	if err != nil {
		return eris.Wrap(err, "postgres: save segments")
	}
	tag, err := s.pool.Exec(ctx, saveSegmentsSQL, segJSON, string(letter), time.Now().UTC(), accountID)
	if err != nil {
		return eris.Wrapf(err, "postgres: save segments %s", accountID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("account not found: %s", accountID)
	}
	return nil
}

func (s *PostgresStore) SaveEstimateResults(ctx context.Context, results []model.EstimateResult) (int64, error) {
	rows, skipped, err := resultRows(results, time.Now().UTC())
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save estimate results")
	}
	if skipped > 0 {
		zap.L().Warn("postgres: skipped results without external id", zap.Int("count", skipped))
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "estimate_results",
		Columns:      resultColumns,
		ConflictKeys: []string{"external_id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: save estimate results")
}

func (s *PostgresStore) CreateRun(ctx context.Context, kind model.RunKind, params model.RunParams) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal run params")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO classification_runs (id, kind, status, params, started_at) VALUES ($1, $2, $3, $4, $5)`,
		id, string(kind), string(model.RunStatusRunning), paramsJSON, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Kind:      kind,
		Status:    model.RunStatusRunning,
		Params:    params,
		StartedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run summary")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE classification_runs SET status = $1, summary = $2, finished_at = $3 WHERE id = $4`,
		string(model.RunStatusComplete), summaryJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, msg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE classification_runs SET status = $1, error = $2, finished_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var paramsJSON, summaryJSON string

	err := s.pool.QueryRow(ctx,
		`SELECT id, kind, status, params::text, COALESCE(summary::text, ''), COALESCE(error, ''), started_at, finished_at
		 FROM classification_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.Kind, &r.Status, &paramsJSON, &summaryJSON, &r.Error, &r.StartedAt, &r.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: get run %s: run not found", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	if err := decodeRun(&r, paramsJSON, summaryJSON); err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	return &r, nil
}

func decodeRun(r *model.Run, paramsJSON, summaryJSON string) error {
	if paramsJSON != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
			return eris.Wrap(err, "unmarshal run params")
		}
	}
	if summaryJSON != "" {
		r.Summary = &model.RunSummary{}
		if err := json.Unmarshal([]byte(summaryJSON), r.Summary); err != nil {
			return eris.Wrap(err, "unmarshal run summary")
		}
	}
	return nil
}
