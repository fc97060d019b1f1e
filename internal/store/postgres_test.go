package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/estimate-cli/internal/db"
	"github.com/sells-group/estimate-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var estimateCols = []string{
	"external_id", "account_id", "status", "pipeline_status",
	"price_ex_tax", "price_inc_tax",
	"estimate_date", "close_date", "contract_start", "contract_end", "created_date",
	"division", "address", "estimate_type", "exclude_from_stats", "archived",
}

var accountCols = []string{
	"id", "name", "annual_revenue", "archived", "segment_by_year", "segment_letter", "snoozed_until",
}

func TestPostgresStore_ListEstimates(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows(estimateCols).
		AddRow("E-1", "A-1", "Contract Signed", "", "100000.00", "120000.00",
			"", "", "2024-07-01", "2026-06-30", "2024-05-01",
			"Maintenance", "1 Main St", "service", false, false).
		AddRow("", "", "", "", "", "", "", "", "", "", "", "", "", "", false, true)
	mock.ExpectQuery(`FROM estimates ORDER BY seq LIMIT \$1 OFFSET \$2`).
		WithArgs(1000, 0).
		WillReturnRows(rows)

	got, err := s.ListEstimates(context.Background(), Page{Limit: 1000, Offset: 0})
	require.NoError(t, err)
	require.Len(t, got, 2)

	e := got[0]
	assert.Equal(t, "E-1", e.ExternalID)
	assert.Equal(t, "120000", e.PriceIncTax.Decimal.String())
	assert.Equal(t, 2024, e.ContractStart.Year())
	assert.Equal(t, model.EstimateTypeService, e.EstimateType)
	assert.False(t, got[1].PriceExTax.Valid)
	assert.True(t, got[1].Archived)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEstimates_BadMoney(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows(estimateCols).
		AddRow("E-1", "", "", "", "n/a", "", "", "", "", "", "", "", "", "", false, false)
	mock.ExpectQuery(`FROM estimates`).WithArgs(10, 0).WillReturnRows(rows)

	_, err := s.ListEstimates(context.Background(), Page{Limit: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode estimate")
}

func TestPostgresStore_ListEstimates_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM estimates`).WithArgs(10, 20).WillReturnError(errors.New("relation does not exist"))

	_, err := s.ListEstimates(context.Background(), Page{Limit: 10, Offset: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: list estimates")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAccounts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := pgxmock.NewRows(accountCols).
		AddRow("A-1", "Acme", "2500000.00", false, `{"2024":"B"}`, "B", "2025-08-01").
		AddRow("A-2", "Globex", "", true, `{}`, "", "")
	mock.ExpectQuery(`FROM accounts ORDER BY id`).WithArgs(500, 0).WillReturnRows(rows)

	got, err := s.ListAccounts(context.Background(), Page{Limit: 500})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2500000", got[0].AnnualRevenue.Decimal.String())
	assert.Equal(t, model.SegmentB, got[0].SegmentByYear[2024])
	assert.Equal(t, model.SegmentB, got[0].SegmentLetter)
	assert.True(t, got[0].SnoozedUntil.Valid())
	assert.False(t, got[1].AnnualRevenue.Valid)
	assert.True(t, got[1].Archived)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSegments(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE accounts SET segment_by_year`).
		WithArgs(`{"2024":"A","2025":"D"}`, "D", pgxmock.AnyArg(), "A-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.SaveSegments(context.Background(), "A-1",
		map[int]model.Segment{2024: model.SegmentA, 2025: model.SegmentD}, model.SegmentD)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSegments_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE accounts`).
		WithArgs(pgxmock.AnyArg(), "C", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SaveSegments(context.Background(), "missing", map[int]model.Segment{2025: model.SegmentC}, model.SegmentC)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account not found")
}

func TestPostgresStore_SaveEstimateResults(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{db.TempTable("estimate_results")}, resultColumns).WillReturnResult(1)
	mock.ExpectExec("DELETE FROM").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := s.SaveEstimateResults(context.Background(), []model.EstimateResult{
		{ExternalID: "E-1", AccountID: "A-1", Outcome: model.OutcomeWon},
		{Outcome: model.OutcomePending},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO classification_runs`).
		WithArgs(pgxmock.AnyArg(), "full", "running", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), model.RunKindFull, model.RunParams{Years: []int{2025}})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE classification_runs SET status = \$1, summary`).
		WithArgs("complete", pgxmock.AnyArg(), pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.CompleteRun(context.Background(), "run-1", &model.RunSummary{Estimates: 3})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE classification_runs SET status = \$1, error`).
		WithArgs("failed", "boom", pgxmock.AnyArg(), "run-x").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FailRun(context.Background(), "run-x", "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM classification_runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS accounts`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
