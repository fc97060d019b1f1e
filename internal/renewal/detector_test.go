package renewal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/estimate-cli/internal/model"
)

func TestDetector_Run(t *testing.T) {
	t.Parallel()

	accounts := []model.AccountRecord{
		{ID: "acc-1"},
		{ID: "acc-2", Archived: true},
		{ID: "acc-3", SnoozedUntil: model.NewDate(2025, time.December, 31)},
		{ID: "acc-4"},
	}
	e1 := wonEnding("e1", inDays(20))
	e2 := wonEnding("e2", inDays(20))
	e2.AccountID = "acc-2"
	e3 := wonEnding("e3", inDays(20))
	e3.AccountID = "acc-3"
	e4 := wonEnding("e4", inDays(5))
	e4.AccountID = "acc-4"

	byAccount := map[string][]model.EstimateRecord{
		"acc-1": {e1}, "acc-2": {e2}, "acc-3": {e3}, "acc-4": {e4},
	}

	d, err := NewDetector(Options{ThresholdDays: DefaultThresholdDays, Concurrency: 3})
	require.NoError(t, err)
	report, err := d.Run(context.Background(), accounts, byAccount, today)
	require.NoError(t, err)

	require.Len(t, report.AtRisk, 2)
	assert.Equal(t, "e1", report.AtRisk[0].EstimateExternalID)
	assert.Equal(t, "acc-4", report.AtRisk[1].AccountID)
	assert.Equal(t, 1, report.Snoozed)
	assert.Equal(t, []string{"acc-1", "acc-4"}, report.AccountIDs())
}

func TestDetector_IncludeSnoozed(t *testing.T) {
	t.Parallel()

	accounts := []model.AccountRecord{{ID: "acc-1", SnoozedUntil: model.NewDate(2030, time.January, 1)}}
	byAccount := map[string][]model.EstimateRecord{"acc-1": {wonEnding("e1", inDays(20))}}

	d, err := NewDetector(Options{ThresholdDays: DefaultThresholdDays, IncludeSnoozed: true})
	require.NoError(t, err)
	report, err := d.Run(context.Background(), accounts, byAccount, today)
	require.NoError(t, err)
	assert.Len(t, report.AtRisk, 1)
	assert.Equal(t, 0, report.Snoozed)
}

func TestDetector_Defaults(t *testing.T) {
	t.Parallel()

	d, err := NewDetector(Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, d.Threshold())

	report, err := d.Run(context.Background(), nil, nil, today)
	require.NoError(t, err)
	assert.NotNil(t, report.AtRisk)
	assert.Empty(t, report.AtRisk)
}

func TestDetector_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := NewDetector(Options{})
	require.NoError(t, err)
	_, err = d.Run(ctx, []model.AccountRecord{{ID: "acc-1"}}, nil, today)
	require.Error(t, err)
}

func TestDetector_ZeroThreshold(t *testing.T) {
	t.Parallel()

	later := wonEnding("e-later", inDays(59))
	later.Address = "99 Elm St"
	accounts := []model.AccountRecord{{ID: "acc-1"}}
	byAccount := map[string][]model.EstimateRecord{
		"acc-1": {wonEnding("e-today", today), later},
	}

	d, err := NewDetector(Options{ThresholdDays: 0})
	require.NoError(t, err)
	report, err := d.Run(context.Background(), accounts, byAccount, today)
	require.NoError(t, err)

	require.Len(t, report.AtRisk, 1)
	assert.Equal(t, "e-today", report.AtRisk[0].EstimateExternalID)
	assert.Equal(t, 0, report.AtRisk[0].DaysUntilRenewal)
}

func TestDetector_NegativeThreshold(t *testing.T) {
	t.Parallel()

	_, err := NewDetector(Options{ThresholdDays: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold days must be >= 0")
}
