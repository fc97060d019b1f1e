package main

import (
	"context"

	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/store"
)

// storeStub satisfies store.Store without a database.
type storeStub struct{}

func (s *storeStub) ListEstimates(context.Context, store.Page) ([]model.EstimateRecord, error) {
	return nil, nil
}

func (s *storeStub) ListAccounts(context.Context, store.Page) ([]model.AccountRecord, error) {
	return nil, nil
}

func (s *storeStub) SaveSegments(context.Context, string, map[int]model.Segment, model.Segment) error {
	return nil
}

func (s *storeStub) SaveEstimateResults(context.Context, []model.EstimateResult) (int64, error) {
	return 0, nil
}

func (s *storeStub) CreateRun(_ context.Context, kind model.RunKind, params model.RunParams) (*model.Run, error) {
	return &model.Run{ID: "stub", Kind: kind, Params: params}, nil
}

func (s *storeStub) CompleteRun(context.Context, string, *model.RunSummary) error { return nil }

func (s *storeStub) FailRun(context.Context, string, string) error { return nil }

func (s *storeStub) GetRun(context.Context, string) (*model.Run, error) { return nil, nil }

func (s *storeStub) Migrate(context.Context) error { return nil }

func (s *storeStub) Close() error { return nil }

// sfStub satisfies salesforce.Client.
type sfStub struct{}

func (s *sfStub) Query(context.Context, string, any) error { return nil }

func (s *sfStub) UpdateOne(context.Context, string, string, map[string]any) error { return nil }
