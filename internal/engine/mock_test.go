package engine

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/estimate-cli/internal/model"
)

// mockRecorder records run lifecycle calls in memory.
type mockRecorder struct {
	createErr   error
	completeErr error

	created   []model.RunKind
	completed map[string]*model.RunSummary
	failed    map[string]string
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{
		completed: make(map[string]*model.RunSummary),
		failed:    make(map[string]string),
	}
}

func (m *mockRecorder) CreateRun(_ context.Context, kind model.RunKind, params model.RunParams) (*model.Run, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, kind)
	return &model.Run{ID: "run-1", Kind: kind, Status: model.RunStatusRunning, Params: params}, nil
}

func (m *mockRecorder) CompleteRun(_ context.Context, runID string, summary *model.RunSummary) error {
	if m.completeErr != nil {
		return m.completeErr
	}
	m.completed[runID] = summary
	return nil
}

func (m *mockRecorder) FailRun(_ context.Context, runID string, msg string) error {
	m.failed[runID] = msg
	return nil
}

// mockPersister captures segment writes.
type mockPersister struct {
	mu      sync.Mutex
	saved   map[string]map[int]model.Segment
	failIDs map[string]bool
}

func newMockPersister(failIDs ...string) *mockPersister {
	m := &mockPersister{saved: map[string]map[int]model.Segment{}, failIDs: map[string]bool{}}
	for _, id := range failIDs {
		m.failIDs[id] = true
	}
	return m
}

func (m *mockPersister) SaveSegments(_ context.Context, accountID string, byYear map[int]model.Segment, _ model.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIDs[accountID] {
		return eris.Errorf("account not found: %s", accountID)
	}
	m.saved[accountID] = byYear
	return nil
}
