package segment

import (
	"context"
	"maps"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/estimate-cli/internal/model"
)

// mockPersister records segment writes and fails for configured accounts.
type mockPersister struct {
	mu      sync.Mutex
	saved   map[string]map[int]model.Segment
	letters map[string]model.Segment
	calls   int
	failIDs map[string]bool
}

func newMockPersister(failIDs ...string) *mockPersister {
	m := &mockPersister{
		saved:   make(map[string]map[int]model.Segment),
		letters: make(map[string]model.Segment),
		failIDs: make(map[string]bool),
	}
	for _, id := range failIDs {
		m.failIDs[id] = true
	}
	return m
}

func (m *mockPersister) SaveSegments(_ context.Context, accountID string, byYear map[int]model.Segment, letter model.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failIDs[accountID] {
		return eris.New("write rejected")
	}
	m.saved[accountID] = maps.Clone(byYear)
	m.letters[accountID] = letter
	return nil
}
