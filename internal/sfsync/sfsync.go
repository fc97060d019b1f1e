// Package sfsync adapts Salesforce Accounts to the engine: an account source
// for snapshots and a segment persister for write-back.
package sfsync

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/store"
	"github.com/sells-group/estimate-cli/pkg/salesforce"
)

// AccountSource serves Salesforce Accounts through the paged lister
// interface. The full set is queried on the first page and sliced after.
type AccountSource struct {
	client salesforce.Client

	mu     sync.Mutex
	loaded []model.AccountRecord
}

// NewAccountSource creates an AccountSource over c.
func NewAccountSource(c salesforce.Client) *AccountSource {
	return &AccountSource{client: c}
}

// ListAccounts implements store.AccountLister.
func (s *AccountSource) ListAccounts(ctx context.Context, page store.Page) ([]model.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if page.Offset == 0 || s.loaded == nil {
		accounts, err := salesforce.ListAccounts(ctx, s.client)
		if err != nil {
			return nil, err
		}
		s.loaded = make([]model.AccountRecord, 0, len(accounts))
		for _, a := range accounts {
			rec, err := ToRecord(a)
			if err != nil {
				return nil, err
			}
			s.loaded = append(s.loaded, rec)
		}
		zap.L().Debug("sfsync: loaded accounts", zap.Int("count", len(s.loaded)))
	}

	if page.Offset >= len(s.loaded) {
		return nil, nil
	}
	end := len(s.loaded)
	if page.Limit > 0 {
		end = min(page.Offset+page.Limit, end)
	}
	return s.loaded[page.Offset:end], nil
}

// ToRecord maps a Salesforce Account to an AccountRecord. A zero annual
// revenue is treated as missing.
func ToRecord(a salesforce.Account) (model.AccountRecord, error) {
	byYear, err := store.DecodeSegments(a.SegmentByYear)
	if err != nil {
		return model.AccountRecord{}, eris.Wrapf(err, "sfsync: account %s", a.ID)
	}
	rec := model.AccountRecord{
		ID:            a.ID,
		Name:          a.Name,
		Archived:      a.Archived,
		SegmentByYear: byYear,
		SegmentLetter: model.ParseSegment(a.Segment),
		SnoozedUntil:  model.ParseDate(a.SnoozedUntil),
	}
	if a.AnnualRevenue != 0 {
		rec.AnnualRevenue = decimal.NewNullDecimal(decimal.NewFromFloat(a.AnnualRevenue).Round(2))
	}
	return rec, nil
}

// SegmentWriter writes segment results to Salesforce Accounts.
type SegmentWriter struct {
	client salesforce.Client
}

// NewSegmentWriter creates a SegmentWriter over c.
func NewSegmentWriter(c salesforce.Client) *SegmentWriter {
	return &SegmentWriter{client: c}
}

// SaveSegments implements segment.Persister.
func (w *SegmentWriter) SaveSegments(ctx context.Context, accountID string, byYear map[int]model.Segment, letter model.Segment) error {
	byYearJSON, err := store.EncodeSegments(byYear)
	if err != nil {
		return eris.Wrapf(err, "sfsync: encode segments for %s", accountID)
	}
	return salesforce.UpdateAccountSegment(ctx, w.client, accountID, string(letter), byYearJSON)
}
