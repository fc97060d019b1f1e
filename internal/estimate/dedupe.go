package estimate

import "github.com/sells-group/estimate-cli/internal/model"

// Dedupe keeps the first record per external id in encounter order. Records
// without an external id cannot be matched and are always kept.
func Dedupe(records []model.EstimateRecord) []model.EstimateRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]model.EstimateRecord, 0, len(records))
	for _, rec := range records {
		if rec.ExternalID == "" {
			out = append(out, rec)
			continue
		}
		if _, ok := seen[rec.ExternalID]; ok {
			continue
		}
		seen[rec.ExternalID] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// GroupByAccount groups records by account id, preserving order within each
// group. Records without an account are returned separately.
func GroupByAccount(records []model.EstimateRecord) (map[string][]model.EstimateRecord, []model.EstimateRecord) {
	groups := make(map[string][]model.EstimateRecord)
	var orphans []model.EstimateRecord
	for _, rec := range records {
		if rec.AccountID == "" {
			orphans = append(orphans, rec)
			continue
		}
		groups[rec.AccountID] = append(groups[rec.AccountID], rec)
	}
	return groups, orphans
}
