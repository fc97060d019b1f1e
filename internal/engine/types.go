package engine

import (
	"github.com/sells-group/estimate-cli/internal/model"
	"github.com/sells-group/estimate-cli/internal/renewal"
)

// EstimateResult is the per-estimate classification output.
type EstimateResult = model.EstimateResult

// AtRiskEstimate is a won contract ending inside the renewal window.
type AtRiskEstimate = renewal.AtRisk

// DuplicateWarning flags several at-risk estimates at one department and address.
type DuplicateWarning = renewal.DuplicateWarning

// AccountSegment is one account's segment for one year.
type AccountSegment struct {
	AccountID string        `json:"account_id" yaml:"account_id"`
	Year      int           `json:"year" yaml:"year"`
	Segment   model.Segment `json:"segment" yaml:"segment"`
}

// DataQuality counts records that were dropped or degraded during a run.
type DataQuality struct {
	Deduplicated        int `json:"deduplicated" yaml:"deduplicated"`
	Undated             int `json:"undated" yaml:"undated"`
	UnparseableDate     int `json:"unparseable_date" yaml:"unparseable_date"`
	InvalidDuration     int `json:"invalid_duration" yaml:"invalid_duration"`
	UnresolvedStartYear int `json:"unresolved_start_year" yaml:"unresolved_start_year"`
	ExcludedFromStats   int `json:"excluded_from_stats" yaml:"excluded_from_stats"`
	Archived            int `json:"archived" yaml:"archived"`
	NoAccount           int `json:"no_account" yaml:"no_account"`
}

// Map returns the counters keyed by name, omitting zeros.
func (q DataQuality) Map() map[string]int {
	out := map[string]int{}
	add := func(k string, v int) {
		if v > 0 {
			out[k] = v
		}
	}
	add("deduplicated", q.Deduplicated)
	add("undated", q.Undated)
	add(string(model.ReasonUnparseableDate), q.UnparseableDate)
	add(string(model.ReasonInvalidDuration), q.InvalidDuration)
	add(string(model.ReasonUnresolvedStartYear), q.UnresolvedStartYear)
	add(string(model.ReasonExcludedFromStats), q.ExcludedFromStats)
	add(string(model.ReasonArchived), q.Archived)
	add("no_account", q.NoAccount)
	return out
}

func (q *DataQuality) countReason(r model.ExclusionReason) {
	switch r {
	case model.ReasonUnparseableDate:
		q.UnparseableDate++
	case model.ReasonInvalidDuration:
		q.InvalidDuration++
	case model.ReasonUnresolvedStartYear:
		q.UnresolvedStartYear++
	}
}
