package model

// EstimateResult is the classification and year attribution computed for
// one deduplicated estimate.
type EstimateResult struct {
	ExternalID       string            `json:"external_id" yaml:"external_id"`
	AccountID        string            `json:"account_id,omitempty" yaml:"account_id,omitempty"`
	Outcome          Outcome           `json:"outcome" yaml:"outcome"`
	YearAttributions []YearAttribution `json:"year_attributions" yaml:"year_attributions"`
	Undated          bool              `json:"undated,omitempty" yaml:"undated,omitempty"`
	Excluded         ExclusionReason   `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}
