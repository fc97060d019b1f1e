// Package renewal flags won contracts that expire soon without a renewal.
package renewal

import (
	"sort"
	"strings"

	"github.com/sells-group/estimate-cli/internal/estimate"
	"github.com/sells-group/estimate-cli/internal/model"
)

// DefaultThresholdDays is the default at-risk window.
const DefaultThresholdDays = 180

// AtRisk is a won estimate whose contract ends inside the window.
type AtRisk struct {
	AccountID          string     `json:"account_id" yaml:"account_id"`
	EstimateExternalID string     `json:"estimate_external_id" yaml:"estimate_external_id"`
	DaysUntilRenewal   int        `json:"days_until_renewal" yaml:"days_until_renewal"`
	Department         string     `json:"department" yaml:"department"`
	Address            string     `json:"address" yaml:"address"`
	ContractEnd        model.Date `json:"contract_end" yaml:"contract_end"`
}

// DuplicateWarning reports several at-risk estimates for the same
// department and address of one account. These usually describe a single
// contract entered more than once.
type DuplicateWarning struct {
	AccountID           string   `json:"account_id" yaml:"account_id"`
	Department          string   `json:"department" yaml:"department"`
	Address             string   `json:"address" yaml:"address"`
	EstimateExternalIDs []string `json:"estimate_external_ids" yaml:"estimate_external_ids"`
}

// Result is the renewal assessment for one account.
type Result struct {
	AtRisk     []AtRisk           `json:"at_risk"`
	Duplicates []DuplicateWarning `json:"duplicates,omitempty"`
	Suppressed []string           `json:"suppressed,omitempty"`
}

// NormalizeKey folds case, trims and collapses internal whitespace.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(estimate.Fold(s)), " ")
}

// matchKey identifies a department at an address.
type matchKey struct {
	department string
	address    string
}

// keyOf returns the normalized match key, ok false when either part is blank.
func keyOf(rec model.EstimateRecord) (matchKey, bool) {
	k := matchKey{department: NormalizeKey(rec.Division), address: NormalizeKey(rec.Address)}
	return k, k.department != "" && k.address != ""
}

// wonDated reports whether rec is a non-archived won estimate with a usable
// contract end.
func wonDated(rec model.EstimateRecord) bool {
	return !rec.Archived && rec.ContractEnd.Valid() && estimate.ClassifyRecord(rec) == model.OutcomeWon
}

// FindAtRisk returns the estimates of one account whose contracts end within
// thresholdDays of today, minus those already renewed.
//
// A candidate is renewed when another won estimate for the same department
// and address ends strictly later and beyond the window. Candidates missing
// either key stay at risk. Contracts that already ended are not reported.
func FindAtRisk(accountID string, estimates []model.EstimateRecord, thresholdDays int, today model.Date) Result {
	var res Result

	for i, rec := range estimates {
		if !rec.Counted() || !wonDated(rec) {
			continue
		}
		days := today.DaysUntil(rec.ContractEnd)
		if days < 0 || days > thresholdDays {
			continue
		}
		if renewed(i, rec, estimates, thresholdDays, today) {
			res.Suppressed = append(res.Suppressed, rec.ExternalID)
			continue
		}
		res.AtRisk = append(res.AtRisk, AtRisk{
			AccountID:          accountID,
			EstimateExternalID: rec.ExternalID,
			DaysUntilRenewal:   days,
			Department:         rec.Division,
			Address:            rec.Address,
			ContractEnd:        rec.ContractEnd,
		})
	}

	sort.SliceStable(res.AtRisk, func(a, b int) bool {
		if res.AtRisk[a].DaysUntilRenewal != res.AtRisk[b].DaysUntilRenewal {
			return res.AtRisk[a].DaysUntilRenewal < res.AtRisk[b].DaysUntilRenewal
		}
		return res.AtRisk[a].EstimateExternalID < res.AtRisk[b].EstimateExternalID
	})
	res.Duplicates = findDuplicates(accountID, res.AtRisk)
	return res
}

func renewed(idx int, candidate model.EstimateRecord, estimates []model.EstimateRecord, thresholdDays int, today model.Date) bool {
	key, ok := keyOf(candidate)
	if !ok {
		return false
	}
	for j, other := range estimates {
		if j == idx || !wonDated(other) {
			continue
		}
		if k, ok := keyOf(other); !ok || k != key {
			continue
		}
		if !other.ContractEnd.After(candidate.ContractEnd) {
			continue
		}
		if today.DaysUntil(other.ContractEnd) > thresholdDays {
			return true
		}
	}
	return false
}

func findDuplicates(accountID string, atRisk []AtRisk) []DuplicateWarning {
	groups := make(map[matchKey][]AtRisk)
	var order []matchKey
	for _, r := range atRisk {
		k := matchKey{department: NormalizeKey(r.Department), address: NormalizeKey(r.Address)}
		if k.department == "" || k.address == "" {
			continue
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	var out []DuplicateWarning
	for _, k := range order {
		members := groups[k]
		if len(members) < 2 {
			continue
		}
		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.EstimateExternalID
		}
		out = append(out, DuplicateWarning{
			AccountID:           accountID,
			Department:          members[0].Department,
			Address:             members[0].Address,
			EstimateExternalIDs: ids,
		})
	}
	return out
}
