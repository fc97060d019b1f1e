package estimate

import "github.com/sells-group/estimate-cli/internal/model"

// ResolveYear picks the calendar year a single-year estimate belongs to.
//
// The first valid date among contract end, contract start, estimate date and
// created date decides. A record with no dates at all is Undated and applies
// to whichever year is being computed. A record whose dates are all
// unparseable is excluded.
func ResolveYear(rec model.EstimateRecord) model.YearResolution {
	present := false
	for _, d := range []model.Date{rec.ContractEnd, rec.ContractStart, rec.EstimateDate, rec.CreatedDate} {
		if d.Valid() {
			return model.YearResolution{Year: d.Year()}
		}
		if d.Present() {
			present = true
		}
	}
	if present {
		return model.YearResolution{Reason: model.ReasonUnparseableDate}
	}
	return model.YearResolution{Undated: true}
}
