// Package estimate classifies estimate records and attributes their value to
// calendar years.
package estimate

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/estimate-cli/internal/model"
)

// pipelineSoldToken marks a won sale anywhere in the pipeline status.
const pipelineSoldToken = "sold"

// phraseSet is a closed set of case-folded status phrases.
type phraseSet map[string]struct{}

func newPhraseSet(phrases ...string) phraseSet {
	s := make(phraseSet, len(phrases))
	for _, p := range phrases {
		s[Fold(p)] = struct{}{}
	}
	return s
}

func (s phraseSet) has(folded string) bool {
	_, ok := s[folded]
	return ok
}

func (s phraseSet) sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// wonPhrases are status values that indicate a won estimate. Matching is
// exact: "Sold Equipment" is not a sale.
var wonPhrases = newPhraseSet(
	"contract signed",
	"work complete",
	"billing complete",
	"email contract award",
	"verbal contract award",
	"contract in progress",
	"contract + billing complete",
	"sold",
	"won",
)

// lostPhrases are status values that indicate a lost estimate. Matching is
// exact: "Lost Contact" is not a lost sale.
var lostPhrases = newPhraseSet(
	"lost",
	"closed lost",
	"contract lost",
	"bid lost",
	"lost bid",
	"lost to competitor",
	"declined",
	"rejected",
	"not awarded",
)

// WonPhrases returns the won phrase table, sorted.
func WonPhrases() []string { return wonPhrases.sorted() }

// LostPhrases returns the lost phrase table, sorted.
func LostPhrases() []string { return lostPhrases.sorted() }

// Fold trims s and case-folds it for comparison.
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Classify maps the pipeline and free-text status fields to an outcome.
//
// The pipeline field is the source system's sales-stage field and wins when
// it mentions a sale. Otherwise the status field must match a phrase table
// exactly. Anything unrecognised is pending.
func Classify(pipelineStatus, status string) model.Outcome {
	pipeline := Fold(pipelineStatus)
	text := Fold(status)

	if strings.Contains(pipeline, pipelineSoldToken) {
		return model.OutcomeWon
	}
	if wonPhrases.has(text) {
		return model.OutcomeWon
	}
	if lostPhrases.has(text) || lostPhrases.has(pipeline) {
		return model.OutcomeLost
	}
	return model.OutcomePending
}

// ClassifyRecord classifies an estimate record.
func ClassifyRecord(rec model.EstimateRecord) model.Outcome {
	return Classify(rec.PipelineStatusText, rec.StatusText)
}
