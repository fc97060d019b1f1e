package model

// Outcome is the tri-state sales result of an estimate.
type Outcome string

const (
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
	OutcomePending Outcome = "pending"
)

// AllOutcomes returns every outcome in display order.
func AllOutcomes() []Outcome {
	return []Outcome{OutcomeWon, OutcomeLost, OutcomePending}
}
