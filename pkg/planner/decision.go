package planner

// Decision is the next step after one horizon attempt
type Decision int

const (
	// DecisionSuccess accepts the attempt's result and stops
	DecisionSuccess Decision = iota
	// DecisionRetry extends the horizon by one day and tries again
	DecisionRetry
	// DecisionGiveUp stops with the last computed result
	DecisionGiveUp
)

func (d Decision) String() string {
	switch d {
	case DecisionSuccess:
		return "success"
	case DecisionRetry:
		return "retry"
	case DecisionGiveUp:
		return "give up"
	default:
		return "unknown"
	}
}

// Decide determines what to do after one parsed attempt. The attempt is
// accepted when its classified status is already acceptable or its success
// rate clears the configured threshold; otherwise the horizon is extended
// while budget remains.
func Decide(result *Result, successThreshold float64, remainingExtensions int) Decision {
	if result.Status == StatusOptimal || result.Status == StatusFeasible {
		return DecisionSuccess
	}
	if result.SuccessRate >= successThreshold {
		return DecisionSuccess
	}
	if remainingExtensions > 0 {
		return DecisionRetry
	}
	return DecisionGiveUp
}
