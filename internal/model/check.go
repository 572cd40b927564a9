package model

// CheckStatus is the outcome of a doctor check.
type CheckStatus string

const (
	CheckStatusOK      CheckStatus = "ok"
	CheckStatusWarning CheckStatus = "warning"
	CheckStatusError   CheckStatus = "error"
)

// CheckResult is a single doctor check outcome, ID is stable (e.g "interpreter_available").
type CheckResult struct {
	ID      string
	Message string
	Status  CheckStatus
}

// CheckSummary aggregates a set of check results.
type CheckSummary struct {
	OK       int
	Warnings int
	Errors   int
}

// Healthy is false when any check errored, warnings don't make the host unusable.
func (c CheckSummary) Healthy() bool { return c.Errors == 0 }

// Summarize aggregates the check results. Unknown statuses are counted as errors.
func Summarize(results []CheckResult) CheckSummary {
	var s CheckSummary
	for _, r := range results {
		switch r.Status {
		case CheckStatusOK:
			s.OK++
		case CheckStatusWarning:
			s.Warnings++
		default:
			s.Errors++
		}
	}
	return s
}
