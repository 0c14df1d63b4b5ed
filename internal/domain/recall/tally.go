package recall

import "fmt"

// Failure is one record that could not be stored.
type Failure struct {
	RecallNumber string `json:"recall_number"`
	Reason       string `json:"reason"`
}

// Tally accumulates the outcome of one ingestion run.
// Inserted+Errors+Skipped always equals the number of records folded in.
type Tally struct {
	Total    int       `json:"total"`
	Inserted int       `json:"inserted"`
	Errors   int       `json:"errors"`
	Skipped  int       `json:"skipped"`
	Failures []Failure `json:"failures,omitempty"`
}

func (t *Tally) Insert() {
	t.Total++
	t.Inserted++
}

func (t *Tally) Skip() {
	t.Total++
	t.Skipped++
}

func (t *Tally) Fail(recallNumber string, err error) {
	t.Total++
	t.Errors++
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	t.Failures = append(t.Failures, Failure{RecallNumber: recallNumber, Reason: reason})
}

// Message is the human summary returned to HTTP callers.
func (t Tally) Message() string {
	return fmt.Sprintf("Processed %d recalls. Inserted: %d, Errors: %d, Skipped: %d", t.Total, t.Inserted, t.Errors, t.Skipped)
}
