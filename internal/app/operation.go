package app

import "time"

// Operation statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Operation tracks one CLI command from start to Close. Its ID tags every log
// line the command writes.
type Operation struct {
	ID      string
	Name    string
	Started time.Time
	Status  string
}

// NewOperation creates an operation named after the CLI command being run.
// The ID combines the start time with the first eight characters of uid.
func NewOperation(name string, started time.Time, uid string) *Operation {
	if len(uid) > 8 {
		uid = uid[:8]
	}
	return &Operation{
		ID:      started.UTC().Format("20060102T150405Z") + "-" + uid,
		Name:    name,
		Started: started,
		Status:  StatusSuccess,
	}
}

// Record marks the operation failed when err is non-nil and returns err.
func (op *Operation) Record(err error) error {
	if err != nil {
		op.Status = StatusError
	}
	return err
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(now time.Time) time.Duration {
	return now.Sub(op.Started)
}
