package running

import (
	"fmt"

	"abfit/coach-api/internal/domain"
)

// ValidationError reports malformed or out-of-range feedback input.
// Nothing is mutated when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError means the entry id does not exist in the student's schedule.
type NotFoundError struct {
	EntryID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("running entry %q not found", e.EntryID)
}

// InvalidStateError is returned for feedback on an entry that is no longer
// PENDING, which also rejects retries of an already accepted submission.
type InvalidStateError struct {
	EntryID string
	Status  domain.EntryStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("running entry %q is %s, expected %s", e.EntryID, e.Status, domain.EntryStatusPending)
}
