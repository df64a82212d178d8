package dedup

import "fmt"

// PreconditionError signals that a pivot is missing required input (its
// embedding). The pivot is skipped and picked up again on a later sweep,
// once the embedding stage has caught up.
type PreconditionError struct {
	ID     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed for article %s: %s", e.ID, e.Reason)
}

// ConflictError signals that a merge plan failed its sanity check. It is
// fatal for the affected pivot only.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("merge conflict: %s", e.Reason)
}

// StaleReferenceError signals that a pivot id refers to a record deleted
// earlier, either by a previous merge in the same run or by an overlapping
// sweep. Non-fatal; not retried within the run.
type StaleReferenceError struct {
	ID string
}

func (e *StaleReferenceError) Error() string {
	return fmt.Sprintf("article %s no longer exists", e.ID)
}
