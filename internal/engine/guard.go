package engine

import "ritech/internal/domain"

// TransitionError is a status-change rejection with a user-facing reason.
// The job is left untouched.
type TransitionError struct {
	Reason string
}

func (e TransitionError) Error() string {
	return e.Reason
}

// CanSetStatus validates a status change before it reaches the store. There
// is no linear workflow among the open states and closed states may be
// reopened freely; the single enforced rule is that completion needs an end
// date on record.
func CanSetStatus(j domain.Job, newStatus string) error {
	if newStatus == domain.StatusDone && j.EndDate == "" {
		return TransitionError{Reason: "completion requires an end date"}
	}
	return nil
}
