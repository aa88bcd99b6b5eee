package evaluation

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrSubmissionLocked = errors.New("submission is not editable in its current status")
	ErrSubmissionExists = errors.New("a submission already exists for this academic year")
	ErrConflict         = errors.New("submission was modified by another request")
)

// InvalidTransitionError is returned when the (status, role, action) triple is not allowed.
type InvalidTransitionError struct {
	Status Status
	Role   string
	Action Action
}

func (e *InvalidTransitionError) Error() string {
	role := e.Role
	if role == "" {
		role = "anonymous"
	}
	if e.Status == "" {
		return fmt.Sprintf("%s may not %s a submission", role, e.Action)
	}
	return fmt.Sprintf("%s may not %s a submission in %s status", role, e.Action, e.Status)
}

func IsInvalidTransition(err error) bool {
	_, ok := errors.Cause(err).(*InvalidTransitionError)
	return ok
}

// IsNotFound reports whether err was caused by a missing submission, module or entry.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

func notFound(kind, id string) error {
	return errors.Wrapf(ErrNotFound, "%s %q", kind, id)
}
