package evaluation

import (
	"strings"
	"time"

	"github.com/trezcool/fpms/core"
)

type Action string

const (
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionLock    Action = "lock"
)

type (
	transitionKey struct {
		from   Status
		role   string
		action Action
	}

	transition struct {
		to Status
		// guard runs before any mutation; a non-nil error aborts the transition.
		guard func(s *Submission, actor Actor, remarks string) error
		apply func(s *Submission, actor Actor, remarks string, now time.Time)
	}
)

// transitions is exhaustive: any (status, role, action) not listed is refused.
// HOD acts on submitted submissions only, the committee on under_review ones only.
var transitions = map[transitionKey]transition{
	{StatusDraft, RoleFaculty, ActionSubmit}: {
		to:    StatusSubmitted,
		guard: guardSubmit,
		apply: func(s *Submission, _ Actor, _ string, now time.Time) {
			s.SubmittedAt = &now
		},
	},
	{StatusSubmitted, RoleHOD, ActionApprove}: {
		to: StatusUnderReview,
		apply: func(s *Submission, actor Actor, remarks string, now time.Time) {
			setReviewed(s, actor, now)
			s.HODRemarks = remarks
		},
	},
	{StatusSubmitted, RoleHOD, ActionReject}: {
		to:    StatusRejected,
		guard: guardRemarks,
		apply: applyReject,
	},
	{StatusUnderReview, RoleCommittee, ActionReject}: {
		to:    StatusRejected,
		guard: guardRemarks,
		apply: applyReject,
	},
	{StatusUnderReview, RoleCommittee, ActionApprove}: {
		to: StatusApproved,
		apply: func(s *Submission, actor Actor, remarks string, now time.Time) {
			setReviewed(s, actor, now)
			s.Remarks = remarks
			s.CommitteeRemarks = remarks
		},
	},
	{StatusApproved, RoleAdmin, ActionLock}:  {to: StatusLocked},
	{StatusApproved, RoleSystem, ActionLock}: {to: StatusLocked},
}

// CanPerform reports whether actor may attempt action on a submission in status.
// Guards are not evaluated.
func CanPerform(status Status, role string, action Action) bool {
	_, ok := transitions[transitionKey{status, role, action}]
	return ok
}

// AllowedActions lists the actions available to role on a submission in status.
func AllowedActions(status Status, role string) []Action {
	var actions []Action
	for _, act := range []Action{ActionSubmit, ActionApprove, ActionReject, ActionLock} {
		if CanPerform(status, role, act) {
			actions = append(actions, act)
		}
	}
	return actions
}

// Transition applies action to the submission on behalf of actor.
// Either every effect is applied (status, fields and history entry) or none is.
func (s *Submission) Transition(actor Actor, action Action, remarks string, now time.Time) error {
	tr, ok := transitions[transitionKey{s.Status, actor.Role, action}]
	if !ok {
		return &InvalidTransitionError{Status: s.Status, Role: actor.Role, Action: action}
	}
	remarks = strings.TrimSpace(remarks)
	if tr.guard != nil {
		if err := tr.guard(s, actor, remarks); err != nil {
			return err
		}
	}

	from := s.Status
	if tr.apply != nil {
		tr.apply(s, actor, remarks, now)
	}
	s.Status = tr.to
	s.History = append(s.History, StatusChange{
		From:      from,
		To:        tr.to,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Remarks:   remarks,
		At:        now,
	})
	return nil
}

func guardSubmit(s *Submission, actor Actor, _ string) error {
	if actor.ID != s.FacultyID {
		return &InvalidTransitionError{Status: s.Status, Role: actor.Role, Action: ActionSubmit}
	}
	for _, def := range catalog {
		if s.Module(def.ID) == nil {
			return core.NewFieldValidationError("modules", "module "+def.ID+" is missing")
		}
	}
	return nil
}

func guardRemarks(_ *Submission, _ Actor, remarks string) error {
	if remarks == "" {
		return core.NewFieldValidationError("remarks", "remarks are required to reject a submission")
	}
	return nil
}

func applyReject(s *Submission, actor Actor, remarks string, now time.Time) {
	setReviewed(s, actor, now)
	s.Remarks = remarks
}

func setReviewed(s *Submission, actor Actor, now time.Time) {
	s.ReviewedBy = actor.ID
	s.ReviewedAt = &now
}
