package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/fpms/core/evaluation"
	"github.com/trezcool/fpms/core/user"
)

const Year = "2024-25"

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role, department string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:       name,
		Email:      email,
		Role:       role,
		Department: department,
		IsActive:   isActive,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func Actor(usr user.User) evaluation.Actor {
	return evaluation.Actor{ID: usr.ID, Role: usr.Role, Department: usr.Department}
}

// CreateSubmission opens a draft for owner and fills the given modules.
func CreateSubmission(
	t *testing.T,
	svc *evaluation.Service,
	owner evaluation.Actor,
	year string,
	entries map[string][]evaluation.EntryInput,
) evaluation.Submission {
	ctx := context.Background()
	sub, err := svc.CreateSubmission(ctx, owner, year)
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	for moduleID, ents := range entries {
		if sub, err = svc.UpdateModuleEntries(ctx, owner, sub.ID, moduleID, ents); err != nil {
			t.Fatalf("CreateSubmission() failed: %v", err)
		}
	}
	return sub
}

// Advance drives a submission through the review workflow up to the wanted status.
// Reviewers are only needed for the steps actually taken.
func Advance(
	t *testing.T,
	svc *evaluation.Service,
	sub evaluation.Submission,
	to evaluation.Status,
	owner, hod, committee evaluation.Actor,
) evaluation.Submission {
	ctx := context.Background()
	var err error

	steps := map[evaluation.Status]func() (evaluation.Submission, error){
		evaluation.StatusSubmitted: func() (evaluation.Submission, error) {
			return svc.SubmitForReview(ctx, owner, sub.ID)
		},
		evaluation.StatusUnderReview: func() (evaluation.Submission, error) {
			return svc.Approve(ctx, hod, sub.ID, "forwarded")
		},
		evaluation.StatusApproved: func() (evaluation.Submission, error) {
			return svc.Approve(ctx, committee, sub.ID, "approved")
		},
	}
	for _, st := range []evaluation.Status{evaluation.StatusSubmitted, evaluation.StatusUnderReview, evaluation.StatusApproved} {
		if sub.Status == to {
			break
		}
		if sub, err = steps[st](); err != nil {
			t.Fatalf("Advance(%s) failed: %v", st, err)
		}
	}
	if sub.Status != to {
		t.Fatalf("Advance() stopped at %s; want %s", sub.Status, to)
	}
	return sub
}
