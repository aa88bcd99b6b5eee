package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fpms/core"
	"github.com/trezcool/fpms/core/evaluation"
)

func newSubmission(id, facultyID, year string) evaluation.Submission {
	return evaluation.Submission{
		ID:           id,
		FacultyID:    facultyID,
		Department:   "CSE",
		AcademicYear: year,
		Status:       evaluation.StatusDraft,
		Modules: []evaluation.Module{
			{ID: evaluation.ModuleTeaching, MaxPoints: 70, Entries: []evaluation.ModuleEntry{{ID: "e1", ClaimedPoints: 5}}},
		},
		History:   []evaluation.StatusChange{},
		CreatedAt: time.Now().UTC(),
	}
}

func TestSubmissionRepository_uniqueness(t *testing.T) {
	repo := NewSubmissionRepository(Open())
	ctx := context.Background()

	created, err := repo.CreateSubmission(ctx, newSubmission("s1", "f1", "2024-25"))
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	_, err = repo.CreateSubmission(ctx, newSubmission("s2", "f1", "2024-25"))
	assert.Equal(t, evaluation.ErrSubmissionExists, err)

	_, err = repo.CreateSubmission(ctx, newSubmission("s3", "f1", "2025-26"))
	assert.NoError(t, err)

	got, err := repo.GetSubmission(ctx, "f1", "2024-25")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	_, err = repo.GetSubmission(ctx, "f2", "2024-25")
	assert.Equal(t, evaluation.ErrNotFound, err)
}

func TestSubmissionRepository_isolation(t *testing.T) {
	repo := NewSubmissionRepository(Open())
	ctx := context.Background()

	sub := newSubmission("s1", "f1", "2024-25")
	_, err := repo.CreateSubmission(ctx, sub)
	require.NoError(t, err)

	// mutating the caller's copies must not reach the store
	sub.Modules[0].Entries[0].ClaimedPoints = 99
	got, _ := repo.GetSubmissionByID(ctx, "s1")
	got.Modules[0].Entries[0].ClaimedPoints = 42

	again, _ := repo.GetSubmissionByID(ctx, "s1")
	assert.Equal(t, 5, again.Modules[0].Entries[0].ClaimedPoints)
}

func TestSubmissionRepository_SaveSubmission(t *testing.T) {
	repo := NewSubmissionRepository(Open())
	ctx := context.Background()

	sub, err := repo.CreateSubmission(ctx, newSubmission("s1", "f1", "2024-25"))
	require.NoError(t, err)

	sub.Status = evaluation.StatusSubmitted
	sub.FacultyID = "hijacked"
	saved, err := repo.SaveSubmission(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)
	assert.Equal(t, "f1", saved.FacultyID)

	// stale write
	_, err = repo.SaveSubmission(ctx, sub)
	assert.Equal(t, evaluation.ErrConflict, err)

	_, err = repo.SaveSubmission(ctx, newSubmission("missing", "f1", "2024-25"))
	assert.Equal(t, evaluation.ErrNotFound, err)
}

func TestSubmissionRepository_QuerySubmissions(t *testing.T) {
	repo := NewSubmissionRepository(Open())
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id, fac, dept string, score int, status evaluation.Status, offset time.Duration) {
		sub := newSubmission(id, fac, "2024-25")
		sub.Department = dept
		sub.TotalScore = score
		sub.Status = status
		sub.CreatedAt = base.Add(offset)
		_, err := repo.CreateSubmission(ctx, sub)
		require.NoError(t, err)
	}
	mk("a", "f1", "CSE", 10, evaluation.StatusDraft, 0)
	mk("b", "f2", "ECE", 30, evaluation.StatusSubmitted, time.Hour)
	mk("c", "f3", "cse", 20, evaluation.StatusSubmitted, 2*time.Hour)

	ids := func(subs []evaluation.Submission, err error) []string {
		require.NoError(t, err)
		out := make([]string, 0, len(subs))
		for _, s := range subs {
			out = append(out, s.ID)
		}
		return out
	}

	assert.Equal(t, []string{"c", "b", "a"}, ids(repo.ListAllSubmissions(ctx)))
	assert.Equal(t, []string{"c", "a"}, ids(repo.ListSubmissionsByDepartment(ctx, "CSE")))
	assert.Equal(t, []string{"b", "c"}, ids(repo.QuerySubmissions(ctx,
		&evaluation.QueryFilter{Statuses: []evaluation.Status{evaluation.StatusSubmitted}},
		core.DBOrdering{Field: evaluation.OrderTotalScore},
	)))
	assert.Equal(t, []string{"a", "c", "b"}, ids(repo.QuerySubmissions(ctx, nil,
		core.DBOrdering{Field: evaluation.OrderTotalScore, Ascending: true},
	)))
}
