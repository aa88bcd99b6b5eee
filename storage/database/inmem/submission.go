package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/fpms/core"
	"github.com/trezcool/fpms/core/evaluation"
)

type submissionRepository struct {
	db *submissionTable
}

var _ evaluation.Repository = (*submissionRepository)(nil) // interface compliance check

// NewSubmissionRepository stores deep copies, so callers never share state with the table.
func NewSubmissionRepository(db *DB) evaluation.Repository {
	return &submissionRepository{db: db.submission}
}

func (repo *submissionRepository) query(filter *evaluation.QueryFilter) []evaluation.Submission {
	subs := make([]evaluation.Submission, 0, len(repo.db.table))
	for _, sub := range repo.db.table {
		if filter.Match(*sub) {
			subs = append(subs, sub.Clone())
		}
	}
	return subs
}

func (repo *submissionRepository) GetSubmission(_ context.Context, facultyID, academicYear string) (evaluation.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	id, ok := repo.db.byFacultyYear[facultyYearKey{facultyID, academicYear}]
	if !ok {
		return evaluation.Submission{}, evaluation.ErrNotFound
	}
	return repo.db.table[id].Clone(), nil
}

func (repo *submissionRepository) GetSubmissionByID(_ context.Context, id string) (evaluation.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sub, ok := repo.db.table[id]
	if !ok {
		return evaluation.Submission{}, evaluation.ErrNotFound
	}
	return sub.Clone(), nil
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, sub evaluation.Submission) (evaluation.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := facultyYearKey{sub.FacultyID, sub.AcademicYear}
	if _, ok := repo.db.byFacultyYear[key]; ok {
		return evaluation.Submission{}, evaluation.ErrSubmissionExists
	}
	if sub.Version == 0 {
		sub.Version = 1
	}
	stored := sub.Clone()
	repo.db.table[sub.ID] = &stored
	repo.db.byFacultyYear[key] = sub.ID
	return sub.Clone(), nil
}

func (repo *submissionRepository) SaveSubmission(_ context.Context, sub evaluation.Submission) (evaluation.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[sub.ID]
	if !ok {
		return evaluation.Submission{}, evaluation.ErrNotFound
	}
	if orig.Version != sub.Version {
		return evaluation.Submission{}, evaluation.ErrConflict
	}
	// owner and year are immutable: they back the uniqueness index
	sub.FacultyID = orig.FacultyID
	sub.AcademicYear = orig.AcademicYear
	sub.Version++

	stored := sub.Clone()
	repo.db.table[sub.ID] = &stored
	return sub.Clone(), nil
}

func (repo *submissionRepository) ListAllSubmissions(ctx context.Context) ([]evaluation.Submission, error) {
	return repo.QuerySubmissions(ctx, nil)
}

func (repo *submissionRepository) ListSubmissionsByDepartment(ctx context.Context, department string) ([]evaluation.Submission, error) {
	return repo.QuerySubmissions(ctx, &evaluation.QueryFilter{Department: department})
}

func (repo *submissionRepository) QuerySubmissions(_ context.Context, filter *evaluation.QueryFilter, ordering ...core.DBOrdering) ([]evaluation.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := repo.query(filter)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: evaluation.OrderCreatedAt}}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareSubmissions(subs[i], subs[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return subs[i].ID < subs[j].ID
	})
	return subs, nil
}

// compareSubmissions returns -1, 0 or 1. Unset submission dates sort last when ascending.
func compareSubmissions(a, b evaluation.Submission, field string) int {
	switch field {
	case evaluation.OrderTotalScore:
		return compareInts(a.TotalScore, b.TotalScore)
	case evaluation.OrderAcademicYear:
		return strings.Compare(a.AcademicYear, b.AcademicYear)
	case evaluation.OrderSubmittedAt:
		switch {
		case a.SubmittedAt == nil && b.SubmittedAt == nil:
			return 0
		case a.SubmittedAt == nil:
			return 1
		case b.SubmittedAt == nil:
			return -1
		}
		return compareTimes(*a.SubmittedAt, *b.SubmittedAt)
	case evaluation.OrderCreatedAt:
		return compareTimes(a.CreatedAt, b.CreatedAt)
	}
	return 0
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
