package evaluation

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/fpms/core"
)

var (
	NowFunc = time.Now // mockable

	academicYearRegex = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
)

type (
	// Repository is the submission store.
	// Implementations enforce at most one submission per (faculty, academic year)
	// and check-and-increment Version on every save.
	Repository interface {
		// GetSubmission returns ErrNotFound if the faculty has no submission for the year.
		GetSubmission(ctx context.Context, facultyID, academicYear string) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		// CreateSubmission returns ErrSubmissionExists when the (faculty, year) pair is taken.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		// SaveSubmission overwrites the submission by ID and returns it with its new Version.
		// It returns ErrConflict if the stored Version differs from sub.Version.
		SaveSubmission(ctx context.Context, sub Submission) (Submission, error)
		ListAllSubmissions(ctx context.Context) ([]Submission, error)
		ListSubmissionsByDepartment(ctx context.Context, department string) ([]Submission, error)
		QuerySubmissions(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Submission, error)
	}

	Options struct {
		AcademicYear            string
		DepartmentScopedListing bool
	}

	Service struct {
		repo Repository
		opts Options
	}
)

func NewService(repo Repository, opts Options) *Service {
	return &Service{repo: repo, opts: opts}
}

func (svc *Service) CurrentAcademicYear() string {
	return svc.opts.AcademicYear
}

func (svc *Service) DepartmentScopedListing() bool {
	return svc.opts.DepartmentScopedListing
}

// ValidateAcademicYear checks the "YYYY-YY" format with consecutive years.
func ValidateAcademicYear(year string) error {
	m := academicYearRegex.FindStringSubmatch(year)
	if m == nil {
		return core.NewFieldValidationError("academic_year", "must look like 2024-25")
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if (start+1)%100 != end {
		return core.NewFieldValidationError("academic_year", "years must be consecutive")
	}
	return nil
}

// CreateSubmission opens a draft submission for the faculty member and the given year.
func (svc *Service) CreateSubmission(ctx context.Context, owner Actor, year string) (Submission, error) {
	if owner.Role != RoleFaculty {
		return Submission{}, &InvalidTransitionError{Role: owner.Role, Action: ActionCreate}
	}
	year = strings.TrimSpace(year)
	if err := ValidateAcademicYear(year); err != nil {
		return Submission{}, err
	}

	now := NowFunc().UTC()
	sub := Submission{
		ID:           uuid.New().String(),
		FacultyID:    owner.ID,
		Department:   owner.Department,
		AcademicYear: year,
		Status:       StatusDraft,
		Modules:      newModules(),
		History:      []StatusChange{},
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sub.Recalculate()
	return svc.repo.CreateSubmission(ctx, sub)
}

// GetOrCreateCurrent returns the owner's submission for the current academic year, creating it if needed.
func (svc *Service) GetOrCreateCurrent(ctx context.Context, owner Actor) (Submission, error) {
	sub, err := svc.repo.GetSubmission(ctx, owner.ID, svc.opts.AcademicYear)
	if err == nil {
		return loaded(sub), nil
	}
	if !IsNotFound(err) {
		return Submission{}, err
	}

	sub, err = svc.CreateSubmission(ctx, owner, svc.opts.AcademicYear)
	if errors.Cause(err) == ErrSubmissionExists {
		// created concurrently
		sub, err = svc.repo.GetSubmission(ctx, owner.ID, svc.opts.AcademicYear)
		return loaded(sub), err
	}
	return sub, err
}

// Get returns the submission if actor may see it, ErrNotFound otherwise.
func (svc *Service) Get(ctx context.Context, actor Actor, id string) (Submission, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if !svc.canView(actor, sub) {
		return Submission{}, notFound("submission", id)
	}
	return loaded(sub), nil
}

// GetForYear looks a submission up by its (faculty, academic year) key.
func (svc *Service) GetForYear(ctx context.Context, actor Actor, facultyID, year string) (Submission, error) {
	sub, err := svc.repo.GetSubmission(ctx, facultyID, year)
	if err != nil {
		return Submission{}, err
	}
	if !svc.canView(actor, sub) {
		return Submission{}, notFound("submission", facultyID+"/"+year)
	}
	return loaded(sub), nil
}

// UpdateModuleEntries replaces the entries of one module of a draft submission.
func (svc *Service) UpdateModuleEntries(ctx context.Context, actor Actor, id, moduleID string, entries []EntryInput) (Submission, error) {
	return svc.edit(ctx, actor, id, func(sub *Submission) error {
		return sub.ReplaceEntries(moduleID, entries)
	})
}

// AddEntry appends an empty entry to a module and returns the updated submission with the new entry ID.
func (svc *Service) AddEntry(ctx context.Context, actor Actor, id, moduleID string) (Submission, string, error) {
	var entryID string
	sub, err := svc.edit(ctx, actor, id, func(sub *Submission) (err error) {
		entryID, err = sub.AddEntry(moduleID)
		return err
	})
	if err != nil {
		return Submission{}, "", err
	}
	return sub, entryID, nil
}

func (svc *Service) UpdateEntry(ctx context.Context, actor Actor, id, moduleID, entryID string, upd EntryUpdate) (Submission, error) {
	return svc.edit(ctx, actor, id, func(sub *Submission) error {
		return sub.UpdateEntry(moduleID, entryID, upd)
	})
}

func (svc *Service) RemoveEntry(ctx context.Context, actor Actor, id, moduleID, entryID string) (Submission, error) {
	return svc.edit(ctx, actor, id, func(sub *Submission) error {
		return sub.RemoveEntry(moduleID, entryID)
	})
}

func (svc *Service) SubmitForReview(ctx context.Context, actor Actor, id string) (Submission, error) {
	return svc.transition(ctx, actor, id, ActionSubmit, "")
}

func (svc *Service) Approve(ctx context.Context, actor Actor, id, remarks string) (Submission, error) {
	return svc.transition(ctx, actor, id, ActionApprove, remarks)
}

func (svc *Service) Reject(ctx context.Context, actor Actor, id, remarks string) (Submission, error) {
	return svc.transition(ctx, actor, id, ActionReject, remarks)
}

func (svc *Service) Lock(ctx context.Context, actor Actor, id string) (Submission, error) {
	return svc.transition(ctx, actor, id, ActionLock, "")
}

// List returns the submissions visible to actor that match filter.
// Faculty members only ever see their own submissions.
func (svc *Service) List(ctx context.Context, actor Actor, filter *QueryFilter, ordering ...core.DBOrdering) ([]Submission, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()
	switch actor.Role {
	case RoleFaculty:
		filter.FacultyID = actor.ID
	case RoleHOD:
		if svc.opts.DepartmentScopedListing {
			filter.Department = actor.Department
		}
	case RoleCommittee, RoleAdmin, RoleSystem:
	default:
		return []Submission{}, nil
	}
	subs, err := svc.repo.QuerySubmissions(ctx, filter, ordering...)
	if err != nil {
		return nil, err
	}
	return loadedAll(subs), nil
}

func (svc *Service) ListAll(ctx context.Context) ([]Submission, error) {
	subs, err := svc.repo.ListAllSubmissions(ctx)
	if err != nil {
		return nil, err
	}
	return loadedAll(subs), nil
}

// ListByDepartment filters by department only when department scoped listing is enabled;
// otherwise every submission is returned.
func (svc *Service) ListByDepartment(ctx context.Context, department string) ([]Submission, error) {
	department = strings.TrimSpace(department)
	if !svc.opts.DepartmentScopedListing || department == "" {
		return svc.ListAll(ctx)
	}
	subs, err := svc.repo.ListSubmissionsByDepartment(ctx, department)
	if err != nil {
		return nil, err
	}
	return loadedAll(subs), nil
}

// ReviewQueue lists the submissions waiting for actor's decision, oldest submission first.
func (svc *Service) ReviewQueue(ctx context.Context, actor Actor) ([]Submission, error) {
	filter := new(QueryFilter)
	switch actor.Role {
	case RoleHOD:
		filter.Statuses = []Status{StatusSubmitted}
		if svc.opts.DepartmentScopedListing {
			filter.Department = actor.Department
		}
	case RoleCommittee:
		filter.Statuses = []Status{StatusUnderReview}
	case RoleAdmin:
		filter.Statuses = []Status{StatusApproved}
	default:
		return []Submission{}, nil
	}
	subs, err := svc.repo.QuerySubmissions(ctx, filter, core.DBOrdering{Field: OrderSubmittedAt, Ascending: true})
	if err != nil {
		return nil, err
	}
	return loadedAll(subs), nil
}

func (svc *Service) canView(actor Actor, sub Submission) bool {
	switch actor.Role {
	case RoleFaculty:
		return sub.FacultyID == actor.ID
	case RoleHOD:
		return !svc.opts.DepartmentScopedListing || strings.EqualFold(sub.Department, actor.Department)
	case RoleCommittee, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// edit runs a ledger operation on a copy of the owner's submission and persists it on success.
func (svc *Service) edit(ctx context.Context, actor Actor, id string, fn func(sub *Submission) error) (Submission, error) {
	return svc.mutate(ctx, actor, id, func(sub *Submission, _ time.Time) error {
		if actor.Role != RoleFaculty || actor.ID != sub.FacultyID {
			return &InvalidTransitionError{Status: sub.Status, Role: actor.Role, Action: ActionEdit}
		}
		return fn(sub)
	})
}

func (svc *Service) transition(ctx context.Context, actor Actor, id string, action Action, remarks string) (Submission, error) {
	return svc.mutate(ctx, actor, id, func(sub *Submission, now time.Time) error {
		return sub.Transition(actor, action, remarks, now)
	})
}

// mutate never touches the loaded submission: fn works on a clone, which is saved only if fn succeeds.
func (svc *Service) mutate(ctx context.Context, actor Actor, id string, fn func(sub *Submission, now time.Time) error) (Submission, error) {
	sub, err := svc.Get(ctx, actor, id)
	if err != nil {
		return Submission{}, err
	}
	now := NowFunc().UTC()
	work := sub.Clone()
	if err := fn(&work, now); err != nil {
		return Submission{}, err
	}
	work.UpdatedAt = now
	saved, err := svc.repo.SaveSubmission(ctx, work)
	if err != nil {
		return Submission{}, err
	}
	return loaded(saved), nil
}

func loaded(sub Submission) Submission {
	sub.Recalculate()
	return sub
}

func loadedAll(subs []Submission) []Submission {
	for i := range subs {
		subs[i].Recalculate()
	}
	return subs
}
