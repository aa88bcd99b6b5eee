package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/fpms/core"
	"github.com/trezcool/fpms/core/evaluation"
)

const submissionColumns = `id, faculty_id, department, academic_year, status, modules, total_score, submitted_at,
	reviewed_by, reviewed_at, remarks, hod_remarks, committee_remarks, history, version, created_at, updated_at`

type (
	submissionRepository struct {
		exec sqlx.ExtContext
	}

	// modules and history are stored as JSONB documents; the aggregate is always written whole.
	submissionRow struct {
		ID               string         `db:"id"`
		FacultyID        string         `db:"faculty_id"`
		Department       string         `db:"department"`
		AcademicYear     string         `db:"academic_year"`
		Status           string         `db:"status"`
		Modules          types.JSONText `db:"modules"`
		TotalScore       int            `db:"total_score"`
		SubmittedAt      null.Time      `db:"submitted_at"`
		ReviewedBy       null.String    `db:"reviewed_by"`
		ReviewedAt       null.Time      `db:"reviewed_at"`
		Remarks          null.String    `db:"remarks"`
		HODRemarks       null.String    `db:"hod_remarks"`
		CommitteeRemarks null.String    `db:"committee_remarks"`
		History          types.JSONText `db:"history"`
		Version          int            `db:"version"`
		CreatedAt        time.Time      `db:"created_at"`
		UpdatedAt        time.Time      `db:"updated_at"`
	}
)

var _ evaluation.Repository = (*submissionRepository)(nil) // interface compliance check

// NewSubmissionRepository works on a *sqlx.DB or a *sqlx.Tx.
func NewSubmissionRepository(exec sqlx.ExtContext) *submissionRepository {
	return &submissionRepository{exec: exec}
}

func toSubmissionRow(sub evaluation.Submission) (submissionRow, error) {
	modules, err := json.Marshal(sub.Modules)
	if err != nil {
		return submissionRow{}, errors.Wrap(err, "encoding modules")
	}
	history := sub.History
	if history == nil {
		history = []evaluation.StatusChange{}
	}
	hist, err := json.Marshal(history)
	if err != nil {
		return submissionRow{}, errors.Wrap(err, "encoding history")
	}
	return submissionRow{
		ID:               sub.ID,
		FacultyID:        sub.FacultyID,
		Department:       sub.Department,
		AcademicYear:     sub.AcademicYear,
		Status:           string(sub.Status),
		Modules:          modules,
		TotalScore:       sub.TotalScore,
		SubmittedAt:      null.TimeFromPtr(sub.SubmittedAt),
		ReviewedBy:       null.NewString(sub.ReviewedBy, sub.ReviewedBy != ""),
		ReviewedAt:       null.TimeFromPtr(sub.ReviewedAt),
		Remarks:          null.NewString(sub.Remarks, sub.Remarks != ""),
		HODRemarks:       null.NewString(sub.HODRemarks, sub.HODRemarks != ""),
		CommitteeRemarks: null.NewString(sub.CommitteeRemarks, sub.CommitteeRemarks != ""),
		History:          hist,
		Version:          sub.Version,
		CreatedAt:        sub.CreatedAt.UTC(),
		UpdatedAt:        sub.UpdatedAt.UTC(),
	}, nil
}

func (row submissionRow) toSubmission() (evaluation.Submission, error) {
	sub := evaluation.Submission{
		ID:               row.ID,
		FacultyID:        row.FacultyID,
		Department:       row.Department,
		AcademicYear:     row.AcademicYear,
		Status:           evaluation.Status(row.Status),
		TotalScore:       row.TotalScore,
		SubmittedAt:      utcPtr(row.SubmittedAt),
		ReviewedBy:       row.ReviewedBy.String,
		ReviewedAt:       utcPtr(row.ReviewedAt),
		Remarks:          row.Remarks.String,
		HODRemarks:       row.HODRemarks.String,
		CommitteeRemarks: row.CommitteeRemarks.String,
		Version:          row.Version,
		CreatedAt:        row.CreatedAt.UTC(),
		UpdatedAt:        row.UpdatedAt.UTC(),
	}
	if err := row.Modules.Unmarshal(&sub.Modules); err != nil {
		return evaluation.Submission{}, errors.Wrap(err, "decoding modules")
	}
	if err := row.History.Unmarshal(&sub.History); err != nil {
		return evaluation.Submission{}, errors.Wrap(err, "decoding history")
	}
	return sub, nil
}

func utcPtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

func (repo *submissionRepository) get(ctx context.Context, where string, args ...interface{}) (evaluation.Submission, error) {
	var row submissionRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, `SELECT `+submissionColumns+` FROM submission WHERE `+where, args...); err != nil {
		if err == sql.ErrNoRows {
			return evaluation.Submission{}, evaluation.ErrNotFound
		}
		return evaluation.Submission{}, errors.Wrap(err, "getting submission")
	}
	return row.toSubmission()
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, facultyID, academicYear string) (evaluation.Submission, error) {
	if _, err := uuid.Parse(facultyID); err != nil {
		return evaluation.Submission{}, evaluation.ErrNotFound
	}
	return repo.get(ctx, "faculty_id = $1 AND academic_year = $2", facultyID, academicYear)
}

func (repo *submissionRepository) GetSubmissionByID(ctx context.Context, id string) (evaluation.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return evaluation.Submission{}, evaluation.ErrNotFound
	}
	return repo.get(ctx, "id = $1", id)
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, sub evaluation.Submission) (evaluation.Submission, error) {
	if sub.Version == 0 {
		sub.Version = 1
	}
	row, err := toSubmissionRow(sub)
	if err != nil {
		return evaluation.Submission{}, err
	}
	q := `INSERT INTO submission (` + submissionColumns + `) VALUES (
		:id, :faculty_id, :department, :academic_year, :status, :modules, :total_score, :submitted_at,
		:reviewed_by, :reviewed_at, :remarks, :hod_remarks, :committee_remarks, :history, :version, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		if isUniqueViolation(err) {
			return evaluation.Submission{}, evaluation.ErrSubmissionExists
		}
		return evaluation.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

// SaveSubmission is a compare-and-swap on the version column.
func (repo *submissionRepository) SaveSubmission(ctx context.Context, sub evaluation.Submission) (evaluation.Submission, error) {
	row, err := toSubmissionRow(sub)
	if err != nil {
		return evaluation.Submission{}, err
	}
	q := `UPDATE submission SET
		department = :department, status = :status, modules = :modules, total_score = :total_score,
		submitted_at = :submitted_at, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at, remarks = :remarks,
		hod_remarks = :hod_remarks, committee_remarks = :committee_remarks, history = :history,
		version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :version`
	res, err := sqlx.NamedExecContext(ctx, repo.exec, q, row)
	if err != nil {
		return evaluation.Submission{}, errors.Wrap(err, "saving submission")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return evaluation.Submission{}, errors.Wrap(err, "saving submission")
	}
	if n == 0 {
		if _, err = repo.GetSubmissionByID(ctx, sub.ID); err != nil {
			return evaluation.Submission{}, err
		}
		return evaluation.Submission{}, evaluation.ErrConflict
	}
	return repo.GetSubmissionByID(ctx, sub.ID)
}

func (repo *submissionRepository) ListAllSubmissions(ctx context.Context) ([]evaluation.Submission, error) {
	return repo.QuerySubmissions(ctx, nil)
}

func (repo *submissionRepository) ListSubmissionsByDepartment(ctx context.Context, department string) ([]evaluation.Submission, error) {
	return repo.QuerySubmissions(ctx, &evaluation.QueryFilter{Department: department})
}

func (repo *submissionRepository) QuerySubmissions(ctx context.Context, filter *evaluation.QueryFilter, ordering ...core.DBOrdering) ([]evaluation.Submission, error) {
	q, args := buildSubmissionQuery(filter, ordering)
	var rows []submissionRow
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]evaluation.Submission, 0, len(rows))
	for _, row := range rows {
		sub, err := row.toSubmission()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// buildSubmissionQuery only lets whitelisted ordering fields into the ORDER BY clause.
func buildSubmissionQuery(filter *evaluation.QueryFilter, ordering []core.DBOrdering) (string, []interface{}) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter != nil {
		if filter.FacultyID != "" {
			conds = append(conds, "faculty_id::text = "+arg(filter.FacultyID))
		}
		if filter.Department != "" {
			conds = append(conds, "lower(department) = lower("+arg(filter.Department)+")")
		}
		if filter.AcademicYear != "" {
			conds = append(conds, "academic_year = "+arg(filter.AcademicYear))
		}
		if len(filter.Statuses) > 0 {
			statuses := make([]string, 0, len(filter.Statuses))
			for _, st := range filter.Statuses {
				statuses = append(statuses, string(st))
			}
			conds = append(conds, "status = ANY("+arg(pq.Array(statuses))+")")
		}
	}

	q := `SELECT ` + submissionColumns + ` FROM submission`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		for _, allowed := range evaluation.OrderingFields {
			if ord.Field == allowed {
				orderList = append(orderList, ord.String())
				break
			}
		}
	}
	if len(orderList) == 0 {
		orderList = append(orderList, core.DBOrdering{Field: evaluation.OrderCreatedAt}.String())
	}
	orderList = append(orderList, "id ASC")
	q += " ORDER BY " + strings.Join(orderList, ", ")
	return q, args
}
