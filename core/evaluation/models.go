package evaluation

import (
	"strings"
	"time"
)

type Status string

// Submission statuses
const (
	StatusDraft       Status = "draft"
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusLocked      Status = "locked"
)

var AllStatuses = []Status{
	StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected, StatusLocked,
}

func IsValidStatus(s Status) bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type EvidenceKind string

const (
	EvidencePDF   EvidenceKind = "pdf"
	EvidenceImage EvidenceKind = "image"
	EvidenceLink  EvidenceKind = "link"
)

func IsValidEvidenceKind(k EvidenceKind) bool {
	return k == EvidencePDF || k == EvidenceImage || k == EvidenceLink
}

// Roles acting on submissions. They mirror user roles; RoleSystem is reserved for automated jobs.
const (
	RoleFaculty   = "faculty"
	RoleHOD       = "hod"
	RoleCommittee = "committee"
	RoleAdmin     = "admin"
	RoleSystem    = "system"
)

type (
	// Actor is whoever performs an operation on a submission.
	Actor struct {
		ID         string
		Role       string
		Department string
	}

	ModuleEntry struct {
		ID            string       `json:"id"`
		Criteria      string       `json:"criteria"`
		Description   string       `json:"description"`
		MaxPoints     int          `json:"max_points"`
		ClaimedPoints int          `json:"claimed_points"`
		Evidence      string       `json:"evidence,omitempty"`
		EvidenceKind  EvidenceKind `json:"evidence_kind,omitempty"`
	}

	Module struct {
		ID        string        `json:"id"`
		Name      string        `json:"name"`
		MaxPoints int           `json:"max_points"`
		Score     int           `json:"score"`
		Entries   []ModuleEntry `json:"entries"`
	}

	// StatusChange is one applied transition, kept for audit.
	StatusChange struct {
		From      Status    `json:"from"`
		To        Status    `json:"to"`
		ActorID   string    `json:"actor_id"`
		ActorRole string    `json:"actor_role"`
		Remarks   string    `json:"remarks,omitempty"`
		At        time.Time `json:"at"`
	}

	Submission struct {
		ID               string         `json:"id"`
		FacultyID        string         `json:"faculty_id"`
		Department       string         `json:"department"`
		AcademicYear     string         `json:"academic_year"`
		Status           Status         `json:"status"`
		Modules          []Module       `json:"modules"`
		TotalScore       int            `json:"total_score"`
		SubmittedAt      *time.Time     `json:"submitted_at"`
		ReviewedBy       string         `json:"reviewed_by,omitempty"`
		ReviewedAt       *time.Time     `json:"reviewed_at"`
		Remarks          string         `json:"remarks,omitempty"`
		HODRemarks       string         `json:"hod_remarks,omitempty"`
		CommitteeRemarks string         `json:"committee_remarks,omitempty"`
		History          []StatusChange `json:"history"`
		Version          int            `json:"version"`
		CreatedAt        time.Time      `json:"created_at"`
		UpdatedAt        time.Time      `json:"updated_at"`
	}

	// EntryInput is a full entry as sent by a faculty member.
	// An empty ID asks for a new one to be generated.
	EntryInput struct {
		ID            string `json:"id"`
		Criteria      string `json:"criteria"`
		Description   string `json:"description"`
		ClaimedPoints int    `json:"claimed_points" validate:"min=0"`
		Evidence      string `json:"evidence"`
		EvidenceKind  string `json:"evidence_kind" validate:"omitempty,evidence_kind"`
	}

	// EntryUpdate holds the fields to change on an existing entry; nil fields are left as is.
	EntryUpdate struct {
		Criteria      *string `json:"criteria"`
		Description   *string `json:"description"`
		ClaimedPoints *int    `json:"claimed_points" validate:"omitempty,min=0"`
		Evidence      *string `json:"evidence"`
		EvidenceKind  *string `json:"evidence_kind" validate:"omitempty,evidence_kind"`
	}

	// QueryFilter applies AND operation on its non-empty fields.
	QueryFilter struct {
		FacultyID    string
		Department   string
		AcademicYear string
		Statuses     []Status
	}
)

func (f *QueryFilter) Clean() {
	f.FacultyID = strings.TrimSpace(f.FacultyID)
	f.Department = strings.TrimSpace(f.Department)
	f.AcademicYear = strings.TrimSpace(f.AcademicYear)
	statuses := make([]Status, 0, len(f.Statuses))
	for _, st := range f.Statuses {
		st = Status(strings.ToLower(strings.TrimSpace(string(st))))
		if IsValidStatus(st) {
			statuses = append(statuses, st)
		}
	}
	f.Statuses = statuses
}

// Match reports whether sub satisfies every set field of the filter.
func (f *QueryFilter) Match(sub Submission) bool {
	if f == nil {
		return true
	}
	if f.FacultyID != "" && sub.FacultyID != f.FacultyID {
		return false
	}
	if f.Department != "" && !strings.EqualFold(sub.Department, f.Department) {
		return false
	}
	if f.AcademicYear != "" && sub.AcademicYear != f.AcademicYear {
		return false
	}
	if len(f.Statuses) > 0 {
		for _, st := range f.Statuses {
			if sub.Status == st {
				return true
			}
		}
		return false
	}
	return true
}

// Submission ordering fields
const (
	OrderSubmittedAt  = "submitted_at"
	OrderTotalScore   = "total_score"
	OrderAcademicYear = "academic_year"
	OrderCreatedAt    = "created_at"
)

var OrderingFields = []string{OrderSubmittedAt, OrderTotalScore, OrderAcademicYear, OrderCreatedAt}

// IsEditable reports whether the faculty owner may still change entries.
func (s Submission) IsEditable() bool {
	return s.Status == StatusDraft
}

// Module returns a pointer to the module with the given ID, or nil.
func (s *Submission) Module(id string) *Module {
	for i := range s.Modules {
		if s.Modules[i].ID == id {
			return &s.Modules[i]
		}
	}
	return nil
}

func (m *Module) entryIndex(id string) int {
	for i := range m.Entries {
		if m.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy that can be mutated without affecting s.
func (s Submission) Clone() Submission {
	clone := s
	clone.Modules = make([]Module, len(s.Modules))
	for i, mod := range s.Modules {
		entries := make([]ModuleEntry, len(mod.Entries))
		copy(entries, mod.Entries)
		mod.Entries = entries
		clone.Modules[i] = mod
	}
	clone.History = make([]StatusChange, len(s.History))
	copy(clone.History, s.History)
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		clone.SubmittedAt = &t
	}
	if s.ReviewedAt != nil {
		t := *s.ReviewedAt
		clone.ReviewedAt = &t
	}
	return clone
}

// newModules builds the empty module set of a fresh submission from the catalog.
func newModules() []Module {
	mods := make([]Module, 0, len(catalog))
	for _, def := range catalog {
		mods = append(mods, Module{
			ID:        def.ID,
			Name:      def.Name,
			MaxPoints: def.MaxPoints,
			Entries:   []ModuleEntry{},
		})
	}
	return mods
}
