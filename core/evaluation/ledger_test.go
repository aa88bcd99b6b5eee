package evaluation

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/fpms/core"
)

func newDraft() Submission {
	sub := Submission{
		ID:           "sub-1",
		FacultyID:    "fac-1",
		Department:   "CSE",
		AcademicYear: "2024-25",
		Status:       StatusDraft,
		Modules:      newModules(),
		History:      []StatusChange{},
		Version:      1,
	}
	sub.Recalculate()
	return sub
}

func sequentialIDs(t *testing.T) {
	orig := newEntryID
	var n int
	newEntryID = func() string {
		n++
		return "e" + strconv.Itoa(n)
	}
	t.Cleanup(func() { newEntryID = orig })
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestSubmission_ReplaceEntries(t *testing.T) {
	sequentialIDs(t)

	tests := []struct {
		name      string
		moduleID  string
		inputs    []EntryInput
		wantErr   bool
		wantScore int
		wantMax   []int
		wantPts   []int
	}{
		{
			name:     "teaching scenario clamps module to ceiling",
			moduleID: ModuleTeaching,
			inputs: []EntryInput{
				{Criteria: "Student feedback", ClaimedPoints: 15},
				{Criteria: "Academic results", ClaimedPoints: 20},
				{Criteria: "Course planning and delivery", ClaimedPoints: 40},
			},
			wantScore: 70,
			wantMax:   []int{20, 20, 40},
			wantPts:   []int{15, 20, 40},
		},
		{
			name:     "claims above criteria ceiling are capped",
			moduleID: ModuleResearch,
			inputs: []EntryInput{
				{Criteria: "Patents filed/granted", ClaimedPoints: 50, EvidenceKind: "PDF", Evidence: "patent.pdf"},
			},
			wantScore: 15,
			wantMax:   []int{15},
			wantPts:   []int{15},
		},
		{
			name:      "unmatched criteria has no ceiling",
			moduleID:  ModuleStudent,
			inputs:    []EntryInput{{Criteria: "", ClaimedPoints: 8}},
			wantScore: 0,
			wantMax:   []int{0},
			wantPts:   []int{0},
		},
		{name: "empty list clears module", moduleID: ModuleProfessional, inputs: nil, wantScore: 0},
		{name: "negative points", moduleID: ModuleTeaching, inputs: []EntryInput{{Criteria: "Student feedback", ClaimedPoints: -1}}, wantErr: true},
		{name: "unknown criteria", moduleID: ModuleTeaching, inputs: []EntryInput{{Criteria: "Sports", ClaimedPoints: 1}}, wantErr: true},
		{name: "bad evidence kind", moduleID: ModuleTeaching, inputs: []EntryInput{{EvidenceKind: "docx"}}, wantErr: true},
		{name: "duplicate ids", moduleID: ModuleTeaching, inputs: []EntryInput{{ID: "x"}, {ID: "x"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := newDraft()
			before := sub.Clone()

			err := sub.ReplaceEntries(tt.moduleID, tt.inputs)
			if tt.wantErr {
				if !core.IsValidationError(err) {
					t.Fatalf("ReplaceEntries() error = %v; want ValidationError", err)
				}
				if !reflect.DeepEqual(sub, before) {
					t.Errorf("failed ReplaceEntries() mutated the submission")
				}
				return
			}
			if err != nil {
				t.Fatalf("ReplaceEntries() error = %v", err)
			}

			mod := sub.Module(tt.moduleID)
			if mod.Score != tt.wantScore {
				t.Errorf("score = %v; want %v", mod.Score, tt.wantScore)
			}
			if sub.TotalScore != tt.wantScore {
				t.Errorf("TotalScore = %v; want %v", sub.TotalScore, tt.wantScore)
			}
			for i, e := range mod.Entries {
				if e.ID == "" {
					t.Errorf("entry %d has no id", i)
				}
				if e.MaxPoints != tt.wantMax[i] || e.ClaimedPoints != tt.wantPts[i] {
					t.Errorf("entry %d max, claimed = %v, %v; want %v, %v", i, e.MaxPoints, e.ClaimedPoints, tt.wantMax[i], tt.wantPts[i])
				}
			}
		})
	}
}

func TestSubmission_AddEntry(t *testing.T) {
	sequentialIDs(t)

	sub := newDraft()
	id, err := sub.AddEntry(ModuleTeaching)
	if err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	mod := sub.Module(ModuleTeaching)
	assert.Equal(t, []ModuleEntry{{ID: id}}, mod.Entries)

	if _, err = sub.AddEntry("sports"); !IsNotFound(err) {
		t.Errorf("AddEntry(unknown module) error = %v; want ErrNotFound", err)
	}

	// reach the ceiling: no more entries
	err = sub.ReplaceEntries(ModuleStudent, []EntryInput{
		{Criteria: "Project guidance (UG/PG)", ClaimedPoints: 15},
		{Criteria: "Mentoring activities", ClaimedPoints: 10},
		{Criteria: "Student club activities", ClaimedPoints: 10},
		{Criteria: "Placement support", ClaimedPoints: 10},
	})
	if err != nil {
		t.Fatalf("ReplaceEntries() error = %v", err)
	}
	before := sub.Clone()
	if _, err = sub.AddEntry(ModuleStudent); !core.IsValidationError(err) {
		t.Errorf("AddEntry(full module) error = %v; want ValidationError", err)
	}
	assert.Equal(t, before, sub)
}

func TestSubmission_UpdateEntry(t *testing.T) {
	sequentialIDs(t)

	sub := newDraft()
	id, _ := sub.AddEntry(ModuleTeaching)

	tests := []struct {
		name    string
		entryID string
		upd     EntryUpdate
		wantErr func(error) bool
		want    ModuleEntry
	}{
		{
			name:    "set criteria and points",
			entryID: id,
			upd:     EntryUpdate{Criteria: strPtr("Use of ICT in teaching"), ClaimedPoints: intPtr(5), Description: strPtr("  LMS  ")},
			want:    ModuleEntry{ID: id, Criteria: "Use of ICT in teaching", Description: "LMS", MaxPoints: 10, ClaimedPoints: 5},
		},
		{
			name:    "overflow is clamped",
			entryID: id,
			upd:     EntryUpdate{ClaimedPoints: intPtr(25)},
			want:    ModuleEntry{ID: id, Criteria: "Use of ICT in teaching", Description: "LMS", MaxPoints: 10, ClaimedPoints: 10},
		},
		{
			name:    "changing criteria re-clamps",
			entryID: id,
			upd:     EntryUpdate{Criteria: strPtr("Course planning and delivery"), ClaimedPoints: intPtr(35)},
			want:    ModuleEntry{ID: id, Criteria: "Course planning and delivery", Description: "LMS", MaxPoints: 40, ClaimedPoints: 35},
		},
		{
			name:    "evidence",
			entryID: id,
			upd:     EntryUpdate{Evidence: strPtr("https://drive/x"), EvidenceKind: strPtr("link")},
			want: ModuleEntry{
				ID: id, Criteria: "Course planning and delivery", Description: "LMS", MaxPoints: 40, ClaimedPoints: 35,
				Evidence: "https://drive/x", EvidenceKind: EvidenceLink,
			},
		},
		{name: "negative", entryID: id, upd: EntryUpdate{ClaimedPoints: intPtr(-3)}, wantErr: core.IsValidationError},
		{name: "unknown entry", entryID: "nope", upd: EntryUpdate{ClaimedPoints: intPtr(1)}, wantErr: IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := sub.Clone()
			err := sub.UpdateEntry(ModuleTeaching, tt.entryID, tt.upd)
			if tt.wantErr != nil {
				if !tt.wantErr(err) {
					t.Fatalf("UpdateEntry() unexpected error = %v", err)
				}
				assert.Equal(t, before, sub)
				return
			}
			if err != nil {
				t.Fatalf("UpdateEntry() error = %v", err)
			}
			got := sub.Module(ModuleTeaching).Entries[0]
			if got != tt.want {
				t.Errorf("UpdateEntry() entry = %+v; want %+v", got, tt.want)
			}
			if sub.Module(ModuleTeaching).Score != got.ClaimedPoints {
				t.Errorf("score not recomputed: %v", sub.Module(ModuleTeaching).Score)
			}
		})
	}
}

func TestSubmission_RemoveEntry(t *testing.T) {
	sequentialIDs(t)

	sub := newDraft()
	_ = sub.ReplaceEntries(ModuleResearch, []EntryInput{
		{ID: "a", Criteria: "Consultancy work", ClaimedPoints: 10},
		{ID: "b", Criteria: "Funded research projects", ClaimedPoints: 20},
	})

	if err := sub.RemoveEntry(ModuleResearch, "a"); err != nil {
		t.Fatalf("RemoveEntry() error = %v", err)
	}
	mod := sub.Module(ModuleResearch)
	if len(mod.Entries) != 1 || mod.Entries[0].ID != "b" {
		t.Errorf("entries = %+v; want only b", mod.Entries)
	}
	if mod.Score != 20 || sub.TotalScore != 20 {
		t.Errorf("score, total = %v, %v; want 20, 20", mod.Score, sub.TotalScore)
	}

	if err := sub.RemoveEntry(ModuleResearch, "a"); !IsNotFound(err) {
		t.Errorf("RemoveEntry(removed) error = %v; want ErrNotFound", err)
	}
}

func TestLedger_notDraft(t *testing.T) {
	for _, st := range AllStatuses {
		if st == StatusDraft {
			continue
		}
		t.Run(string(st), func(t *testing.T) {
			sub := newDraft()
			_ = sub.ReplaceEntries(ModuleTeaching, []EntryInput{{ID: "a", Criteria: "Student feedback", ClaimedPoints: 5}})
			sub.Status = st
			before := sub.Clone()

			errs := []error{
				sub.ReplaceEntries(ModuleTeaching, nil),
				sub.UpdateEntry(ModuleTeaching, "a", EntryUpdate{ClaimedPoints: intPtr(1)}),
				sub.RemoveEntry(ModuleTeaching, "a"),
			}
			_, addErr := sub.AddEntry(ModuleTeaching)
			errs = append(errs, addErr)

			for i, err := range errs {
				if errors.Cause(err) != ErrSubmissionLocked {
					t.Errorf("op %d error = %v; want ErrSubmissionLocked", i, err)
				}
			}
			assert.Equal(t, before, sub)
		})
	}
}
