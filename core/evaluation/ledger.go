package evaluation

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/fpms/core"
)

// Entry ledger operations. Each one validates everything first and only then mutates,
// so a failed call leaves the submission untouched.

var newEntryID = func() string { return uuid.New().String() } // mockable

// AddEntry appends an empty entry to the module and returns its ID.
func (s *Submission) AddEntry(moduleID string) (string, error) {
	mod, err := s.editableModule(moduleID)
	if err != nil {
		return "", err
	}
	if mod.claimedTotal() >= mod.MaxPoints {
		return "", core.NewFieldValidationError("module", "module ceiling already reached")
	}
	id := newEntryID()
	mod.Entries = append(mod.Entries, ModuleEntry{ID: id})
	s.Recalculate()
	return id, nil
}

// UpdateEntry changes the given fields of an entry.
// Claims above the criteria sub-ceiling are capped, never rejected.
func (s *Submission) UpdateEntry(moduleID, entryID string, upd EntryUpdate) error {
	mod, err := s.editableModule(moduleID)
	if err != nil {
		return err
	}
	idx := mod.entryIndex(entryID)
	if idx < 0 {
		return notFound("entry", entryID)
	}

	in := EntryInput{
		ID:            entryID,
		Criteria:      mod.Entries[idx].Criteria,
		Description:   mod.Entries[idx].Description,
		ClaimedPoints: mod.Entries[idx].ClaimedPoints,
		Evidence:      mod.Entries[idx].Evidence,
		EvidenceKind:  string(mod.Entries[idx].EvidenceKind),
	}
	if upd.Criteria != nil {
		in.Criteria = *upd.Criteria
	}
	if upd.Description != nil {
		in.Description = *upd.Description
	}
	if upd.ClaimedPoints != nil {
		in.ClaimedPoints = *upd.ClaimedPoints
	}
	if upd.Evidence != nil {
		in.Evidence = *upd.Evidence
	}
	if upd.EvidenceKind != nil {
		in.EvidenceKind = *upd.EvidenceKind
	}

	def, _ := Definition(mod.ID)
	entry, err := buildEntry(def, in)
	if err != nil {
		return err
	}
	mod.Entries[idx] = entry
	s.Recalculate()
	return nil
}

// RemoveEntry deletes an entry from the module.
func (s *Submission) RemoveEntry(moduleID, entryID string) error {
	mod, err := s.editableModule(moduleID)
	if err != nil {
		return err
	}
	idx := mod.entryIndex(entryID)
	if idx < 0 {
		return notFound("entry", entryID)
	}
	mod.Entries = append(mod.Entries[:idx], mod.Entries[idx+1:]...)
	s.Recalculate()
	return nil
}

// ReplaceEntries swaps the whole entry list of a module.
// Inputs without an ID get a new one; IDs must be unique within the module.
func (s *Submission) ReplaceEntries(moduleID string, inputs []EntryInput) error {
	mod, err := s.editableModule(moduleID)
	if err != nil {
		return err
	}
	def, _ := Definition(mod.ID)

	entries := make([]ModuleEntry, 0, len(inputs))
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		in.ID = strings.TrimSpace(in.ID)
		if in.ID == "" {
			in.ID = newEntryID()
		}
		if seen[in.ID] {
			return core.NewFieldValidationError("id", "duplicate entry id "+in.ID)
		}
		seen[in.ID] = true

		entry, err := buildEntry(def, in)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	mod.Entries = entries
	s.Recalculate()
	return nil
}

func (s *Submission) editableModule(moduleID string) (*Module, error) {
	if !s.IsEditable() {
		return nil, ErrSubmissionLocked
	}
	mod := s.Module(moduleID)
	if mod == nil {
		return nil, notFound("module", moduleID)
	}
	return mod, nil
}

// buildEntry validates an input against the module criteria and returns the resulting entry.
// An empty criteria label is allowed while drafting; it has no sub-ceiling so its claim is capped at 0.
func buildEntry(def ModuleDefinition, in EntryInput) (ModuleEntry, error) {
	if in.ClaimedPoints < 0 {
		return ModuleEntry{}, core.NewFieldValidationError("claimed_points", "points cannot be negative")
	}
	kind := EvidenceKind(strings.ToLower(strings.TrimSpace(in.EvidenceKind)))
	if kind != "" && !IsValidEvidenceKind(kind) {
		return ModuleEntry{}, core.NewFieldValidationError("evidence_kind", "must be one of pdf, image, link")
	}

	entry := ModuleEntry{
		ID:            in.ID,
		Criteria:      strings.TrimSpace(in.Criteria),
		Description:   strings.TrimSpace(in.Description),
		ClaimedPoints: in.ClaimedPoints,
		Evidence:      strings.TrimSpace(in.Evidence),
		EvidenceKind:  kind,
	}
	if entry.Criteria != "" {
		opt, ok := def.Criterion(entry.Criteria)
		if !ok {
			return ModuleEntry{}, core.NewValidationError(
				errors.Errorf("unknown criteria %q for module %s", entry.Criteria, def.ID),
				core.FieldError{Field: "criteria", Error: "not an option of this module"},
			)
		}
		entry.MaxPoints = opt.MaxPoints
	}
	if entry.ClaimedPoints > entry.MaxPoints {
		entry.ClaimedPoints = entry.MaxPoints
	}
	return entry, nil
}
