package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func entries(points ...int) []ModuleEntry {
	ents := make([]ModuleEntry, 0, len(points))
	for _, p := range points {
		ents = append(ents, ModuleEntry{ClaimedPoints: p})
	}
	return ents
}

func TestModuleScore(t *testing.T) {
	tests := []struct {
		name    string
		entries []ModuleEntry
		ceiling int
		want    int
	}{
		{name: "no entries", entries: nil, ceiling: 70, want: 0},
		{name: "below ceiling", entries: entries(10, 20), ceiling: 70, want: 30},
		{name: "at ceiling", entries: entries(30, 40), ceiling: 70, want: 70},
		{name: "sum then clamp", entries: entries(15, 20, 40), ceiling: 70, want: 70},
		{name: "single entry over ceiling", entries: entries(100), ceiling: 45, want: 45},
		{name: "zero claims", entries: entries(0, 0, 0), ceiling: 45, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ModuleScore(tt.entries, tt.ceiling)
			if got != tt.want {
				t.Errorf("ModuleScore() = %v; want %v", got, tt.want)
			}
			if again := ModuleScore(tt.entries, tt.ceiling); again != got {
				t.Errorf("ModuleScore() not idempotent: %v then %v", got, again)
			}
		})
	}
}

func TestSubmission_Recalculate(t *testing.T) {
	sub := Submission{Modules: newModules()}
	sub.Module(ModuleTeaching).Entries = entries(15, 20, 40)
	sub.Module(ModuleResearch).Entries = entries(25, 20)
	sub.Module(ModuleStudent).Entries = entries(50)
	// stale values must be overwritten
	sub.Module(ModuleInstitutional).Score = 99
	sub.TotalScore = 1000

	sub.Recalculate()

	wantScores := map[string]int{
		ModuleTeaching:      70,
		ModuleResearch:      45,
		ModuleProfessional:  0,
		ModuleStudent:       45,
		ModuleInstitutional: 0,
	}
	var sum int
	for _, mod := range sub.Modules {
		if mod.Score != wantScores[mod.ID] {
			t.Errorf("module %s score = %v; want %v", mod.ID, mod.Score, wantScores[mod.ID])
		}
		sum += mod.Score
	}
	if sub.TotalScore != sum || sub.TotalScore != 160 {
		t.Errorf("TotalScore = %v; want %v", sub.TotalScore, 160)
	}

	first := sub.TotalScore
	sub.Recalculate()
	if sub.TotalScore != first {
		t.Errorf("Recalculate() not idempotent: %v then %v", first, sub.TotalScore)
	}
}

func TestSubmission_Progress(t *testing.T) {
	sub := Submission{ID: "s1", Status: StatusDraft, Modules: newModules()}
	sub.Module(ModuleTeaching).Entries = entries(15, 20, 40)
	sub.Module(ModuleProfessional).Entries = entries(13)
	sub.Recalculate()

	prog := sub.Progress()
	if prog.MaxPoints != CatalogMaxPoints() {
		t.Errorf("MaxPoints = %v; want %v", prog.MaxPoints, CatalogMaxPoints())
	}
	if prog.TotalScore != 83 || prog.Percent != 27 {
		t.Errorf("TotalScore, Percent = %v, %v; want 83, 27", prog.TotalScore, prog.Percent)
	}
	teaching := prog.Modules[0]
	if teaching.Claimed != 75 || teaching.Score != 70 || teaching.Percent != 100 || teaching.Entries != 3 {
		t.Errorf("teaching progress = %+v", teaching)
	}
	if prof := prog.Modules[2]; prof.Percent != 20 {
		t.Errorf("professional percent = %v; want 20", prof.Percent)
	}
}

func TestCatalog(t *testing.T) {
	defs := Catalog()
	if len(defs) != 5 {
		t.Fatalf("len(Catalog()) = %v; want 5", len(defs))
	}
	if CatalogMaxPoints() != 300 {
		t.Errorf("CatalogMaxPoints() = %v; want 300", CatalogMaxPoints())
	}

	// mutating a copy must not leak into the catalog
	defs[0].MaxPoints = 1
	defs[0].Criteria[0].MaxPoints = 1
	def, ok := Definition(ModuleTeaching)
	if !ok {
		t.Fatalf("Definition(%q) not found", ModuleTeaching)
	}
	if def.MaxPoints != 70 || def.Criteria[0].MaxPoints == 1 {
		t.Errorf("catalog mutated through a copy: %+v", def)
	}

	if _, ok := Definition("sports"); ok {
		t.Errorf("Definition(%q) found; want none", "sports")
	}
}

func TestCatalog_teachingCriteria(t *testing.T) {
	def, _ := Definition(ModuleTeaching)
	want := map[string]int{
		"Course planning and delivery": 40,
		"Use of ICT in teaching":       10,
		"Course material development":  20,
		"Student feedback":             20,
		"Academic results":             20,
	}
	for label, max := range want {
		opt, ok := def.Criterion(label)
		if !ok || opt.MaxPoints != max {
			t.Errorf("failed! Criterion(%q) = %+v, %v; want max %d", label, opt, ok, max)
		}
	}

	// 15 + 20 + 40 are all claimable in full, the module ceiling clamps the sum
	sub := Submission{Status: StatusDraft, Modules: newModules()}
	require.NoError(t, sub.ReplaceEntries(ModuleTeaching, []EntryInput{
		{Criteria: "Student feedback", ClaimedPoints: 15},
		{Criteria: "Academic results", ClaimedPoints: 20},
		{Criteria: "Course planning and delivery", ClaimedPoints: 40},
	}))
	mod := sub.Module(ModuleTeaching)
	if mod.claimedTotal() != 75 || mod.Score != 70 {
		t.Errorf("failed! claimed = %v, score = %v; want 75, 70", mod.claimedTotal(), mod.Score)
	}
}
