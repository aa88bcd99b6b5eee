package evaluation

// ModuleScore is the sum of claimed points, capped at the module ceiling.
// Claims are summed first and clamped once; entries are never clamped against each other.
func ModuleScore(entries []ModuleEntry, ceiling int) int {
	var sum int
	for _, e := range entries {
		sum += e.ClaimedPoints
	}
	if sum > ceiling {
		return ceiling
	}
	return sum
}

// claimedTotal is the raw sum of claimed points in a module.
func (m Module) claimedTotal() int {
	var sum int
	for _, e := range m.Entries {
		sum += e.ClaimedPoints
	}
	return sum
}

// Recalculate recomputes every module score and the total score.
// It runs after each entry mutation and on every load, so stored scores are never trusted.
func (s *Submission) Recalculate() {
	var total int
	for i := range s.Modules {
		mod := &s.Modules[i]
		if def, ok := Definition(mod.ID); ok {
			mod.Name = def.Name
			mod.MaxPoints = def.MaxPoints
		}
		mod.Score = ModuleScore(mod.Entries, mod.MaxPoints)
		total += mod.Score
	}
	s.TotalScore = total
}

type (
	ModuleProgress struct {
		ModuleID  string `json:"module_id"`
		Name      string `json:"name"`
		Entries   int    `json:"entries"`
		Claimed   int    `json:"claimed"`
		Score     int    `json:"score"`
		MaxPoints int    `json:"max_points"`
		Percent   int    `json:"percent"`
	}

	Progress struct {
		SubmissionID string           `json:"submission_id"`
		Status       Status           `json:"status"`
		TotalScore   int              `json:"total_score"`
		MaxPoints    int              `json:"max_points"`
		Percent      int              `json:"percent"`
		Modules      []ModuleProgress `json:"modules"`
	}
)

// Progress summarises how far each module is from its ceiling.
func (s Submission) Progress() Progress {
	prog := Progress{
		SubmissionID: s.ID,
		Status:       s.Status,
		TotalScore:   s.TotalScore,
		Modules:      make([]ModuleProgress, 0, len(s.Modules)),
	}
	for _, mod := range s.Modules {
		prog.MaxPoints += mod.MaxPoints
		prog.Modules = append(prog.Modules, ModuleProgress{
			ModuleID:  mod.ID,
			Name:      mod.Name,
			Entries:   len(mod.Entries),
			Claimed:   mod.claimedTotal(),
			Score:     mod.Score,
			MaxPoints: mod.MaxPoints,
			Percent:   percent(mod.Score, mod.MaxPoints),
		})
	}
	prog.Percent = percent(prog.TotalScore, prog.MaxPoints)
	return prog
}

func percent(n, max int) int {
	if max <= 0 {
		return 0
	}
	return n * 100 / max
}
