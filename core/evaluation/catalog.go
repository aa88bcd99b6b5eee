package evaluation

// Module IDs
const (
	ModuleTeaching      = "teaching"
	ModuleResearch      = "research"
	ModuleProfessional  = "professional"
	ModuleStudent       = "student"
	ModuleInstitutional = "institutional"
)

// CriteriaOption is a claim category within a module, capped by its own sub-ceiling.
type CriteriaOption struct {
	Label     string `json:"label"`
	MaxPoints int    `json:"max_points"`
}

// ModuleDefinition is a fixed evaluation category of the catalog.
type ModuleDefinition struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	MaxPoints int              `json:"max_points"`
	Criteria  []CriteriaOption `json:"criteria"`
}

// Criterion returns the option matching label exactly.
func (def ModuleDefinition) Criterion(label string) (CriteriaOption, bool) {
	for _, opt := range def.Criteria {
		if opt.Label == label {
			return opt, true
		}
	}
	return CriteriaOption{}, false
}

// catalog never changes at runtime; it is only handed out as copies.
// Teaching sub-ceilings add up past the module ceiling: claims of 15, 20 and 40 count in full
// and the module score clamps their sum to 70.
var catalog = []ModuleDefinition{
	{
		ID: ModuleTeaching, Name: "Teaching & Learning", MaxPoints: 70,
		Criteria: []CriteriaOption{
			{Label: "Course planning and delivery", MaxPoints: 40},
			{Label: "Use of ICT in teaching", MaxPoints: 10},
			{Label: "Course material development", MaxPoints: 20},
			{Label: "Student feedback", MaxPoints: 20},
			{Label: "Academic results", MaxPoints: 20},
		},
	},
	{
		ID: ModuleResearch, Name: "Research & Consultancy", MaxPoints: 75,
		Criteria: []CriteriaOption{
			{Label: "Research publications (Scopus/WoS)", MaxPoints: 25},
			{Label: "Funded research projects", MaxPoints: 20},
			{Label: "Patents filed/granted", MaxPoints: 15},
			{Label: "Consultancy work", MaxPoints: 15},
		},
	},
	{
		ID: ModuleProfessional, Name: "Professional Development", MaxPoints: 65,
		Criteria: []CriteriaOption{
			{Label: "FDP/Workshop attended", MaxPoints: 15},
			{Label: "FDP/Workshop organized", MaxPoints: 15},
			{Label: "Professional membership", MaxPoints: 10},
			{Label: "Expert lectures delivered", MaxPoints: 15},
			{Label: "Additional qualifications", MaxPoints: 10},
		},
	},
	{
		ID: ModuleStudent, Name: "Student Development", MaxPoints: 45,
		Criteria: []CriteriaOption{
			{Label: "Mentoring activities", MaxPoints: 10},
			{Label: "Project guidance (UG/PG)", MaxPoints: 15},
			{Label: "Student club activities", MaxPoints: 10},
			{Label: "Placement support", MaxPoints: 10},
		},
	},
	{
		ID: ModuleInstitutional, Name: "Institutional Development", MaxPoints: 45,
		Criteria: []CriteriaOption{
			{Label: "Administrative duties", MaxPoints: 15},
			{Label: "Committee participation", MaxPoints: 10},
			{Label: "Event organization", MaxPoints: 10},
			{Label: "Accreditation contribution", MaxPoints: 10},
		},
	},
}

// Catalog returns a copy of the module definitions, in display order.
func Catalog() []ModuleDefinition {
	defs := make([]ModuleDefinition, 0, len(catalog))
	for _, def := range catalog {
		defs = append(defs, copyDefinition(def))
	}
	return defs
}

// Definition returns the module definition with the given ID.
func Definition(id string) (ModuleDefinition, bool) {
	for _, def := range catalog {
		if def.ID == id {
			return copyDefinition(def), true
		}
	}
	return ModuleDefinition{}, false
}

// CatalogMaxPoints is the highest total score a submission can reach.
func CatalogMaxPoints() int {
	var total int
	for _, def := range catalog {
		total += def.MaxPoints
	}
	return total
}

func copyDefinition(def ModuleDefinition) ModuleDefinition {
	criteria := make([]CriteriaOption, len(def.Criteria))
	copy(criteria, def.Criteria)
	def.Criteria = criteria
	return def
}
