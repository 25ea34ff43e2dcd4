// Package document defines the canonical résumé/CV data model and the
// transforms applied to it: normalization of untrusted JSON, submission-time
// cleaning, and the built-in templates.
package document

// Target selects a rendered view a section entry appears in.
type Target string

const (
	TargetCV     Target = "cv"
	TargetResume Target = "resume"
)

// ShowOn is the set of views an entry is visible in. A normalized ShowOn is
// never empty.
type ShowOn []Target

// Everywhere returns a fresh ShowOn containing both views.
func Everywhere() ShowOn {
	return ShowOn{TargetCV, TargetResume}
}

// Has reports whether t is one of the views.
func (s ShowOn) Has(t Target) bool {
	for _, v := range s {
		if v == t {
			return true
		}
	}
	return false
}

// Document is the canonical résumé/CV representation. Slice order is the
// section order used by the renderer.
type Document struct {
	Name       string       `json:"name"`
	Contact    []string     `json:"contact"`
	Links      []Link       `json:"links"`
	Education  []Education  `json:"education"`
	Skills     []Skill      `json:"skills"`
	Experience []Experience `json:"experience"`
	Projects   []Project    `json:"projects"`
}

type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Education struct {
	Institution string `json:"institution"`
	Location    string `json:"location"`
	Degree      string `json:"degree"`
	GPA         string `json:"gpa"`
	Dates       string `json:"dates"`
}

type Skill struct {
	Category string   `json:"category"`
	Bullets  []string `json:"bullets"`
	ShowOn   ShowOn   `json:"show_on"`
}

type Experience struct {
	Role      string   `json:"role"`
	Company   string   `json:"company"`
	Location  string   `json:"location"`
	WorkType  string   `json:"work_type"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	ShowOn    ShowOn   `json:"show_on"`
	Bullets   []string `json:"bullets"`
}

type Project struct {
	Title   string   `json:"title"`
	Tools   string   `json:"tools"`
	Date    string   `json:"date"`
	Link    string   `json:"link"`
	ShowOn  ShowOn   `json:"show_on"`
	Bullets []string `json:"bullets"`
}

// Counts returns the number of entries in each sequence section, keyed by
// the JSON field name.
func (d Document) Counts() map[string]int {
	return map[string]int{
		"contact":    len(d.Contact),
		"links":      len(d.Links),
		"education":  len(d.Education),
		"skills":     len(d.Skills),
		"experience": len(d.Experience),
		"projects":   len(d.Projects),
	}
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := Document{
		Name:       d.Name,
		Contact:    cloneStrings(d.Contact),
		Links:      append(make([]Link, 0, len(d.Links)), d.Links...),
		Education:  append(make([]Education, 0, len(d.Education)), d.Education...),
		Skills:     make([]Skill, len(d.Skills)),
		Experience: make([]Experience, len(d.Experience)),
		Projects:   make([]Project, len(d.Projects)),
	}
	for i, s := range d.Skills {
		s.Bullets = cloneStrings(s.Bullets)
		s.ShowOn = append(ShowOn{}, s.ShowOn...)
		out.Skills[i] = s
	}
	for i, x := range d.Experience {
		x.Bullets = cloneStrings(x.Bullets)
		x.ShowOn = append(ShowOn{}, x.ShowOn...)
		out.Experience[i] = x
	}
	for i, p := range d.Projects {
		p.Bullets = cloneStrings(p.Bullets)
		p.ShowOn = append(ShowOn{}, p.ShowOn...)
		out.Projects[i] = p
	}
	return out
}

func cloneStrings(in []string) []string {
	return append(make([]string, 0, len(in)), in...)
}
