package document

import "strings"

// Clean returns a copy of d with empty entries removed, ready to be sent for
// rendering. d is not modified. Each section is pruned independently:
//
//   - contact entries that are blank after trimming are dropped;
//   - a link is dropped only when both label and url are blank;
//   - an education row needs an institution, degree or dates;
//   - skills, experience and projects first lose blank bullets, then a skill
//     needs a category or a bullet, an experience a role or company, and a
//     project a title.
func Clean(d Document) Document {
	out := Document{
		Name:       d.Name,
		Contact:    make([]string, 0, len(d.Contact)),
		Links:      make([]Link, 0, len(d.Links)),
		Education:  make([]Education, 0, len(d.Education)),
		Skills:     make([]Skill, 0, len(d.Skills)),
		Experience: make([]Experience, 0, len(d.Experience)),
		Projects:   make([]Project, 0, len(d.Projects)),
	}

	for _, c := range d.Contact {
		if !blank(c) {
			out.Contact = append(out.Contact, c)
		}
	}

	for _, l := range d.Links {
		if !blank(l.Label) || !blank(l.URL) {
			out.Links = append(out.Links, l)
		}
	}

	for _, e := range d.Education {
		if !blank(e.Institution) || !blank(e.Degree) || !blank(e.Dates) {
			out.Education = append(out.Education, e)
		}
	}

	for _, s := range d.Skills {
		s.Bullets = cleanBullets(s.Bullets)
		s.ShowOn = append(ShowOn{}, s.ShowOn...)
		if !blank(s.Category) || len(s.Bullets) > 0 {
			out.Skills = append(out.Skills, s)
		}
	}

	for _, x := range d.Experience {
		x.Bullets = cleanBullets(x.Bullets)
		x.ShowOn = append(ShowOn{}, x.ShowOn...)
		if !blank(x.Role) || !blank(x.Company) {
			out.Experience = append(out.Experience, x)
		}
	}

	for _, p := range d.Projects {
		p.Bullets = cleanBullets(p.Bullets)
		p.ShowOn = append(ShowOn{}, p.ShowOn...)
		if !blank(p.Title) {
			out.Projects = append(out.Projects, p)
		}
	}

	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func cleanBullets(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if !blank(b) {
			out = append(out, b)
		}
	}
	return out
}
