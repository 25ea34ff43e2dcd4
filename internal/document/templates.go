package document

import "strings"

// Sample returns the built-in example document a session starts from by
// default.
func Sample() Document {
	return Document{
		Name:    "John Doe",
		Contact: []string{"john.doe@example.com", "555-123-4567"},
		Links: []Link{
			{Label: "GitHub", URL: "https://github.com/johndoe"},
			{Label: "LinkedIn", URL: "https://linkedin.com/in/johndoe"},
		},
		Education: []Education{
			{
				Institution: "Stanford University",
				Location:    "Stanford, CA",
				Degree:      "B.S. of Computer Science",
				GPA:         "4.0",
				Dates:       "Aug 2024 - May 2028 (Expected)",
			},
		},
		Skills: []Skill{
			{
				Category: "AI / ML",
				Bullets:  []string{"LLM pipelines and RAG (LangChain, retrieval, evaluation)"},
				ShowOn:   Everywhere(),
			},
		},
		Experience: []Experience{
			{
				Role:      "Software Engineer",
				Company:   "Google",
				Location:  "Mountain View, CA",
				WorkType:  "Internship / Part-Time",
				StartDate: "Jun 2025",
				EndDate:   "Present",
				ShowOn:    Everywhere(),
				Bullets:   []string{"Coded YouTube", "Worked on Google Search"},
			},
		},
		Projects: []Project{
			{
				Title:   "ChatGPT",
				Tools:   "Brain",
				Date:    "Ongoing",
				Link:    "https://chatgpt.com/",
				ShowOn:  Everywhere(),
				Bullets: []string{"Built ChatGPT"},
			},
		},
	}
}

// Blank returns an empty form: one empty row in every section so each has
// something to edit.
func Blank() Document {
	return Document{
		Name:       "",
		Contact:    []string{""},
		Links:      []Link{{}},
		Education:  []Education{{}},
		Skills:     []Skill{{Bullets: []string{""}, ShowOn: Everywhere()}},
		Experience: []Experience{{ShowOn: Everywhere(), Bullets: []string{""}}},
		Projects:   []Project{{ShowOn: Everywhere(), Bullets: []string{""}}},
	}
}

// Template names accepted by FromTemplate.
const (
	TemplateSample = "sample"
	TemplateBlank  = "blank"
)

// FromTemplate returns the named template. An empty name selects the sample.
func FromTemplate(name string) (Document, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", TemplateSample:
		return Sample(), true
	case TemplateBlank:
		return Blank(), true
	default:
		return Document{}, false
	}
}

// AddQuickLink appends {label, ""} unless a link with the same label
// (trimmed, case-insensitive) already exists. It reports whether a link was
// added. d is not modified.
func AddQuickLink(d Document, label string) (Document, bool) {
	want := strings.ToLower(strings.TrimSpace(label))
	for _, l := range d.Links {
		if strings.ToLower(strings.TrimSpace(l.Label)) == want {
			return d.Clone(), false
		}
	}
	out := d.Clone()
	out.Links = append(out.Links, Link{Label: label})
	return out, true
}
