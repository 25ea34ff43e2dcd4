package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ImportError reports that user-supplied JSON could not be parsed.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("invalid JSON: %v", e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// Parse decodes raw JSON into an untyped value. It is the only place untyped
// input enters the package; the result should go straight to Normalize.
func Parse(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ImportError{Err: err}
	}
	if dec.More() {
		return nil, &ImportError{Err: fmt.Errorf("unexpected data after top-level value")}
	}
	return v, nil
}

// Import parses raw JSON and normalizes it.
func Import(raw []byte) (Document, error) {
	v, err := Parse(raw)
	if err != nil {
		return Document{}, err
	}
	return Normalize(v), nil
}

// Normalize coerces any value into a Document. It never fails: input that is
// not an object is treated as an empty object, and each field falls back to
// "" or an empty slice independently of the others. A Document (or pointer
// to one) is re-normalized field by field, so Normalize is idempotent.
func Normalize(input any) Document {
	switch v := input.(type) {
	case Document:
		return normalizeTyped(v)
	case *Document:
		if v == nil {
			return Normalize(nil)
		}
		return normalizeTyped(*v)
	}

	obj, _ := input.(map[string]any)
	return Document{
		Name:       asString(obj["name"]),
		Contact:    asStringArray(obj["contact"]),
		Links:      normalizeLinks(obj["links"]),
		Education:  normalizeEducation(obj["education"]),
		Skills:     normalizeSkills(obj["skills"]),
		Experience: normalizeExperience(obj["experience"]),
		Projects:   normalizeProjects(obj["projects"]),
	}
}

// NormalizeShowOn keeps only "cv" and "resume" (first occurrence order) and
// falls back to both when nothing valid remains.
func NormalizeShowOn(v any) ShowOn {
	arr, ok := v.([]any)
	if !ok {
		return Everywhere()
	}
	out := make(ShowOn, 0, 2)
	for _, x := range arr {
		s, _ := x.(string)
		t := Target(s)
		if (t == TargetCV || t == TargetResume) && !out.Has(t) {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return Everywhere()
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asStringArray keeps string elements that are not blank. Kept strings are
// not trimmed.
func asStringArray(v any) []string {
	arr, _ := v.([]any)
	out := make([]string, 0, len(arr))
	for _, x := range arr {
		if s, ok := x.(string); ok && !blank(s) {
			out = append(out, s)
		}
	}
	return out
}

func asObjects(v any) []map[string]any {
	arr, _ := v.([]any)
	out := make([]map[string]any, 0, len(arr))
	for _, x := range arr {
		// Non-object items still yield an entry with every field defaulted.
		obj, _ := x.(map[string]any)
		out = append(out, obj)
	}
	return out
}

func normalizeLinks(v any) []Link {
	items := asObjects(v)
	out := make([]Link, 0, len(items))
	for _, x := range items {
		out = append(out, Link{
			Label: asString(x["label"]),
			URL:   asString(x["url"]),
		})
	}
	return out
}

func normalizeEducation(v any) []Education {
	items := asObjects(v)
	out := make([]Education, 0, len(items))
	for _, e := range items {
		out = append(out, Education{
			Institution: asString(e["institution"]),
			Location:    asString(e["location"]),
			Degree:      asString(e["degree"]),
			GPA:         asString(e["gpa"]),
			Dates:       asString(e["dates"]),
		})
	}
	return out
}

func normalizeSkills(v any) []Skill {
	items := asObjects(v)
	out := make([]Skill, 0, len(items))
	for _, s := range items {
		out = append(out, Skill{
			Category: asString(s["category"]),
			Bullets:  asStringArray(s["bullets"]),
			ShowOn:   NormalizeShowOn(s["show_on"]),
		})
	}
	return out
}

func normalizeExperience(v any) []Experience {
	items := asObjects(v)
	out := make([]Experience, 0, len(items))
	for _, x := range items {
		out = append(out, Experience{
			Role:      asString(x["role"]),
			Company:   asString(x["company"]),
			Location:  asString(x["location"]),
			WorkType:  asString(x["work_type"]),
			StartDate: asString(x["start_date"]),
			EndDate:   asString(x["end_date"]),
			ShowOn:    NormalizeShowOn(x["show_on"]),
			Bullets:   asStringArray(x["bullets"]),
		})
	}
	return out
}

func normalizeProjects(v any) []Project {
	items := asObjects(v)
	out := make([]Project, 0, len(items))
	for _, p := range items {
		out = append(out, Project{
			Title:   asString(p["title"]),
			Tools:   asString(p["tools"]),
			Date:    asString(p["date"]),
			Link:    asString(p["link"]),
			ShowOn:  NormalizeShowOn(p["show_on"]),
			Bullets: asStringArray(p["bullets"]),
		})
	}
	return out
}

// normalizeTyped applies the same rules to an already typed Document: nil
// slices become empty, blank strings leave string lists and show_on is
// restricted and defaulted.
func normalizeTyped(d Document) Document {
	out := d.Clone()
	out.Contact = dropEmpty(out.Contact)
	for i := range out.Skills {
		out.Skills[i].Bullets = dropEmpty(out.Skills[i].Bullets)
		out.Skills[i].ShowOn = normalizeTypedShowOn(out.Skills[i].ShowOn)
	}
	for i := range out.Experience {
		out.Experience[i].Bullets = dropEmpty(out.Experience[i].Bullets)
		out.Experience[i].ShowOn = normalizeTypedShowOn(out.Experience[i].ShowOn)
	}
	for i := range out.Projects {
		out.Projects[i].Bullets = dropEmpty(out.Projects[i].Bullets)
		out.Projects[i].ShowOn = normalizeTypedShowOn(out.Projects[i].ShowOn)
	}
	return out
}

func dropEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !blank(s) {
			out = append(out, s)
		}
	}
	return out
}

func normalizeTypedShowOn(s ShowOn) ShowOn {
	raw := make([]any, len(s))
	for i, t := range s {
		raw[i] = string(t)
	}
	return NormalizeShowOn(raw)
}
