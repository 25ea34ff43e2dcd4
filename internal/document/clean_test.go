package document

import (
	"reflect"
	"testing"
)

func messyDocument() Document {
	return Document{
		Name:    "Jane",
		Contact: []string{"jane@example.com", "   ", "", "Berlin"},
		Links: []Link{
			{Label: "", URL: "  "},
			{Label: "GitHub", URL: ""},
			{Label: " ", URL: "https://example.com"},
		},
		Education: []Education{
			{Location: "Paris", GPA: "3.9"},
			{Institution: "MIT"},
			{Dates: "2020 - 2024"},
			{Degree: "  "},
		},
		Skills: []Skill{
			{Category: "", Bullets: []string{"", "  "}, ShowOn: Everywhere()},
			{Category: "", Bullets: []string{"Go", " "}, ShowOn: ShowOn{TargetCV}},
			{Category: "Tools", Bullets: []string{}, ShowOn: Everywhere()},
		},
		Experience: []Experience{
			{Location: "Remote", Bullets: []string{"did things"}, ShowOn: Everywhere()},
			{Company: "Acme", Bullets: []string{"", "shipped"}, ShowOn: ShowOn{TargetResume}},
		},
		Projects: []Project{
			{Tools: "Go", Bullets: []string{"x"}, ShowOn: Everywhere()},
			{Title: "texcv", Bullets: []string{"\t", "built it"}, ShowOn: Everywhere()},
		},
	}
}

func TestClean_Sections(t *testing.T) {
	got := Clean(messyDocument())

	if !reflect.DeepEqual(got.Contact, []string{"jane@example.com", "Berlin"}) {
		t.Errorf("Contact = %q", got.Contact)
	}

	wantLinks := []Link{{Label: "GitHub"}, {Label: " ", URL: "https://example.com"}}
	if !reflect.DeepEqual(got.Links, wantLinks) {
		t.Errorf("Links = %+v, want %+v", got.Links, wantLinks)
	}

	wantEdu := []Education{{Institution: "MIT"}, {Dates: "2020 - 2024"}}
	if !reflect.DeepEqual(got.Education, wantEdu) {
		t.Errorf("Education = %+v, want %+v", got.Education, wantEdu)
	}

	wantSkills := []Skill{
		{Category: "", Bullets: []string{"Go"}, ShowOn: ShowOn{TargetCV}},
		{Category: "Tools", Bullets: []string{}, ShowOn: Everywhere()},
	}
	if !reflect.DeepEqual(got.Skills, wantSkills) {
		t.Errorf("Skills = %+v, want %+v", got.Skills, wantSkills)
	}

	wantExp := []Experience{{Company: "Acme", Bullets: []string{"shipped"}, ShowOn: ShowOn{TargetResume}}}
	if !reflect.DeepEqual(got.Experience, wantExp) {
		t.Errorf("Experience = %+v, want %+v", got.Experience, wantExp)
	}

	wantProj := []Project{{Title: "texcv", Bullets: []string{"built it"}, ShowOn: Everywhere()}}
	if !reflect.DeepEqual(got.Projects, wantProj) {
		t.Errorf("Projects = %+v, want %+v", got.Projects, wantProj)
	}

	if got.Name != "Jane" {
		t.Errorf("Name = %q, want Jane", got.Name)
	}
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	in := messyDocument()
	before := in.Clone()
	out := Clean(in)
	if !reflect.DeepEqual(in, before) {
		t.Fatal("Clean mutated its input")
	}

	// Writing through the output must not reach the input either.
	out.Skills[0].Bullets[0] = "changed"
	out.Skills[0].ShowOn[0] = TargetResume
	if !reflect.DeepEqual(in, before) {
		t.Fatal("Clean output shares backing arrays with its input")
	}
}

func TestClean_IdempotentAndShrinking(t *testing.T) {
	docs := []Document{messyDocument(), Sample(), Blank(), Normalize(nil)}
	for i, d := range docs {
		once := Clean(d)
		twice := Clean(once)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("doc %d: Clean not idempotent", i)
		}
		before := d.Counts()
		for section, n := range once.Counts() {
			if n > before[section] {
				t.Errorf("doc %d: %s grew from %d to %d", i, section, before[section], n)
			}
		}
	}
}

func TestClean_BlankTemplateEmptiesEverything(t *testing.T) {
	got := Clean(Blank())
	for section, n := range got.Counts() {
		if n != 0 {
			t.Errorf("%s has %d entries after cleaning a blank form, want 0", section, n)
		}
	}
	if got.Contact == nil || got.Projects == nil {
		t.Error("Clean returned nil sections; they must encode as []")
	}
}

func TestClean_SampleUnchanged(t *testing.T) {
	if got := Clean(Sample()); !reflect.DeepEqual(got, Sample()) {
		t.Errorf("Clean(Sample()) = %+v, want the sample unchanged", got)
	}
}
