package prioritizer

import (
	"math"
	"reflect"
	"testing"

	"careerarc/pkg/models"
)

func pc(content string, priority int) models.PriorityContent {
	return models.PriorityContent{Content: content, Priority: priority}
}

func sampleDraft() models.PrioritizedProfile {
	return models.PrioritizedProfile{
		Summary:      &models.PriorityContent{Content: "Backend engineer", Priority: 1},
		Achievements: []models.PriorityContent{pc("Cut latency 40%", 1), pc("Won hackathon", 3), pc("Mentored", 2)},
		Experience: []models.PrioritizedExperience{
			{Title: "Lead", Company: "Acme", Dates: "2021 - Present", Responsibilities: []models.PriorityContent{pc("Owned platform", 1), pc("Ran standups", 4)}},
			{Title: "Dev", Company: "Initech", Dates: "2018 - 2021", Responsibilities: []models.PriorityContent{pc("Wrote reports", 2)}},
		},
		CoreCompetencies: []models.PriorityContent{pc("Go", 1), pc("Kubernetes", 2), pc("COBOL", 5)},
		Certifications:   []models.PriorityContent{pc("CKA", 2)},
		Education:        []models.PriorityContent{pc("BSc CS", 3)},
	}
}

func TestFilterHeaderOnlyExperience(t *testing.T) {
	draft := models.PrioritizedProfile{
		Experience: []models.PrioritizedExperience{{
			Title: "Dev", Company: "Initech", Dates: "2018 - 2021",
			Responsibilities: []models.PriorityContent{pc("Wrote reports", 2)},
		}},
	}

	out := Filter(draft, 1, models.DefaultSectionToggles())

	if len(out.Experience) != 1 {
		t.Fatalf("experience count = %d, want 1", len(out.Experience))
	}
	exp := out.Experience[0]
	if exp.Title != "Dev" || exp.Company != "Initech" || exp.Dates != "2018 - 2021" {
		t.Errorf("header changed: %+v", exp)
	}
	if exp.Responsibilities == nil || len(exp.Responsibilities) != 0 {
		t.Errorf("responsibilities = %#v, want empty list", exp.Responsibilities)
	}
}

func TestFilterIsSubset(t *testing.T) {
	draft := sampleDraft()
	for max := 0; max <= 6; max++ {
		out := Filter(draft, max, models.DefaultSectionToggles())

		sections := map[string][2][]models.PriorityContent{
			"achievements":   {draft.Achievements, out.Achievements},
			"competencies":   {draft.CoreCompetencies, out.CoreCompetencies},
			"certifications": {draft.Certifications, out.Certifications},
			"education":      {draft.Education, out.Education},
		}
		for i := range draft.Experience {
			sections["experience"+draft.Experience[i].Title] = [2][]models.PriorityContent{
				draft.Experience[i].Responsibilities, out.Experience[i].Responsibilities,
			}
		}

		for name, pair := range sections {
			assertOrderedSubset(t, name, max, pair[0], pair[1])
		}
	}
}

func assertOrderedSubset(t *testing.T, section string, max int, in, out []models.PriorityContent) {
	t.Helper()
	j := 0
	for _, item := range out {
		if item.Priority > max {
			t.Errorf("%s max=%d: kept %+v", section, max, item)
		}
		for j < len(in) && in[j] != item {
			j++
		}
		if j == len(in) {
			t.Errorf("%s max=%d: %+v not in input order", section, max, item)
			return
		}
		j++
	}
}

func TestFilterMaxIntIsIdentity(t *testing.T) {
	draft := sampleDraft()
	out := Filter(draft, math.MaxInt, models.DefaultSectionToggles())
	if !reflect.DeepEqual(out, draft) {
		t.Errorf("Filter(MaxInt) changed content\n got: %+v\nwant: %+v", out, draft)
	}
}

func TestFilterToggles(t *testing.T) {
	toggles := models.SectionToggles{IncludeCompetencies: true}
	out := Filter(sampleDraft(), math.MaxInt, toggles)

	if len(out.Achievements) != 0 || len(out.Certifications) != 0 || len(out.Education) != 0 {
		t.Errorf("disabled sections kept: %+v", out)
	}
	if len(out.CoreCompetencies) != 3 {
		t.Errorf("competencies = %v", out.CoreCompetencies)
	}
	if len(out.Experience) != 2 || out.Summary == nil {
		t.Error("experience and summary are not toggled")
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	draft := sampleDraft()
	before := sampleDraft()

	out := Filter(draft, 1, models.DefaultSectionToggles())
	out.Summary.Content = "changed"
	if len(out.Experience[0].Responsibilities) > 0 {
		out.Experience[0].Responsibilities[0].Content = "changed"
	}

	if !reflect.DeepEqual(draft, before) {
		t.Error("Filter mutated its input")
	}
}

func TestFilterMissingSections(t *testing.T) {
	out := Filter(models.PrioritizedProfile{}, 3, models.DefaultSectionToggles())
	if out.Achievements == nil || out.Experience == nil || out.Education == nil {
		t.Errorf("missing sections should come back empty: %+v", out)
	}
}
