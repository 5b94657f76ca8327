package response

import (
	"strings"
	"testing"

	"github.com/vamsi-1234/portfolio-engine/internal/chat/intent"
	"github.com/vamsi-1234/portfolio-engine/internal/knowledge"
)

func TestGenerateIsStable(t *testing.T) {
	g := NewGenerator(knowledge.Default())
	for _, in := range intent.All() {
		first := g.Generate(in)
		second := g.Generate(in)
		if first.Text != second.Text {
			t.Errorf("intent %q produced different text across calls", in)
		}
		if first.Text == "" {
			t.Errorf("intent %q produced empty text", in)
		}
		if first.Context["intent"] != string(in) {
			t.Errorf("intent %q context tag = %v", in, first.Context["intent"])
		}
	}
}

func TestGenerateUnknownFallsBackToGeneral(t *testing.T) {
	g := NewGenerator(knowledge.Default())
	got := g.Generate(intent.Intent("weather"))
	want := g.Generate(intent.General)
	if got.Text != want.Text {
		t.Error("unknown intent should render the general template")
	}
}

func TestExperienceListsEveryRecord(t *testing.T) {
	kb := knowledge.Default()
	resp := NewGenerator(kb).Generate(intent.Experience)

	for _, exp := range kb.Experience() {
		if !strings.Contains(resp.Text, exp.Company) {
			t.Errorf("experience text missing company %q", exp.Company)
		}
		for _, h := range exp.Highlights {
			if !strings.Contains(resp.Text, "• "+h) {
				t.Errorf("experience text missing highlight %q", h)
			}
		}
	}
	companies, ok := resp.Context["companies"].([]string)
	if !ok || len(companies) != 2 {
		t.Fatalf("unexpected companies context %#v", resp.Context["companies"])
	}
}

func TestSkillsListsEveryCategory(t *testing.T) {
	kb := knowledge.Default()
	resp := NewGenerator(kb).Generate(intent.Skills)
	for _, cat := range kb.Skills() {
		if !strings.Contains(resp.Text, strings.Join(cat.Items, ", ")) {
			t.Errorf("skills text missing category %q", cat.Key)
		}
	}
	// categories render in knowledge-base order
	if strings.Index(resp.Text, "Backend") > strings.Index(resp.Text, "DevOps") {
		t.Error("skill categories rendered out of order")
	}
}

func TestProjectsListsEveryProject(t *testing.T) {
	kb := knowledge.Default()
	resp := NewGenerator(kb).Generate(intent.Projects)
	for _, p := range kb.Projects() {
		if !strings.Contains(resp.Text, p.Name) || !strings.Contains(resp.Text, p.Impact) {
			t.Errorf("projects text missing %q", p.Name)
		}
		if !strings.Contains(resp.Text, strings.Join(p.Tech, ", ")) {
			t.Errorf("projects text missing tech for %q", p.Name)
		}
	}
	if resp.Context["projectCount"] != 4 {
		t.Errorf("unexpected projectCount %v", resp.Context["projectCount"])
	}
}

func TestContactUsesProfileLinks(t *testing.T) {
	kb := knowledge.Default()
	resp := NewGenerator(kb).Generate(intent.Contact)
	if !strings.Contains(resp.Text, kb.Profile().GitHub) || !strings.Contains(resp.Text, kb.Profile().LinkedIn) {
		t.Error("contact text missing profile links")
	}
}
