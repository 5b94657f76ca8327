// Package knowledge holds the immutable profile data the chat assistant
// answers from: skills by category, experience records and projects.
package knowledge

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Profile struct {
	Name           string `yaml:"name"`
	Title          string `yaml:"title"`
	Employer       string `yaml:"employer"`
	Specialization string `yaml:"specialization"`
	Focus          string `yaml:"focus"`
	GitHub         string `yaml:"github"`
	LinkedIn       string `yaml:"linkedin"`
}

// FirstName returns the first word of the profile name.
func (p Profile) FirstName() string {
	if f := strings.Fields(p.Name); len(f) > 0 {
		return f[0]
	}
	return p.Name
}

// SkillCategory is one ordered group of skills, e.g. "backend".
type SkillCategory struct {
	Key   string   `yaml:"key"`
	Label string   `yaml:"label"`
	Items []string `yaml:"items"`
}

type Experience struct {
	Company    string   `yaml:"company"`
	Role       string   `yaml:"role"`
	Period     string   `yaml:"period"`
	Highlights []string `yaml:"highlights"`
}

type Project struct {
	Name   string   `yaml:"name"`
	Tech   []string `yaml:"tech"`
	Impact string   `yaml:"impact"`
}

// Base is the read-only knowledge base. Accessors return copies so request
// handling can never mutate it.
type Base struct {
	profile    Profile
	skills     []SkillCategory
	experience []Experience
	projects   []Project
}

type document struct {
	Profile    Profile         `yaml:"profile"`
	Skills     []SkillCategory `yaml:"skills"`
	Experience []Experience    `yaml:"experience"`
	Projects   []Project       `yaml:"projects"`
}

func newBase(doc document) (*Base, error) {
	if strings.TrimSpace(doc.Profile.Name) == "" {
		return nil, fmt.Errorf("knowledge base: profile.name is required")
	}
	if len(doc.Experience) == 0 {
		return nil, fmt.Errorf("knowledge base: at least one experience record is required")
	}
	for i, exp := range doc.Experience {
		if exp.Company == "" {
			return nil, fmt.Errorf("knowledge base: experience[%d] has no company", i)
		}
		if len(exp.Highlights) == 0 {
			return nil, fmt.Errorf("knowledge base: experience %q has no highlights", exp.Company)
		}
	}
	for i, cat := range doc.Skills {
		if cat.Key == "" {
			return nil, fmt.Errorf("knowledge base: skills[%d] has no key", i)
		}
	}
	b := &Base{
		profile:    doc.Profile,
		skills:     cloneSkills(doc.Skills),
		experience: cloneExperience(doc.Experience),
		projects:   cloneProjects(doc.Projects),
	}
	return b, nil
}

// Load reads a YAML knowledge base file. An empty path returns Default().
func Load(path string) (*Base, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge file %s: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing knowledge file %s: %w", path, err)
	}
	return newBase(doc)
}

func (b *Base) Profile() Profile { return b.profile }

func (b *Base) Skills() []SkillCategory { return cloneSkills(b.skills) }

// Skill returns the items for a category key.
func (b *Base) Skill(key string) ([]string, bool) {
	for _, c := range b.skills {
		if c.Key == key {
			return append([]string(nil), c.Items...), true
		}
	}
	return nil, false
}

func (b *Base) Experience() []Experience { return cloneExperience(b.experience) }

func (b *Base) Projects() []Project { return cloneProjects(b.projects) }

// Companies lists experience organisations in order.
func (b *Base) Companies() []string {
	out := make([]string, 0, len(b.experience))
	for _, e := range b.experience {
		out = append(out, e.Company)
	}
	return out
}

func cloneSkills(in []SkillCategory) []SkillCategory {
	out := make([]SkillCategory, len(in))
	for i, c := range in {
		out[i] = SkillCategory{Key: c.Key, Label: c.Label, Items: append([]string(nil), c.Items...)}
	}
	return out
}

func cloneExperience(in []Experience) []Experience {
	out := make([]Experience, len(in))
	for i, e := range in {
		out[i] = e
		out[i].Highlights = append([]string(nil), e.Highlights...)
	}
	return out
}

func cloneProjects(in []Project) []Project {
	out := make([]Project, len(in))
	for i, p := range in {
		out[i] = p
		out[i].Tech = append([]string(nil), p.Tech...)
	}
	return out
}
