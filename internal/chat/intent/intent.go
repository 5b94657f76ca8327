// Package intent classifies free-text chat messages into a fixed set of
// topics with an ordered list of keyword rules. The first matching rule wins.
package intent

import "strings"

type Intent string

const (
	Greeting    Intent = "greeting"
	Intro       Intent = "intro"
	Skills      Intent = "skills"
	Experience  Intent = "experience"
	Projects    Intent = "projects"
	Performance Intent = "performance"
	Backend     Intent = "backend"
	Frontend    Intent = "frontend"
	Contact     Intent = "contact"
	General     Intent = "general"
)

var all = []Intent{Greeting, Intro, Skills, Experience, Projects, Performance, Backend, Frontend, Contact, General}

// All returns every intent in the closed set.
func All() []Intent {
	return append([]Intent(nil), all...)
}

// Valid reports whether i belongs to the closed set.
func Valid(i Intent) bool {
	for _, v := range all {
		if v == i {
			return true
		}
	}
	return false
}

// Rule maps a set of keywords to an intent. Keywords match as substrings of
// the lowercased message, so "hi" also matches "this".
type Rule struct {
	Intent   Intent
	Keywords []string
}

// Matches reports whether any keyword occurs in lower.
func (r Rule) Matches(lower string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// rules is evaluated top to bottom. Order is part of the contract: "backend
// skills" is a skills question because the skills rule comes first.
var rules = []Rule{
	{Skills, []string{"skill", "tech", "stack", "know", "proficient", "expert"}},
	{Experience, []string{"experience", "work", "job", "company", "career", "role"}},
	{Projects, []string{"project", "built", "created", "portfolio", "demo"}},
	{Contact, []string{"contact", "reach", "email", "linkedin", "github", "hire", "connect"}},
	{Intro, []string{"who", "about", "yourself", "introduce", "tell me"}},
	{Greeting, []string{"hi", "hello", "hey", "greet"}},
	{Performance, []string{"performance", "optimization", "cache", "fast", "speed"}},
	{Backend, []string{"backend", "api", "server", "database"}},
	{Frontend, []string{"frontend", "react", "ui", "ux"}},
}

// Rules returns a copy of the ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Intent: r.Intent, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// Classify returns the intent of the first matching rule, or General.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.Matches(lower) {
			return r.Intent
		}
	}
	return General
}
