// Package response renders the canned assistant reply for each intent from
// the knowledge base. Output is byte-stable for a given knowledge base.
package response

import (
	"fmt"
	"strings"

	"github.com/vamsi-1234/portfolio-engine/internal/chat/intent"
	"github.com/vamsi-1234/portfolio-engine/internal/knowledge"
)

// Response is the rendered text plus a small structured description of what
// it was built from. Context is for observability only.
type Response struct {
	Text    string         `json:"text"`
	Context map[string]any `json:"context"`
}

type renderFunc func(kb *knowledge.Base) Response

type Generator struct {
	kb        *knowledge.Base
	templates map[intent.Intent]renderFunc
}

func NewGenerator(kb *knowledge.Base) *Generator {
	return &Generator{
		kb: kb,
		templates: map[intent.Intent]renderFunc{
			intent.Greeting:    greeting,
			intent.Intro:       intro,
			intent.Skills:      skills,
			intent.Experience:  experience,
			intent.Projects:    projects,
			intent.Performance: performance,
			intent.Backend:     backend,
			intent.Frontend:    frontend,
			intent.Contact:     contact,
			intent.General:     general,
		},
	}
}

// Generate renders the reply for in. Unregistered intents fall back to the
// general template.
func (g *Generator) Generate(in intent.Intent) Response {
	render, ok := g.templates[in]
	if !ok {
		render = general
	}
	return render(g.kb)
}

func greeting(kb *knowledge.Base) Response {
	p := kb.Profile()
	return Response{
		Text: fmt.Sprintf("Hey there! 👋 I'm %s's AI assistant, powered by a custom MCP backend. "+
			"I have access to his complete professional profile. What would you like to know about his skills, experience, or projects?",
			p.FirstName()),
		Context: map[string]any{"intent": string(intent.Greeting), "confidence": 0.95},
	}
}

func intro(kb *knowledge.Base) Response {
	p := kb.Profile()
	var b strings.Builder
	fmt.Fprintf(&b, "I'm the AI assistant for **%s**, a %s at %s.\n\n", p.Name, p.Title, p.Employer)
	fmt.Fprintf(&b, "🎯 **Specialization**: %s\n\n", p.Specialization)
	fmt.Fprintf(&b, "💼 **Current Focus**: %s\n\n", p.Focus)
	b.WriteString("Feel free to ask about his skills, experience, or projects!")
	return Response{
		Text:    b.String(),
		Context: map[string]any{"intent": string(intent.Intro), "dataSource": "knowledgeBase"},
	}
}

func skills(kb *knowledge.Base) Response {
	cats := kb.Skills()
	var b strings.Builder
	fmt.Fprintf(&b, "Here's %s's technical expertise:\n\n", kb.Profile().FirstName())
	bySkill := make(map[string][]string, len(cats))
	for _, c := range cats {
		label := c.Label
		if label == "" {
			label = c.Key
		}
		fmt.Fprintf(&b, "**%s**\n%s\n\n", label, strings.Join(c.Items, ", "))
		bySkill[c.Key] = c.Items
	}
	b.WriteString("He specializes in building production-grade systems that handle high traffic!")
	return Response{
		Text:    b.String(),
		Context: map[string]any{"intent": string(intent.Skills), "skills": bySkill},
	}
}

func experience(kb *knowledge.Base) Response {
	records := kb.Experience()
	blocks := make([]string, 0, len(records))
	for _, exp := range records {
		var b strings.Builder
		fmt.Fprintf(&b, "**%s** (%s)\n*%s*", exp.Company, exp.Period, exp.Role)
		for _, h := range exp.Highlights {
			fmt.Fprintf(&b, "\n• %s", h)
		}
		blocks = append(blocks, b.String())
	}
	return Response{
		Text:    strings.Join(blocks, "\n\n"),
		Context: map[string]any{"intent": string(intent.Experience), "companies": kb.Companies()},
	}
}

func projects(kb *knowledge.Base) Response {
	list := kb.Projects()
	blocks := make([]string, 0, len(list))
	for _, p := range list {
		blocks = append(blocks, fmt.Sprintf("**%s**\n🛠️ %s\n📈 %s", p.Name, strings.Join(p.Tech, ", "), p.Impact))
	}
	text := "Here are some notable projects:\n\n" + strings.Join(blocks, "\n\n") +
		"\n\nCheck out the **Performance Optimizations** section on this page for live demos!"
	return Response{
		Text:    text,
		Context: map[string]any{"intent": string(intent.Projects), "projectCount": len(list)},
	}
}

func performance(kb *knowledge.Base) Response {
	text := fmt.Sprintf("%s has implemented several performance optimizations:\n\n", kb.Profile().FirstName()) +
		"**1. Smart Caching** (American Airlines)\nRedis caching for flight data → 70% faster responses\n\n" +
		"**2. Indexed Search** (MaxLinear)\nO(log n) search algorithm → 25% faster debugging\n\n" +
		"**3. Batch Processing** (American Airlines)\nConnection pooling → 60% less latency\n\n" +
		"**4. WebSocket Events** (MaxLinear)\nReal-time updates → 90% less server load\n\n" +
		"👇 **Try the live demos in the Performance Optimizations section!**"
	return Response{
		Text:    text,
		Context: map[string]any{"intent": string(intent.Performance), "hasLiveDemos": true},
	}
}

func backend(kb *knowledge.Base) Response {
	text := fmt.Sprintf("%s's backend expertise includes:\n\n", kb.Profile().FirstName()) +
		"**Languages**: Python (primary), Node.js, Go\n" +
		"**Frameworks**: FastAPI, Django, Express\n" +
		"**Databases**: PostgreSQL, Redis, MongoDB, ElasticSearch\n" +
		"**Architecture**: Microservices, Event-driven, REST/GraphQL APIs\n\n" +
		"🔥 **Highlight**: Built APIs handling 10K+ requests/second at American Airlines"
	return Response{
		Text:    text,
		Context: map[string]any{"intent": string(intent.Backend), "focus": "scalability"},
	}
}

func frontend(kb *knowledge.Base) Response {
	text := fmt.Sprintf("%s's frontend skills:\n\n", kb.Profile().FirstName()) +
		"**Core**: React, Next.js, TypeScript\n" +
		"**Styling**: Tailwind CSS, CSS-in-JS, Framer Motion\n" +
		"**State**: Redux, Zustand, React Query\n" +
		"**Testing**: Jest, React Testing Library, Cypress\n\n" +
		"✨ **This portfolio itself** showcases his frontend skills with smooth animations and responsive design!"
	return Response{
		Text:    text,
		Context: map[string]any{"intent": string(intent.Frontend), "showcase": "portfolio"},
	}
}

func contact(kb *knowledge.Base) Response {
	p := kb.Profile()
	first := p.FirstName()
	var b strings.Builder
	fmt.Fprintf(&b, "You can reach %s at:\n\n", first)
	if p.GitHub != "" {
		fmt.Fprintf(&b, "🔗 **GitHub**: [%s](%s)\n", strings.TrimPrefix(p.GitHub, "https://"), p.GitHub)
	}
	if p.LinkedIn != "" {
		fmt.Fprintf(&b, "🔗 **LinkedIn**: [Connect with %s](%s)\n", first, p.LinkedIn)
	}
	b.WriteString("\n💡 He's open to discussing interesting opportunities and collaborations!")
	return Response{
		Text:    b.String(),
		Context: map[string]any{"intent": string(intent.Contact), "available": true},
	}
}

func general(kb *knowledge.Base) Response {
	text := fmt.Sprintf("That's a great question! I'm %s's AI assistant with access to his complete professional profile.\n\n", kb.Profile().FirstName()) +
		"I can tell you about:\n" +
		"• **Skills** - Technical expertise and tools\n" +
		"• **Experience** - Work history and achievements\n" +
		"• **Projects** - Notable work and impact\n" +
		"• **Performance** - Optimization techniques (with live demos!)\n\n" +
		"What interests you most?"
	return Response{
		Text: text,
		Context: map[string]any{
			"intent":          string(intent.General),
			"suggestedTopics": []string{"skills", "experience", "projects"},
		},
	}
}
