package knowledge

// Default returns the built-in profile.
func Default() *Base {
	b, err := newBase(defaultDocument())
	if err != nil {
		panic(err)
	}
	return b
}

func defaultDocument() document {
	return document{
		Profile: Profile{
			Name:           "Vamsi Krishna Vissapragada",
			Title:          "Senior Software Engineer (SDE-3)",
			Employer:       "American Airlines",
			Specialization: "Building scalable backend systems, full-stack platforms, and AI-assisted tools",
			Focus:          "Microservices architecture, performance optimization, and production-grade systems",
			GitHub:         "https://github.com/vamsi-1234",
			LinkedIn:       "https://linkedin.com/in/vamsi-krishna-vissapragada-801602171",
		},
		Skills: []SkillCategory{
			{Key: "backend", Label: "🔧 Backend", Items: []string{"Python", "FastAPI", "Django", "REST APIs", "GraphQL", "PostgreSQL", "Redis"}},
			{Key: "frontend", Label: "🎨 Frontend", Items: []string{"React", "Next.js", "TypeScript", "Tailwind CSS", "Framer Motion"}},
			{Key: "devops", Label: "☁️ DevOps", Items: []string{"Docker", "Kubernetes", "CI/CD", "AWS", "Azure", "GitHub Actions"}},
			{Key: "ai", Label: "🤖 AI/ML", Items: []string{"Applied ML", "LLMs", "RAG Systems", "Intelligent Automation", "Log Analysis"}},
		},
		Experience: []Experience{
			{
				Company: "American Airlines",
				Role:    "Senior Software Engineer (SDE-3)",
				Period:  "2023 - Present",
				Highlights: []string{
					"Architected flight data caching system reducing API latency by 70%",
					"Built microservices handling 10K+ requests/second",
					"Implemented batch processing pipelines for data synchronization",
					"Led team of 4 engineers on critical production systems",
				},
			},
			{
				Company: "MaxLinear Technologies",
				Role:    "Software Development Engineer",
				Period:  "2021 - 2023",
				Highlights: []string{
					"Improved UI engagement by 30% using React + TypeScript",
					"Built AI-assisted log analysis tool reducing debugging time by 25%",
					"Reduced deployment time by 35% with Docker CI/CD pipelines",
					"Implemented WebSocket-based real-time dashboard updates",
				},
			},
		},
		Projects: []Project{
			{Name: "Flight Data Caching System", Tech: []string{"Redis", "FastAPI", "Python"}, Impact: "70% faster API responses, 50% reduction in database load"},
			{Name: "AI Log Analyzer", Tech: []string{"Python", "ML", "ElasticSearch"}, Impact: "25% faster debugging, automated error pattern detection"},
			{Name: "Real-time Dashboard", Tech: []string{"React", "WebSocket", "Node.js"}, Impact: "90% reduction in server load vs polling"},
			{Name: "Batch Processing Pipeline", Tech: []string{"Python", "Celery", "PostgreSQL"}, Impact: "60% reduction in data sync latency"},
		},
	}
}
