package scraper

// DemoProducts is the fixed sample returned when demo_fallback is enabled and
// no live data could be obtained. A fresh slice is returned on every call.
func DemoProducts() []Product {
	return []Product{
		{
			Name:        "AI Writing Assistant",
			URL:         productHuntSite + "/posts/ai-writing-assistant",
			Description: "An intelligent writing assistant that helps you create better content with AI-powered suggestions and grammar checking.",
			Tags:        []string{"AI", "Productivity", "Writing"},
			Votes:       245,
		},
		{
			Name:        "TaskFlow Pro",
			URL:         productHuntSite + "/posts/taskflow-pro",
			Description: "A powerful project management tool designed for remote teams to collaborate effectively and track progress in real-time.",
			Tags:        []string{"Productivity", "Project Management", "Collaboration"},
			Votes:       189,
		},
		{
			Name:        "DesignHub",
			URL:         productHuntSite + "/posts/designhub",
			Description: "All-in-one design platform for creating stunning graphics, prototypes, and user interfaces with advanced collaboration features.",
			Tags:        []string{"Design", "Prototyping", "UI/UX"},
			Votes:       312,
		},
		{
			Name:        "CodeSync",
			URL:         productHuntSite + "/posts/codesync",
			Description: "Real-time code collaboration platform that allows developers to work together seamlessly with live editing and version control.",
			Tags:        []string{"Development", "Collaboration", "Code"},
			Votes:       156,
		},
		{
			Name:        "DataViz Studio",
			URL:         productHuntSite + "/posts/dataviz-studio",
			Description: "Advanced data visualization tool that transforms complex data into beautiful, interactive charts and dashboards.",
			Tags:        []string{"Data", "Analytics", "Visualization"},
			Votes:       203,
		},
		{
			Name:        "SecureChat",
			URL:         productHuntSite + "/posts/securechat",
			Description: "End-to-end encrypted messaging app with advanced security features for businesses and individuals.",
			Tags:        []string{"Security", "Communication", "Privacy"},
			Votes:       178,
		},
		{
			Name:        "EcoTracker",
			URL:         productHuntSite + "/posts/ecotracker",
			Description: "Personal carbon footprint tracker that helps you monitor and reduce your environmental impact through smart insights.",
			Tags:        []string{"Sustainability", "Health", "Environment"},
			Votes:       134,
		},
		{
			Name:        "LearnFlow",
			URL:         productHuntSite + "/posts/learnflow",
			Description: "Adaptive learning platform that personalizes educational content based on your learning style and progress.",
			Tags:        []string{"Education", "Learning", "Personalization"},
			Votes:       267,
		},
		{
			Name:        "FinanceWise",
			URL:         productHuntSite + "/posts/financewise",
			Description: "Smart financial planning app that helps you budget, invest, and achieve your financial goals with AI-powered insights.",
			Tags:        []string{"Finance", "Budgeting", "Investment"},
			Votes:       198,
		},
		{
			Name:        "HealthSync",
			URL:         productHuntSite + "/posts/healthsync",
			Description: "Comprehensive health monitoring app that syncs with your devices to track fitness, nutrition, and wellness metrics.",
			Tags:        []string{"Health", "Fitness", "Wellness"},
			Votes:       223,
		},
	}
}
