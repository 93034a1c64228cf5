package enrichment

import "strings"

// Deterministic scoring and inference used when no AI provider is
// configured, and to sanity-check model output.

var industryNameHints = map[string][]string{
	"Technology":         {"tech", "software", "digital", "ai", "data"},
	"Financial Services": {"bank", "financial", "capital", "invest"},
	"Healthcare":         {"health", "medical", "pharma", "bio"},
}

var industryTechStacks = map[string][]string{
	"Technology":         {"React", "Node.js", "PostgreSQL", "AWS", "Docker", "TypeScript"},
	"Financial Services": {"Java", "Oracle", "Kubernetes", "MongoDB", "Python"},
	"Healthcare":         {"Python", "TensorFlow", "FHIR", "PostgreSQL", "React"},
}

var defaultTechStack = []string{"JavaScript", "Python", "PostgreSQL", "AWS", "React"}

var fitIndustries = map[string]bool{
	"technology": true, "software": true, "saas": true, "fintech": true, "healthcare": true,
}

// InferIndustry guesses an industry from the company name.
func InferIndustry(name string) string {
	lower := strings.ToLower(name)
	for _, industry := range []string{"Technology", "Financial Services", "Healthcare"} {
		for _, hint := range industryNameHints[industry] {
			if strings.Contains(lower, hint) {
				return industry
			}
		}
	}
	return "Technology"
}

// TechStackFor returns a typical technology stack for an industry.
func TechStackFor(industry string) []string {
	if stack, ok := industryTechStacks[industry]; ok {
		return append([]string(nil), stack...)
	}
	return append([]string(nil), defaultTechStack...)
}

// FitScore rates how well a company profile matches the ideal customer
// profile, on a 0-100 scale. Larger companies in relevant industries with a
// matching stack score higher.
func FitScore(profile CompanyProfile) int {
	score := 0

	switch {
	case profile.Employees >= 500:
		score += 32
	case profile.Employees >= 100:
		score += 24
	case profile.Employees >= 50:
		score += 16
	default:
		score += 8
	}

	if fitIndustries[strings.ToLower(profile.Industry)] {
		score += 28
	} else {
		score += 12
	}

	relevantTech := map[string]bool{"react": true, "node.js": true, "aws": true, "python": true, "kubernetes": true}
	matches := 0
	for _, tech := range profile.Technologies {
		if relevantTech[strings.ToLower(tech)] {
			matches++
		}
	}
	if matches > 4 {
		matches = 4
	}
	score += matches * 10

	if score > 100 {
		score = 100
	}
	return score
}

// HeuristicData builds a fallback enrichment result without calling any
// provider. The result is deterministic for a given request.
func HeuristicData(req Request) Data {
	industry := InferIndustry(req.Name)
	profile := CompanyProfile{
		Domain:       req.Domain,
		Industry:     industry,
		Description:  req.Name + " operates in the " + strings.ToLower(industry) + " sector.",
		Technologies: TechStackFor(industry),
	}
	score := FitScore(profile)
	return Data{
		Company: profile,
		Insights: Insights{
			LeadScore:          score,
			BuyingStage:        "awareness",
			RecommendedActions: []string{"Verify firmographics before outreach"},
		},
		Confidence: 30,
	}
}
