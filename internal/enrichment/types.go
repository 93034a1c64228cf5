// Package enrichment provides AI-backed company data enrichment with a
// deterministic heuristic fallback.
package enrichment

// Request identifies the company to enrich. Domain is preferred; Name and
// Website help the model when no domain is known.
type Request struct {
	Name    string
	Domain  string
	Website string
}

// CompanyProfile is the firmographic slice of an enrichment result.
type CompanyProfile struct {
	Domain        string   `json:"domain"`
	Industry      string   `json:"industry"`
	Employees     int      `json:"employees"`
	AnnualRevenue int64    `json:"annualRevenue"`
	FoundedYear   int      `json:"foundedYear"`
	Description   string   `json:"description"`
	Technologies  []string `json:"technologies"`
	LinkedInURL   string   `json:"linkedinUrl"`
}

// Insights is the scoring slice of an enrichment result.
type Insights struct {
	LeadScore          int      `json:"leadScore"`
	BuyingStage        string   `json:"buyingStage"`
	Signals            []string `json:"signals"`
	RecommendedActions []string `json:"recommendedActions"`
}

// Data is a complete enrichment result.
type Data struct {
	Company  CompanyProfile `json:"company"`
	Insights Insights       `json:"insights"`
	// Confidence is 0-100. Model-produced results score higher than
	// heuristic fallbacks.
	Confidence int `json:"confidence"`
}
