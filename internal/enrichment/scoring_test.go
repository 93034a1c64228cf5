package enrichment

import "testing"

func TestInferIndustry(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Acme Software", "Technology"},
		{"DataWorks AI", "Technology"},
		{"First Capital Bank", "Financial Services"},
		{"BioPharma Labs", "Healthcare"},
		{"Smith & Sons", "Technology"}, // default
	}
	for _, tc := range cases {
		if got := InferIndustry(tc.name); got != tc.want {
			t.Errorf("InferIndustry(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFitScoreOrdering(t *testing.T) {
	small := CompanyProfile{Employees: 10, Industry: "Retail"}
	large := CompanyProfile{Employees: 800, Industry: "SaaS", Technologies: []string{"React", "AWS", "Python"}}

	if FitScore(small) >= FitScore(large) {
		t.Fatalf("small company scored %d, large %d; want large higher", FitScore(small), FitScore(large))
	}
	if s := FitScore(large); s > 100 {
		t.Fatalf("score %d exceeds 100", s)
	}
}

func TestHeuristicDataDeterministic(t *testing.T) {
	req := Request{Name: "Acme Software", Domain: "acme.io"}
	a := HeuristicData(req)
	b := HeuristicData(req)
	if a.Company.Industry != b.Company.Industry || a.Insights.LeadScore != b.Insights.LeadScore {
		t.Fatalf("heuristic enrichment not deterministic: %+v vs %+v", a, b)
	}
	if a.Company.Domain != "acme.io" {
		t.Fatalf("domain = %q, want acme.io", a.Company.Domain)
	}
	if a.Confidence >= 50 {
		t.Fatalf("heuristic confidence = %d, want below 50", a.Confidence)
	}
}
