package service

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	accountsdomain "crm_backend/internal/accounts/domain"
	leadgendomain "crm_backend/internal/leadgen/domain"
)

func TestMapEmployeeCount(t *testing.T) {
	cases := []struct {
		employees int
		want      string
	}{
		{0, "1-10"},
		{1, "1-10"},
		{10, "1-10"},
		{11, "11-50"},
		{50, "11-50"},
		{200, "51-200"},
		{201, "201-500"},
		{1000, "501-1000"},
		{1001, "1000+"},
		{50000, "1000+"},
	}
	for _, tc := range cases {
		if got := MapEmployeeCount(tc.employees); got != tc.want {
			t.Errorf("MapEmployeeCount(%d) = %q, want %q", tc.employees, got, tc.want)
		}
	}
}

func TestEmployeeCountRoundTripIsLossy(t *testing.T) {
	// 125 is the representative midpoint for every value in 51-200.
	for _, employees := range []int{51, 125, 200} {
		mid, ok := ParseEmployeeCount(MapEmployeeCount(employees))
		if !ok {
			t.Fatalf("ParseEmployeeCount failed for bucket of %d", employees)
		}
		if mid != 125 {
			t.Fatalf("midpoint for %d employees = %d, want 125", employees, mid)
		}
	}
	if _, ok := ParseEmployeeCount("lots"); ok {
		t.Fatalf("unknown bucket label parsed")
	}
}

func TestFormatRevenue(t *testing.T) {
	cases := []struct {
		revenue int64
		want    string
	}{
		{0, "N/A"},
		{500, "$500"},
		{1_000, "$1.0K"},
		{450_000, "$450.0K"},
		{1_000_000, "$1.0M"},
		{4_500_000, "$4.5M"},
		{2_000_000_000, "$2000.0M"},
	}
	for _, tc := range cases {
		if got := FormatRevenue(tc.revenue); got != tc.want {
			t.Errorf("FormatRevenue(%d) = %q, want %q", tc.revenue, got, tc.want)
		}
	}
}

func TestParseRevenue(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"N/A", 0, false},
		{"", 0, false},
		{"$4.5M", 4_500_000, true},
		{"$450.0K", 450_000, true},
		{"$500", 500, true},
		{"2M", 2_000_000, true},
		{"garbage", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseRevenue(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseRevenue(%q) = (%d, %v), want (%d, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.acme.io/about", "acme.io"},
		{"http://acme.io", "acme.io"},
		{"acme.io", "acme.io"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractDomain(tc.in); got != tc.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCompanyFromAccount(t *testing.T) {
	now := time.Now().UTC()
	account := accountsdomain.Account{
		ID:            uuid.New(),
		Name:          "Acme Analytics Corp",
		Website:       "https://www.acme.io",
		Industry:      "Technology",
		Address:       "Austin, TX",
		Employees:     120,
		AnnualRevenue: 4_500_000,
		Technologies:  []string{"Go", "PostgreSQL"},
	}

	company := CompanyFromAccount(account, now)

	if company.ID != account.ID {
		t.Fatalf("company id %s does not reuse account id %s", company.ID, account.ID)
	}
	if company.Domain != "acme.io" {
		t.Fatalf("domain = %q, want acme.io", company.Domain)
	}
	if company.EmployeeCount != "51-200" {
		t.Fatalf("employeeCount = %q, want 51-200", company.EmployeeCount)
	}
	if company.Revenue != "$4.5M" {
		t.Fatalf("revenue = %q, want $4.5M", company.Revenue)
	}
	if company.Logo != "AAC" {
		t.Fatalf("logo = %q, want AAC", company.Logo)
	}
	wantKeywords := []string{"Technology", "Acme", "Analytics", "Corp", "Go", "PostgreSQL"}
	if !reflect.DeepEqual(company.Keywords, wantKeywords) {
		t.Fatalf("keywords = %v, want %v", company.Keywords, wantKeywords)
	}
}

func TestMergeCompanyIntoAccountNonEmptyWins(t *testing.T) {
	company := leadgendomain.Company{
		Industry:      "Healthcare",
		EmployeeCount: "11-50",
		Revenue:       "N/A",
		Description:   "",
		Technologies:  []string{"FHIR"},
	}

	p := MergeCompanyIntoAccount(company)

	if p.Industry == nil || *p.Industry != "Healthcare" {
		t.Fatalf("industry not merged: %v", p.Industry)
	}
	if p.Employees == nil || *p.Employees != 30 {
		t.Fatalf("employees = %v, want 30", p.Employees)
	}
	// Empty incoming fields must stay nil so existing account data survives.
	if p.AnnualRevenue != nil {
		t.Fatalf("N/A revenue overwrote account revenue")
	}
	if p.Description != nil {
		t.Fatalf("empty description overwrote account description")
	}
	if p.Website != nil || p.Address != nil {
		t.Fatalf("empty fields produced update params: %+v", p)
	}
}
