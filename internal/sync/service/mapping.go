// Package service implements the reconciliation of account data between
// the CRM and lead generation modules.
package service

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	accountsdomain "crm_backend/internal/accounts/domain"
	accountsrepo "crm_backend/internal/accounts/repository"
	leadgendomain "crm_backend/internal/leadgen/domain"
)

// Data shape translation between the two modules. Employee counts and
// revenue are exact on the CRM side and bucketed display strings on the
// lead generation side, so round trips are lossy on purpose.

var employeeBuckets = []struct {
	max   int
	label string
}{
	{10, "1-10"},
	{50, "11-50"},
	{200, "51-200"},
	{500, "201-500"},
	{1000, "501-1000"},
}

// employeeBucketMidpoints maps a bucket label back to a representative
// count.
var employeeBucketMidpoints = map[string]int{
	"1-10":     5,
	"11-50":    30,
	"51-200":   125,
	"201-500":  350,
	"501-1000": 750,
	"1000+":    2000,
}

// MapEmployeeCount buckets an exact head count into a display range.
func MapEmployeeCount(employees int) string {
	if employees <= 0 {
		return "1-10"
	}
	for _, b := range employeeBuckets {
		if employees <= b.max {
			return b.label
		}
	}
	return "1000+"
}

// ParseEmployeeCount resolves a bucket label to its midpoint. Unknown
// labels report false.
func ParseEmployeeCount(label string) (int, bool) {
	n, ok := employeeBucketMidpoints[label]
	return n, ok
}

// FormatRevenue renders whole-dollar revenue as a compact display string.
func FormatRevenue(revenue int64) string {
	switch {
	case revenue <= 0:
		return "N/A"
	case revenue >= 1_000_000:
		return fmt.Sprintf("$%.1fM", float64(revenue)/1_000_000)
	case revenue >= 1_000:
		return fmt.Sprintf("$%.1fK", float64(revenue)/1_000)
	default:
		return fmt.Sprintf("$%d", revenue)
	}
}

var revenuePattern = regexp.MustCompile(`\$?(\d+(?:\.\d+)?)([KM])?`)

// ParseRevenue converts a display revenue string back to dollars. "N/A"
// and unparseable strings report false.
func ParseRevenue(s string) (int64, bool) {
	if s == "" || s == "N/A" {
		return 0, false
	}
	m := revenuePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch m[2] {
	case "M":
		value *= 1_000_000
	case "K":
		value *= 1_000
	}
	return int64(value), true
}

// Keywords derives prospecting keywords from an account: its industry,
// significant name words, and technologies.
func Keywords(a accountsdomain.Account) []string {
	var out []string
	if a.Industry != "" {
		out = append(out, a.Industry)
	}
	for _, word := range strings.Fields(a.Name) {
		if len(word) > 3 {
			out = append(out, word)
		}
	}
	out = append(out, a.Technologies...)
	return out
}

// LogoInitials builds a placeholder logo from the company name's initials.
func LogoInitials(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		r := []rune(f)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

// ExtractDomain pulls a bare domain out of a website URL.
func ExtractDomain(website string) string {
	if website == "" {
		return ""
	}
	raw := website
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// CompanyFromAccount maps a CRM account to its lead generation projection.
// The account id is reused so repeated syncs update the same company row.
func CompanyFromAccount(a accountsdomain.Account, now time.Time) leadgendomain.Company {
	domain := a.Domain
	if domain == "" {
		domain = ExtractDomain(a.Website)
	}
	return leadgendomain.Company{
		ID:            a.ID,
		Name:          a.Name,
		Domain:        domain,
		Website:       a.Website,
		LinkedInURL:   a.LinkedInURL,
		Industry:      a.Industry,
		Location:      a.Address,
		EmployeeCount: MapEmployeeCount(a.Employees),
		Revenue:       FormatRevenue(a.AnnualRevenue),
		Founded:       a.FoundedYear,
		Description:   a.Description,
		Technologies:  a.Technologies,
		Keywords:      Keywords(a),
		Funding:       "Unknown",
		Logo:          LogoInitials(a.Name),
		Saved:         true,
		LastSyncedAt:  now,
	}
}

// MergeCompanyIntoAccount builds a partial account update from a lead
// generation company. Incoming non-empty fields win; empty incoming fields
// leave the account untouched.
func MergeCompanyIntoAccount(c leadgendomain.Company) accountsrepo.UpdateParams {
	var p accountsrepo.UpdateParams
	if c.Website != "" {
		p.Website = &c.Website
	}
	if c.LinkedInURL != "" {
		p.LinkedInURL = &c.LinkedInURL
	}
	if c.Industry != "" {
		p.Industry = &c.Industry
	}
	if c.Location != "" {
		p.Address = &c.Location
	}
	if n, ok := ParseEmployeeCount(c.EmployeeCount); ok {
		p.Employees = &n
	}
	if revenue, ok := ParseRevenue(c.Revenue); ok {
		p.AnnualRevenue = &revenue
	}
	if c.Founded != 0 {
		founded := c.Founded
		p.FoundedYear = &founded
	}
	if c.Description != "" {
		p.Description = &c.Description
	}
	if len(c.Technologies) > 0 {
		p.Technologies = c.Technologies
	}
	if len(c.Keywords) > 0 {
		p.Tags = c.Keywords
	}
	return p
}
