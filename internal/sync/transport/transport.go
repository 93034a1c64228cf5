// Package transport defines HTTP request and response types for the sync
// module.
package transport

import (
	"time"

	accountsdomain "crm_backend/internal/accounts/domain"
	accountsrepo "crm_backend/internal/accounts/repository"
	syncservice "crm_backend/internal/sync/service"
	"crm_backend/internal/sync/tracker"
)

// AutoFillRequest identifies the company to suggest field values for.
type AutoFillRequest struct {
	Name    string `json:"name" validate:"max=255"`
	Domain  string `json:"domain" validate:"max=255"`
	Website string `json:"website" validate:"omitempty,url"`
}

// AutoFillResponse carries suggested field values. Absent fields mean no
// suggestion.
type AutoFillResponse struct {
	Industry      *string  `json:"industry,omitempty"`
	Employees     *int     `json:"employees,omitempty"`
	AnnualRevenue *int64   `json:"annualRevenue,omitempty"`
	FoundedYear   *int     `json:"foundedYear,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Technologies  []string `json:"technologies,omitempty"`
}

// StatusResponse is the account sync health summary.
type StatusResponse struct {
	LastSync        *time.Time `json:"lastSync"`
	SyncHealth      string     `json:"syncHealth"`
	Conflicts       int        `json:"conflicts"`
	PendingUpdates  int        `json:"pendingUpdates"`
	AutoSyncEnabled bool       `json:"autoSyncEnabled"`
}

// EnrichmentResponse is the stored enrichment snapshot.
type EnrichmentResponse struct {
	Industry      string    `json:"industry,omitempty"`
	Employees     int       `json:"employees,omitempty"`
	AnnualRevenue int64     `json:"annualRevenue,omitempty"`
	FoundedYear   int       `json:"foundedYear,omitempty"`
	Description   string    `json:"description,omitempty"`
	Technologies  []string  `json:"technologies,omitempty"`
	LeadScore     int       `json:"leadScore"`
	Confidence    int       `json:"confidence"`
	EnrichedAt    time.Time `json:"enrichedAt"`
}

// MetricsResponse is the cross-module CRM rollup for one account.
type MetricsResponse struct {
	TotalDeals          int        `json:"totalDeals"`
	TotalRevenueCents   int64      `json:"totalRevenueCents"`
	AverageDealCents    int64      `json:"averageDealCents"`
	WonDeals            int        `json:"wonDeals"`
	ContactCount        int        `json:"contactCount"`
	ActivityCount       int        `json:"activityCount"`
	LastActivityAt      *time.Time `json:"lastActivityAt,omitempty"`
	LastActivityType    string     `json:"lastActivityType,omitempty"`
	LastActivitySubject string     `json:"lastActivitySubject,omitempty"`
}

func StatusFromTracker(s tracker.AccountStatus, autoSync bool) StatusResponse {
	return StatusResponse{
		LastSync:        s.LastSync,
		SyncHealth:      string(s.Health),
		Conflicts:       s.Conflicts,
		PendingUpdates:  s.PendingUpdates,
		AutoSyncEnabled: autoSync,
	}
}

func EnrichmentFromDomain(e accountsdomain.Enrichment) EnrichmentResponse {
	return EnrichmentResponse{
		Industry:      e.Industry,
		Employees:     e.Employees,
		AnnualRevenue: e.AnnualRevenue,
		FoundedYear:   e.FoundedYear,
		Description:   e.Description,
		Technologies:  e.Technologies,
		LeadScore:     e.LeadScore,
		Confidence:    e.Confidence,
		EnrichedAt:    e.EnrichedAt,
	}
}

func AutoFillFromParams(p accountsrepo.UpdateParams) AutoFillResponse {
	return AutoFillResponse{
		Industry:      p.Industry,
		Employees:     p.Employees,
		AnnualRevenue: p.AnnualRevenue,
		FoundedYear:   p.FoundedYear,
		Description:   p.Description,
		Technologies:  p.Technologies,
	}
}

func MetricsFromService(m syncservice.CRMMetrics) MetricsResponse {
	return MetricsResponse{
		TotalDeals:          m.TotalDeals,
		TotalRevenueCents:   m.TotalRevenueCents,
		AverageDealCents:    m.AverageDealCents,
		WonDeals:            m.WonDeals,
		ContactCount:        m.ContactCount,
		ActivityCount:       m.ActivityCount,
		LastActivityAt:      m.LastActivityAt,
		LastActivityType:    m.LastActivityType,
		LastActivitySubject: m.LastActivitySubject,
	}
}
