// Package domain holds the account bounded context's core types.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is a CRM company record. AnnualRevenue is whole dollars.
type Account struct {
	ID            uuid.UUID
	Name          string
	Domain        string
	Website       string
	LinkedInURL   string
	Industry      string
	Address       string
	Phone         string
	Employees     int
	AnnualRevenue int64
	FoundedYear   int
	Description   string
	Technologies  []string
	Tags          []string
	AccountType   string
	AccountStatus string
	HealthScore   int
	OwnerID       uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Contact is a person attached to an account.
type Contact struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Title     string
	CreatedAt time.Time
}

// Activity is a logged touchpoint on an account or deal. Source records
// which module produced it ("CRM", "LeadGen", "AI").
type Activity struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	DealID      *uuid.UUID
	Type        string
	Subject     string
	Description string
	Status      string
	Source      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Enrichment is the persisted AI enrichment snapshot for an account.
type Enrichment struct {
	AccountID     uuid.UUID
	Industry      string
	Employees     int
	AnnualRevenue int64
	FoundedYear   int
	Description   string
	Technologies  []string
	LeadScore     int
	Confidence    int
	EnrichedAt    time.Time
}
