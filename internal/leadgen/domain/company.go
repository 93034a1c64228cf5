// Package domain holds the lead generation module's company type.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Company is a lead generation prospect record. Companies synced from the
// CRM keep the account's id so the two records stay correlated.
// EmployeeCount and Revenue are display strings ("51-200", "$4.5M"), the
// shapes the prospecting UI works with.
type Company struct {
	ID            uuid.UUID
	Name          string
	Domain        string
	Website       string
	LinkedInURL   string
	Industry      string
	Location      string
	EmployeeCount string
	Revenue       string
	Founded       int
	Description   string
	Technologies  []string
	Keywords      []string
	Funding       string
	Logo          string
	Saved         bool
	LastSyncedAt  time.Time
}
