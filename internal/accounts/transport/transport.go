// Package transport defines HTTP request and response types for accounts.
package transport

import (
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/accounts/domain"
)

type CreateAccountRequest struct {
	Name          string   `json:"name" validate:"required,min=1,max=255"`
	Domain        string   `json:"domain" validate:"max=255"`
	Website       string   `json:"website" validate:"omitempty,url"`
	LinkedInURL   string   `json:"linkedinUrl" validate:"omitempty,url"`
	Industry      string   `json:"industry" validate:"max=100"`
	Address       string   `json:"address" validate:"max=500"`
	Phone         string   `json:"phone" validate:"max=50"`
	Employees     int      `json:"employees" validate:"gte=0"`
	AnnualRevenue int64    `json:"annualRevenue" validate:"gte=0"`
	FoundedYear   int      `json:"foundedYear" validate:"omitempty,gte=1800,lte=2100"`
	Description   string   `json:"description"`
	Technologies  []string `json:"technologies"`
	Tags          []string `json:"tags"`
	AccountType   string   `json:"accountType" validate:"max=50"`
	OwnerID       string   `json:"ownerId" validate:"required,uuid"`
}

type UpdateAccountRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Domain        *string  `json:"domain" validate:"omitempty,max=255"`
	Website       *string  `json:"website" validate:"omitempty,url"`
	LinkedInURL   *string  `json:"linkedinUrl" validate:"omitempty,url"`
	Industry      *string  `json:"industry" validate:"omitempty,max=100"`
	Address       *string  `json:"address" validate:"omitempty,max=500"`
	Phone         *string  `json:"phone" validate:"omitempty,max=50"`
	Employees     *int     `json:"employees" validate:"omitempty,gte=0"`
	AnnualRevenue *int64   `json:"annualRevenue" validate:"omitempty,gte=0"`
	FoundedYear   *int     `json:"foundedYear" validate:"omitempty,gte=1800,lte=2100"`
	Description   *string  `json:"description"`
	Technologies  []string `json:"technologies"`
	Tags          []string `json:"tags"`
	AccountType   *string  `json:"accountType" validate:"omitempty,max=50"`
	AccountStatus *string  `json:"accountStatus" validate:"omitempty,max=50"`
	HealthScore   *int     `json:"healthScore" validate:"omitempty,gte=0,lte=100"`
}

type CreateActivityRequest struct {
	DealID      string `json:"dealId" validate:"omitempty,uuid"`
	Type        string `json:"type" validate:"required,max=50"`
	Subject     string `json:"subject" validate:"required,max=255"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"max=50"`
	Source      string `json:"source" validate:"max=50"`
}

type AccountResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Domain        string    `json:"domain,omitempty"`
	Website       string    `json:"website,omitempty"`
	LinkedInURL   string    `json:"linkedinUrl,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	Address       string    `json:"address,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Employees     int       `json:"employees"`
	AnnualRevenue int64     `json:"annualRevenue"`
	FoundedYear   int       `json:"foundedYear,omitempty"`
	Description   string    `json:"description,omitempty"`
	Technologies  []string  `json:"technologies,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	AccountType   string    `json:"accountType,omitempty"`
	AccountStatus string    `json:"accountStatus,omitempty"`
	HealthScore   int       `json:"healthScore"`
	OwnerID       uuid.UUID `json:"ownerId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type ActivityResponse struct {
	ID          uuid.UUID  `json:"id"`
	AccountID   uuid.UUID  `json:"accountId"`
	DealID      *uuid.UUID `json:"dealId,omitempty"`
	Type        string     `json:"type"`
	Subject     string     `json:"subject"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Source      string     `json:"source"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func AccountFromDomain(a domain.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		Name:          a.Name,
		Domain:        a.Domain,
		Website:       a.Website,
		LinkedInURL:   a.LinkedInURL,
		Industry:      a.Industry,
		Address:       a.Address,
		Phone:         a.Phone,
		Employees:     a.Employees,
		AnnualRevenue: a.AnnualRevenue,
		FoundedYear:   a.FoundedYear,
		Description:   a.Description,
		Technologies:  a.Technologies,
		Tags:          a.Tags,
		AccountType:   a.AccountType,
		AccountStatus: a.AccountStatus,
		HealthScore:   a.HealthScore,
		OwnerID:       a.OwnerID,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func ActivityFromDomain(a domain.Activity) ActivityResponse {
	return ActivityResponse{
		ID:          a.ID,
		AccountID:   a.AccountID,
		DealID:      a.DealID,
		Type:        a.Type,
		Subject:     a.Subject,
		Description: a.Description,
		Status:      a.Status,
		Source:      a.Source,
		CreatedAt:   a.CreatedAt,
	}
}
