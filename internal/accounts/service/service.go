// Package service implements account and activity use cases.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/accounts/domain"
	"crm_backend/internal/accounts/repository"
	"crm_backend/internal/accounts/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
)

const defaultListLimit = 100

type Service struct {
	repo *repository.Repository
	log  *logger.Logger
	now  func() time.Time
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// Create validates and stores a new account. Phone numbers are normalized
// to E.164 when possible.
func (s *Service) Create(ctx context.Context, req transport.CreateAccountRequest) (transport.AccountResponse, error) {
	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return transport.AccountResponse{}, apperr.Validation("ownerId must be a valid UUID").WithOp("accounts.Create")
	}

	now := s.now().UTC()
	account := domain.Account{
		ID:            uuid.New(),
		Name:          req.Name,
		Domain:        req.Domain,
		Website:       req.Website,
		LinkedInURL:   req.LinkedInURL,
		Industry:      req.Industry,
		Address:       req.Address,
		Phone:         phone.NormalizeE164(req.Phone),
		Employees:     req.Employees,
		AnnualRevenue: req.AnnualRevenue,
		FoundedYear:   req.FoundedYear,
		Description:   req.Description,
		Technologies:  req.Technologies,
		Tags:          req.Tags,
		AccountType:   req.AccountType,
		AccountStatus: "active",
		HealthScore:   50,
		OwnerID:       ownerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		s.log.DatabaseError("accounts.Create", err)
		return transport.AccountResponse{}, apperr.Wrap(apperr.KindInternal, "could not create account", err)
	}
	return transport.AccountFromDomain(account), nil
}

// Get loads one account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.AccountResponse, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.AccountResponse{}, s.mapRepoError("accounts.Get", err)
	}
	return transport.AccountFromDomain(account), nil
}

// List pages through accounts.
func (s *Service) List(ctx context.Context, limit, offset int) ([]transport.AccountResponse, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	accounts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, s.mapRepoError("accounts.List", err)
	}
	out := make([]transport.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, transport.AccountFromDomain(a))
	}
	return out, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateAccountRequest) (transport.AccountResponse, error) {
	params := repository.UpdateParams{
		Name:          req.Name,
		Domain:        req.Domain,
		Website:       req.Website,
		LinkedInURL:   req.LinkedInURL,
		Industry:      req.Industry,
		Address:       req.Address,
		Employees:     req.Employees,
		AnnualRevenue: req.AnnualRevenue,
		FoundedYear:   req.FoundedYear,
		Description:   req.Description,
		Technologies:  req.Technologies,
		Tags:          req.Tags,
		AccountType:   req.AccountType,
		AccountStatus: req.AccountStatus,
		HealthScore:   req.HealthScore,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}
	account, err := s.repo.Update(ctx, id, params)
	if err != nil {
		return transport.AccountResponse{}, s.mapRepoError("accounts.Update", err)
	}
	return transport.AccountFromDomain(account), nil
}

// Delete removes an account with its contacts and activities.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError("accounts.Delete", err)
	}
	return nil
}

// LogActivity records an activity against an account. The source defaults
// to CRM when the caller does not set one.
func (s *Service) LogActivity(ctx context.Context, accountID uuid.UUID, req transport.CreateActivityRequest) (transport.ActivityResponse, error) {
	if _, err := s.repo.GetByID(ctx, accountID); err != nil {
		return transport.ActivityResponse{}, s.mapRepoError("accounts.LogActivity", err)
	}

	var dealID *uuid.UUID
	if req.DealID != "" {
		id, err := uuid.Parse(req.DealID)
		if err != nil {
			return transport.ActivityResponse{}, apperr.Validation("dealId must be a valid UUID").WithOp("accounts.LogActivity")
		}
		dealID = &id
	}

	source := req.Source
	if source == "" {
		source = "CRM"
	}
	now := s.now().UTC()
	activity := domain.Activity{
		ID:          uuid.New(),
		AccountID:   accountID,
		DealID:      dealID,
		Type:        req.Type,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      req.Status,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		s.log.DatabaseError("accounts.LogActivity", err)
		return transport.ActivityResponse{}, apperr.Wrap(apperr.KindInternal, "could not log activity", err)
	}
	return transport.ActivityFromDomain(activity), nil
}

// ListActivities returns an account's activity feed.
func (s *Service) ListActivities(ctx context.Context, accountID uuid.UUID) ([]transport.ActivityResponse, error) {
	activities, err := s.repo.ListActivitiesByAccount(ctx, accountID)
	if err != nil {
		return nil, s.mapRepoError("accounts.ListActivities", err)
	}
	out := make([]transport.ActivityResponse, 0, len(activities))
	for _, a := range activities {
		out = append(out, transport.ActivityFromDomain(a))
	}
	return out, nil
}

func (s *Service) mapRepoError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("account not found").WithOp(op)
	}
	s.log.DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "database error", err)
}
