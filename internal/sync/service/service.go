package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	accountsdomain "crm_backend/internal/accounts/domain"
	accountsrepo "crm_backend/internal/accounts/repository"
	"crm_backend/internal/enrichment"
	"crm_backend/internal/events"
	leadgendomain "crm_backend/internal/leadgen/domain"
	pipelinedomain "crm_backend/internal/pipeline/domain"
	"crm_backend/internal/sync/tracker"
	"crm_backend/platform/apperr"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"
)

// SourceLeadGen is the activity source tag applied by activity syncs.
const SourceLeadGen = "LeadGen"

// AccountStore is the account persistence port.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (accountsdomain.Account, error)
	GetByDomain(ctx context.Context, domain string) (accountsdomain.Account, bool, error)
	Create(ctx context.Context, a accountsdomain.Account) error
	Update(ctx context.Context, id uuid.UUID, p accountsrepo.UpdateParams) (accountsdomain.Account, error)
	CountContacts(ctx context.Context, accountID uuid.UUID) (int, error)
	SaveEnrichment(ctx context.Context, e accountsdomain.Enrichment) error
	ListActivitiesByAccount(ctx context.Context, accountID uuid.UUID) ([]accountsdomain.Activity, error)
	BulkRetagSource(ctx context.Context, accountID uuid.UUID, source string) (int, error)
	ActivitySourceStats(ctx context.Context, accountID uuid.UUID) (map[string]int, error)
}

// DealReader reads pipeline deals for metric rollups.
type DealReader interface {
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]pipelinedomain.Deal, error)
}

// LeadGenStore is the lead generation persistence port.
type LeadGenStore interface {
	Upsert(ctx context.Context, c leadgendomain.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (leadgendomain.Company, bool, error)
	FindByDomain(ctx context.Context, domain string) (leadgendomain.Company, bool, error)
}

// Enricher is the AI enrichment port.
type Enricher interface {
	Enrich(ctx context.Context, req enrichment.Request) (enrichment.Data, error)
}

// CRMMetrics is the cross-module rollup of an account's CRM footprint.
type CRMMetrics struct {
	TotalDeals          int
	TotalRevenueCents   int64
	AverageDealCents    int64
	WonDeals            int
	ContactCount        int
	ActivityCount       int
	LastActivityAt      *time.Time
	LastActivityType    string
	LastActivitySubject string
}

// Service reconciles account data across the CRM and lead generation
// modules and records every run in the operation tracker.
type Service struct {
	accounts AccountStore
	deals    DealReader
	leadgen  LeadGenStore
	enricher Enricher
	tracker  *tracker.Tracker
	bus      events.Bus
	log      *logger.Logger
	cfg      config.SyncConfig
	now      func() time.Time
}

func New(accounts AccountStore, deals DealReader, leadgen LeadGenStore, enricher Enricher,
	tr *tracker.Tracker, bus events.Bus, log *logger.Logger, cfg config.SyncConfig) *Service {
	return &Service{
		accounts: accounts,
		deals:    deals,
		leadgen:  leadgen,
		enricher: enricher,
		tracker:  tr,
		bus:      bus,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// EnrichAccount runs AI enrichment for an account, merges the result with
// existing data (existing non-empty account fields win), and stores the
// snapshot. Provider failures mark the operation failed and propagate.
func (s *Service) EnrichAccount(ctx context.Context, accountID uuid.UUID) (accountsdomain.Enrichment, error) {
	op, err := s.tracker.Begin(ctx, tracker.TypeEnrichment, &accountID, "AI enrichment for account "+accountID.String())
	if err != nil {
		return accountsdomain.Enrichment{}, apperr.Wrap(apperr.KindInternal, "could not record sync operation", err)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		s.failOp(ctx, op.ID, err)
		if errors.Is(err, accountsrepo.ErrNotFound) {
			return accountsdomain.Enrichment{}, apperr.NotFound("account not found").WithOp("sync.EnrichAccount")
		}
		return accountsdomain.Enrichment{}, apperr.Wrap(apperr.KindInternal, "could not load account", err)
	}

	if err := s.tracker.MarkProcessing(ctx, op.ID); err != nil {
		s.log.Error("mark sync operation processing", "error", err)
	}

	data, err := s.enricher.Enrich(ctx, enrichment.Request{
		Name:    account.Name,
		Domain:  account.Domain,
		Website: account.Website,
	})
	if err != nil {
		s.failOp(ctx, op.ID, err)
		return accountsdomain.Enrichment{}, apperr.Wrap(apperr.KindUnavailable, "enrichment provider failed", err)
	}

	// Existing account values take precedence over enriched guesses.
	snapshot := accountsdomain.Enrichment{
		AccountID:     accountID,
		Industry:      firstNonEmpty(account.Industry, data.Company.Industry),
		Employees:     firstPositive(account.Employees, data.Company.Employees),
		AnnualRevenue: firstPositive64(account.AnnualRevenue, data.Company.AnnualRevenue),
		FoundedYear:   firstPositive(account.FoundedYear, data.Company.FoundedYear),
		Description:   firstNonEmpty(account.Description, data.Company.Description),
		Technologies:  account.Technologies,
		LeadScore:     data.Insights.LeadScore,
		Confidence:    data.Confidence,
		EnrichedAt:    s.now().UTC(),
	}
	if len(snapshot.Technologies) == 0 {
		snapshot.Technologies = data.Company.Technologies
	}

	if err := s.accounts.SaveEnrichment(ctx, snapshot); err != nil {
		s.failOp(ctx, op.ID, err)
		return accountsdomain.Enrichment{}, apperr.Wrap(apperr.KindInternal, "could not store enrichment", err)
	}

	s.completeOp(ctx, op.ID, "account enriched")
	s.bus.Publish(ctx, events.AccountEnriched{
		BaseEvent:  events.NewBaseEvent(),
		AccountID:  accountID,
		Confidence: snapshot.Confidence,
	})
	return snapshot, nil
}

// SyncAccountToLeadGen projects an account into the lead generation module.
// When the account has no recorded revenue the deal pipeline's total is
// used as the estimate. Repeated syncs upsert the same company row.
func (s *Service) SyncAccountToLeadGen(ctx context.Context, accountID uuid.UUID) error {
	op, err := s.tracker.Begin(ctx, tracker.TypeAccountToLeadGen, &accountID, "sync account "+accountID.String()+" to LeadGen")
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not record sync operation", err)
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		s.failOp(ctx, op.ID, err)
		if errors.Is(err, accountsrepo.ErrNotFound) {
			return apperr.NotFound("account not found").WithOp("sync.SyncAccountToLeadGen")
		}
		return apperr.Wrap(apperr.KindInternal, "could not load account", err)
	}

	if err := s.tracker.MarkProcessing(ctx, op.ID); err != nil {
		s.log.Error("mark sync operation processing", "error", err)
	}

	company := CompanyFromAccount(account, s.now().UTC())
	if account.AnnualRevenue == 0 {
		metrics := s.CRMMetrics(ctx, accountID)
		if metrics.TotalRevenueCents > 0 {
			company.Revenue = FormatRevenue(metrics.TotalRevenueCents / 100)
		}
	}

	if err := s.leadgen.Upsert(ctx, company); err != nil {
		s.failOp(ctx, op.ID, err)
		return apperr.Wrap(apperr.KindInternal, "could not upsert company", err)
	}

	s.completeOp(ctx, op.ID, "account synced to LeadGen")
	s.bus.Publish(ctx, events.AccountSynced{
		BaseEvent: events.NewBaseEvent(),
		AccountID: accountID,
		Direction: string(tracker.TypeAccountToLeadGen),
	})
	return nil
}

// SyncLeadGenToAccount folds a lead generation company back into the CRM.
// The matching account is resolved by id first, then by domain; when no
// account exists one is created. Updates never blank out existing data.
func (s *Service) SyncLeadGenToAccount(ctx context.Context, companyID uuid.UUID) error {
	company, found, err := s.leadgen.GetByID(ctx, companyID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not load company", err)
	}
	if !found {
		return apperr.NotFound("company not found").WithOp("sync.SyncLeadGenToAccount")
	}

	op, err := s.tracker.Begin(ctx, tracker.TypeLeadGenToAccount, &companyID, "sync company "+company.Name+" to account")
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not record sync operation", err)
	}
	if err := s.tracker.MarkProcessing(ctx, op.ID); err != nil {
		s.log.Error("mark sync operation processing", "error", err)
	}

	account, matched, err := s.resolveAccount(ctx, company)
	if err != nil {
		s.failOp(ctx, op.ID, err)
		return apperr.Wrap(apperr.KindInternal, "could not resolve account", err)
	}

	if matched {
		if _, err := s.accounts.Update(ctx, account.ID, MergeCompanyIntoAccount(company)); err != nil {
			s.failOp(ctx, op.ID, err)
			return apperr.Wrap(apperr.KindInternal, "could not update account", err)
		}
	} else {
		created, err := s.newAccountFromCompany(company)
		if err != nil {
			s.failOp(ctx, op.ID, err)
			return apperr.Wrap(apperr.KindInternal, "could not build account", err)
		}
		if err := s.accounts.Create(ctx, created); err != nil {
			s.failOp(ctx, op.ID, err)
			return apperr.Wrap(apperr.KindInternal, "could not create account", err)
		}
		account = created
	}

	s.completeOp(ctx, op.ID, "LeadGen data synced to account")
	s.bus.Publish(ctx, events.AccountSynced{
		BaseEvent: events.NewBaseEvent(),
		AccountID: account.ID,
		Direction: string(tracker.TypeLeadGenToAccount),
	})
	return nil
}

// SyncActivities retags an account's CRM activities so they surface in the
// lead generation module's feed.
func (s *Service) SyncActivities(ctx context.Context, accountID uuid.UUID) (int, error) {
	op, err := s.tracker.Begin(ctx, tracker.TypeActivitySync, &accountID, "sync activities for account "+accountID.String())
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "could not record sync operation", err)
	}

	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		s.failOp(ctx, op.ID, err)
		if errors.Is(err, accountsrepo.ErrNotFound) {
			return 0, apperr.NotFound("account not found").WithOp("sync.SyncActivities")
		}
		return 0, apperr.Wrap(apperr.KindInternal, "could not load account", err)
	}

	count, err := s.accounts.BulkRetagSource(ctx, accountID, SourceLeadGen)
	if err != nil {
		s.failOp(ctx, op.ID, err)
		return 0, apperr.Wrap(apperr.KindInternal, "could not retag activities", err)
	}

	s.completeOp(ctx, op.ID, fmt.Sprintf("retagged %d activities", count))
	s.bus.Publish(ctx, events.ActivitiesRetagged{
		BaseEvent: events.NewBaseEvent(),
		AccountID: accountID,
		Source:    SourceLeadGen,
		Count:     count,
	})
	return count, nil
}

// ActivitySourceStats reports an account's activity counts per source.
func (s *Service) ActivitySourceStats(ctx context.Context, accountID uuid.UUID) (map[string]int, error) {
	stats, err := s.accounts.ActivitySourceStats(ctx, accountID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not load activity stats", err)
	}
	return stats, nil
}

// AutoFillInput identifies a company to auto-fill from.
type AutoFillInput struct {
	Name    string
	Domain  string
	Website string
}

// AutoFill suggests account field values from the lead generation store
// first and AI enrichment second. It never fails: when both sources come
// up empty an empty suggestion is returned.
func (s *Service) AutoFill(ctx context.Context, in AutoFillInput) accountsrepo.UpdateParams {
	domain := in.Domain
	if domain == "" {
		domain = ExtractDomain(in.Website)
	}

	if domain != "" {
		company, found, err := s.leadgen.FindByDomain(ctx, domain)
		if err != nil {
			s.log.Error("auto-fill leadgen lookup failed", "domain", domain, "error", err)
		} else if found {
			return MergeCompanyIntoAccount(company)
		}
	}

	if domain == "" && in.Name == "" {
		return accountsrepo.UpdateParams{}
	}

	data, err := s.enricher.Enrich(ctx, enrichment.Request{Name: in.Name, Domain: domain, Website: in.Website})
	if err != nil {
		s.log.Error("auto-fill enrichment failed", "company", in.Name, "error", err)
		return accountsrepo.UpdateParams{}
	}

	var p accountsrepo.UpdateParams
	if data.Company.Industry != "" {
		p.Industry = &data.Company.Industry
	}
	if data.Company.Employees > 0 {
		p.Employees = &data.Company.Employees
	}
	if data.Company.AnnualRevenue > 0 {
		p.AnnualRevenue = &data.Company.AnnualRevenue
	}
	if data.Company.FoundedYear > 0 {
		p.FoundedYear = &data.Company.FoundedYear
	}
	if data.Company.Description != "" {
		p.Description = &data.Company.Description
	}
	if len(data.Company.Technologies) > 0 {
		p.Technologies = data.Company.Technologies
	}
	return p
}

// CRMMetrics gathers an account's deals, activities, and contact count in
// parallel. Partial failures degrade to zero values instead of erroring;
// the sync flows that consume these numbers should not stall on a single
// bad read.
func (s *Service) CRMMetrics(ctx context.Context, accountID uuid.UUID) CRMMetrics {
	var (
		deals      []pipelinedomain.Deal
		activities []accountsdomain.Activity
		contacts   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deals, err = s.deals.ListByAccount(gctx, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = s.accounts.ListActivitiesByAccount(gctx, accountID)
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = s.accounts.CountContacts(gctx, accountID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("crm metrics rollup failed", "account_id", accountID.String(), "error", err)
		return CRMMetrics{}
	}

	m := CRMMetrics{
		TotalDeals:    len(deals),
		ContactCount:  contacts,
		ActivityCount: len(activities),
	}
	for _, deal := range deals {
		m.TotalRevenueCents += deal.AmountCents
		if deal.StageID == "closed-won" {
			m.WonDeals++
		}
	}
	if m.TotalDeals > 0 {
		m.AverageDealCents = m.TotalRevenueCents / int64(m.TotalDeals)
	}
	for _, a := range activities {
		if m.LastActivityAt == nil || a.CreatedAt.After(*m.LastActivityAt) {
			t := a.CreatedAt
			m.LastActivityAt = &t
			m.LastActivityType = a.Type
			m.LastActivitySubject = a.Subject
		}
	}
	return m
}

// Status reports an account's sync health.
func (s *Service) Status(ctx context.Context, accountID uuid.UUID) (tracker.AccountStatus, error) {
	status, err := s.tracker.Status(ctx, accountID)
	if err != nil {
		return tracker.AccountStatus{}, apperr.Wrap(apperr.KindInternal, "could not load sync status", err)
	}
	return status, nil
}

func (s *Service) resolveAccount(ctx context.Context, company leadgendomain.Company) (accountsdomain.Account, bool, error) {
	account, err := s.accounts.GetByID(ctx, company.ID)
	if err == nil {
		return account, true, nil
	}
	if !errors.Is(err, accountsrepo.ErrNotFound) {
		return accountsdomain.Account{}, false, err
	}
	if company.Domain == "" {
		return accountsdomain.Account{}, false, nil
	}
	return s.accounts.GetByDomain(ctx, company.Domain)
}

func (s *Service) newAccountFromCompany(company leadgendomain.Company) (accountsdomain.Account, error) {
	ownerID, err := uuid.Parse(s.cfg.GetDefaultOwnerID())
	if err != nil {
		return accountsdomain.Account{}, fmt.Errorf("invalid default owner id %q", s.cfg.GetDefaultOwnerID())
	}

	employees, _ := ParseEmployeeCount(company.EmployeeCount)
	revenue, _ := ParseRevenue(company.Revenue)
	now := s.now().UTC()
	return accountsdomain.Account{
		ID:            company.ID,
		Name:          company.Name,
		Domain:        strings.ToLower(company.Domain),
		Website:       company.Website,
		LinkedInURL:   company.LinkedInURL,
		Industry:      company.Industry,
		Address:       company.Location,
		Employees:     employees,
		AnnualRevenue: revenue,
		FoundedYear:   company.Founded,
		Description:   company.Description,
		Technologies:  company.Technologies,
		Tags:          company.Keywords,
		AccountType:   "prospect",
		AccountStatus: "active",
		HealthScore:   50,
		OwnerID:       ownerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *Service) failOp(ctx context.Context, id uuid.UUID, cause error) {
	if err := s.tracker.Fail(ctx, id, cause.Error()); err != nil {
		s.log.Error("mark sync operation failed", "operation_id", id.String(), "error", err)
	}
}

func (s *Service) completeOp(ctx context.Context, id uuid.UUID, details string) {
	if err := s.tracker.Complete(ctx, id, details); err != nil {
		s.log.Error("mark sync operation completed", "operation_id", id.String(), "error", err)
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstPositive(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

func firstPositive64(a, b int64) int64 {
	if a > 0 {
		return a
	}
	return b
}
