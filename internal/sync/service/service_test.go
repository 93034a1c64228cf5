package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	accountsdomain "crm_backend/internal/accounts/domain"
	accountsrepo "crm_backend/internal/accounts/repository"
	"crm_backend/internal/enrichment"
	leadgendomain "crm_backend/internal/leadgen/domain"
	pipelinedomain "crm_backend/internal/pipeline/domain"
	"crm_backend/internal/sync/tracker"
	"crm_backend/platform/apperr"
	"crm_backend/platform/events"
	"crm_backend/platform/logger"
)

type fakeAccounts struct {
	accounts    map[uuid.UUID]accountsdomain.Account
	activities  map[uuid.UUID][]accountsdomain.Activity
	contacts    map[uuid.UUID]int
	enrichments map[uuid.UUID]accountsdomain.Enrichment
	updates     []accountsrepo.UpdateParams
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		accounts:    make(map[uuid.UUID]accountsdomain.Account),
		activities:  make(map[uuid.UUID][]accountsdomain.Activity),
		contacts:    make(map[uuid.UUID]int),
		enrichments: make(map[uuid.UUID]accountsdomain.Enrichment),
	}
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (accountsdomain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return accountsdomain.Account{}, accountsrepo.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) GetByDomain(_ context.Context, domain string) (accountsdomain.Account, bool, error) {
	for _, a := range f.accounts {
		if a.Domain == domain {
			return a, true, nil
		}
	}
	return accountsdomain.Account{}, false, nil
}

func (f *fakeAccounts) Create(_ context.Context, a accountsdomain.Account) error {
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeAccounts) Update(_ context.Context, id uuid.UUID, p accountsrepo.UpdateParams) (accountsdomain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return accountsdomain.Account{}, accountsrepo.ErrNotFound
	}
	f.updates = append(f.updates, p)
	if p.Industry != nil {
		a.Industry = *p.Industry
	}
	if p.Employees != nil {
		a.Employees = *p.Employees
	}
	if p.AnnualRevenue != nil {
		a.AnnualRevenue = *p.AnnualRevenue
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	f.accounts[id] = a
	return a, nil
}

func (f *fakeAccounts) CountContacts(_ context.Context, id uuid.UUID) (int, error) {
	return f.contacts[id], nil
}

func (f *fakeAccounts) SaveEnrichment(_ context.Context, e accountsdomain.Enrichment) error {
	f.enrichments[e.AccountID] = e
	return nil
}

func (f *fakeAccounts) ListActivitiesByAccount(_ context.Context, id uuid.UUID) ([]accountsdomain.Activity, error) {
	return f.activities[id], nil
}

func (f *fakeAccounts) BulkRetagSource(_ context.Context, id uuid.UUID, source string) (int, error) {
	n := 0
	list := f.activities[id]
	for i := range list {
		if list[i].Source != source {
			list[i].Source = source
			n++
		}
	}
	f.activities[id] = list
	return n, nil
}

func (f *fakeAccounts) ActivitySourceStats(_ context.Context, id uuid.UUID) (map[string]int, error) {
	stats := make(map[string]int)
	for _, a := range f.activities[id] {
		stats[a.Source]++
	}
	return stats, nil
}

type fakeDeals struct {
	byAccount map[uuid.UUID][]pipelinedomain.Deal
}

func (f *fakeDeals) ListByAccount(_ context.Context, id uuid.UUID) ([]pipelinedomain.Deal, error) {
	return f.byAccount[id], nil
}

type fakeLeadGen struct {
	companies map[uuid.UUID]leadgendomain.Company
}

func newFakeLeadGen() *fakeLeadGen {
	return &fakeLeadGen{companies: make(map[uuid.UUID]leadgendomain.Company)}
}

func (f *fakeLeadGen) Upsert(_ context.Context, c leadgendomain.Company) error {
	f.companies[c.ID] = c
	return nil
}

func (f *fakeLeadGen) GetByID(_ context.Context, id uuid.UUID) (leadgendomain.Company, bool, error) {
	c, ok := f.companies[id]
	return c, ok, nil
}

func (f *fakeLeadGen) FindByDomain(_ context.Context, domain string) (leadgendomain.Company, bool, error) {
	for _, c := range f.companies {
		if c.Domain == domain {
			return c, true, nil
		}
	}
	return leadgendomain.Company{}, false, nil
}

type fakeEnricher struct {
	data  enrichment.Data
	err   error
	calls int
}

func (f *fakeEnricher) Enrich(context.Context, enrichment.Request) (enrichment.Data, error) {
	f.calls++
	return f.data, f.err
}

type fixture struct {
	svc      *Service
	accounts *fakeAccounts
	deals    *fakeDeals
	leadgen  *fakeLeadGen
	enricher *fakeEnricher
	tracker  *tracker.Tracker
}

type testSyncConfig struct{ ownerID string }

func (c testSyncConfig) GetDefaultOwnerID() string         { return c.ownerID }
func (c testSyncConfig) GetSyncFailureErrorThreshold() int { return 2 }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New("development")
	accounts := newFakeAccounts()
	deals := &fakeDeals{byAccount: make(map[uuid.UUID][]pipelinedomain.Deal)}
	lg := newFakeLeadGen()
	enricher := &fakeEnricher{}
	tr := tracker.New(tracker.NewMemoryStore(), log, 2)
	svc := New(accounts, deals, lg, enricher, tr, events.NewInMemoryBus(log), log, testSyncConfig{ownerID: uuid.New().String()})
	return &fixture{svc: svc, accounts: accounts, deals: deals, leadgen: lg, enricher: enricher, tracker: tr}
}

func seedAccount(f *fixture) accountsdomain.Account {
	a := accountsdomain.Account{
		ID:            uuid.New(),
		Name:          "Acme Analytics",
		Domain:        "acme.io",
		Website:       "https://acme.io",
		Industry:      "Technology",
		Employees:     120,
		AnnualRevenue: 4_500_000,
		OwnerID:       uuid.New(),
	}
	f.accounts.accounts[a.ID] = a
	return a
}

func TestSyncAccountToLeadGenIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := seedAccount(f)

	if err := f.svc.SyncAccountToLeadGen(ctx, account.ID); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if err := f.svc.SyncAccountToLeadGen(ctx, account.ID); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if len(f.leadgen.companies) != 1 {
		t.Fatalf("companies = %d, want 1 (upsert by account id)", len(f.leadgen.companies))
	}
	company := f.leadgen.companies[account.ID]
	if company.EmployeeCount != "51-200" || company.Revenue != "$4.5M" {
		t.Fatalf("company projection = %q/%q", company.EmployeeCount, company.Revenue)
	}

	status, err := f.svc.Status(ctx, account.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Health != tracker.HealthHealthy || status.LastSync == nil {
		t.Fatalf("status = %+v, want healthy with lastSync", status)
	}
}

func TestSyncAccountToLeadGenUsesDealRevenueFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := seedAccount(f)
	account.AnnualRevenue = 0
	f.accounts.accounts[account.ID] = account

	reg, err := pipelinedomain.NewRegistry(pipelinedomain.DefaultStages())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	stage, _ := reg.Stage("proposal")
	deal := pipelinedomain.NewDeal("big deal", stage, 200_000_000, uuid.New(), &account.ID, "rep-1", time.Now())
	f.deals.byAccount[account.ID] = []pipelinedomain.Deal{deal}

	if err := f.svc.SyncAccountToLeadGen(ctx, account.ID); err != nil {
		t.Fatalf("sync: %v", err)
	}
	company := f.leadgen.companies[account.ID]
	if company.Revenue != "$2.0M" {
		t.Fatalf("revenue = %q, want $2.0M from pipeline total", company.Revenue)
	}
}

func TestEnrichAccountNotFoundFailsOperation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := f.svc.EnrichAccount(ctx, missing)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	status, err := f.svc.Status(ctx, missing)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Conflicts != 1 || status.Health != tracker.HealthWarning {
		t.Fatalf("status = %+v, want one failed operation", status)
	}
}

func TestEnrichAccountProviderFailurePropagates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := seedAccount(f)
	f.enricher.err = errors.New("quota exceeded")

	_, err := f.svc.EnrichAccount(ctx, account.ID)
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}

	status, _ := f.svc.Status(ctx, account.ID)
	if status.Conflicts != 1 {
		t.Fatalf("conflicts = %d, want 1", status.Conflicts)
	}
}

func TestEnrichAccountExistingFieldsWin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := seedAccount(f)
	f.enricher.data = enrichment.Data{
		Company: enrichment.CompanyProfile{
			Industry:    "Made Up Industry",
			Employees:   9999,
			Description: "model generated description",
		},
		Insights:   enrichment.Insights{LeadScore: 80},
		Confidence: 90,
	}

	snapshot, err := f.svc.EnrichAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("EnrichAccount: %v", err)
	}

	if snapshot.Industry != "Technology" {
		t.Fatalf("industry = %q, existing account value should win", snapshot.Industry)
	}
	if snapshot.Employees != 120 {
		t.Fatalf("employees = %d, existing account value should win", snapshot.Employees)
	}
	if snapshot.Description != "model generated description" {
		t.Fatalf("description = %q, empty account field should take enriched value", snapshot.Description)
	}
	if _, ok := f.accounts.enrichments[account.ID]; !ok {
		t.Fatalf("enrichment snapshot not persisted")
	}
}

func TestSyncLeadGenToAccountCreatesWhenUnmatched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	company := leadgendomain.Company{
		ID:            uuid.New(),
		Name:          "NewCo Health",
		Domain:        "newco.health",
		Industry:      "Healthcare",
		EmployeeCount: "11-50",
		Revenue:       "$2.0M",
	}
	f.leadgen.companies[company.ID] = company

	if err := f.svc.SyncLeadGenToAccount(ctx, company.ID); err != nil {
		t.Fatalf("sync: %v", err)
	}

	account, ok := f.accounts.accounts[company.ID]
	if !ok {
		t.Fatalf("account not created with company id")
	}
	if account.Employees != 30 || account.AnnualRevenue != 2_000_000 {
		t.Fatalf("account = %+v, want parsed employee midpoint and revenue", account)
	}
	if account.AccountType != "prospect" {
		t.Fatalf("accountType = %q, want prospect", account.AccountType)
	}
}

func TestSyncLeadGenToAccountMergesByDomain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := seedAccount(f)

	company := leadgendomain.Company{
		ID:       uuid.New(), // different id, same domain
		Name:     "Acme Analytics",
		Domain:   "acme.io",
		Industry: "SaaS",
		Revenue:  "N/A",
	}
	f.leadgen.companies[company.ID] = company

	if err := f.svc.SyncLeadGenToAccount(ctx, company.ID); err != nil {
		t.Fatalf("sync: %v", err)
	}

	got := f.accounts.accounts[account.ID]
	if got.Industry != "SaaS" {
		t.Fatalf("industry = %q, want incoming SaaS", got.Industry)
	}
	if got.AnnualRevenue != 4_500_000 {
		t.Fatalf("revenue = %d, N/A must not blank existing value", got.AnnualRevenue)
	}
	if len(f.accounts.accounts) != 1 {
		t.Fatalf("domain match should not create a second account")
	}
}

func TestSyncActivitiesRetags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := seedAccount(f)
	f.accounts.activities[account.ID] = []accountsdomain.Activity{
		{ID: uuid.New(), AccountID: account.ID, Type: "call", Source: "CRM"},
		{ID: uuid.New(), AccountID: account.ID, Type: "email", Source: "CRM"},
		{ID: uuid.New(), AccountID: account.ID, Type: "note", Source: SourceLeadGen},
	}

	count, err := f.svc.SyncActivities(ctx, account.ID)
	if err != nil {
		t.Fatalf("SyncActivities: %v", err)
	}
	if count != 2 {
		t.Fatalf("retagged = %d, want 2 (already tagged entry skipped)", count)
	}

	stats, err := f.svc.ActivitySourceStats(ctx, account.ID)
	if err != nil {
		t.Fatalf("ActivitySourceStats: %v", err)
	}
	if stats[SourceLeadGen] != 3 {
		t.Fatalf("stats = %v, want all 3 tagged LeadGen", stats)
	}
}

func TestAutoFillPrefersLeadGenOverEnrichment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	company := leadgendomain.Company{
		ID:       uuid.New(),
		Name:     "Acme",
		Domain:   "acme.io",
		Industry: "Technology",
	}
	f.leadgen.companies[company.ID] = company

	p := f.svc.AutoFill(ctx, AutoFillInput{Website: "https://www.acme.io"})
	if p.Industry == nil || *p.Industry != "Technology" {
		t.Fatalf("auto-fill = %+v, want leadgen industry", p)
	}
	if f.enricher.calls != 0 {
		t.Fatalf("enricher called %d times despite leadgen hit", f.enricher.calls)
	}
}

func TestAutoFillNeverFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.enricher.err = errors.New("provider down")

	p := f.svc.AutoFill(ctx, AutoFillInput{Name: "Unknown Co", Domain: "unknown.example"})
	if p.Industry != nil || p.Employees != nil || p.Description != nil {
		t.Fatalf("auto-fill = %+v, want empty suggestion on provider failure", p)
	}
}

func TestCRMMetricsRollup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := seedAccount(f)

	reg, err := pipelinedomain.NewRegistry(pipelinedomain.DefaultStages())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	proposal, _ := reg.Stage("proposal")
	won, _ := reg.Stage("closed-won")
	now := time.Now().UTC()
	f.deals.byAccount[account.ID] = []pipelinedomain.Deal{
		pipelinedomain.NewDeal("a", proposal, 100_000, uuid.New(), &account.ID, "rep", now),
		pipelinedomain.NewDeal("b", won, 300_000, uuid.New(), &account.ID, "rep", now),
	}
	f.accounts.contacts[account.ID] = 4
	f.accounts.activities[account.ID] = []accountsdomain.Activity{
		{ID: uuid.New(), Type: "call", Subject: "intro", CreatedAt: now.Add(-time.Hour)},
		{ID: uuid.New(), Type: "email", Subject: "follow up", CreatedAt: now},
	}

	m := f.svc.CRMMetrics(ctx, account.ID)
	if m.TotalDeals != 2 || m.WonDeals != 1 {
		t.Fatalf("deals = %d won = %d, want 2/1", m.TotalDeals, m.WonDeals)
	}
	if m.TotalRevenueCents != 400_000 || m.AverageDealCents != 200_000 {
		t.Fatalf("revenue = %d avg = %d", m.TotalRevenueCents, m.AverageDealCents)
	}
	if m.ContactCount != 4 || m.ActivityCount != 2 {
		t.Fatalf("contacts = %d activities = %d", m.ContactCount, m.ActivityCount)
	}
	if m.LastActivityType != "email" || m.LastActivitySubject != "follow up" {
		t.Fatalf("last activity = %s/%s, want the newest", m.LastActivityType, m.LastActivitySubject)
	}
}
