// Package sync wires the reconciliation bounded context: the operation
// tracker, the reconciliation service, and its HTTP surface.
package sync

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	accountsrepo "crm_backend/internal/accounts/repository"
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	leadgenrepo "crm_backend/internal/leadgen/repository"
	pipelinerepo "crm_backend/internal/pipeline/repository"
	"crm_backend/internal/sync/handler"
	"crm_backend/internal/sync/service"
	"crm_backend/internal/sync/tracker"
	"crm_backend/platform/config"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

type Module struct {
	svc     *service.Service
	handler *handler.Handler
	limiter *httpkit.IPRateLimiter
}

// New wires the sync module against the other modules' repositories. The
// operation log lives in Postgres so health status survives restarts.
func New(pool *pgxpool.Pool, accounts *accountsrepo.Repository, deals *pipelinerepo.Repository,
	leadgen *leadgenrepo.Repository, enricher service.Enricher, bus events.Bus,
	val *validator.Validator, log *logger.Logger, cfg config.SyncConfig) *Module {

	tr := tracker.New(tracker.NewPostgresStore(pool), log, cfg.GetSyncFailureErrorThreshold())
	svc := service.New(accounts, deals, leadgen, enricher, tr, bus, log, cfg)
	return &Module{
		svc:     svc,
		handler: handler.New(svc, val),
		// Sync endpoints fan out to the AI provider and the task queue, so
		// they carry a stricter per-IP budget than the rest of the API.
		limiter: httpkit.NewIPRateLimiter(rate.Limit(30.0/60.0), 10, log),
	}
}

func (m *Module) Name() string { return "sync" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/sync")
	group.Use(m.limiter.Middleware())
	m.handler.RegisterRoutes(group)
}

// Service exposes the reconciliation service to the task worker.
func (m *Module) Service() *service.Service { return m.svc }
