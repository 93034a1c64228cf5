// Package leadgen wires the lead generation bounded context: the prospect
// company store fed by the sync module.
package leadgen

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "crm_backend/internal/http"
	"crm_backend/internal/leadgen/handler"
	"crm_backend/internal/leadgen/repository"
	"crm_backend/platform/logger"
)

type Module struct {
	repo    *repository.Repository
	handler *handler.Handler
}

func New(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := repository.New(pool)
	return &Module{
		repo:    repo,
		handler: handler.New(repo, log),
	}
}

func (m *Module) Name() string { return "leadgen" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leadgen"))
}

// Repository exposes company persistence to the sync module.
func (m *Module) Repository() *repository.Repository { return m.repo }
