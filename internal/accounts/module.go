// Package accounts wires the account bounded context: company records,
// contacts, and the activity feed.
package accounts

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"crm_backend/internal/accounts/handler"
	"crm_backend/internal/accounts/repository"
	"crm_backend/internal/accounts/service"
	apphttp "crm_backend/internal/http"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

type Module struct {
	repo    *repository.Repository
	svc     *service.Service
	handler *handler.Handler
}

func New(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	return &Module{
		repo:    repo,
		svc:     svc,
		handler: handler.New(svc, val),
	}
}

func (m *Module) Name() string { return "accounts" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/accounts"))
}

// Repository exposes account persistence to the sync module.
func (m *Module) Repository() *repository.Repository { return m.repo }
