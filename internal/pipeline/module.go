// Package pipeline wires the deal pipeline bounded context: stage registry,
// deal repository, transition service, and HTTP handlers.
package pipeline

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/pipeline/domain"
	"crm_backend/internal/pipeline/handler"
	"crm_backend/internal/pipeline/repository"
	"crm_backend/internal/pipeline/service"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"
	"crm_backend/platform/validator"
)

type Module struct {
	repo    *repository.Repository
	svc     *service.Service
	handler *handler.Handler
}

// New builds the pipeline module with the default stage configuration.
func New(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger, cfg config.PipelineConfig) (*Module, error) {
	registry, err := domain.NewRegistry(domain.DefaultStages())
	if err != nil {
		return nil, err
	}
	repo := repository.New(pool)
	svc := service.New(repo, registry, bus, log, cfg)
	return &Module{
		repo:    repo,
		svc:     svc,
		handler: handler.New(svc, val),
	}, nil
}

func (m *Module) Name() string { return "pipeline" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/pipeline"))
}

// Service exposes the pipeline service to other modules (the sync module
// reads deal metrics through it).
func (m *Module) Service() *service.Service { return m.svc }

// Repository exposes the deal reader used by the sync module.
func (m *Module) Repository() *repository.Repository { return m.repo }
