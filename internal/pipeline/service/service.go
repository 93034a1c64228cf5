// Package service implements pipeline use cases: deal creation, stage
// transitions, and pipeline metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/events"
	"crm_backend/internal/pipeline/domain"
	"crm_backend/internal/pipeline/repository"
	"crm_backend/internal/pipeline/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"
)

// DealRepository is the persistence port of the pipeline service.
type DealRepository interface {
	Create(ctx context.Context, deal domain.Deal) error
	GetByID(ctx context.Context, id uuid.UUID) (domain.Deal, error)
	SaveTransition(ctx context.Context, deal domain.Deal, loadedUpdatedAt time.Time) error
	List(ctx context.Context) ([]domain.Deal, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Deal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service orchestrates deal operations against the stage registry.
type Service struct {
	repo       DealRepository
	registry   *domain.Registry
	engine     *domain.Engine
	bus        events.Bus
	log        *logger.Logger
	thresholds domain.StalenessThresholds
	now        func() time.Time
}

func New(repo DealRepository, registry *domain.Registry, bus events.Bus, log *logger.Logger, cfg config.PipelineConfig) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		engine:   domain.NewEngine(registry),
		bus:      bus,
		log:      log,
		thresholds: domain.StalenessThresholds{
			WarningDays:  cfg.GetStaleWarningDays(),
			CriticalDays: cfg.GetStaleCriticalDays(),
		},
		now: time.Now,
	}
}

// Stages returns the pipeline configuration in board order.
func (s *Service) Stages() []transport.StageResponse {
	stages := s.registry.Stages()
	out := make([]transport.StageResponse, 0, len(stages))
	for _, stage := range stages {
		out = append(out, transport.StageFromDomain(stage))
	}
	return out
}

// CreateDeal places a new deal in the pipeline. When no stage is given the
// first configured stage is used.
func (s *Service) CreateDeal(ctx context.Context, req transport.CreateDealRequest) (transport.DealResponse, error) {
	stageID := req.StageID
	if stageID == "" {
		stageID = s.registry.Stages()[0].ID
	}
	stage, ok := s.registry.Stage(stageID)
	if !ok {
		return transport.DealResponse{}, apperr.Validation(fmt.Sprintf("unknown stage %q", stageID)).WithOp("pipeline.CreateDeal")
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		return transport.DealResponse{}, apperr.Validation("ownerId must be a valid UUID").WithOp("pipeline.CreateDeal")
	}
	var accountID *uuid.UUID
	if req.AccountID != "" {
		id, err := uuid.Parse(req.AccountID)
		if err != nil {
			return transport.DealResponse{}, apperr.Validation("accountId must be a valid UUID").WithOp("pipeline.CreateDeal")
		}
		accountID = &id
	}

	now := s.now().UTC()
	deal := domain.NewDeal(req.Name, stage, req.AmountCents, ownerID, accountID, req.ChangedBy, now)
	if err := s.repo.Create(ctx, deal); err != nil {
		s.log.DatabaseError("pipeline.CreateDeal", err)
		return transport.DealResponse{}, apperr.Wrap(apperr.KindInternal, "could not create deal", err)
	}

	s.bus.Publish(ctx, events.DealCreated{
		BaseEvent: events.NewBaseEvent(),
		DealID:    deal.ID,
		AccountID: deal.AccountID,
		StageID:   deal.StageID,
	})

	return s.toResponse(deal), nil
}

// GetDeal loads one deal with its full history.
func (s *Service) GetDeal(ctx context.Context, id uuid.UUID) (transport.DealResponse, error) {
	deal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.DealResponse{}, s.mapRepoError("pipeline.GetDeal", err)
	}
	return s.toResponse(deal), nil
}

// ListDeals returns all deals for the board view.
func (s *Service) ListDeals(ctx context.Context) ([]transport.DealResponse, error) {
	deals, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.mapRepoError("pipeline.ListDeals", err)
	}
	out := make([]transport.DealResponse, 0, len(deals))
	for _, deal := range deals {
		out = append(out, s.toResponse(deal))
	}
	return out, nil
}

// MoveStage applies a stage transition and persists it with an optimistic
// concurrency check. A successful move publishes DealStageChanged; a no-op
// move publishes nothing.
func (s *Service) MoveStage(ctx context.Context, dealID uuid.UUID, req transport.MoveStageRequest) (transport.DealResponse, error) {
	deal, err := s.repo.GetByID(ctx, dealID)
	if err != nil {
		return transport.DealResponse{}, s.mapRepoError("pipeline.MoveStage", err)
	}

	fromStageID := deal.StageID
	loadedUpdatedAt := deal.UpdatedAt

	moved, err := s.engine.Transition(deal, domain.TransitionParams{
		TargetStageID:       req.TargetStageID,
		Actor:               req.ChangedBy,
		Reason:              req.Reason,
		ProbabilityOverride: req.ProbabilityOverride,
		Now:                 s.now().UTC(),
	})
	switch {
	case errors.Is(err, domain.ErrUnknownStage):
		return transport.DealResponse{}, apperr.Validation(err.Error()).WithOp("pipeline.MoveStage")
	case errors.Is(err, domain.ErrTerminalStageLocked):
		return transport.DealResponse{}, apperr.Conflict("deal is closed and cannot change stage").WithOp("pipeline.MoveStage")
	case err != nil:
		return transport.DealResponse{}, apperr.Wrap(apperr.KindInternal, "stage transition failed", err)
	}

	if moved.StageID == fromStageID {
		// No-op transition: nothing to write, nothing to announce.
		return s.toResponse(moved), nil
	}

	if err := s.repo.SaveTransition(ctx, moved, loadedUpdatedAt); err != nil {
		if errors.Is(err, repository.ErrStaleWrite) {
			return transport.DealResponse{}, apperr.Conflict("deal was modified concurrently, reload and retry").WithOp("pipeline.MoveStage")
		}
		s.log.DatabaseError("pipeline.MoveStage", err)
		return transport.DealResponse{}, apperr.Wrap(apperr.KindInternal, "could not save stage transition", err)
	}

	s.log.StageTransition(moved.ID.String(), fromStageID, moved.StageID, req.ChangedBy)
	s.bus.Publish(ctx, events.DealStageChanged{
		BaseEvent:   events.NewBaseEvent(),
		DealID:      moved.ID,
		AccountID:   moved.AccountID,
		FromStageID: fromStageID,
		ToStageID:   moved.StageID,
		ChangedBy:   req.ChangedBy,
	})

	return s.toResponse(moved), nil
}

// DeleteDeal removes a deal and its history.
func (s *Service) DeleteDeal(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError("pipeline.DeleteDeal", err)
	}
	return nil
}

// Metrics computes board-level pipeline metrics over all deals.
func (s *Service) Metrics(ctx context.Context) (transport.MetricsResponse, error) {
	deals, err := s.repo.List(ctx)
	if err != nil {
		return transport.MetricsResponse{}, s.mapRepoError("pipeline.Metrics", err)
	}

	now := s.now().UTC()
	dist := domain.StageDistribution(s.registry, deals)
	out := transport.MetricsResponse{
		TotalDeals:         len(deals),
		TotalValueCents:    domain.TotalPipelineValueCents(deals),
		WeightedValueCents: domain.WeightedPipelineValueCents(s.registry, deals),
		Distribution:       make([]transport.StageBreakdownResponse, 0, len(dist)),
		GeneratedAt:        now,
	}
	for _, b := range dist {
		stage, _ := s.registry.Stage(b.StageID)
		out.Distribution = append(out.Distribution, transport.StageBreakdownResponse{
			StageID:           b.StageID,
			StageName:         stage.Name,
			Count:             b.Count,
			ValueCents:        b.ValueCents,
			PercentageOfTotal: b.PercentageOfTotal,
		})
	}
	for _, deal := range deals {
		switch domain.Staleness(s.registry, deal, now, s.thresholds) {
		case domain.StalenessWarning:
			out.StaleWarningCount++
		case domain.StalenessCritical:
			out.StaleCriticalCount++
		}
	}
	return out, nil
}

// StaleDeals lists deals flagged warning or critical, most idle first.
func (s *Service) StaleDeals(ctx context.Context) ([]transport.DealResponse, error) {
	deals, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.mapRepoError("pipeline.StaleDeals", err)
	}

	now := s.now().UTC()
	var out []transport.DealResponse
	for _, deal := range deals {
		band := domain.Staleness(s.registry, deal, now, s.thresholds)
		if band == domain.StalenessNone {
			continue
		}
		out = append(out, transport.DealFromDomain(deal, domain.DaysInCurrentStage(deal, now), band))
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].DaysInStage > out[j-1].DaysInStage; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (s *Service) toResponse(deal domain.Deal) transport.DealResponse {
	now := s.now().UTC()
	return transport.DealFromDomain(deal,
		domain.DaysInCurrentStage(deal, now),
		domain.Staleness(s.registry, deal, now, s.thresholds))
}

func (s *Service) mapRepoError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("deal not found").WithOp(op)
	}
	s.log.DatabaseError(op, err)
	return apperr.Wrap(apperr.KindInternal, "database error", err)
}
