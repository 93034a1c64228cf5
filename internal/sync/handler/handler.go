// Package handler exposes the sync module over HTTP.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crm_backend/internal/sync/service"
	"crm_backend/internal/sync/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/validator"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/accounts/:id/enrich", h.enrichAccount)
	rg.POST("/accounts/:id/to-leadgen", h.syncToLeadGen)
	rg.POST("/accounts/:id/activities", h.syncActivities)
	rg.GET("/accounts/:id/activities/stats", h.activityStats)
	rg.GET("/accounts/:id/status", h.status)
	rg.GET("/accounts/:id/metrics", h.metrics)
	rg.POST("/companies/:id/to-account", h.syncToAccount)
	rg.POST("/autofill", h.autoFill)
}

func (h *Handler) enrichAccount(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	snapshot, err := h.svc.EnrichAccount(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.EnrichmentFromDomain(snapshot))
}

func (h *Handler) syncToLeadGen(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.SyncAccountToLeadGen(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"synced": true})
}

func (h *Handler) syncToAccount(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.SyncLeadGenToAccount(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"synced": true})
}

func (h *Handler) syncActivities(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	count, err := h.svc.SyncActivities(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"retagged": count})
}

func (h *Handler) activityStats(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	stats, err := h.svc.ActivitySourceStats(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, stats)
}

func (h *Handler) status(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	status, err := h.svc.Status(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.StatusFromTracker(status, true))
}

func (h *Handler) metrics(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	httpkit.OK(c, transport.MetricsFromService(h.svc.CRMMetrics(c.Request.Context(), id)))
}

func (h *Handler) autoFill(c *gin.Context) {
	var req transport.AutoFillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body").WithDetails(err.Error()))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation("validation failed").WithDetails(err.Error()))
		return
	}
	params := h.svc.AutoFill(c.Request.Context(), service.AutoFillInput{
		Name:    req.Name,
		Domain:  req.Domain,
		Website: req.Website,
	})
	httpkit.OK(c, transport.AutoFillFromParams(params))
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("id must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}
