// Package handler exposes the pipeline module over HTTP.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crm_backend/internal/pipeline/service"
	"crm_backend/internal/pipeline/transport"
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

// RegisterRoutes mounts the pipeline routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stages", h.listStages)
	rg.GET("/deals", h.listDeals)
	rg.POST("/deals", h.createDeal)
	rg.GET("/deals/stale", h.listStaleDeals)
	rg.GET("/deals/:id", h.getDeal)
	rg.DELETE("/deals/:id", h.deleteDeal)
	rg.POST("/deals/:id/stage", h.moveStage)
	rg.GET("/metrics", h.metrics)
}

func (h *Handler) listStages(c *gin.Context) {
	httpkit.OK(c, h.svc.Stages())
}

func (h *Handler) createDeal(c *gin.Context) {
	var req transport.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body").WithDetails(err.Error()))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation("validation failed").WithDetails(err.Error()))
		return
	}
	deal, err := h.svc.CreateDeal(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, deal)
}

func (h *Handler) getDeal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	deal, err := h.svc.GetDeal(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, deal)
}

func (h *Handler) listDeals(c *gin.Context) {
	deals, err := h.svc.ListDeals(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, deals)
}

func (h *Handler) listStaleDeals(c *gin.Context) {
	deals, err := h.svc.StaleDeals(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, deals)
}

func (h *Handler) moveStage(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req transport.MoveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body").WithDetails(err.Error()))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.HandleError(c, apperr.Validation("validation failed").WithDetails(err.Error()))
		return
	}
	deal, err := h.svc.MoveStage(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, deal)
}

func (h *Handler) deleteDeal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.svc.DeleteDeal(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

func (h *Handler) metrics(c *gin.Context) {
	metrics, err := h.svc.Metrics(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, metrics)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("id must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}
