// Package handler exposes the lead generation module over HTTP.
package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"crm_backend/internal/leadgen/domain"
	"crm_backend/internal/leadgen/repository"
	"crm_backend/platform/apperr"
	"crm_backend/platform/httpkit"
	"crm_backend/platform/logger"
)

type Handler struct {
	repo *repository.Repository
	log  *logger.Logger
}

func New(repo *repository.Repository, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/companies", h.list)
	rg.GET("/companies/:id", h.get)
	rg.PUT("/companies/:id/saved", h.setSaved)
}

type companyResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Domain        string    `json:"domain,omitempty"`
	Website       string    `json:"website,omitempty"`
	LinkedInURL   string    `json:"linkedinUrl,omitempty"`
	Industry      string    `json:"industry,omitempty"`
	Location      string    `json:"location,omitempty"`
	EmployeeCount string    `json:"employeeCount,omitempty"`
	Revenue       string    `json:"revenue,omitempty"`
	Founded       int       `json:"founded,omitempty"`
	Description   string    `json:"description,omitempty"`
	Technologies  []string  `json:"technologies,omitempty"`
	Keywords      []string  `json:"keywords,omitempty"`
	Funding       string    `json:"funding,omitempty"`
	Logo          string    `json:"logo,omitempty"`
	Saved         bool      `json:"saved"`
	LastSyncedAt  time.Time `json:"lastSyncedAt"`
}

func toResponse(c domain.Company) companyResponse {
	return companyResponse{
		ID:            c.ID,
		Name:          c.Name,
		Domain:        c.Domain,
		Website:       c.Website,
		LinkedInURL:   c.LinkedInURL,
		Industry:      c.Industry,
		Location:      c.Location,
		EmployeeCount: c.EmployeeCount,
		Revenue:       c.Revenue,
		Founded:       c.Founded,
		Description:   c.Description,
		Technologies:  c.Technologies,
		Keywords:      c.Keywords,
		Funding:       c.Funding,
		Logo:          c.Logo,
		Saved:         c.Saved,
		LastSyncedAt:  c.LastSyncedAt,
	}
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	companies, err := h.repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.DatabaseError("leadgen.list", err)
		httpkit.HandleError(c, apperr.Internal("could not list companies"))
		return
	}
	out := make([]companyResponse, 0, len(companies))
	for _, company := range companies {
		out = append(out, toResponse(company))
	}
	httpkit.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("id must be a valid UUID"))
		return
	}
	company, found, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.log.DatabaseError("leadgen.get", err)
		httpkit.HandleError(c, apperr.Internal("could not load company"))
		return
	}
	if !found {
		httpkit.HandleError(c, apperr.NotFound("company not found"))
		return
	}
	httpkit.OK(c, toResponse(company))
}

func (h *Handler) setSaved(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("id must be a valid UUID"))
		return
	}
	var req struct {
		Saved bool `json:"saved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.repo.SetSaved(c.Request.Context(), id, req.Saved); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httpkit.HandleError(c, apperr.NotFound("company not found"))
			return
		}
		h.log.DatabaseError("leadgen.setSaved", err)
		httpkit.HandleError(c, apperr.Internal("could not update company"))
		return
	}
	httpkit.OK(c, gin.H{"saved": req.Saved})
}
