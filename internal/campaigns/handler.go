package campaigns

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"outreach_backend/internal/http/response"
	"outreach_backend/platform/logger"
)

// Handler exposes campaign management endpoints.
type Handler struct {
	svc *Service
	log *logger.Logger
}

func NewHandler(svc *Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type createRequest struct {
	Name              string   `json:"name" binding:"required"`
	Timezone          string   `json:"timezone"`
	LinkedInAccountID *string  `json:"linkedin_account_id"`
	Sequence          Sequence `json:"sequence"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	var accountID *uuid.UUID
	if req.LinkedInAccountID != nil {
		id, err := uuid.Parse(*req.LinkedInAccountID)
		if err != nil {
			response.BadRequest(c, "invalid linkedin_account_id")
			return
		}
		accountID = &id
	}

	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	}

	campaign, err := h.svc.Create(c.Request.Context(), CreateParams{
		LinkedInAccountID: accountID,
		Name:              req.Name,
		Timezone:          tz,
		Sequence:          req.Sequence,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, campaign)
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}
	campaign, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, campaign)
}

type saveSequenceRequest struct {
	Timezone string   `json:"timezone"`
	Sequence Sequence `json:"sequence" binding:"required"`
}

// SaveSequence validates and persists a campaign's step sequence. The
// validation report is returned even on success so callers can surface
// warnings such as unknown placeholders.
func (h *Handler) SaveSequence(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}

	var req saveSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	report, err := h.svc.SaveSequence(c.Request.Context(), id, req.Timezone, req.Sequence)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

func (h *Handler) Activate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}
	if err := h.svc.Activate(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"status": string(StatusActive)})
}

func (h *Handler) Pause(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}
	if err := h.svc.Pause(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"status": string(StatusPaused)})
}
