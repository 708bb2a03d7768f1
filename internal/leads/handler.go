package leads

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"outreach_backend/internal/http/response"
	"outreach_backend/platform/logger"
)

// Handler exposes lead endpoints.
type Handler struct {
	svc  *Service
	repo *Repository
	log  *logger.Logger
}

func NewHandler(svc *Service, repo *Repository, log *logger.Logger) *Handler {
	return &Handler{svc: svc, repo: repo, log: log}
}

type importRequest struct {
	Leads []ImportLead `json:"leads" binding:"required"`
}

func (h *Handler) Import(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	imported, err := h.svc.Import(c.Request.Context(), campaignID, req.Leads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{
		"imported": imported,
		"skipped":  len(req.Leads) - imported,
	})
}

func (h *Handler) ListByCampaign(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.repo.ListByCampaign(c.Request.Context(), campaignID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Stats returns per-status lead counts for a campaign.
func (h *Handler) Stats(c *gin.Context) {
	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}
	counts, err := h.repo.CountByStatus(c.Request.Context(), campaignID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, counts)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	lead, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lead)
}

func (h *Handler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, err := h.svc.History(c.Request.Context(), id, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Retry resets an errored lead for another automation attempt.
func (h *Handler) Retry(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	if err := h.svc.Retry(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"status": "pending_invite"})
}
