package accounts

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"outreach_backend/internal/http/response"
	"outreach_backend/platform/logger"
)

// Handler exposes account endpoints.
type Handler struct {
	repo *Repository
	log  *logger.Logger
}

func NewHandler(repo *Repository, log *logger.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

type registerRequest struct {
	AccountID   string `json:"account_id" binding:"required"`
	DisplayName string `json:"display_name"`
}

// Register records a provider account. The account starts pending until the
// provider's webhook confirms the session.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	account, err := h.repo.Upsert(c.Request.Context(), req.AccountID, req.DisplayName, StatusPending)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account)
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid account id")
		return
	}
	account, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "account not found")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, account)
}
