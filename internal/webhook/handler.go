package webhook

import (
	"crypto/subtle"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"outreach_backend/internal/http/response"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

const maxWebhookBody = 1 << 20

// Handler receives provider callbacks. Payloads are stored raw before any
// interpretation; interpretation failures still return 200 so the provider
// does not retry a payload that will never parse.
type Handler struct {
	repo   *Repository
	svc    *Service
	secret string
	log    *logger.Logger
}

func NewHandler(repo *Repository, svc *Service, cfg config.ProviderConfig, log *logger.Logger) *Handler {
	return &Handler{repo: repo, svc: svc, secret: cfg.GetProviderWebhookSecret(), log: log}
}

// Messaging handles inbound messages and relation notifications.
func (h *Handler) Messaging(c *gin.Context) {
	body, ok := h.accept(c, "messaging")
	if !ok {
		return
	}
	if err := h.svc.HandleMessaging(c.Request.Context(), body); err != nil {
		h.log.Error("handle messaging webhook", "error", err)
		response.Error(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// AccountStatus handles account connectivity notifications.
func (h *Handler) AccountStatus(c *gin.Context) {
	body, ok := h.accept(c, "account_status")
	if !ok {
		return
	}
	if err := h.svc.HandleAccountStatus(c.Request.Context(), body); err != nil {
		h.log.Error("handle account status webhook", "error", err)
		response.Error(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// accept verifies the shared secret, reads the body and stores it raw.
func (h *Handler) accept(c *gin.Context, source string) ([]byte, bool) {
	if h.secret != "" {
		got := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			response.Unauthorized(c, "invalid webhook secret")
			return nil, false
		}
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "unreadable body")
		return nil, false
	}

	headers := map[string]string{
		"Content-Type": c.GetHeader("Content-Type"),
		"User-Agent":   c.GetHeader("User-Agent"),
	}
	if err := h.repo.SaveRaw(c.Request.Context(), source, headers, body); err != nil {
		h.log.DatabaseError("save raw webhook", err)
		// Storage failure must not lose the transition; continue.
	}
	return body, true
}
