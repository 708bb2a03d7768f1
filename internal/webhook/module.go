package webhook

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"outreach_backend/internal/accounts"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/leads"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Module bundles webhook ingestion.
type Module struct {
	handler *Handler
}

func NewModule(
	pool *pgxpool.Pool,
	leadsRepo *leads.Repository,
	leadsSvc *leads.Service,
	acctRepo *accounts.Repository,
	bus events.Bus,
	cfg config.ProviderConfig,
	log *logger.Logger,
) *Module {
	repo := NewRepository(pool)
	svc := NewService(leadsRepo, leadsSvc, acctRepo, bus, log)
	return &Module{
		handler: NewHandler(repo, svc, cfg, log),
	}
}

func (m *Module) Name() string { return "webhook" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.V1.Group("/webhooks")
	g.POST("/messaging", m.handler.Messaging)
	g.POST("/account-status", m.handler.AccountStatus)
}
