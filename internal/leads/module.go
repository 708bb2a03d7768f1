package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"outreach_backend/internal/activity"
	"outreach_backend/internal/events"
	apphttp "outreach_backend/internal/http"
	"outreach_backend/platform/logger"
)

// Module bundles the leads bounded context.
type Module struct {
	handler *Handler
	service *Service
	repo    *Repository
}

func NewModule(pool *pgxpool.Pool, activities *activity.Repository, bus events.Bus, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(pool, repo, activities, bus, log)
	return &Module{
		handler: NewHandler(svc, repo, log),
		service: svc,
		repo:    repo,
	}
}

// Service exposes lifecycle transitions for the webhook and scheduler paths.
func (m *Module) Service() *Service { return m.service }

// Repository exposes lead lookups for the scheduler.
func (m *Module) Repository() *Repository { return m.repo }

func (m *Module) Name() string { return "leads" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	campaigns := ctx.V1.Group("/campaigns/:id")
	campaigns.POST("/leads", m.handler.Import)
	campaigns.GET("/leads", m.handler.ListByCampaign)
	campaigns.GET("/leads/stats", m.handler.Stats)

	leads := ctx.V1.Group("/leads")
	leads.GET("/:id", m.handler.Get)
	leads.GET("/:id/history", m.handler.History)
	leads.POST("/:id/retry", m.handler.Retry)
}
