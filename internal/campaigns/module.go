package campaigns

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "outreach_backend/internal/http"
	"outreach_backend/platform/logger"
	"outreach_backend/platform/validator"
)

// Module bundles the campaigns bounded context.
type Module struct {
	handler *Handler
	service *Service
	repo    *Repository
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(repo, val, log)
	return &Module{
		handler: NewHandler(svc, log),
		service: svc,
		repo:    repo,
	}
}

// Service exposes the campaign service for other modules and the scheduler.
func (m *Module) Service() *Service { return m.service }

// Repository exposes the repository for the scheduler's read paths.
func (m *Module) Repository() *Repository { return m.repo }

func (m *Module) Name() string { return "campaigns" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.V1.Group("/campaigns")
	g.POST("", m.handler.Create)
	g.GET("", m.handler.List)
	g.GET("/:id", m.handler.Get)
	g.PUT("/:id/sequence", m.handler.SaveSequence)
	g.POST("/:id/activate", m.handler.Activate)
	g.POST("/:id/pause", m.handler.Pause)
}
