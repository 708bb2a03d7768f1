package accounts

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "outreach_backend/internal/http"
	"outreach_backend/platform/logger"
)

// Module bundles the accounts bounded context.
type Module struct {
	handler *Handler
	repo    *Repository
}

func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	return &Module{
		handler: NewHandler(repo, log),
		repo:    repo,
	}
}

// Repository exposes account lookups for the webhook and scheduler paths.
func (m *Module) Repository() *Repository { return m.repo }

func (m *Module) Name() string { return "accounts" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.V1.Group("/accounts")
	g.POST("", m.handler.Register)
	g.GET("", m.handler.List)
	g.GET("/:id", m.handler.Get)
}
