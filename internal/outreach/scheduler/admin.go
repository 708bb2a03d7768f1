package scheduler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/http/response"
	"outreach_backend/platform/logger"
)

// AdminModule exposes manual controls over the background loop: pausing and
// resuming the poll loop and pushing a single lead through the engine.
type AdminModule struct {
	sched *Scheduler
	proc  *Processor
	log   *logger.Logger

	// baseCtx bounds restarted loops to the process lifetime rather than
	// the start request.
	baseCtx context.Context
}

func NewAdminModule(baseCtx context.Context, sched *Scheduler, proc *Processor, log *logger.Logger) *AdminModule {
	return &AdminModule{sched: sched, proc: proc, log: log, baseCtx: baseCtx}
}

func (m *AdminModule) Name() string { return "scheduler-admin" }

func (m *AdminModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	g := ctx.V1.Group("/admin/scheduler")
	g.POST("/start", m.start)
	g.POST("/stop", m.stop)
	g.GET("/status", m.status)

	ctx.V1.POST("/admin/leads/:id/process", m.processLead)
}

func (m *AdminModule) start(c *gin.Context) {
	m.sched.Start(m.baseCtx)
	m.log.Info("scheduler started via admin")
	response.OK(c, m.sched.Status())
}

func (m *AdminModule) stop(c *gin.Context) {
	m.sched.Stop()
	m.log.Info("scheduler stopped via admin")
	response.OK(c, m.sched.Status())
}

func (m *AdminModule) status(c *gin.Context) {
	response.OK(c, m.sched.Status())
}

// processLead runs one lead through the processor synchronously. The
// response reflects persistence, not delivery: a lead that was simply not
// eligible yet also returns ok.
func (m *AdminModule) processLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid lead id")
		return
	}
	if err := m.proc.ProcessLead(c.Request.Context(), id); err != nil {
		m.log.WithLead(id.String()).Error("manual lead processing", "error", err)
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"processed": true})
}
