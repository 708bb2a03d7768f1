// Package router wires modules and middleware onto the Gin engine.
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	apphttp "outreach_backend/internal/http"
	"outreach_backend/internal/http/middleware"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

// Config holds router construction dependencies.
type Config struct {
	Env     string
	HTTP    config.HTTPConfig
	Log     *logger.Logger
	Modules []apphttp.Module
}

// New builds the Gin engine, applies shared middleware and registers all modules.
func New(cfg Config) *gin.Engine {
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.RequestLogger(cfg.Log))
	engine.Use(middleware.Recovery(cfg.Log))
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if cfg.HTTP != nil && cfg.HTTP.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else if cfg.HTTP != nil {
		corsCfg.AllowOrigins = cfg.HTTP.GetCORSOrigins()
		corsCfg.AllowCredentials = true
	} else {
		corsCfg.AllowAllOrigins = true
	}
	engine.Use(cors.New(corsCfg))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ctx := &apphttp.RouterContext{
		Engine: engine,
		V1:     engine.Group("/api/v1"),
	}

	for _, m := range cfg.Modules {
		m.RegisterRoutes(ctx)
		cfg.Log.Info("module routes registered", "module", m.Name())
	}

	return engine
}
