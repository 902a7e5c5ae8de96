package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/streamchannel/sequencer/internal/state"
)

// Pinger is satisfied by the store's connection pool, used for the health
// check's dependency probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewEngine builds the fully-routed Gin engine: domain routes, /metrics,
// and /health.
func NewEngine(manager *state.Manager, settlement Settlement, pinger Pinger, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		if pinger != nil {
			if err := pinger.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	NewHandler(manager, settlement, log).Register(r.Group(""))

	return r
}
