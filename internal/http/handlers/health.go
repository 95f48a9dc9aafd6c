package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	pingDB    func() error
	pingCache func() error
}

func NewHealthHandler(pingDB, pingCache func() error) *HealthHandler {
	return &HealthHandler{pingDB: pingDB, pingCache: pingCache}
}

// Healthz is liveness: the process is up.
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz is readiness: dependencies answer. The cache is reported but does
// not fail readiness, reads fall back to Postgres when it is down.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cacheStatus := "ok"

	if h.pingCache != nil && h.pingCache() != nil {
		cacheStatus = "down"
	}

	if h.pingDB != nil {
		if err := h.pingDB(); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"db":     "down",
				"cache":  cacheStatus,
			})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"db":     "ok",
		"cache":  cacheStatus,
	})
}
