package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"alphabit/internal/scheduler"
)

type HealthHandler struct {
	DB        *gorm.DB
	Scheduler *scheduler.Scheduler
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

// @Summary Liveness check
// @Tags health
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "alphabit"})
}

// @Summary Readiness check
// @Tags health
// @Success 200 {object} map[string]any
// @Router /readyz [get]
func (h *HealthHandler) ready(c *gin.Context) {
	detail := gin.H{}
	if h.Scheduler != nil {
		detail["scheduler"] = h.Scheduler.Status().State
	}

	dbStatus := "ok"
	switch {
	case h.DB == nil:
		dbStatus = "missing"
	default:
		sqlDB, err := h.DB.DB()
		if err != nil {
			dbStatus = "error"
		} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			dbStatus = "unreachable"
		}
	}
	detail["db"] = dbStatus

	if dbStatus != "ok" {
		detail["status"] = "not_ready"
		c.JSON(http.StatusServiceUnavailable, detail)
		return
	}
	detail["status"] = "ready"
	c.JSON(http.StatusOK, detail)
}
