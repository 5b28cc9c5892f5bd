package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"alphabit/internal/scheduler"
	"alphabit/internal/service"
)

type SystemHandler struct {
	Scheduler *scheduler.Scheduler
	Config    *service.ConfigStoreService
}

func (h *SystemHandler) Register(r *gin.Engine) {
	system := r.Group("/api/system")
	system.POST("/sync", h.triggerSync)
	system.GET("/status", h.status)
	system.GET("/config/:key", h.getConfig)
	system.PUT("/config/:key", h.setConfig)
}

// @Summary Trigger a fleet sync cycle
// @Tags system
// @Router /api/system/sync [post]
func (h *SystemHandler) triggerSync(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "scheduler unavailable", nil)
		return
	}
	fleet, err := h.Scheduler.TriggerManualSync(c.Request.Context())
	if err != nil {
		// Internal detail stays out of the response body.
		Error(c, http.StatusInternalServerError, "sync failed", nil)
		return
	}
	Ok(c, fleet, nil)
}

// @Summary Scheduler status
// @Tags system
// @Router /api/system/status [get]
func (h *SystemHandler) status(c *gin.Context) {
	if h.Scheduler == nil {
		Error(c, http.StatusInternalServerError, "scheduler unavailable", nil)
		return
	}
	Ok(c, h.Scheduler.Status(), nil)
}

// @Summary Read one dynamic config value
// @Tags system
// @Router /api/system/config/{key} [get]
func (h *SystemHandler) getConfig(c *gin.Context) {
	if h.Config == nil {
		Error(c, http.StatusInternalServerError, "config unavailable", nil)
		return
	}
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "key is required", nil)
		return
	}
	value := h.Config.Get(c.Request.Context(), key, "")
	Ok(c, gin.H{"key": key, "value": value}, nil)
}

type setConfigRequest struct {
	Value string `json:"value" binding:"required"`
}

// @Summary Write one dynamic config value
// @Tags system
// @Router /api/system/config/{key} [put]
func (h *SystemHandler) setConfig(c *gin.Context) {
	if h.Config == nil {
		Error(c, http.StatusInternalServerError, "config unavailable", nil)
		return
	}
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "key is required", nil)
		return
	}
	var req setConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := h.Config.Set(c.Request.Context(), key, req.Value); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"key": key, "value": req.Value}, nil)
}
