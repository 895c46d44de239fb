package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "MedBill Print Service"
	serviceVersion = "1.0.0"
)

// Version is overridden at build time with -ldflags "-X ...handler.Version=..."
var Version = serviceVersion

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime     time.Time
	db            Pinger
	printsEnabled bool
}

// NewSystemHandler creates a new SystemHandler. db may be nil.
func NewSystemHandler(db Pinger, printsEnabled bool) *SystemHandler {
	return &SystemHandler{
		startTime:     time.Now(),
		db:            db,
		printsEnabled: printsEnabled,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	GoVersion       string `json:"go_version"`
	OS              string `json:"os"`
	Uptime          string `json:"uptime"`
	PrintingEnabled bool   `json:"printing_enabled"`
}

// GetSystemInfo returns version, platform and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:            serviceName,
		Version:         Version,
		GoVersion:       runtime.Version(),
		OS:              runtime.GOOS,
		Uptime:          time.Since(h.startTime).Round(time.Second).String(),
		PrintingEnabled: h.printsEnabled,
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping is a liveness probe for the desktop shell
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HealthResponse reports the state of the backing store
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health returns 200 while the database answers, 503 otherwise
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "unconfigured"}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		resp.Database = "ok"
	}
	c.JSON(http.StatusOK, resp)
}
