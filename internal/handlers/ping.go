package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/converse/internal/version"
)

// PingHandler answers liveness probes.
type PingHandler struct {
	version string
}

func NewPingHandler() *PingHandler {
	return &PingHandler{version: version.Get().String()}
}

// Register mounts GET /ping and HEAD /health.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.Health)
}

// Ping reports the process is up and which build it runs.
func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, PingResponse{Status: "ok", Version: h.version})
}

func (h *PingHandler) Health(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// PingResponse is the body of GET /ping.
type PingResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
