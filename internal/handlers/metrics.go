package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// MetricsHandler exposes the Prometheus scrape endpoint.
type MetricsHandler struct {
	handler http.Handler
}

// MetricsSource is satisfied by *metrics.Metrics.
type MetricsSource interface {
	Handler() http.Handler
}

func NewMetricsHandler(source MetricsSource) *MetricsHandler {
	return &MetricsHandler{handler: source.Handler()}
}

func (h *MetricsHandler) Register(e *echo.Echo) {
	e.GET("/metrics", echo.WrapHandler(h.handler))
}
