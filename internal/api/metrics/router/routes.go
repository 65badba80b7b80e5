// Package router đăng ký các route của metric engine.
package router

import (
	"github.com/gofiber/fiber/v3"

	metricshdl "sales_metrics/internal/api/metrics/handler"
	"sales_metrics/internal/api/middleware"
	apirouter "sales_metrics/internal/api/router"
)

// Register đăng ký route metrics lên v1. Handler được dựng sẵn ở cmd/server
// (catalog + engine inject lúc khởi động) và truyền vào đây.
func Register(v1 fiber.Router, h *metricshdl.MetricsHandler) error {
	accountMiddleware := middleware.AccountContextMiddleware()
	mw := []fiber.Handler{accountMiddleware}

	apirouter.RegisterRouteWithMiddleware(v1, "/metrics", "GET", "/catalog", mw, h.HandleCatalog)
	apirouter.RegisterRouteWithMiddleware(v1, "/metrics", "GET", "/catalog/:name", mw, h.HandleCatalogItem)
	apirouter.RegisterRouteWithMiddleware(v1, "/metrics", "POST", "/execute", mw, h.HandleExecute)
	apirouter.RegisterRouteWithMiddleware(v1, "/metrics", "POST", "/users", mw, h.HandleUsers)
	apirouter.RegisterRouteWithMiddleware(v1, "/metrics", "POST", "/compare", mw, h.HandleCompare)
	apirouter.RegisterRouteWithMiddleware(v1, "/metrics", "GET", "/periods", mw, h.HandlePeriods)

	return nil
}
