package main

import (
	"net/http"

	"casetrack/cmd/internal/http/handler"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routes struct {
	catalog *handler.DefaultCaseStatusRoute
	history *handler.DefaultHistoryRoute
	cases   *handler.DefaultCaseRoute
	bulk    *handler.DefaultBulkRoute
	admin   *handler.DefaultAdminRoute
	users   *handler.DefaultUserRoute
	ws      *handler.DefaultWSRoute
}

func registerRoutes(e *echo.Echo, auth echo.MiddlewareFunc, r *routes) {
	// Docker Compose healthcheck
	e.GET("/health", healthCheckRoute)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api", auth)

	// Catalog
	api.GET("/case-statuses", r.catalog.GetStatuses)
	api.GET("/case-statuses/active", r.catalog.GetActiveStatuses)
	api.GET("/case-statuses/transitions", r.catalog.GetTransitions)
	api.GET("/case-statuses/code/:code", r.catalog.GetStatusByCode)
	api.GET("/case-statuses/order/:n", r.catalog.GetStatusByOrderNumber)
	api.GET("/case-statuses/order/:n/next", r.catalog.GetNextStatus)
	api.GET("/case-statuses/:id", r.catalog.GetStatus)
	api.POST("/case-statuses", r.catalog.CreateStatus)
	api.POST("/case-statuses/reorder", r.catalog.ReorderStatuses)
	api.PATCH("/case-statuses/:id", r.catalog.UpdateStatus)
	api.DELETE("/case-statuses/:id", r.catalog.DeleteStatus)
	api.POST("/case-statuses/:id/toggle", r.catalog.ToggleStatus)

	// Status history
	api.GET("/cases/:id/statuses", r.history.ListStatuses)
	api.GET("/cases/:id/statuses/active", r.history.GetActiveStatus)
	api.GET("/cases/:id/statuses/history", r.history.GetStatusHistory)
	api.POST("/cases/:id/statuses", r.history.AddStatus)
	api.PATCH("/case-status-history/:id", r.history.UpdateStatus)
	api.DELETE("/case-status-history/:id", r.history.DeleteStatus)

	// Cases
	api.POST("/cases", r.cases.CreateCase)
	api.GET("/cases", r.cases.GetCases)
	api.GET("/cases/:id", r.cases.GetCase)
	api.POST("/people", r.cases.CreatePerson)
	api.GET("/people", r.cases.GetPeople)
	api.POST("/collective-processes", r.cases.CreateCollectiveProcess)

	// Bulk
	api.POST("/bulk/status", r.bulk.UpdateStatus)
	api.POST("/bulk/people", r.bulk.CreatePeople)
	api.POST("/bulk/cases", r.bulk.CreateCases)

	// Admin
	api.GET("/activity-logs", r.admin.GetActivity)
	api.GET("/admin/migrations", r.admin.GetMigrations)
	api.POST("/admin/migrations/run", r.admin.RunMigrations)

	// Users
	api.GET("/users/:id", r.users.GetUser)

	// API Gateway websocket integration
	e.POST("/ws/connect", r.ws.HandleConnect, auth)
	e.POST("/ws/disconnect", r.ws.HandleDisconnect)
	e.POST("/ws/message", r.ws.HandleMessage)
}

func healthCheckRoute(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
