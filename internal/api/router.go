package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"go-batch-generator/internal/api/handler"
	"go-batch-generator/pkg/router"
)

// RegisterRoutes wires the run API; metrics may be nil to leave /metrics unmounted
func RegisterRoutes(r *router.Router, runs *handler.RunHandler, metricsPath string, metrics http.Handler) {
	r.POST("/api/v1/runs", runs.CreateRun)
	r.GET("/api/v1/runs", runs.ListRuns)
	r.GET("/api/v1/runs/latest", runs.GetLatestRun)
	// More specific routes first
	r.GET("/api/v1/runs/*/workers", runs.GetRunWorkers)
	r.GET("/api/v1/runs/*", runs.GetRun)

	if metrics != nil {
		r.Handle(metricsPath, metrics)
	}
	r.Handle("/swagger/*", httpSwagger.WrapHandler)
}
