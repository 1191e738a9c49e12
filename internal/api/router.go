package api

import (
	"address-validation-service/internal/api/middleware"
	address "address-validation-service/internal/modules/addresses"
	"address-validation-service/internal/modules/health"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	addressHandler *address.Handler,
	healthHandler *health.Handler,
) {
	// --- Probes & metrics ---
	e.GET("/health", healthHandler.Live)
	e.GET("/health/ready", healthHandler.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// --- Address Routes ---
	v1 := e.Group("/api/v1", middleware.Metrics())
	{
		addressGroup := v1.Group("/addresses")
		addressGroup.POST("", addressHandler.Create)
		addressGroup.GET("", addressHandler.List)
		addressGroup.GET("/:addressId", addressHandler.Get)
		addressGroup.PUT("/:addressId", addressHandler.Update)
		addressGroup.DELETE("/:addressId", addressHandler.Delete)
		addressGroup.POST("/:addressId/validate", addressHandler.RequestValidation)
	}
}
