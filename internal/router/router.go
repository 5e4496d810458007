package router // package router registers the HTTP routes of the seating API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/classroom-seating/internal/handler"
    "github.com/iliyamo/classroom-seating/internal/middleware"
)

// RegisterRoutes registers routes that never require authentication.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
    e.GET("/healthz", handler.Health(db))
}

// SeatingOptions configures the protected class routes.
type SeatingOptions struct {
    // JWTSecret enables bearer-token identity and makes a valid token
    // mandatory.  When empty every request runs as the anonymous actor.
    JWTSecret string
    // Limiter guards the arrangement and export routes.  May be nil.
    Limiter echo.MiddlewareFunc
}

// RegisterSeating mounts the classroom seating API under /v1/classes.
func RegisterSeating(e *echo.Echo, h *handler.SeatingHandler, opts SeatingOptions) {
    g := e.Group("/v1/classes")
    if opts.JWTSecret != "" {
        g.Use(middleware.JWTAuth(opts.JWTSecret))
        g.Use(middleware.RequireRole("teacher", "admin"))
    }
    limited := []echo.MiddlewareFunc{}
    if opts.Limiter != nil {
        limited = append(limited, opts.Limiter)
    }

    g.PUT("/:id/layout", h.PutLayout)
    g.GET("/:id/layout/empty", h.EmptyGrid)
    g.POST("/:id/arrangements/random", h.RandomArrange, limited...)
    g.GET("/:id/arrangements/latest", h.Latest)
    g.POST("/:id/records", h.SaveRecord)
    g.GET("/:id/records", h.ListRecords)
    g.GET("/:id/export.pdf", h.ExportLatest, limited...)
    g.POST("/:id/export.pdf", h.ExportPosted, limited...)
}
