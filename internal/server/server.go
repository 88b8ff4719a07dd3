// Package server exposes scheduling and the project read path over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"toiler/internal/activity"
	"toiler/internal/db"
	"toiler/internal/models"
	"toiler/internal/scheduler"
)

// Projects is the storage the read path needs
type Projects interface {
	IsAuthorized(ctx context.Context, userID, projectID uint) (bool, error)
	ProjectTree(ctx context.Context, projectID uint, activityIDs []uint) (*models.Project, error)
}

// TopActivities returns the capped activity ids of a project
type TopActivities interface {
	ActivityIDs(ctx context.Context, projectID uint) ([]uint, error)
}

// Deps are the collaborators behind the routes
type Deps struct {
	Projects   Projects
	Engine     *scheduler.Engine
	Index      TopActivities
	Activities *activity.Service
	Logger     *slog.Logger
	// Timeout bounds a schedule run. Zero means no deadline beyond the request's.
	Timeout time.Duration
	// AccessLog enables the request logger middleware.
	AccessLog bool
}

type Server struct {
	app  *fiber.App
	deps Deps
	log  *slog.Logger
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{deps: deps, log: deps.Logger}
	s.app = fiber.New(fiber.Config{
		AppName:      "toiler",
		ErrorHandler: s.handleError,
	})
	s.app.Use(recoverer.New())
	if deps.AccessLog {
		s.app.Use(logger.New())
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api", requirePrincipal)
	api.Put("/projects/:id/auto-schedule", s.autoSchedule)
	api.Get("/projects/:id/all", s.projectAll)
	api.Post("/activities", s.createActivity)
	api.Patch("/activities/:id/dependency", s.setDependency)
	api.Delete("/activities/:id", s.deleteActivity)
}

// App exposes the fiber app, mainly for app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

type httpError struct {
	status int
	detail string
}

func (e *httpError) Error() string { return e.detail }

func badRequest(detail string) error {
	return &httpError{status: fiber.StatusBadRequest, detail: detail}
}

// handleError maps domain errors to responses. Storage errors never leak.
func (s *Server) handleError(c fiber.Ctx, err error) error {
	status, detail := fiber.StatusInternalServerError, "internal error"

	var he *httpError
	var fe *fiber.Error
	switch {
	case errors.As(err, &he):
		status, detail = he.status, he.detail
	case errors.As(err, &fe):
		status, detail = fe.Code, fe.Message
	case errors.Is(err, db.ErrNotFound):
		status, detail = fiber.StatusNotFound, "Not found."
	case errors.Is(err, activity.ErrDependencyCycle):
		status, detail = fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, activity.ErrInvalidDates),
		errors.Is(err, activity.ErrNameRequired),
		errors.Is(err, activity.ErrProjectMismatch),
		errors.Is(err, activity.ErrSelfDependency):
		status, detail = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, detail = fiber.StatusServiceUnavailable, "schedule timed out"
	default:
		attrs := []any{"method", c.Method(), "path", c.Path(), "error", err}
		if scheduler.IsInvariantViolation(err) {
			s.log.ErrorContext(c.Context(), "inconsistent project graph", attrs...)
		} else {
			s.log.ErrorContext(c.Context(), "request failed", attrs...)
		}
	}
	return c.Status(status).JSON(fiber.Map{"detail": detail})
}
