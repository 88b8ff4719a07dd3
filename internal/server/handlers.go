package server

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"toiler/internal/activity"
	"toiler/internal/db"
)

func (s *Server) autoSchedule(c fiber.Ctx) error {
	projectID, err := idParam(c)
	if err != nil {
		return err
	}
	ctx := c.Context()
	if s.deps.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.Timeout)
		defer cancel()
	}
	if _, err := s.deps.Engine.Trigger(ctx, principal(c), projectID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{})
}

func (s *Server) projectAll(c fiber.Ctx) error {
	projectID, err := idParam(c)
	if err != nil {
		return err
	}
	ctx := c.Context()
	ok, err := s.deps.Projects.IsAuthorized(ctx, principal(c), projectID)
	if err != nil {
		return err
	}
	if !ok {
		return db.ErrNotFound
	}

	ids, err := s.deps.Index.ActivityIDs(ctx, projectID)
	if err != nil {
		return err
	}
	project, err := s.deps.Projects.ProjectTree(ctx, projectID, ids)
	if err != nil {
		return err
	}
	return c.JSON(newProjectView(project))
}

func (s *Server) createActivity(c fiber.Ctx) error {
	var in activity.Input
	if err := c.Bind().JSON(&in); err != nil {
		return badRequest("invalid body")
	}
	a, err := s.deps.Activities.Create(c.Context(), principal(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

type dependencyBody struct {
	Dependency *uint `json:"dependency"`
}

func (s *Server) setDependency(c fiber.Ctx) error {
	activityID, err := idParam(c)
	if err != nil {
		return err
	}
	var body dependencyBody
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest("invalid body")
	}
	a, err := s.deps.Activities.SetDependency(c.Context(), principal(c), activityID, body.Dependency)
	if err != nil {
		return err
	}
	return c.JSON(a)
}

func (s *Server) deleteActivity(c fiber.Ctx) error {
	activityID, err := idParam(c)
	if err != nil {
		return err
	}
	ids, err := s.deps.Activities.Delete(c.Context(), principal(c), activityID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": ids})
}
