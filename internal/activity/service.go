// Package activity implements activity mutations: creation, dependency edits and
// cascading deletes.
package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"toiler/internal/db"
	"toiler/internal/models"
	"toiler/internal/notify"
)

var (
	ErrInvalidDates    = errors.New("planned start is after planned end")
	ErrNameRequired    = errors.New("name is required")
	ErrProjectMismatch = errors.New("reference belongs to another project")
	ErrSelfDependency  = errors.New("activity cannot depend on itself")
	ErrDependencyCycle = errors.New("dependency would create a cycle")
)

// Store is the storage the service reads and mutates
type Store interface {
	IsAuthorized(ctx context.Context, userID, projectID uint) (bool, error)
	GetTask(ctx context.Context, id uint) (*models.Task, error)
	GetState(ctx context.Context, id uint) (*models.State, error)
	ProjectIDForActivity(ctx context.Context, activityID uint) (uint, error)
	ProjectActivities(ctx context.Context, projectID uint) ([]models.Activity, error)
	CreateActivity(ctx context.Context, activity *models.Activity, assigneeIDs []uint) error
	SetActivityDependency(ctx context.Context, activityID uint, dependencyID *uint) error
	DeleteActivities(ctx context.Context, ids []uint) error
}

// Invalidator drops derived per-project state
type Invalidator interface {
	InvalidateProject(ctx context.Context, projectID uint) error
}

// Input holds the fields of a new activity
type Input struct {
	TaskID           uint      `json:"task"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	PlannedStartDate time.Time `json:"planned_start_date"`
	PlannedEndDate   time.Time `json:"planned_end_date"`
	PlannedBudget    *float64  `json:"planned_budget"`
	DependencyID     *uint     `json:"dependency"`
	StateID          *uint     `json:"state"`
	Assignees        []uint    `json:"assignees"`
}

// Service applies activity mutations and emits the matching change events
type Service struct {
	store  Store
	cache  Invalidator
	sink   notify.Sink
	logger *slog.Logger
}

func NewService(store Store, cache Invalidator, sink notify.Sink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, sink: sink, logger: logger}
}

// authorize checks principal may see and edit the project
func (s *Service) authorize(ctx context.Context, principal, projectID uint) error {
	ok, err := s.store.IsAuthorized(ctx, principal, projectID)
	if err != nil {
		return err
	}
	if !ok {
		return db.ErrNotFound
	}
	return nil
}

// Create validates and stores a new activity
func (s *Service) Create(ctx context.Context, principal uint, in Input) (*models.Activity, error) {
	task, err := s.store.GetTask(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, task.ProjectID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}
	if in.PlannedStartDate.After(in.PlannedEndDate) {
		return nil, ErrInvalidDates
	}
	if in.DependencyID != nil {
		if err := s.sameProject(ctx, *in.DependencyID, task.ProjectID); err != nil {
			return nil, err
		}
	}
	if in.StateID != nil {
		state, err := s.store.GetState(ctx, *in.StateID)
		if errors.Is(err, db.ErrNotFound) || (err == nil && state.ProjectID != task.ProjectID) {
			return nil, fmt.Errorf("state %d: %w", *in.StateID, ErrProjectMismatch)
		}
		if err != nil {
			return nil, err
		}
	}

	a := &models.Activity{
		Name:             strings.TrimSpace(in.Name),
		TaskID:           task.ID,
		Description:      in.Description,
		PlannedStartDate: in.PlannedStartDate.UTC(),
		PlannedEndDate:   in.PlannedEndDate.UTC(),
		PlannedBudget:    in.PlannedBudget,
		DependencyID:     in.DependencyID,
		StateID:          in.StateID,
	}
	if err := s.store.CreateActivity(ctx, a, in.Assignees); err != nil {
		return nil, err
	}

	s.invalidate(ctx, task.ProjectID)
	s.publish(ctx, notify.Event{Event: notify.Added, Type: notify.KindActivity, ID: a.ID, Parent: a.TaskID})
	return a, nil
}

// SetDependency points activityID at dependencyID, or clears the edge when nil.
// Edges that would close a loop are rejected. Setting the current edge again
// writes and publishes nothing.
func (s *Service) SetDependency(ctx context.Context, principal, activityID uint, dependencyID *uint) (*models.Activity, error) {
	projectID, err := s.store.ProjectIDForActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, projectID); err != nil {
		return nil, err
	}

	activities, err := s.store.ProjectActivities(ctx, projectID)
	if err != nil {
		return nil, err
	}
	edges := make(map[uint]*uint, len(activities))
	var target *models.Activity
	for i := range activities {
		edges[activities[i].ID] = activities[i].DependencyID
		if activities[i].ID == activityID {
			target = &activities[i]
		}
	}
	if target == nil {
		return nil, db.ErrNotFound
	}
	if (dependencyID == nil && !target.HasDependency()) || (dependencyID != nil && target.DependsOn(*dependencyID)) {
		return target, nil
	}

	if dependencyID != nil {
		if *dependencyID == activityID {
			return nil, ErrSelfDependency
		}
		if _, ok := edges[*dependencyID]; !ok {
			return nil, fmt.Errorf("dependency %d: %w", *dependencyID, ErrProjectMismatch)
		}
		if reaches(edges, *dependencyID, activityID) {
			return nil, fmt.Errorf("%d -> %d: %w", activityID, *dependencyID, ErrDependencyCycle)
		}
	}

	if err := s.store.SetActivityDependency(ctx, activityID, dependencyID); err != nil {
		return nil, err
	}
	target.DependencyID = dependencyID
	s.publish(ctx, notify.ActivityUpdated(target.ID, target.TaskID))
	return target, nil
}

// Delete removes the activity and every activity depending on it, directly or
// transitively. It returns the removed ids.
func (s *Service) Delete(ctx context.Context, principal, activityID uint) ([]uint, error) {
	projectID, err := s.store.ProjectIDForActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, principal, projectID); err != nil {
		return nil, err
	}

	activities, err := s.store.ProjectActivities(ctx, projectID)
	if err != nil {
		return nil, err
	}
	removed := dependents(activities, activityID)
	if len(removed) == 0 {
		return nil, db.ErrNotFound
	}
	ids := make([]uint, len(removed))
	for i, a := range removed {
		ids[i] = a.ID
	}
	if err := s.store.DeleteActivities(ctx, ids); err != nil {
		return nil, err
	}

	s.invalidate(ctx, projectID)
	events := make([]notify.Event, len(removed))
	for i, a := range removed {
		events[i] = notify.Event{Event: notify.Deleted, Type: notify.KindActivity, ID: a.ID, Parent: a.TaskID}
	}
	s.publish(ctx, events...)
	return ids, nil
}

func (s *Service) sameProject(ctx context.Context, activityID, projectID uint) error {
	got, err := s.store.ProjectIDForActivity(ctx, activityID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && got != projectID) {
		return fmt.Errorf("dependency %d: %w", activityID, ErrProjectMismatch)
	}
	return err
}

func (s *Service) invalidate(ctx context.Context, projectID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProject(ctx, projectID); err != nil {
		s.logger.ErrorContext(ctx, "cache invalidation failed", "project", projectID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, events ...notify.Event) {
	if s.sink == nil {
		return
	}
	if err := notify.Publish(context.WithoutCancel(ctx), s.sink, events...); err != nil {
		s.logger.WarnContext(ctx, "change notification failed", "events", len(events), "error", err)
	}
}

// reaches reports whether following dependency edges from start arrives at goal
func reaches(edges map[uint]*uint, start, goal uint) bool {
	seen := make(map[uint]bool)
	for cur := &start; cur != nil; cur = edges[*cur] {
		if *cur == goal {
			return true
		}
		if seen[*cur] {
			return false
		}
		seen[*cur] = true
	}
	return false
}

// dependents returns root followed by every activity that transitively depends on it
func dependents(activities []models.Activity, root uint) []models.Activity {
	children := make(map[uint][]models.Activity)
	var out []models.Activity
	for _, a := range activities {
		if a.ID == root {
			out = append(out, a)
		}
		if a.HasDependency() {
			children[*a.DependencyID] = append(children[*a.DependencyID], a)
		}
	}
	if len(out) == 0 {
		return nil
	}
	seen := map[uint]bool{root: true}
	for i := 0; i < len(out); i++ {
		for _, c := range children[out[i].ID] {
			if !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
	}
	return out
}
