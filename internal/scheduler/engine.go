package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"toiler/internal/db"
	"toiler/internal/models"
	"toiler/internal/notify"
)

// Loader is the read side of storage the engine needs
type Loader interface {
	IsAuthorized(ctx context.Context, userID, projectID uint) (bool, error)
	IsManager(ctx context.Context, userID, projectID uint) (bool, error)
	LoadProjectGraph(ctx context.Context, projectID uint) (*models.Project, []models.Task, []models.Activity, error)
}

// Writer persists one run atomically
type Writer interface {
	SaveSchedule(ctx context.Context, run *models.ScheduleRun, activities []*models.Activity, tasks []*models.Task) error
}

// Report describes a completed run
type Report struct {
	Run        *models.ScheduleRun
	Project    *models.Project
	Activities []*models.Activity
	Tasks      []*models.Task
	// NotifyErr is set when the schedule was saved but events were not delivered.
	NotifyErr error
}

// Engine runs Load, Sort, Schedule, Persist and Notify for one project at a time.
// Runs for different projects proceed in parallel.
type Engine struct {
	loader Loader
	writer Writer
	sink   notify.Sink
	logger *slog.Logger
	locks  *projectLocks
}

// NewEngine wires the pipeline. A nil sink drops events; a nil logger uses slog.Default.
func NewEngine(loader Loader, writer Writer, sink notify.Sink, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		loader: loader,
		writer: writer,
		sink:   sink,
		logger: logger,
		locks:  newProjectLocks(),
	}
}

// Trigger is the external entry point: only the project manager may reschedule.
// Anyone else gets db.ErrNotFound.
func (e *Engine) Trigger(ctx context.Context, principal, projectID uint) (*Report, error) {
	ok, err := e.loader.IsManager(ctx, principal, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, db.ErrNotFound
	}
	return e.Recompute(ctx, principal, projectID)
}

// Recompute reschedules every activity and task of the project on behalf of principal,
// who must be the manager or a team member.
func (e *Engine) Recompute(ctx context.Context, principal, projectID uint) (*Report, error) {
	release, err := e.locks.acquire(ctx, projectID)
	if err != nil {
		return nil, err
	}
	defer release()

	run := models.NewScheduleRun(projectID, principal)
	logger := e.logger.With("run", run.ID, "project", projectID)
	logger.DebugContext(ctx, "schedule run started", "user", principal)

	ok, err := e.loader.IsAuthorized(ctx, principal, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, db.ErrNotFound
	}

	project, taskRows, activityRows, err := e.loader.LoadProjectGraph(ctx, projectID)
	if err != nil {
		return nil, err
	}

	activities := make([]*models.Activity, len(activityRows))
	for i := range activityRows {
		activities[i] = &activityRows[i]
	}
	tasks := make([]*models.Task, len(taskRows))
	byID := make(map[uint]*models.Task, len(taskRows))
	for i := range taskRows {
		tasks[i] = &taskRows[i]
		byID[taskRows[i].ID] = &taskRows[i]
	}

	order, err := TopologicalSort(activities)
	if err != nil {
		logger.ErrorContext(ctx, "activity graph is inconsistent", "error", err)
		return nil, err
	}
	if err := ForwardPass(project, order, byID); err != nil {
		logger.ErrorContext(ctx, "activity graph is inconsistent", "error", err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("schedule project %d: %w", projectID, err)
	}
	if err := e.writer.SaveSchedule(ctx, run, activities, tasks); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}

	report := &Report{Run: run, Project: project, Activities: activities, Tasks: tasks}
	if err := e.publish(ctx, projectID, activities, tasks); err != nil {
		report.NotifyErr = err
		logger.WarnContext(ctx, "change notification failed", "error", err)
	}

	logger.InfoContext(ctx, "schedule run finished",
		"activities", len(activities),
		"tasks", len(tasks),
		"elapsed", time.Since(run.StartedAt).Round(time.Microsecond))
	return report, nil
}

func (e *Engine) publish(ctx context.Context, projectID uint, activities []*models.Activity, tasks []*models.Task) error {
	if e.sink == nil {
		return nil
	}
	events := make([]notify.Event, 0, len(activities)+len(tasks))
	for _, t := range tasks {
		events = append(events, notify.TaskUpdated(t.ID, projectID))
	}
	for _, a := range activities {
		events = append(events, notify.ActivityUpdated(a.ID, a.TaskID))
	}
	// The schedule is committed; a cancelled request must not drop the events.
	return notify.Publish(context.WithoutCancel(ctx), e.sink, events...)
}

// IsInvariantViolation reports whether err means the stored graph is inconsistent
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrMissingDependency) ||
		errors.Is(err, ErrMissingTask) ||
		errors.Is(err, ErrDependencyCycle)
}
