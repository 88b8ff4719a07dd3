package scheduler

import (
	"fmt"
	"time"

	"toiler/internal/models"
)

// Working window sentinels. A task still holding them after the pass has no activities.
var (
	FarFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	Epoch     = time.Unix(0, 0).UTC()
)

// ForwardPass re-times the ordered activities from the project start and folds
// every activity window into its task. order must be topologically sorted.
//
// Durations are kept. A task's window becomes the widest envelope of the project
// horizon and its activities; tasks without activities get the horizon.
func ForwardPass(project *models.Project, order []*models.Activity, tasks map[uint]*models.Task) error {
	projectStart, projectEnd := project.Horizon()

	for _, t := range tasks {
		t.SetWindow(FarFuture, Epoch)
	}

	finish := make(map[uint]time.Time, len(order))
	for _, a := range order {
		task, ok := tasks[a.TaskID]
		if !ok {
			return fmt.Errorf("%w: activity %d belongs to task %d", ErrMissingTask, a.ID, a.TaskID)
		}

		start := projectStart
		if a.HasDependency() {
			depFinish, ok := finish[*a.DependencyID]
			if !ok {
				return fmt.Errorf("%w: activity %d scheduled before dependency %d", ErrMissingDependency, a.ID, *a.DependencyID)
			}
			start = depFinish
		}
		end := a.Reschedule(start)
		finish[a.ID] = end

		curStart, curEnd := task.Window()
		task.SetWindow(earliest(projectStart, start, curStart), latest(projectEnd, end, curEnd))
	}

	for _, t := range tasks {
		if start, _ := t.Window(); start.Equal(FarFuture) {
			t.SetWindow(projectStart, projectEnd)
		}
	}
	return nil
}

func earliest(ts ...time.Time) time.Time {
	m := ts[0]
	for _, t := range ts[1:] {
		if t.Before(m) {
			m = t
		}
	}
	return m
}

func latest(ts ...time.Time) time.Time {
	m := ts[0]
	for _, t := range ts[1:] {
		if t.After(m) {
			m = t
		}
	}
	return m
}
