// Package scheduler computes earliest-start schedules for the activity forest of
// a project and rolls them up into tasks.
package scheduler

import (
	"errors"
	"fmt"
	"strings"

	"toiler/internal/models"
)

var (
	ErrMissingDependency = errors.New("dependency not in project")
	ErrMissingTask       = errors.New("task not in project")
	ErrDependencyCycle   = errors.New("dependency cycle")
)

// TopologicalSort orders activities so that every activity follows its
// dependency. Activities are visited depth first in input order, so the result
// is deterministic for a given input.
func TopologicalSort(activities []*models.Activity) ([]*models.Activity, error) {
	const (
		white = iota
		gray
		black
	)

	byID := make(map[uint]*models.Activity, len(activities))
	for _, a := range activities {
		byID[a.ID] = a
	}

	color := make(map[uint]int, len(activities))
	order := make([]*models.Activity, 0, len(activities))
	var path []uint

	var visit func(a *models.Activity) error
	visit = func(a *models.Activity) error {
		color[a.ID] = gray
		path = append(path, a.ID)
		if a.HasDependency() {
			dep, ok := byID[*a.DependencyID]
			if !ok {
				return fmt.Errorf("%w: activity %d depends on %d", ErrMissingDependency, a.ID, *a.DependencyID)
			}
			switch color[dep.ID] {
			case gray:
				return fmt.Errorf("%w: %s", ErrDependencyCycle, cyclePath(path, dep.ID))
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		color[a.ID] = black
		order = append(order, a)
		return nil
	}

	for _, a := range activities {
		if color[a.ID] != white {
			continue
		}
		if err := visit(a); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// cyclePath renders the part of the DFS path that loops back to id
func cyclePath(path []uint, id uint) string {
	start := 0
	for i, p := range path {
		if p == id {
			start = i
			break
		}
	}
	parts := make([]string, 0, len(path)-start+1)
	for _, p := range path[start:] {
		parts = append(parts, fmt.Sprint(p))
	}
	parts = append(parts, fmt.Sprint(id))
	return strings.Join(parts, " -> ")
}
