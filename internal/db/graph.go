package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"toiler/internal/models"
)

// LoadProjectGraph materializes the project with all of its tasks and activities.
func (s *Store) LoadProjectGraph(ctx context.Context, projectID uint) (*models.Project, []models.Task, []models.Activity, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, nil, nil, err
	}
	tasks, err := s.ProjectTasks(ctx, projectID)
	if err != nil {
		return nil, nil, nil, err
	}
	activities, err := s.ProjectActivities(ctx, projectID)
	if err != nil {
		return nil, nil, nil, err
	}
	return project, tasks, activities, nil
}

// SaveSchedule writes the planned windows of every activity and task and the run
// record in a single transaction. Either every row lands or none does.
func (s *Store) SaveSchedule(ctx context.Context, run *models.ScheduleRun, activities []*models.Activity, tasks []*models.Task) error {
	activityRows := make([]plannedWindow, len(activities))
	for i, a := range activities {
		activityRows[i] = plannedWindow{a.ID, a.PlannedStartDate, a.PlannedEndDate}
	}
	taskRows := make([]plannedWindow, len(tasks))
	for i, t := range tasks {
		taskRows[i] = plannedWindow{t.ID, t.PlannedStartDate, t.PlannedEndDate}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bulkUpdateWindows(tx, "activities", activityRows); err != nil {
			return fmt.Errorf("update activities: %w", err)
		}
		if err := bulkUpdateWindows(tx, "tasks", taskRows); err != nil {
			return fmt.Errorf("update tasks: %w", err)
		}
		if run != nil {
			run.Activities = len(activities)
			run.Tasks = len(tasks)
			if err := tx.Create(run).Error; err != nil {
				return fmt.Errorf("record schedule run: %w", err)
			}
		}
		return nil
	})
}

// updateChunk bounds the rows per statement; each row binds five parameters.
const updateChunk = 500

type plannedWindow struct {
	id         uint
	start, end time.Time
}

// bulkUpdateWindows sets planned_start_date and planned_end_date of every row
// with one CASE update per chunk.
func bulkUpdateWindows(tx *gorm.DB, table string, rows []plannedWindow) error {
	param := "?"
	if tx.Dialector.Name() == DriverPostgres {
		// untyped CASE branches resolve to text on postgres
		param = "CAST(? AS timestamptz)"
	}

	for len(rows) > 0 {
		n := min(len(rows), updateChunk)
		chunk := rows[:n]
		rows = rows[n:]

		var starts, ends strings.Builder
		startArgs := make([]interface{}, 0, 2*n)
		endArgs := make([]interface{}, 0, 2*n)
		ids := make([]uint, n)
		starts.WriteString("CASE id")
		ends.WriteString("CASE id")
		for i, r := range chunk {
			starts.WriteString(" WHEN ? THEN " + param)
			ends.WriteString(" WHEN ? THEN " + param)
			startArgs = append(startArgs, r.id, r.start)
			endArgs = append(endArgs, r.id, r.end)
			ids[i] = r.id
		}
		starts.WriteString(" END")
		ends.WriteString(" END")

		err := tx.Table(table).Where("id IN ?", ids).UpdateColumns(map[string]interface{}{
			"planned_start_date": gorm.Expr(starts.String(), startArgs...),
			"planned_end_date":   gorm.Expr(ends.String(), endArgs...),
		}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// TopActivityIDs ranks activities within each task by id and keeps the first
// limit of every task. The result is ordered by activity id.
func (s *Store) TopActivityIDs(ctx context.Context, projectID uint, limit int) ([]uint, error) {
	ranked := s.db.Model(&models.Activity{}).
		Select("activities.id AS id, ROW_NUMBER() OVER (PARTITION BY activities.task_id ORDER BY activities.id) AS rank_in_task").
		Joins("JOIN tasks ON tasks.id = activities.task_id").
		Where("tasks.project_id = ?", projectID)

	ids := []uint{}
	err := s.db.WithContext(ctx).
		Table("(?) AS ranked", ranked).
		Where("rank_in_task <= ?", limit).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("rank activities of project %d: %w", projectID, err)
	}
	return ids, nil
}

// ProjectTree loads a project with its tasks and, per task, only the listed
// activities together with their state and assignees.
func (s *Store) ProjectTree(ctx context.Context, projectID uint, activityIDs []uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("tasks.id")
		}).
		Preload("Tasks.Activities", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("activities.id IN ?", activityIDs).Order("activities.id")
		}).
		Preload("Tasks.Activities.State").
		Preload("Tasks.Activities.Assignees", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("users.id")
		}).
		First(&project, projectID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}
