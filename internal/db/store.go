package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"toiler/internal/models"
)

// ErrNotFound is returned both for missing rows and for rows the caller may not see.
var ErrNotFound = errors.New("not found")

// Store is the relational storage collaborator used by the scheduler, the
// top-N index and the activity service.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open connection
func NewStore(database *gorm.DB) *Store {
	return &Store{db: database}
}

// DB exposes the underlying connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// IsAuthorized reports whether userID is the project's manager or a member of one of its teams
func (s *Store) IsAuthorized(ctx context.Context, userID, projectID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("projects.id = ?", projectID).
		Where("(projects.project_manager_id = ? OR EXISTS (?))", userID,
			s.db.Model(&models.TeamMember{}).
				Select("1").
				Joins("JOIN teams ON teams.id = team_members.team_id").
				Where("teams.project_id = projects.id AND team_members.user_id = ?", userID),
		).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check project access: %w", err)
	}
	return count > 0, nil
}

// IsManager reports whether userID manages the project
func (s *Store) IsManager(ctx context.Context, userID, projectID uint) (bool, error) {
	project, err := s.GetProject(ctx, projectID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check project manager: %w", err)
	}
	return project.IsManagedBy(userID), nil
}

// GetProject fetches a project by id
func (s *Store) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &project, nil
}

// GetTask fetches a task by id
func (s *Store) GetTask(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// GetActivity fetches an activity by id
func (s *Store) GetActivity(ctx context.Context, id uint) (*models.Activity, error) {
	var activity models.Activity
	if err := s.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &activity, nil
}

// GetState fetches a state by id
func (s *Store) GetState(ctx context.Context, id uint) (*models.State, error) {
	var state models.State
	if err := s.db.WithContext(ctx).First(&state, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &state, nil
}

// ProjectIDForActivity resolves activity -> task -> project
func (s *Store) ProjectIDForActivity(ctx context.Context, activityID uint) (uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Joins("JOIN activities ON activities.task_id = tasks.id").
		Where("activities.id = ?", activityID).
		Limit(1).
		Pluck("tasks.project_id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("resolve project for activity %d: %w", activityID, err)
	}
	if len(ids) == 0 {
		return 0, ErrNotFound
	}
	return ids[0], nil
}

// ProjectActivities returns every activity of a project ordered by id
func (s *Store) ProjectActivities(ctx context.Context, projectID uint) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = activities.task_id").
		Where("tasks.project_id = ?", projectID).
		Order("activities.id").
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("load activities of project %d: %w", projectID, err)
	}
	return activities, nil
}

// ProjectTasks returns every task of a project ordered by id
func (s *Store) ProjectTasks(ctx context.Context, projectID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("id").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("load tasks of project %d: %w", projectID, err)
	}
	return tasks, nil
}

// ListScheduleRuns returns the latest runs of a project, newest first
func (s *Store) ListScheduleRuns(ctx context.Context, projectID uint, limit int) ([]models.ScheduleRun, error) {
	var runs []models.ScheduleRun
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("finished_at DESC").
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list schedule runs: %w", err)
	}
	return runs, nil
}
