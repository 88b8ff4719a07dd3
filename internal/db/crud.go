package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"toiler/internal/models"
)

// CreateUser inserts a user
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// CreateProject inserts a project
func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	if err := s.db.WithContext(ctx).Omit("Tasks", "ProjectManager").Create(project).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// CreateTask inserts a task
func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	if err := s.db.WithContext(ctx).Omit("Activities").Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// CreateState inserts a workflow state
func (s *Store) CreateState(ctx context.Context, state *models.State) error {
	if err := s.db.WithContext(ctx).Create(state).Error; err != nil {
		return fmt.Errorf("create state: %w", err)
	}
	return nil
}

// AddTeamMember adds userID to the named team of the project, creating the team
// and role on first use.
func (s *Store) AddTeamMember(ctx context.Context, projectID, userID uint, teamName, roleName string) (*models.TeamMember, error) {
	var member models.TeamMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		team := models.Team{Name: teamName, ProjectID: projectID}
		if err := tx.Where(&team).FirstOrCreate(&team).Error; err != nil {
			return fmt.Errorf("team %q: %w", teamName, err)
		}
		role := models.Role{Name: roleName, ProjectID: projectID}
		if err := tx.Where(&role).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("role %q: %w", roleName, err)
		}
		member = models.TeamMember{TeamID: team.ID, UserID: userID, RoleID: role.ID}
		if err := tx.Where(models.TeamMember{TeamID: team.ID, UserID: userID}).
			Assign(models.TeamMember{RoleID: role.ID}).
			FirstOrCreate(&member).Error; err != nil {
			return fmt.Errorf("team member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// CreateActivity inserts an activity and its assignees
func (s *Store) CreateActivity(ctx context.Context, activity *models.Activity, assigneeIDs []uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("State", "Assignees").Create(activity).Error; err != nil {
			return fmt.Errorf("create activity: %w", err)
		}
		if len(assigneeIDs) == 0 {
			return nil
		}
		var users []models.User
		if err := tx.Where("id IN ?", assigneeIDs).Find(&users).Error; err != nil {
			return fmt.Errorf("load assignees: %w", err)
		}
		if len(users) != len(assigneeIDs) {
			return fmt.Errorf("assignees: %w", ErrNotFound)
		}
		if err := tx.Model(activity).Association("Assignees").Append(users); err != nil {
			return fmt.Errorf("assign users: %w", err)
		}
		return nil
	})
}

// SetActivityDependency replaces the dependency of an activity; nil clears it
func (s *Store) SetActivityDependency(ctx context.Context, activityID uint, dependencyID *uint) error {
	result := s.db.WithContext(ctx).Model(&models.Activity{}).
		Where("id = ?", activityID).
		UpdateColumn("dependency_id", dependencyID)
	if result.Error != nil {
		return fmt.Errorf("set dependency of activity %d: %w", activityID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteActivities removes the given activities and their assignments in one transaction
func (s *Store) DeleteActivities(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM assigned WHERE activity_id IN ?", ids).Error; err != nil {
			return fmt.Errorf("delete assignments: %w", err)
		}
		// Dependents go in the same statement, so no dangling reference survives.
		if err := tx.Where("id IN ?", ids).Delete(&models.Activity{}).Error; err != nil {
			return fmt.Errorf("delete activities: %w", err)
		}
		return nil
	})
}
