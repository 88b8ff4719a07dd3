package models

import (
	"time"
)

// Task groups activities inside a project. Its planned window is derived by the
// scheduler from its activities, or edited directly by a user.
type Task struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:90;not null" json:"name"`
	ProjectID        uint       `gorm:"not null;index" json:"project"`
	PlannedStartDate time.Time  `gorm:"not null" json:"planned_start_date"`
	PlannedEndDate   time.Time  `gorm:"not null" json:"planned_end_date"`
	PlannedBudget    float64    `gorm:"type:decimal(8,2);default:0" json:"planned_budget"`
	ActualStartDate  *time.Time `json:"actual_start_date"`
	ActualEndDate    *time.Time `json:"actual_end_date"`
	ActualBudget     float64    `gorm:"type:decimal(8,2);default:0" json:"actual_budget"`
	Description      string     `gorm:"type:text" json:"description"`

	Activities []Activity `gorm:"constraint:OnDelete:CASCADE" json:"activities,omitempty"`
}

// Window returns the planned start and end of the task
func (t *Task) Window() (time.Time, time.Time) {
	return t.PlannedStartDate, t.PlannedEndDate
}

// SetWindow overwrites the planned start and end of the task
func (t *Task) SetWindow(start, end time.Time) {
	t.PlannedStartDate = start
	t.PlannedEndDate = end
}
