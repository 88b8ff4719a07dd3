package models

import (
	"time"
)

// Activity is the smallest schedulable unit. DependencyID is a weak reference to
// at most one other activity of the same project; the scheduler resolves it by id.
type Activity struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:90;not null" json:"name"`
	TaskID           uint       `gorm:"not null;index" json:"task"`
	Description      string     `gorm:"type:text" json:"description"`
	PlannedStartDate time.Time  `gorm:"not null" json:"planned_start_date"`
	PlannedEndDate   time.Time  `gorm:"not null" json:"planned_end_date"`
	PlannedBudget    *float64   `gorm:"type:decimal(8,2)" json:"planned_budget"`
	ActualStartDate  *time.Time `json:"actual_start_date"`
	ActualEndDate    *time.Time `json:"actual_end_date"`
	ActualBudget     *float64   `gorm:"type:decimal(8,2)" json:"actual_budget"`
	DependencyID     *uint      `gorm:"index" json:"dependency"`
	StateID          *uint      `gorm:"index" json:"-"`

	State     *State `gorm:"constraint:OnDelete:SET NULL" json:"state"`
	Assignees []User `gorm:"many2many:assigned;constraint:OnDelete:CASCADE" json:"assignees"`
}

// Duration is the fixed planned length of the activity
func (a *Activity) Duration() time.Duration {
	return a.PlannedEndDate.Sub(a.PlannedStartDate)
}

// HasDependency returns true if the activity depends on another activity
func (a *Activity) HasDependency() bool {
	return a.DependencyID != nil
}

// DependsOn returns true if the activity depends on the given activity
func (a *Activity) DependsOn(id uint) bool {
	return a.DependencyID != nil && *a.DependencyID == id
}

// Reschedule moves the activity to start at start, keeping its duration
func (a *Activity) Reschedule(start time.Time) time.Time {
	end := start.Add(a.Duration())
	a.PlannedStartDate = start
	a.PlannedEndDate = end
	return end
}
