package models

import (
	"time"

	"gorm.io/gorm"
)

// Date format constants
const (
	DateFormat          = "2006-01-02"
	DateTimeFormat      = "2006-01-02 15:04:05"
	DateTimeShortFormat = "2006-01-02 15:04"
)

// Project is the scheduling horizon that owns tasks, teams, roles and states.
// Planned dates are calendar days; they are normalized to midnight UTC on save.
type Project struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:90;not null" json:"name"`
	PlannedStartDate time.Time  `gorm:"not null" json:"planned_start_date"`
	PlannedEndDate   time.Time  `gorm:"not null" json:"planned_end_date"`
	ActualStartDate  *time.Time `json:"actual_start_date"`
	ActualEndDate    *time.Time `json:"actual_end_date"`
	Description      string     `gorm:"type:text" json:"description"`
	ProjectManagerID uint       `gorm:"not null;index" json:"project_manager"`

	ProjectManager *User  `gorm:"foreignKey:ProjectManagerID;constraint:OnDelete:CASCADE" json:"-"`
	Tasks          []Task `gorm:"constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BeforeSave normalizes the planned window to whole days
func (p *Project) BeforeSave(tx *gorm.DB) error {
	p.PlannedStartDate = StartOfDay(p.PlannedStartDate)
	p.PlannedEndDate = StartOfDay(p.PlannedEndDate)
	return nil
}

// Horizon returns the planned start and end of the project
func (p *Project) Horizon() (time.Time, time.Time) {
	return p.PlannedStartDate, p.PlannedEndDate
}

// IsManagedBy reports whether userID is the project manager
func (p *Project) IsManagedBy(userID uint) bool {
	return p.ProjectManagerID == userID
}
