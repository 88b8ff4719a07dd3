package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleRun records one successful auto-schedule run of a project
type ScheduleRun struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID   uint      `gorm:"not null;index" json:"project_id"`
	RequestedBy uint      `gorm:"not null" json:"requested_by"`
	Activities  int       `json:"activities"`
	Tasks       int       `json:"tasks"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `gorm:"index" json:"finished_at"`
}

// NewScheduleRun starts a run record with a fresh id
func NewScheduleRun(projectID, requestedBy uint) *ScheduleRun {
	return &ScheduleRun{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		RequestedBy: requestedBy,
		StartedAt:   time.Now().UTC(),
	}
}

// BeforeCreate hook to generate ID if not set
func (r *ScheduleRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}
	return nil
}

// Elapsed returns how long the run took
func (r *ScheduleRun) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
