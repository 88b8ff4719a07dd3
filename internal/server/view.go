package server

import (
	"time"

	"toiler/internal/models"
)

type projectView struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	PlannedStartDate string     `json:"planned_start_date"`
	PlannedEndDate   string     `json:"planned_end_date"`
	ActualStartDate  *string    `json:"actual_start_date"`
	ActualEndDate    *string    `json:"actual_end_date"`
	Description      string     `json:"description"`
	Tasks            []taskView `json:"tasks"`
}

type taskView struct {
	ID               uint              `json:"id"`
	Name             string            `json:"name"`
	PlannedStartDate time.Time         `json:"planned_start_date"`
	PlannedEndDate   time.Time         `json:"planned_end_date"`
	ActualStartDate  *time.Time        `json:"actual_start_date"`
	ActualEndDate    *time.Time        `json:"actual_end_date"`
	Description      string            `json:"description"`
	PlannedBudget    float64           `json:"planned_budget"`
	ActualBudget     float64           `json:"actual_budget"`
	Activities       []models.Activity `json:"activities"`
}

func newProjectView(p *models.Project) projectView {
	v := projectView{
		ID:               p.ID,
		Name:             p.Name,
		PlannedStartDate: p.PlannedStartDate.Format(models.DateFormat),
		PlannedEndDate:   p.PlannedEndDate.Format(models.DateFormat),
		ActualStartDate:  formatDate(p.ActualStartDate),
		ActualEndDate:    formatDate(p.ActualEndDate),
		Description:      p.Description,
		Tasks:            make([]taskView, 0, len(p.Tasks)),
	}
	for _, t := range p.Tasks {
		activities := t.Activities
		if activities == nil {
			activities = []models.Activity{}
		}
		for i := range activities {
			if activities[i].Assignees == nil {
				activities[i].Assignees = []models.User{}
			}
		}
		v.Tasks = append(v.Tasks, taskView{
			ID:               t.ID,
			Name:             t.Name,
			PlannedStartDate: t.PlannedStartDate,
			PlannedEndDate:   t.PlannedEndDate,
			ActualStartDate:  t.ActualStartDate,
			ActualEndDate:    t.ActualEndDate,
			Description:      t.Description,
			PlannedBudget:    t.PlannedBudget,
			ActualBudget:     t.ActualBudget,
			Activities:       activities,
		})
	}
	return v
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateFormat)
	return &s
}
