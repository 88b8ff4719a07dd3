package output

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"toiler/internal/models"
	"toiler/internal/scheduler"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// Formatter defines the interface for output formatting
type Formatter interface {
	Project(p *models.Project)
	Activity(a *models.Activity)
	Schedule(r *scheduler.Report)
	Runs(runs []models.ScheduleRun)
	Success(msg string)
	Error(err error)
	Info(msg string)
	KeyValue(key, value string)
	Section(title string)
	JSON(v interface{})
}

// TextFormatter outputs human-readable text
type TextFormatter struct{}

// JSONFormatter outputs JSON
type JSONFormatter struct{}

// New returns the appropriate formatter based on json flag
func New(jsonOutput bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &TextFormatter{}
}

func window(start, end time.Time) string {
	return fmt.Sprintf("%s -> %s", start.Format(models.DateTimeShortFormat), end.Format(models.DateTimeShortFormat))
}

// TextFormatter implementations

func (f *TextFormatter) Project(p *models.Project) {
	fmt.Printf("%s %s\n", bold(fmt.Sprintf("[%d]", p.ID)), bold(p.Name))
	fmt.Printf("Horizon:  %s -> %s\n", p.PlannedStartDate.Format(models.DateFormat), p.PlannedEndDate.Format(models.DateFormat))
	if p.Description != "" {
		fmt.Printf("Desc:     %s\n", p.Description)
	}
	for _, t := range p.Tasks {
		fmt.Printf("  %s %s  %s\n", cyan(fmt.Sprintf("[%d]", t.ID)), t.Name, dim(window(t.PlannedStartDate, t.PlannedEndDate)))
		for i := range t.Activities {
			fmt.Print("    ")
			f.activityLine(&t.Activities[i])
		}
	}
}

func (f *TextFormatter) activityLine(a *models.Activity) {
	dep := ""
	if a.DependencyID != nil {
		dep = yellow(fmt.Sprintf(" after %d", *a.DependencyID))
	}
	state := ""
	if a.State != nil {
		state = fmt.Sprintf(" (%s)", a.State.Name)
	}
	fmt.Printf("[%d] %s%s  %s%s\n", a.ID, a.Name, state, dim(window(a.PlannedStartDate, a.PlannedEndDate)), dep)
}

func (f *TextFormatter) Activity(a *models.Activity) {
	fmt.Printf("ID:       %d\n", a.ID)
	fmt.Printf("Name:     %s\n", a.Name)
	fmt.Printf("Task:     %d\n", a.TaskID)
	fmt.Printf("Planned:  %s\n", window(a.PlannedStartDate, a.PlannedEndDate))
	fmt.Printf("Duration: %s\n", a.Duration())
	if a.DependencyID != nil {
		fmt.Printf("Depends:  %d\n", *a.DependencyID)
	}
	if a.Description != "" {
		fmt.Printf("Desc:     %s\n", a.Description)
	}
}

func (f *TextFormatter) Schedule(r *scheduler.Report) {
	fmt.Printf("%s project %d: %d activities, %d tasks (run %s)\n",
		green("Scheduled"), r.Run.ProjectID, len(r.Activities), len(r.Tasks), r.Run.ID)
	for _, t := range r.Tasks {
		fmt.Printf("  task %s %s  %s\n", cyan(fmt.Sprintf("[%d]", t.ID)), t.Name, window(t.PlannedStartDate, t.PlannedEndDate))
	}
	for _, a := range r.Activities {
		fmt.Print("  ")
		f.activityLine(a)
	}
	if r.NotifyErr != nil {
		fmt.Fprintf(os.Stderr, "%s change notification failed: %v\n", yellow("Warning:"), r.NotifyErr)
	}
}

func (f *TextFormatter) Runs(runs []models.ScheduleRun) {
	if len(runs) == 0 {
		fmt.Println("No schedule runs")
		return
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  user %d  %d activities, %d tasks  %s\n",
			dim(r.ID), r.FinishedAt.Format(models.DateTimeFormat), r.RequestedBy, r.Activities, r.Tasks, r.Elapsed())
	}
}

func (f *TextFormatter) Success(msg string) {
	fmt.Println(msg)
}

func (f *TextFormatter) Error(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
}

func (f *TextFormatter) Info(msg string) {
	fmt.Println(msg)
}

func (f *TextFormatter) KeyValue(key, value string) {
	fmt.Printf("%s: %s\n", key, value)
}

func (f *TextFormatter) Section(title string) {
	fmt.Printf("\n%s:\n", bold(title))
}

func (f *TextFormatter) JSON(v interface{}) {
	// TextFormatter doesn't output JSON, but provide fallback
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		f.Error(err)
		return
	}
	fmt.Println(string(data))
}

// JSONFormatter implementations

func (f *JSONFormatter) Project(p *models.Project) {
	f.JSON(p)
}

func (f *JSONFormatter) Activity(a *models.Activity) {
	f.JSON(a)
}

func (f *JSONFormatter) Schedule(r *scheduler.Report) {
	out := map[string]interface{}{
		"run":        r.Run,
		"activities": r.Activities,
		"tasks":      r.Tasks,
	}
	if r.NotifyErr != nil {
		out["notify_error"] = r.NotifyErr.Error()
	}
	f.JSON(out)
}

func (f *JSONFormatter) Runs(runs []models.ScheduleRun) {
	f.JSON(map[string]interface{}{
		"count": len(runs),
		"runs":  runs,
	})
}

func (f *JSONFormatter) Success(msg string) {
	f.JSON(map[string]interface{}{"success": true, "message": msg})
}

func (f *JSONFormatter) Error(err error) {
	f.JSON(map[string]interface{}{"error": true, "message": err.Error()})
}

func (f *JSONFormatter) Info(msg string) {
	f.JSON(map[string]interface{}{"message": msg})
}

func (f *JSONFormatter) KeyValue(key, value string) {
	f.JSON(map[string]string{key: value})
}

func (f *JSONFormatter) Section(title string) {
	// JSON doesn't need section headers
}

func (f *JSONFormatter) JSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, `{"error": true, "message": "JSON marshal error: %s"}`+"\n", err.Error())
		return
	}
	fmt.Println(string(data))
}
