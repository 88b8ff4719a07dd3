package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"toiler/internal/models"
)

var day = 24 * time.Hour

type fixture struct {
	store    *Store
	manager  models.User
	member   models.User
	outsider models.User
	project  models.Project
	tasks    []models.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: NewStore(GetDB())}

	f.manager = models.User{Username: "manager"}
	f.member = models.User{Username: "member"}
	f.outsider = models.User{Username: "outsider"}
	for _, u := range []*models.User{&f.manager, &f.member, &f.outsider} {
		if err := f.store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser() error: %v", err)
		}
	}

	f.project = models.Project{
		Name:             "Launch",
		PlannedStartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PlannedEndDate:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		ProjectManagerID: f.manager.ID,
	}
	if err := f.store.CreateProject(ctx, &f.project); err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}
	if _, err := f.store.AddTeamMember(ctx, f.project.ID, f.member.ID, "core", "developer"); err != nil {
		t.Fatalf("AddTeamMember() error: %v", err)
	}

	for _, name := range []string{"Design", "Build"} {
		task := models.Task{
			Name:             name,
			ProjectID:        f.project.ID,
			PlannedStartDate: f.project.PlannedStartDate,
			PlannedEndDate:   f.project.PlannedEndDate,
		}
		if err := f.store.CreateTask(ctx, &task); err != nil {
			t.Fatalf("CreateTask() error: %v", err)
		}
		f.tasks = append(f.tasks, task)
	}
	return f
}

func (f *fixture) addActivity(t *testing.T, taskID uint, start time.Time, length time.Duration, dep *uint) models.Activity {
	t.Helper()
	a := models.Activity{
		Name:             "activity",
		TaskID:           taskID,
		PlannedStartDate: start,
		PlannedEndDate:   start.Add(length),
		DependencyID:     dep,
	}
	if err := f.store.CreateActivity(context.Background(), &a, nil); err != nil {
		t.Fatalf("CreateActivity() error: %v", err)
	}
	return a
}

func TestIsAuthorized(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		userID      uint
		projectID   uint
		wantAccess  bool
		wantManager bool
	}{
		{"manager", f.manager.ID, f.project.ID, true, true},
		{"team member", f.member.ID, f.project.ID, true, false},
		{"outsider", f.outsider.ID, f.project.ID, false, false},
		{"missing project", f.manager.ID, f.project.ID + 100, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := f.store.IsAuthorized(ctx, tt.userID, tt.projectID)
			if err != nil {
				t.Fatalf("IsAuthorized() error: %v", err)
			}
			if ok != tt.wantAccess {
				t.Errorf("IsAuthorized() = %v, want %v", ok, tt.wantAccess)
			}

			ok, err = f.store.IsManager(ctx, tt.userID, tt.projectID)
			if err != nil {
				t.Fatalf("IsManager() error: %v", err)
			}
			if ok != tt.wantManager {
				t.Errorf("IsManager() = %v, want %v", ok, tt.wantManager)
			}
		})
	}
}

func TestLoadProjectGraph(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	f := newFixture(t)
	ctx := context.Background()

	start := f.project.PlannedStartDate
	a := f.addActivity(t, f.tasks[0].ID, start, 2*day, nil)
	f.addActivity(t, f.tasks[1].ID, start, day, &a.ID)

	project, tasks, activities, err := f.store.LoadProjectGraph(ctx, f.project.ID)
	if err != nil {
		t.Fatalf("LoadProjectGraph() error: %v", err)
	}
	if project.ID != f.project.ID {
		t.Errorf("project ID = %d, want %d", project.ID, f.project.ID)
	}
	if len(tasks) != 2 {
		t.Errorf("len(tasks) = %d, want 2", len(tasks))
	}
	if len(activities) != 2 {
		t.Fatalf("len(activities) = %d, want 2", len(activities))
	}
	if !activities[1].DependsOn(a.ID) {
		t.Errorf("second activity should depend on %d", a.ID)
	}

	_, _, _, err = f.store.LoadProjectGraph(ctx, f.project.ID+100)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadProjectGraph() missing project error = %v, want ErrNotFound", err)
	}
}

func TestSaveSchedule(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	f := newFixture(t)
	ctx := context.Background()

	a := f.addActivity(t, f.tasks[0].ID, f.project.PlannedStartDate.Add(5*day), 2*day, nil)

	newStart := f.project.PlannedStartDate
	a.Reschedule(newStart)
	task := f.tasks[0]
	task.SetWindow(newStart, f.project.PlannedEndDate.Add(day))

	run := models.NewScheduleRun(f.project.ID, f.manager.ID)
	if err := f.store.SaveSchedule(ctx, run, []*models.Activity{&a}, []*models.Task{&task}); err != nil {
		t.Fatalf("SaveSchedule() error: %v", err)
	}

	stored, err := f.store.GetActivity(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetActivity() error: %v", err)
	}
	if !stored.PlannedStartDate.Equal(newStart) || !stored.PlannedEndDate.Equal(newStart.Add(2*day)) {
		t.Errorf("stored activity = [%v, %v], want [%v, %v]",
			stored.PlannedStartDate, stored.PlannedEndDate, newStart, newStart.Add(2*day))
	}

	storedTask, err := f.store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if !storedTask.PlannedEndDate.Equal(f.project.PlannedEndDate.Add(day)) {
		t.Errorf("stored task end = %v, want %v", storedTask.PlannedEndDate, f.project.PlannedEndDate.Add(day))
	}

	runs, err := f.store.ListScheduleRuns(ctx, f.project.ID, 10)
	if err != nil {
		t.Fatalf("ListScheduleRuns() error: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("ListScheduleRuns() = %+v, want the recorded run", runs)
	}
	if runs[0].Activities != 1 || runs[0].Tasks != 1 {
		t.Errorf("run counts = %d/%d, want 1/1", runs[0].Activities, runs[0].Tasks)
	}
}

func TestSaveScheduleBulk(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	f := newFixture(t)
	ctx := context.Background()

	// More rows than one statement carries, each with its own window.
	start := f.project.PlannedStartDate
	var activities []*models.Activity
	for i := 0; i < updateChunk+3; i++ {
		a := f.addActivity(t, f.tasks[i%2].ID, start.Add(10*day), day, nil)
		a.Reschedule(start.Add(time.Duration(i) * time.Hour))
		activities = append(activities, &a)
	}
	design, build := f.tasks[0], f.tasks[1]
	design.SetWindow(start.Add(-day), f.project.PlannedEndDate)
	build.SetWindow(start, f.project.PlannedEndDate.Add(2*day))

	run := models.NewScheduleRun(f.project.ID, f.manager.ID)
	if err := f.store.SaveSchedule(ctx, run, activities, []*models.Task{&design, &build}); err != nil {
		t.Fatalf("SaveSchedule() error: %v", err)
	}

	stored, err := f.store.ProjectActivities(ctx, f.project.ID)
	if err != nil {
		t.Fatalf("ProjectActivities() error: %v", err)
	}
	if len(stored) != len(activities) {
		t.Fatalf("len(ProjectActivities()) = %d, want %d", len(stored), len(activities))
	}
	for i, got := range stored {
		want := activities[i]
		if got.ID != want.ID || !got.PlannedStartDate.Equal(want.PlannedStartDate) || !got.PlannedEndDate.Equal(want.PlannedEndDate) {
			t.Fatalf("activity %d = [%v, %v], want [%v, %v]",
				got.ID, got.PlannedStartDate, got.PlannedEndDate, want.PlannedStartDate, want.PlannedEndDate)
		}
	}

	for _, want := range []models.Task{design, build} {
		got, err := f.store.GetTask(ctx, want.ID)
		if err != nil {
			t.Fatalf("GetTask() error: %v", err)
		}
		if !got.PlannedStartDate.Equal(want.PlannedStartDate) || !got.PlannedEndDate.Equal(want.PlannedEndDate) {
			t.Errorf("task %d = [%v, %v], want [%v, %v]",
				got.ID, got.PlannedStartDate, got.PlannedEndDate, want.PlannedStartDate, want.PlannedEndDate)
		}
	}
}

func TestSaveScheduleRollsBack(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	f := newFixture(t)
	ctx := context.Background()

	original := f.project.PlannedStartDate.Add(3 * day)
	a := f.addActivity(t, f.tasks[0].ID, original, day, nil)
	a.Reschedule(f.project.PlannedStartDate)

	// A duplicate run id violates the primary key after the activity update ran.
	first := models.NewScheduleRun(f.project.ID, f.manager.ID)
	if err := f.store.SaveSchedule(ctx, first, nil, nil); err != nil {
		t.Fatalf("SaveSchedule() first run error: %v", err)
	}
	dup := &models.ScheduleRun{ID: first.ID, ProjectID: f.project.ID, RequestedBy: f.manager.ID}
	if err := f.store.SaveSchedule(ctx, dup, []*models.Activity{&a}, nil); err == nil {
		t.Fatal("SaveSchedule() with duplicate run id should fail")
	}

	stored, err := f.store.GetActivity(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetActivity() error: %v", err)
	}
	if !stored.PlannedStartDate.Equal(original) {
		t.Errorf("activity start = %v after failed save, want unchanged %v", stored.PlannedStartDate, original)
	}
}

func TestTopActivityIDs(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	f := newFixture(t)
	ctx := context.Background()

	start := f.project.PlannedStartDate
	var design, build []uint
	for i := 0; i < 5; i++ {
		design = append(design, f.addActivity(t, f.tasks[0].ID, start, day, nil).ID)
	}
	for i := 0; i < 2; i++ {
		build = append(build, f.addActivity(t, f.tasks[1].ID, start, day, nil).ID)
	}

	ids, err := f.store.TopActivityIDs(ctx, f.project.ID, 3)
	if err != nil {
		t.Fatalf("TopActivityIDs() error: %v", err)
	}

	want := append(append([]uint{}, design[:3]...), build...)
	if len(ids) != len(want) {
		t.Fatalf("TopActivityIDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("TopActivityIDs()[%d] = %d, want %d", i, ids[i], want[i])
		}
	}

	empty, err := f.store.TopActivityIDs(ctx, f.project.ID+100, 3)
	if err != nil {
		t.Fatalf("TopActivityIDs() unknown project error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("TopActivityIDs() unknown project = %v, want empty", empty)
	}
}

func TestProjectTree(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	f := newFixture(t)
	ctx := context.Background()

	state := models.State{Name: "doing", ProjectID: f.project.ID}
	if err := f.store.CreateState(ctx, &state); err != nil {
		t.Fatalf("CreateState() error: %v", err)
	}

	start := f.project.PlannedStartDate
	keep := models.Activity{
		Name:             "kept",
		TaskID:           f.tasks[0].ID,
		PlannedStartDate: start,
		PlannedEndDate:   start.Add(day),
		StateID:          &state.ID,
	}
	if err := f.store.CreateActivity(ctx, &keep, []uint{f.member.ID}); err != nil {
		t.Fatalf("CreateActivity() error: %v", err)
	}
	f.addActivity(t, f.tasks[0].ID, start, day, nil)

	tree, err := f.store.ProjectTree(ctx, f.project.ID, []uint{keep.ID})
	if err != nil {
		t.Fatalf("ProjectTree() error: %v", err)
	}
	if len(tree.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(tree.Tasks))
	}
	acts := tree.Tasks[0].Activities
	if len(acts) != 1 || acts[0].ID != keep.ID {
		t.Fatalf("first task activities = %+v, want only %d", acts, keep.ID)
	}
	if acts[0].State == nil || acts[0].State.Name != "doing" {
		t.Errorf("activity state = %+v, want doing", acts[0].State)
	}
	if len(acts[0].Assignees) != 1 || acts[0].Assignees[0].ID != f.member.ID {
		t.Errorf("assignees = %+v, want member", acts[0].Assignees)
	}
	if len(tree.Tasks[1].Activities) != 0 {
		t.Errorf("second task activities = %d, want 0", len(tree.Tasks[1].Activities))
	}

	noneTree, err := f.store.ProjectTree(ctx, f.project.ID, nil)
	if err != nil {
		t.Fatalf("ProjectTree() with no ids error: %v", err)
	}
	if len(noneTree.Tasks[0].Activities) != 0 {
		t.Errorf("ProjectTree(nil) activities = %d, want 0", len(noneTree.Tasks[0].Activities))
	}
}

func TestProjectIDForActivity(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	f := newFixture(t)
	ctx := context.Background()

	a := f.addActivity(t, f.tasks[1].ID, f.project.PlannedStartDate, day, nil)

	got, err := f.store.ProjectIDForActivity(ctx, a.ID)
	if err != nil {
		t.Fatalf("ProjectIDForActivity() error: %v", err)
	}
	if got != f.project.ID {
		t.Errorf("ProjectIDForActivity() = %d, want %d", got, f.project.ID)
	}

	if _, err := f.store.ProjectIDForActivity(ctx, a.ID+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("ProjectIDForActivity() missing error = %v, want ErrNotFound", err)
	}
}

func TestSetActivityDependencyAndDelete(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()
	f := newFixture(t)
	ctx := context.Background()

	start := f.project.PlannedStartDate
	a := f.addActivity(t, f.tasks[0].ID, start, day, nil)
	b := f.addActivity(t, f.tasks[0].ID, start, day, nil)

	if err := f.store.SetActivityDependency(ctx, b.ID, &a.ID); err != nil {
		t.Fatalf("SetActivityDependency() error: %v", err)
	}
	stored, _ := f.store.GetActivity(ctx, b.ID)
	if !stored.DependsOn(a.ID) {
		t.Errorf("activity %d should depend on %d", b.ID, a.ID)
	}

	if err := f.store.SetActivityDependency(ctx, b.ID, nil); err != nil {
		t.Fatalf("SetActivityDependency(nil) error: %v", err)
	}
	stored, _ = f.store.GetActivity(ctx, b.ID)
	if stored.HasDependency() {
		t.Error("dependency should be cleared")
	}

	if err := f.store.SetActivityDependency(ctx, b.ID+100, &a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetActivityDependency() missing error = %v, want ErrNotFound", err)
	}

	if err := f.store.DeleteActivities(ctx, []uint{a.ID, b.ID}); err != nil {
		t.Fatalf("DeleteActivities() error: %v", err)
	}
	if _, err := f.store.GetActivity(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetActivity() after delete error = %v, want ErrNotFound", err)
	}
}
