package topn

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"toiler/internal/db"
	"toiler/internal/models"
)

func setupStore(t *testing.T) *db.Store {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "toiler-topn-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	database, err := db.InitDB(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to init test DB: %v", err)
	}
	t.Cleanup(func() {
		db.CloseDB()
		os.RemoveAll(tmpDir)
	})
	return db.NewStore(database)
}

func TestIndexOverStore(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	manager := models.User{Username: "pm"}
	if err := store.CreateUser(ctx, &manager); err != nil {
		t.Fatal(err)
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	project := models.Project{Name: "P", PlannedStartDate: start, PlannedEndDate: start.AddDate(0, 1, 0), ProjectManagerID: manager.ID}
	if err := store.CreateProject(ctx, &project); err != nil {
		t.Fatal(err)
	}

	counts := []int{4, 1}
	var victim uint
	for i, n := range counts {
		task := models.Task{Name: "T", ProjectID: project.ID, PlannedStartDate: start, PlannedEndDate: start}
		if err := store.CreateTask(ctx, &task); err != nil {
			t.Fatal(err)
		}
		for j := 0; j < n; j++ {
			a := models.Activity{Name: "A", TaskID: task.ID, PlannedStartDate: start, PlannedEndDate: start.Add(time.Hour)}
			if err := store.CreateActivity(ctx, &a, nil); err != nil {
				t.Fatal(err)
			}
			if i == 0 && j == 0 {
				victim = a.ID
			}
		}
	}

	ix := NewIndex(NewMemoryCache(), store, 2, nil)
	ids, err := ix.ActivityIDs(ctx, project.ID)
	if err != nil {
		t.Fatalf("ActivityIDs() error: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("ActivityIDs() = %v, want 2 from the first task and 1 from the second", ids)
	}

	if err := store.DeleteActivities(ctx, []uint{victim}); err != nil {
		t.Fatal(err)
	}
	if err := ix.InvalidateProject(ctx, project.ID); err != nil {
		t.Fatalf("InvalidateProject() error: %v", err)
	}

	ids, err = ix.ActivityIDs(ctx, project.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		if id == victim {
			t.Errorf("ActivityIDs() still returns deleted activity %d", victim)
		}
	}
	if len(ids) != 3 {
		t.Errorf("ActivityIDs() after delete = %v, want 3 ids", ids)
	}
}
