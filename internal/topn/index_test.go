package topn

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeSource struct {
	ids    map[uint][]uint
	calls  int
	limits []int
}

func (f *fakeSource) TopActivityIDs(ctx context.Context, projectID uint, limit int) ([]uint, error) {
	f.calls++
	f.limits = append(f.limits, limit)
	ids := f.ids[projectID]
	if ids == nil {
		ids = []uint{}
	}
	return ids, nil
}

func newFake() *fakeSource {
	return &fakeSource{
		ids: map[uint][]uint{1: {10, 11, 20}, 2: {30}},
	}
}

func TestKey(t *testing.T) {
	if got := Key(42); got != "activities_in_project_42" {
		t.Errorf("Key(42) = %q", got)
	}
}

func TestNewIndexDefaultLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{1, 1},
		{25, 25},
	}
	for _, tt := range tests {
		ix := NewIndex(NewMemoryCache(), newFake(), tt.limit, nil)
		if ix.Limit() != tt.want {
			t.Errorf("NewIndex(limit=%d).Limit() = %d, want %d", tt.limit, ix.Limit(), tt.want)
		}
	}
}

func TestActivityIDsReadThrough(t *testing.T) {
	ctx := context.Background()
	src := newFake()
	cache := NewMemoryCache()
	ix := NewIndex(cache, src, 3, nil)

	for i := 0; i < 3; i++ {
		ids, err := ix.ActivityIDs(ctx, 1)
		if err != nil {
			t.Fatalf("ActivityIDs() error: %v", err)
		}
		if len(ids) != 3 || ids[0] != 10 {
			t.Errorf("ActivityIDs() = %v", ids)
		}
	}
	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1", src.calls)
	}
	if src.limits[0] != 3 {
		t.Errorf("source limit = %d, want 3", src.limits[0])
	}

	// Empty results are cached too.
	if _, err := ix.ActivityIDs(ctx, 99); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.ActivityIDs(ctx, 99); err != nil {
		t.Fatal(err)
	}
	if src.calls != 2 {
		t.Errorf("source calls = %d, want 2", src.calls)
	}
}

func TestInvalidateProjectKeepsOthers(t *testing.T) {
	ctx := context.Background()
	src := newFake()
	cache := NewMemoryCache()
	ix := NewIndex(cache, src, 10, nil)

	ix.ActivityIDs(ctx, 1)
	ix.ActivityIDs(ctx, 2)
	if cache.Len() != 2 {
		t.Fatalf("cache.Len() = %d, want 2", cache.Len())
	}

	if err := ix.InvalidateProject(ctx, 1); err != nil {
		t.Fatalf("InvalidateProject() error: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, Key(1)); ok {
		t.Error("project 1 key should be gone")
	}
	if _, ok, _ := cache.Get(ctx, Key(2)); !ok {
		t.Error("project 2 key should survive")
	}

	ix.ActivityIDs(ctx, 1)
	if src.calls != 3 {
		t.Errorf("source calls = %d, want 3 after invalidation", src.calls)
	}
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]uint, bool, error) {
	return nil, false, errors.New("down")
}
func (brokenCache) Set(context.Context, string, []uint) error { return errors.New("down") }
func (brokenCache) Delete(context.Context, string) error     { return errors.New("down") }

func TestActivityIDsBrokenCache(t *testing.T) {
	src := newFake()
	ix := NewIndex(brokenCache{}, src, 10, nil)

	ids, err := ix.ActivityIDs(context.Background(), 2)
	if err != nil {
		t.Fatalf("ActivityIDs() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != 30 {
		t.Errorf("ActivityIDs() = %v, want [30]", ids)
	}
	if err := ix.InvalidateProject(context.Background(), 2); err == nil {
		t.Error("InvalidateProject() should surface cache errors")
	}
}

func TestMemoryCacheCopies(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	ids := []uint{1, 2}
	cache.Set(ctx, "k", ids)
	ids[0] = 99

	got, _, _ := cache.Get(ctx, "k")
	if got[0] != 1 {
		t.Errorf("cached slice aliased caller's slice: %v", got)
	}
	got[1] = 77
	again, _, _ := cache.Get(ctx, "k")
	if again[1] != 2 {
		t.Errorf("Get() returned internal slice: %v", again)
	}
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := NewRedisCache(client)

	if _, ok, err := cache.Get(ctx, Key(1)); err != nil || ok {
		t.Fatalf("Get() on empty = ok %v err %v, want miss", ok, err)
	}

	if err := cache.Set(ctx, Key(1), []uint{3, 4, 5}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	raw, err := mr.Get(Key(1))
	if err != nil {
		t.Fatalf("miniredis Get() error: %v", err)
	}
	if raw != "[3,4,5]" {
		t.Errorf("stored value = %q, want [3,4,5]", raw)
	}
	if ttl := mr.TTL(Key(1)); ttl != 0 {
		t.Errorf("TTL = %v, want none", ttl)
	}

	ids, ok, err := cache.Get(ctx, Key(1))
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v err %v", ok, err)
	}
	if len(ids) != 3 || ids[2] != 5 {
		t.Errorf("Get() = %v", ids)
	}

	if err := cache.Set(ctx, Key(2), nil); err != nil {
		t.Fatal(err)
	}
	empty, ok, _ := cache.Get(ctx, Key(2))
	if !ok || len(empty) != 0 {
		t.Errorf("Get() empty entry = %v ok %v", empty, ok)
	}

	if err := cache.Delete(ctx, Key(1)); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if mr.Exists(Key(1)) {
		t.Error("key should be deleted")
	}

	mr.Set(Key(3), "not json")
	if _, _, err := cache.Get(ctx, Key(3)); err == nil {
		t.Error("Get() of corrupt value should fail")
	}
}
