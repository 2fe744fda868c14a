package archive

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/accviz/accviz/pkg/errors"
	"github.com/accviz/accviz/pkg/pipeline"
)

func testRun(id string, created time.Time) *Run {
	return &Run{
		ID:          id,
		CreatedAt:   created,
		EntityCount: 6,
		StepCount:   5,
		Linkage:     "average",
		Unit:        1.0,
		Artifacts:   map[string][]byte{"svg": []byte("<svg/>")},
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	run := testRun("run-1", time.Now())
	if err := s.Put(ctx, run); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.EntityCount != 6 || string(got.Artifacts["svg"]) != "<svg/>" {
		t.Errorf("Get() returned %+v", got)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, errors.ErrCodeRunNotFound) {
		t.Errorf("Get() error = %v, want RUN_NOT_FOUND", err)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		s.Put(ctx, testRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	got, err := s.List(ctx, 3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d runs, want 3", len(got))
	}
	if got[0].ID != "run-4" || got[2].ID != "run-2" {
		t.Errorf("List() order = %s..%s, want run-4..run-2", got[0].ID, got[2].ID)
	}
}

func TestNewRun(t *testing.T) {
	opts := pipeline.Options{Linkage: "average", Unit: 1.5, Style: "dark"}
	res := &pipeline.Result{
		PlacementHash: "abc",
		Artifacts:     map[string][]byte{"svg": []byte("<svg/>")},
	}
	res.Stats.EntityCount = 4
	res.Stats.StepCount = 3

	run := NewRun(opts, res)
	if run.ID == "" {
		t.Error("NewRun() produced empty id")
	}
	if run.Unit != 1.5 || run.EntityCount != 4 || run.PlacementHash != "abc" {
		t.Errorf("NewRun() = %+v", run)
	}
	if run.CreatedAt.IsZero() {
		t.Error("NewRun() produced zero CreatedAt")
	}
}
