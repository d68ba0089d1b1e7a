package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/opening"
	"github.com/matzehuels/brickshell/pkg/pipeline"
	"github.com/matzehuels/brickshell/pkg/shell"
)

var cube2m = shell.Dimensions{LengthMM: 2000, WidthMM: 2000, HeightMM: 2000, ThicknessMM: 200}

func solvedRun(t *testing.T) *Run {
	t.Helper()
	d := cube2m
	res, err := pipeline.NewRunner(nil, nil, nil).Execute(context.Background(), pipeline.Options{
		Dimensions: &d,
		Openings: []opening.Spec{
			opening.NewSpec(opening.TypeDoor, "front", 800, 0, 900, 2100),
			opening.NewSpec(opening.TypeWindow, "north", 0, 0, 100, 100),
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return NewRun(res, 0)
}

func TestNewRun(t *testing.T) {
	run := solvedRun(t)
	if run.Total != 1856 || run.Active != 1656 {
		t.Errorf("Total/Active = %d/%d, want 1856/1656", run.Total, run.Active)
	}
	if len(run.Bricks) != 1856 {
		t.Errorf("len(Bricks) = %d", len(run.Bricks))
	}
	if len(run.Openings) != 2 {
		t.Fatalf("len(Openings) = %d, want 2", len(run.Openings))
	}
	if run.Openings[0].Carved != 200 || run.Openings[0].Error != "" {
		t.Errorf("door = %+v", run.Openings[0])
	}
	if run.Openings[1].Error == "" {
		t.Errorf("unknown wall should record an error: %+v", run.Openings[1])
	}
	c, err := run.Collection()
	if err != nil {
		t.Fatalf("Collection: %v", err)
	}
	if c.ActiveCount() != 1656 {
		t.Errorf("ActiveCount = %d", c.ActiveCount())
	}
}

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	run := solvedRun(t)
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if run.ID == "" || run.CreatedAt.IsZero() {
		t.Fatalf("SaveRun did not assign ID and CreatedAt: %q %v", run.ID, run.CreatedAt)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("GetRun mismatch (-want +got):\n%s", diff)
	}

	later := &Run{Dimensions: cube2m, CreatedAt: run.CreatedAt.Add(time.Second)}
	if err := s.SaveRun(ctx, later); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns returned %d runs, want 2", len(runs))
	}
	if runs[0].ID != later.ID || runs[1].ID != run.ID {
		t.Errorf("ListRuns order = %s, %s", runs[0].ID, runs[1].ID)
	}
	if len(runs[1].Bricks) != 0 {
		t.Errorf("ListRuns should omit bricks, got %d", len(runs[1].Bricks))
	}
	if len(runs[1].Openings) != 2 {
		t.Errorf("ListRuns openings = %d, want 2", len(runs[1].Openings))
	}

	if _, err := s.GetRun(ctx, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("GetRun(missing) = %v, want NOT_FOUND", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "runs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	run := &Run{Dimensions: cube2m, Total: 1856, Active: 1856}
	if err := s.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.GetRun(context.Background(), run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Dimensions != cube2m || got.Total != 1856 {
		t.Errorf("got %+v", got)
	}
}

func TestSQLiteDuplicateID(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	run := &Run{ID: "fixed", Dimensions: cube2m}
	if err := s.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := s.SaveRun(context.Background(), &Run{ID: "fixed", Dimensions: cube2m}); err == nil {
		t.Error("expected duplicate id to fail")
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(context.Background(), "sqlite:"+path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("Open returned %T", s)
	}

	if _, err := Open(context.Background(), "postgres://localhost/db"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Open(postgres) = %v, want INVALID_INPUT", err)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("BRICKSHELL_MONGO_URI")
	if uri == "" {
		t.Skip("BRICKSHELL_MONGO_URI not set")
	}
	s, err := OpenMongo(context.Background(), uri)
	if err != nil {
		t.Fatalf("OpenMongo: %v", err)
	}
	defer s.Close()
	t.Cleanup(func() { _ = s.runs.Drop(context.Background()) })
	testStore(t, s)
}
