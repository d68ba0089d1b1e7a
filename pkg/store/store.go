// Package store persists solved runs.
//
// A run records the chosen dimensions, the accepted openings with how many
// bricks each one carved, and the final brick states. Two backends exist:
//
//   - SQLite (modernc.org/sqlite, no cgo): "sqlite:runs.db"
//   - MongoDB: "mongodb://host:27017/brickshell"
//
// [Open] picks the backend from the URL.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/pipeline"
	"github.com/matzehuels/brickshell/pkg/shell"
)

// Store saves and loads runs. Implementations are safe for concurrent use.
type Store interface {
	// SaveRun persists run, assigning ID and CreatedAt when unset.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun loads a run with its bricks. Unknown IDs return a NOT_FOUND error.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns the newest runs first, without bricks.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	Close() error
}

// Run is one persisted solve.
type Run struct {
	ID         string           `json:"id" bson:"_id"`
	CreatedAt  time.Time        `json:"created_at" bson:"created_at"`
	Dimensions shell.Dimensions `json:"dimensions" bson:"dimensions"`
	MaxBricks  int              `json:"max_bricks,omitempty" bson:"max_bricks"`
	Total      int              `json:"total" bson:"total"`
	Active     int              `json:"active" bson:"active"`
	Openings   []Opening        `json:"openings" bson:"openings"`
	Bricks     []shell.Brick    `json:"bricks,omitempty" bson:"bricks,omitempty"`
}

// Opening is an applied opening and its effect.
type Opening struct {
	Type     string `json:"type" bson:"type"`
	Wall     string `json:"wall" bson:"wall"`
	XMM      int    `json:"x_mm" bson:"x_mm"`
	ZMM      int    `json:"z_mm" bson:"z_mm"`
	WidthMM  int    `json:"width_mm" bson:"width_mm"`
	HeightMM int    `json:"height_mm" bson:"height_mm"`
	Carved   int    `json:"carved" bson:"carved"`
	Error    string `json:"error,omitempty" bson:"error,omitempty"`
}

// NewRun captures a pipeline result. maxBricks is the budget the run was
// solved for; pass 0 when dimensions were fixed.
func NewRun(res *pipeline.Result, maxBricks int) *Run {
	run := &Run{
		Dimensions: res.Dimensions,
		MaxBricks:  maxBricks,
		Total:      res.Stats.Total,
		Active:     res.Stats.Active,
		Openings:   make([]Opening, 0, len(res.Openings)),
	}
	if res.Collection != nil {
		run.Bricks = res.Collection.Bricks()
	}
	for _, c := range res.Openings {
		o := Opening{
			Type:     string(c.Spec.Type),
			Wall:     c.Spec.Wall,
			XMM:      c.Spec.XMM,
			ZMM:      c.Spec.ZMM,
			WidthMM:  c.Spec.WidthMM,
			HeightMM: c.Spec.HeightMM,
			Carved:   c.Bricks,
		}
		if c.Err != nil {
			o.Error = c.Err.Error()
		}
		run.Openings = append(run.Openings, o)
	}
	return run
}

// Collection rebuilds the brick collection of a loaded run.
func (r *Run) Collection() (*shell.Collection, error) {
	return shell.NewCollection(r.Dimensions, r.Bricks)
}

// Open connects to the store named by url.
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "sqlite:"):
		return OpenSQLite(strings.TrimPrefix(url, "sqlite:"))
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return OpenMongo(ctx, url)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported store url %q (use sqlite:PATH or mongodb://…)", url)
}

// prepare fills the ID and timestamp of a new run.
func prepare(run *Run) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	if run.Openings == nil {
		run.Openings = []Opening{}
	}
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "run %s not found", id)
}
