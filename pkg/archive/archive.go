// Package archive stores completed diagram runs so the API can return them
// later. Two backends: an in-memory store for single-process deployments
// and a MongoDB store for anything that has to survive a restart.
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/accviz/accviz/pkg/errors"
	"github.com/accviz/accviz/pkg/pipeline"
)

// Run is one archived pipeline execution.
type Run struct {
	ID            string            `json:"id" bson:"_id"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at"`
	EntityCount   int               `json:"entity_count" bson:"entity_count"`
	StepCount     int               `json:"step_count" bson:"step_count"`
	Linkage       string            `json:"linkage" bson:"linkage"`
	Unit          float64           `json:"unit" bson:"unit"`
	Style         string            `json:"style" bson:"style"`
	PlacementHash string            `json:"placement_hash" bson:"placement_hash"`
	Artifacts     map[string][]byte `json:"artifacts,omitempty" bson:"artifacts"`
}

// NewRun builds a Run record from a pipeline result, with a fresh id.
func NewRun(opts pipeline.Options, res *pipeline.Result) *Run {
	return &Run{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		EntityCount:   res.Stats.EntityCount,
		StepCount:     res.Stats.StepCount,
		Linkage:       opts.Linkage,
		Unit:          opts.Unit,
		Style:         opts.Style,
		PlacementHash: res.PlacementHash,
		Artifacts:     res.Artifacts,
	}
}

// Summary is a Run without its artifact payloads, for listings.
type Summary struct {
	ID          string    `json:"id" bson:"_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	EntityCount int       `json:"entity_count" bson:"entity_count"`
	StepCount   int       `json:"step_count" bson:"step_count"`
	Linkage     string    `json:"linkage" bson:"linkage"`
}

// Store persists runs.
type Store interface {
	// Put archives a run.
	Put(ctx context.Context, run *Run) error

	// Get fetches a run by id. Returns a RUN_NOT_FOUND error when absent.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns summaries of the most recent runs, newest first,
	// capped at limit.
	List(ctx context.Context, limit int) ([]Summary, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// ErrNotFound builds the standard not-found error for a run id.
func ErrNotFound(id string) error {
	return errors.New(errors.ErrCodeRunNotFound, "run %s not found", id)
}
