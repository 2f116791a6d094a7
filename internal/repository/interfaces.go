package repository

import (
	"cvlab/internal/model"
)

// RunRepository defines the interface for run history operations.
type RunRepository interface {
	// Create operations
	Insert(run *model.Run) error

	// Update operations
	Finish(run *model.Run) error

	// Read operations
	GetByID(id string) (*model.Run, error)
	List(filter *model.RunFilter) ([]model.Run, error)
}

// CrossingRepository defines the interface for counted vehicle records.
type CrossingRepository interface {
	InsertBatch(crossings []model.Crossing) error
	GetByRunID(runID string) ([]model.Crossing, error)
}

// ArtifactRepository defines the interface for images written by a run.
type ArtifactRepository interface {
	Insert(a *model.Artifact) (int64, error)
	GetByID(id int64) (*model.Artifact, error)
	GetByRunID(runID string) ([]model.Artifact, error)
}
