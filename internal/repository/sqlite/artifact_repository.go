package sqlite

import (
	"database/sql"
	"fmt"

	"cvlab/internal/model"
)

// ArtifactRepository implements repository.ArtifactRepository for SQLite.
type ArtifactRepository struct {
	db *DB
}

// NewArtifactRepository creates a new SQLite artifact repository.
func NewArtifactRepository(db *DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Insert adds a new artifact record to the database.
func (r *ArtifactRepository) Insert(a *model.Artifact) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO artifacts (run_id, title, path, width, height, filesize)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.RunID, a.Title, a.Path, a.Width, a.Height, a.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert artifact: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// GetByID retrieves an artifact by its ID. A missing artifact is (nil, nil).
func (r *ArtifactRepository) GetByID(id int64) (*model.Artifact, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var a model.Artifact
	err := r.db.Conn().QueryRow(`
		SELECT id, run_id, title, path, width, height, filesize, created_at
		FROM artifacts WHERE id = ?
	`, id).Scan(&a.ID, &a.RunID, &a.Title, &a.Path, &a.Width, &a.Height, &a.FileSize, &a.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return &a, nil
}

// GetByRunID retrieves the artifacts of a run in the order they were written.
func (r *ArtifactRepository) GetByRunID(runID string) ([]model.Artifact, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, run_id, title, path, width, height, filesize, created_at
		FROM artifacts WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []model.Artifact
	for rows.Next() {
		var a model.Artifact
		if err := rows.Scan(&a.ID, &a.RunID, &a.Title, &a.Path, &a.Width, &a.Height, &a.FileSize, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}

	return artifacts, rows.Err()
}
