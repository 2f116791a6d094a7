package sqlite

import (
	"fmt"

	"cvlab/internal/model"
)

// CrossingRepository implements repository.CrossingRepository for SQLite.
type CrossingRepository struct {
	db *DB
}

// NewCrossingRepository creates a new SQLite crossing repository.
func NewCrossingRepository(db *DB) *CrossingRepository {
	return &CrossingRepository{db: db}
}

// InsertBatch adds multiple crossings in a single transaction.
func (r *CrossingRepository) InsertBatch(crossings []model.Crossing) error {
	if len(crossings) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO crossings (run_id, frame, x, y, width, height, total)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range crossings {
		if _, err := stmt.Exec(c.RunID, c.Frame, c.X, c.Y, c.Width, c.Height, c.Total); err != nil {
			return fmt.Errorf("failed to insert crossing: %w", err)
		}
	}

	return tx.Commit()
}

// GetByRunID retrieves the crossings of a run in counting order.
func (r *CrossingRepository) GetByRunID(runID string) ([]model.Crossing, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, run_id, frame, x, y, width, height, total
		FROM crossings WHERE run_id = ? ORDER BY total
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query crossings: %w", err)
	}
	defer rows.Close()

	var crossings []model.Crossing
	for rows.Next() {
		var c model.Crossing
		if err := rows.Scan(&c.ID, &c.RunID, &c.Frame, &c.X, &c.Y, &c.Width, &c.Height, &c.Total); err != nil {
			return nil, fmt.Errorf("failed to scan crossing: %w", err)
		}
		crossings = append(crossings, c)
	}

	return crossings, rows.Err()
}
