package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvlab/internal/model"
	"cvlab/internal/repository"
)

var (
	_ repository.RunRepository      = (*RunRepository)(nil)
	_ repository.CrossingRepository = (*CrossingRepository)(nil)
	_ repository.ArtifactRepository = (*ArtifactRepository)(nil)
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err, "Failed to create test database")
	t.Cleanup(func() { db.Close() })

	return db
}

func insertRun(t *testing.T, runs *RunRepository, kind, name string, started time.Time) *model.Run {
	t.Helper()
	run := &model.Run{Kind: kind, Name: name, Input: "photo", StartedAt: started}
	require.NoError(t, runs.Insert(run))
	return run
}

func TestNew_MigratesTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err, "reopening an existing database should not fail")
	require.NoError(t, db.Close())
}

func TestRunRepository_InsertAndFinish(t *testing.T) {
	runs := NewRunRepository(setupTestDB(t))

	run := insertRun(t, runs, model.KindDemo, "resize", time.Time{})
	assert.NotEmpty(t, run.ID, "ID should be generated")
	assert.Equal(t, model.StatusRunning, run.Status)
	assert.False(t, run.StartedAt.IsZero())

	got, err := runs.GetByID(run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "resize", got.Name)
	assert.True(t, got.FinishedAt.IsZero(), "running run has no finish time")
	assert.Zero(t, got.Duration())

	run.Status = model.StatusFailed
	run.Error = "empty image"
	run.Total = 3
	require.NoError(t, runs.Finish(run))

	got, err = runs.GetByID(run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, "empty image", got.Error)
	assert.Equal(t, 3, got.Total)
	assert.False(t, got.FinishedAt.IsZero())
}

func TestRunRepository_FinishUnknown(t *testing.T) {
	runs := NewRunRepository(setupTestDB(t))

	err := runs.Finish(&model.Run{ID: "missing", Status: model.StatusOK})
	assert.Error(t, err)
}

func TestRunRepository_GetByIDMissing(t *testing.T) {
	runs := NewRunRepository(setupTestDB(t))

	got, err := runs.GetByID("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRunRepository_List(t *testing.T) {
	runs := NewRunRepository(setupTestDB(t))
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	insertRun(t, runs, model.KindDemo, "resize", base)
	insertRun(t, runs, model.KindDemo, "canny", base.Add(time.Minute))
	insertRun(t, runs, model.KindCount, "count", base.Add(2*time.Minute))

	tests := []struct {
		name     string
		filter   *model.RunFilter
		expected []string
	}{
		{"nil filter", nil, []string{"count", "canny", "resize"}},
		{"by kind", &model.RunFilter{Kind: model.KindDemo}, []string{"canny", "resize"}},
		{"by name", &model.RunFilter{Name: "resize"}, []string{"resize"}},
		{"limit", &model.RunFilter{Limit: 1}, []string{"count"}},
		{"by status", &model.RunFilter{Status: model.StatusOK}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := runs.List(tt.filter)
			require.NoError(t, err)

			var names []string
			for _, r := range list {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestCrossingRepository_InsertBatch(t *testing.T) {
	db := setupTestDB(t)
	run := insertRun(t, NewRunRepository(db), model.KindCount, "count", time.Time{})
	crossings := NewCrossingRepository(db)

	require.NoError(t, crossings.InsertBatch(nil), "empty batch is a no-op")

	batch := []model.Crossing{
		{RunID: run.ID, Frame: 12, X: 100, Y: 560, Width: 120, Height: 90, Total: 1},
		{RunID: run.ID, Frame: 40, X: 400, Y: 570, Width: 95, Height: 100, Total: 2},
	}
	require.NoError(t, crossings.InsertBatch(batch))

	got, err := crossings.GetByRunID(run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 12, got[0].Frame)
	assert.Equal(t, 2, got[1].Total)
	assert.NotZero(t, got[0].ID)

	other, err := crossings.GetByRunID("other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestArtifactRepository(t *testing.T) {
	db := setupTestDB(t)
	run := insertRun(t, NewRunRepository(db), model.KindDemo, "canny", time.Time{})
	artifacts := NewArtifactRepository(db)

	a := &model.Artifact{RunID: run.ID, Title: "canny", Path: "/tmp/out/01_canny.png", Width: 640, Height: 480, FileSize: 2048}
	id, err := artifacts.Insert(a)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)

	_, err = artifacts.Insert(&model.Artifact{RunID: run.ID, Title: "sheet", Path: "/tmp/out/sheet.png"})
	require.NoError(t, err)

	got, err := artifacts.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "canny", got.Title)
	assert.Equal(t, int64(2048), got.FileSize)

	list, err := artifacts.GetByRunID(run.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "sheet", list[1].Title)

	missing, err := artifacts.GetByID(9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestArtifactRepository_RequiresRun(t *testing.T) {
	artifacts := NewArtifactRepository(setupTestDB(t))

	_, err := artifacts.Insert(&model.Artifact{RunID: "ghost", Title: "x", Path: "x.png"})
	assert.Error(t, err, "foreign keys are enforced")
}
