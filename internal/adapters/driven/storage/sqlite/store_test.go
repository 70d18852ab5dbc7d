package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "annotator-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func testUnit(id string) *domain.Unit {
	return &domain.Unit{
		ID:    id,
		JobID: "job-1",
		Tokens: []domain.Token{
			{Field: "text", Offset: 0, Length: 3, Index: 0, Text: "All", Post: " "},
			{Field: "text", Offset: 4, Length: 5, Index: 1, Text: "these", Post: " ", Sentence: 1},
			{Field: "title", Offset: 0, Length: 4, Index: 2, Text: "Head", Context: true},
		},
		Annotations: []domain.WireAnnotation{
			{ID: "s1", Type: domain.AnnotationSpan, Variable: "topic", Value: "econ", Color: "#ff0000",
				Field: "text", Offset: domain.IntPtr(0), Length: domain.IntPtr(9), Text: "All these"},
			{ID: "s2", Type: domain.AnnotationSpan, Variable: "actor", Value: "gov",
				Field: "text", Offset: domain.IntPtr(4), Length: domain.IntPtr(5), Text: "these"},
			{ID: "r1", Type: domain.AnnotationRelation, Variable: "link", Value: "causes", FromID: "s1", ToID: "s2",
				From: &domain.WireEndpoint{Field: "text", Offset: 0, Length: 9, Variable: "topic", Value: "econ"},
				To:   &domain.WireEndpoint{Field: "text", Offset: 4, Length: 5, Variable: "actor", Value: "gov"}},
			{ID: "f1", Type: domain.AnnotationField, Variable: "tone", Value: "positive"},
		},
		Status: domain.UnitStatusInProgress,
	}
}

// ==================== Store Creation and Initialization Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "annotator-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, DatabaseName)
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "annotator-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	nestedDir := filepath.Join(tempDir, "nested", "path")
	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	for _, table := range []string{"units", "tokens", "annotations", "annotation_posts"} {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "annotator-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.UnitStore().SaveUnit(context.Background(), testUnit("u1")))
	require.NoError(t, store.Close())

	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)

	unit, err := store.UnitStore().GetUnit(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", unit.ID)
}

// ==================== Unit Store Tests ====================

func TestUnitStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	units := store.UnitStore()

	want := testUnit("u1")
	require.NoError(t, units.SaveUnit(ctx, want))

	got, err := units.GetUnit(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.JobID, got.JobID)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Tokens, got.Tokens)
	assert.Equal(t, want.Annotations, got.Annotations)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestUnitStore_SaveReplaces(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	units := store.UnitStore()

	unit := testUnit("u1")
	require.NoError(t, units.SaveUnit(ctx, unit))

	unit.Annotations = unit.Annotations[3:]
	unit.Status = domain.UnitStatusDone
	require.NoError(t, units.SaveUnit(ctx, unit))

	got, err := units.GetUnit(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, got.Annotations, 1)
	assert.Equal(t, "f1", got.Annotations[0].ID)
	assert.Nil(t, got.Annotations[0].Offset)
	assert.Equal(t, domain.UnitStatusDone, got.Status)
	assert.Len(t, got.Tokens, 3)
}

func TestUnitStore_SaveInvalid(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.UnitStore().SaveUnit(context.Background(), &domain.Unit{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	err = store.UnitStore().SaveUnit(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUnitStore_GetNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.UnitStore().GetUnit(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUnitStore_List(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	units := store.UnitStore()

	for _, id := range []string{"c", "a", "b"} {
		u := testUnit(id)
		if id == "b" {
			u.JobID = "job-2"
		}
		require.NoError(t, units.SaveUnit(ctx, u))
	}

	all, err := units.ListUnits(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, "c", all[2].ID)
	assert.Empty(t, all[0].Tokens)

	job1, err := units.ListUnits(ctx, "job-1")
	require.NoError(t, err)
	assert.Len(t, job1, 2)
}

func TestUnitStore_DeleteCascades(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	units := store.UnitStore()

	require.NoError(t, units.SaveUnit(ctx, testUnit("u1")))
	require.NoError(t, store.AnnotationSink().PostAnnotations(ctx, "u1", nil, domain.UnitStatusInProgress))
	require.NoError(t, units.DeleteUnit(ctx, "u1"))

	_, err := units.GetUnit(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, table := range []string{"tokens", "annotations", "annotation_posts"} {
		var count int
		require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Zero(t, count, table)
	}

	// Deleting a missing unit is not an error.
	assert.NoError(t, units.DeleteUnit(ctx, "u1"))
}

// ==================== Annotation Sink Tests ====================

func TestAnnotationSink_Post(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.UnitStore().SaveUnit(ctx, testUnit("u1")))

	records := []domain.WireAnnotation{
		{ID: "f2", Type: domain.AnnotationField, Variable: "tone", Value: "negative"},
	}
	require.NoError(t, store.AnnotationSink().PostAnnotations(ctx, "u1", records, domain.UnitStatusDone))

	got, err := store.UnitStore().GetUnit(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, records, got.Annotations)
	assert.Equal(t, domain.UnitStatusDone, got.Status)

	n, err := store.PostCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAnnotationSink_UnknownUnit(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.AnnotationSink().PostAnnotations(context.Background(), "missing", nil, domain.UnitStatusDone)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
