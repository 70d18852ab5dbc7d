package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

func testUnit(id, job string) *domain.Unit {
	return &domain.Unit{
		ID:    id,
		JobID: job,
		Tokens: []domain.Token{
			{Field: "text", Offset: 0, Length: 3, Index: 0, Text: "one", Post: " "},
			{Field: "text", Offset: 4, Length: 3, Index: 1, Text: "two"},
		},
		Annotations: []domain.WireAnnotation{
			{Type: domain.AnnotationSpan, Variable: "v", Value: "x", Field: "text", Offset: domain.IntPtr(0), Length: domain.IntPtr(3)},
		},
		Status: domain.UnitStatusInProgress,
	}
}

func TestUnitStore_SaveAndGet(t *testing.T) {
	store := NewUnitStore()
	ctx := context.Background()

	unit := testUnit("u1", "job")
	require.NoError(t, store.SaveUnit(ctx, unit))

	// Later changes to the caller's unit are not visible.
	unit.Annotations[0].Value = "changed"

	got, err := store.GetUnit(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Annotations[0].Value)
	assert.Len(t, got.Tokens, 2)

	_, err = store.GetUnit(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.SaveUnit(ctx, &domain.Unit{}), domain.ErrInvalidInput)
}

func TestUnitStore_ListAndDelete(t *testing.T) {
	store := NewUnitStore()
	ctx := context.Background()

	require.NoError(t, store.SaveUnit(ctx, testUnit("b", "job1")))
	require.NoError(t, store.SaveUnit(ctx, testUnit("a", "job1")))
	require.NoError(t, store.SaveUnit(ctx, testUnit("c", "job2")))

	units, err := store.ListUnits(ctx, "job1")
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "a", units[0].ID)
	assert.Equal(t, "b", units[1].ID)

	all, err := store.ListUnits(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.DeleteUnit(ctx, "a"))
	units, err = store.ListUnits(ctx, "job1")
	require.NoError(t, err)
	assert.Len(t, units, 1)
}

func TestUnitStore_PostAnnotations(t *testing.T) {
	store := NewUnitStore()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, store.SaveUnit(ctx, testUnit("u1", "job")))

	records := []domain.WireAnnotation{{Type: domain.AnnotationField, Variable: "tone", Value: "neutral"}}
	require.NoError(t, store.PostAnnotations(ctx, "u1", records, domain.UnitStatusDone))

	got, err := store.GetUnit(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, records, got.Annotations)
	assert.Equal(t, domain.UnitStatusDone, got.Status)
	assert.Equal(t, fixed, got.UpdatedAt)

	err = store.PostAnnotations(ctx, "missing", records, domain.UnitStatusDone)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSink(t *testing.T) {
	sink := NewSink()
	ctx := context.Background()

	_, ok := sink.Last()
	assert.False(t, ok)

	records := []domain.WireAnnotation{{Variable: "v", Value: "x"}}
	require.NoError(t, sink.PostAnnotations(ctx, "u1", records, domain.UnitStatusInProgress))

	boom := errors.New("boom")
	sink.FailWith(boom)
	assert.ErrorIs(t, sink.PostAnnotations(ctx, "u1", nil, domain.UnitStatusDone), boom)
	sink.FailWith(nil)

	posts := sink.Posts()
	require.Len(t, posts, 1)
	last, ok := sink.Last()
	require.True(t, ok)
	assert.Equal(t, "u1", last.UnitID)
	assert.Equal(t, records, last.Records)
}

func TestCodebookStore(t *testing.T) {
	store := NewCodebookStore(nil)
	cb, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cb.Questions)

	store.Set(&domain.Codebook{Variables: []domain.Variable{{Name: "topic"}}})
	cb, err = store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, cb.Variables, 1)
}
