package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

func TestAnnotateSpan(t *testing.T) {
	env := setupTestServices(t, true)

	out, err := runCommand(t, "annotate", "span", "u1", "actor", "government", "0", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "actor=government")
	assert.Contains(t, out, `"The minister"`)

	unit, err := env.units.GetUnit(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, unit.Annotations, 1)
	assert.Equal(t, "The minister", unit.Annotations[0].Text)
}

func TestAnnotateSpan_Toggle(t *testing.T) {
	env := setupTestServices(t, true)

	_, err := runCommand(t, "annotate", "span", "u1", "topic", "econ", "4", "--toggle")
	require.NoError(t, err)
	unit, err := env.units.GetUnit(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, unit.Annotations, 1)

	out, err := runCommand(t, "annotate", "span", "u1", "topic", "econ", "4", "--toggle")
	require.NoError(t, err)
	assert.Contains(t, out, "Toggled topic=econ")
	unit, err = env.units.GetUnit(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, unit.Annotations)
}

func TestAnnotateSpan_InvalidArgs(t *testing.T) {
	setupTestServices(t, true)

	_, err := runCommand(t, "annotate", "span", "u1", "topic", "econ", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = runCommand(t, "annotate", "span", "u1", "topic", "econ", "1", "y")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = runCommand(t, "annotate", "span", "missing", "topic", "econ", "1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnnotateRelationAndDelete(t *testing.T) {
	env := setupTestServices(t, true)

	_, err := runCommand(t, "annotate", "span", "u1", "actor", "government", "0", "1")
	require.NoError(t, err)
	_, err = runCommand(t, "annotate", "span", "u1", "topic", "econ", "4")
	require.NoError(t, err)

	out, err := runCommand(t, "code", "relations", "u1", "1", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "claim=about")

	from := spanID(t, env, "actor", "government")
	to := spanID(t, env, "topic", "econ")
	out, err = runCommand(t, "annotate", "relation", "u1", "claim", "about", from, to)
	require.NoError(t, err)
	assert.Contains(t, out, "Created relation")

	unit, err := env.units.GetUnit(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, unit.Annotations, 3)

	out, err = runCommand(t, "annotate", "delete", "u1", from)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted annotation "+from)

	unit, err = env.units.GetUnit(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, unit.Annotations, 1)
	assert.Equal(t, "topic", unit.Annotations[0].Variable)
}

func TestAnnotateField(t *testing.T) {
	env := setupTestServices(t, true)

	out, err := runCommand(t, "annotate", "field", "u1", "tone", "positive")
	require.NoError(t, err)
	assert.Contains(t, out, "Created field annotation")

	out, err = runCommand(t, "annotate", "field", "u1", "frame", "conflict", "--field", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "frame=conflict")

	unit, err := env.units.GetUnit(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, unit.Annotations, 2)
	for _, r := range unit.Annotations {
		assert.Equal(t, domain.AnnotationField, r.Classify())
	}
}

func TestCodeRelations_NoneAllowed(t *testing.T) {
	setupTestServices(t, true)

	out, err := runCommand(t, "code", "relations", "u1", "0", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "No relations allowed.")

	_, err = runCommand(t, "code", "relations", "u1", "a", "4")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
