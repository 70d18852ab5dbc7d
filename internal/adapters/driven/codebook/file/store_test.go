package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

const tomlCodebook = `
[[questions]]
name = "relevant"
question = "Is the article about the economy?"

  [[questions.codes]]
  code = "no"
  makes_irrelevant = ["REMAINING"]

  [[questions.codes]]
  code = "yes"

[[questions]]
name = "tone"

  [[questions.codes]]
  code = "positive"

  [[questions.codes]]
  code = "negative"

[[variables]]
name = "actor"

  [[variables.codes]]
  code = "government"
  color = "#FFAA00"

[[variables]]
name = "topic"

  [[variables.codes]]
  code = "econ"

[[variables]]
name = "claim"

  [[variables.relations]]
  code = "about"
  from = [{ variable = "actor" }]
  to = [{ variable = "topic", values = ["econ"] }]
`

const jsonCodebook = `{
  "questions": [
    {"name": "tone", "codes": [{"code": "positive"}, {"code": "negative", "required_for": ["followup"]}]},
    {"name": "followup", "items": [{"name": "who"}, {"name": "why", "optional": true}]}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDecode_TOML(t *testing.T) {
	cb, err := Decode([]byte(tomlCodebook), ".toml")
	require.NoError(t, err)

	require.Len(t, cb.Questions, 2)
	assert.Equal(t, "relevant", cb.Questions[0].Name)
	assert.Equal(t, []string{domain.RemainingTarget}, cb.Questions[0].Codes[0].MakesIrrelevant)

	vm := cb.VariableMap()
	color, ok := vm.Color("actor", "government")
	assert.True(t, ok)
	assert.Equal(t, "#FFAA00", color)

	claim := vm["claim"]
	require.Len(t, claim.Relations, 1)
	assert.Equal(t, "topic", claim.Relations[0].To[0].Variable)
	assert.Equal(t, []string{"econ"}, claim.Relations[0].To[0].Values)
	assert.NoError(t, cb.Validate())
}

func TestDecode_JSON(t *testing.T) {
	cb, err := Decode([]byte(jsonCodebook), ".json")
	require.NoError(t, err)

	require.Len(t, cb.Questions, 2)
	assert.Equal(t, []string{"followup"}, cb.Questions[0].Codes[1].RequiredFor)
	assert.True(t, cb.Questions[1].Items[1].Optional)
}

func TestDecode_GuessesFormat(t *testing.T) {
	cb, err := Decode([]byte(jsonCodebook), "")
	require.NoError(t, err)
	assert.Len(t, cb.Questions, 2)

	cb, err = Decode([]byte(tomlCodebook), "")
	require.NoError(t, err)
	assert.Len(t, cb.Variables, 3)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte("questions = 3"), ".toml")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Decode([]byte("{"), ".json")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = Decode([]byte("x: 1"), ".yaml")
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestStore_LoadCaches(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "codebook.toml", tomlCodebook)
	store := NewStore(path)
	ctx := context.Background()

	first, err := store.Load(ctx)
	require.NoError(t, err)

	writeFile(t, dir, "codebook.toml", `[[questions]]
name = "only"
`)
	cached, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, first, cached)

	reloaded, err := store.Reload(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded.Questions, 1)
	assert.Equal(t, "only", reloaded.Questions[0].Name)
}

func TestStore_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "codebook.json", jsonCodebook)
	store := NewStore(path)
	ctx := context.Background()

	first, err := store.Load(ctx)
	require.NoError(t, err)

	writeFile(t, dir, "codebook.json", `{"questions": [{"name": "a"}, {"name": "a"}]}`)
	_, err = store.Reload(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cached, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, first, cached)
}

func TestStore_MissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.toml"))
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
