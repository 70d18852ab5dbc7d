package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/annotator/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/services"
)

func testCodebook() *domain.Codebook {
	return &domain.Codebook{
		Questions: []domain.Question{
			{Name: "relevant", Codes: []domain.Code{
				{Code: "no", MakesIrrelevant: []string{domain.RemainingTarget}},
				{Code: "yes"},
			}},
			{Name: "tone", Items: []domain.QuestionItem{{Name: "author"}, {Name: "reader", Optional: true}}},
		},
		Variables: []domain.Variable{
			{Name: "actor"},
			{Name: "topic"},
			{Name: "claim", Relations: []domain.RelationCode{{
				Code: "about",
				From: []domain.EndpointRule{{Variable: "actor"}},
				To:   []domain.EndpointRule{{Variable: "topic"}},
			}}},
		},
	}
}

// newTestServer returns a server over a stored unit with the text
// "The minister said the budget will grow".
func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()
	units := memory.NewUnitStore()
	unitService := services.NewUnitService(units)
	_, _, err := unitService.Create(ctx, "u1", "job", []domain.TextField{
		{Name: "text", Value: "The minister said the budget will grow"},
	}, nil)
	require.NoError(t, err)

	coding := services.NewCodingService(units, memory.NewCodebookStore(testCodebook()), units, domain.DefaultCodingSettings())
	server, err := NewServer(&Ports{Coding: coding, Unit: unitService})
	require.NoError(t, err)
	return server
}

func openTestUnit(t *testing.T, server *Server) OpenUnitOutput {
	t.Helper()
	_, out, err := server.handleOpenUnit(context.Background(), nil, OpenUnitInput{UnitID: "u1"})
	require.NoError(t, err)
	return out
}

func TestServer_handleOpenUnit(t *testing.T) {
	server := newTestServer(t)

	out := openTestUnit(t, server)
	assert.Equal(t, "u1", out.UnitID)
	assert.NotEmpty(t, out.Check)
	assert.Equal(t, "IN_PROGRESS", out.Status)
	require.Len(t, out.Tokens, 7)
	assert.Equal(t, "minister", out.Tokens[1].Text)
	require.Len(t, out.Questions, 2)
	assert.Equal(t, "tone", out.Questions[1].Variable)
	assert.Len(t, out.Questions[1].Items, 2)

	_, _, err := server.handleOpenUnit(context.Background(), nil, OpenUnitInput{UnitID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServer_AnnotateAndRelate(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)
	open := openTestUnit(t, server)

	_, gov, err := server.handleAnnotateSpan(ctx, nil, AnnotateSpanInput{
		Check: open.Check, Variable: "actor", Value: "government", Start: 1, End: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, "The minister", gov.Text)
	assert.Equal(t, 1, gov.Count)

	_, econ, err := server.handleAnnotateSpan(ctx, nil, AnnotateSpanInput{
		Check: open.Check, Variable: "topic", Value: "econ", Start: 4, End: 4,
	})
	require.NoError(t, err)

	_, options, err := server.handleValidRelations(ctx, nil, ValidRelationsInput{From: 0, To: 4})
	require.NoError(t, err)
	require.Len(t, options.Options, 1)
	assert.Equal(t, gov.ID, options.Options[0].FromID)
	assert.Equal(t, econ.ID, options.Options[0].ToID)

	_, rel, err := server.handleCreateRelation(ctx, nil, CreateRelationInput{
		Check: open.Check, Variable: "claim", Value: "about", FromID: gov.ID, ToID: econ.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "relation", rel.Type)
	assert.Equal(t, 3, rel.Count)

	_, deleted, err := server.handleDeleteAnnotation(ctx, nil, DeleteAnnotationInput{Check: open.Check, ID: gov.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted.Count)

	_, exported, err := server.handleExport(ctx, nil, ExportInput{})
	require.NoError(t, err)
	require.Equal(t, 1, exported.Count)
	assert.Equal(t, "econ", exported.Annotations[0].Value)
}

func TestServer_handleAnnotateSpan_Toggle(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)
	open := openTestUnit(t, server)

	input := AnnotateSpanInput{Check: open.Check, Variable: "topic", Value: "econ", Start: 4, End: 4, Toggle: true}
	_, out, err := server.handleAnnotateSpan(ctx, nil, input)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)

	_, out, err = server.handleAnnotateSpan(ctx, nil, input)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Count)
}

func TestServer_StaleCheck(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)
	first := openTestUnit(t, server)
	openTestUnit(t, server)

	_, _, err := server.handleCreateField(ctx, nil, CreateFieldInput{Check: first.Check, Variable: "tone", Value: "neutral"})
	assert.ErrorIs(t, err, domain.ErrStaleUnit)
}

func TestServer_handleAnswerQuestion(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)
	open := openTestUnit(t, server)

	_, out, err := server.handleAnswerQuestion(ctx, nil, AnswerQuestionInput{
		Check: open.Check, Question: 0, Values: []string{"yes"},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Next)
	assert.Equal(t, 1, *out.Next)
	assert.Equal(t, "IN_PROGRESS", out.Status)

	_, out, err = server.handleAnswerQuestion(ctx, nil, AnswerQuestionInput{
		Check: open.Check, Question: 1, Items: map[string][]string{"author": {"positive"}},
	})
	require.NoError(t, err)
	assert.Nil(t, out.Next)
	assert.Equal(t, "DONE", out.Status)
	assert.Equal(t, []string{"positive"}, out.Questions[1].Items[0].Values)

	_, exported, err := server.handleExport(ctx, nil, ExportInput{})
	require.NoError(t, err)
	var variables []string
	for _, r := range exported.Annotations {
		variables = append(variables, r.Variable)
	}
	assert.ElementsMatch(t, []string{"relevant", "tone.author"}, variables)

	_, out, err = server.handleAnswerQuestion(ctx, nil, AnswerQuestionInput{
		Check: open.Check, Question: 0, Values: []string{"no"},
	})
	require.NoError(t, err)
	assert.True(t, out.Questions[1].Irrelevant)
	assert.Equal(t, "DONE", out.Status)
}

func TestServer_handleAnswerQuestion_Invalid(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t)
	open := openTestUnit(t, server)

	_, _, err := server.handleAnswerQuestion(ctx, nil, AnswerQuestionInput{Check: open.Check, Question: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = server.handleAnswerQuestion(ctx, nil, AnswerQuestionInput{
		Check: open.Check, Question: 1, Items: map[string][]string{"listener": {"x"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestServer_ErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	failure := errors.New("coding failed")
	server, err := NewServer(&Ports{Coding: &mockCodingService{err: failure}})
	require.NoError(t, err)

	_, _, err = server.handleOpenUnit(ctx, nil, OpenUnitInput{UnitID: "u1"})
	assert.ErrorIs(t, err, failure)
	_, _, err = server.handleAnnotateSpan(ctx, nil, AnnotateSpanInput{})
	assert.ErrorIs(t, err, failure)
	_, _, err = server.handleExport(ctx, nil, ExportInput{})
	assert.ErrorIs(t, err, failure)
	_, _, err = server.handleValidRelations(ctx, nil, ValidRelationsInput{})
	assert.ErrorIs(t, err, failure)
	_, _, err = server.handleAnswerQuestion(ctx, nil, AnswerQuestionInput{})
	assert.ErrorIs(t, err, failure)
}

func TestBuildAnswer(t *testing.T) {
	unnamed := domain.Answer{Variable: "q", Items: []domain.AnswerItem{{Item: ""}}}
	a, err := buildAnswer(unnamed, []string{"yes"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"yes"}, a.Items[0].Values)
	assert.Nil(t, unnamed.Items[0].Values)

	named := domain.Answer{Variable: "q", Items: []domain.AnswerItem{{Item: "a", Values: []string{"old"}}, {Item: "b"}}}
	a, err = buildAnswer(named, nil, map[string][]string{"b": {"new"}})
	require.NoError(t, err)
	assert.Nil(t, a.Items[0].Values)
	assert.Equal(t, []string{"new"}, a.Items[1].Values)
	assert.Equal(t, []string{"old"}, named.Items[0].Values)
}
