package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

// OpenUnitInput is the input schema for the open_unit tool.
type OpenUnitInput struct {
	UnitID string `json:"unit_id" jsonschema:"the unit to open for coding"`
}

// TokenOutput is a token of the open unit.
type TokenOutput struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Text    string `json:"text"`
	Context bool   `json:"context,omitempty"`
}

// OpenUnitOutput is the output schema for the open_unit tool.
type OpenUnitOutput struct {
	UnitID      string                  `json:"unit_id"`
	Check       string                  `json:"check"`
	Status      string                  `json:"status"`
	Tokens      []TokenOutput           `json:"tokens"`
	Annotations []domain.WireAnnotation `json:"annotations"`
	Questions   []AnswerOutput          `json:"questions"`
	Dropped     []string                `json:"dropped,omitempty"`
}

// AnswerOutput is the current answer to one question.
type AnswerOutput struct {
	Index      int                 `json:"index"`
	Variable   string              `json:"variable"`
	Items      []domain.AnswerItem `json:"items"`
	Irrelevant bool                `json:"irrelevant,omitempty"`
}

// AnnotateSpanInput is the input schema for the annotate_span tool.
type AnnotateSpanInput struct {
	Check    string `json:"check" jsonschema:"the check value returned by open_unit"`
	Variable string `json:"variable" jsonschema:"the annotation variable"`
	Value    string `json:"value" jsonschema:"the code to assign"`
	Start    int    `json:"start" jsonschema:"index of the first token"`
	End      int    `json:"end" jsonschema:"index of the last token (inclusive)"`
	Toggle   bool   `json:"toggle,omitempty" jsonschema:"remove the annotation instead when it already exists"`
}

// AnnotationOutput is the output schema of tools that create an annotation.
type AnnotationOutput struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Variable string `json:"variable,omitempty"`
	Value    string `json:"value,omitempty"`
	Text     string `json:"text,omitempty"`
	Color    string `json:"color,omitempty"`
	Count    int    `json:"count"`
}

// DeleteAnnotationInput is the input schema for the delete_annotation tool.
type DeleteAnnotationInput struct {
	Check string `json:"check" jsonschema:"the check value returned by open_unit"`
	ID    string `json:"id" jsonschema:"the annotation to delete; relations depending on it are deleted too"`
}

// CreateRelationInput is the input schema for the create_relation tool.
type CreateRelationInput struct {
	Check    string `json:"check" jsonschema:"the check value returned by open_unit"`
	Variable string `json:"variable" jsonschema:"the relation variable"`
	Value    string `json:"value" jsonschema:"the relation code"`
	FromID   string `json:"from_id" jsonschema:"id of the source span annotation"`
	ToID     string `json:"to_id" jsonschema:"id of the destination span annotation"`
}

// CreateFieldInput is the input schema for the create_field tool.
type CreateFieldInput struct {
	Check    string `json:"check" jsonschema:"the check value returned by open_unit"`
	Variable string `json:"variable" jsonschema:"the annotation variable"`
	Value    string `json:"value" jsonschema:"the code to assign"`
	Field    string `json:"field,omitempty" jsonschema:"text field to label; empty labels the whole unit"`
}

// AnswerQuestionInput is the input schema for the answer_question tool.
type AnswerQuestionInput struct {
	Check    string              `json:"check" jsonschema:"the check value returned by open_unit"`
	Question int                 `json:"question" jsonschema:"index of the question in the codebook"`
	Values   []string            `json:"values,omitempty" jsonschema:"codes for a question without named items"`
	Items    map[string][]string `json:"items,omitempty" jsonschema:"codes per item name for a question with items"`
}

// AnswerQuestionOutput is the output schema for the answer_question tool.
type AnswerQuestionOutput struct {
	Questions []AnswerOutput `json:"questions"`
	Next      *int           `json:"next,omitempty"`
	Status    string         `json:"status"`
}

// ExportInput is the input schema for the export_annotations tool.
type ExportInput struct{}

// ExportOutput is the output schema for the export_annotations tool.
type ExportOutput struct {
	Annotations []domain.WireAnnotation `json:"annotations"`
	Count       int                     `json:"count"`
}

// ValidRelationsInput is the input schema for the valid_relations tool.
type ValidRelationsInput struct {
	From int `json:"from" jsonschema:"token index of the source span"`
	To   int `json:"to" jsonschema:"token index of the destination span"`
}

// RelationOptionOutput is a relation that may be created.
type RelationOptionOutput struct {
	FromID   string `json:"from_id"`
	ToID     string `json:"to_id"`
	Variable string `json:"variable"`
	Value    string `json:"value"`
}

// ValidRelationsOutput is the output schema for the valid_relations tool.
type ValidRelationsOutput struct {
	Options []RelationOptionOutput `json:"options"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "open_unit",
		Description: "Open a unit for coding and return its tokens, annotations and answers",
	}, s.handleOpenUnit)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "annotate_span",
		Description: "Code a run of tokens with a variable and value",
	}, s.handleAnnotateSpan)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_annotation",
		Description: "Delete an annotation and every relation that depends on it",
	}, s.handleDeleteAnnotation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_relation",
		Description: "Connect two span annotations with a relation",
	}, s.handleCreateRelation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_field",
		Description: "Label the whole unit, or one text field, with a variable and value",
	}, s.handleCreateField)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer_question",
		Description: "Answer a codebook question; branching rules are applied and the next question returned",
	}, s.handleAnswerQuestion)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "export_annotations",
		Description: "Return the open unit's annotations in wire format",
	}, s.handleExport)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "valid_relations",
		Description: "List the relations the codebook allows between the spans at two tokens",
	}, s.handleValidRelations)
}

// handleOpenUnit handles the open_unit tool invocation.
func (s *Server) handleOpenUnit(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OpenUnitInput,
) (*mcp.CallToolResult, OpenUnitOutput, error) {
	sess, err := s.ports.Coding.Open(ctx, input.UnitID)
	if err != nil {
		return nil, OpenUnitOutput{}, err
	}

	output := OpenUnitOutput{
		UnitID:      sess.UnitID,
		Check:       sess.Check,
		Status:      string(sess.Status),
		Tokens:      make([]TokenOutput, len(sess.Tokens)),
		Annotations: sess.Annotations,
		Questions:   answerOutputs(sess.Answers, sess.Irrelevant),
	}
	for i, tok := range sess.Tokens {
		output.Tokens[i] = TokenOutput{Index: tok.Index, Field: tok.Field, Text: tok.Text, Context: tok.Context}
	}
	if sess.Report != nil {
		for i := range sess.Report.Dropped {
			output.Dropped = append(output.Dropped, sess.Report.Dropped[i].Error())
		}
	}

	return nil, output, nil
}

// handleAnnotateSpan handles the annotate_span tool invocation.
func (s *Server) handleAnnotateSpan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnnotateSpanInput,
) (*mcp.CallToolResult, AnnotationOutput, error) {
	span := domain.NewSpan(input.Start, input.End)
	if input.Toggle {
		if err := s.ports.Coding.Toggle(ctx, input.Check, input.Variable, input.Value, span); err != nil {
			return nil, AnnotationOutput{}, err
		}
		return s.withCount(ctx, AnnotationOutput{})
	}

	a, err := s.ports.Coding.CreateSpan(ctx, input.Check, input.Variable, input.Value, span)
	if err != nil {
		return nil, AnnotationOutput{}, err
	}
	return s.withCount(ctx, annotationOutput(a))
}

// handleDeleteAnnotation handles the delete_annotation tool invocation.
func (s *Server) handleDeleteAnnotation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteAnnotationInput,
) (*mcp.CallToolResult, AnnotationOutput, error) {
	if err := s.ports.Coding.Delete(ctx, input.Check, input.ID); err != nil {
		return nil, AnnotationOutput{}, err
	}
	return s.withCount(ctx, AnnotationOutput{})
}

// handleCreateRelation handles the create_relation tool invocation.
func (s *Server) handleCreateRelation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateRelationInput,
) (*mcp.CallToolResult, AnnotationOutput, error) {
	a, err := s.ports.Coding.CreateRelation(ctx, input.Check, input.Variable, input.Value, input.FromID, input.ToID)
	if err != nil {
		return nil, AnnotationOutput{}, err
	}
	return s.withCount(ctx, annotationOutput(a))
}

// handleCreateField handles the create_field tool invocation.
func (s *Server) handleCreateField(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input CreateFieldInput,
) (*mcp.CallToolResult, AnnotationOutput, error) {
	a, err := s.ports.Coding.CreateField(ctx, input.Check, input.Variable, input.Value, input.Field)
	if err != nil {
		return nil, AnnotationOutput{}, err
	}
	return s.withCount(ctx, annotationOutput(a))
}

// handleAnswerQuestion handles the answer_question tool invocation.
func (s *Server) handleAnswerQuestion(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerQuestionInput,
) (*mcp.CallToolResult, AnswerQuestionOutput, error) {
	sess, err := s.ports.Coding.Current()
	if err != nil {
		return nil, AnswerQuestionOutput{}, err
	}
	if input.Question < 0 || input.Question >= len(sess.Answers) {
		return nil, AnswerQuestionOutput{}, fmt.Errorf("%w: question %d out of range", domain.ErrInvalidInput, input.Question)
	}

	answer, err := buildAnswer(sess.Answers[input.Question], input.Values, input.Items)
	if err != nil {
		return nil, AnswerQuestionOutput{}, err
	}

	progress, err := s.ports.Coding.Answer(ctx, input.Check, input.Question, answer)
	if err != nil {
		return nil, AnswerQuestionOutput{}, err
	}

	return nil, AnswerQuestionOutput{
		Questions: answerOutputs(progress.Answers, progress.Irrelevant),
		Next:      progress.Next,
		Status:    string(progress.Status),
	}, nil
}

// handleExport handles the export_annotations tool invocation.
func (s *Server) handleExport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ExportInput,
) (*mcp.CallToolResult, ExportOutput, error) {
	records, err := s.ports.Coding.Export(ctx)
	if err != nil {
		return nil, ExportOutput{}, err
	}
	return nil, ExportOutput{Annotations: records, Count: len(records)}, nil
}

// handleValidRelations handles the valid_relations tool invocation.
func (s *Server) handleValidRelations(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ValidRelationsInput,
) (*mcp.CallToolResult, ValidRelationsOutput, error) {
	options, err := s.ports.Coding.ValidRelations(ctx, input.From, input.To)
	if err != nil {
		return nil, ValidRelationsOutput{}, err
	}
	output := ValidRelationsOutput{Options: make([]RelationOptionOutput, len(options))}
	for i, o := range options {
		output.Options[i] = RelationOptionOutput{
			FromID:   o.From.ID,
			ToID:     o.To.ID,
			Variable: o.Variable,
			Value:    o.Value,
		}
	}
	return nil, output, nil
}

// withCount fills in the number of annotations the open unit now has.
func (s *Server) withCount(ctx context.Context, out AnnotationOutput) (*mcp.CallToolResult, AnnotationOutput, error) {
	records, err := s.ports.Coding.Export(ctx)
	if err != nil {
		return nil, AnnotationOutput{}, err
	}
	out.Count = len(records)
	return nil, out, nil
}

func annotationOutput(a domain.Annotation) AnnotationOutput {
	return AnnotationOutput{
		ID:       a.ID,
		Type:     string(a.Type),
		Variable: a.Variable,
		Value:    a.Value,
		Text:     a.Text,
		Color:    a.Color,
	}
}

func answerOutputs(answers []domain.Answer, irrelevant []bool) []AnswerOutput {
	out := make([]AnswerOutput, len(answers))
	for i, a := range answers {
		out[i] = AnswerOutput{
			Index:      i,
			Variable:   a.Variable,
			Items:      a.Items,
			Irrelevant: i < len(irrelevant) && irrelevant[i],
		}
	}
	return out
}

// buildAnswer fills the items of current with the given codes. values
// applies to a question with a single unnamed item.
func buildAnswer(current domain.Answer, values []string, items map[string][]string) (domain.Answer, error) {
	answer := current
	answer.Items = make([]domain.AnswerItem, len(current.Items))
	copy(answer.Items, current.Items)

	known := make(map[string]bool, len(answer.Items))
	for i := range answer.Items {
		item := &answer.Items[i]
		known[item.Item] = true
		switch {
		case item.Item == "" && values != nil:
			item.Values = values
		case items != nil:
			item.Values = items[item.Item]
		}
	}
	for name := range items {
		if !known[name] {
			return domain.Answer{}, fmt.Errorf("%w: question %s has no item %q", domain.ErrInvalidInput, current.Variable, name)
		}
	}
	return answer, nil
}
