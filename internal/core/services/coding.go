package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/ports/driven"
	"github.com/custodia-labs/annotator/internal/core/ports/driving"
	"github.com/custodia-labs/annotator/internal/engine/answers"
	"github.com/custodia-labs/annotator/internal/engine/branching"
	"github.com/custodia-labs/annotator/internal/engine/library"
	"github.com/custodia-labs/annotator/internal/engine/manager"
	"github.com/custodia-labs/annotator/internal/engine/tokenindex"
	"github.com/custodia-labs/annotator/internal/logger"
)

// Ensure CodingService implements the interface.
var _ driving.CodingService = (*CodingService)(nil)

// CodingService codes one unit at a time. Opening a unit discards the
// previous session; requests made against the previous session are
// rejected by comparing their check value.
type CodingService struct {
	unitStore     driven.UnitStore
	codebookStore driven.CodebookStore
	sink          driven.AnnotationSink
	settings      domain.CodingSettings
	newCheck      func() string

	mu      sync.Mutex
	session *session
}

// session is the state of the open unit.
type session struct {
	unitID    string
	check     string
	tokens    []domain.Token
	manager   *manager.Manager
	evaluator *branching.Evaluator
	rules     *library.RelationRules
	status    domain.UnitStatus
	report    *domain.ImportReport
}

// NewCodingService creates a new coding service. sink may be nil, in which
// case changes are only kept in memory.
func NewCodingService(
	unitStore driven.UnitStore,
	codebookStore driven.CodebookStore,
	sink driven.AnnotationSink,
	settings domain.CodingSettings,
) *CodingService {
	return &CodingService{
		unitStore:     unitStore,
		codebookStore: codebookStore,
		sink:          sink,
		settings:      settings,
		newCheck:      uuid.NewString,
	}
}

// Open loads a unit and makes it the active one.
func (s *CodingService) Open(ctx context.Context, unitID string) (*driving.Session, error) {
	if unitID == "" {
		return nil, fmt.Errorf("%w: unit id is required", domain.ErrInvalidInput)
	}
	logger.Section("unit " + unitID)

	unit, err := s.unitStore.GetUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("loading unit %s: %w", unitID, err)
	}

	codebook := &domain.Codebook{}
	if s.codebookStore != nil {
		codebook, err = s.codebookStore.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading codebook: %w", err)
		}
	}

	index, err := tokenindex.New(unit.Tokens)
	if err != nil {
		return nil, fmt.Errorf("indexing tokens of unit %s: %w", unitID, err)
	}

	check := s.newCheck()
	lib, report := library.Import(unit.Annotations, index,
		library.WithUnit(unit.ID, check),
		library.WithVariables(codebook.VariableMap()),
		library.WithHistorySize(s.settings.HistorySize),
	)
	if n := len(report.Dropped); n > 0 {
		logger.Warn("unit %s: %d annotation records could not be placed", unitID, n)
	}

	status := unit.Status
	if !status.IsValid() {
		status = domain.UnitStatusInProgress
	}

	sess := &session{
		unitID:    unit.ID,
		check:     check,
		tokens:    unit.Tokens,
		manager:   manager.New(lib, manager.WithStrict(s.settings.Strict)),
		evaluator: branching.New(answers.NormalizeTargets(codebook.Questions, index)),
		rules:     library.NewRelationRules(codebook.Variables),
		status:    status,
		report:    report,
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()

	logger.Info("opened unit %s (%d tokens, %d annotations)", unit.ID, index.Len(), lib.Len())
	return sess.snapshot(), nil
}

// Current returns the active session.
func (s *CodingService) Current() (*driving.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, domain.ErrNoActiveUnit
	}
	return s.session.snapshot(), nil
}

// CreateSpan codes a token span.
func (s *CodingService) CreateSpan(ctx context.Context, check, variable, value string, span domain.Span) (domain.Annotation, error) {
	sess, err := s.active(check)
	if err != nil {
		return domain.Annotation{}, err
	}
	a, change, err := sess.manager.CreateSpan(variable, value, span, "")
	if err != nil {
		return domain.Annotation{}, err
	}
	return a, s.publish(ctx, sess, change, false)
}

// Toggle creates the span annotation, or deletes it when it exists.
func (s *CodingService) Toggle(ctx context.Context, check, variable, value string, span domain.Span) error {
	sess, err := s.active(check)
	if err != nil {
		return err
	}
	change, err := sess.manager.Toggle(variable, value, span, s.settings.EditMode)
	if err != nil {
		return err
	}
	return s.publish(ctx, sess, change, false)
}

// CreateRelation connects two span annotations.
func (s *CodingService) CreateRelation(ctx context.Context, check, variable, value, fromID, toID string) (domain.Annotation, error) {
	sess, err := s.active(check)
	if err != nil {
		return domain.Annotation{}, err
	}
	a, change, err := sess.manager.CreateRelation(variable, value, fromID, toID)
	if err != nil {
		return domain.Annotation{}, err
	}
	return a, s.publish(ctx, sess, change, false)
}

// CreateField labels the unit, or one field of it.
func (s *CodingService) CreateField(ctx context.Context, check, variable, value, field string) (domain.Annotation, error) {
	sess, err := s.active(check)
	if err != nil {
		return domain.Annotation{}, err
	}
	a, change, err := sess.manager.CreateField(variable, value, field)
	if err != nil {
		return domain.Annotation{}, err
	}
	return a, s.publish(ctx, sess, change, false)
}

// Delete removes an annotation and the relations depending on it. In
// edit mode an EMPTY placeholder is left when the last value of the
// variable is removed from a span.
func (s *CodingService) Delete(ctx context.Context, check, id string) error {
	sess, err := s.active(check)
	if err != nil {
		return err
	}
	change, err := sess.manager.Delete(id, s.settings.EditMode)
	if err != nil {
		return err
	}
	return s.publish(ctx, sess, change, false)
}

// Answer stores the answer to a question, applies the branching rules and
// moves on to the next relevant question. The unit is done when none
// remains. An answer that cannot be stored in full changes nothing.
func (s *CodingService) Answer(ctx context.Context, check string, question int, answer domain.Answer) (*driving.Progress, error) {
	sess, err := s.active(check)
	if err != nil {
		return nil, err
	}

	questions := sess.evaluator.Questions()
	if question < 0 || question >= len(questions) {
		return nil, fmt.Errorf("%w: question %d out of range", domain.ErrInvalidInput, question)
	}
	answer = withTarget(questions[question], answer)
	if err := checkSpanAnswer(answer); err != nil {
		return nil, err
	}

	records := answers.ToAnnotations(answer, sess.manager.Library().Export())
	result := sess.evaluator.Sync(answers.FromAnnotations(questions, records), records)
	if len(result.Changed) > 0 {
		logger.Debug("unit %s: branching changed questions %v", sess.unitID, result.Changed)
	}

	change, _, err := sess.manager.Reconcile(result.Records)
	if err != nil {
		logger.Warn("unit %s: answer to question %d not stored: %v", sess.unitID, question, err)
		return nil, err
	}

	// Report what was stored, as the next Open would see it.
	given := answers.FromAnnotations(questions, change.Library.Export())
	progress := &driving.Progress{
		Answers:    given,
		Irrelevant: sess.evaluator.Irrelevant(given),
		Status:     domain.UnitStatusDone,
	}
	if next, ok := branching.Next(progress.Irrelevant, question); ok {
		progress.Next = &next
		progress.Status = domain.UnitStatusInProgress
	}

	s.mu.Lock()
	statusChanged := sess.status != progress.Status
	sess.status = progress.Status
	s.mu.Unlock()

	return progress, s.publish(ctx, sess, change, statusChanged)
}

// Export returns the active unit's annotations in wire format.
func (s *CodingService) Export(_ context.Context) ([]domain.WireAnnotation, error) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil {
		return nil, domain.ErrNoActiveUnit
	}
	return sess.manager.Library().Export(), nil
}

// ValidRelations lists the relations that may be created between the
// annotations at two token positions.
func (s *CodingService) ValidRelations(_ context.Context, fromToken, toToken int) ([]domain.RelationOption, error) {
	s.mu.Lock()
	sess := s.session
	s.mu.Unlock()
	if sess == nil {
		return nil, domain.ErrNoActiveUnit
	}
	return sess.manager.Library().ValidRelations(fromToken, toToken, sess.rules), nil
}

// active returns the open session if check identifies it.
func (s *CodingService) active(check string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, domain.ErrNoActiveUnit
	}
	if check != s.session.check {
		logger.Warn("rejecting request for a stale load of unit %s", s.session.unitID)
		return nil, fmt.Errorf("%w: unit %s was reopened", domain.ErrStaleUnit, s.session.unitID)
	}
	return s.session, nil
}

// publish hands the exported annotations to the sink. The change stays
// applied when the sink fails.
func (s *CodingService) publish(ctx context.Context, sess *session, change *manager.Change, force bool) error {
	if s.sink == nil || change == nil {
		return nil
	}
	if !change.Changed() && !force {
		return nil
	}

	s.mu.Lock()
	status := sess.status
	s.mu.Unlock()

	if err := s.sink.PostAnnotations(ctx, sess.unitID, change.Library.Export(), status); err != nil {
		logger.Error("posting annotations for unit %s: %v", sess.unitID, err)
		return fmt.Errorf("posting annotations: %w", err)
	}
	return nil
}

// snapshot describes the session's current library.
func (sess *session) snapshot() *driving.Session {
	records := sess.manager.Library().Export()
	given := answers.FromAnnotations(sess.evaluator.Questions(), records)
	return &driving.Session{
		UnitID:      sess.unitID,
		Check:       sess.check,
		Tokens:      sess.tokens,
		Annotations: records,
		Answers:     given,
		Irrelevant:  sess.evaluator.Irrelevant(given),
		Status:      sess.status,
		Report:      sess.report,
	}
}

// checkSpanAnswer rejects answers that would code one span with several
// values of the same variable.
func checkSpanAnswer(a domain.Answer) error {
	if a.Offset == nil {
		return nil
	}
	for _, item := range a.Items {
		n := 0
		for _, v := range item.Values {
			if v != "" {
				n++
			}
		}
		if n > 1 {
			return fmt.Errorf("%w: %s takes one value per span, got %d",
				domain.ErrInvalidInput, domain.ItemVariable(a.Variable, item.Item), n)
		}
	}
	return nil
}

// withTarget names the answer after its question and copies the
// question's target onto it.
func withTarget(q domain.Question, a domain.Answer) domain.Answer {
	blank := answers.Blank(q)
	a.Variable = blank.Variable
	a.Field, a.Offset, a.Length = blank.Field, blank.Offset, blank.Length
	if len(a.Items) == 0 {
		a.Items = blank.Items
	}
	return a
}
