package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/ports/driven"
)

// Ensure Sink implements the interface.
var _ driven.AnnotationSink = (*Sink)(nil)

// Post is one delivery received by a Sink.
type Post struct {
	UnitID  string
	Records []domain.WireAnnotation
	Status  domain.UnitStatus
}

// Sink is an AnnotationSink that keeps every delivery in memory.
type Sink struct {
	mu    sync.Mutex
	posts []Post
	err   error
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// FailWith makes every following delivery return err. A nil err
// restores normal operation.
func (s *Sink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// PostAnnotations records a delivery.
func (s *Sink) PostAnnotations(_ context.Context, unitID string, records []domain.WireAnnotation, status domain.UnitStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.posts = append(s.posts, Post{UnitID: unitID, Records: slices.Clone(records), Status: status})
	return nil
}

// Posts returns the deliveries received so far.
func (s *Sink) Posts() []Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.posts)
}

// Last returns the most recent delivery.
func (s *Sink) Last() (Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.posts) == 0 {
		return Post{}, false
	}
	return s.posts[len(s.posts)-1], true
}
