// Package session holds the observable state behind the list and details
// screens of a client and drives the repositories for them.
package session

import (
	"context"
	"sync"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/result"
)

// Notifier receives short user-facing messages such as "Algorithm
// downloaded".
type Notifier func(message string)

// ListSource produces the algorithm list.
type ListSource interface {
	List(ctx context.Context) result.Stream[[]models.Algorithm]
}

// ListState is a snapshot of a ListSession.
type ListState struct {
	IsLoading    bool
	ErrorMessage string
	Algorithms   []models.Algorithm
}

// ListSession holds the algorithm list.
type ListSession struct {
	source   ListSource
	onChange func(ListState)

	mu    sync.Mutex
	state ListState
	run   runner
}

// NewList returns a ListSession over source. onChange, if set, is called
// with every new state.
func NewList(source ListSource, onChange func(ListState)) *ListSession {
	return &ListSession{source: source, onChange: onChange}
}

// State returns the current state.
func (s *ListSession) State() ListState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Algorithms = append([]models.Algorithm(nil), s.state.Algorithms...)
	return st
}

// Refresh reloads the list. A running refresh is cancelled.
func (s *ListSession) Refresh(ctx context.Context) {
	s.run.launch(ctx, "list", func(ctx context.Context) {
		for r := range s.source.List(ctx) {
			s.update(ctx, func(st *ListState) {
				switch r.Kind {
				case result.KindLoading:
					st.IsLoading = r.IsLoading
				case result.KindError:
					st.ErrorMessage = r.Message
					st.IsLoading = false
				case result.KindSuccess:
					st.Algorithms = r.Data
					st.ErrorMessage = ""
				}
			})
		}
	})
}

// Wait blocks until the current refresh has finished.
func (s *ListSession) Wait() { s.run.wait() }

// Close cancels any running refresh.
func (s *ListSession) Close() { s.run.stop() }

func (s *ListSession) update(ctx context.Context, fn func(*ListState)) {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	fn(&s.state)
	st := s.state
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(st)
	}
}
