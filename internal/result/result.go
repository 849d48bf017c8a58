// Package result provides the tri-state envelope emitted by every
// asynchronous operation and the Flow helper that guarantees its ordering.
package result

import (
	"context"
	"fmt"
)

// Kind identifies the active variant of a Result.
type Kind uint8

const (
	KindLoading Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Result is one emission of an operation. Exactly one variant is active.
type Result[T any] struct {
	Kind      Kind
	IsLoading bool   // Loading only
	Data      T      // Success, optionally Error
	HasData   bool   // whether Data was provided
	Message   string // Error only
}

// Loading returns a loading-state emission.
func Loading[T any](flag bool) Result[T] {
	return Result[T]{Kind: KindLoading, IsLoading: flag}
}

// Success returns a success emission carrying data.
func Success[T any](data T) Result[T] {
	return Result[T]{Kind: KindSuccess, Data: data, HasData: true}
}

// Error returns an error emission without data.
func Error[T any](message string) Result[T] {
	return Result[T]{Kind: KindError, Message: message}
}

// ErrorWith returns an error emission carrying partial data.
func ErrorWith[T any](message string, data T) Result[T] {
	return Result[T]{Kind: KindError, Message: message, Data: data, HasData: true}
}

func (r Result[T]) String() string {
	switch r.Kind {
	case KindLoading:
		return fmt.Sprintf("Loading(%t)", r.IsLoading)
	case KindSuccess:
		return fmt.Sprintf("Success(%v)", r.Data)
	case KindError:
		return fmt.Sprintf("Error(%q)", r.Message)
	}
	return r.Kind.String()
}

// Stream is the ordered sequence of emissions of one operation. It is closed
// after the final Loading(false).
type Stream[T any] <-chan Result[T]

// Emitter sends one emission. It returns false once the consumer has gone
// away; later emissions are dropped.
type Emitter[T any] func(Result[T]) bool

// Flow runs body on its own goroutine and returns its emissions. Flow sends
// Loading(true) before body runs and Loading(false) after it returns, even if
// body panics; a panic is reported as an Error first. When ctx is cancelled
// pending and later emissions are dropped and the stream is closed.
func Flow[T any](ctx context.Context, body func(ctx context.Context, emit Emitter[T])) Stream[T] {
	ch := make(chan Result[T], 4)
	emit := func(r Result[T]) bool {
		if ctx.Err() != nil {
			return false
		}
		select {
		case ch <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(ch)
		defer emit(Loading[T](false))
		defer func() {
			if p := recover(); p != nil {
				emit(Error[T](fmt.Sprintf("Undefined Exception: %v", p)))
			}
		}()
		emit(Loading[T](true))
		body(ctx, emit)
	}()
	return ch
}

// Collect drains s into a slice. It is meant for tests and one-shot callers.
func Collect[T any](s Stream[T]) []Result[T] {
	var out []Result[T]
	for r := range s {
		out = append(out, r)
	}
	return out
}

// Outcome returns the Success or Error emission of a drained sequence and
// false if there is none.
func Outcome[T any](rs []Result[T]) (Result[T], bool) {
	for _, r := range rs {
		if r.Kind != KindLoading {
			return r, true
		}
	}
	return Result[T]{}, false
}
