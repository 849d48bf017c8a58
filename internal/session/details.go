package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/parse"
	"github.com/wagnerlima/algolab/internal/result"
)

// MsgFillAllFields is reported when Execute is called with a parameter left
// empty.
const MsgFillAllFields = "All fields should be filled"

// DetailsSource loads, downloads and deletes one algorithm.
type DetailsSource interface {
	Get(ctx context.Context, name string) result.Stream[models.AlgorithmDetailsResult]
	Download(ctx context.Context, name string) result.Stream[string]
	Delete(ctx context.Context, name string) result.Stream[string]
}

// ResultSource executes algorithms.
type ResultSource interface {
	Run(ctx context.Context, name string, params models.DataValueList) result.Stream[[]models.DataValue]
}

// DetailsState is a snapshot of a DetailsSession. Changed flips on every
// successful download or delete so observers can refresh the list.
type DetailsState struct {
	IsLoading    bool
	IsDownloaded bool
	ErrorMessage string
	Details      models.AlgorithmDetailsResult
	Changed      bool
}

// DetailsSession holds the details of one algorithm and runs it.
type DetailsSession struct {
	name     string
	details  DetailsSource
	results  ResultSource
	notify   Notifier
	onChange func(DetailsState)

	mu    sync.Mutex
	state DetailsState
	run   runner
}

// DetailsConfig wires a DetailsSession.
type DetailsConfig struct {
	Name    string
	Details DetailsSource
	Results ResultSource
	// Downloaded reports whether the script of Name is on disk.
	Downloaded func(name string) bool
	Notify     Notifier
	OnChange   func(DetailsState)
}

// NewDetails returns a session for cfg.Name. It does not load anything;
// call Load.
func NewDetails(cfg DetailsConfig) *DetailsSession {
	s := &DetailsSession{
		name:     cfg.Name,
		details:  cfg.Details,
		results:  cfg.Results,
		notify:   cfg.Notify,
		onChange: cfg.OnChange,
	}
	if cfg.Downloaded != nil {
		s.state.IsDownloaded = cfg.Downloaded(cfg.Name)
	}
	s.state.Details = models.AlgorithmDetailsResult{Parameters: []models.DataElement{}, Outputs: []models.DataElement{}}
	return s
}

// Name returns the algorithm name of the session.
func (s *DetailsSession) Name() string { return s.name }

// State returns the current state. The element slices are copies.
func (s *DetailsSession) State() DetailsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Details = s.state.Details.Clone()
	return st
}

// Wait blocks until all running operations have finished.
func (s *DetailsSession) Wait() { s.run.wait() }

// Close cancels running operations.
func (s *DetailsSession) Close() { s.run.stop() }

// Load fetches the details.
func (s *DetailsSession) Load(ctx context.Context) {
	s.run.launch(ctx, "load", func(ctx context.Context) {
		for r := range s.details.Get(ctx, s.name) {
			s.update(ctx, func(st *DetailsState) {
				switch r.Kind {
				case result.KindLoading:
					st.IsLoading = r.IsLoading
				case result.KindError:
					if r.Message != "" {
						st.ErrorMessage = r.Message
					}
					st.IsLoading = false
				case result.KindSuccess:
					st.Details = r.Data.Clone()
				}
			})
		}
	})
}

// Execute parses inputs, keyed by parameter name, and runs the algorithm.
// Input errors are returned and reported to the Notifier before anything is
// sent; execution results land in the output elements.
func (s *DetailsSession) Execute(ctx context.Context, inputs map[string]string) error {
	params, err := s.prepare(inputs)
	if err != nil {
		s.toast(err.Error())
		return err
	}

	s.run.launch(ctx, "execute", func(ctx context.Context) {
		for r := range s.results.Run(ctx, s.name, params) {
			var msg string
			s.update(ctx, func(st *DetailsState) {
				switch r.Kind {
				case result.KindLoading:
					st.IsLoading = r.IsLoading
				case result.KindError:
					msg = r.Message
					st.IsLoading = false
				case result.KindSuccess:
					fillOutputs(st.Details.Outputs, r.Data)
				}
			})
			if msg != "" {
				s.toast(msg)
			}
		}
	})
	return nil
}

// prepare validates and parses every parameter and stores the typed values
// on the elements.
func (s *DetailsSession) prepare(inputs map[string]string) (models.DataValueList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	params := append([]models.DataElement(nil), s.state.Details.Parameters...)
	for _, p := range params {
		if inputs[p.Name] == "" {
			return models.DataValueList{}, errors.New(MsgFillAllFields)
		}
	}

	values := make([]models.DataValue, 0, len(params))
	for i := range params {
		v, err := parse.Parse(inputs[params[i].Name], params[i].DataShape, params[i].DataType)
		if err != nil {
			return models.DataValueList{}, err
		}
		params[i].Value = v
		values = append(values, params[i].ToDataValue())
	}
	s.state.Details.Parameters = params
	return models.DataValueList{Parameters: values}, nil
}

func fillOutputs(outputs []models.DataElement, values []models.DataValue) {
	for _, dv := range values {
		for i := range outputs {
			if outputs[i].Name == dv.Name {
				outputs[i].Value = dv.Value
				break
			}
		}
	}
}

// Download stores the algorithm for offline use.
func (s *DetailsSession) Download(ctx context.Context) {
	s.action(ctx, "download", s.details.Download, true)
}

// Delete removes the downloaded copy.
func (s *DetailsSession) Delete(ctx context.Context) {
	s.action(ctx, "delete", s.details.Delete, false)
}

func (s *DetailsSession) action(ctx context.Context, key string, op func(context.Context, string) result.Stream[string], downloaded bool) {
	s.run.launch(ctx, key, func(ctx context.Context) {
		for r := range op(ctx, s.name) {
			var msg string
			s.update(ctx, func(st *DetailsState) {
				switch r.Kind {
				case result.KindLoading:
					st.IsLoading = r.IsLoading
				case result.KindError:
					msg = r.Message
					st.IsLoading = false
				case result.KindSuccess:
					if r.Data != "" {
						msg = r.Data
						st.IsDownloaded = downloaded
						st.Changed = !st.Changed
					}
				}
			})
			if msg != "" {
				s.toast(msg)
			}
		}
	})
}

func (s *DetailsSession) toast(msg string) {
	if s.notify != nil && strings.TrimSpace(msg) != "" {
		s.notify(msg)
	}
}

func (s *DetailsSession) update(ctx context.Context, fn func(*DetailsState)) {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	fn(&s.state)
	st := s.state
	st.Details = s.state.Details.Clone()
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(st)
	}
}
