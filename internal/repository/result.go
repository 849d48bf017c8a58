package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/wagnerlima/algolab/internal/executor"
	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/remote"
	"github.com/wagnerlima/algolab/internal/result"
)

// ResultRepository executes algorithms, remotely when possible.
type ResultRepository struct {
	deps Deps
}

// NewResultRepository returns a ResultRepository over deps.
func NewResultRepository(deps Deps) *ResultRepository {
	return &ResultRepository{deps: deps}
}

// Run executes name with params and emits its outputs. Offline the
// downloaded script is run by the local executor.
func (r *ResultRepository) Run(ctx context.Context, name string, params models.DataValueList) result.Stream[[]models.DataValue] {
	return result.Flow(ctx, func(ctx context.Context, emit result.Emitter[[]models.DataValue]) {
		ctx, span, log := r.deps.begin(ctx, "repository.Run", name)
		defer span.End()

		if !r.deps.online(ctx, span) {
			outputs, err := r.runLocal(ctx, name, params.Parameters)
			if err != nil {
				emit(result.Error[[]models.DataValue](resultMessage(fail(span, log, err, opResult), err)))
				return
			}
			log.Debug("executed locally", zap.Int("outputs", len(outputs)))
			emit(result.Success(outputs))
			return
		}

		resp, err := r.deps.API.RunAlgorithm(ctx, name, params)
		if err != nil {
			emit(result.Error[[]models.DataValue](resultMessage(fail(span, log, err, opResult), err)))
			return
		}
		outputs := resp.OutputsOrEmpty()
		if msg := resp.ErrorText(); msg != "" {
			emit(result.ErrorWith(msg, outputs))
			return
		}
		emit(result.Success(outputs))
	})
}

func (r *ResultRepository) runLocal(ctx context.Context, name string, inputs []models.DataValue) ([]models.DataValue, error) {
	if r.deps.Executor == nil {
		return nil, &executor.ExecutionError{Name: name, Err: errors.New("local execution is not configured")}
	}
	return r.deps.Executor.Execute(ctx, name, inputs)
}

// resultMessage renders failures of Run. Execution failures and
// unclassified errors carry the underlying message.
func resultMessage(described string, err error) string {
	var execErr *executor.ExecutionError
	if errors.As(err, &execErr) {
		return "ExecutionError: " + opResult + ". " + execErr.Error()
	}
	if remote.Classify(err) == remote.KindUnknown {
		return described + ". " + err.Error()
	}
	return described
}
