package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/result"
	"github.com/wagnerlima/algolab/internal/storage"
)

// DetailsRepository loads, downloads and deletes single algorithms.
type DetailsRepository struct {
	deps Deps
}

// NewDetailsRepository returns a DetailsRepository over deps.
func NewDetailsRepository(deps Deps) *DetailsRepository {
	return &DetailsRepository{deps: deps}
}

// Get emits the details of name. Online the remote copy is authoritative
// and refreshes an already downloaded copy; offline only downloaded
// algorithms are available.
func (r *DetailsRepository) Get(ctx context.Context, name string) result.Stream[models.AlgorithmDetailsResult] {
	return result.Flow(ctx, func(ctx context.Context, emit result.Emitter[models.AlgorithmDetailsResult]) {
		ctx, span, log := r.deps.begin(ctx, "repository.GetDetails", name)
		defer span.End()

		if !r.deps.online(ctx, span) {
			e, err := r.deps.Store.GetAlgorithm(ctx, name)
			if isNotFound(err) {
				emit(result.Error[models.AlgorithmDetailsResult](MsgNotDownloaded))
				return
			}
			if err != nil {
				emit(result.Error[models.AlgorithmDetailsResult](fail(span, log, err, opLoading)))
				return
			}
			details, err := e.ToDetails()
			if err != nil {
				emit(result.Error[models.AlgorithmDetailsResult](fail(span, log, err, opLoading)))
				return
			}
			emit(result.Success(details))
			return
		}

		resp, err := r.deps.API.GetAlgorithmDetails(ctx, name)
		if err != nil {
			emit(result.Error[models.AlgorithmDetailsResult](fail(span, log, err, opLoading)))
			return
		}
		details := resp.DetailsOrEmpty()
		if msg := resp.ErrorText(); msg != "" {
			emit(result.ErrorWith(msg, details))
			return
		}

		if details.Name != name {
			log.Warn("details returned for another algorithm", zap.String("returned", details.Name))
			emit(result.Success(details))
			return
		}

		// Write-through only refreshes rows that already exist.
		rows, err := storage.DataFromDetails(details)
		if err != nil {
			emit(result.Error[models.AlgorithmDetailsResult](fail(span, log, err, opLoading)))
			return
		}
		updated, err := r.deps.Store.UpdateAlgorithm(ctx, storage.InfoFromDetails(details), rows)
		if err != nil {
			emit(result.Error[models.AlgorithmDetailsResult](fail(span, log, err, opLoading)))
			return
		}
		log.Debug("details fetched", zap.Bool("refreshed_local", updated))
		emit(result.Success(details))
	})
}

// Download stores the details and script of name for offline use.
func (r *DetailsRepository) Download(ctx context.Context, name string) result.Stream[string] {
	return result.Flow(ctx, func(ctx context.Context, emit result.Emitter[string]) {
		ctx, span, log := r.deps.begin(ctx, "repository.Download", name)
		defer span.End()

		if !r.deps.online(ctx, span) {
			emit(result.Error[string](MsgNoInternet))
			return
		}

		_, err := r.deps.Store.GetAlgorithm(ctx, name)
		if err == nil {
			emit(result.Error[string](MsgAlreadyDownloaded))
			return
		}
		if !isNotFound(err) {
			emit(result.Error[string](fail(span, log, err, opLoading)))
			return
		}

		resp, err := r.deps.API.GetAlgorithmDetails(ctx, name)
		if err != nil {
			emit(result.Error[string](fail(span, log, err, opLoading)))
			return
		}
		if msg := resp.ErrorText(); msg != "" {
			emit(result.ErrorWith(msg, MsgCouldNotDownload))
			return
		}
		details := resp.DetailsOrEmpty()
		// Rows are keyed by the returned name and the script by name.
		if details.Name != name {
			log.Warn("details returned for another algorithm", zap.String("returned", details.Name))
			emit(result.Error[string](MsgCouldNotDownload))
			return
		}

		rows, err := storage.DataFromDetails(details)
		if err != nil {
			emit(result.Error[string](fail(span, log, err, opLoading)))
			return
		}
		err = r.deps.Store.InsertAlgorithm(ctx, storage.InfoFromDetails(details), rows)
		if errors.Is(err, storage.ErrAlreadyExists) {
			emit(result.Error[string](MsgAlreadyDownloaded))
			return
		}
		if err != nil {
			emit(result.Error[string](fail(span, log, err, opLoading)))
			return
		}

		r.downloadScript(ctx, name, log)
		log.Info("algorithm downloaded", zap.Int("rows", len(rows)))
		emit(result.Success(MsgDownloaded))
	})
}

// downloadScript fetches the script of name unless it is already on disk.
// Failures are logged only; the details stay downloaded.
func (r *DetailsRepository) downloadScript(ctx context.Context, name string, log *zap.Logger) {
	scripts := r.deps.Store.Scripts()
	if scripts.Exists(name) {
		log.Debug("script already exists", zap.String("path", scripts.Path(name)))
		return
	}

	body, err := r.deps.API.OpenScript(ctx, name)
	if err != nil {
		log.Error("error downloading script", zap.Error(err))
		return
	}
	defer body.Close()

	n, err := scripts.Write(name, body)
	if err != nil {
		log.Error("error saving script", zap.Error(err))
		return
	}
	log.Debug("script downloaded", zap.String("path", scripts.Path(name)), zap.Int64("bytes", n))
}

// Delete removes the downloaded copy of name: script files, cached rows and
// the interpreter state.
func (r *DetailsRepository) Delete(ctx context.Context, name string) result.Stream[string] {
	return result.Flow(ctx, func(ctx context.Context, emit result.Emitter[string]) {
		ctx, span, log := r.deps.begin(ctx, "repository.Delete", name)
		defer span.End()

		e, err := r.deps.Store.GetAlgorithm(ctx, name)
		if isNotFound(err) {
			emit(result.Error[string](MsgIsNotDownloaded))
			return
		}
		if err != nil {
			emit(result.Error[string](fail(span, log, err, opDelete)))
			return
		}

		r.deleteScript(name, log)
		if err := r.deps.Store.DeleteAlgorithm(ctx, e); err != nil {
			emit(result.Error[string](fail(span, log, err, opDelete)))
			return
		}
		if r.deps.Executor != nil {
			r.deps.Executor.Forget(name)
		}
		log.Info("algorithm deleted")
		emit(result.Success(e.Info.Name + " deleted successfully"))
	})
}

func (r *DetailsRepository) deleteScript(name string, log *zap.Logger) {
	res, err := r.deps.Store.Scripts().Remove(name)
	for _, p := range res.Removed {
		log.Debug("file deleted", zap.String("path", p))
	}
	for _, p := range res.Missing {
		log.Debug("file not found", zap.String("path", p))
	}
	if err != nil {
		log.Warn("could not delete script files", zap.Error(err))
	}
}
