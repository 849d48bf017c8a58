package repository

import (
	"context"

	"go.uber.org/zap"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/result"
)

// ListRepository serves the algorithm catalog.
type ListRepository struct {
	deps Deps
}

// NewListRepository returns a ListRepository over deps.
func NewListRepository(deps Deps) *ListRepository {
	return &ListRepository{deps: deps}
}

// List emits the downloaded algorithms merged with the remote catalog.
// Local entries come first and win on name clashes. Offline, the local
// entries alone are returned if there are any.
func (r *ListRepository) List(ctx context.Context) result.Stream[[]models.Algorithm] {
	return result.Flow(ctx, func(ctx context.Context, emit result.Emitter[[]models.Algorithm]) {
		ctx, span, log := r.deps.begin(ctx, "repository.List", "")
		defer span.End()

		infos, err := r.deps.Store.ListAlgorithmInfos(ctx)
		if err != nil {
			emit(result.Error[[]models.Algorithm](fail(span, log, err, opLoading)))
			return
		}
		local := make([]models.Algorithm, 0, len(infos))
		for _, info := range infos {
			local = append(local, info.ToAlgorithm())
		}

		if !r.deps.online(ctx, span) {
			if len(local) == 0 {
				emit(result.Error[[]models.Algorithm](MsgNoDataOffline))
				return
			}
			log.Debug("serving local list", zap.Int("count", len(local)))
			emit(result.Success(local))
			return
		}

		remoteList, err := r.deps.API.ListAlgorithms(ctx)
		if err != nil {
			emit(result.Error[[]models.Algorithm](fail(span, log, err, opLoading)))
			return
		}
		merged := Merge(local, remoteList)
		log.Debug("merged list", zap.Int("local", len(local)), zap.Int("remote", len(remoteList)), zap.Int("total", len(merged)))
		emit(result.Success(merged))
	})
}

// Merge returns local followed by the remote entries whose name is not
// already present. Remote entries are never marked downloaded.
func Merge(local, remote []models.Algorithm) []models.Algorithm {
	seen := make(map[string]bool, len(local)+len(remote))
	out := make([]models.Algorithm, 0, len(local)+len(remote))
	for _, a := range local {
		seen[a.Name] = true
		out = append(out, a)
	}
	for _, a := range remote {
		if seen[a.Name] {
			continue
		}
		seen[a.Name] = true
		a.IsDownloaded = false
		out = append(out, a)
	}
	return out
}
