// Package repository decides, per operation, whether to serve algorithms
// from the remote API or from the local cache and interpreter. Every
// operation returns a result.Stream: Loading(true), one Success or Error,
// then Loading(false).
package repository

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wagnerlima/algolab/internal/connectivity"
	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/remote"
	"github.com/wagnerlima/algolab/internal/storage"
)

// User-facing messages.
const (
	MsgNoDataOffline     = "No internet connection and no local data available"
	MsgNotDownloaded     = "Algorithm wasn't downloaded"
	MsgAlreadyDownloaded = "Algorithm already downloaded."
	MsgCouldNotDownload  = "Couldn't download"
	MsgDownloaded        = "Algorithm downloaded"
	MsgIsNotDownloaded   = "Algorithm isn't downloaded"
	MsgNoInternet        = "No internet connection"
)

const (
	opLoading = "loading algorithms"
	opResult  = "getting result"
	opDelete  = "deleting algorithm"
)

var tracer = otel.Tracer("algolab/repository")

// API is the subset of the remote client the repositories use.
type API interface {
	ListAlgorithms(ctx context.Context) ([]models.Algorithm, error)
	GetAlgorithmDetails(ctx context.Context, name string) (*models.AlgorithmDetails, error)
	RunAlgorithm(ctx context.Context, name string, params models.DataValueList) (*models.AlgorithmResponse, error)
	OpenScript(ctx context.Context, name string) (io.ReadCloser, error)
}

// Executor runs downloaded algorithms locally.
type Executor interface {
	Execute(ctx context.Context, name string, inputs []models.DataValue) ([]models.DataValue, error)
	Forget(name string)
}

// Deps are the collaborators shared by all repositories.
type Deps struct {
	API      API
	Store    *storage.Store
	Probe    connectivity.Probe
	Executor Executor
	Logger   *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// begin opens the span of one operation and returns a logger tagged with a
// fresh operation id.
func (d Deps) begin(ctx context.Context, op, name string) (context.Context, trace.Span, *zap.Logger) {
	id := uuid.NewString()
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("algolab.op_id", id),
		attribute.String("algolab.algorithm", name),
	))
	log := d.logger().With(zap.String("op", op), zap.String("op_id", id))
	if name != "" {
		log = log.With(zap.String("algorithm", name))
	}
	return ctx, span, log
}

func (d Deps) online(ctx context.Context, span trace.Span) bool {
	online := d.Probe != nil && d.Probe.Online(ctx)
	span.SetAttributes(attribute.Bool("algolab.online", online))
	return online
}

// fail records err on the span and returns the classified message for op.
func fail(span trace.Span, log *zap.Logger, err error, op string) string {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	msg := remote.Describe(err, op)
	log.Warn("operation failed", zap.String("message", msg), zap.Error(err))
	return msg
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
