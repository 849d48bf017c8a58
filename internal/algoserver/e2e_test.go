package algoserver_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/algolab/internal/algoserver"
	"github.com/wagnerlima/algolab/internal/connectivity"
	"github.com/wagnerlima/algolab/internal/executor"
	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/remote"
	"github.com/wagnerlima/algolab/internal/repository"
	"github.com/wagnerlima/algolab/internal/result"
	"github.com/wagnerlima/algolab/internal/storage"
	"github.com/wagnerlima/algolab/internal/value"
)

type stack struct {
	probe   *connectivity.Static
	store   *storage.Store
	list    *repository.ListRepository
	details *repository.DetailsRepository
	results *repository.ResultRepository
}

func newStack(t *testing.T) *stack {
	t.Helper()

	catalogDir := t.TempDir()
	for _, f := range []string{"sum.yaml", "sum.go", "divide.yaml", "divide.go"} {
		data, err := os.ReadFile(filepath.Join("testdata", "catalog", f))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(catalogDir, f), data, 0o644))
	}
	catalog, err := algoserver.LoadCatalog(catalogDir)
	require.NoError(t, err)
	srv := httptest.NewServer(algoserver.NewServer(catalog, executor.Config{}, "", nil).Handler())
	t.Cleanup(srv.Close)

	client, err := remote.NewClient(remote.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := &stack{probe: connectivity.NewStatic(true), store: store}
	deps := repository.Deps{
		API:      client,
		Store:    store,
		Probe:    s.probe,
		Executor: executor.NewBridge(executor.NewYaegi(store.Scripts(), "", nil), executor.Config{}, nil),
	}
	s.list = repository.NewListRepository(deps)
	s.details = repository.NewDetailsRepository(deps)
	s.results = repository.NewResultRepository(deps)
	return s
}

func outcome[T any](t *testing.T, s result.Stream[T]) result.Result[T] {
	t.Helper()
	r, ok := result.Outcome(result.Collect(s))
	require.True(t, ok)
	return r
}

func TestRoundTripOnlineAndOffline(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	list := outcome(t, s.list.List(ctx))
	require.Equal(t, result.KindSuccess, list.Kind)
	require.Len(t, list.Data, 2)

	details := outcome(t, s.details.Get(ctx, "sum"))
	require.Equal(t, result.KindSuccess, details.Kind)
	assert.Equal(t, "Sum", details.Data.Title)

	params := models.DataValueList{Parameters: []models.DataValue{
		{Name: "xs", Value: value.List(value.Int(1), value.Int(2), value.Int(3))},
		{Name: "scale", Value: value.Float(0.5)},
	}}
	online := outcome(t, s.results.Run(ctx, "sum", params))
	require.Equal(t, result.KindSuccess, online.Kind, online.Message)

	dl := outcome(t, s.details.Download(ctx, "sum"))
	require.Equal(t, result.KindSuccess, dl.Kind, dl.Message)
	assert.True(t, s.store.Scripts().Exists("sum"))

	s.probe.Set(false)

	list = outcome(t, s.list.List(ctx))
	require.Equal(t, result.KindSuccess, list.Kind)
	require.Len(t, list.Data, 1)
	assert.True(t, list.Data[0].IsDownloaded)

	offline := outcome(t, s.results.Run(ctx, "sum", params))
	require.Equal(t, result.KindSuccess, offline.Kind, offline.Message)
	require.Len(t, offline.Data, len(online.Data))
	for i := range online.Data {
		assert.Equal(t, online.Data[i].Name, offline.Data[i].Name)
		assert.True(t, online.Data[i].Value.Equal(offline.Data[i].Value), "%s: %v != %v",
			online.Data[i].Name, online.Data[i].Value, offline.Data[i].Value)
	}
}

func TestUnknownAlgorithmIsHTTPError(t *testing.T) {
	s := newStack(t)
	r := outcome(t, s.details.Get(context.Background(), "nope"))
	assert.Equal(t, result.KindError, r.Kind)
	assert.Equal(t, "HttpException: loading algorithms", r.Message)
}

func TestRemoteScriptErrorCarriesMessage(t *testing.T) {
	s := newStack(t)
	params := models.DataValueList{Parameters: []models.DataValue{
		{Name: "a", Value: value.Float(1)},
		{Name: "b", Value: value.Float(0)},
	}}
	r := outcome(t, s.results.Run(context.Background(), "divide", params))
	assert.Equal(t, result.KindError, r.Kind)
	assert.Contains(t, r.Message, "division by zero")
	assert.Empty(t, r.Data)
}
