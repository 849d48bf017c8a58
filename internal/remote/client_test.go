package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/value"
)

func mockServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for pattern, handler := range handlers {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: serverURL + "/", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestListAlgorithms(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /algorithms": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"algorithms": []map[string]any{
					{"name": "sum", "title": "Sum"},
					{"name": "avg", "title": "Average", "isDownloaded": false},
				},
			})
		},
	})

	got, err := newTestClient(t, srv.URL).ListAlgorithms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Algorithm{{Name: "sum", Title: "Sum"}, {Name: "avg", Title: "Average"}}, got)
}

func TestGetAlgorithmDetails(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /algorithms/{name}": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"result":{"name":%q,"title":"Sum","description":"",
				"parameters":[{"name":"xs","title":"Numbers","description":"","data_shape":"list","data_type":"int","default_value":[1,2]}],
				"outputs":[]},"errors":""}`, r.PathValue("name"))
		},
	})

	got, err := newTestClient(t, srv.URL).GetAlgorithmDetails(context.Background(), "sum")
	require.NoError(t, err)
	require.NotNil(t, got.Result)
	assert.Equal(t, "sum", got.Result.Name)
	assert.Equal(t, "", got.ErrorText())
	require.Len(t, got.Result.Parameters, 1)
	assert.True(t, got.Result.Parameters[0].DefaultValue.Equal(value.List(value.Int(1), value.Int(2))))
}

func TestRunAlgorithmSendsParameters(t *testing.T) {
	var body models.DataValueList
	srv := mockServer(t, map[string]http.HandlerFunc{
		"POST /algorithms/{name}": func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, http.StatusOK, map[string]any{
				"result": map[string]any{"outputs": []map[string]any{{"name": "total", "value": 3.0}}},
				"errors": "",
			})
		},
	})

	params := models.DataValueList{Parameters: []models.DataValue{{Name: "xs", Value: value.List(value.Int(1), value.Int(2))}}}
	resp, err := newTestClient(t, srv.URL).RunAlgorithm(context.Background(), "sum", params)
	require.NoError(t, err)

	require.Len(t, body.Parameters, 1)
	assert.Equal(t, "xs", body.Parameters[0].Name)
	outs := resp.OutputsOrEmpty()
	require.Len(t, outs, 1)
	assert.True(t, outs[0].Value.Equal(value.Float(3)))
}

func TestHTTPErrorCarriesMessage(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /algorithms/{name}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"result": nil, "errors": "Algorithm nope not found"})
		},
	})

	_, err := newTestClient(t, srv.URL).GetAlgorithmDetails(context.Background(), "nope")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Algorithm nope not found", apiErr.Message)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, KindHTTP, Classify(err))
}

func TestOpenScript(t *testing.T) {
	srv := mockServer(t, map[string]http.HandlerFunc{
		"GET /algorithms/{name}/download": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "package main\n")
		},
	})

	rc, err := newTestClient(t, srv.URL).OpenScript(context.Background(), "sum")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(data))
}

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := newTestClient(t, addr)
	_, err := c.ListAlgorithms(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindIO, Classify(err))
	assert.Equal(t, "IOException: loading algorithms", Describe(err, "loading algorithms"))

	garbage := mockServer(t, map[string]http.HandlerFunc{
		"GET /algorithms": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "{not json")
		},
	})
	_, err = newTestClient(t, garbage.URL).ListAlgorithms(context.Background())
	require.Error(t, err)
	assert.Equal(t, KindUnknown, Classify(err))
	assert.Equal(t, "Undefined Exception: getting result", Describe(err, "getting result"))

	assert.Equal(t, "HttpException: loading algorithms", Describe(&Error{StatusCode: 500}, "loading algorithms"))
}
