package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/algolab/internal/algoserver"
	"github.com/wagnerlima/algolab/internal/connectivity"
	"github.com/wagnerlima/algolab/internal/executor"
	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/remote"
	"github.com/wagnerlima/algolab/internal/repository"
	"github.com/wagnerlima/algolab/internal/server"
	"github.com/wagnerlima/algolab/internal/storage"
)

// setupIntegration starts a reference algorithm server, builds a real MCP
// server over it with in-memory transport and returns a connected client
// session and the connectivity switch.
func setupIntegration(t *testing.T) (*mcp.ClientSession, *connectivity.Static, func()) {
	t.Helper()

	catalogDir, err := os.MkdirTemp("", "algolab-catalog-*")
	if err != nil {
		t.Fatal(err)
	}
	fixtures := filepath.Join("internal", "algoserver", "testdata", "catalog")
	entries, err := os.ReadDir(fixtures)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(fixtures, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(catalogDir, e.Name()), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	catalog, err := algoserver.LoadCatalog(catalogDir)
	if err != nil {
		t.Fatal(err)
	}
	api := httptest.NewServer(algoserver.NewServer(catalog, executor.Config{}, "", nil).Handler())

	dataDir, err := os.MkdirTemp("", "algolab-integration-*")
	if err != nil {
		t.Fatal(err)
	}
	store, err := storage.Open(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	client, err := remote.NewClient(remote.Config{BaseURL: api.URL})
	if err != nil {
		t.Fatal(err)
	}

	probe := connectivity.NewStatic(true)
	srv := server.New(repository.Deps{
		API:      client,
		Store:    store,
		Probe:    probe,
		Executor: executor.NewBridge(executor.NewYaegi(store.Scripts(), "", nil), executor.Config{}, nil),
	}, "test")

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	if _, err := srv.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}

	mc := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := mc.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}

	cleanup := func() {
		session.Close()
		store.Close()
		api.Close()
		os.RemoveAll(dataDir)
		os.RemoveAll(catalogDir)
	}
	return session, probe, cleanup
}

// callTool is a helper that calls a tool and returns the text content.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) returned error: %s", name, tc.Text)
	}
	return tc.Text
}

// callToolExpectError calls a tool and expects an error response (IsError=true).
func callToolExpectError(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): protocol error: %v", name, err)
	}
	tc := result.Content[0].(*mcp.TextContent)
	if !result.IsError {
		t.Fatalf("CallTool(%s): expected error but got success: %s", name, tc.Text)
	}
	return tc.Text
}

type output struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

func TestIntegration_ListTools(t *testing.T) {
	session, _, cleanup := setupIntegration(t)
	defer cleanup()

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}

	expectedTools := []string{
		"list_algorithms", "get_algorithm", "download_algorithm",
		"delete_algorithm", "run_algorithm",
	}

	toolNames := make(map[string]bool)
	for _, tool := range result.Tools {
		toolNames[tool.Name] = true
	}
	for _, name := range expectedTools {
		if !toolNames[name] {
			t.Errorf("Missing tool: %s", name)
		}
	}
	if len(result.Tools) != len(expectedTools) {
		t.Errorf("Expected %d tools, got %d", len(expectedTools), len(result.Tools))
	}
}

func TestIntegration_FullWorkflow(t *testing.T) {
	session, probe, cleanup := setupIntegration(t)
	defer cleanup()

	// Step 1: list online
	text := callTool(t, session, "list_algorithms", nil)
	var list []models.Algorithm
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		t.Fatalf("parse list_algorithms: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 algorithms, got %d", len(list))
	}

	// Step 2: details
	text = callTool(t, session, "get_algorithm", map[string]any{"name": "sum"})
	var details struct {
		Title        string               `json:"title"`
		Parameters   []models.DataElement `json:"parameters"`
		IsDownloaded bool                 `json:"is_downloaded"`
	}
	if err := json.Unmarshal([]byte(text), &details); err != nil {
		t.Fatalf("parse get_algorithm: %v", err)
	}
	if details.Title != "Sum" {
		t.Errorf("title = %q, want %q", details.Title, "Sum")
	}
	if len(details.Parameters) != 2 {
		t.Errorf("expected 2 parameters, got %d", len(details.Parameters))
	}
	if details.IsDownloaded {
		t.Error("sum should not be downloaded yet")
	}

	// Step 3: run remotely
	inputs := map[string]any{"xs": "1,2,3", "scale": "0.25"}
	text = callTool(t, session, "run_algorithm", map[string]any{"name": "sum", "inputs": inputs})
	var outputs []output
	if err := json.Unmarshal([]byte(text), &outputs); err != nil {
		t.Fatalf("parse run_algorithm: %v", err)
	}
	if len(outputs) != 2 || outputs[0].Name != "total" || string(outputs[0].Value) != "1.5" {
		t.Fatalf("unexpected outputs: %s", text)
	}

	// Step 4: download, twice
	text = callTool(t, session, "download_algorithm", map[string]any{"name": "sum"})
	if text != repository.MsgDownloaded {
		t.Errorf("download = %q, want %q", text, repository.MsgDownloaded)
	}
	text = callToolExpectError(t, session, "download_algorithm", map[string]any{"name": "sum"})
	if text != repository.MsgAlreadyDownloaded {
		t.Errorf("second download = %q, want %q", text, repository.MsgAlreadyDownloaded)
	}

	// Step 5: go offline and run locally
	probe.Set(false)
	text = callTool(t, session, "list_algorithms", nil)
	list = nil
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		t.Fatalf("parse offline list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "sum" || !list[0].IsDownloaded {
		t.Errorf("offline list = %s", text)
	}

	text = callTool(t, session, "run_algorithm", map[string]any{"name": "sum", "inputs": inputs})
	outputs = nil
	if err := json.Unmarshal([]byte(text), &outputs); err != nil {
		t.Fatalf("parse offline run: %v", err)
	}
	if len(outputs) != 2 || string(outputs[0].Value) != "1.5" || string(outputs[1].Value) != "3" {
		t.Errorf("offline outputs: %s", text)
	}

	text = callToolExpectError(t, session, "get_algorithm", map[string]any{"name": "divide"})
	if !strings.Contains(text, repository.MsgNotDownloaded) {
		t.Errorf("offline get divide = %q", text)
	}

	// Step 6: delete
	text = callTool(t, session, "delete_algorithm", map[string]any{"name": "sum"})
	if text != "sum deleted successfully" {
		t.Errorf("delete = %q", text)
	}
	text = callToolExpectError(t, session, "delete_algorithm", map[string]any{"name": "sum"})
	if text != repository.MsgIsNotDownloaded {
		t.Errorf("second delete = %q, want %q", text, repository.MsgIsNotDownloaded)
	}
}

func TestIntegration_Validation(t *testing.T) {
	session, _, cleanup := setupIntegration(t)
	defer cleanup()

	text := callToolExpectError(t, session, "run_algorithm", map[string]any{
		"name":   "sum",
		"inputs": map[string]any{"xs": "1,2"},
	})
	if !strings.Contains(text, "All fields should be filled") {
		t.Errorf("missing field = %q", text)
	}

	text = callToolExpectError(t, session, "run_algorithm", map[string]any{
		"name":   "sum",
		"inputs": map[string]any{"xs": "1,x", "scale": "1"},
	})
	if !strings.HasPrefix(text, "Invalid inputs:") {
		t.Errorf("bad list = %q", text)
	}

	text = callToolExpectError(t, session, "run_algorithm", map[string]any{
		"name":   "divide",
		"inputs": map[string]any{"a": "1", "b": "0"},
	})
	if !strings.Contains(text, "division by zero") {
		t.Errorf("script error = %q", text)
	}

	text = callToolExpectError(t, session, "get_algorithm", map[string]any{"name": "nope"})
	if !strings.Contains(text, "HttpException") {
		t.Errorf("unknown algorithm = %q", text)
	}
}
