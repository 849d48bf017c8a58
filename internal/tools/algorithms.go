package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/session"
)

// AlgorithmTools holds references needed by the algorithm tool handlers.
// Every call drives its own session so concurrent clients never share state.
type AlgorithmTools struct {
	Lists   session.ListSource
	Details session.DetailsSource
	Results session.ResultSource
	// Downloaded reports whether an algorithm is available offline.
	Downloaded func(name string) bool
}

// --- Input types ---

type AlgorithmInput struct {
	Name string `json:"name" jsonschema:"Algorithm name as returned by list_algorithms"`
}

// --- Output types ---

type algorithmView struct {
	models.AlgorithmDetailsResult
	IsDownloaded bool `json:"is_downloaded"`
}

// --- Handlers ---

func (t *AlgorithmTools) ListAlgorithms(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	ls := session.NewList(t.Lists, nil)
	defer ls.Close()
	ls.Refresh(ctx)
	ls.Wait()

	st := ls.State()
	if st.ErrorMessage != "" {
		return toolError("Failed to list algorithms: %s", st.ErrorMessage), nil, nil
	}
	algorithms := st.Algorithms
	if algorithms == nil {
		algorithms = []models.Algorithm{}
	}
	return toolJSON(algorithms)
}

func (t *AlgorithmTools) GetAlgorithm(ctx context.Context, _ *mcp.CallToolRequest, input AlgorithmInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Algorithm name is required"), nil, nil
	}

	ds, _ := t.open(input.Name)
	defer ds.Close()
	ds.Load(ctx)
	ds.Wait()

	st := ds.State()
	if st.ErrorMessage != "" {
		return toolError("Failed to get algorithm: %s", st.ErrorMessage), nil, nil
	}
	return toolJSON(algorithmView{AlgorithmDetailsResult: st.Details, IsDownloaded: st.IsDownloaded})
}

func (t *AlgorithmTools) DownloadAlgorithm(ctx context.Context, _ *mcp.CallToolRequest, input AlgorithmInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Algorithm name is required"), nil, nil
	}

	ds, toasts := t.open(input.Name)
	defer ds.Close()
	ds.Download(ctx)
	ds.Wait()

	if !ds.State().Changed {
		return toolError("%s", toasts.text()), nil, nil
	}
	return toolText(toasts.text()), nil, nil
}

func (t *AlgorithmTools) DeleteAlgorithm(ctx context.Context, _ *mcp.CallToolRequest, input AlgorithmInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Algorithm name is required"), nil, nil
	}

	ds, toasts := t.open(input.Name)
	defer ds.Close()
	ds.Delete(ctx)
	ds.Wait()

	if !ds.State().Changed {
		return toolError("%s", toasts.text()), nil, nil
	}
	return toolText(toasts.text()), nil, nil
}

// open returns a details session for name whose notifications are collected.
func (t *AlgorithmTools) open(name string) (*session.DetailsSession, *toasts) {
	msgs := &toasts{}
	ds := session.NewDetails(session.DetailsConfig{
		Name:       name,
		Details:    t.Details,
		Results:    t.Results,
		Downloaded: t.Downloaded,
		Notify:     msgs.add,
	})
	return ds, msgs
}

type toasts struct {
	mu   sync.Mutex
	msgs []string
}

func (c *toasts) add(msg string) {
	c.mu.Lock()
	c.msgs = append(c.msgs, msg)
	c.mu.Unlock()
}

func (c *toasts) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.msgs, "\n")
}

func (c *toasts) empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.msgs) == 0
}

// --- Helpers ---

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
