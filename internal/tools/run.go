package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/algolab/internal/value"
)

type RunAlgorithmInput struct {
	Name   string            `json:"name" jsonschema:"Algorithm name as returned by list_algorithms"`
	Inputs map[string]string `json:"inputs" jsonschema:"Parameter values as text keyed by parameter name. Lists are comma separated, matrices use ; between rows (e.g. 1,2;3,4)"`
}

type outputView struct {
	Name  string      `json:"name"`
	Title string      `json:"title"`
	Value value.Value `json:"value"`
}

func (t *AlgorithmTools) RunAlgorithm(ctx context.Context, _ *mcp.CallToolRequest, input RunAlgorithmInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolError("Algorithm name is required"), nil, nil
	}

	ds, toasts := t.open(input.Name)
	defer ds.Close()
	ds.Load(ctx)
	ds.Wait()
	if msg := ds.State().ErrorMessage; msg != "" {
		return toolError("Failed to get algorithm: %s", msg), nil, nil
	}

	if err := ds.Execute(ctx, input.Inputs); err != nil {
		return toolError("Invalid inputs: %v", err), nil, nil
	}
	ds.Wait()
	if !toasts.empty() {
		return toolError("%s", toasts.text()), nil, nil
	}

	st := ds.State()
	outputs := make([]outputView, 0, len(st.Details.Outputs))
	for _, o := range st.Details.Outputs {
		if !o.Value.IsSet() {
			continue
		}
		outputs = append(outputs, outputView{Name: o.Name, Title: o.Title, Value: o.Value})
	}
	return toolJSON(outputs)
}
