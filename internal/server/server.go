package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagnerlima/algolab/internal/repository"
	"github.com/wagnerlima/algolab/internal/tools"
)

// New creates a fully configured MCP server with all tools registered.
func New(deps repository.Deps, version string) *mcp.Server {
	at := &tools.AlgorithmTools{
		Lists:      repository.NewListRepository(deps),
		Details:    repository.NewDetailsRepository(deps),
		Results:    repository.NewResultRepository(deps),
		Downloaded: deps.Store.Scripts().Exists,
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "algolab",
		Version: version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_algorithms",
		Description: "List available algorithms. Downloaded ones come first; offline only downloaded ones are listed",
	}, at.ListAlgorithms)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_algorithm",
		Description: "Get an algorithm's description, parameters and outputs",
	}, at.GetAlgorithm)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "download_algorithm",
		Description: "Download an algorithm and its script for offline execution",
	}, at.DownloadAlgorithm)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_algorithm",
		Description: "Delete a downloaded algorithm and its script",
	}, at.DeleteAlgorithm)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "run_algorithm",
		Description: "Run an algorithm with text inputs; runs locally when offline and downloaded",
	}, at.RunAlgorithm)

	return srv
}
