package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ragmcp/internal/domain"
	"ragmcp/internal/service"
)

// QueryInput is the input schema shared by both tools.
type QueryInput struct {
	Query         string  `json:"query" jsonschema:"the question to search for"`
	TopK          int     `json:"topK,omitempty" jsonschema:"number of chunks to retrieve (default 5)"`
	MinSimilarity float64 `json:"minSimilarity,omitempty" jsonschema:"minimum cosine similarity between 0 and 1"`
}

func (in QueryInput) request() service.QueryRequest {
	return service.QueryRequest{Query: in.Query, TopK: in.TopK, MinSimilarity: in.MinSimilarity}
}

// SearchOutput is the output schema for rag_search.
type SearchOutput struct {
	Results []service.Hit `json:"results"`
	Count   int           `json:"count"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rag_query",
		Description: "Query the RAG knowledge base: retrieve relevant chunks and generate an answer with sources",
	}, s.handleQuery)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "rag_search",
		Description: "Return the chunks most similar to a query without generating an answer",
	}, s.handleSearch)
}

func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, domain.RagResponse, error) {
	resp, err := s.rag.Query(ctx, input.request())
	if err != nil {
		return nil, domain.RagResponse{}, err
	}
	return textResult(service.FormatResponse(resp)), resp, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.rag.Retrieve(ctx, input.request())
	if err != nil {
		return nil, SearchOutput{}, err
	}
	hits := service.Hits(results)
	return textResult(service.FormatHits(hits)), SearchOutput{Results: hits, Count: len(hits)}, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}
