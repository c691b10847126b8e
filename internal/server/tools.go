package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragmcp/internal/service"
)

type toolCall struct {
	Tool      string         `json:"tool" binding:"required"`
	Arguments map[string]any `json:"arguments"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var queryInputSchema = gin.H{
	"type": "object",
	"properties": gin.H{
		"query":         gin.H{"type": "string", "description": "The question to search for"},
		"topK":          gin.H{"type": "number", "description": "Number of results (default: 5)"},
		"minSimilarity": gin.H{"type": "number", "description": "Minimum cosine similarity between 0 and 1"},
	},
	"required": []string{"query"},
}

func (s *Server) handleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": []gin.H{
		{
			"name":        "rag_query",
			"description": "Query the RAG knowledge base and generate an answer",
			"inputSchema": queryInputSchema,
		},
		{
			"name":        "rag_search",
			"description": "Return the chunks most similar to a query without generating an answer",
			"inputSchema": queryInputSchema,
		},
	}})
}

func (s *Server) handleCallTool(c *gin.Context) {
	var call toolCall
	if err := c.ShouldBindJSON(&call); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'tool' field"})
		return
	}

	query, _ := call.Arguments["query"].(string)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'query' argument"})
		return
	}
	req := service.QueryRequest{Query: query}
	if v, ok := numberArg(call.Arguments["topK"]); ok {
		req.TopK = int(v)
	}
	if v, ok := numberArg(call.Arguments["minSimilarity"]); ok {
		req.MinSimilarity = v
	}

	var text string
	switch call.Tool {
	case "rag_query":
		resp, err := s.rag.Query(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		text = service.FormatResponse(resp)
	case "rag_search":
		results, err := s.rag.Retrieve(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		text = service.FormatHits(service.Hits(results))
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Tool '" + call.Tool + "' not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": []textContent{{Type: "text", Text: text}}})
}
