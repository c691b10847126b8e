package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragmcp/internal/domain"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "Question: why?")
		_, _ = w.Write([]byte(`{"response":"Because.","done":true}`))
	}))
	defer srv.Close()

	g := New(Config{BaseURL: srv.URL})
	out, err := g.Generate(context.Background(), "why?", "some context")
	require.NoError(t, err)
	assert.Equal(t, "Because.", out)
	assert.Equal(t, "ollama:llama3.2", g.ModelName())
}

func TestGenerate_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"   "}`))
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).Generate(context.Background(), "q", "c")
	assert.ErrorIs(t, err, domain.ErrProviderRejected)

	srv.Close()
	_, err = New(Config{BaseURL: srv.URL}).Generate(context.Background(), "q", "c")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}
