package openai

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

func TestNewClient_RequiresKey(t *testing.T) {
	t.Setenv("RAGMCP_TEST_EMPTY_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "RAGMCP_TEST_EMPTY_KEY"})
	assert.ErrorContains(t, err, "RAGMCP_TEST_EMPTY_KEY")
}

func TestEmbed_BatchInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"first", "second"}, req.Input)
		assert.Equal(t, DefaultModel, req.Model)

		// out of order on purpose
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	t.Setenv("RAGMCP_TEST_KEY", "sk-test")
	c, err := NewClient(Config{BaseURL: srv.URL + "/v1", APIKeyEnv: "RAGMCP_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, 1536, c.Dimension())
	assert.Equal(t, DefaultModel, c.ModelName())

	vecs, err := c.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, vecs)
}

func TestEmbed_LearnsUnknownDimension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,2,3]}]}`))
	}))
	defer srv.Close()

	t.Setenv("RAGMCP_TEST_KEY", "k")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "RAGMCP_TEST_KEY", Model: "custom"})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Dimension())

	_, err = c.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 3, c.Dimension())
}

func TestEmbed_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, domain.ErrProviderRejected},
		{"empty data", http.StatusOK, `{"data":[]}`, domain.ErrProviderRejected},
		{"server error", http.StatusInternalServerError, `oops`, domain.ErrProviderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			t.Setenv("RAGMCP_TEST_KEY", "k")
			c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "RAGMCP_TEST_KEY"})
			require.NoError(t, err)
			_, err = c.Embed(context.Background(), []string{"x"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
