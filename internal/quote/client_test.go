package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// setupTestServer creates a new test server and a Client configured to use it.
func setupTestServer(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	client := resty.New().SetBaseURL(server.URL)
	logger := zap.NewNop() // Use a no-op logger for tests

	c := &Client{
		client:  client,
		apiKey:  "test_api_key",
		logger:  logger,
		limiter: rate.NewLimiter(rate.Inf, 1), // Allow all requests in tests
	}

	return c, server
}

func TestLookup(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/query", r.URL.Path)
			assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
			assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
			assert.Equal(t, "test_api_key", r.URL.Query().Get("apikey"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "269.0000"}}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		// Act
		q, err := c.Lookup(context.Background(), "aapl")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "AAPL", q.Symbol)
		assert.Equal(t, "Apple Inc.", q.Name)
		assert.Equal(t, "269", q.Price.String())
	})

	t.Run("UnknownSymbol", func(t *testing.T) {
		// Alpha Vantage answers unknown symbols with 200 and an empty quote.
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"Global Quote": {}}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		q, err := c.Lookup(context.Background(), "NOSUCH")

		assert.ErrorIs(t, err, ErrUnknownSymbol)
		assert.Nil(t, q)
	})

	t.Run("APIError", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"msg": "internal error"}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		q, err := c.Lookup(context.Background(), "AAPL")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnknownSymbol)
		assert.Nil(t, q)
	})

	t.Run("MalformedPrice", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"Global Quote": {"01. symbol": "AAPL", "05. price": "not-a-number"}}`))
		})

		c, server := setupTestServer(handler)
		defer server.Close()

		q, err := c.Lookup(context.Background(), "AAPL")

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnknownSymbol)
		assert.Nil(t, q)
	})
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Tesla Inc.", displayName("TSLA"))
	assert.Equal(t, "XYZ Corporation", displayName("XYZ"))
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "MSFT", normalizeSymbol("  msft "))
}
