package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"papertrade/internal/config"
)

const (
	requestTimeout  = 10 * time.Second
	cacheExpiration = 5 * time.Minute
)

// ErrUnknownSymbol is returned when the quote source has no data for a symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Quote is the current market data for one symbol.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Source resolves a ticker symbol to its current quote.
type Source interface {
	Lookup(ctx context.Context, symbol string) (*Quote, error)
}

// Client is a quote Source backed by the Alpha Vantage GLOBAL_QUOTE endpoint,
// with an optional redis cache in front of it.
type Client struct {
	client  *resty.Client
	apiKey  string
	cache   *redis.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ Source = (*Client)(nil)

// NewClient creates a new quote client. cache may be nil to disable caching.
func NewClient(cfg *config.Quote, cache *redis.Client, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(requestTimeout)

	// Client-side rate limiting: the free quote API tier is easily exhausted.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		apiKey:  cfg.ApiKey,
		cache:   cache,
		logger:  logger,
		limiter: limiter,
	}
}

// globalQuoteResponse represents the Alpha Vantage GLOBAL_QUOTE payload.
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
}

// Lookup resolves the current price and display name for a symbol.
// A symbol the source does not know yields ErrUnknownSymbol; transport and
// malformed-data failures surface as ordinary errors.
func (c *Client) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	symbol = normalizeSymbol(symbol)

	if q, ok := c.cachedQuote(ctx, symbol); ok {
		return q, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var result globalQuoteResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   symbol,
			"apikey":   c.apiKey,
		}).
		SetResult(&result).
		Get("/query")
	if err != nil {
		c.logger.Error("Quote lookup failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("quote request failed with status %s: %s", resp.Status(), resp.String())
	}

	// Alpha Vantage answers unknown symbols with 200 and an empty quote.
	if result.GlobalQuote.Price == "" {
		return nil, ErrUnknownSymbol
	}

	price, err := decimal.NewFromString(result.GlobalQuote.Price)
	if err != nil {
		return nil, fmt.Errorf("malformed price %q for %s: %w", result.GlobalQuote.Price, symbol, err)
	}

	q := &Quote{
		Symbol: symbol,
		Name:   displayName(symbol),
		Price:  price,
	}

	c.storeQuote(ctx, q)
	c.logger.Debug("Quote resolved", zap.String("symbol", q.Symbol), zap.String("price", q.Price.String()))
	return q, nil
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("quote:%s", symbol)
}

func (c *Client) cachedQuote(ctx context.Context, symbol string) (*Quote, bool) {
	if c.cache == nil {
		return nil, false
	}

	data, err := c.cache.Get(ctx, cacheKey(symbol)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Quote cache read failed", zap.String("symbol", symbol), zap.Error(err))
		}
		return nil, false
	}

	var q Quote
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		c.logger.Warn("Discarding malformed cached quote", zap.String("symbol", symbol), zap.Error(err))
		return nil, false
	}
	return &q, true
}

func (c *Client) storeQuote(ctx context.Context, q *Quote) {
	if c.cache == nil {
		return
	}

	data, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cacheKey(q.Symbol), data, cacheExpiration).Err(); err != nil {
		// A dead cache only costs extra lookups.
		c.logger.Warn("Quote cache write failed", zap.String("symbol", q.Symbol), zap.Error(err))
	}
}
