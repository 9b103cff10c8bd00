package quotes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/equitysim/paper-trading/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client fetches quotes from an HTTP provider exposing
// GET {base_url}/stock/{symbol}/quote.
type Client struct {
	client  *resty.Client
	token   string
	logger  *zap.Logger
	limiter *rate.Limiter
}

var _ Service = (*Client)(nil)

// NewClient creates a rate-limited quote client.
func NewClient(cfg *config.Quotes, logger *zap.Logger) *Client {
	return &Client{
		client:  resty.New().SetBaseURL(cfg.BaseURL),
		token:   cfg.Token,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
	}
}

type quoteResponse struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	LatestPrice float64 `json:"latestPrice"`
}

// Lookup resolves a symbol to its current quote. A 404 from the provider is
// returned as ErrNotFound; other provider failures are generic errors.
func (c *Client) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Quote{}, ErrNotFound
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Quote{}, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&quoteResponse{}).
		SetQueryParam("token", c.token).
		Get("/stock/" + url.PathEscape(symbol) + "/quote")
	if err != nil {
		c.logger.Error("Quote request failed", zap.String("symbol", symbol), zap.Error(err))
		return Quote{}, fmt.Errorf("failed to look up quote: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return Quote{}, ErrNotFound
	}
	if resp.IsError() {
		c.logger.Error("Quote provider error",
			zap.String("symbol", symbol), zap.Int("status", resp.StatusCode()))
		return Quote{}, fmt.Errorf("quote provider returned status %d", resp.StatusCode())
	}

	result := resp.Result().(*quoteResponse)
	return Quote{
		Symbol: symbol,
		Name:   result.CompanyName,
		Price:  decimal.NewFromFloat(result.LatestPrice),
	}, nil
}
