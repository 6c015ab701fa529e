// Package fmp is a client of the Financial Modeling Prep REST API
// (company profile and annual income statements).
package fmp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/moat/backend/pkg/config"
	"github.com/wonny/moat/backend/pkg/httputil"
	"github.com/wonny/moat/backend/pkg/logger"
	"github.com/wonny/moat/backend/pkg/redis"
)

// Errors
var (
	ErrNoAPIKey = errors.New("fmp: api key not configured")
	ErrNotFound = errors.New("fmp: symbol not found")
)

// Client handles communication with Financial Modeling Prep
// ⭐ SSOT: FMP API 호출은 이 클라이언트에서만
type Client struct {
	httpClient  *httputil.Client
	logger      *logger.Logger
	baseURL     string
	apiKey      string
	growthYears int
	cache       *redis.Cache // income statements; nil = no caching
}

// NewClient creates a new FMP client
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg config.FMPConfig) *Client {
	years := cfg.GrowthYears
	if years < 2 {
		years = 4
	}
	return &Client{
		httpClient:  httpClient,
		logger:      log.WithField("source", "fmp"),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		growthYears: years,
	}
}

// WithCache caches income statements (annual data, TTLLong)
func (c *Client) WithCache(cache *redis.Cache) *Client {
	c.cache = cache
	return c
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Profile is the subset of /api/v3/profile used here
type Profile struct {
	Symbol      string   `json:"symbol"`
	CompanyName string   `json:"companyName"`
	Beta        *float64 `json:"beta"`
	Sector      string   `json:"sector"`
	Industry    string   `json:"industry"`
	Price       float64  `json:"price"`
	MktCap      float64  `json:"mktCap"`
}

// IncomeStatement is the subset of /api/v3/income-statement used here
type IncomeStatement struct {
	Date         string  `json:"date"`
	Symbol       string  `json:"symbol"`
	CalendarYear string  `json:"calendarYear"`
	Revenue      float64 `json:"revenue"`
}

// Profile fetches the company profile
func (c *Client) Profile(ctx context.Context, ticker string) (*Profile, error) {
	var profiles []Profile
	if err := c.get(ctx, "/api/v3/profile/"+url.PathEscape(strings.ToUpper(ticker)), nil, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	return &profiles[0], nil
}

// IncomeStatements returns the latest annual income statements (newest first)
func (c *Client) IncomeStatements(ctx context.Context, ticker string, limit int) ([]IncomeStatement, error) {
	if c.cache == nil {
		return c.fetchIncomeStatements(ctx, ticker, limit)
	}
	return redis.GetOrSet(ctx, c.cache, redis.IncomeKey(ticker, limit), redis.TTLLong, func() ([]IncomeStatement, error) {
		return c.fetchIncomeStatements(ctx, ticker, limit)
	})
}

func (c *Client) fetchIncomeStatements(ctx context.Context, ticker string, limit int) ([]IncomeStatement, error) {
	params := url.Values{}
	params.Set("period", "annual")
	params.Set("limit", strconv.Itoa(limit))

	var statements []IncomeStatement
	if err := c.get(ctx, "/api/v3/income-statement/"+url.PathEscape(strings.ToUpper(ticker)), params, &statements); err != nil {
		return nil, err
	}
	if len(statements) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	return statements, nil
}

// AvgRevenueGrowth fetches income statements and averages year-over-year revenue growth
func (c *Client) AvgRevenueGrowth(ctx context.Context, ticker string) (float64, bool, error) {
	statements, err := c.IncomeStatements(ctx, ticker, c.growthYears)
	if err != nil {
		return 0, false, err
	}

	growth, ok := AvgRevenueGrowth(statements)
	c.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"statements": len(statements),
		"growth":     growth,
		"ok":         ok,
	}).Debug("Computed average revenue growth")

	return growth, ok, nil
}

// AvgRevenueGrowth averages year-over-year growth of statements ordered newest first.
// Pairs where either revenue is non-positive (FMP reporting gap) are skipped;
// false when no pair is usable.
func AvgRevenueGrowth(statements []IncomeStatement) (float64, bool) {
	sum := 0.0
	n := 0
	for i := 0; i+1 < len(statements); i++ {
		cur, prev := statements[i].Revenue, statements[i+1].Revenue
		if cur <= 0 || prev <= 0 {
			continue
		}
		sum += cur/prev - 1
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// get performs an authenticated GET and decodes JSON into dest
func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if !c.Enabled() {
		return ErrNoAPIKey
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	if err := c.httpClient.GetJSON(ctx, fullURL, dest); err != nil {
		return fmt.Errorf("fmp %s: %w", path, err)
	}
	return nil
}
