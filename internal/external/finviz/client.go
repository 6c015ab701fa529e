// Package finviz scrapes the Finviz quote page snapshot table.
package finviz

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/moat/backend/pkg/config"
	"github.com/wonny/moat/backend/pkg/httputil"
	"github.com/wonny/moat/backend/pkg/logger"
)

// ErrFieldMissing is returned when the snapshot table lacks a field (or shows "-")
var ErrFieldMissing = errors.New("finviz: field not available")

// Client handles communication with Finviz
// ⭐ SSOT: Finviz 스크래핑은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	enabled    bool
}

// NewClient creates a new Finviz client
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg config.FinvizConfig) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithField("source", "finviz"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		enabled:    cfg.Enabled,
	}
}

// Enabled reports whether scraping is allowed
func (c *Client) Enabled() bool {
	return c.enabled
}

// Snapshot fetches the quote page and returns the snapshot table as label → text
func (c *Client) Snapshot(ctx context.Context, ticker string) (map[string]string, error) {
	if !c.enabled {
		return nil, errors.New("finviz: disabled")
	}

	params := url.Values{}
	params.Set("t", strings.ToUpper(ticker))
	fullURL := fmt.Sprintf("%s/quote.ashx?%s", c.baseURL, params.Encode())

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("finviz quote %s: %w", ticker, err)
	}

	snapshot, err := parseSnapshot(string(body))
	if err != nil {
		return nil, fmt.Errorf("finviz quote %s: %w", ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"fields": len(snapshot),
	}).Debug("Parsed snapshot table")
	return snapshot, nil
}

// Beta returns the beta shown on the quote page
func (c *Client) Beta(ctx context.Context, ticker string) (float64, error) {
	snapshot, err := c.Snapshot(ctx, ticker)
	if err != nil {
		return 0, err
	}
	return numberField(snapshot, "Beta")
}

// parseSnapshot parses the quote snapshot table
// 구조: <td>라벨</td><td><b>값</b></td> 가 반복되는 테이블
func parseSnapshot(html string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tables := doc.Find("table.snapshot-table2")
	if tables.Length() == 0 {
		return nil, errors.New("snapshot table not found")
	}

	out := make(map[string]string)
	tables.First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		for i := 0; i+1 < cells.Length(); i += 2 {
			label := strings.TrimSpace(cells.Eq(i).Text())
			if label == "" {
				continue
			}
			out[label] = strings.TrimSpace(cells.Eq(i + 1).Text())
		}
	})

	if len(out) == 0 {
		return nil, errors.New("snapshot table is empty")
	}
	return out, nil
}

// numberField parses a numeric snapshot cell ("1.24", "12.5%", "-")
func numberField(snapshot map[string]string, label string) (float64, error) {
	raw, ok := snapshot[label]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrFieldMissing, label)
	}

	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	if s == "" || s == "-" {
		return 0, fmt.Errorf("%w: %s", ErrFieldMissing, label)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("finviz %s %q: %w", label, raw, err)
	}
	if pct {
		v /= 100
	}
	return v, nil
}
