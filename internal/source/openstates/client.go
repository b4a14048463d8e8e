package openstates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"littlebird/internal/domain"
)

const (
	SourceID   = "openstates"
	SourceName = "Open States"

	apiKeyHeader = "X-API-KEY"
	apiKeyParam  = "apikey"

	// maxErrorBody caps how much of a failed response is kept on the error.
	maxErrorBody = 4096
)

// Config holds Open States client configuration.
type Config struct {
	BaseURL        string
	APIKey         string
	KeyInQuery     bool
	Jurisdiction   string
	PageSize       int
	MaxPages       int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client fetches bills and people from the Open States v3 API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	keyInQuery     bool
	jurisdiction   string
	pageSize       int
	maxPages       int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		keyInQuery:     cfg.KeyInQuery,
		jurisdiction:   cfg.Jurisdiction,
		pageSize:       cfg.PageSize,
		maxPages:       cfg.MaxPages,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

func (c *Client) ID() string {
	return SourceID
}

func (c *Client) Name() string {
	return SourceName
}

// FetchBills lists bills with their sponsorships and abstracts.
func (c *Client) FetchBills(ctx context.Context, q domain.SyncQuery) ([]domain.Bill, error) {
	records, err := c.listBills(ctx, q)
	if err != nil {
		return nil, err
	}

	bills := make([]domain.Bill, 0, len(records))
	for _, r := range records {
		bills = append(bills, TransformBill(r))
	}
	return bills, nil
}

// FetchSponsorships lists bills and flattens their sponsorships.
func (c *Client) FetchSponsorships(ctx context.Context, q domain.SyncQuery) ([]domain.Sponsorship, error) {
	records, err := c.listBills(ctx, q)
	if err != nil {
		return nil, err
	}

	var sponsorships []domain.Sponsorship
	for _, r := range records {
		sponsorships = append(sponsorships, TransformSponsorships(r)...)
	}
	return sponsorships, nil
}

func (c *Client) FetchLegislators(ctx context.Context, q domain.SyncQuery) ([]domain.Legislator, error) {
	params := c.listParams(q)

	raws, err := c.listAll(ctx, "/people", params, q.MaxPages)
	if err != nil {
		return nil, err
	}

	legislators := make([]domain.Legislator, 0, len(raws))
	for _, raw := range raws {
		var rec PersonRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			// Keep the row so the reconciler counts it as a failure.
			c.logger.Warn("failed to decode person", "error", err)
		}
		rec.raw = raw
		legislators = append(legislators, TransformLegislator(rec))
	}
	return legislators, nil
}

func (c *Client) listBills(ctx context.Context, q domain.SyncQuery) ([]BillRecord, error) {
	params := c.listParams(q)
	if q.Session != "" {
		params.Set("session", q.Session)
	}
	params.Set("sort", "updated_desc")
	params.Add("include", "sponsorships")
	params.Add("include", "abstracts")

	raws, err := c.listAll(ctx, "/bills", params, q.MaxPages)
	if err != nil {
		return nil, err
	}

	records := make([]BillRecord, 0, len(raws))
	for _, raw := range raws {
		var rec BillRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			c.logger.Warn("failed to decode bill", "error", err)
		}
		rec.raw = raw
		records = append(records, rec)
	}
	return records, nil
}

func (c *Client) listParams(q domain.SyncQuery) url.Values {
	params := url.Values{}
	jurisdiction := q.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = c.jurisdiction
	}
	if jurisdiction != "" {
		params.Set("jurisdiction", jurisdiction)
	}
	if q.Query != "" {
		params.Set("q", q.Query)
	}
	params.Set("per_page", strconv.Itoa(c.pageSize))
	return params
}

// listAll walks pages starting at 1. Every page must succeed; a failure on
// any page discards everything fetched so far.
func (c *Client) listAll(ctx context.Context, endpoint string, params url.Values, maxPages int) ([]json.RawMessage, error) {
	if maxPages <= 0 {
		maxPages = c.maxPages
	}

	var all []json.RawMessage
	for page := 1; page <= maxPages; page++ {
		params.Set("page", strconv.Itoa(page))

		body, err := c.Fetch(ctx, endpoint, params)
		if err != nil {
			return nil, fmt.Errorf("fetch %s page %d: %w", endpoint, page, err)
		}

		results, pagination, err := decodePage(body)
		if err != nil {
			return nil, fmt.Errorf("decode %s page %d: %w", endpoint, page, err)
		}

		all = append(all, results...)

		c.logger.Debug("fetched page",
			"endpoint", endpoint,
			"page", page,
			"records", len(results),
			"total", len(all),
		)

		if pagination == nil || page >= pagination.MaxPage {
			break
		}
	}

	return all, nil
}

// decodePage accepts the documented envelope and, for older endpoints, a
// bare array of records.
func decodePage(body []byte) ([]json.RawMessage, *Pagination, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var results []json.RawMessage
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return nil, nil, err
		}
		return results, nil, nil
	}

	var resp ListResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, nil, err
	}
	return resp.Results, resp.Pagination, nil
}

// Fetch performs a GET against endpoint and returns the body. Non-success
// statuses become *domain.UpstreamError; 429, 5xx and transport errors are
// retried with exponential backoff.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	reqURL := c.buildURL(endpoint, params)

	var body []byte
	var err error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		body, err = c.doRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		var upstreamErr *domain.UpstreamError
		if errors.As(err, &upstreamErr) && !upstreamErr.Retryable() {
			return nil, err
		}

		if attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"endpoint", endpoint,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if c.maxAttempts > 1 {
		return nil, fmt.Errorf("after %d attempts: %w", c.maxAttempts, err)
	}
	return nil, err
}

func (c *Client) buildURL(endpoint string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	if c.keyInQuery {
		q.Set(apiKeyParam, c.apiKey)
	}

	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if encoded := q.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "LittleBird/1.0")
	if !c.keyInQuery {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(text),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}
