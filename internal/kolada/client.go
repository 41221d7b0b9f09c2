// Package kolada implements the HTTP client for the Kolada v2 API.
//
// The client follows next_page pagination, retries transient failures with
// exponential backoff, and rate-limits outgoing requests. Client errors
// (4xx) are never retried; server errors and network failures are retried a
// bounded number of times and then surfaced as ErrUpstream or
// ErrUpstreamTimeout.
package kolada

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/ekdahl/kolada-mcp/internal/catalog"
	"github.com/ekdahl/kolada-mcp/internal/log"
)

var (
	// ErrUpstream indicates the Kolada API failed after bounded retries.
	ErrUpstream = errors.New("kolada upstream error")

	// ErrUpstreamTimeout indicates the Kolada API did not respond in time.
	// The caller may retry the whole operation.
	ErrUpstreamTimeout = errors.New("kolada upstream timeout")
)

// Observation is a single indicator value for one municipality, period, and
// gender dimension. A nil Value models a genuinely missing observation and
// must never be treated as zero.
type Observation struct {
	KPIID          string   `json:"kpi_id"`
	MunicipalityID string   `json:"municipality_id"`
	Period         int      `json:"period"`
	Gender         string   `json:"gender"`
	Value          *float64 `json:"value"`
	Count          int      `json:"count"`
}

// apiResponse is the generic paginated envelope returned by every Kolada
// endpoint.
type apiResponse struct {
	Count    int               `json:"count"`
	Values   []json.RawMessage `json:"values"`
	NextPage string            `json:"next_page"`
}

// kpiRecord mirrors the /kpi payload.
type kpiRecord struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	OperatingArea string `json:"operating_area"`
	Unit          string `json:"unit"`
}

// municipalityRecord mirrors the /municipality payload.
type municipalityRecord struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// dataPoint mirrors the nested /data payload.
type dataPoint struct {
	KPI          string `json:"kpi"`
	Municipality string `json:"municipality"`
	Period       int    `json:"period"`
	Values       []struct {
		Gender string   `json:"gender"`
		Value  *float64 `json:"value"`
		Count  int      `json:"count"`
	} `json:"values"`
}

// Config holds client tunables.
type Config struct {
	BaseURL        string
	PageSize       int
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RateLimit      float64 // requests per second; 0 disables limiting
	HTTPClient     *http.Client
}

// Client fetches metadata and observations from the Kolada API.
// Safe for concurrent use.
type Client struct {
	baseURL    string
	pageSize   int
	maxRetries int
	baseDelay  time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     log.Logger
}

// New creates a Kolada API client.
func New(cfg Config, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	baseDelay := cfg.RetryBaseDelay
	if baseDelay == 0 {
		baseDelay = time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		pageSize:   cfg.PageSize,
		maxRetries: cfg.MaxRetries,
		baseDelay:  baseDelay,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}
}

// FetchKPIs loads the full indicator metadata listing.
func (c *Client) FetchKPIs(ctx context.Context) ([]catalog.KPI, error) {
	raw, err := c.fetchAllPages(ctx, c.pagedURL("/kpi"))
	if err != nil {
		return nil, err
	}

	kpis := make([]catalog.KPI, 0, len(raw))
	for _, msg := range raw {
		var rec kpiRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("%w: decoding kpi record: %v", ErrUpstream, err)
		}
		kpis = append(kpis, catalog.KPI{
			ID:            rec.ID,
			Title:         rec.Title,
			Description:   rec.Description,
			OperatingArea: rec.OperatingArea,
			Unit:          rec.Unit,
		})
	}
	return kpis, nil
}

// FetchMunicipalities loads the full municipality listing.
func (c *Client) FetchMunicipalities(ctx context.Context) ([]catalog.Municipality, error) {
	raw, err := c.fetchAllPages(ctx, c.pagedURL("/municipality"))
	if err != nil {
		return nil, err
	}

	muns := make([]catalog.Municipality, 0, len(raw))
	for _, msg := range raw {
		var rec municipalityRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			return nil, fmt.Errorf("%w: decoding municipality record: %v", ErrUpstream, err)
		}
		muns = append(muns, catalog.Municipality{ID: rec.ID, Title: rec.Title, Type: rec.Type})
	}
	return muns, nil
}

// FetchObservations loads observations for one indicator across the given
// municipalities, optionally restricted to specific years. The nested
// per-gender values are flattened into one Observation per
// (municipality, period, gender).
func (c *Client) FetchObservations(ctx context.Context, kpiID string, municipalityIDs []string, years []int) ([]Observation, error) {
	raw, err := c.fetchAllPages(ctx, c.dataURL(kpiID, municipalityIDs, years))
	if err != nil {
		return nil, err
	}

	var obs []Observation
	for _, msg := range raw {
		var dp dataPoint
		if err := json.Unmarshal(msg, &dp); err != nil {
			return nil, fmt.Errorf("%w: decoding data point: %v", ErrUpstream, err)
		}
		for _, v := range dp.Values {
			obs = append(obs, Observation{
				KPIID:          dp.KPI,
				MunicipalityID: dp.Municipality,
				Period:         dp.Period,
				Gender:         v.Gender,
				Value:          v.Value,
				Count:          v.Count,
			})
		}
	}
	return obs, nil
}

func (c *Client) pagedURL(path string) string {
	u := c.baseURL + path
	if c.pageSize > 0 {
		u += "?per_page=" + strconv.Itoa(c.pageSize)
	}
	return u
}

func (c *Client) dataURL(kpiID string, municipalityIDs []string, years []int) string {
	u := fmt.Sprintf("%s/data/kpi/%s/municipality/%s",
		c.baseURL, url.PathEscape(kpiID), strings.Join(municipalityIDs, ","))
	if len(years) > 0 {
		ys := make([]string, len(years))
		for i, y := range years {
			ys[i] = strconv.Itoa(y)
		}
		u += "/year/" + strings.Join(ys, ",")
	}
	return u
}

// fetchAllPages follows next_page links, guarding against pagination loops.
func (c *Client) fetchAllPages(ctx context.Context, startURL string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	visited := make(map[string]bool)
	current := startURL

	for current != "" && !visited[current] {
		visited[current] = true

		page, err := c.fetchWithRetry(ctx, current)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Values...)

		current = page.NextPage
		if current != "" {
			c.logger.Debug("following next page", "url", current)
		}
	}
	return all, nil
}

// fetchWithRetry performs one GET with bounded exponential-backoff retries.
// 4xx responses are permanent; 5xx and transport errors retry.
func (c *Client) fetchWithRetry(ctx context.Context, u string) (*apiResponse, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.baseDelay

	operation := func() (*apiResponse, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		return c.fetchOnce(ctx, u)
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
		backoff.WithNotify(func(err error, d time.Duration) {
			c.logger.Warn("retrying kolada request", "url", u, "delay", d, "error", err)
		}),
	)
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}

func (c *Client) fetchOnce(ctx context.Context, u string) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err // transport error: retryable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		// Drain so the connection can be reused across retries.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("server error: status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, backoff.Permanent(fmt.Errorf("client error: status %d", resp.StatusCode))
	}

	var page apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return &page, nil
}

// classify maps a transport-level failure onto the package error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
