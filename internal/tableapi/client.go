// Package tableapi is a small client for PostgREST-style table APIs: each
// table is a resource supporting filtered select, insert, update and delete.
package tableapi

import (
	"bytes"
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
)

// ErrNotConfigured is returned by NewClient when no base URL is set.
var ErrNotConfigured = errors.New("table api base url not configured")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("table api returned %d: %s", e.Code, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	// APIKey is sent as both the apikey header and a bearer token. Never logged.
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to one table API endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a Client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{httpClient: httpClient, baseURL: base, apiKey: cfg.APIKey}, nil
}

// Filter is a single column condition.
type Filter struct {
	Column string
	Op     string // eq, neq, gt, gte, lt, lte, ilike
	Value  string
}

// Eq is shorthand for an equality filter.
func Eq(column, value string) Filter {
	return Filter{Column: column, Op: "eq", Value: value}
}

// ILike is a case-insensitive match on the whole value. LIKE wildcards in
// value are escaped. The API reads "*" as "%" even when escaped, so it is
// narrowed to a single-character match; callers needing exactness re-check.
func ILike(column, value string) Filter {
	return Filter{Column: column, Op: "ilike", Value: likeEscaper.Replace(value)}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `_`)

// Order sorts by one column.
type Order struct {
	Column     string
	Descending bool
}

// Query narrows a select, update or delete.
type Query struct {
	Where  []Filter
	Order  []Order
	Limit  int
	Offset int
}

func (q Query) values(selectCols bool) url.Values {
	v := url.Values{}
	if selectCols {
		v.Set("select", "*")
	}
	for _, f := range q.Where {
		v.Add(f.Column, f.Op+"."+f.Value)
	}
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "asc"
			if o.Descending {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		v.Set("order", strings.Join(parts, ","))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// Select decodes the matching rows of table into dest, which must be a
// pointer to a slice.
func (c *Client) Select(ctx context.Context, table string, q Query, dest any) error {
	resp, err := c.do(ctx, http.MethodGet, table, q.values(true), nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding %s rows: %w", table, err)
	}
	return nil
}

// Insert adds rows to table. rows may be a single object or a slice.
func (c *Client) Insert(ctx context.Context, table string, rows any) error {
	return c.write(ctx, http.MethodPost, table, url.Values{}, rows)
}

// Update applies patch to every row matching q.
func (c *Client) Update(ctx context.Context, table string, q Query, patch any) error {
	if len(q.Where) == 0 {
		return fmt.Errorf("update %s: refusing to update without a filter", table)
	}
	return c.write(ctx, http.MethodPatch, table, q.values(false), patch)
}

// Delete removes every row matching q.
func (c *Client) Delete(ctx context.Context, table string, q Query) error {
	if len(q.Where) == 0 {
		return fmt.Errorf("delete %s: refusing to delete without a filter", table)
	}
	resp, err := c.do(ctx, http.MethodDelete, table, q.values(false), nil, "")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) write(ctx context.Context, method, table string, params url.Values, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s body: %w", table, err)
	}
	resp, err := c.do(ctx, method, table, params, bytes.NewReader(data), "application/json")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, table string, params url.Values, body io.Reader, contentType string) (*http.Response, error) {
	u := c.baseURL + "/" + url.PathEscape(table)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Prefer", "return=minimal")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, table, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return resp, nil
}
