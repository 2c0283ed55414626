// Package cms is the HTTP client for the Strapi content API. Every read is
// normalized before it leaves the package.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"scalesite/internal/domain/config"
	"scalesite/internal/domain/content"
	domainerr "scalesite/internal/domain/errors"
	"scalesite/internal/normalize"
	"scalesite/internal/query"
)

var ErrNotFound = errors.New("cms: not found")

const maxErrorBody = 1 << 20

type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	LeadsPath string
	Normalize normalize.Options

	// HTTPClient overrides the default client; Timeout is ignored then.
	HTTPClient *http.Client
}

type Client struct {
	base      string
	token     string
	leadsPath string
	norm      normalize.Options
	http      *http.Client
	log       *zap.Logger
}

func New(opt Options, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	hc := opt.HTTPClient
	if hc == nil {
		timeout := opt.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	leads := opt.LeadsPath
	if leads == "" {
		leads = "/api/industry-collaborations"
	}
	return &Client{
		base:      strings.TrimSuffix(strings.TrimSpace(opt.BaseURL), "/"),
		token:     strings.TrimSpace(opt.Token),
		leadsPath: leads,
		norm:      opt.Normalize,
		http:      hc,
		log:       log.Named("cms"),
	}
}

func NewFromConfig(cfg config.CMSConfig, log *zap.Logger) *Client {
	return New(Options{
		BaseURL:   cfg.BaseURL,
		Token:     cfg.APIToken,
		Timeout:   cfg.Timeout,
		LeadsPath: cfg.LeadsPath,
		Normalize: normalize.Options{
			MediaBase:         cfg.MediaBase(),
			AuthorPlaceholder: cfg.AuthorPlaceholder,
		},
	}, log)
}

// List fetches one page of a collection.
func (c *Client) List(ctx context.Context, req query.Request) (content.Page, error) {
	req = req.Normalized()
	path := "/api/" + req.Variant.Info().Collection + "?" + query.Build(req)

	var env map[string]any
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return content.Page{}, err
	}
	page := normalize.Page(env, req.Variant, c.norm)
	c.log.Debug("list",
		zap.String("collection", req.Variant.Info().Collection),
		zap.Int("page", page.Pagination.Page),
		zap.Int("items", len(page.Items)),
		zap.Int("total", page.Pagination.Total),
	)
	return page, nil
}

// GetBySlug returns the single record with slug, or ErrNotFound.
func (c *Client) GetBySlug(ctx context.Context, variant content.Variant, slug string) (content.Content, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return content.Content{}, ErrNotFound
	}
	page, err := c.List(ctx, query.Request{
		Variant:  variant,
		Page:     1,
		PageSize: 1,
		Filters:  query.Filters{Slug: slug},
	})
	if err != nil {
		return content.Content{}, err
	}
	if len(page.Items) == 0 {
		return content.Content{}, ErrNotFound
	}
	return page.Items[0], nil
}

// Related lists records sharing a category, excluding the current one.
func (c *Client) Related(ctx context.Context, variant content.Variant, categorySlug string, excludeID, limit int) ([]content.Content, error) {
	page, err := c.List(ctx, query.Request{
		Variant:  variant,
		Page:     1,
		PageSize: limit,
		Filters: query.Filters{
			CategorySlug: categorySlug,
			ExcludeID:    excludeID,
		},
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *Client) Categories(ctx context.Context) ([]content.Category, error) {
	var env map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/categories?"+query.Taxonomy(1, query.MaxPageSize), nil, &env); err != nil {
		return nil, err
	}
	return normalize.Categories(env["data"]), nil
}

func (c *Client) Tags(ctx context.Context) ([]content.Tag, error) {
	var env map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/tags?"+query.Taxonomy(1, query.MaxPageSize), nil, &env); err != nil {
		return nil, err
	}
	return normalize.Tags(env["data"]), nil
}

// IncrementView bumps the view counter and returns the stored value.
func (c *Client) IncrementView(ctx context.Context, variant content.Variant, documentID string) (int, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return 0, ErrNotFound
	}
	path := "/api/" + variant.Info().Collection + "/" + url.PathEscape(documentID) + "/view"

	var env map[string]any
	if err := c.do(ctx, http.MethodPut, path, nil, &env); err != nil {
		return 0, err
	}
	return normalize.Content(env["data"], variant, c.norm).ViewCount, nil
}

// SubmitLead posts the collaboration form payload wrapped as {data: payload}.
// The endpoint answers {success, data|error}; success=false is a failure even
// on a 2xx status.
func (c *Client) SubmitLead(ctx context.Context, payload any) error {
	var resp struct {
		Success *bool           `json:"success"`
		Error   json.RawMessage `json:"error"`
	}
	if err := c.do(ctx, http.MethodPost, c.leadsPath, map[string]any{"data": payload}, &resp); err != nil {
		return err
	}
	if resp.Success != nil && !*resp.Success {
		return &domainerr.APIError{Status: http.StatusOK, Message: errorMessage(resp.Error, "submission rejected")}
	}
	c.log.Info("lead submitted")
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("cms: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("cms: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &domainerr.APIError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		c.log.Warn("cms error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
			zap.Duration("took", time.Since(start)),
		)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &domainerr.APIError{Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

// decodeError reads Strapi's `{error: {status, name, message, details}}`
// envelope, or the `{success: false, error: "..."}` form used by custom routes.
func decodeError(resp *http.Response) *domainerr.APIError {
	apiErr := &domainerr.APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &env) != nil {
		return apiErr
	}
	apiErr.Message = errorMessage(env.Error, apiErr.Message)
	var obj struct {
		Details map[string]any `json:"details"`
	}
	if json.Unmarshal(env.Error, &obj) == nil && len(obj.Details) > 0 {
		apiErr.Details = obj.Details
	}
	return apiErr
}

func errorMessage(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	var s string
	if json.Unmarshal(raw, &s) == nil && s != "" {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Message != "" {
		return obj.Message
	}
	return fallback
}
