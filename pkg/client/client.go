// Package client provides the Go client for the algoscope HTTP API and an
// embedded implementation backed by the in-process engine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rendis/algoscope/internal/engine"
	"github.com/rendis/algoscope/pkg/schema"
)

// EnvAPIURL overrides the base URL passed to New when that is empty.
const EnvAPIURL = "ALGOSCOPE_API_URL"

// DefaultBaseURL is used when neither New nor the environment names a server.
const DefaultBaseURL = "http://localhost:5000"

// ListOptions filters ListModels. Zero fields do not filter.
type ListOptions struct {
	Text    string
	Agency  string
	Service string
	Where   string
	Lang    string
}

// Service is implemented by both the remote Client and the embedded Local.
type Service interface {
	ListModels(ctx context.Context, opts ListOptions) ([]schema.ModelCard, error)
	GetModel(ctx context.Context, id string) (schema.ModelCard, error)
	Predict(ctx context.Context, id string, inputs schema.InputBag) (schema.OutputBag, error)
	Sweep(ctx context.Context, id string, inputs schema.InputBag, field string, steps int) ([]engine.SweepPoint, error)
	Agencies(ctx context.Context) ([]string, error)
	Services(ctx context.Context) ([]string, error)
}

var (
	_ Service = (*Client)(nil)
	_ Service = (*Local)(nil)
)

// Client talks to a remote algoscope server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Client. An empty baseURL falls back to $ALGOSCOPE_API_URL,
// then DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = envAPIURL()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server root the client targets.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) ListModels(ctx context.Context, opts ListOptions) ([]schema.ModelCard, error) {
	q := url.Values{}
	for k, v := range map[string]string{
		"q": opts.Text, "agency": opts.Agency, "service": opts.Service,
		"where": opts.Where, "lang": opts.Lang,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	path := "/api/models"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	cards := []schema.ModelCard{}
	if err := c.do(ctx, http.MethodGet, path, nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *Client) GetModel(ctx context.Context, id string) (schema.ModelCard, error) {
	var card schema.ModelCard
	if err := c.do(ctx, http.MethodGet, "/api/models/"+url.PathEscape(id), nil, &card); err != nil {
		return schema.ModelCard{}, withModel(err, id)
	}
	return card, nil
}

func (c *Client) Predict(ctx context.Context, id string, inputs schema.InputBag) (schema.OutputBag, error) {
	var out schema.OutputBag
	body := map[string]any{"inputs": nonNil(inputs)}
	err := c.do(ctx, http.MethodPost, "/api/models/"+url.PathEscape(id)+"/predict", body, &out)
	if err != nil {
		return nil, withModel(err, id)
	}
	return out, nil
}

func (c *Client) Sweep(ctx context.Context, id string, inputs schema.InputBag, field string, steps int) ([]engine.SweepPoint, error) {
	var points []engine.SweepPoint
	body := map[string]any{"inputs": nonNil(inputs), "field": field, "steps": steps}
	err := c.do(ctx, http.MethodPost, "/api/models/"+url.PathEscape(id)+"/sweep", body, &points)
	if err != nil {
		return nil, withModel(err, id)
	}
	return points, nil
}

func (c *Client) Agencies(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/api/agencies", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Services(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/api/services", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InputSchema fetches the derived JSON Schema of a model's inputs.
func (c *Client) InputSchema(ctx context.Context, id string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/models/"+url.PathEscape(id)+"/schema", nil, &raw); err != nil {
		return nil, withModel(err, id)
	}
	return raw, nil
}

// Health calls /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeRemote, "%s %s: %s", method, path, err.Error()).WithCause(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeRemote, "read response: %s", err.Error()).WithCause(err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return schema.NewErrorf(schema.ErrCodeRemote, "decode response: %s", err.Error()).WithCause(err)
	}
	return nil
}

// errorBody is the server's error envelope.
type errorBody struct {
	Error      string   `json:"error"`
	Code       string   `json:"code"`
	Violations []string `json:"violations"`
	Expression string   `json:"expression"`
}

// decodeError maps a non-2xx response back to a *schema.Error.
func decodeError(status int, data []byte) *schema.Error {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil || eb.Error == "" {
		eb.Error = strings.TrimSpace(string(data))
		if eb.Error == "" {
			eb.Error = http.StatusText(status)
		}
	}

	code := eb.Code
	if code == "" {
		switch {
		case status == http.StatusNotFound && eb.Error == schema.MsgModelNotFound:
			code = schema.ErrCodeModelNotFound
		case status == http.StatusInternalServerError && eb.Error == schema.MsgRuleNotImplemented:
			code = schema.ErrCodeRuleNotImplemented
		case status == http.StatusBadRequest:
			code = schema.ErrCodeValidation
		default:
			code = schema.ErrCodeRemote
		}
	}

	se := schema.NewError(code, eb.Error)
	details := map[string]any{"status": status}
	if len(eb.Violations) > 0 {
		details["violations"] = eb.Violations
	}
	if eb.Expression != "" {
		details["expression"] = eb.Expression
	}
	return se.WithDetails(details)
}

func envAPIURL() string {
	return strings.TrimSpace(os.Getenv(EnvAPIURL))
}

func withModel(err error, id string) error {
	if err == nil {
		return nil
	}
	var se *schema.Error
	if errors.As(err, &se) && se.ModelID == "" {
		se.ModelID = id
	}
	return err
}

func nonNil(inputs schema.InputBag) schema.InputBag {
	if inputs == nil {
		return schema.InputBag{}
	}
	return inputs
}
