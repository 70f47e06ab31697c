// Package googleads is a REST client for the parts of the Google Ads API used
// by Customer Match uploads.
package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/okian/customermatch/pkg/logger"
	"github.com/okian/customermatch/pkg/metrics"
)

// Defaults for New.
const (
	DefaultEndpoint   = "https://googleads.googleapis.com"
	DefaultAPIVersion = "v17"
)

// Client issues one HTTP call per operation and never retries.
type Client struct {
	endpoint        string
	version         string
	developerToken  string
	loginCustomerID string
	http            *http.Client
	log             logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithEndpoint sets the REST base URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithAPIVersion sets the version path segment, e.g. "v17".
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.version = version
		}
	}
}

// WithDeveloperToken sets the developer-token header.
func WithDeveloperToken(token string) Option {
	return func(c *Client) {
		c.developerToken = token
	}
}

// WithLoginCustomerID sets the manager account used for access.
func WithLoginCustomerID(id string) Option {
	return func(c *Client) {
		c.loginCustomerID = CustomerID(id)
	}
}

// WithHTTPClient sets the transport. It must add authorization itself.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client. Without WithHTTPClient it uses http.DefaultClient,
// which carries no credentials.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		version:  DefaultAPIVersion,
		http:     http.DefaultClient,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromCredentials creates an authorized client from a google-ads.yaml
// credential set.
func NewFromCredentials(ctx context.Context, creds Credentials, opts ...Option) (*Client, error) {
	ts, err := creds.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithHTTPClient(oauth2.NewClient(ctx, ts)),
		WithDeveloperToken(creds.DeveloperToken),
		WithLoginCustomerID(creds.LoginCustomerID),
	}
	return New(append(base, opts...)...), nil
}

// CustomerID strips the dashes of a customer id as shown in the UI.
func CustomerID(id string) string {
	return strings.ReplaceAll(strings.TrimSpace(id), "-", "")
}

// call POSTs in to path and decodes the response into out. method labels
// metrics and logs.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	start := time.Now()
	err := c.do(ctx, path, in, out)
	latencyMs := float64(time.Since(start).Milliseconds())

	if err != nil {
		st := "TRANSPORT"
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			st = apiErr.Status
		}
		metrics.RecordAdsRequest(method, metrics.OutcomeError, latencyMs)
		metrics.RecordAdsError(method, st)
		c.log.Debug(ctx, "ads call failed", logger.String("method", method), logger.Error(err))
		return err
	}
	metrics.RecordAdsRequest(method, metrics.OutcomeSuccess, latencyMs)
	c.log.Debug(ctx, "ads call done", logger.String("method", method), logger.Float64("latency_ms", latencyMs))
	return nil
}

func (c *Client) do(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode request: %w", ErrTransport, err)
	}
	url := c.endpoint + "/" + c.version + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.developerToken != "" {
		req.Header.Set("developer-token", c.developerToken)
	}
	if c.loginCustomerID != "" {
		req.Header.Set("login-customer-id", c.loginCustomerID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTransport, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrTransport, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response, raw []byte) *APIError {
	e := &APIError{
		HTTPStatus: resp.StatusCode,
		Status:     canonicalStatus(resp.StatusCode),
		Message:    strings.TrimSpace(string(raw)),
		RequestID:  resp.Header.Get("request-id"),
	}
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return e
	}
	if env.Error.Status != "" {
		e.Status = env.Error.Status
	}
	if env.Error.Message != "" {
		e.Message = env.Error.Message
	}
	fs, err := failures(env.Error.Details)
	if err != nil {
		return e
	}
	for _, f := range fs {
		e.Errors = append(e.Errors, f.Errors...)
		if e.RequestID == "" {
			e.RequestID = f.RequestID
		}
	}
	return e
}
