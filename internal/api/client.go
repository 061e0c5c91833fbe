// Package api is the HTTP adapter to the marketplace backend.
//
// Every request carries the stored bearer token. Every 401 response tears the
// session down globally, whichever endpoint produced it; there is no automatic
// retry after a token refresh.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/and161185/homeservices/internal/errs"
	"github.com/and161185/homeservices/internal/metrics"
	"github.com/and161185/homeservices/internal/session"
)

// DefaultBaseURL matches the development backend.
const DefaultBaseURL = "http://localhost:5000/api"

// UnauthorizedHandler is told when any call comes back 401. The store has
// already been cleared when Invalidate runs.
type UnauthorizedHandler interface {
	Invalidate(ctx context.Context)
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	CACert   string // PEM file with extra roots
	Insecure bool   // skip certificate verification (dev)
	Tracing  bool   // wrap the transport with otelhttp

	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	HTTPClient *http.Client // overrides Timeout/CACert/Insecure/Tracing when set
}

// Client performs authenticated JSON calls against the backend.
type Client struct {
	base    string
	hc      *http.Client
	store   session.Store
	log     *zap.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	onUnauth UnauthorizedHandler
}

// New builds a Client bound to store.
func New(store session.Store, opts Options) (*Client, error) {
	if store == nil {
		return nil, errors.New("api: session store is required")
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("api: bad base url: %w", err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	hc := opts.HTTPClient
	if hc == nil {
		tlsCfg, err := loadTLS(opts.CACert, opts.Insecure)
		if err != nil {
			return nil, err
		}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = tlsCfg
		var rt http.RoundTripper = tr
		if opts.Tracing {
			rt = otelhttp.NewTransport(rt)
		}
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Transport: rt, Timeout: timeout}
	}

	return &Client{base: base, hc: hc, store: store, log: log, metrics: opts.Metrics}, nil
}

// SetUnauthorizedHandler installs the 401 policy target (the auth manager).
func (c *Client) SetUnauthorizedHandler(h UnauthorizedHandler) {
	c.mu.Lock()
	c.onUnauth = h
	c.mu.Unlock()
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.base }

func loadTLS(caPath string, insecure bool) (*tls.Config, error) {
	if insecure {
		return &tls.Config{InsecureSkipVerify: true}, nil //nolint:gosec // explicit dev flag
	}
	if caPath == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return &tls.Config{RootCAs: pool}, nil
}

// errorBody is the backend's error envelope. JWT failures use "msg".
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Msg     string `json:"msg"`
}

func (b errorBody) text() string {
	switch {
	case b.Message != "":
		return b.Message
	case b.Error != "":
		return b.Error
	}
	return b.Msg
}

// do sends a JSON request (body may be nil) and decodes the response into out (may be nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var (
		rd io.Reader
		ct string
	)
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
		ct = "application/json"
	}
	return c.send(ctx, method, path, query, ct, rd, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rid := requestID()
	req.Header.Set("X-Request-ID", rid)

	s, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if s.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	dur := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, dur)
		c.log.Warn("api",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", rid),
			zap.Duration("dur", dur),
			zap.Error(err),
		)
		return errs.NewTransportError(err)
	}
	defer resp.Body.Close()

	c.metrics.ObserveRequest(method, resp.StatusCode, dur)
	// metadata only, never payloads or tokens
	c.log.Debug("api",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", rid),
		zap.Duration("dur", dur),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewTransportError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized(ctx)
		}
		return errs.NewStatusError(resp.StatusCode, eb.text())
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// unauthorized applies the global 401 policy: clear the store, then notify the handler.
func (c *Client) unauthorized(ctx context.Context) {
	// teardown must survive a cancelled caller
	ctx = context.WithoutCancel(ctx)
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error("clear session after 401", zap.Error(err))
	}
	c.metrics.Teardown("unauthorized")

	c.mu.RLock()
	h := c.onUnauth
	c.mu.RUnlock()
	if h != nil {
		h.Invalidate(ctx)
	}
}

func requestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
