// Package pbsapi talks to the backup server's REST API: the encryption key
// listing, the backup job list, job execution and media removal.
package pbsapi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/op/go-logging"

	"backup-console/src/dispatch"
)

var log = logging.MustGetLogger("pbsapi")

const apiPrefix = "/api2/json"

// Options configures a Client.
type Options struct {
	// BaseURL is the server address, e.g. https://backup.example:8007.
	BaseURL string
	// Node is the server node that runs backup jobs.
	Node string
	// Token is an API token in the form "user@realm!name:secret".
	Token string
	// Retries applies to read-only requests. Mutating requests are sent once.
	Retries int
	// Timeout bounds every single HTTP attempt.
	Timeout time.Duration
	// Insecure skips TLS certificate verification.
	Insecure  bool
	UserAgent string
}

// Client is a REST client for the backup server.
type Client struct {
	base  *url.URL
	node  string
	token string
	ua    string
	read  *retryablehttp.Client
	write *retryablehttp.Client
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("pbsapi: base URL must not be empty")
	}
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("pbsapi: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("pbsapi: unsupported URL scheme %q", u.Scheme)
	}
	if opts.Node == "" {
		opts.Node = "localhost"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "backup-console"
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	read := newRetryClient(opts)
	read.RetryMax = opts.Retries

	write := newRetryClient(opts)
	write.RetryMax = 0
	write.CheckRetry = func(ctx context.Context, _ *http.Response, _ error) (bool, error) {
		return false, ctx.Err()
	}

	return &Client{base: u, node: opts.Node, token: opts.Token, ua: opts.UserAgent, read: read, write: write}, nil
}

func newRetryClient(opts Options) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	c.Logger = retryLogger{}
	// Hand the last response back so failure reasons can be decoded.
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Timeout > 0 {
		c.HTTPClient.Timeout = opts.Timeout
	}
	if opts.Insecure {
		if t, ok := c.HTTPClient.Transport.(*http.Transport); ok {
			if t.TLSClientConfig == nil {
				t.TLSClientConfig = &tls.Config{}
			}
			t.TLSClientConfig.InsecureSkipVerify = true
		}
	}
	return c
}

type retryLogger struct{}

func (retryLogger) Printf(format string, args ...interface{}) { log.Debugf(format, args...) }

// envelope is the response wrapper used by every endpoint.
type envelope struct {
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (c *Client) endpoint(parts ...string) string {
	u := *c.base
	esc := make([]string, len(parts))
	for i, p := range parts {
		esc[i] = url.PathEscape(p)
	}
	u.Path = strings.TrimRight(u.Path, "/") + apiPrefix + "/" + strings.Join(esc, "/")
	return u.String()
}

func (c *Client) do(ctx context.Context, hc *retryablehttp.Client, method, endpoint string, body any, out any) error {
	var raw interface{}
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("pbsapi: encode request: %w", err)
		}
		raw = b
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, raw)
	if err != nil {
		return fmt.Errorf("pbsapi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.ua)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "PBSAPIToken="+c.token)
	}

	log.Debugf("%s %s", method, endpoint)
	resp, err := hc.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return fmt.Errorf("pbsapi: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("pbsapi: read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(payload, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &dispatch.RemoteError{Status: resp.StatusCode, Reason: failureReason(resp, env, decodeErr)}
	}
	if decodeErr != nil {
		return fmt.Errorf("pbsapi: malformed response from %s: %w", endpoint, decodeErr)
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return fmt.Errorf("pbsapi: response from %s carries no data", endpoint)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("pbsapi: malformed data from %s: %w", endpoint, err)
	}
	return nil
}

func failureReason(resp *http.Response, env envelope, decodeErr error) string {
	if decodeErr == nil {
		if msg := strings.TrimSpace(env.Message); msg != "" {
			return msg
		}
		if len(env.Errors) > 0 {
			fields := make([]string, 0, len(env.Errors))
			for k := range env.Errors {
				fields = append(fields, k)
			}
			sort.Strings(fields)
			parts := make([]string, 0, len(fields))
			for _, k := range fields {
				parts = append(parts, k+": "+strings.TrimSpace(env.Errors[k]))
			}
			return strings.Join(parts, "; ")
		}
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return strings.ToLower(text)
	}
	return resp.Status
}
