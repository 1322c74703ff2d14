package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orgchart/pkg/cache"
	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/orgtree"
)

// SuccessCode is the envelope code of a successful API response.
const SuccessCode = 20000

// DefaultTimeout bounds a single request.
const DefaultTimeout = 5 * time.Second

// maxBody caps the size of a tree payload.
const maxBody = 32 << 20

// statusText describes the statuses the organization API is known to
// return.
var statusText = map[int]string{
	http.StatusBadRequest:              "bad request",
	http.StatusUnauthorized:            "unauthorized, log in again",
	http.StatusForbidden:               "access denied",
	http.StatusNotFound:                "resource not found",
	http.StatusMethodNotAllowed:        "method not allowed",
	http.StatusRequestTimeout:          "request timed out",
	http.StatusInternalServerError:     "server error",
	http.StatusNotImplemented:          "not implemented",
	http.StatusBadGateway:              "bad gateway",
	http.StatusServiceUnavailable:      "service unavailable",
	http.StatusGatewayTimeout:          "gateway timeout",
	http.StatusHTTPVersionNotSupported: "HTTP version not supported",
}

// IsURL reports whether path names an HTTP source.
func IsURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Client loads trees over HTTP.
type Client struct {
	HTTP   *http.Client
	Cache  cache.Cache
	Logger *log.Logger
	// Refresh skips the cache lookup; fresh payloads are still stored.
	Refresh bool
}

// NewClient returns a client with the default timeout. c and logger may
// be nil.
func NewClient(c cache.Cache, logger *log.Logger) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		HTTP:   &http.Client{Timeout: DefaultTimeout},
		Cache:  c,
		Logger: logger,
	}
}

// envelope is the wrapped API response.
type envelope struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// FetchTree downloads and decodes the tree at url.
func (c *Client) FetchTree(ctx context.Context, url string) (*orgtree.Entity, error) {
	if !IsURL(url) {
		return nil, errors.New(errors.ErrCodeInvalidPath, "not an http(s) URL: %q", url)
	}
	key := cache.SourceKey(url)
	if !c.Refresh {
		if data, hit, _ := c.Cache.Get(ctx, key); hit {
			if tree, err := orgtree.ReadEntity(bytes.NewReader(data)); err == nil {
				c.Logger.Debug("tree from cache", "url", url)
				return tree, nil
			}
		}
	}

	var body []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		body, err = c.get(ctx, url)
		if err != nil {
			c.Logger.Debug("fetch failed", "url", url, "err", err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	payload, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	tree, err := orgtree.ReadEntity(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if err := c.Cache.Set(ctx, key, payload, cache.TTLSource); err != nil {
		c.Logger.Warn("cache write failed", "url", url, "err", err)
	}
	c.Logger.Debug("fetched tree", "url", url, "bytes", len(payload))
	return tree, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeBackend, err, "GET %s", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := statusError(url, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, cache.Retryable(err)
		}
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeBackend, err, "read %s", url))
	}
	if len(body) > maxBody {
		return nil, errors.New(errors.ErrCodeInvalidTree, "payload of %s exceeds %d bytes", url, maxBody)
	}
	return body, nil
}

func statusError(url string, status int) error {
	text, ok := statusText[status]
	if !ok {
		text = strings.ToLower(http.StatusText(status))
	}
	code := errors.ErrCodeBackend
	switch {
	case status == http.StatusNotFound:
		code = errors.ErrCodeNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		code = errors.ErrCodeTimeout
	}
	return errors.New(code, "GET %s: %d %s", url, status, text)
}

// unwrap returns the tree payload of body, unwrapping the API envelope
// when present.
func unwrap(body []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTree, err, "decode response")
	}
	if env.Code == nil {
		return body, nil
	}
	if *env.Code != SuccessCode {
		msg := env.Message
		if msg == "" {
			msg = env.Msg
		}
		if msg == "" {
			msg = "error"
		}
		return nil, errors.New(errors.ErrCodeBackend, "api code %d: %s", *env.Code, msg)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, errors.New(errors.ErrCodeInvalidTree, "api response has no data")
	}
	return env.Data, nil
}
