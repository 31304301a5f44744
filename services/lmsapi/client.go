// Package lmsapi is a client of the Masomo REST API.
//
// Every request carries the `x-user` identity header and, once logged in, the bearer token.
// GET requests fall back to a mirror of the API when the backend is unreachable or fails with a 5xx;
// nothing is ever retried against the same server.
package lmsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/masomo-lms/core"
	"github.com/trezcool/masomo-lms/core/user"
)

var (
	// ErrServiceUnavailable is returned when neither the backend nor its mirror could serve a request.
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrNotLoggedIn        = errors.New("not logged in")
)

// APIError is a 4xx/5xx answer of the API.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

// IsStatus reports whether `err` is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Session is the logged-in user along with their token.
type Session struct {
	User  user.User `json:"user"`
	Token string    `json:"token"`
}

type Client struct {
	rest      *rest.Client
	baseURL   string
	mirrorURL string
	logger    core.Logger

	mu      sync.RWMutex
	session *Session
}

// New returns a Client of the API at `conf.BackendURL`. A nil httpClient means a fresh http.Client.
func New(conf core.PortalConfig, httpClient *http.Client, logger core.Logger) (*Client, error) {
	if err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.BackendURL, "BackendURL"),
		vala.IsNotNil(logger, "logger"),
	).Check(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = new(http.Client)
	}
	if conf.RequestTimeout > 0 && httpClient.Timeout == 0 {
		httpClient.Timeout = conf.RequestTimeout
	}
	return &Client{
		rest:      &rest.Client{HTTPClient: httpClient},
		baseURL:   strings.TrimSuffix(conf.BackendURL, "/"),
		mirrorURL: strings.TrimSuffix(conf.MirrorURL, "/"),
		logger:    logger,
	}, nil
}

func (c *Client) SetSession(sess *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
}

func (c *Client) Session() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

func (c *Client) headers() (map[string]string, error) {
	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session != nil {
		hdr, err := c.session.User.Identity().Header()
		if err != nil {
			return nil, errors.Wrap(err, "encoding x-user header")
		}
		headers["x-user"] = hdr
		if c.session.Token != "" {
			headers["Authorization"] = "Bearer " + c.session.Token
		}
	}
	return headers, nil
}

// do sends a request and decodes the JSON answer into `out` (when not nil).
func (c *Client) do(ctx context.Context, method rest.Method, path string, query map[string]string, in, out interface{}) error {
	headers, err := c.headers()
	if err != nil {
		return err
	}
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + path,
		Headers:     headers,
		QueryParams: query,
	}
	if in != nil {
		if req.Body, err = json.Marshal(in); err != nil {
			return errors.Wrap(err, "encoding request body")
		}
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.shouldFallback(method, res, err) {
		c.logger.Warn(fmt.Sprintf("%s %s failed, reading from mirror", method, path), describe(res, err))
		req.BaseURL = c.mirrorURL + path
		mres, merr := c.rest.SendWithContext(ctx, req)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if merr != nil || mres.StatusCode >= http.StatusInternalServerError {
			c.logger.Error(fmt.Sprintf("mirror %s %s failed", method, path), describe(mres, merr))
			return errors.Wrapf(ErrServiceUnavailable, "%s %s", method, path)
		}
		res, err = mres, nil
	}
	if err != nil {
		c.logger.Error(fmt.Sprintf("%s %s failed", method, path), err)
		return errors.Wrapf(ErrServiceUnavailable, "%s %s: %v", method, path, err)
	}

	if res.StatusCode >= http.StatusBadRequest {
		return parseAPIError(res)
	}
	if out == nil || res.StatusCode == http.StatusNoContent || res.Body == "" {
		return nil
	}
	if err = json.Unmarshal([]byte(res.Body), out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

func (c *Client) shouldFallback(method rest.Method, res *rest.Response, err error) bool {
	if method != rest.Get || c.mirrorURL == "" {
		return false
	}
	return err != nil || res.StatusCode >= http.StatusInternalServerError
}

func describe(res *rest.Response, err error) interface{} {
	if err != nil {
		return err
	}
	if res != nil {
		return map[string]interface{}{"status": res.StatusCode, "body": res.Body}
	}
	return nil
}

// parseAPIError reads the error body of the API: either {"error": "..."} or {"field": "message", ...}.
func parseAPIError(res *rest.Response) error {
	apiErr := &APIError{StatusCode: res.StatusCode, Message: http.StatusText(res.StatusCode)}

	var body map[string]interface{}
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil {
		if msg := strings.TrimSpace(res.Body); msg != "" {
			apiErr.Message = msg
		}
		return apiErr
	}
	if msg, ok := body["error"].(string); ok && len(body) == 1 {
		apiErr.Message = msg
		return apiErr
	}
	if msg, ok := body["message"].(string); ok && len(body) == 1 {
		apiErr.Message = msg
		return apiErr
	}

	apiErr.Fields = make(map[string]string, len(body))
	keys := make([]string, 0, len(body))
	for k, v := range body {
		apiErr.Fields[k] = fmt.Sprint(v)
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+apiErr.Fields[k])
	}
	apiErr.Message = strings.Join(parts, "; ")
	return apiErr
}
