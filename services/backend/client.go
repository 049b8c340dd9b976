package backendsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/preceptor/core"
)

const (
	HeaderProject = "X-Appwrite-Project"

	// SessionCookiePrefix prefixes the session cookie name; the project id completes it.
	SessionCookiePrefix = "a_session_"
)

// Error is the error body returned by the backend for non-2xx responses.
type Error struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return http.StatusText(e.Code)
	}
	return e.Message
}

// Unwrap exposes the failure as a *core.RemoteError carrying the backend message.
func (e *Error) Unwrap() error {
	return &core.RemoteError{Message: e.Message}
}

// Client talks to the backend REST API. It keeps the session cookie in a jar so every
// component sharing the Client acts on behalf of the same session.
type Client struct {
	endpoint  *url.URL
	projectID string
	http      *http.Client
	logger    core.Logger
}

func NewClient(conf *core.Config, logger core.Logger) (*Client, error) {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.Backend.Endpoint, "backend.endpoint"),
		vala.StringNotEmpty(conf.Backend.ProjectID, "backend.projectID"),
		vala.StringNotEmpty(conf.Backend.FunctionID, "backend.functionID"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "invalid backend config")
	}

	endpoint, err := url.Parse(strings.TrimRight(conf.Backend.Endpoint, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing backend.endpoint")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating cookie jar")
	}

	return &Client{
		endpoint:  endpoint,
		projectID: conf.Backend.ProjectID,
		http:      &http.Client{Jar: jar, Timeout: conf.Backend.Timeout},
		logger:    logger,
	}, nil
}

func (c *Client) ProjectID() string { return c.projectID }

// SessionCookie is the cookie name holding the session secret.
func (c *Client) SessionCookie() string { return SessionCookiePrefix + c.projectID }

// Cookies returns the cookies the jar would send to the endpoint.
func (c *Client) Cookies() []*http.Cookie {
	return c.http.Jar.Cookies(c.endpoint)
}

func (c *Client) url(path string) string {
	u := *c.endpoint
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// do sends in as JSON and decodes a 2xx body into out (if non-nil).
// Failures are *Error for backend rejections and *core.NetworkError for transport errors.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set(HeaderProject, c.projectID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return core.NewNetworkError(err)
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return core.NewNetworkError(errors.Wrap(err, "reading response"))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return errorFromResponse(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return core.NewParseError(errors.Wrapf(err, "decoding %s %s", method, path))
	}
	return nil
}

func errorFromResponse(status int, data []byte) error {
	bErr := &Error{}
	if err := json.Unmarshal(data, bErr); err != nil || bErr.Message == "" {
		bErr.Message = http.StatusText(status)
	}
	bErr.Code = status
	return bErr
}

// statusOf returns the HTTP status carried by err, if it is a backend rejection.
func statusOf(err error) int {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr.Code
	}
	return 0
}
