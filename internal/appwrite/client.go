// Package appwrite implements the backend contract against the hosted
// Appwrite REST API.
package appwrite

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/aora/backend/internal/backend"
)

const (
	headerProject  = "X-Appwrite-Project"
	headerPlatform = "X-Appwrite-Package-Name"
	headerSession  = "X-Appwrite-Session"
)

// Options configure a Client.
type Options struct {
	Endpoint  string
	ProjectID string
	Platform  string
	Timeout   time.Duration
	// Stateless disables the cookie jar so every call must carry its session
	// on the context. Servers acting for many users set this.
	Stateless bool
}

// Client is a process-wide handle to one Appwrite project. It is safe for
// concurrent use; the resty cookie jar holds the session established by the
// last sign-in when callers do not carry one on the context.
type Client struct {
	http     *resty.Client
	endpoint string
	project  string
}

// NewClient configures a client for the given project.
func NewClient(opts Options) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("appwrite: endpoint is required")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("appwrite: invalid endpoint %q: %w", endpoint, err)
	}
	if strings.TrimSpace(opts.ProjectID) == "" {
		return nil, fmt.Errorf("appwrite: project id is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(opts.Timeout).
		SetHeader(headerProject, opts.ProjectID).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetError(&Error{})
	if opts.Platform != "" {
		httpClient.SetHeader(headerPlatform, opts.Platform)
	}
	if opts.Stateless {
		httpClient.SetCookieJar(nil)
	}

	return &Client{
		http:     httpClient,
		endpoint: endpoint,
		project:  opts.ProjectID,
	}, nil
}

// Account returns the accounts sub-resource.
func (c *Client) Account() *Account {
	return &Account{client: c}
}

// Databases returns the documents sub-resource.
func (c *Client) Databases() *Databases {
	return &Databases{client: c}
}

// Storage returns the file storage sub-resource.
func (c *Client) Storage() *Storage {
	return &Storage{client: c}
}

// Avatars returns the avatar URL helper.
func (c *Client) Avatars() *Avatars {
	return &Avatars{client: c}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if secret := backend.SessionFromContext(ctx); secret != "" {
		req.SetHeader(headerSession, secret)
	}
	return req
}

// resourceURL builds an absolute URL for endpoints that are handed to other
// clients (image tags, players) rather than called directly.
func (c *Client) resourceURL(path string, params url.Values) (string, error) {
	u, err := url.Parse(c.endpoint + path)
	if err != nil {
		return "", fmt.Errorf("appwrite: build url %s: %w", path, err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("project", c.project)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (c *Client) sessionCookieName() string {
	return "a_session_" + strings.ToLower(c.project)
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("appwrite %s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*Error)
	if !ok || apiErr == nil || apiErr.Message == "" {
		apiErr = &Error{Message: strings.TrimSpace(resp.String())}
		if apiErr.Message == "" {
			apiErr.Message = resp.Status()
		}
	}
	apiErr.Status = resp.StatusCode()
	return fmt.Errorf("appwrite %s: %w", op, apiErr)
}
