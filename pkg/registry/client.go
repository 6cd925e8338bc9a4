package registry

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds every outbound registry request.
const DefaultTimeout = 5 * time.Second

// UserAgent identifies dockupdate to registries.
// It can be overridden at build time with -ldflags "-X ...UserAgent=dockupdate/v1.0".
var UserAgent = "dockupdate/unknown"

// HTTPClient is the transport capability used for registry requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the HTTP transport with the per-request timeout.
type Client struct {
	HTTP    HTTPClient
	Timeout time.Duration
}

// NewClient returns a Client with a fresh http.Client and the default timeout.
func NewClient() *Client {
	return &Client{
		HTTP:    &http.Client{},
		Timeout: DefaultTimeout,
	}
}

// RequestTimeout returns the configured timeout, falling back to DefaultTimeout.
func (c *Client) RequestTimeout() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return DefaultTimeout
	}

	return c.Timeout
}

// Do sends the request with the dockupdate User-Agent.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", UserAgent)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return httpClient.Do(req)
}
