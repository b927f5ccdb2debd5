package authsdk

import (
	"log/slog"
	"sync"

	"github.com/ecorewards/ecorewards/internal/utils"
	"github.com/ecorewards/ecorewards/internal/version"
	"github.com/imroc/req/v3"
)

type Option func(*Client)

// WithSession seeds the client with a previously stored session
func WithSession(s *Session) Option {
	return func(c *Client) {
		c.session = s
	}
}

// WithSessionHook registers fn to be called after every session change. fn receives nil on sign out.
func WithSessionHook(fn func(*Session)) Option {
	return func(c *Client) {
		c.onSession = fn
	}
}

// Client talks to the auth server. It is safe for concurrent use.
type Client struct {
	config    *Config
	http      *req.Client
	onSession func(*Session)

	mu      sync.RWMutex
	session *Session
}

func New(config *Config, opts ...Option) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// auth calls are not idempotent, so no retries here
	hc := req.C().
		SetBaseURL(config.BaseURL).
		SetTimeout(timeout).
		SetUserAgent(UserAgent).
		SetCommonHeader(HeaderClientVersion, version.Version).
		SetCommonHeader(HeaderDeviceID, utils.HWID).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	if config.APIKey != "" {
		hc.SetCommonHeader(HeaderAPIKey, config.APIKey)
	}

	c := &Client{
		config: config,
		http:   hc,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Session returns a copy of the current session, or nil when signed out
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *Client) SetSession(s *Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	if s != nil {
		slog.Debug("auth session updated", "session", s)
	} else {
		slog.Debug("auth session cleared")
	}

	if c.onSession != nil {
		c.onSession(c.Session())
	}
}
