// Package helpscout reads conversations from the Help Scout Mailbox API v2.
package helpscout

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
	"github.com/secmon-lab/tonecheck/pkg/utils/safe"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultBaseURL  = "https://api.helpscout.net"
	DefaultTokenURL = "https://api.helpscout.net/v2/oauth2/token"

	tokenTimeout = 10 * time.Second
	apiTimeout   = 15 * time.Second
)

var (
	ErrTicketNotFound = goerr.New("conversation not found")
	ErrNotConfigured  = goerr.New("help scout credentials are not configured")
)

// Client implements interfaces.TicketSource
type Client struct {
	baseURL     string
	tokenURL    string
	appID       string
	appSecret   string
	accessToken string
	transport   http.RoundTripper
	httpClient  *http.Client
}

var _ interfaces.TicketSource = &Client{}

// Option is a functional option for Client configuration
type Option func(*Client)

// WithClientCredentials authenticates with an OAuth2 app id and secret
func WithClientCredentials(appID, appSecret string) Option {
	return func(c *Client) {
		c.appID = appID
		c.appSecret = appSecret
	}
}

// WithAccessToken uses a static bearer token. It takes precedence over client credentials.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = token
	}
}

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithTokenURL(u string) Option {
	return func(c *Client) {
		c.tokenURL = u
	}
}

// WithTransport replaces the base transport of both token and API requests
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = rt
	}
}

// New creates a Help Scout client. Without credentials the client is still
// returned, but every call fails with ErrNotConfigured.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		tokenURL:  DefaultTokenURL,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}

	tokenClient := &http.Client{Timeout: tokenTimeout, Transport: c.transport}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, tokenClient)

	switch {
	case c.accessToken != "":
		c.httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: c.accessToken,
			TokenType:   "Bearer",
		}))
	case c.appID != "" && c.appSecret != "":
		conf := &clientcredentials.Config{
			ClientID:     c.appID,
			ClientSecret: c.appSecret,
			TokenURL:     c.tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		c.httpClient = conf.Client(ctx)
	}
	if c.httpClient != nil {
		c.httpClient.Timeout = apiTimeout
	}

	return c
}

func (c *Client) Configured() bool {
	return c.httpClient != nil
}

// GetTicket fetches a conversation with its threads embedded
func (c *Client) GetTicket(ctx context.Context, id types.TicketID) (*model.Ticket, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	endpoint := c.baseURL + "/v2/conversations/" + url.PathEscape(id.String()) + "?embed=threads"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("ticket_id", id))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call help scout", goerr.V("ticket_id", id))
	}
	defer safe.DrainBody(ctx, resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, goerr.Wrap(ErrTicketNotFound, "help scout returned 404", goerr.V("ticket_id", id))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, goerr.New("help scout returned an error",
			goerr.V("ticket_id", id),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
	}

	var conv apiConversation
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		return nil, goerr.Wrap(err, "failed to decode conversation", goerr.V("ticket_id", id))
	}
	if conv.ID == 0 {
		conv.ID = int64(id)
	}

	return conv.toModel(), nil
}
