package hubclient

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// AuthenticationKind selects the credential shape attached to a connection.
type AuthenticationKind int

const (
	AuthenticationNone AuthenticationKind = iota
	AuthenticationBasic
	AuthenticationBearer
)

// Authentication describes how the client authenticates to the hub's
// negotiate endpoint. The zero value is AuthenticationNone.
type Authentication struct {
	Kind     AuthenticationKind
	User     string
	Password *string
	Token    string
}

// ArgumentPolicy governs what happens when ArgumentConfiguration.Argument
// cannot serialize a value. See SPEC_FULL.md's resolution of the original
// "silent argument-serialization failure" open question.
type ArgumentPolicy int

const (
	// ArgumentPolicyStrict aborts the invocation build with a *SerializeError,
	// returned by the Invoke/Send/Enumerate call that built it. This is the
	// default: a short argument list is a worse failure mode than a
	// build-time error for a typed client.
	ArgumentPolicyStrict ArgumentPolicy = iota
	// ArgumentPolicyDrop logs the failure and omits the argument instead.
	ArgumentPolicyDrop
)

// queryParam is an ordered key/value pair appended to the connection's
// derived URLs.
type queryParam struct {
	key, value string
}

// ConnectionConfig accumulates the parameters of a hub connection: secure
// flag, domain, hub path, optional port, authentication, and ordered query
// parameters. Build it with NewConnectionConfig and the With* builder
// methods, mirroring the fluent configuration surface of the original
// client.
type ConnectionConfig struct {
	secure         bool
	domain         string
	hub            string
	port           *int
	authentication Authentication
	queryParams    []queryParam

	logger         zerolog.Logger
	httpClient     *http.Client
	dialTimeout    time.Duration
	argumentPolicy ArgumentPolicy
}

// NewConnectionConfig starts a builder for a connection to domain/hub with
// secure defaults (wss/https, no authentication, no query parameters).
func NewConnectionConfig(domain, hub string) *ConnectionConfig {
	return &ConnectionConfig{
		secure:         true,
		domain:         domain,
		hub:            hub,
		logger:         zerolog.Nop(),
		httpClient:     http.DefaultClient,
		dialTimeout:    10 * time.Second,
		argumentPolicy: ArgumentPolicyStrict,
	}
}

// Option configures a ConnectionConfig's ambient behavior beyond the wire
// parameters already covered by the fluent With* methods.
type Option interface {
	applyOption(*ConnectionConfig)
}

type optionFunc func(*ConnectionConfig)

func (f optionFunc) applyOption(c *ConnectionConfig) { f(c) }

// WithLogger attaches a zerolog.Logger used for diagnostics (malformed
// frames, duplicate registry keys, receive-loop termination). The default is
// a disabled no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return optionFunc(func(c *ConnectionConfig) { c.logger = logger })
}

// WithHTTPClient overrides the *http.Client used for the negotiate exchange.
func WithHTTPClient(client *http.Client) Option {
	return optionFunc(func(c *ConnectionConfig) { c.httpClient = client })
}

// WithDialTimeout bounds how long the socket dial may take. The negotiate
// request is not bounded by it; only ctx and the HTTP client limit it.
func WithDialTimeout(d time.Duration) Option {
	return optionFunc(func(c *ConnectionConfig) { c.dialTimeout = d })
}

// WithArgumentPolicy selects the behavior of ArgumentConfiguration.Argument
// on serialization failure. See ArgumentPolicy.
func WithArgumentPolicy(p ArgumentPolicy) Option {
	return optionFunc(func(c *ConnectionConfig) { c.argumentPolicy = p })
}

// Apply applies ambient options to the configuration; used by ConnectWith.
func (c *ConnectionConfig) Apply(opts ...Option) *ConnectionConfig {
	for _, o := range opts {
		o.applyOption(c)
	}
	return c
}

// WithPort sets the TCP port used in derived URLs.
func (c *ConnectionConfig) WithPort(port int) *ConnectionConfig {
	c.port = &port
	return c
}

// WithHub replaces the hub path segment.
func (c *ConnectionConfig) WithHub(hub string) *ConnectionConfig {
	c.hub = hub
	return c
}

// Secure selects wss/https (the default).
func (c *ConnectionConfig) Secure() *ConnectionConfig {
	c.secure = true
	return c
}

// Unsecure selects ws/http.
func (c *ConnectionConfig) Unsecure() *ConnectionConfig {
	c.secure = false
	return c
}

// AuthenticateBasic configures HTTP Basic credentials for the negotiate call.
func (c *ConnectionConfig) AuthenticateBasic(user string, password *string) *ConnectionConfig {
	c.authentication = Authentication{Kind: AuthenticationBasic, User: user, Password: password}
	return c
}

// AuthenticateBearer configures a bearer token for the negotiate call.
func (c *ConnectionConfig) AuthenticateBearer(token string) *ConnectionConfig {
	c.authentication = Authentication{Kind: AuthenticationBearer, Token: token}
	return c
}

// WithQueryParam appends an ordered query parameter to the derived URLs.
func (c *ConnectionConfig) WithQueryParam(key, value string) *ConnectionConfig {
	c.queryParams = append(c.queryParams, queryParam{key, value})
	return c
}

// WithAccessToken is sugar for WithQueryParam("access_token", token), used
// for WebSocket subprotocols that cannot carry an Authorization header.
func (c *ConnectionConfig) WithAccessToken(token string) *ConnectionConfig {
	return c.WithQueryParam("access_token", token)
}

func (c *ConnectionConfig) httpSchema() string {
	if c.secure {
		return "https"
	}
	return "http"
}

func (c *ConnectionConfig) socketSchema() string {
	if c.secure {
		return "wss"
	}
	return "ws"
}

func (c *ConnectionConfig) hostport() string {
	if c.port != nil {
		return fmt.Sprintf("%s:%d", c.domain, *c.port)
	}
	return c.domain
}

func (c *ConnectionConfig) queryString() string {
	if len(c.queryParams) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.queryParams))
	for _, p := range c.queryParams {
		parts = append(parts, fmt.Sprintf("%s=%s", p.key, p.value))
	}
	return strings.Join(parts, "&")
}

func (c *ConnectionConfig) urlWithSchema(schema string) string {
	base := fmt.Sprintf("%s://%s/%s", schema, c.hostport(), c.hub)
	if q := c.queryString(); q != "" {
		return base + "?" + q
	}
	return base
}

// WebURL returns the http(s) URL of the hub, including query parameters.
func (c *ConnectionConfig) WebURL() string { return c.urlWithSchema(c.httpSchema()) }

// SocketURL returns the ws(s) URL of the hub, including query parameters.
func (c *ConnectionConfig) SocketURL() string { return c.urlWithSchema(c.socketSchema()) }

// NegotiateURL returns the WebURL suffixed with "/negotiate" if there are no
// query parameters, otherwise with "&negotiate".
func (c *ConnectionConfig) NegotiateURL() string {
	url := c.WebURL()
	if strings.Contains(url, "?") {
		return url + "&negotiate"
	}
	return url + "/negotiate"
}
