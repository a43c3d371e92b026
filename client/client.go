// Package client implements the session client of the monitoring server's JSON-RPC API.
//
// A Client owns one authenticated session against one endpoint:
//
//	New ──user.login──→ token stored ──Call/Invoke──→ ... ──Logout──→ user.logout
//
// Every call carries the session token and a request id. The id starts at 1 and advances
// by one each time a reply has been parsed, whether it is a result or an error reply.
// A call that never got a parsable reply (connection refused, timeout, garbage body)
// leaves the id where it was.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/juju/errors"
	"go.uber.org/zap"
	"zabbix-rpc/codec"
	"zabbix-rpc/message"
	"zabbix-rpc/middleware"
	"zabbix-rpc/protocol"
	"zabbix-rpc/transport"
)

// Endpoint is the server a client talks to. It never changes after construction.
type Endpoint struct {
	Host string // As given by the caller
	URL  string // Host joined with the API path
}

// Credentials are only used for the login round trip and are not kept afterwards.
type Credentials struct {
	User     string
	Password string
}

// Client is a session with one API endpoint.
//
// Calls are serialized: one round trip is in flight at a time per client.
type Client struct {
	endpoint    Endpoint
	codec       codec.Codec
	transport   transport.Transport
	handler     middleware.HandlerFunc // middleware(middleware(...(roundTrip)))
	logger      *zap.Logger
	onError     ErrorHandler
	strictLogin bool

	mu        sync.Mutex // Guards everything below and serializes round trips
	token     *string    // nil until a successful login
	requestID int
	state     State
	lastErr   error // Last error reply swallowed by Invoke
}

// New builds a client for host and logs in with user and password.
//
// An error reply to user.login does not fail construction: the client comes back in
// StateDegraded without a token and its calls go out with "auth": null. WithStrictLogin
// turns that into a *LoginError. A transport failure during login is always returned.
func New(ctx context.Context, host, user, password string, opts ...Option) (*Client, error) {
	c := newClient(host, opts...)
	if err := c.login(ctx, Credentials{User: user, Password: password}); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(host string, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		endpoint: Endpoint{
			Host: host,
			URL:  protocol.BuildURL(host),
		},
		codec:       codec.GetCodec(o.codecType),
		transport:   o.transport,
		logger:      o.logger.With(zap.String("url", protocol.BuildURL(host))),
		onError:     o.onError,
		strictLogin: o.strictLogin,
		requestID:   protocol.FirstRequestID,
		state:       StateUnauthenticated,
	}
	if c.transport == nil {
		c.transport = transport.NewHTTPTransport(o.timeout)
	}
	c.handler = middleware.Chain(o.middlewares...)(c.roundTrip)
	return c
}

func (c *Client) login(ctx context.Context, creds Credentials) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateAuthenticating
	result, err := c.call(ctx, protocol.MethodLogin, message.Params{
		"user":     creds.User,
		"password": creds.Password,
	})

	var apiErr *message.Error
	switch {
	case errors.As(err, &apiErr):
		c.state = StateDegraded
		c.report(protocol.MethodLogin, apiErr)
		if c.strictLogin {
			return &LoginError{User: creds.User, Err: apiErr}
		}
		return nil
	case err != nil:
		c.state = StateUnauthenticated
		return err
	}

	token, ok := tokenFromResult(result)
	if !ok {
		c.state = StateDegraded
		c.logger.Warn("login returned no token", zap.String("user", creds.User))
		if c.strictLogin {
			return &LoginError{User: creds.User, Err: ErrNoToken}
		}
		return nil
	}
	c.token = &token
	c.state = StateAuthenticated
	c.logger.Debug("logged in", zap.String("user", creds.User))
	return nil
}

// tokenFromResult keeps the login result verbatim: the server sends a bare JSON string,
// anything else is stored as its raw JSON text. A null or empty result is no token.
func tokenFromResult(result json.RawMessage) (string, bool) {
	raw := strings.TrimSpace(string(result))
	if raw == "" || raw == "null" {
		return "", false
	}
	var token string
	if err := json.Unmarshal(result, &token); err == nil {
		if token == "" {
			return "", false
		}
		return token, true
	}
	return raw, true
}

// Call invokes method and returns its raw result.
//
// An error reply comes back as a *message.Error (use errors.As); the request id has
// advanced in that case. Transport failures and malformed replies are returned as they
// are and leave the request id unchanged.
func (c *Client) Call(ctx context.Context, method string, params message.Params) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.call(ctx, method, params)
}

// Invoke is Call with error replies swallowed: the error is reported through the logger,
// the ErrorHandler and LastError, and the result is nil. A nil result therefore does not
// tell an empty success from a failed call; use Call when the difference matters.
// Transport failures are still returned.
func (c *Client) Invoke(ctx context.Context, method string, params message.Params) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invoke(ctx, method, params)
}

func (c *Client) invoke(ctx context.Context, method string, params message.Params) (json.RawMessage, error) {
	result, err := c.call(ctx, method, params)
	var apiErr *message.Error
	if errors.As(err, &apiErr) {
		c.report(method, apiErr)
		return nil, nil
	}
	return result, err
}

// Logout sends user.logout with the current token. The token is kept in memory even
// though the server no longer honours it. Error replies are swallowed as in Invoke.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := c.requestID
	if _, err := c.invoke(ctx, protocol.MethodLogout, nil); err != nil {
		return err
	}
	if c.requestID != before {
		c.state = StateClosed
	}
	return nil
}

// call must be called with c.mu held.
func (c *Client) call(ctx context.Context, method string, params message.Params) (json.RawMessage, error) {
	req := protocol.NewRequest(c.token, method, params, c.requestID)

	resp, err := c.handler(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: handler returned no reply for %s", protocol.ErrMalformedResponse, method)
	}
	if !protocol.IDMatches(resp, req.ID) {
		c.logger.Warn("reply id does not match request", zap.String("method", method), zap.Int("id", req.ID), zap.ByteString("reply_id", resp.ID))
	}
	if resp.Failed() {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// roundTrip is the innermost handler: encode, send, decode. The request id advances
// here and only here, once the reply has been parsed.
func (c *Client) roundTrip(ctx context.Context, req *message.Request) (*message.Response, error) {
	body, err := c.codec.Marshal(req)
	if err != nil {
		return nil, errors.Annotatef(err, "encoding %s request", req.Method)
	}

	header := http.Header{}
	header.Set("Content-Type", protocol.ContentType)

	data, err := c.transport.Send(ctx, protocol.HTTPMethod, c.endpoint.URL, header, body)
	if err != nil {
		return nil, err
	}

	resp, err := protocol.DecodeResponse(c.codec, data)
	if err != nil {
		return nil, err
	}

	c.requestID++
	return resp, nil
}

// report sends a swallowed error reply to the side channel.
func (c *Client) report(method string, apiErr *message.Error) {
	c.lastErr = apiErr
	c.logger.Warn("API error reply",
		zap.String("method", method),
		zap.Int("code", apiErr.Code),
		zap.String("error", apiErr.Error()),
	)
	if c.onError != nil {
		c.onError(method, apiErr)
	}
}

// Endpoint returns the endpoint the client was built for.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// URL returns the full API URL.
func (c *Client) URL() string {
	return c.endpoint.URL
}

// Token returns the session token; ok is false when login did not succeed.
func (c *Client) Token() (token string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil {
		return "", false
	}
	return *c.token, true
}

// RequestID returns the id the next request will carry.
func (c *Client) RequestID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestID
}

// State returns where the session is in its lifecycle.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the last error reply swallowed by Invoke, Logout or login.
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
