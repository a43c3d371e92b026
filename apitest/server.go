// Package apitest provides an in-process monitoring API server for tests.
//
// The server speaks the same envelope as a real frontend: user.login checks credentials
// and issues a token, user.logout invalidates it, every other method requires a live token
// and is dispatched to a registered handler. All requests are recorded so tests can assert
// on the exact envelopes a client produced.
//
//	svr := apitest.NewServer(apitest.WithCredentials("Admin", "zabbix"), apitest.WithToken("tok123"))
//	defer svr.Close()
//	svr.Handle("item.get", func(req *message.Request) (any, *message.Error) { ... })
//	cli, err := client.New(ctx, svr.Host(), "Admin", "zabbix")
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"go.uber.org/zap"
	"zabbix-rpc/codec"
	"zabbix-rpc/message"
	"zabbix-rpc/protocol"
)

// Handler serves one API method. Returning a non-nil error produces an error reply.
type Handler func(req *message.Request) (any, *message.Error)

// Call is one recorded request.
type Call struct {
	HTTPMethod  string
	ContentType string
	Path        string
	Body        []byte
	Request     message.Request // Zero value when the body could not be decoded
}

type rawReply struct {
	status int
	body   string
}

// Server is a fake API frontend backed by httptest.
type Server struct {
	mu       sync.Mutex
	http     *httptest.Server
	codec    codec.Codec
	logger   *zap.Logger
	handlers map[string]Handler
	calls    []Call
	queued   []rawReply // Raw replies served before any handler runs
	user     string
	password string
	token    string
	sessions map[string]bool // Live tokens
}

type Option func(*Server)

// WithCredentials sets the only user/password pair user.login accepts. Default Admin/zabbix.
func WithCredentials(user, password string) Option {
	return func(s *Server) {
		s.user = user
		s.password = password
	}
}

// WithToken sets the token issued on login. Default "tok123".
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer starts a server. Callers must Close it.
func NewServer(opts ...Option) *Server {
	s := &Server{
		codec:    codec.GetCodec(codec.CodecTypeJSON),
		logger:   zap.NewNop(),
		handlers: make(map[string]Handler),
		user:     "Admin",
		password: "zabbix",
		token:    "tok123",
		sessions: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/"+protocol.EndpointPath, s.serveHTTP)
	s.http = httptest.NewServer(mux)
	return s
}

// Host returns the base URL to construct clients with, trailing slash included.
func (s *Server) Host() string {
	return s.http.URL + "/"
}

// URL returns the full API URL.
func (s *Server) URL() string {
	return protocol.BuildURL(s.Host())
}

// Handle registers a handler for method, replacing any previous one
// (including the built-in user.login / user.logout).
func (s *Server) Handle(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Reply queues a raw HTTP reply for the next request, bypassing the envelope handling.
// The request is still recorded.
func (s *Server) Reply(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued = append(s.queued, rawReply{status: status, body: body})
}

// Calls returns a copy of the recorded requests in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// LastCall returns the most recent request; ok is false if there was none.
func (s *Server) LastCall() (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return Call{}, false
	}
	return s.calls[len(s.calls)-1], true
}

// Active reports whether token is a live session.
func (s *Server) Active(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[token]
}

// Close shuts the server down.
func (s *Server) Close() {
	s.http.Close()
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	call := Call{
		HTTPMethod:  r.Method,
		ContentType: r.Header.Get("Content-Type"),
		Path:        r.URL.Path,
		Body:        body,
	}
	decodeErr := s.codec.Unmarshal(body, &call.Request)

	s.mu.Lock()
	s.calls = append(s.calls, call)
	var queued *rawReply
	if len(s.queued) > 0 {
		queued = &s.queued[0]
		s.queued = s.queued[1:]
	}
	s.mu.Unlock()

	if queued != nil {
		w.WriteHeader(queued.status)
		io.WriteString(w, queued.body)
		return
	}

	if r.Method != protocol.HTTPMethod {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if decodeErr != nil {
		s.writeReply(w, nil, nil, &message.Error{
			Code:    protocol.CodeParseError,
			Message: "Invalid JSON. An error occurred on the server while parsing the JSON text.",
		})
		return
	}

	req := &call.Request
	result, rpcErr := s.dispatch(req)
	s.logger.Debug("served call", zap.String("method", req.Method), zap.Int("id", req.ID), zap.Bool("error", rpcErr != nil))
	s.writeReply(w, req, result, rpcErr)
}

func (s *Server) dispatch(req *message.Request) (any, *message.Error) {
	s.mu.Lock()
	h, ok := s.handlers[req.Method]
	s.mu.Unlock()
	if ok {
		if req.Method != protocol.MethodLogin && !s.authorised(req) {
			return nil, notAuthorised()
		}
		return h(req)
	}

	switch req.Method {
	case protocol.MethodLogin:
		return s.login(req)
	case protocol.MethodLogout:
		return s.logout(req)
	default:
		if !s.authorised(req) {
			return nil, notAuthorised()
		}
		return nil, &message.Error{
			Code:    protocol.CodeMethodNotFound,
			Message: "Method not found.",
			Data:    quote(fmt.Sprintf("Incorrect API %q.", req.Method)),
		}
	}
}

func (s *Server) authorised(req *message.Request) bool {
	return req.Auth != nil && s.Active(*req.Auth)
}

func (s *Server) login(req *message.Request) (any, *message.Error) {
	user, _ := req.Params["user"].(string)
	if user == "" {
		user, _ = req.Params["username"].(string)
	}
	password, _ := req.Params["password"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	if user != s.user || password != s.password {
		return nil, &message.Error{
			Code:    protocol.CodeInvalidParams,
			Message: "Invalid params.",
			Data:    quote("Incorrect user name or password or account is temporarily blocked."),
		}
	}
	s.sessions[s.token] = true
	return s.token, nil
}

func (s *Server) logout(req *message.Request) (any, *message.Error) {
	if !s.authorised(req) {
		return nil, &message.Error{
			Code:    protocol.CodeInvalidParams,
			Message: "Invalid params.",
			Data:    quote("Session terminated, re-login, please."),
		}
	}
	s.mu.Lock()
	delete(s.sessions, *req.Auth)
	s.mu.Unlock()
	return true, nil
}

func notAuthorised() *message.Error {
	return &message.Error{
		Code:    protocol.CodeInvalidParams,
		Message: "Invalid params.",
		Data:    quote("Not authorised."),
	}
}

func quote(s string) json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}

func (s *Server) writeReply(w http.ResponseWriter, req *message.Request, result any, rpcErr *message.Error) {
	reply := map[string]any{
		"jsonrpc": protocol.Version,
		"id":      nil,
	}
	if req != nil {
		reply["id"] = req.ID
	}
	if rpcErr != nil {
		reply["error"] = rpcErr
	} else {
		reply["result"] = result
	}

	data, err := s.codec.Marshal(reply)
	if err != nil {
		s.logger.Error("encoding reply failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
