// Package message defines the JSON-RPC envelope exchanged between the client and the API server.
//
// Request is the "envelope" for every call. It carries the session token and the request id
// next to the business parameters, gets serialized by the codec layer and POSTed over HTTP.
// Response is what comes back: either a result or an error payload, never both.
package message

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Params is the parameter mapping of a call. A nil Params is sent as {}.
type Params map[string]any

// Request carries the data for a single call.
type Request struct {
	JSONRPC string  `json:"jsonrpc"` // Always "2.0"
	Auth    *string `json:"auth"`    // Session token, null before login
	Method  string  `json:"method"`  // e.g. "item.get"
	Params  Params  `json:"params"`
	ID      int     `json:"id"` // Request identifier, starts at 1
}

// Response carries the data for a single reply.
//
//   - On success: Result holds the raw JSON result, Error is nil.
//   - On failure: Error is set and Result is ignored.
type Response struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"` // Echoed request id, kept raw
}

// Failed reports whether the response is an error reply.
func (r *Response) Failed() bool {
	return r.Error != nil
}

// Error is the error payload of a reply. It implements error so that an error reply
// can travel through the usual error paths.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error returns "code message data", the way the server's diagnostics are usually printed.
func (e *Error) Error() string {
	parts := []string{fmt.Sprintf("%d", e.Code), e.Message}
	if detail := e.Detail(); detail != "" {
		parts = append(parts, detail)
	}
	return strings.Join(parts, " ")
}

// Detail renders the data field: string values unquoted, anything else as raw JSON.
func (e *Error) Detail() string {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return s
	}
	return string(e.Data)
}
