// Package protocol implements the JSON-RPC 2.0 rules of the monitoring server's management API.
//
// Every call is a POST of one envelope to <host>/zabbix/api_jsonrpc.php with
// Content-Type application/json-rpc. The reply is an object carrying either "result" or "error":
//
//	→ {"jsonrpc":"2.0","auth":null,"method":"user.login","params":{"user":"Admin","password":"..."},"id":1}
//	← {"jsonrpc":"2.0","result":"0424bd59b807674191e7d77572075f33","id":1}
//	← {"jsonrpc":"2.0","error":{"code":-32602,"message":"Invalid params.","data":"..."},"id":1}
package protocol

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"go.lsp.dev/jsonrpc2"
	"zabbix-rpc/codec"
	"zabbix-rpc/message"
)

const (
	Version        = jsonrpc2.Version // Protocol version tag sent in every envelope
	EndpointPath   = "zabbix/api_jsonrpc.php"
	ContentType    = "application/json-rpc"
	HTTPMethod     = http.MethodPost // Servers reject the old GET variant
	FirstRequestID = 1
)

// Session methods. Everything else is supplied by callers.
const (
	MethodLogin  = "user.login"
	MethodLogout = "user.logout"
)

// Error codes seen in error replies. The first five are the JSON-RPC 2.0 codes,
// the last two are specific to the monitoring API.
var (
	CodeParseError       = int(jsonrpc2.ParseError)
	CodeInvalidRequest   = int(jsonrpc2.InvalidRequest)
	CodeMethodNotFound   = int(jsonrpc2.MethodNotFound)
	CodeInvalidParams    = int(jsonrpc2.InvalidParams)
	CodeInternalError    = int(jsonrpc2.InternalError)
	CodeApplicationError = -32500
	CodeTransportError   = -32300
)

// ErrMalformedResponse is returned when a reply body is not a JSON object carrying
// a "result" or a well-formed "error".
var ErrMalformedResponse = errors.New("malformed response")

// BuildURL joins the host and the fixed API path. The host is not validated: a bad
// URL only surfaces when the transport tries to connect.
func BuildURL(host string) string {
	return strings.TrimSuffix(host, "/") + "/" + EndpointPath
}

// NewRequest builds the envelope for one call. A nil params is replaced by an empty mapping
// so that it goes out as {} rather than null.
func NewRequest(auth *string, method string, params message.Params, id int) *message.Request {
	if params == nil {
		params = message.Params{}
	}
	return &message.Request{
		JSONRPC: Version,
		Auth:    auth,
		Method:  method,
		Params:  params,
		ID:      id,
	}
}

// DecodeResponse parses a reply body and applies the discrimination rule:
// an "error" key makes it an error reply, otherwise "result" holds the payload.
// A body with neither key is malformed.
func DecodeResponse(cdc codec.Codec, body []byte) (*message.Response, error) {
	var fields map[string]json.RawMessage
	if err := cdc.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: body is not an object", ErrMalformedResponse)
	}

	resp := &message.Response{
		ID: fields["id"],
	}
	if raw, ok := fields["jsonrpc"]; ok {
		// Version is informational; a non-string value is kept as its raw JSON text
		if err := cdc.Unmarshal(raw, &resp.JSONRPC); err != nil {
			resp.JSONRPC = string(raw)
		}
	}

	if raw, ok := fields["error"]; ok {
		var rpcErr message.Error
		if string(raw) == "null" {
			return nil, fmt.Errorf("%w: error is null", ErrMalformedResponse)
		}
		if err := cdc.Unmarshal(raw, &rpcErr); err != nil {
			return nil, fmt.Errorf("%w: error payload: %v", ErrMalformedResponse, err)
		}
		resp.Error = &rpcErr
		return resp, nil
	}

	result, ok := fields["result"]
	if !ok {
		return nil, fmt.Errorf("%w: neither result nor error present", ErrMalformedResponse)
	}
	resp.Result = result
	return resp, nil
}

// IDMatches reports whether the reply echoes the given request id.
// Replies without an id, or with a null id, are accepted.
func IDMatches(resp *message.Response, id int) bool {
	raw := strings.TrimSpace(string(resp.ID))
	if raw == "" || raw == "null" {
		return true
	}
	raw = strings.Trim(raw, `"`)
	got, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}
	return got == id
}
