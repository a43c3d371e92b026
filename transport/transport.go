// Package transport implements the HTTP side of a call.
//
// The session client never talks to net/http directly. It hands a fully serialized
// envelope to a Transport, which performs one blocking round trip and returns the raw body:
//
//	client ──Send(POST, url, header, body)──→ Transport ──→ API server
//	client ←──────────── raw reply body ───── Transport ←──
//
// Decoding and error-vs-result discrimination happen above this layer, so a Transport
// only reports failures of the round trip itself.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/juju/errors"
)

// DefaultTimeout bounds a whole round trip when no other timeout is configured.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a reply is read into memory.
const maxBodySize = 64 << 20

// Transport performs a single request/response exchange.
type Transport interface {
	Send(ctx context.Context, method, url string, header http.Header, body []byte) ([]byte, error)
}

// StatusError is returned for non-2xx HTTP replies. The API server answers every
// well-formed call with 200, including error replies, so anything else is a transport failure.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %s", e.Status)
}

// HTTPTransport sends requests through an *http.Client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport with the given overall timeout.
// A zero timeout selects DefaultTimeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
	}
}

// NewHTTPTransportWithClient wraps an existing client, e.g. one carrying a custom TLS config.
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPTransport{client: client}
}

// Send performs the round trip. The reply body is returned only for 2xx statuses.
func (t *HTTPTransport) Send(ctx context.Context, method, url string, header http.Header, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Annotate(err, "building request")
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Annotatef(err, "%s %s", method, url)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Annotate(err, "reading response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       data,
		}
	}
	return data, nil
}
