package nomad

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
)

// Response is the outcome of one HTTP exchange. Transports build it once and
// hand it to exactly one Callback; nothing mutates it afterwards.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// NewResponse builds a Response, copying headers and body so the caller's
// buffers can be reused.
func NewResponse(statusCode int, headers http.Header, body []byte) *Response {
	resp := &Response{
		StatusCode: statusCode,
		Headers:    headers.Clone(),
	}

	if body != nil {
		resp.Body = append([]byte(nil), body...)
	}

	if resp.Headers == nil {
		resp.Headers = http.Header{}
	}

	return resp
}

// Index returns the blocking-query index carried by the response. A missing
// header yields (0, false, nil).
func (r *Response) Index() (uint64, bool, error) {
	raw := r.Headers.Get(constants.HeaderIndex)
	if raw == "" {
		return 0, false, nil
	}

	index, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w %q: %w", ErrInvalidIndex, raw, err)
	}

	return index, true, nil
}

// Callback consumes the Response of one exchange.
type Callback func(resp *Response) error
