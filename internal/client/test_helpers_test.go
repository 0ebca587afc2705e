package client

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	internalhttp "github.com/fivetwenty-io/nomad-client/internal/http"
	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// recordedRequest is what the test server saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// JSON unmarshals the recorded body into a generic map.
func (r recordedRequest) JSON(t *testing.T) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}

	require.NoError(t, json.Unmarshal(r.Body, &body))

	return body
}

// cannedResponse is what the test server answers.
type cannedResponse struct {
	Status int
	Index  string
	Body   string
}

// recorder is an httptest server that records every request and answers
// with the next canned response; the last response repeats.
type recorder struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses []cannedResponse
	server    *httptest.Server
}

func newRecorder(t *testing.T, responses ...cannedResponse) *recorder {
	t.Helper()

	rec := &recorder{responses: responses}
	rec.server = httptest.NewServer(http.HandlerFunc(rec.handle))
	t.Cleanup(rec.server.Close)

	return rec
}

func (r *recorder) handle(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)

	r.mu.Lock()
	r.requests = append(r.requests, recordedRequest{
		Method: req.Method,
		Path:   req.URL.EscapedPath(),
		Query:  req.URL.RawQuery,
		Body:   body,
	})

	response := cannedResponse{Status: http.StatusOK, Body: "{}"}
	if len(r.responses) > 0 {
		response = r.responses[0]
		if len(r.responses) > 1 {
			r.responses = r.responses[1:]
		}
	}
	r.mu.Unlock()

	if response.Index != "" {
		w.Header().Set("X-Nomad-Index", response.Index)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.Status)
	_, _ = io.WriteString(w, response.Body)
}

// last returns the most recent request.
func (r *recorder) last(t *testing.T) recordedRequest {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	require.NotEmpty(t, r.requests, "no request reached the server")

	return r.requests[len(r.requests)-1]
}

// count returns the number of recorded requests.
func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.requests)
}

// NewTestClient creates a client talking to rec over the blocking transport.
func NewTestClient(t *testing.T, rec *recorder) *Client {
	t.Helper()

	cfg := &nomad.Config{Address: rec.server.URL}

	resolved, err := cfg.Resolve(nil)
	require.NoError(t, err)

	transport, err := internalhttp.New(resolved)
	require.NoError(t, err)

	client := New(transport)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// ok answers 200 with body.
func ok(body string) cannedResponse {
	return cannedResponse{Status: http.StatusOK, Body: body}
}

// indexed answers 200 with body and an X-Nomad-Index header.
func indexed(index, body string) cannedResponse {
	return cannedResponse{Status: http.StatusOK, Index: index, Body: body}
}

// status answers code with a plain-text body.
func status(code int, body string) cannedResponse {
	return cannedResponse{Status: code, Body: body}
}
