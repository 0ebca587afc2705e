package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

type methodKey struct{}

// Blocking runs every exchange on the calling goroutine. Connection errors
// on idempotent requests are retried up to RetryMax times; HTTP statuses are
// never retried and always reach the callback.
type Blocking struct {
	endpoint *Endpoint
	client   *retryablehttp.Client
	closed   atomic.Bool
}

var _ nomad.Transport = (*Blocking)(nil)

// NewBlocking creates a blocking transport.
func NewBlocking(cfg *nomad.ResolvedConfig) (*Blocking, error) {
	endpoint, err := NewEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = endpoint.newHTTPClient()
	client.RetryMax = cfg.RetryMax
	client.RetryWaitMin = cfg.RetryWaitMin
	client.RetryWaitMax = cfg.RetryWaitMax
	client.CheckRetry = retryConnectionErrors
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = leveledLogger(cfg.Logger)

	return &Blocking{endpoint: endpoint, client: client}, nil
}

// Get implements nomad.Transport.
func (b *Blocking) Get(ctx context.Context, cb nomad.Callback, path string, params nomad.Params) error {
	return b.do(ctx, cb, http.MethodGet, path, params, nil)
}

// Put implements nomad.Transport.
func (b *Blocking) Put(ctx context.Context, cb nomad.Callback, path string, params nomad.Params, data []byte) error {
	return b.do(ctx, cb, http.MethodPut, path, params, data)
}

// Post implements nomad.Transport.
func (b *Blocking) Post(ctx context.Context, cb nomad.Callback, path string, params nomad.Params, data []byte) error {
	return b.do(ctx, cb, http.MethodPost, path, params, data)
}

// Delete implements nomad.Transport.
func (b *Blocking) Delete(ctx context.Context, cb nomad.Callback, path string, params nomad.Params) error {
	return b.do(ctx, cb, http.MethodDelete, path, params, nil)
}

// Close releases idle connections. Later calls fail with ErrTransportClosed.
func (b *Blocking) Close() error {
	b.closed.Store(true)
	b.client.HTTPClient.CloseIdleConnections()

	return nil
}

func (b *Blocking) do(ctx context.Context, cb nomad.Callback, method, path string, params nomad.Params, data []byte) error {
	if b.closed.Load() {
		return nomad.ErrTransportClosed
	}

	req, err := b.endpoint.prepare(ctx, method, path, params, data)
	if err != nil {
		return err
	}

	resp, err := b.exchange(ctx, req)
	b.endpoint.complete(ctx, req, resp, err)

	if err != nil {
		return err
	}

	return cb(resp)
}

func (b *Blocking) exchange(ctx context.Context, req *nomad.Request) (*nomad.Response, error) {
	var body interface{}
	if req.Body != nil {
		body = req.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(
		context.WithValue(ctx, methodKey{}, req.Method),
		req.Method,
		b.endpoint.URL(req.Path, req.Params),
		body,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = req.Headers.Clone()

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}

	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, fmt.Errorf("reading response body: %w", err))
	}

	return nomad.NewResponse(resp.StatusCode, resp.Header, payload), nil
}

// retryConnectionErrors retries only requests that never produced a
// response, and only for methods that are safe to repeat.
func retryConnectionErrors(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if err == nil {
		return false, nil
	}

	method, _ := ctx.Value(methodKey{}).(string)
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete:
		return true, nil
	default:
		return false, nil
	}
}

// leveledLogger hands retryablehttp the hclog logger behind an adapter.
// Other Logger implementations get no retry logging.
func leveledLogger(logger nomad.Logger) interface{} {
	if adapter, ok := logger.(*nomad.HCLogAdapter); ok {
		return retryablehttp.LeveledLogger(adapter.HCLog())
	}

	return nil
}
