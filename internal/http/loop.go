package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// Loop multiplexes exchanges through a single reactor goroutine. The reactor
// owns the (unbuffered) submission queue and runs every callback; network I/O happens on
// short-lived goroutines that post their completion back to it. Callers
// block until the reactor delivers their result.
type Loop struct {
	endpoint *Endpoint
	client   *http.Client

	submit  chan *loopCall
	closing chan struct{}
	done    chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

var _ nomad.Transport = (*Loop)(nil)

type loopCall struct {
	ctx    context.Context
	cb     nomad.Callback
	req    *nomad.Request
	result chan error
}

type loopCompletion struct {
	call *loopCall
	resp *nomad.Response
	err  error
}

// NewLoop creates a loop transport and starts its reactor.
func NewLoop(cfg *nomad.ResolvedConfig) (*Loop, error) {
	endpoint, err := NewEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	loop := &Loop{
		endpoint: endpoint,
		client:   endpoint.newHTTPClient(),
		submit:   make(chan *loopCall),
		closing:  make(chan struct{}),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	go loop.run()

	return loop, nil
}

// Get implements nomad.Transport.
func (l *Loop) Get(ctx context.Context, cb nomad.Callback, path string, params nomad.Params) error {
	return l.do(ctx, cb, http.MethodGet, path, params, nil)
}

// Put implements nomad.Transport.
func (l *Loop) Put(ctx context.Context, cb nomad.Callback, path string, params nomad.Params, data []byte) error {
	return l.do(ctx, cb, http.MethodPut, path, params, data)
}

// Post implements nomad.Transport.
func (l *Loop) Post(ctx context.Context, cb nomad.Callback, path string, params nomad.Params, data []byte) error {
	return l.do(ctx, cb, http.MethodPost, path, params, data)
}

// Delete implements nomad.Transport.
func (l *Loop) Delete(ctx context.Context, cb nomad.Callback, path string, params nomad.Params) error {
	return l.do(ctx, cb, http.MethodDelete, path, params, nil)
}

// Close stops accepting calls, cancels in-flight exchanges and waits for the
// reactor to deliver their results.
func (l *Loop) Close() error {
	l.closeOnce.Do(func() {
		close(l.closing)
		l.cancel()
		<-l.done
		l.client.CloseIdleConnections()
	})

	return nil
}

func (l *Loop) do(ctx context.Context, cb nomad.Callback, method, path string, params nomad.Params, data []byte) error {
	select {
	case <-l.closing:
		return nomad.ErrTransportClosed
	default:
	}

	req, err := l.endpoint.prepare(ctx, method, path, params, data)
	if err != nil {
		return err
	}

	call := &loopCall{ctx: ctx, cb: cb, req: req, result: make(chan error, 1)}

	select {
	case l.submit <- call:
	case <-l.closing:
		return nomad.ErrTransportClosed
	case <-ctx.Done():
		return nomad.NewTimeoutError(ctx.Err())
	}

	// The exchange is bound to ctx, so the reactor answers promptly after
	// cancellation; waiting here keeps cb from running after we return.
	return <-call.result
}

func (l *Loop) run() {
	defer close(l.done)

	completions := make(chan loopCompletion)
	submit := l.submit
	closing := l.closing
	inflight := 0

	for {
		if closing == nil && inflight == 0 {
			return
		}

		select {
		case call := <-submit:
			inflight++

			go l.exchange(call, completions)
		case completion := <-completions:
			inflight--

			completion.call.result <- l.deliver(completion)
		case <-closing:
			submit = nil
			closing = nil
		}
	}
}

func (l *Loop) deliver(completion loopCompletion) error {
	if completion.err != nil {
		return completion.err
	}

	if err := completion.call.ctx.Err(); err != nil {
		return nomad.NewTimeoutError(err)
	}

	return completion.call.cb(completion.resp)
}

func (l *Loop) exchange(call *loopCall, completions chan<- loopCompletion) {
	ctx, cancel := context.WithCancel(call.ctx)
	stop := context.AfterFunc(l.ctx, cancel)

	defer func() {
		stop()
		cancel()
	}()

	resp, err := l.roundTrip(ctx, call.req)
	l.endpoint.complete(ctx, call.req, resp, err)

	completions <- loopCompletion{call: call, resp: resp, err: err}
}

func (l *Loop) roundTrip(ctx context.Context, req *nomad.Request) (*nomad.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, l.endpoint.URL(req.Path, req.Params), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = req.Headers.Clone()

	resp, err := l.client.Do(httpReq)
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
