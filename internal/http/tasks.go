package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/semaphore"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// Tasks runs each exchange as an independent task. At most MaxInFlight
// tasks hold a connection at once; the rest wait for a slot.
type Tasks struct {
	endpoint *Endpoint
	client   *resty.Client
	slots    *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ nomad.Transport = (*Tasks)(nil)

// Task is a submitted exchange. Its error is the callback's error, or a
// transport error when the exchange failed.
type Task struct {
	done chan struct{}
	err  error
}

// Done is closed when the task, callback included, has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Await waits for the task or for ctx. Returning early on ctx does not stop
// the task; cancel the context the task was submitted with for that.
func (t *Task) Await(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return nomad.NewTimeoutError(ctx.Err())
	}
}

func (t *Task) wait() error {
	<-t.done

	return t.err
}

func finishedTask(err error) *Task {
	task := &Task{done: make(chan struct{}), err: err}
	close(task.done)

	return task
}

// NewTasks creates a task transport.
func NewTasks(cfg *nomad.ResolvedConfig) (*Tasks, error) {
	endpoint, err := NewEndpoint(cfg)
	if err != nil {
		return nil, err
	}

	client := resty.NewWithClient(endpoint.newHTTPClient()).
		SetLogger(restyLogger{logger: endpoint.logger}).
		SetDebug(false)

	ctx, cancel := context.WithCancel(context.Background())

	return &Tasks{
		endpoint: endpoint,
		client:   client,
		slots:    semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Submit starts an exchange and returns without waiting for it.
func (t *Tasks) Submit(ctx context.Context, cb nomad.Callback, method, path string, params nomad.Params, data []byte) *Task {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()

		return finishedTask(nomad.ErrTransportClosed)
	}

	t.wg.Add(1)
	t.mu.Unlock()

	req, err := t.endpoint.prepare(ctx, method, path, params, data)
	if err != nil {
		t.wg.Done()

		return finishedTask(err)
	}

	task := &Task{done: make(chan struct{})}

	go func() {
		defer t.wg.Done()
		defer close(task.done)

		task.err = t.run(ctx, cb, req)
	}()

	return task
}

// Get implements nomad.Transport.
func (t *Tasks) Get(ctx context.Context, cb nomad.Callback, path string, params nomad.Params) error {
	return t.Submit(ctx, cb, http.MethodGet, path, params, nil).wait()
}

// Put implements nomad.Transport.
func (t *Tasks) Put(ctx context.Context, cb nomad.Callback, path string, params nomad.Params, data []byte) error {
	return t.Submit(ctx, cb, http.MethodPut, path, params, data).wait()
}

// Post implements nomad.Transport.
func (t *Tasks) Post(ctx context.Context, cb nomad.Callback, path string, params nomad.Params, data []byte) error {
	return t.Submit(ctx, cb, http.MethodPost, path, params, data).wait()
}

// Delete implements nomad.Transport.
func (t *Tasks) Delete(ctx context.Context, cb nomad.Callback, path string, params nomad.Params) error {
	return t.Submit(ctx, cb, http.MethodDelete, path, params, nil).wait()
}

// Close rejects new tasks, cancels running ones and waits for them.
func (t *Tasks) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()

		return nil
	}

	t.closed = true
	t.mu.Unlock()

	t.cancel()
	t.wg.Wait()
	t.client.GetClient().CloseIdleConnections()

	return nil
}

func (t *Tasks) run(callCtx context.Context, cb nomad.Callback, req *nomad.Request) error {
	ctx, cancel := context.WithCancel(callCtx)
	stop := context.AfterFunc(t.ctx, cancel)

	defer func() {
		stop()
		cancel()
	}()

	err := t.slots.Acquire(ctx, 1)
	if err != nil {
		return nomad.NewTimeoutError(err)
	}

	defer t.slots.Release(1)

	resp, err := t.execute(ctx, req)
	t.endpoint.complete(ctx, req, resp, err)

	if err != nil {
		return err
	}

	return cb(resp)
}

func (t *Tasks) execute(ctx context.Context, req *nomad.Request) (*nomad.Response, error) {
	request := t.client.R().
		SetContext(ctx).
		SetHeaderMultiValues(req.Headers)

	if req.Body != nil {
		request.SetBody(req.Body)
	}

	resp, err := request.Execute(req.Method, t.endpoint.URL(req.Path, req.Params))
	if err != nil {
		return nil, transportError(ctx, err)
	}

	return nomad.NewResponse(resp.StatusCode(), resp.Header(), resp.Body()), nil
}

// restyLogger routes resty's printf-style logging through nomad.Logger.
type restyLogger struct {
	logger nomad.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), nil)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, v...), nil)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, v...), nil)
}
