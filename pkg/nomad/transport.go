package nomad

import (
	"context"
	"fmt"
)

// Transport performs one HTTP exchange per call and hands the Response to cb.
//
// Any HTTP status, including 4xx and 5xx, reaches cb; the error returned is
// then cb's. Connection-level failures (timeouts, refused connections, DNS)
// are returned as KindTimeout errors and cb is not invoked. Body data is
// ignored by Get and Delete.
type Transport interface {
	Get(ctx context.Context, cb Callback, path string, params Params) error
	Put(ctx context.Context, cb Callback, path string, params Params, data []byte) error
	Post(ctx context.Context, cb Callback, path string, params Params, data []byte) error
	Delete(ctx context.Context, cb Callback, path string, params Params) error
	Close() error
}

// TransportKind selects a concrete Transport at client construction.
type TransportKind string

const (
	// TransportBlocking runs each exchange on the calling goroutine.
	TransportBlocking TransportKind = "blocking"
	// TransportLoop multiplexes exchanges through a single reactor goroutine.
	TransportLoop TransportKind = "loop"
	// TransportTasks runs each exchange as a bounded asynchronous task.
	TransportTasks TransportKind = "tasks"
)

// ParseTransportKind validates a transport name. Empty means blocking.
func ParseTransportKind(name string) (TransportKind, error) {
	switch kind := TransportKind(name); kind {
	case "":
		return TransportBlocking, nil
	case TransportBlocking, TransportLoop, TransportTasks:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: transport %q", ErrInvalidOption, name)
	}
}
