package nomadclient

import (
	"fmt"

	"github.com/fivetwenty-io/nomad-client/internal/client"
	internalhttp "github.com/fivetwenty-io/nomad-client/internal/http"
	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// New creates a Nomad API client. Settings not given in config are taken
// from the NOMAD_* environment variables, then from defaults. A nil config
// is the same as an empty one.
func New(config *nomad.Config) (nomad.Client, error) {
	if config == nil {
		config = &nomad.Config{}
	}

	resolved, err := config.ResolveFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("resolving client configuration: %w", err)
	}

	return NewFromResolved(resolved)
}

// NewFromResolved creates a client from an already resolved configuration.
func NewFromResolved(resolved *nomad.ResolvedConfig) (nomad.Client, error) {
	resolved, err := withMetrics(resolved)
	if err != nil {
		return nil, err
	}

	transport, err := internalhttp.New(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client.New(transport), nil
}

// NewWithAddress creates a client for address, e.g. "https://nomad.example.com:4646".
func NewWithAddress(address string) (nomad.Client, error) {
	return New(&nomad.Config{Address: address})
}

// NewWithToken creates a client for address that authenticates with token.
func NewWithToken(address, token string) (nomad.Client, error) {
	return New(&nomad.Config{Address: address, Token: token})
}

// NewWithTransport wraps an existing transport. The returned client owns
// it: closing the client closes the transport.
func NewWithTransport(transport nomad.Transport) (nomad.Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", nomad.ErrInvalidOption)
	}

	return client.New(transport), nil
}

// withMetrics returns a copy of resolved whose interceptor chain also feeds
// the request observer when a Prometheus registerer is set. The caller's
// chain is left untouched.
func withMetrics(resolved *nomad.ResolvedConfig) (*nomad.ResolvedConfig, error) {
	if resolved.Metrics == nil {
		return resolved, nil
	}

	observer, err := nomad.NewRequestObserver(resolved.Metrics)
	if err != nil {
		return nil, err
	}

	observed := *resolved
	observed.Interceptors = observer.Attach(resolved.Interceptors.Clone())

	return &observed, nil
}
