package http

import (
	"fmt"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// New builds the transport selected by cfg.Transport.
func New(cfg *nomad.ResolvedConfig) (nomad.Transport, error) {
	var (
		transport nomad.Transport
		err       error
	)

	switch cfg.Transport {
	case nomad.TransportBlocking, "":
		transport, err = NewBlocking(cfg)
	case nomad.TransportLoop:
		transport, err = NewLoop(cfg)
	case nomad.TransportTasks:
		transport, err = NewTasks(cfg)
	default:
		return nil, fmt.Errorf("%w: transport %q", nomad.ErrInvalidOption, cfg.Transport)
	}

	if err != nil {
		return nil, fmt.Errorf("creating %s transport: %w", cfg.Transport, err)
	}

	return transport, nil
}
