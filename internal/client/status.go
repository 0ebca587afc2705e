package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// StatusClient implements nomad.StatusClient.
type StatusClient struct {
	transport nomad.Transport
}

// NewStatusClient creates a new status client.
func NewStatusClient(transport nomad.Transport) *StatusClient {
	return &StatusClient{transport: transport}
}

// Leader implements nomad.StatusClient.Leader. The data is the leader's
// "ip:port" string.
func (c *StatusClient) Leader(ctx context.Context) (*nomad.Result, error) {
	result, err := getJSON(ctx, c.transport, "/v1/status/leader", nil, nomad.RequireFound())
	if err != nil {
		return nil, fmt.Errorf("reading leader: %w", err)
	}

	return result, nil
}

// Peers implements nomad.StatusClient.Peers.
func (c *StatusClient) Peers(ctx context.Context) (*nomad.Result, error) {
	result, err := getJSON(ctx, c.transport, "/v1/status/peers", nil, nomad.RequireFound())
	if err != nil {
		return nil, fmt.Errorf("listing raft peers: %w", err)
	}

	return result, nil
}
