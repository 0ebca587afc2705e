package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// ClientStatsClient implements nomad.ClientStatsClient. These endpoints are
// served by the client agent whose usage is wanted, not by the servers.
type ClientStatsClient struct {
	transport nomad.Transport
}

// NewClientStatsClient creates a new client stats client.
func NewClientStatsClient(transport nomad.Transport) *ClientStatsClient {
	return &ClientStatsClient{transport: transport}
}

// Stats implements nomad.ClientStatsClient.Stats.
func (c *ClientStatsClient) Stats(ctx context.Context) (*nomad.Result, error) {
	result, err := getJSON(ctx, c.transport, "/v1/client/stats", nil, nomad.RequireFound())
	if err != nil {
		return nil, fmt.Errorf("reading client stats: %w", err)
	}

	return result, nil
}

// AllocationStats implements nomad.ClientStatsClient.AllocationStats.
func (c *ClientStatsClient) AllocationStats(ctx context.Context, allocID string) (*nomad.Result, error) {
	err := requireID("allocation", allocID)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/client/allocation/"+allocID+"/stats", nil, nomad.RequireFound())
	if err != nil {
		return nil, fmt.Errorf("reading stats of allocation %s: %w", allocID, err)
	}

	return result, nil
}
