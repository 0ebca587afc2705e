package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// AllocationsClient implements nomad.AllocationsClient.
type AllocationsClient struct {
	transport nomad.Transport
}

// NewAllocationsClient creates a new allocations client.
func NewAllocationsClient(transport nomad.Transport) *AllocationsClient {
	return &AllocationsClient{transport: transport}
}

// List implements nomad.AllocationsClient.List.
func (c *AllocationsClient) List(ctx context.Context, query *nomad.QueryOptions) (*nomad.Result, error) {
	params, err := listParams(query)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/allocations", params, nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("listing allocations: %w", err)
	}

	return result, nil
}

// Read implements nomad.AllocationsClient.Read.
func (c *AllocationsClient) Read(ctx context.Context, allocID string) (*nomad.Result, error) {
	err := requireID("allocation", allocID)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/allocation/"+allocID, nil, nomad.RequireFound(), nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("reading allocation %s: %w", allocID, err)
	}

	return result, nil
}

// Contains implements nomad.AllocationsClient.Contains.
func (c *AllocationsClient) Contains(ctx context.Context, allocID string) (bool, error) {
	_, found, err := lookup(func() (*nomad.Result, error) { return c.Read(ctx, allocID) })

	return found, err
}
