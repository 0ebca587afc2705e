package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// NodesClient implements nomad.NodesClient.
type NodesClient struct {
	transport nomad.Transport
}

// NewNodesClient creates a new nodes client.
func NewNodesClient(transport nomad.Transport) *NodesClient {
	return &NodesClient{transport: transport}
}

// List implements nomad.NodesClient.List.
func (c *NodesClient) List(ctx context.Context, query *nomad.QueryOptions) (*nomad.Result, error) {
	params, err := listParams(query)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/nodes", params, nomad.WithIndex(), nomad.DecodeField("Payload"))
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}

	return result, nil
}

// Read implements nomad.NodesClient.Read.
func (c *NodesClient) Read(ctx context.Context, nodeID string) (*nomad.Result, error) {
	err := requireID("node", nodeID)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/node/"+nodeID, nil, nomad.RequireFound(), nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("reading node %s: %w", nodeID, err)
	}

	return result, nil
}

// Allocations implements nomad.NodesClient.Allocations.
func (c *NodesClient) Allocations(ctx context.Context, nodeID string) (*nomad.Result, error) {
	err := requireID("node", nodeID)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/node/"+nodeID+"/allocations", nil,
		nomad.RequireFound(), nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("listing allocations of node %s: %w", nodeID, err)
	}

	return result, nil
}

// Evaluate implements nomad.NodesClient.Evaluate.
func (c *NodesClient) Evaluate(ctx context.Context, nodeID string) (*nomad.Result, error) {
	return c.post(ctx, nodeID, "/evaluate", "evaluating node", nil)
}

// Drain implements nomad.NodesClient.Drain.
func (c *NodesClient) Drain(ctx context.Context, nodeID string, enabled bool) (*nomad.Result, error) {
	params := nomad.Params{}.Add("enabled", strconv.FormatBool(enabled))

	return c.post(ctx, nodeID, "/drain", "setting drain on node", params)
}

// Purge implements nomad.NodesClient.Purge.
func (c *NodesClient) Purge(ctx context.Context, nodeID string) (*nomad.Result, error) {
	return c.post(ctx, nodeID, "/purge", "purging node", nil)
}

// Contains implements nomad.NodesClient.Contains.
func (c *NodesClient) Contains(ctx context.Context, nodeID string) (bool, error) {
	_, found, err := c.Lookup(ctx, nodeID)

	return found, err
}

// Lookup implements nomad.NodesClient.Lookup.
func (c *NodesClient) Lookup(ctx context.Context, nodeID string) (*nomad.Result, bool, error) {
	return lookup(func() (*nomad.Result, error) { return c.Read(ctx, nodeID) })
}

func (c *NodesClient) post(ctx context.Context, nodeID, suffix, action string, params nomad.Params) (*nomad.Result, error) {
	err := requireID("node", nodeID)
	if err != nil {
		return nil, err
	}

	result, err := postJSON(ctx, c.transport, "/v1/node/"+nodeID+suffix, params, nil, nomad.RequireFound())
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, nodeID, err)
	}

	return result, nil
}
