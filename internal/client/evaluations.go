package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// EvaluationsClient implements nomad.EvaluationsClient. Reads by ID report a
// 404 as ErrNotFound.
type EvaluationsClient struct {
	transport nomad.Transport
}

// NewEvaluationsClient creates a new evaluations client.
func NewEvaluationsClient(transport nomad.Transport) *EvaluationsClient {
	return &EvaluationsClient{transport: transport}
}

// List implements nomad.EvaluationsClient.List.
func (c *EvaluationsClient) List(ctx context.Context, query *nomad.QueryOptions) (*nomad.Result, error) {
	params, err := listParams(query)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/evaluations", params, nomad.WithIndex(), nomad.DecodeField("Payload"))
	if err != nil {
		return nil, fmt.Errorf("listing evaluations: %w", err)
	}

	return result, nil
}

// Read implements nomad.EvaluationsClient.Read.
func (c *EvaluationsClient) Read(ctx context.Context, evalID string) (*nomad.Result, error) {
	err := requireID("evaluation", evalID)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/evaluation/"+evalID, nil, nomad.RequireFound(), nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("reading evaluation %s: %w", evalID, err)
	}

	return result, nil
}

// Allocations implements nomad.EvaluationsClient.Allocations.
func (c *EvaluationsClient) Allocations(ctx context.Context, evalID string) (*nomad.Result, error) {
	err := requireID("evaluation", evalID)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/evaluation/"+evalID+"/allocations", nil,
		nomad.RequireFound(), nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("listing allocations of evaluation %s: %w", evalID, err)
	}

	return result, nil
}
