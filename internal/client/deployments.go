package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// DeploymentsClient implements nomad.DeploymentsClient. A 404 from the list
// endpoint is an absent result; reads by ID report it as ErrNotFound.
type DeploymentsClient struct {
	transport nomad.Transport
}

// NewDeploymentsClient creates a new deployments client.
func NewDeploymentsClient(transport nomad.Transport) *DeploymentsClient {
	return &DeploymentsClient{transport: transport}
}

type deploymentPauseRequest struct {
	DeploymentID string `json:"DeploymentID"`
	Pause        bool   `json:"Pause"`
}

type deploymentPromoteRequest struct {
	DeploymentID string   `json:"DeploymentID"`
	All          bool     `json:"All,omitempty"`
	Groups       []string `json:"Groups,omitempty"`
}

type deploymentAllocHealthRequest struct {
	DeploymentID           string   `json:"DeploymentID"`
	HealthyAllocationIDs   []string `json:"HealthyAllocationIDs,omitempty"`
	UnhealthyAllocationIDs []string `json:"UnhealthyAllocationIDs,omitempty"`
}

// List implements nomad.DeploymentsClient.List.
func (c *DeploymentsClient) List(ctx context.Context, query *nomad.QueryOptions) (*nomad.Result, error) {
	params, err := listParams(query)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/deployments", params, nomad.WithIndex(), nomad.DecodeField("Payload"))
	if err != nil {
		return nil, fmt.Errorf("listing deployments: %w", err)
	}

	return result, nil
}

// Read implements nomad.DeploymentsClient.Read.
func (c *DeploymentsClient) Read(ctx context.Context, deploymentID string) (*nomad.Result, error) {
	return c.get(ctx, "/v1/deployment/", deploymentID, "reading deployment")
}

// Allocations implements nomad.DeploymentsClient.Allocations.
func (c *DeploymentsClient) Allocations(ctx context.Context, deploymentID string) (*nomad.Result, error) {
	return c.get(ctx, "/v1/deployment/allocations/", deploymentID, "listing allocations of deployment")
}

// Fail implements nomad.DeploymentsClient.Fail.
func (c *DeploymentsClient) Fail(ctx context.Context, deploymentID string) (*nomad.Result, error) {
	return c.post(ctx, "/v1/deployment/fail/", deploymentID, "failing deployment", nil)
}

// Pause implements nomad.DeploymentsClient.Pause. pause=false resumes.
func (c *DeploymentsClient) Pause(ctx context.Context, deploymentID string, pause bool) (*nomad.Result, error) {
	return c.post(ctx, "/v1/deployment/pause/", deploymentID, "pausing deployment",
		&deploymentPauseRequest{DeploymentID: deploymentID, Pause: pause})
}

// Promote implements nomad.DeploymentsClient.Promote.
func (c *DeploymentsClient) Promote(ctx context.Context, deploymentID string, opts *nomad.PromoteOptions) (*nomad.Result, error) {
	err := opts.Validate()
	if err != nil {
		return nil, err
	}

	return c.post(ctx, "/v1/deployment/promote/", deploymentID, "promoting deployment",
		&deploymentPromoteRequest{DeploymentID: deploymentID, All: opts.All, Groups: opts.Groups})
}

// SetAllocHealth implements nomad.DeploymentsClient.SetAllocHealth.
func (c *DeploymentsClient) SetAllocHealth(ctx context.Context, deploymentID string, opts *nomad.AllocHealthOptions) (*nomad.Result, error) {
	err := opts.Validate()
	if err != nil {
		return nil, err
	}

	return c.post(ctx, "/v1/deployment/allocation-health/", deploymentID, "setting allocation health of deployment",
		&deploymentAllocHealthRequest{
			DeploymentID:           deploymentID,
			HealthyAllocationIDs:   opts.HealthyAllocationIDs,
			UnhealthyAllocationIDs: opts.UnhealthyAllocationIDs,
		})
}

func (c *DeploymentsClient) get(ctx context.Context, prefix, deploymentID, action string) (*nomad.Result, error) {
	err := requireID("deployment", deploymentID)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, prefix+deploymentID, nil, nomad.RequireFound(), nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, deploymentID, err)
	}

	return result, nil
}

func (c *DeploymentsClient) post(ctx context.Context, prefix, deploymentID, action string, body interface{}) (*nomad.Result, error) {
	err := requireID("deployment", deploymentID)
	if err != nil {
		return nil, err
	}

	result, err := postJSON(ctx, c.transport, prefix+deploymentID, nil, body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, deploymentID, err)
	}

	return result, nil
}
