package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// Static errors for err113 compliance.
var (
	ErrJobRequired = errors.New("job definition is required")
)

// JobsClient implements nomad.JobsClient.
type JobsClient struct {
	transport nomad.Transport
}

// NewJobsClient creates a new jobs client.
func NewJobsClient(transport nomad.Transport) *JobsClient {
	return &JobsClient{transport: transport}
}

type jobRegisterRequest struct {
	Job            interface{} `json:"Job"`
	EnforceIndex   bool        `json:"EnforceIndex,omitempty"`
	JobModifyIndex uint64      `json:"JobModifyIndex,omitempty"`
	PolicyOverride bool        `json:"PolicyOverride,omitempty"`
}

type jobDispatchRequest struct {
	Payload []byte            `json:"Payload,omitempty"`
	Meta    map[string]string `json:"Meta,omitempty"`
}

type jobRevertRequest struct {
	JobID               string  `json:"JobID"`
	JobVersion          uint64  `json:"JobVersion"`
	EnforcePriorVersion *uint64 `json:"EnforcePriorVersion,omitempty"`
}

type jobStabilityRequest struct {
	JobID      string `json:"JobID"`
	JobVersion uint64 `json:"JobVersion"`
	Stable     bool   `json:"Stable"`
}

type jobPlanRequest struct {
	Job            interface{} `json:"Job"`
	Diff           bool        `json:"Diff,omitempty"`
	PolicyOverride bool        `json:"PolicyOverride,omitempty"`
}

func newRegisterRequest(job interface{}, opts *nomad.RegisterOptions) (*jobRegisterRequest, error) {
	if job == nil {
		return nil, ErrJobRequired
	}

	request := &jobRegisterRequest{Job: job}
	if opts != nil {
		request.EnforceIndex = opts.EnforceIndex
		request.JobModifyIndex = opts.JobModifyIndex
		request.PolicyOverride = opts.PolicyOverride
	}

	return request, nil
}

func jobPath(jobID string, suffix string) string {
	return "/v1/job/" + jobID + suffix
}

// List implements nomad.JobsClient.List. Payload fields are base64-decoded.
func (c *JobsClient) List(ctx context.Context, query *nomad.QueryOptions) (*nomad.Result, error) {
	params, err := listParams(query)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/jobs", params, nomad.WithIndex(), nomad.DecodeField("Payload"))
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}

	return result, nil
}

// Register implements nomad.JobsClient.Register.
func (c *JobsClient) Register(ctx context.Context, job interface{}, opts *nomad.RegisterOptions) (*nomad.Result, error) {
	request, err := newRegisterRequest(job, opts)
	if err != nil {
		return nil, err
	}

	result, err := postJSON(ctx, c.transport, "/v1/jobs", nil, request)
	if err != nil {
		return nil, fmt.Errorf("registering job: %w", err)
	}

	return result, nil
}

// Read implements nomad.JobsClient.Read.
func (c *JobsClient) Read(ctx context.Context, jobID string) (*nomad.Result, error) {
	return c.get(ctx, jobID, "", "reading job", nil)
}

// Versions implements nomad.JobsClient.Versions.
func (c *JobsClient) Versions(ctx context.Context, jobID string) (*nomad.Result, error) {
	return c.get(ctx, jobID, "/versions", "listing job versions", nil)
}

// Allocations implements nomad.JobsClient.Allocations.
func (c *JobsClient) Allocations(ctx context.Context, jobID string, opts *nomad.AllocationsOptions) (*nomad.Result, error) {
	var params nomad.Params
	if opts != nil && opts.All {
		params = params.Add("all", "true")
	}

	return c.get(ctx, jobID, "/allocations", "listing job allocations", params)
}

// Evaluations implements nomad.JobsClient.Evaluations.
func (c *JobsClient) Evaluations(ctx context.Context, jobID string) (*nomad.Result, error) {
	return c.get(ctx, jobID, "/evaluations", "listing job evaluations", nil)
}

// Deployments implements nomad.JobsClient.Deployments.
func (c *JobsClient) Deployments(ctx context.Context, jobID string) (*nomad.Result, error) {
	return c.get(ctx, jobID, "/deployments", "listing job deployments", nil)
}

// LatestDeployment implements nomad.JobsClient.LatestDeployment.
func (c *JobsClient) LatestDeployment(ctx context.Context, jobID string) (*nomad.Result, error) {
	return c.get(ctx, jobID, "/deployment", "reading latest job deployment", nil)
}

// Summary implements nomad.JobsClient.Summary.
func (c *JobsClient) Summary(ctx context.Context, jobID string) (*nomad.Result, error) {
	return c.get(ctx, jobID, "/summary", "reading job summary", nil)
}

// Update implements nomad.JobsClient.Update.
func (c *JobsClient) Update(ctx context.Context, jobID string, job interface{}, opts *nomad.RegisterOptions) (*nomad.Result, error) {
	err := requireID("job", jobID)
	if err != nil {
		return nil, err
	}

	request, err := newRegisterRequest(job, opts)
	if err != nil {
		return nil, err
	}

	return c.post(ctx, jobID, "", "updating job", request, nomad.RequireFound())
}

// Dispatch implements nomad.JobsClient.Dispatch.
func (c *JobsClient) Dispatch(ctx context.Context, jobID string, opts *nomad.DispatchOptions) (*nomad.Result, error) {
	err := requireID("job", jobID)
	if err != nil {
		return nil, err
	}

	request := &jobDispatchRequest{}
	if opts != nil {
		request.Payload = opts.Payload
		request.Meta = opts.Meta
	}

	return c.post(ctx, jobID, "/dispatch", "dispatching job", request, nomad.RequireFound())
}

// Revert implements nomad.JobsClient.Revert. enforcePriorVersion, when set,
// makes the revert conditional on the job's current version.
func (c *JobsClient) Revert(ctx context.Context, jobID string, version uint64, enforcePriorVersion *uint64) (*nomad.Result, error) {
	err := requireID("job", jobID)
	if err != nil {
		return nil, err
	}

	request := &jobRevertRequest{
		JobID:               jobID,
		JobVersion:          version,
		EnforcePriorVersion: enforcePriorVersion,
	}

	return c.post(ctx, jobID, "/revert", "reverting job", request, nomad.RequireFound())
}

// Stability implements nomad.JobsClient.Stability.
func (c *JobsClient) Stability(ctx context.Context, jobID string, version uint64, stable bool) (*nomad.Result, error) {
	err := requireID("job", jobID)
	if err != nil {
		return nil, err
	}

	request := &jobStabilityRequest{JobID: jobID, JobVersion: version, Stable: stable}

	return c.post(ctx, jobID, "/stability", "setting job stability", request, nomad.RequireFound())
}

// Evaluate implements nomad.JobsClient.Evaluate.
func (c *JobsClient) Evaluate(ctx context.Context, jobID string) (*nomad.Result, error) {
	err := requireID("job", jobID)
	if err != nil {
		return nil, err
	}

	return c.post(ctx, jobID, "/evaluate", "evaluating job", nil, nomad.RequireFound())
}

// Plan implements nomad.JobsClient.Plan.
func (c *JobsClient) Plan(ctx context.Context, jobID string, job interface{}, opts *nomad.PlanOptions) (*nomad.Result, error) {
	err := requireID("job", jobID)
	if err != nil {
		return nil, err
	}

	if job == nil {
		return nil, ErrJobRequired
	}

	request := &jobPlanRequest{Job: job}
	if opts != nil {
		request.Diff = opts.Diff
		request.PolicyOverride = opts.PolicyOverride
	}

	return c.post(ctx, jobID, "/plan", "planning job", request)
}

// ForcePeriodic implements nomad.JobsClient.ForcePeriodic.
func (c *JobsClient) ForcePeriodic(ctx context.Context, jobID string) (*nomad.Result, error) {
	err := requireID("job", jobID)
	if err != nil {
		return nil, err
	}

	return c.post(ctx, jobID, "/periodic/force", "forcing periodic job", nil)
}

// Deregister implements nomad.JobsClient.Deregister.
func (c *JobsClient) Deregister(ctx context.Context, jobID string, opts *nomad.DeregisterOptions) (*nomad.Result, error) {
	err := requireID("job", jobID)
	if err != nil {
		return nil, err
	}

	var params nomad.Params
	if opts != nil && opts.Purge {
		params = params.Add("purge", "true")
	}

	result, err := deleteJSON(ctx, c.transport, jobPath(jobID, ""), params)
	if err != nil {
		return nil, fmt.Errorf("deregistering job %s: %w", jobID, err)
	}

	return result, nil
}

// Contains implements nomad.JobsClient.Contains.
func (c *JobsClient) Contains(ctx context.Context, jobID string) (bool, error) {
	_, found, err := c.Lookup(ctx, jobID)

	return found, err
}

// Lookup implements nomad.JobsClient.Lookup.
func (c *JobsClient) Lookup(ctx context.Context, jobID string) (*nomad.Result, bool, error) {
	return lookup(func() (*nomad.Result, error) { return c.Read(ctx, jobID) })
}

func (c *JobsClient) get(ctx context.Context, jobID, suffix, action string, params nomad.Params) (*nomad.Result, error) {
	err := requireID("job", jobID)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, jobPath(jobID, suffix), params, nomad.RequireFound(), nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, jobID, err)
	}

	return result, nil
}

func (c *JobsClient) post(ctx context.Context, jobID, suffix, action string, body interface{}, opts ...nomad.Option) (*nomad.Result, error) {
	result, err := postJSON(ctx, c.transport, jobPath(jobID, suffix), nil, body, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", action, jobID, err)
	}

	return result, nil
}
