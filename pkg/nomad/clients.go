package nomad

import (
	"context"
	"fmt"

	dto "github.com/prometheus/client_model/go"
)

// Client is the main interface for interacting with the Nomad HTTP API.
type Client interface {
	Jobs() JobsClient
	Nodes() NodesClient
	Allocations() AllocationsClient
	Evaluations() EvaluationsClient
	Deployments() DeploymentsClient
	ACLTokens() ACLTokensClient
	ACLPolicies() ACLPoliciesClient
	Agent() AgentClient
	Status() StatusClient
	ClientStats() ClientStatsClient
	Metrics() MetricsClient

	// Transport exposes the underlying transport for raw calls.
	Transport() Transport
	Close() error
}

// JobsClient defines operations for jobs.
type JobsClient interface {
	List(ctx context.Context, query *QueryOptions) (*Result, error)
	Register(ctx context.Context, job interface{}, opts *RegisterOptions) (*Result, error)
	Read(ctx context.Context, jobID string) (*Result, error)
	Versions(ctx context.Context, jobID string) (*Result, error)
	Allocations(ctx context.Context, jobID string, opts *AllocationsOptions) (*Result, error)
	Evaluations(ctx context.Context, jobID string) (*Result, error)
	Deployments(ctx context.Context, jobID string) (*Result, error)
	LatestDeployment(ctx context.Context, jobID string) (*Result, error)
	Summary(ctx context.Context, jobID string) (*Result, error)
	Update(ctx context.Context, jobID string, job interface{}, opts *RegisterOptions) (*Result, error)
	Dispatch(ctx context.Context, jobID string, opts *DispatchOptions) (*Result, error)
	Revert(ctx context.Context, jobID string, version uint64, enforcePriorVersion *uint64) (*Result, error)
	Stability(ctx context.Context, jobID string, version uint64, stable bool) (*Result, error)
	Evaluate(ctx context.Context, jobID string) (*Result, error)
	Plan(ctx context.Context, jobID string, job interface{}, opts *PlanOptions) (*Result, error)
	ForcePeriodic(ctx context.Context, jobID string) (*Result, error)
	Deregister(ctx context.Context, jobID string, opts *DeregisterOptions) (*Result, error)
	Contains(ctx context.Context, jobID string) (bool, error)
	Lookup(ctx context.Context, jobID string) (*Result, bool, error)
}

// NodesClient defines operations for client nodes.
type NodesClient interface {
	List(ctx context.Context, query *QueryOptions) (*Result, error)
	Read(ctx context.Context, nodeID string) (*Result, error)
	Allocations(ctx context.Context, nodeID string) (*Result, error)
	Evaluate(ctx context.Context, nodeID string) (*Result, error)
	Drain(ctx context.Context, nodeID string, enabled bool) (*Result, error)
	Purge(ctx context.Context, nodeID string) (*Result, error)
	Contains(ctx context.Context, nodeID string) (bool, error)
	Lookup(ctx context.Context, nodeID string) (*Result, bool, error)
}

// AllocationsClient defines operations for allocations.
type AllocationsClient interface {
	List(ctx context.Context, query *QueryOptions) (*Result, error)
	Read(ctx context.Context, allocID string) (*Result, error)
	Contains(ctx context.Context, allocID string) (bool, error)
}

// EvaluationsClient defines operations for evaluations.
type EvaluationsClient interface {
	List(ctx context.Context, query *QueryOptions) (*Result, error)
	Read(ctx context.Context, evalID string) (*Result, error)
	Allocations(ctx context.Context, evalID string) (*Result, error)
}

// DeploymentsClient defines operations for deployments.
type DeploymentsClient interface {
	List(ctx context.Context, query *QueryOptions) (*Result, error)
	Read(ctx context.Context, deploymentID string) (*Result, error)
	Allocations(ctx context.Context, deploymentID string) (*Result, error)
	Fail(ctx context.Context, deploymentID string) (*Result, error)
	Pause(ctx context.Context, deploymentID string, pause bool) (*Result, error)
	Promote(ctx context.Context, deploymentID string, opts *PromoteOptions) (*Result, error)
	SetAllocHealth(ctx context.Context, deploymentID string, opts *AllocHealthOptions) (*Result, error)
}

// ACLTokensClient defines operations for ACL tokens.
type ACLTokensClient interface {
	Bootstrap(ctx context.Context) (*Result, error)
	List(ctx context.Context, query *QueryOptions) (*Result, error)
	Create(ctx context.Context, request *TokenRequest) (*Result, error)
	Update(ctx context.Context, accessorID string, request *TokenRequest) (*Result, error)
	Read(ctx context.Context, accessorID string) (*Result, error)
	Self(ctx context.Context) (*Result, error)
	Delete(ctx context.Context, accessorID string) (bool, error)
}

// ACLPoliciesClient defines operations for ACL policies.
type ACLPoliciesClient interface {
	List(ctx context.Context, query *QueryOptions) (*Result, error)
	Read(ctx context.Context, name string) (*Result, error)
	Upsert(ctx context.Context, name string, request *PolicyRequest) (bool, error)
	Delete(ctx context.Context, name string) (bool, error)
}

// AgentClient defines operations on the agent answering the request.
type AgentClient interface {
	Members(ctx context.Context) (*Result, error)
	Servers(ctx context.Context) (*Result, error)
	ReplaceServers(ctx context.Context, addresses ...string) (bool, error)
	Self(ctx context.Context) (*Result, error)
}

// StatusClient defines operations for cluster status.
type StatusClient interface {
	Leader(ctx context.Context) (*Result, error)
	Peers(ctx context.Context) (*Result, error)
}

// ClientStatsClient defines operations for client node resource usage.
type ClientStatsClient interface {
	Stats(ctx context.Context) (*Result, error)
	AllocationStats(ctx context.Context, allocID string) (*Result, error)
}

// MetricsClient defines operations for agent telemetry.
type MetricsClient interface {
	Fetch(ctx context.Context) (*Result, error)
	Prometheus(ctx context.Context) (map[string]*dto.MetricFamily, error)
}

// RegisterOptions are the check-and-set options of job register and update.
type RegisterOptions struct {
	EnforceIndex   bool
	JobModifyIndex uint64
	PolicyOverride bool
}

// AllocationsOptions filters job allocations.
type AllocationsOptions struct {
	// All includes allocations of earlier job versions with the same ID.
	All bool
}

// DispatchOptions are the inputs of a parameterized job dispatch.
type DispatchOptions struct {
	Payload []byte
	Meta    map[string]string
}

// PlanOptions are the options of a job plan.
type PlanOptions struct {
	Diff           bool
	PolicyOverride bool
}

// DeregisterOptions are the options of a job stop.
type DeregisterOptions struct {
	// Purge removes the job immediately instead of leaving it to garbage collection.
	Purge bool
}

// PromoteOptions selects which canaries to promote. Exactly one of All and
// Groups must be set.
type PromoteOptions struct {
	All    bool
	Groups []string
}

// Validate checks the option combination.
func (o *PromoteOptions) Validate() error {
	if o == nil || (!o.All && len(o.Groups) == 0) {
		return fmt.Errorf("%w: promote needs All or Groups", ErrInvalidOption)
	}

	if o.All && len(o.Groups) > 0 {
		return fmt.Errorf("%w: promote takes All or Groups, not both", ErrInvalidOption)
	}

	return nil
}

// AllocHealthOptions marks deployment allocations healthy or unhealthy.
type AllocHealthOptions struct {
	HealthyAllocationIDs   []string
	UnhealthyAllocationIDs []string
}

// Validate checks that at least one allocation is named.
func (o *AllocHealthOptions) Validate() error {
	if o == nil || len(o.HealthyAllocationIDs)+len(o.UnhealthyAllocationIDs) == 0 {
		return fmt.Errorf("%w: no allocations given", ErrInvalidOption)
	}

	return nil
}

// Token types.
const (
	TokenTypeClient     = "client"
	TokenTypeManagement = "management"
)

// TokenRequest is the body of token create and update.
type TokenRequest struct {
	Name     string
	Type     string
	Policies []string
	Global   bool
}

// Validate checks the token type. Management tokens carry no policies.
func (r *TokenRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil token request", ErrInvalidOption)
	}

	switch r.Type {
	case TokenTypeClient:
		if len(r.Policies) == 0 {
			return fmt.Errorf("%w: client tokens need at least one policy", ErrInvalidOption)
		}
	case TokenTypeManagement:
		if len(r.Policies) > 0 {
			return fmt.Errorf("%w: management tokens take no policies", ErrInvalidOption)
		}
	default:
		return fmt.Errorf("%w: token type %q", ErrInvalidOption, r.Type)
	}

	return nil
}

// PolicyRequest is the body of a policy upsert.
type PolicyRequest struct {
	Description string
	Rules       string
}
