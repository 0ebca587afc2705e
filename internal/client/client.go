package client

import (
	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// Client implements the nomad.Client interface over a single transport.
type Client struct {
	transport nomad.Transport

	// Resource clients
	jobs        nomad.JobsClient
	nodes       nomad.NodesClient
	allocations nomad.AllocationsClient
	evaluations nomad.EvaluationsClient
	deployments nomad.DeploymentsClient
	aclTokens   nomad.ACLTokensClient
	aclPolicies nomad.ACLPoliciesClient
	agent       nomad.AgentClient
	status      nomad.StatusClient
	clientStats nomad.ClientStatsClient
	metrics     nomad.MetricsClient
}

var _ nomad.Client = (*Client)(nil)

// New wires every resource client to transport. The client owns the
// transport: Close closes it.
func New(transport nomad.Transport) *Client {
	client := &Client{transport: transport}
	client.initializeResourceClients()

	return client
}

func (c *Client) initializeResourceClients() {
	c.jobs = NewJobsClient(c.transport)
	c.nodes = NewNodesClient(c.transport)
	c.allocations = NewAllocationsClient(c.transport)
	c.evaluations = NewEvaluationsClient(c.transport)
	c.deployments = NewDeploymentsClient(c.transport)
	c.aclTokens = NewACLTokensClient(c.transport)
	c.aclPolicies = NewACLPoliciesClient(c.transport)
	c.agent = NewAgentClient(c.transport)
	c.status = NewStatusClient(c.transport)
	c.clientStats = NewClientStatsClient(c.transport)
	c.metrics = NewMetricsClient(c.transport)
}

// Jobs implements nomad.Client.Jobs.
func (c *Client) Jobs() nomad.JobsClient { return c.jobs }

// Nodes implements nomad.Client.Nodes.
func (c *Client) Nodes() nomad.NodesClient { return c.nodes }

// Allocations implements nomad.Client.Allocations.
func (c *Client) Allocations() nomad.AllocationsClient { return c.allocations }

// Evaluations implements nomad.Client.Evaluations.
func (c *Client) Evaluations() nomad.EvaluationsClient { return c.evaluations }

// Deployments implements nomad.Client.Deployments.
func (c *Client) Deployments() nomad.DeploymentsClient { return c.deployments }

// ACLTokens implements nomad.Client.ACLTokens.
func (c *Client) ACLTokens() nomad.ACLTokensClient { return c.aclTokens }

// ACLPolicies implements nomad.Client.ACLPolicies.
func (c *Client) ACLPolicies() nomad.ACLPoliciesClient { return c.aclPolicies }

// Agent implements nomad.Client.Agent.
func (c *Client) Agent() nomad.AgentClient { return c.agent }

// Status implements nomad.Client.Status.
func (c *Client) Status() nomad.StatusClient { return c.status }

// ClientStats implements nomad.Client.ClientStats.
func (c *Client) ClientStats() nomad.ClientStatsClient { return c.clientStats }

// Metrics implements nomad.Client.Metrics.
func (c *Client) Metrics() nomad.MetricsClient { return c.metrics }

// Transport implements nomad.Client.Transport.
func (c *Client) Transport() nomad.Transport { return c.transport }

// Close releases the transport.
func (c *Client) Close() error {
	return c.transport.Close()
}
