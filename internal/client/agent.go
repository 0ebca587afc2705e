package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// AgentClient implements nomad.AgentClient.
type AgentClient struct {
	transport nomad.Transport
}

// NewAgentClient creates a new agent client.
func NewAgentClient(transport nomad.Transport) *AgentClient {
	return &AgentClient{transport: transport}
}

// Members implements nomad.AgentClient.Members.
func (c *AgentClient) Members(ctx context.Context) (*nomad.Result, error) {
	return c.get(ctx, "/v1/agent/members", "listing gossip members")
}

// Servers implements nomad.AgentClient.Servers.
func (c *AgentClient) Servers(ctx context.Context) (*nomad.Result, error) {
	return c.get(ctx, "/v1/agent/servers", "listing known servers")
}

// ReplaceServers implements nomad.AgentClient.ReplaceServers. Each address
// is sent as its own "address" query parameter.
func (c *AgentClient) ReplaceServers(ctx context.Context, addresses ...string) (bool, error) {
	if len(addresses) == 0 {
		return false, fmt.Errorf("%w: no server addresses given", nomad.ErrInvalidOption)
	}

	var params nomad.Params
	for _, address := range addresses {
		params = params.Add("address", address)
	}

	ok, err := postBool(ctx, c.transport, "/v1/agent/servers", params, nil)
	if err != nil {
		return false, fmt.Errorf("replacing known servers: %w", err)
	}

	return ok, nil
}

// Self implements nomad.AgentClient.Self.
func (c *AgentClient) Self(ctx context.Context) (*nomad.Result, error) {
	return c.get(ctx, "/v1/agent/self", "reading agent state")
}

func (c *AgentClient) get(ctx context.Context, path, action string) (*nomad.Result, error) {
	result, err := getJSON(ctx, c.transport, path, nil, nomad.RequireFound())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}

	return result, nil
}
