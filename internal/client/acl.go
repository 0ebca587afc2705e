package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// selfAccessor reads the token the request is authenticated with.
const selfAccessor = "self"

// ACLTokensClient implements nomad.ACLTokensClient.
type ACLTokensClient struct {
	transport nomad.Transport
}

// NewACLTokensClient creates a new ACL tokens client.
func NewACLTokensClient(transport nomad.Transport) *ACLTokensClient {
	return &ACLTokensClient{transport: transport}
}

type tokenCreateRequest struct {
	Name     string   `json:"Name,omitempty"`
	Type     string   `json:"Type"`
	Policies []string `json:"Policies"`
	Global   bool     `json:"Global"`
}

type tokenUpdateRequest struct {
	AccessorID string   `json:"AccessorID"`
	Name       string   `json:"Name,omitempty"`
	Type       string   `json:"Type"`
	Policies   []string `json:"Policies"`
}

// Bootstrap implements nomad.ACLTokensClient.Bootstrap.
func (c *ACLTokensClient) Bootstrap(ctx context.Context) (*nomad.Result, error) {
	result, err := postJSON(ctx, c.transport, "/v1/acl/bootstrap", nil, nil, nomad.RequireFound())
	if err != nil {
		return nil, fmt.Errorf("bootstrapping ACL system: %w", err)
	}

	return result, nil
}

// List implements nomad.ACLTokensClient.List.
func (c *ACLTokensClient) List(ctx context.Context, query *nomad.QueryOptions) (*nomad.Result, error) {
	params, err := listParams(query)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/acl/tokens", params, nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("listing ACL tokens: %w", err)
	}

	return result, nil
}

// Create implements nomad.ACLTokensClient.Create.
func (c *ACLTokensClient) Create(ctx context.Context, request *nomad.TokenRequest) (*nomad.Result, error) {
	err := request.Validate()
	if err != nil {
		return nil, err
	}

	body := &tokenCreateRequest{
		Name:     request.Name,
		Type:     request.Type,
		Policies: request.Policies,
		Global:   request.Global,
	}

	result, err := postJSON(ctx, c.transport, "/v1/acl/token", nil, body, nomad.RequireFound())
	if err != nil {
		return nil, fmt.Errorf("creating ACL token: %w", err)
	}

	return result, nil
}

// Update implements nomad.ACLTokensClient.Update. The Global flag of an
// existing token cannot change and is not sent.
func (c *ACLTokensClient) Update(ctx context.Context, accessorID string, request *nomad.TokenRequest) (*nomad.Result, error) {
	err := requireID("ACL token", accessorID)
	if err != nil {
		return nil, err
	}

	err = request.Validate()
	if err != nil {
		return nil, err
	}

	body := &tokenUpdateRequest{
		AccessorID: accessorID,
		Name:       request.Name,
		Type:       request.Type,
		Policies:   request.Policies,
	}

	result, err := postJSON(ctx, c.transport, "/v1/acl/token/"+accessorID, nil, body, nomad.RequireFound())
	if err != nil {
		return nil, fmt.Errorf("updating ACL token %s: %w", accessorID, err)
	}

	return result, nil
}

// Read implements nomad.ACLTokensClient.Read. An empty accessor reads the
// calling token.
func (c *ACLTokensClient) Read(ctx context.Context, accessorID string) (*nomad.Result, error) {
	if accessorID == "" {
		accessorID = selfAccessor
	}

	result, err := getJSON(ctx, c.transport, "/v1/acl/token/"+accessorID, nil, nomad.RequireFound(), nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("reading ACL token %s: %w", accessorID, err)
	}

	return result, nil
}

// Self implements nomad.ACLTokensClient.Self.
func (c *ACLTokensClient) Self(ctx context.Context) (*nomad.Result, error) {
	return c.Read(ctx, selfAccessor)
}

// Delete implements nomad.ACLTokensClient.Delete.
func (c *ACLTokensClient) Delete(ctx context.Context, accessorID string) (bool, error) {
	err := requireID("ACL token", accessorID)
	if err != nil {
		return false, err
	}

	ok, err := deleteBool(ctx, c.transport, "/v1/acl/token/"+accessorID)
	if err != nil {
		return false, fmt.Errorf("deleting ACL token %s: %w", accessorID, err)
	}

	return ok, nil
}

// ACLPoliciesClient implements nomad.ACLPoliciesClient.
type ACLPoliciesClient struct {
	transport nomad.Transport
}

// NewACLPoliciesClient creates a new ACL policies client.
func NewACLPoliciesClient(transport nomad.Transport) *ACLPoliciesClient {
	return &ACLPoliciesClient{transport: transport}
}

type policyUpsertRequest struct {
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
	Rules       string `json:"Rules"`
}

// List implements nomad.ACLPoliciesClient.List.
func (c *ACLPoliciesClient) List(ctx context.Context, query *nomad.QueryOptions) (*nomad.Result, error) {
	params, err := listParams(query)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/acl/policies", params, nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("listing ACL policies: %w", err)
	}

	return result, nil
}

// Read implements nomad.ACLPoliciesClient.Read.
func (c *ACLPoliciesClient) Read(ctx context.Context, name string) (*nomad.Result, error) {
	err := requireID("ACL policy", name)
	if err != nil {
		return nil, err
	}

	result, err := getJSON(ctx, c.transport, "/v1/acl/policy/"+name, nil, nomad.RequireFound(), nomad.WithIndex())
	if err != nil {
		return nil, fmt.Errorf("reading ACL policy %s: %w", name, err)
	}

	return result, nil
}

// Upsert implements nomad.ACLPoliciesClient.Upsert.
func (c *ACLPoliciesClient) Upsert(ctx context.Context, name string, request *nomad.PolicyRequest) (bool, error) {
	err := requireID("ACL policy", name)
	if err != nil {
		return false, err
	}

	if request == nil || request.Rules == "" {
		return false, fmt.Errorf("%w: policy %s has no rules", nomad.ErrInvalidOption, name)
	}

	body := &policyUpsertRequest{Name: name, Description: request.Description, Rules: request.Rules}

	ok, err := postBool(ctx, c.transport, "/v1/acl/policy/"+name, nil, body)
	if err != nil {
		return false, fmt.Errorf("writing ACL policy %s: %w", name, err)
	}

	return ok, nil
}

// Delete implements nomad.ACLPoliciesClient.Delete.
func (c *ACLPoliciesClient) Delete(ctx context.Context, name string) (bool, error) {
	err := requireID("ACL policy", name)
	if err != nil {
		return false, err
	}

	ok, err := deleteBool(ctx, c.transport, "/v1/acl/policy/"+name)
	if err != nil {
		return false, fmt.Errorf("deleting ACL policy %s: %w", name, err)
	}

	return ok, nil
}
