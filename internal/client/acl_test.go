package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

func TestACLTokensClient_Bootstrap(t *testing.T) {
	t.Parallel()

	rec := newRecorder(t, ok(`{"AccessorID":"acc","SecretID":"sec","Type":"management"}`))
	client := NewTestClient(t, rec)

	result, err := client.ACLTokens().Bootstrap(context.Background())
	require.NoError(t, err)

	request := rec.last(t)
	assert.Equal(t, http.MethodPost, request.Method)
	assert.Equal(t, "/v1/acl/bootstrap", request.Path)

	token, _, err := nomad.DecodeAs[nomad.ACLToken](result)
	require.NoError(t, err)
	assert.Equal(t, "sec", token.SecretID)
}

func TestACLTokensClient_BootstrapDisabled(t *testing.T) {
	t.Parallel()

	rec := newRecorder(t, status(http.StatusUnauthorized, "ACL support disabled"))
	client := NewTestClient(t, rec)

	_, err := client.ACLTokens().Bootstrap(context.Background())
	require.ErrorIs(t, err, nomad.ErrAuthenticationDisabled)
}

func TestACLTokensClient_Create(t *testing.T) {
	t.Parallel()

	rec := newRecorder(t, ok(`{"AccessorID":"acc"}`))
	client := NewTestClient(t, rec)
	ctx := context.Background()

	_, err := client.ACLTokens().Create(ctx, &nomad.TokenRequest{
		Name:     "deployer",
		Type:     nomad.TokenTypeClient,
		Policies: []string{"deploy"},
	})
	require.NoError(t, err)

	request := rec.last(t)
	assert.Equal(t, "/v1/acl/token", request.Path)
	assert.Equal(t, map[string]interface{}{
		"Name":     "deployer",
		"Type":     "client",
		"Policies": []interface{}{"deploy"},
		"Global":   false,
	}, request.JSON(t))
}

func TestACLTokensClient_CreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		request *nomad.TokenRequest
	}{
		{name: "nil", request: nil},
		{name: "client without policies", request: &nomad.TokenRequest{Type: nomad.TokenTypeClient}},
		{name: "management with policies", request: &nomad.TokenRequest{Type: nomad.TokenTypeManagement, Policies: []string{"x"}}},
		{name: "unknown type", request: &nomad.TokenRequest{Type: "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := newRecorder(t)
			client := NewTestClient(t, rec)

			_, err := client.ACLTokens().Create(context.Background(), tt.request)
			require.ErrorIs(t, err, nomad.ErrInvalidOption)
			assert.Zero(t, rec.count())
		})
	}
}

func TestACLTokensClient_Update(t *testing.T) {
	t.Parallel()

	rec := newRecorder(t, ok(`{"AccessorID":"acc"}`))
	client := NewTestClient(t, rec)

	_, err := client.ACLTokens().Update(context.Background(), "acc", &nomad.TokenRequest{
		Type:   nomad.TokenTypeManagement,
		Global: true,
	})
	require.NoError(t, err)

	request := rec.last(t)
	assert.Equal(t, "/v1/acl/token/acc", request.Path)

	body := request.JSON(t)
	assert.Equal(t, "acc", body["AccessorID"])
	assert.Equal(t, "management", body["Type"])
	assert.NotContains(t, body, "Global")
	assert.NotContains(t, body, "Name")
}

func TestACLTokensClient_Read(t *testing.T) {
	t.Parallel()

	rec := newRecorder(t, ok(`{"AccessorID":"acc","Name":"me"}`))
	client := NewTestClient(t, rec)
	ctx := context.Background()

	_, err := client.ACLTokens().Read(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "/v1/acl/token/self", rec.last(t).Path)

	_, err = client.ACLTokens().Self(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/v1/acl/token/self", rec.last(t).Path)

	_, err = client.ACLTokens().Read(ctx, "acc")
	require.NoError(t, err)
	assert.Equal(t, "/v1/acl/token/acc", rec.last(t).Path)
}

func TestACLTokensClient_Delete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response cannedResponse
		want     bool
		wantKind nomad.ErrorKind
	}{
		{name: "deleted", response: ok(""), want: true},
		{name: "missing", response: status(http.StatusNotFound, ""), want: false},
		{name: "forbidden", response: status(http.StatusForbidden, "Permission denied"), wantKind: nomad.KindPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := newRecorder(t, tt.response)
			client := NewTestClient(t, rec)

			deleted, err := client.ACLTokens().Delete(context.Background(), "acc")
			assert.Equal(t, http.MethodDelete, rec.last(t).Method)

			if tt.wantKind != 0 {
				kind, ok := nomad.KindOf(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantKind, kind)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, deleted)
		})
	}
}

func TestACLPoliciesClient(t *testing.T) {
	t.Parallel()

	rec := newRecorder(t,
		indexed("4", `[{"Name":"readonly","Description":"read only"}]`),
		ok(""),
		indexed("5", `{"Name":"readonly","Rules":"namespace \"default\" { policy = \"read\" }"}`),
		ok(""),
	)
	client := NewTestClient(t, rec)
	ctx := context.Background()

	list, err := client.ACLPolicies().List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "/v1/acl/policies", rec.last(t).Path)

	policies, _, err := nomad.DecodeAs[[]nomad.ACLPolicyListStub](list)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, "readonly", policies[0].Name)

	written, err := client.ACLPolicies().Upsert(ctx, "readonly", &nomad.PolicyRequest{
		Description: "read only",
		Rules:       `namespace "default" { policy = "read" }`,
	})
	require.NoError(t, err)
	assert.True(t, written)

	request := rec.last(t)
	assert.Equal(t, http.MethodPost, request.Method)
	assert.Equal(t, "/v1/acl/policy/readonly", request.Path)
	assert.Equal(t, "readonly", request.JSON(t)["Name"])

	result, err := client.ACLPolicies().Read(ctx, "readonly")
	require.NoError(t, err)

	policy, _, err := nomad.DecodeAs[nomad.ACLPolicy](result)
	require.NoError(t, err)
	assert.Contains(t, policy.Rules, "policy = \"read\"")

	deleted, err := client.ACLPolicies().Delete(ctx, "readonly")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, http.MethodDelete, rec.last(t).Method)
}

func TestACLPoliciesClient_UpsertRequiresRules(t *testing.T) {
	t.Parallel()

	rec := newRecorder(t)
	client := NewTestClient(t, rec)

	_, err := client.ACLPolicies().Upsert(context.Background(), "empty", &nomad.PolicyRequest{})
	require.ErrorIs(t, err, nomad.ErrInvalidOption)
	assert.Zero(t, rec.count())
}

func TestACLClients_ListMissingIsAbsent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		list func(ctx context.Context, client *Client) (*nomad.Result, error)
		path string
	}{
		{
			name: "tokens",
			list: func(ctx context.Context, client *Client) (*nomad.Result, error) {
				return client.ACLTokens().List(ctx, nil)
			},
			path: "/v1/acl/tokens",
		},
		{
			name: "policies",
			list: func(ctx context.Context, client *Client) (*nomad.Result, error) {
				return client.ACLPolicies().List(ctx, nil)
			},
			path: "/v1/acl/policies",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := newRecorder(t, status(http.StatusNotFound, ""))
			client := NewTestClient(t, rec)

			result, err := tt.list(context.Background(), client)
			require.NoError(t, err)
			assert.True(t, result.Absent())
			assert.Equal(t, tt.path, rec.last(t).Path)
		})
	}
}
