package commands_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
)

func TestACLTokenCreateRequiresPolicy(t *testing.T) {
	_, err := execute(t, "acl", "token", "create", "--name", "ci")
	require.ErrorIs(t, err, constants.ErrPolicyRequired)
}

func TestACLTokenCreate(t *testing.T) {
	agent, server := newFakeAgent(t, map[string]string{
		"POST /v1/acl/token": `{"AccessorID":"acc-1","SecretID":"sec-1","Name":"ci","Type":"client","Policies":["readonly"]}`,
	})

	out, err := execute(t, "acl", "token", "create", "--name", "ci", "--policy", "readonly", "--address", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "acc-1")
	assert.Contains(t, out, "sec-1")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(agent.lastBody(t), &body))
	assert.Equal(t, "client", body["Type"])
	assert.Equal(t, []interface{}{"readonly"}, body["Policies"])
}

func TestACLTokenInfoHidesSecret(t *testing.T) {
	_, server := newFakeAgent(t, map[string]string{
		"GET /v1/acl/token/self": `{"AccessorID":"acc-1","SecretID":"sec-1","Type":"management"}`,
	})

	out, err := execute(t, "acl", "token", "self", "--address", server.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "acc-1")
	assert.NotContains(t, out, "sec-1")
}

func TestACLPolicyApply(t *testing.T) {
	agent, server := newFakeAgent(t, map[string]string{
		"POST /v1/acl/policy/readonly": `true`,
	})

	path := filepath.Join(t.TempDir(), "readonly.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`namespace "default" { policy = "read" }`), 0o600))

	out, err := execute(t, "acl", "policy", "apply", "readonly", path, "--description", "read only", "--address", server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Policy readonly written\n", out)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(agent.lastBody(t), &body))
	assert.Equal(t, "readonly", body["Name"])
	assert.Equal(t, "read only", body["Description"])
	assert.Contains(t, body["Rules"], "policy")
}

func TestAgentReplaceServersRequiresAddress(t *testing.T) {
	_, err := execute(t, "agent", "replace-servers")
	require.ErrorIs(t, err, constants.ErrAddressRequired)
}

func TestStatusLeader(t *testing.T) {
	_, server := newFakeAgent(t, map[string]string{
		"GET /v1/status/leader": `"10.0.0.1:4647"`,
	})

	out, err := execute(t, "status", "leader", "--address", server.URL, "-q", "@this")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:4647\n", out)
}
