//go:build integration

package integration

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
	"github.com/fivetwenty-io/nomad-client/pkg/nomadclient"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	Address string
	Token   string
	Verbose bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Address: os.Getenv("NOMAD_ADDR"),
		Token:   os.Getenv("NOMAD_TOKEN"),
		Verbose: os.Getenv("NOMAD_CLIENT_VERBOSE") == "true",
	}
}

// SkipIfMissingConfig skips the test unless a Nomad agent is configured.
func (c *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if c.Address == "" {
		t.Skip("NOMAD_ADDR not set, skipping integration test")
	}
}

// NewClient builds a client on the given transport.
func (c *TestConfig) NewClient(t *testing.T, transport nomad.TransportKind) nomad.Client {
	t.Helper()

	config := &nomad.Config{
		Address:   c.Address,
		Token:     c.Token,
		Transport: transport,
		Timeout:   30 * time.Second,
		Debug:     c.Verbose,
	}

	client, err := nomadclient.New(config)
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	return client
}

// GenerateTestName generates a unique job ID for a test.
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// BatchJob returns a minimal raw_exec batch job in API form.
func BatchJob(id string) map[string]interface{} {
	return map[string]interface{}{
		"ID":          id,
		"Name":        id,
		"Type":        "batch",
		"Datacenters": []string{"*"},
		"TaskGroups": []map[string]interface{}{
			{
				"Name":  "main",
				"Count": 1,
				"Tasks": []map[string]interface{}{
					{
						"Name":   "sleep",
						"Driver": "raw_exec",
						"Config": map[string]interface{}{
							"command": "/bin/sleep",
							"args":    []string{"1"},
						},
					},
				},
			},
		},
	}
}
