package commands_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/nomad-client/cmd/nomadctl/commands"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// fakeAgent serves canned JSON per path and records the requests it saw.
type fakeAgent struct {
	mu        sync.Mutex
	responses map[string]string
	requests  []*http.Request
	bodies    [][]byte
}

func newFakeAgent(t *testing.T, responses map[string]string) (*fakeAgent, *httptest.Server) {
	t.Helper()

	agent := &fakeAgent{responses: responses}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		agent.mu.Lock()
		agent.requests = append(agent.requests, r)
		agent.bodies = append(agent.bodies, body)
		response, ok := agent.responses[r.Method+" "+r.URL.Path]
		agent.mu.Unlock()

		if !ok {
			http.Error(w, "not found", http.StatusNotFound)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Nomad-Index", "42")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return agent, server
}

func (a *fakeAgent) lastBody(t *testing.T) []byte {
	t.Helper()

	a.mu.Lock()
	defer a.mu.Unlock()

	require.NotEmpty(t, a.bodies)

	return a.bodies[len(a.bodies)-1]
}

// execute runs nomadctl with args against a fresh viper state and returns
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	root := commands.NewRootCommand(commands.BuildInfo{Version: "test", Commit: "abc123", Date: "today"})

	var stdout, stderr bytes.Buffer

	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()

	return stdout.String(), err
}
