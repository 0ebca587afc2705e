package nomad_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

func TestCheckBuilders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		check    nomad.Check
		expected nomad.Check
	}{
		{
			name:     "script",
			check:    nomad.ScriptCheck("/bin/check", 10*time.Second),
			expected: nomad.Check{"script": "/bin/check", "interval": "10s"},
		},
		{
			name:     "http minimal",
			check:    nomad.HTTPCheck("http://127.0.0.1:8080/health", 10*time.Second),
			expected: nomad.Check{"http": "http://127.0.0.1:8080/health", "interval": "10s"},
		},
		{
			name: "http full",
			check: nomad.HTTPCheck("http://127.0.0.1:8080/health", 10*time.Second,
				nomad.CheckTimeout(2*time.Second),
				nomad.DeregisterAfter(time.Minute),
				nomad.CheckHeader(http.Header{"X-Foo": []string{"bar", "baz"}})),
			expected: nomad.Check{
				"http":                           "http://127.0.0.1:8080/health",
				"interval":                       "10s",
				"timeout":                        "2s",
				"DeregisterCriticalServiceAfter": "1m0s",
				"header":                         map[string][]string{"X-Foo": {"bar", "baz"}},
			},
		},
		{
			name:     "tcp",
			check:    nomad.TCPCheck("10.0.0.5", 6379, 5*time.Second, nomad.CheckTimeout(time.Second)),
			expected: nomad.Check{"tcp": "10.0.0.5:6379", "interval": "5s", "timeout": "1s"},
		},
		{
			name:     "ttl",
			check:    nomad.TTLCheck(30 * time.Second),
			expected: nomad.Check{"ttl": "30s"},
		},
		{
			name:  "docker",
			check: nomad.DockerCheck("f972c95ebf0e", "/bin/sh", "/usr/local/bin/probe", 15*time.Second, nomad.DeregisterAfter(90*time.Second)),
			expected: nomad.Check{
				"docker_container_id":            "f972c95ebf0e",
				"shell":                          "/bin/sh",
				"script":                         "/usr/local/bin/probe",
				"interval":                       "15s",
				"DeregisterCriticalServiceAfter": "1m30s",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.check)
		})
	}
}

func TestCheckOptions_IgnoreZero(t *testing.T) {
	t.Parallel()

	check := nomad.HTTPCheck("http://x", time.Second, nomad.CheckTimeout(0), nomad.DeregisterAfter(0), nomad.CheckHeader(nil))
	assert.Equal(t, nomad.Check{"http": "http://x", "interval": "1s"}, check)
}
