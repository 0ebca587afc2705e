package nomad

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
)

func TestHCLogAdapter_SortedFields(t *testing.T) {
	var buf bytes.Buffer

	logger := NewHCLogAdapter(hclog.New(&hclog.LoggerOptions{
		Output: &buf,
		Level:  hclog.Debug,
	}))

	logger.Info("API Request", map[string]interface{}{"path": "/v1/jobs", "method": "GET"})

	assert.Contains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "API Request: method=GET path=/v1/jobs")
}

func TestHCLogAdapter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := NewHCLogAdapter(hclog.New(&hclog.LoggerOptions{
		Output: &buf,
		Level:  hclog.Warn,
	}))

	logger.Debug("hidden", nil)
	logger.Warn("shown", nil)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNullLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NullLogger().Error("dropped", map[string]interface{}{"k": "v"})
	})
	assert.NotNil(t, NewHCLogAdapter(nil).HCLog())
}
