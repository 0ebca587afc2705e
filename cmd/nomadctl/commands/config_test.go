package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
)

func TestConfigSetShowUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	_, err := execute(t, "config", "set", "address", "http://10.0.0.4:4646", "--config", path)
	require.NoError(t, err)

	_, err = execute(t, "config", "set", "token", "secret-token", "--config", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var stored map[string]string
	require.NoError(t, yaml.Unmarshal(data, &stored))
	assert.Equal(t, "http://10.0.0.4:4646", stored["address"])
	assert.Equal(t, "secret-token", stored["token"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(constants.ConfigFilePerm), info.Mode().Perm())

	out, err := execute(t, "config", "show", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "http://10.0.0.4:4646")
	assert.NotContains(t, out, "secret-token")

	_, err = execute(t, "config", "unset", "token", "--config", path)
	require.NoError(t, err)

	out, err = execute(t, "config", "show", "--config", path, "-q", "token")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestConfigSetRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	tests := []struct {
		name string
		key  string
		val  string
		want error
	}{
		{name: "unknown key", key: "datacenter", val: "dc1", want: constants.ErrUnknownConfigKey},
		{name: "output format", key: "output", val: "xml", want: constants.ErrUnsupportedOutput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "config", "set", tt.key, tt.val, "--config", path)
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := execute(t, "config", "set", "timeout", "soon", "--config", path)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}
