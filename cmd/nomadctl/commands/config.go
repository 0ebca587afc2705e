package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
)

const maskedToken = "********"

// configKeys are the settings that may be persisted; each mirrors the
// persistent flag of the same name.
var configKeys = []string{
	"address", "token", "region", "namespace", "ca-cert", "client-cert", "client-key",
	"tls-skip-verify", "transport", "timeout", "output", "log-level",
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage the settings persisted in $HOME/.nomadctl/config.yml (or the file named by --config)",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the persisted configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if token, ok := settings["token"]; ok && token != "" {
				settings["token"] = maskedToken
			}

			return render(cmd, settings, func(table *tablewriter.Table) error {
				table.Header("Key", "Value")

				for _, key := range configKeys {
					if value, ok := settings[key]; ok {
						_ = table.Append(key, value)
					}
				}

				return nil
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			err := validateConfigValue(key, value)
			if err != nil {
				return err
			}

			settings, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			settings[key] = value

			err = saveConfig(path, settings)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, path)

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Remove a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !slices.Contains(configKeys, key) {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			settings, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			delete(settings, key)

			err = saveConfig(path, settings)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s in %s\n", key, path)

			return nil
		},
	}
}

func validateConfigValue(key, value string) error {
	if !slices.Contains(configKeys, key) {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	switch key {
	case "tls-skip-verify":
		_, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	case "timeout":
		_, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
	case "output":
		if !slices.Contains([]string{OutputFormatTable, OutputFormatJSON, OutputFormatYAML}, value) {
			return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, value)
		}
	}

	return nil
}

// configPath returns the --config file, or config.yml in the default
// configuration directory.
func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}

	dir, err := configDirectory()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.yml"), nil
}

// loadConfig reads the persisted settings. A missing file is empty.
func loadConfig(cmd *cobra.Command) (map[string]string, string, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, "", err
	}

	settings := make(map[string]string)

	data, err := os.ReadFile(path) // #nosec G304 -- path is the user's own config file
	if errors.Is(err, os.ErrNotExist) {
		return settings, path, nil
	}

	if err != nil {
		return nil, "", fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, &settings)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return settings, path, nil
}

func saveConfig(path string, settings map[string]string) error {
	err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
