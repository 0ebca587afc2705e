package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the nomadctl command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nomadctl",
		Short: "HashiCorp Nomad HTTP API CLI",
		Long: `A command-line interface for the HashiCorp Nomad HTTP API.

Connection settings come from flags, then the NOMAD_ADDR, NOMAD_TOKEN,
NOMAD_REGION, NOMAD_NAMESPACE and TLS environment variables, then the
config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.nomadctl/config.yml)")
	flags.StringP("address", "a", "", "Nomad HTTP address (overrides NOMAD_ADDR)")
	flags.StringP("token", "t", "", "ACL token (overrides NOMAD_TOKEN)")
	flags.Bool("ask-token", false, "prompt for the ACL token")
	flags.String("region", "", "region to forward requests to")
	flags.StringP("namespace", "n", "", "target namespace")
	flags.String("ca-cert", "", "CA certificate used to verify the server")
	flags.String("client-cert", "", "client certificate for mutual TLS")
	flags.String("client-key", "", "client key for mutual TLS")
	flags.Bool("tls-skip-verify", false, "skip TLS certificate verification")
	flags.String("transport", "", "request transport (blocking, loop, tasks)")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.StringP("output", "o", OutputFormatTable, "output format (table, json, yaml)")
	flags.StringP("query", "q", "", "gjson path applied to the JSON result")
	flags.String("log-level", "warn", "log level (trace, debug, info, warn, error)")

	for _, name := range []string{
		"config", "address", "token", "region", "namespace", "ca-cert", "client-cert", "client-key",
		"tls-skip-verify", "transport", "timeout", "output", "query", "log-level",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(NewVersionCommand(info))
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewJobsCommand())
	rootCmd.AddCommand(NewNodesCommand())
	rootCmd.AddCommand(NewAllocsCommand())
	rootCmd.AddCommand(NewEvalsCommand())
	rootCmd.AddCommand(NewDeploymentsCommand())
	rootCmd.AddCommand(NewACLCommand())
	rootCmd.AddCommand(NewAgentCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewMetricsCommand())

	return rootCmd
}

// InitConfig wires the config file and NOMAD_* environment into viper.
func InitConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := configDirectory()
		if err == nil {
			viper.AddConfigPath(configDir)
			viper.SetConfigType("yml")
			viper.SetConfigName("config")
		}
	}

	viper.SetEnvPrefix("NOMAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if strings.EqualFold(viper.GetString("log-level"), "debug") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// configDirectory returns $HOME/.nomadctl.
func configDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", constants.ErrConfigDirUnavailable, err)
	}

	return filepath.Join(home, ".nomadctl"), nil
}
