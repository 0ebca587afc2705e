package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
	"github.com/fivetwenty-io/nomad-client/pkg/nomadclient"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	// Output formats.
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"

	// JSON formatting.
	defaultJSONIndent = 2

	Yes = "yes"
	No  = "no"
)

// newClient builds a Nomad client from flags, the NOMAD_* environment and
// the config file, in that order.
func newClient(cmd *cobra.Command) (nomad.Client, error) {
	config := &nomad.Config{
		Address:   viper.GetString("address"),
		Token:     viper.GetString("token"),
		Region:    viper.GetString("region"),
		Namespace: viper.GetString("namespace"),
		TLSCA:     viper.GetString("ca-cert"),
		TLSCert:   viper.GetString("client-cert"),
		TLSKey:    viper.GetString("client-key"),
		Transport: nomad.TransportKind(viper.GetString("transport")),
		Timeout:   viper.GetDuration("timeout"),
	}

	if viper.IsSet("tls-skip-verify") {
		config.TLSVerify = nomad.BoolPtr(!viper.GetBool("tls-skip-verify"))
	}

	logger := newLogger(cmd.ErrOrStderr())
	config.Logger = nomad.NewHCLogAdapter(logger)
	config.Debug = logger.IsDebug()

	if askToken, _ := cmd.Flags().GetBool("ask-token"); askToken {
		token, err := promptToken(cmd.ErrOrStderr())
		if err != nil {
			return nil, err
		}

		config.Token = token
	}

	client, err := nomadclient.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

func newLogger(output io.Writer) hclog.Logger {
	level := hclog.LevelFromString(viper.GetString("log-level"))
	if level == hclog.NoLevel {
		level = hclog.Warn
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "nomadctl",
		Level:  level,
		Output: output,
	})
}

// promptToken reads a token without echo.
func promptToken(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd()) // #nosec G115 -- stdin descriptor fits in int
	if !term.IsTerminal(fd) {
		return "", constants.ErrTokenNotTerminal
	}

	_, err := fmt.Fprint(prompt, "Nomad token: ")
	if err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	tokenBytes, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	_, _ = fmt.Fprintln(prompt)

	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return "", constants.ErrEmptyToken
	}

	return token, nil
}

// tableFunc fills a table from the command's typed view of the data.
type tableFunc func(table *tablewriter.Table) error

// render prints data in the selected output format. A --query expression
// always selects from the JSON form of data.
func render(cmd *cobra.Command, data interface{}, fill tableFunc) error {
	out := cmd.OutOrStdout()

	if query := viper.GetString("query"); query != "" {
		return renderQuery(out, data, query)
	}

	format := viper.GetString("output")
	switch format {
	case OutputFormatJSON:
		return encodeJSON(out, data)
	case OutputFormatYAML:
		plain, err := plainValue(data)
		if err != nil {
			return err
		}

		encoder := yaml.NewEncoder(out)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(plain)
	case OutputFormatTable, "":
		if fill == nil {
			return encodeJSON(out, data)
		}

		table := tablewriter.NewWriter(out)

		err := fill(table)
		if err != nil {
			return err
		}

		err = table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, format)
	}
}

func encodeJSON(out io.Writer, data interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	return nil
}

// renderQuery evaluates a gjson path against data.
func renderQuery(out io.Writer, data interface{}, query string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	value := gjson.GetBytes(raw, query)
	if !value.Exists() {
		return nil
	}

	if value.Type == gjson.String {
		_, err = fmt.Fprintln(out, value.String())
	} else {
		_, err = fmt.Fprint(out, value.Get("@pretty").Raw)
	}

	if err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	return nil
}

// plainValue round-trips data through JSON so that YAML sees numbers and
// base64 strings instead of json.Number and byte slices.
func plainValue(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	var plain interface{}

	err = yaml.Unmarshal(raw, &plain)
	if err != nil {
		return nil, fmt.Errorf("failed to convert result: %w", err)
	}

	return plain, nil
}

// resultData returns the generic data of a result, or nil when absent.
func resultData(result *nomad.Result) interface{} {
	if result.Absent() {
		return nil
	}

	return result.Data
}

// decodeResult decodes result into T for table output.
func decodeResult[T any](result *nomad.Result) (T, error) {
	value, _, err := nomad.DecodeAs[T](result)
	if err != nil {
		return value, fmt.Errorf("failed to decode response: %w", err)
	}

	return value, nil
}

// shortID truncates a UUID for table output.
func shortID(id string) string {
	if len(id) > constants.ShortIDLength {
		return id[:constants.ShortIDLength]
	}

	return id
}

func yesNo(value bool) string {
	if value {
		return Yes
	}

	return No
}

func formatNanos(nanos int64) string {
	if nanos == 0 {
		return NotAvailable
	}

	return time.Unix(0, nanos).UTC().Format(time.RFC3339)
}

func formatUint(value uint64) string {
	return strconv.FormatUint(value, 10)
}

func orNA(value string) string {
	if value == "" {
		return NotAvailable
	}

	return value
}

// printBool reports the outcome of a boolean endpoint.
func printBool(cmd *cobra.Command, ok bool, success, failure string) error {
	message := success
	if !ok {
		message = failure
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), message)
	if err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	return nil
}
