package commands

import (
	"maps"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// NewMetricsCommand creates the metrics command.
func NewMetricsCommand() *cobra.Command {
	var prometheus bool

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show agent telemetry",
		Long: `Show the telemetry of the agent at --address. With --prometheus the
agent's Prometheus exposition is fetched and summarised per metric family.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if prometheus {
				return renderPrometheus(cmd, client)
			}

			result, err := client.Metrics().Fetch(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				summary, err := decodeResult[nomad.MetricsSummary](result)
				if err != nil {
					return err
				}

				table.Header("Gauge", "Value")

				for _, gauge := range summary.Gauges {
					_ = table.Append(gauge.Name, strconv.FormatFloat(gauge.Value, 'f', -1, 64))
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&prometheus, "prometheus", false, "use the Prometheus exposition format")

	return cmd
}

func renderPrometheus(cmd *cobra.Command, client nomad.Client) error {
	families, err := client.Metrics().Prometheus(cmd.Context())
	if err != nil {
		return err
	}

	type familySummary struct {
		Name   string `json:"name"   yaml:"name"`
		Type   string `json:"type"   yaml:"type"`
		Series int    `json:"series" yaml:"series"`
		Help   string `json:"help"   yaml:"help"`
	}

	summaries := make([]familySummary, 0, len(families))

	for _, name := range slices.Sorted(maps.Keys(families)) {
		family := families[name]
		summaries = append(summaries, familySummary{
			Name:   name,
			Type:   family.GetType().String(),
			Series: len(family.GetMetric()),
			Help:   family.GetHelp(),
		})
	}

	return render(cmd, summaries, func(table *tablewriter.Table) error {
		table.Header("Family", "Type", "Series")

		for _, summary := range summaries {
			_ = table.Append(summary.Name, summary.Type, strconv.Itoa(summary.Series))
		}

		return nil
	})
}
