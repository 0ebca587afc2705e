package commands

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// NewEvalsCommand creates the evaluations command group.
func NewEvalsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "evals",
		Aliases: []string{"eval", "evaluations"},
		Short:   "Inspect evaluations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List evaluations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Evaluations().List(cmd.Context(), nil)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), evalListTable(result))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status EVAL_ID",
		Short: "Show evaluation details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Evaluations().Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				eval, err := decodeResult[nomad.Evaluation](result)
				if err != nil {
					return err
				}

				table.Header("Property", "Value")
				_ = table.Append("ID", eval.ID)
				_ = table.Append("Job", eval.JobID)
				_ = table.Append("Triggered by", eval.TriggeredBy)
				_ = table.Append("Status", eval.Status)
				_ = table.Append("Description", orNA(eval.StatusDescription))
				_ = table.Append("Deployment", orNA(eval.DeploymentID))

				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "allocs EVAL_ID",
		Short: "List allocations created by an evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Evaluations().Allocations(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), allocListTable(result))
		},
	})

	return cmd
}

func evalListTable(result *nomad.Result) tableFunc {
	return func(table *tablewriter.Table) error {
		evals, err := decodeResult[[]nomad.Evaluation](result)
		if err != nil {
			return err
		}

		table.Header("ID", "Priority", "Triggered by", "Job", "Status")

		for _, eval := range evals {
			_ = table.Append(shortID(eval.ID), eval.Priority, eval.TriggeredBy, eval.JobID, eval.Status)
		}

		return nil
	}
}
