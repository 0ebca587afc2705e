package commands

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// NewDeploymentsCommand creates the deployments command group.
func NewDeploymentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deployments",
		Aliases: []string{"deployment"},
		Short:   "Manage deployments",
		Long:    "Inspect, pause, promote and fail job deployments",
	}

	cmd.AddCommand(newDeploymentsListCommand())
	cmd.AddCommand(newDeploymentsStatusCommand())
	cmd.AddCommand(newDeploymentsAllocsCommand())
	cmd.AddCommand(newDeploymentsFailCommand())
	cmd.AddCommand(newDeploymentsPauseCommand("pause", true))
	cmd.AddCommand(newDeploymentsPauseCommand("resume", false))
	cmd.AddCommand(newDeploymentsPromoteCommand())
	cmd.AddCommand(newDeploymentsHealthCommand())

	return cmd
}

func newDeploymentsListCommand() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List deployments",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Deployments().List(cmd.Context(), &nomad.QueryOptions{Prefix: prefix})
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), deploymentListTable(result))
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only deployments whose ID starts with this prefix")

	return cmd
}

func newDeploymentsStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status DEPLOYMENT_ID",
		Short: "Show deployment details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Deployments().Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), deploymentTable(result))
		},
	}
}

func newDeploymentsAllocsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "allocs DEPLOYMENT_ID",
		Short: "List allocations of a deployment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Deployments().Allocations(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), allocListTable(result))
		},
	}
}

func newDeploymentsFailCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fail DEPLOYMENT_ID",
		Short: "Mark a deployment failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Deployments().Fail(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), deploymentUpdateTable(result))
		},
	}
}

func newDeploymentsPauseCommand(use string, pause bool) *cobra.Command {
	short := "Pause a deployment"
	if !pause {
		short = "Resume a paused deployment"
	}

	return &cobra.Command{
		Use:   use + " DEPLOYMENT_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Deployments().Pause(cmd.Context(), args[0], pause)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), deploymentUpdateTable(result))
		},
	}
}

func newDeploymentsPromoteCommand() *cobra.Command {
	var groups []string

	cmd := &cobra.Command{
		Use:   "promote DEPLOYMENT_ID",
		Short: "Promote canaries of a deployment",
		Long:  "Promote the canaries of every task group, or only those named with --group.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &nomad.PromoteOptions{All: len(groups) == 0, Groups: groups}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Deployments().Promote(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), deploymentUpdateTable(result))
		},
	}

	cmd.Flags().StringSliceVar(&groups, "group", nil, "task group to promote (repeatable)")

	return cmd
}

func newDeploymentsHealthCommand() *cobra.Command {
	var healthy, unhealthy []string

	cmd := &cobra.Command{
		Use:   "health DEPLOYMENT_ID",
		Short: "Set allocation health manually",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &nomad.AllocHealthOptions{HealthyAllocationIDs: healthy, UnhealthyAllocationIDs: unhealthy}

			err := opts.Validate()
			if err != nil {
				return err
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Deployments().SetAllocHealth(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), deploymentUpdateTable(result))
		},
	}

	cmd.Flags().StringSliceVar(&healthy, "healthy", nil, "allocation IDs to mark healthy")
	cmd.Flags().StringSliceVar(&unhealthy, "unhealthy", nil, "allocation IDs to mark unhealthy")

	return cmd
}

func deploymentListTable(result *nomad.Result) tableFunc {
	return func(table *tablewriter.Table) error {
		deployments, err := decodeResult[[]nomad.Deployment](result)
		if err != nil {
			return err
		}

		table.Header("ID", "Job", "Version", "Status", "Description")

		for _, deployment := range deployments {
			_ = table.Append(shortID(deployment.ID), deployment.JobID, formatUint(deployment.JobVersion),
				deployment.Status, deployment.StatusDescription)
		}

		return nil
	}
}

func deploymentTable(result *nomad.Result) tableFunc {
	return func(table *tablewriter.Table) error {
		deployment, err := decodeResult[nomad.Deployment](result)
		if err != nil {
			return err
		}

		table.Header("Group", "Promoted", "Desired", "Canaries", "Placed", "Healthy", "Unhealthy")

		for _, name := range slices.Sorted(maps.Keys(deployment.TaskGroups)) {
			state := deployment.TaskGroups[name]
			_ = table.Append(name, yesNo(state.Promoted), strconv.Itoa(state.DesiredTotal),
				fmt.Sprintf("%d/%d", len(state.PlacedCanaries), state.DesiredCanaries),
				strconv.Itoa(state.PlacedAllocs), strconv.Itoa(state.HealthyAllocs), strconv.Itoa(state.UnhealthyAllocs))
		}

		return nil
	}
}

func deploymentUpdateTable(result *nomad.Result) tableFunc {
	return func(table *tablewriter.Table) error {
		update, err := decodeResult[nomad.DeploymentUpdateResponse](result)
		if err != nil {
			return err
		}

		table.Header("Property", "Value")
		_ = table.Append("Evaluation", orNA(update.EvalID))
		_ = table.Append("Deployment modify index", formatUint(update.DeploymentModifyIndex))

		if update.RevertedJobVersion != nil {
			_ = table.Append("Reverted to version", formatUint(*update.RevertedJobVersion))
		}

		return nil
	}
}
