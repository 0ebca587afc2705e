package commands

import (
	"fmt"
	"maps"
	"slices"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// NewAllocsCommand creates the allocations command group.
func NewAllocsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "allocs",
		Aliases: []string{"alloc", "allocations"},
		Short:   "Inspect allocations",
	}

	cmd.AddCommand(newAllocsListCommand())
	cmd.AddCommand(newAllocsStatusCommand())
	cmd.AddCommand(newAllocsStatsCommand())

	return cmd
}

func newAllocsListCommand() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List allocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Allocations().List(cmd.Context(), &nomad.QueryOptions{Prefix: prefix})
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), allocListTable(result))
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only allocations whose ID starts with this prefix")

	return cmd
}

func newAllocsStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status ALLOC_ID",
		Short: "Show allocation details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Allocations().Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				alloc, err := decodeResult[nomad.Allocation](result)
				if err != nil {
					return err
				}

				table.Header("Property", "Value")
				_ = table.Append("ID", alloc.ID)
				_ = table.Append("Name", alloc.Name)
				_ = table.Append("Job", alloc.JobID)

				if alloc.Job != nil {
					_ = table.Append("Job version", formatUint(alloc.Job.Version))
				}

				_ = table.Append("Node", orNA(alloc.NodeName))
				_ = table.Append("Desired", alloc.DesiredStatus)
				_ = table.Append("Client status", alloc.ClientStatus)

				for _, task := range slices.Sorted(maps.Keys(alloc.TaskStates)) {
					state := alloc.TaskStates[task]
					_ = table.Append("Task "+task, fmt.Sprintf("%s (restarts=%d)", state.State, state.Restarts))
				}

				return nil
			})
		},
	}
}

func newAllocsStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats ALLOC_ID",
		Short: "Show resource usage of an allocation (served by its client agent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.ClientStats().AllocationStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), nil)
		},
	}
}

func allocListTable(result *nomad.Result) tableFunc {
	return func(table *tablewriter.Table) error {
		allocs, err := decodeResult[[]nomad.AllocationListStub](result)
		if err != nil {
			return err
		}

		table.Header("ID", "Job", "Group", "Node", "Desired", "Status", "Modified")

		for _, alloc := range allocs {
			_ = table.Append(shortID(alloc.ID), alloc.JobID, alloc.TaskGroup, shortID(alloc.NodeID),
				alloc.DesiredStatus, alloc.ClientStatus, formatNanos(alloc.ModifyTime))
		}

		return nil
	}
}
