package commands

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// NewNodesCommand creates the nodes command group.
func NewNodesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "nodes",
		Aliases: []string{"node"},
		Short:   "Manage client nodes",
		Long:    "List, inspect, drain and purge Nomad client nodes",
	}

	cmd.AddCommand(newNodesListCommand())
	cmd.AddCommand(newNodesStatusCommand())
	cmd.AddCommand(newNodesAllocsCommand())
	cmd.AddCommand(newNodesDrainCommand())
	cmd.AddCommand(newNodesEvaluateCommand())
	cmd.AddCommand(newNodesPurgeCommand())
	cmd.AddCommand(newNodesStatsCommand())

	return cmd
}

func newNodesListCommand() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List client nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Nodes().List(cmd.Context(), &nomad.QueryOptions{Prefix: prefix})
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				nodes, err := decodeResult[[]nomad.NodeListStub](result)
				if err != nil {
					return err
				}

				table.Header("ID", "DC", "Name", "Class", "Drain", "Eligibility", "Status")

				for _, node := range nodes {
					_ = table.Append(shortID(node.ID), node.Datacenter, node.Name, orNA(node.NodeClass),
						yesNo(node.Drain), node.SchedulingEligibility, node.Status)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only nodes whose ID starts with this prefix")

	return cmd
}

func newNodesStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status NODE_ID",
		Short: "Show node details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Nodes().Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				node, err := decodeResult[nomad.Node](result)
				if err != nil {
					return err
				}

				table.Header("Property", "Value")
				_ = table.Append("ID", node.ID)
				_ = table.Append("Name", node.Name)
				_ = table.Append("Datacenter", node.Datacenter)
				_ = table.Append("Class", orNA(node.NodeClass))
				_ = table.Append("HTTP address", orNA(node.HTTPAddr))
				_ = table.Append("Drain", yesNo(node.Drain))
				_ = table.Append("Eligibility", node.SchedulingEligibility)
				_ = table.Append("Status", node.Status)

				if osName := node.Attributes["os.name"]; osName != "" {
					_ = table.Append("OS", osName)
				}

				return nil
			})
		},
	}
}

func newNodesAllocsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "allocs NODE_ID",
		Short: "List allocations placed on a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Nodes().Allocations(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), allocListTable(result))
		},
	}
}

func newNodesDrainCommand() *cobra.Command {
	var enable, disable bool

	cmd := &cobra.Command{
		Use:   "drain NODE_ID",
		Short: "Enable or disable drain mode on a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if enable && disable {
				return constants.ErrDrainFlagsConflict
			}

			if !enable && !disable {
				return constants.ErrDrainFlagRequired
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Nodes().Drain(cmd.Context(), args[0], enable)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), nodeUpdateTable(result))
		},
	}

	cmd.Flags().BoolVar(&enable, "enable", false, "enable drain mode")
	cmd.Flags().BoolVar(&disable, "disable", false, "disable drain mode")

	return cmd
}

func newNodesEvaluateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate NODE_ID",
		Short: "Create evaluations for the jobs with allocations on a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Nodes().Evaluate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), nodeUpdateTable(result))
		},
	}
}

func newNodesPurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge NODE_ID",
		Short: "Remove a node from the cluster state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Nodes().Purge(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), nodeUpdateTable(result))
		},
	}
}

func newNodesStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show resource usage of the client agent at --address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.ClientStats().Stats(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				stats, err := decodeResult[nomad.HostStats](result)
				if err != nil {
					return err
				}

				table.Header("Property", "Value")
				_ = table.Append("Uptime (s)", formatUint(stats.Uptime))

				if stats.Memory != nil {
					_ = table.Append("Memory total", formatUint(stats.Memory.Total))
					_ = table.Append("Memory used", formatUint(stats.Memory.Used))
					_ = table.Append("Memory available", formatUint(stats.Memory.Available))
				}

				_ = table.Append("CPUs", strconv.Itoa(len(stats.CPU)))

				return nil
			})
		},
	}
}

func nodeUpdateTable(result *nomad.Result) tableFunc {
	return func(table *tablewriter.Table) error {
		update, err := decodeResult[nomad.NodeUpdateResponse](result)
		if err != nil {
			return err
		}

		table.Header("Property", "Value")
		_ = table.Append("Evaluations", orNA(strings.Join(update.EvalIDs, ",")))
		_ = table.Append("Node modify index", formatUint(update.NodeModifyIndex))

		return nil
	}
}
