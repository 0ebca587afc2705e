package commands

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// NewAgentCommand creates the agent command group.
func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Query the agent at --address",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "members",
		Short: "List gossip members (servers only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Agent().Members(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				members, err := decodeResult[nomad.AgentMembers](result)
				if err != nil {
					return err
				}

				table.Header("Name", "Address", "Port", "Status", "Region", "DC")

				for _, member := range members.Members {
					_ = table.Append(member.Name, member.Addr, strconv.Itoa(int(member.Port)), member.Status,
						orNA(member.Tags["region"]), orNA(member.Tags["dc"]))
				}

				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "servers",
		Short: "List the servers known to a client agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Agent().Servers(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), stringListTable("Server", result))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "replace-servers ADDRESS...",
		Short: "Replace the servers known to a client agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return constants.ErrAddressRequired
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			replaced, err := client.Agent().ReplaceServers(cmd.Context(), args...)
			if err != nil {
				return err
			}

			return printBool(cmd, replaced, "Server list updated", "Server list not updated")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "self",
		Short: "Show the agent's configuration and stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Agent().Self(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), nil)
		},
	})

	return cmd
}

// NewStatusCommand creates the status command group.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the raft leader and peers of the region",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "leader",
		Short: "Show the current leader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Status().Leader(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				leader, _ := result.Data.(string)

				table.Header("Leader")
				_ = table.Append(orNA(leader))

				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "peers",
		Short: "List raft peers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Status().Peers(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), stringListTable("Peer", result))
		},
	})

	return cmd
}

func stringListTable(header string, result *nomad.Result) tableFunc {
	return func(table *tablewriter.Table) error {
		values, err := decodeResult[[]string](result)
		if err != nil {
			return err
		}

		table.Header(header)

		for _, value := range values {
			_ = table.Append(value)
		}

		return nil
	}
}
