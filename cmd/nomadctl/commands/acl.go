package commands

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// NewACLCommand creates the acl command group.
func NewACLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acl",
		Short: "Manage ACL tokens and policies",
	}

	cmd.AddCommand(newACLBootstrapCommand())
	cmd.AddCommand(newACLTokenCommand())
	cmd.AddCommand(newACLPolicyCommand())

	return cmd
}

func newACLBootstrapCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap the ACL system and print the initial management token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.ACLTokens().Bootstrap(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), tokenTable(result, true))
		},
	}
}

func newACLTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "token",
		Aliases: []string{"tokens"},
		Short:   "Manage ACL tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List ACL tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.ACLTokens().List(cmd.Context(), nil)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				tokens, err := decodeResult[[]nomad.ACLTokenListStub](result)
				if err != nil {
					return err
				}

				table.Header("Accessor", "Name", "Type", "Global", "Policies")

				for _, token := range tokens {
					_ = table.Append(token.AccessorID, orNA(token.Name), token.Type, yesNo(token.Global),
						strings.Join(token.Policies, ","))
				}

				return nil
			})
		},
	})

	cmd.AddCommand(newACLTokenWriteCommand("create", "Create an ACL token"))
	cmd.AddCommand(newACLTokenWriteCommand("update ACCESSOR_ID", "Update an ACL token"))

	cmd.AddCommand(&cobra.Command{
		Use:   "info [ACCESSOR_ID]",
		Short: "Show an ACL token (the calling token when no accessor is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			var accessor string
			if len(args) == 1 {
				accessor = args[0]
			}

			result, err := client.ACLTokens().Read(cmd.Context(), accessor)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), tokenTable(result, false))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "self",
		Short: "Show the calling token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.ACLTokens().Self(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), tokenTable(result, false))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ACCESSOR_ID",
		Short: "Delete an ACL token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			deleted, err := client.ACLTokens().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printBool(cmd, deleted, "Token "+args[0]+" deleted", "Token "+args[0]+" not found")
		},
	})

	return cmd
}

func newACLTokenWriteCommand(use, short string) *cobra.Command {
	var (
		name      string
		tokenType string
		policies  []string
		global    bool
	)

	update := strings.HasPrefix(use, "update")

	positional := cobra.NoArgs
	if update {
		positional = cobra.ExactArgs(1)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  positional,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenType == nomad.TokenTypeClient && len(policies) == 0 {
				return constants.ErrPolicyRequired
			}

			request := &nomad.TokenRequest{Name: name, Type: tokenType, Policies: policies, Global: global}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			var result *nomad.Result
			if update {
				result, err = client.ACLTokens().Update(cmd.Context(), args[0], request)
			} else {
				result, err = client.ACLTokens().Create(cmd.Context(), request)
			}

			if err != nil {
				return err
			}

			return render(cmd, resultData(result), tokenTable(result, true))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "human readable token name")
	cmd.Flags().StringVar(&tokenType, "type", nomad.TokenTypeClient, "token type (client or management)")
	cmd.Flags().StringSliceVar(&policies, "policy", nil, "policy to attach (repeatable)")

	if !update {
		cmd.Flags().BoolVar(&global, "global", false, "replicate the token to all regions")
	}

	return cmd
}

// tokenTable renders a token; the secret is only shown when showSecret is set.
func tokenTable(result *nomad.Result, showSecret bool) func(table *tablewriter.Table) error {
	return func(table *tablewriter.Table) error {
		token, err := decodeResult[nomad.ACLToken](result)
		if err != nil {
			return err
		}

		table.Header("Property", "Value")
		_ = table.Append("Accessor ID", token.AccessorID)

		if showSecret {
			_ = table.Append("Secret ID", token.SecretID)
		}

		_ = table.Append("Name", orNA(token.Name))
		_ = table.Append("Type", token.Type)
		_ = table.Append("Global", yesNo(token.Global))
		_ = table.Append("Policies", orNA(strings.Join(token.Policies, ",")))

		return nil
	}
}

func newACLPolicyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "policy",
		Aliases: []string{"policies"},
		Short:   "Manage ACL policies",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List ACL policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.ACLPolicies().List(cmd.Context(), nil)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				policies, err := decodeResult[[]nomad.ACLPolicyListStub](result)
				if err != nil {
					return err
				}

				table.Header("Name", "Description")

				for _, policy := range policies {
					_ = table.Append(policy.Name, orNA(policy.Description))
				}

				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "info NAME",
		Short: "Show an ACL policy and its rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.ACLPolicies().Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				policy, err := decodeResult[nomad.ACLPolicy](result)
				if err != nil {
					return err
				}

				table.Header("Property", "Value")
				_ = table.Append("Name", policy.Name)
				_ = table.Append("Description", orNA(policy.Description))
				_ = table.Append("Rules", policy.Rules)

				return nil
			})
		},
	})

	cmd.AddCommand(newACLPolicyApplyCommand())

	cmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an ACL policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			deleted, err := client.ACLPolicies().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printBool(cmd, deleted, "Policy "+args[0]+" deleted", "Policy "+args[0]+" not found")
		},
	})

	return cmd
}

func newACLPolicyApplyCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "apply NAME RULES_FILE",
		Short: "Create or update an ACL policy from an HCL rules file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := readInput(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			written, err := client.ACLPolicies().Upsert(cmd.Context(), args[0], &nomad.PolicyRequest{
				Description: description,
				Rules:       string(rules),
			})
			if err != nil {
				return err
			}

			return printBool(cmd, written, "Policy "+args[0]+" written", "Policy "+args[0]+" not written")
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "policy description")

	return cmd
}
