package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/nomad-client/internal/constants"
	"github.com/fivetwenty-io/nomad-client/pkg/nomad"
)

// NewJobsCommand creates the jobs command group.
func NewJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Manage jobs",
		Long:    "Register, inspect and control Nomad jobs",
	}

	cmd.AddCommand(newJobsListCommand())
	cmd.AddCommand(newJobsStatusCommand())
	cmd.AddCommand(newJobsRunCommand())
	cmd.AddCommand(newJobsPlanCommand())
	cmd.AddCommand(newJobsStopCommand())
	cmd.AddCommand(newJobsVersionsCommand())
	cmd.AddCommand(newJobsAllocsCommand())
	cmd.AddCommand(newJobsEvalsCommand())
	cmd.AddCommand(newJobsDeploymentsCommand())
	cmd.AddCommand(newJobsSummaryCommand())
	cmd.AddCommand(newJobsDispatchCommand())
	cmd.AddCommand(newJobsRevertCommand())
	cmd.AddCommand(newJobsStabilityCommand())
	cmd.AddCommand(newJobsEvaluateCommand())
	cmd.AddCommand(newJobsPeriodicForceCommand())

	return cmd
}

func newJobsListCommand() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Jobs().List(cmd.Context(), &nomad.QueryOptions{Prefix: prefix})
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				jobs, err := decodeResult[[]nomad.JobListStub](result)
				if err != nil {
					return err
				}

				table.Header("ID", "Type", "Priority", "Status", "Submitted")

				for _, job := range jobs {
					_ = table.Append(job.ID, job.Type, strconv.Itoa(job.Priority), job.Status, formatNanos(job.SubmitTime))
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only jobs whose ID starts with this prefix")

	return cmd
}

func newJobsStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status JOB_ID",
		Short: "Show job details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobRead(cmd, args[0], func(ctx context.Context, jobs nomad.JobsClient, id string) (*nomad.Result, error) {
				return jobs.Read(ctx, id)
			}, jobTable)
		},
	}
}

func jobTable(result *nomad.Result) tableFunc {
	return func(table *tablewriter.Table) error {
		job, err := decodeResult[nomad.Job](result)
		if err != nil {
			return err
		}

		table.Header("Property", "Value")
		_ = table.Append("ID", job.ID)
		_ = table.Append("Name", job.Name)
		_ = table.Append("Type", job.Type)
		_ = table.Append("Namespace", orNA(job.Namespace))
		_ = table.Append("Priority", strconv.Itoa(job.Priority))
		_ = table.Append("Datacenters", strings.Join(job.Datacenters, ","))
		_ = table.Append("Status", job.Status)
		_ = table.Append("Version", formatUint(job.Version))
		_ = table.Append("Stable", yesNo(job.Stable))
		_ = table.Append("Stopped", yesNo(job.Stop))

		for _, group := range job.TaskGroups {
			_ = table.Append("Group "+group.Name, fmt.Sprintf("count=%d tasks=%d", group.Count, len(group.Tasks)))
		}

		return nil
	}
}

func newJobsRunCommand() *cobra.Command {
	var (
		file           string
		checkIndex     uint64
		policyOverride bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Register or update a job from a JSON or YAML file",
		Long: `Register a job. The file holds the API form of a job, either bare or
wrapped as {"Job": {...}}. Use "-" to read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return constants.ErrJobFileRequired
			}

			job, err := readJobFile(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			opts := &nomad.RegisterOptions{PolicyOverride: policyOverride}
			if cmd.Flags().Changed("check-index") {
				opts.EnforceIndex = true
				opts.JobModifyIndex = checkIndex
			}

			result, err := client.Jobs().Register(cmd.Context(), job, opts)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), registerTable(result))
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "job file (JSON or YAML, - for stdin)")
	cmd.Flags().Uint64Var(&checkIndex, "check-index", 0, "only register if the job's modify index matches")
	cmd.Flags().BoolVar(&policyOverride, "policy-override", false, "override soft-mandatory Sentinel policies")

	return cmd
}

func registerTable(result *nomad.Result) tableFunc {
	return func(table *tablewriter.Table) error {
		response, err := decodeResult[nomad.JobRegisterResponse](result)
		if err != nil {
			return err
		}

		table.Header("Property", "Value")
		_ = table.Append("Evaluation", orNA(response.EvalID))
		_ = table.Append("Job modify index", formatUint(response.JobModifyIndex))

		if response.Warnings != "" {
			_ = table.Append("Warnings", response.Warnings)
		}

		return nil
	}
}

func newJobsPlanCommand() *cobra.Command {
	var (
		file           string
		diff           bool
		policyOverride bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Dry-run a job update",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return constants.ErrJobFileRequired
			}

			job, err := readJobFile(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			jobID, err := jobIDOf(job)
			if err != nil {
				return err
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Jobs().Plan(cmd.Context(), jobID, job, &nomad.PlanOptions{
				Diff:           diff,
				PolicyOverride: policyOverride,
			})
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				plan, err := decodeResult[nomad.JobPlanResponse](result)
				if err != nil {
					return err
				}

				table.Header("Property", "Value")
				_ = table.Append("Job modify index", formatUint(plan.JobModifyIndex))
				_ = table.Append("Failed allocations", strconv.Itoa(len(plan.FailedTGAllocs)))

				if plan.NextPeriodicLaunch != "" {
					_ = table.Append("Next periodic launch", plan.NextPeriodicLaunch)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "job file (JSON or YAML, - for stdin)")
	cmd.Flags().BoolVar(&diff, "diff", true, "include the job diff")
	cmd.Flags().BoolVar(&policyOverride, "policy-override", false, "override soft-mandatory Sentinel policies")

	return cmd
}

func newJobsStopCommand() *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "stop JOB_ID",
		Short: "Stop (deregister) a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Jobs().Deregister(cmd.Context(), args[0], &nomad.DeregisterOptions{Purge: purge})
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), registerTable(result))
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "purge the job instead of leaving it to garbage collection")

	return cmd
}

func newJobsVersionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "versions JOB_ID",
		Short: "List job versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobRead(cmd, args[0], func(ctx context.Context, jobs nomad.JobsClient, id string) (*nomad.Result, error) {
				return jobs.Versions(ctx, id)
			}, nil)
		},
	}
}

func newJobsAllocsCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "allocs JOB_ID",
		Short: "List a job's allocations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobRead(cmd, args[0], func(ctx context.Context, jobs nomad.JobsClient, id string) (*nomad.Result, error) {
				return jobs.Allocations(ctx, id, &nomad.AllocationsOptions{All: all})
			}, allocListTable)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include allocations of earlier jobs with the same ID")

	return cmd
}

func newJobsEvalsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "evals JOB_ID",
		Short: "List a job's evaluations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobRead(cmd, args[0], func(ctx context.Context, jobs nomad.JobsClient, id string) (*nomad.Result, error) {
				return jobs.Evaluations(ctx, id)
			}, evalListTable)
		},
	}
}

func newJobsDeploymentsCommand() *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "deployments JOB_ID",
		Short: "List a job's deployments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if latest {
				return runJobRead(cmd, args[0], func(ctx context.Context, jobs nomad.JobsClient, id string) (*nomad.Result, error) {
					return jobs.LatestDeployment(ctx, id)
				}, deploymentTable)
			}

			return runJobRead(cmd, args[0], func(ctx context.Context, jobs nomad.JobsClient, id string) (*nomad.Result, error) {
				return jobs.Deployments(ctx, id)
			}, deploymentListTable)
		},
	}

	cmd.Flags().BoolVar(&latest, "latest", false, "show only the most recent deployment")

	return cmd
}

func newJobsSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary JOB_ID",
		Short: "Show allocation counts per task group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobRead(cmd, args[0], func(ctx context.Context, jobs nomad.JobsClient, id string) (*nomad.Result, error) {
				return jobs.Summary(ctx, id)
			}, func(result *nomad.Result) tableFunc {
				return func(table *tablewriter.Table) error {
					summary, err := decodeResult[nomad.JobSummary](result)
					if err != nil {
						return err
					}

					table.Header("Group", "Queued", "Starting", "Running", "Failed", "Complete", "Lost")

					for _, name := range slices.Sorted(maps.Keys(summary.Summary)) {
						group := summary.Summary[name]
						_ = table.Append(name,
							strconv.Itoa(group.Queued), strconv.Itoa(group.Starting), strconv.Itoa(group.Running),
							strconv.Itoa(group.Failed), strconv.Itoa(group.Complete), strconv.Itoa(group.Lost))
					}

					return nil
				}
			})
		},
	}
}

func newJobsDispatchCommand() *cobra.Command {
	var (
		payloadFile string
		meta        []string
	)

	cmd := &cobra.Command{
		Use:   "dispatch JOB_ID",
		Short: "Dispatch an instance of a parameterized job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &nomad.DispatchOptions{}

			if payloadFile != "" {
				payload, err := readInput(cmd.InOrStdin(), payloadFile)
				if err != nil {
					return err
				}

				opts.Payload = payload
			}

			if len(meta) > 0 {
				opts.Meta = make(map[string]string, len(meta))

				for _, pair := range meta {
					key, value, found := strings.Cut(pair, "=")
					if !found {
						return fmt.Errorf("%w: meta %q is not key=value", nomad.ErrInvalidOption, pair)
					}

					opts.Meta[key] = value
				}
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Jobs().Dispatch(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), func(table *tablewriter.Table) error {
				response, err := decodeResult[nomad.JobDispatchResponse](result)
				if err != nil {
					return err
				}

				table.Header("Property", "Value")
				_ = table.Append("Dispatched job", response.DispatchedJobID)
				_ = table.Append("Evaluation", orNA(response.EvalID))

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&payloadFile, "payload-file", "", "file whose contents become the dispatch payload (- for stdin)")
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "metadata as key=value (repeatable)")

	return cmd
}

func newJobsRevertCommand() *cobra.Command {
	var priorVersion uint64

	cmd := &cobra.Command{
		Use:   "revert JOB_ID VERSION",
		Short: "Revert a job to an earlier version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: version %q: %w", nomad.ErrInvalidOption, args[1], err)
			}

			var enforce *uint64
			if cmd.Flags().Changed("prior-version") {
				enforce = &priorVersion
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Jobs().Revert(cmd.Context(), args[0], version, enforce)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), registerTable(result))
		},
	}

	cmd.Flags().Uint64Var(&priorVersion, "prior-version", 0, "only revert if the current version matches")

	return cmd
}

func newJobsStabilityCommand() *cobra.Command {
	var unstable bool

	cmd := &cobra.Command{
		Use:   "stability JOB_ID VERSION",
		Short: "Mark a job version stable or unstable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("%w: version %q: %w", nomad.ErrInvalidOption, args[1], err)
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			result, err := client.Jobs().Stability(cmd.Context(), args[0], version, !unstable)
			if err != nil {
				return err
			}

			return render(cmd, resultData(result), nil)
		},
	}

	cmd.Flags().BoolVar(&unstable, "unstable", false, "mark the version unstable instead")

	return cmd
}

func newJobsEvaluateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate JOB_ID",
		Short: "Force a new evaluation of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobRead(cmd, args[0], func(ctx context.Context, jobs nomad.JobsClient, id string) (*nomad.Result, error) {
				return jobs.Evaluate(ctx, id)
			}, registerTable)
		},
	}
}

func newJobsPeriodicForceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "periodic-force JOB_ID",
		Short: "Launch a periodic job immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobRead(cmd, args[0], func(ctx context.Context, jobs nomad.JobsClient, id string) (*nomad.Result, error) {
				return jobs.ForcePeriodic(ctx, id)
			}, registerTable)
		},
	}
}

type jobCall func(ctx context.Context, jobs nomad.JobsClient, jobID string) (*nomad.Result, error)

// runJobRead runs one job call and renders its result. A nil table
// renders JSON.
func runJobRead(cmd *cobra.Command, jobID string, call jobCall, table func(*nomad.Result) tableFunc) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	result, err := call(cmd.Context(), client.Jobs(), jobID)
	if err != nil {
		return err
	}

	var fill tableFunc
	if table != nil {
		fill = table(result)
	}

	return render(cmd, resultData(result), fill)
}

// readJobFile loads a job in API form. {"Job": {...}} wrappers are removed.
func readJobFile(stdin io.Reader, path string) (map[string]interface{}, error) {
	data, err := readInput(stdin, path)
	if err != nil {
		return nil, err
	}

	var job map[string]interface{}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(data, &job)
	default:
		err = json.Unmarshal(data, &job)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}

	if inner, ok := job["Job"].(map[string]interface{}); ok {
		job = inner
	}

	return job, nil
}

func jobIDOf(job map[string]interface{}) (string, error) {
	id, _ := job["ID"].(string)
	if id == "" {
		return "", fmt.Errorf("%w: job has no ID", nomad.ErrIDRequired)
	}

	return id, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}
