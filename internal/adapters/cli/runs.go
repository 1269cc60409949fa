package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	daemongrpc "github.com/andrescamacho/floodfill-go/internal/adapters/grpc"
	"github.com/andrescamacho/floodfill-go/internal/application/labeling"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
)

// NewRunsCommand creates the run history command group
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and manage batch runs",
		Long: `Inspect recorded batch runs and their job logs.

Runs are read from the history database (batch.record_runs) unless --daemon
is given, in which case the daemon is asked instead.

Examples:
  floodfill runs list --limit 10
  floodfill runs show run-1a2b3c4d --events
  floodfill runs logs run-1a2b3c4d --level ERROR
  floodfill runs cancel run-1a2b3c4d`,
	}

	cmd.AddCommand(newRunsListCommand())
	cmd.AddCommand(newRunsShowCommand())
	cmd.AddCommand(newRunsLogsCommand())
	cmd.AddCommand(newRunsCancelCommand())

	return cmd
}

// withHistory runs fn against the in-process history handlers
func withHistory(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a.context(ctx), a)
}

func newRunsListCommand() *cobra.Command {
	var (
		limit      int
		fromDaemon bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if fromDaemon {
				return withDaemon(cmd.Context(), func(ctx context.Context, client LabelClient) error {
					runs, err := client.ListRuns(ctx, limit)
					if err != nil {
						return err
					}
					if len(runs) == 0 {
						fmt.Fprintln(out, "No runs found")
						return nil
					}
					for _, r := range runs {
						fmt.Fprintf(out, "%-20s  %-9s  jobs %4d  ok %4d  failed %4d  canceled %4d  events %d\n",
							r.RunID, r.Status, r.JobCount, r.Succeeded, r.Failed, r.Canceled, r.Events)
					}
					return nil
				})
			}

			return withHistory(cmd.Context(), func(ctx context.Context, a *app) error {
				resp, err := a.mediator.Send(ctx, &labeling.ListRunsQuery{Limit: limit})
				if err != nil {
					return fmt.Errorf("failed to list runs: %w", err)
				}
				runs := resp.(*labeling.ListRunsResponse).Runs
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs found")
					return nil
				}
				for _, r := range runs {
					t := r.Tally()
					fmt.Fprintf(out, "%-20s  %-9s  %s  jobs %4d  ok %4d  failed %4d  canceled %4d  events %d\n",
						r.ID(), r.Status(), r.Lifecycle().CreatedAt().Format("2006-01-02 15:04:05"),
						r.JobCount(), t.Succeeded, t.Failed, t.Canceled, t.Events)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs")
	cmd.Flags().BoolVar(&fromDaemon, "daemon", false, "Ask the daemon instead of the history database")

	return cmd
}

func newRunsShowCommand() *cobra.Command {
	var (
		events     bool
		fromDaemon bool
	)

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run and its job outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := args[0]
			out := cmd.OutOrStdout()

			if fromDaemon {
				return withDaemon(cmd.Context(), func(ctx context.Context, client LabelClient) error {
					run, err := client.GetRun(ctx, runID)
					if err != nil {
						return err
					}
					printRunMessage(out, run)
					return nil
				})
			}

			return withHistory(cmd.Context(), func(ctx context.Context, a *app) error {
				resp, err := a.mediator.Send(ctx, &labeling.GetRunQuery{RunID: runID, IncludeEvents: events})
				if err != nil {
					return err
				}
				result := resp.(*labeling.GetRunResponse)

				run := result.Run
				fmt.Fprintf(out, "Run:      %s\n", run.ID())
				fmt.Fprintf(out, "Status:   %s\n", run.Status())
				fmt.Fprintf(out, "Params:   %s\n", run.Params())
				fmt.Fprintf(out, "Workers:  %d\n", run.Workers())
				fmt.Fprintf(out, "Created:  %s\n\n", run.Lifecycle().CreatedAt().Format(time.RFC3339))

				for _, job := range result.Jobs {
					o := job.Outcome()
					fmt.Fprintln(out, lineFromOutcome(o))
					if events {
						printEvents(out, result.Events[o.Index])
					}
				}
				printTally(out, run.ID(), string(run.Status()), run.Workers(), batch.TallyOutcomes(outcomes(result.Jobs)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&events, "events", false, "Also list the events of each job")
	cmd.Flags().BoolVar(&fromDaemon, "daemon", false, "Ask the daemon instead of the history database")

	return cmd
}

func outcomes(jobs []*batch.Job) []batch.Outcome {
	result := make([]batch.Outcome, len(jobs))
	for i, job := range jobs {
		result[i] = job.Outcome()
	}
	return result
}

func newRunsLogsCommand() *cobra.Command {
	var (
		jobID string
		limit int
		level string
		since time.Duration
	)

	cmd := &cobra.Command{
		Use:   "logs <run-id>",
		Short: "Get the persisted logs of a run",
		Long: `Retrieve log entries of a run from the database (logging.persist).

Examples:
  floodfill runs logs run-1a2b3c4d
  floodfill runs logs run-1a2b3c4d --limit 50 --level ERROR
  floodfill runs logs run-1a2b3c4d --since 1h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := &labeling.GetJobLogsQuery{RunID: args[0], JobID: jobID, Limit: limit}
			if level != "" {
				query.Level = &level
			}
			if since > 0 {
				t := time.Now().Add(-since)
				query.Since = &t
			}

			return withHistory(cmd.Context(), func(ctx context.Context, a *app) error {
				resp, err := a.mediator.Send(ctx, query)
				if err != nil {
					return fmt.Errorf("failed to get logs: %w", err)
				}
				logs := resp.(*labeling.GetJobLogsResponse).Logs

				out := cmd.OutOrStdout()
				if len(logs) == 0 {
					fmt.Fprintln(out, "No logs found for run:", args[0])
					return nil
				}

				// Display logs in reverse order (oldest first)
				for i := len(logs) - 1; i >= 0; i-- {
					log := logs[i]
					fmt.Fprintf(out, "[%s] [%s] %s\n",
						log.Timestamp.Format("2006-01-02 15:04:05"),
						log.Level,
						log.Message,
					)
				}

				fmt.Fprintf(out, "\nTotal: %d log entries\n", len(logs))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "Only entries of this job")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of log entries")
	cmd.Flags().StringVar(&level, "level", "", "Filter by log level (INFO, WARNING, ERROR, DEBUG)")
	cmd.Flags().DurationVar(&since, "since", 0, "Only entries newer than this (e.g. 30m)")

	return cmd
}

func newRunsCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <run-id>",
		Short: "Cancel a run on the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDaemon(cmd.Context(), func(ctx context.Context, client LabelClient) error {
				run, err := client.CancelRun(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancel requested for run %s (%s)\n", run.RunID, run.Status)
				return nil
			})
		},
	}
}

var _ LabelClient = (*daemongrpc.DaemonClientGRPC)(nil)
