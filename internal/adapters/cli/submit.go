package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	daemongrpc "github.com/andrescamacho/floodfill-go/internal/adapters/grpc"
	"github.com/andrescamacho/floodfill-go/internal/application/labeling"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// NewSubmitCommand creates the command that runs a batch on the daemon
func NewSubmitCommand() *cobra.Command {
	var (
		input        string
		outputFolder string
		runID        string
		wait         bool
		flags        labelingFlags
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Run a batch on the daemon",
		Long: `Discover rasters under --input and submit them to the daemon as one run.
Labeling flags left unset take the daemon's configured values. The burn
value range (--lower-value, --upper-value) is fixed by the daemon.

Without --wait the run ID is printed and the command returns immediately;
follow the run with "floodfill runs show <run-id> --daemon".

Examples:
  floodfill submit --input ./mcd64 --output-folder ./events --wait
  floodfill submit --input ./mcd64 --output-folder ./events --adjacency 4 --workers 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return shared.NewConfigError("input", "--input is required")
			}
			ext := flags.extension
			if !cmd.Flags().Changed("file-extension") {
				if cfg, err := loadConfig(); err == nil {
					ext = cfg.Batch.FileExtension
				}
			}

			// the daemon resolves paths against its own working directory
			absInput, err := filepath.Abs(input)
			if err != nil {
				return shared.NewConfigError("input", err.Error())
			}
			absOutput := outputFolder
			if outputFolder != "" {
				if absOutput, err = filepath.Abs(outputFolder); err != nil {
					return shared.NewConfigError("output folder", err.Error())
				}
			}

			specs, err := labeling.DiscoverJobs(absInput, absOutput, ext, flags.saveBurnDates)
			if err != nil {
				return err
			}

			req := buildRunBatchRequest(cmd, &flags)
			req.RunID = runID
			req.Wait = wait
			for _, spec := range specs {
				req.Jobs = append(req.Jobs, daemongrpc.JobMessage{
					Input:       spec.Input,
					Output:      spec.Output,
					DatesOutput: spec.DatesOutput,
				})
			}

			client, err := dialDaemon(socketPath)
			if err != nil {
				return fmt.Errorf("failed to connect to daemon: %w", err)
			}
			defer client.Close()

			run, err := client.RunBatch(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !wait {
				fmt.Fprintf(out, "Submitted run %s (%d jobs, %s)\n", run.RunID, run.JobCount, run.Status)
				return nil
			}
			printRunMessage(out, run)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Raster file or folder of rasters")
	cmd.Flags().StringVarP(&outputFolder, "output-folder", "o", "", "Folder receiving the event rasters")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run ID (generated when empty)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the run to finish and print its outcomes")
	flags.register(cmd)

	return cmd
}

// buildRunBatchRequest forwards only the flags the user set
func buildRunBatchRequest(cmd *cobra.Command, f *labelingFlags) daemongrpc.RunBatchRequest {
	changed := cmd.Flags().Changed
	var req daemongrpc.RunBatchRequest
	if changed("adjacency") {
		req.Adjacency = f.adjacency
	}
	if changed("cut-off") {
		cutOff := f.cutOff
		req.CutOff = &cutOff
	}
	req.SpatialOnly = f.spatialOnly
	if changed("temporal-mode") {
		req.TemporalMode = f.temporalMode
	}
	if changed("strategy") {
		req.Strategy = f.strategy
	}
	if changed("workers") {
		req.Workers = f.workers
	}
	req.SaveBurnDates = f.saveBurnDates
	return req
}

// withDaemon runs fn against a daemon connection
func withDaemon(ctx context.Context, fn func(ctx context.Context, client LabelClient) error) error {
	client, err := dialDaemon(socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer client.Close()
	return fn(ctx, client)
}
