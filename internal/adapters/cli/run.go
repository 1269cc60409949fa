package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/floodfill-go/internal/application/labeling"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
	"github.com/andrescamacho/floodfill-go/internal/infrastructure/config"
)

// NewRunCommand creates the in-process batch command
func NewRunCommand() *cobra.Command {
	var (
		input        string
		outputFolder string
		flags        labelingFlags
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Label fire events in a raster or a folder of rasters",
		Long: `Label every burned-area raster under --input and write one event-id raster
per input to --output-folder, named <stem>-floodfill_ids<ext>. With -b a
<stem>-floodfill_burndates<ext> raster is written too.

One line is printed per job. The command exits 0 even if jobs failed;
configuration errors exit 2 before any job starts.

Examples:
  floodfill run --input ./mcd64 --output-folder ./events --workers 8
  floodfill run --input tile.tif --output-folder ./events --spatial-only
  floodfill run --input tile.tif --output-folder ./events --temporal-mode seed --cut-off 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := config.ValidateConfig(cfg); err != nil {
				return err
			}
			if input == "" {
				return shared.NewConfigError("input", "--input is required")
			}

			specs, err := labeling.DiscoverJobs(input, outputFolder, cfg.Batch.FileExtension, cfg.Batch.SaveBurnDates)
			if err != nil {
				return err
			}
			opts, err := optionsFromConfig(cfg)
			if err != nil {
				return err
			}

			a, err := newApp(cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			resp, err := a.mediator.Send(a.context(ctx), &labeling.RunBatchCommand{Jobs: specs, Options: opts})
			result, ok := resp.(*labeling.RunBatchResponse)
			if !ok {
				if err == nil {
					err = fmt.Errorf("unexpected response type %T", resp)
				}
				return err
			}

			out := cmd.OutOrStdout()
			for _, o := range result.Outcomes {
				fmt.Fprintln(out, lineFromOutcome(o))
			}
			printTally(out, result.RunID, string(result.Status), result.Workers, result.Tally)

			if err != nil {
				return fmt.Errorf("run interrupted: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Raster file or folder of rasters")
	cmd.Flags().StringVarP(&outputFolder, "output-folder", "o", "", "Folder receiving the event rasters")
	flags.register(cmd)

	return cmd
}
