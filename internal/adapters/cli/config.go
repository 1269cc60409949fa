package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration settings",
		Long: `Inspect floodfill configuration settings.

Configuration is loaded from multiple sources with priority:
1. Command-line flags (run and submit)
2. Environment variables (FF_* prefix, e.g. FF_LABELING_CUT_OFF)
3. Config file (config.yaml)
4. Default values

Examples:
  floodfill config show
  floodfill --config ./configs/modis.yaml config show`,
	}

	cmd.AddCommand(newConfigShowCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "floodfill Configuration")
			fmt.Fprintln(out, "=======================")

			fmt.Fprintln(out, "\nLabeling:")
			fmt.Fprintf(out, "  Adjacency:        %d\n", cfg.Labeling.Adjacency)
			if cfg.Labeling.SpatialOnly {
				fmt.Fprintf(out, "  Cut-off:          (spatial only)\n")
			} else if cfg.Labeling.CutOff != nil {
				fmt.Fprintf(out, "  Cut-off:          %d days\n", *cfg.Labeling.CutOff)
			}
			fmt.Fprintf(out, "  Temporal Mode:    %s\n", cfg.Labeling.TemporalMode)
			fmt.Fprintf(out, "  Strategy:         %s\n", cfg.Labeling.Strategy)
			fmt.Fprintf(out, "  Burn Values:      [%d, %d]\n", cfg.Labeling.LowerValue, cfg.Labeling.UpperValue)

			fmt.Fprintln(out, "\nBatch:")
			fmt.Fprintf(out, "  Workers:          %d\n", cfg.Batch.Workers)
			if cfg.Batch.DispatchRate > 0 {
				fmt.Fprintf(out, "  Dispatch Rate:    %.2f jobs/s (burst: %d)\n", cfg.Batch.DispatchRate, cfg.Batch.DispatchBurst)
			} else {
				fmt.Fprintf(out, "  Dispatch Rate:    unlimited\n")
			}
			fmt.Fprintf(out, "  File Extension:   %s\n", cfg.Batch.FileExtension)
			fmt.Fprintf(out, "  Save Burn Dates:  %t\n", cfg.Batch.SaveBurnDates)
			fmt.Fprintf(out, "  Record Runs:      %t\n", cfg.Batch.RecordRuns)

			fmt.Fprintln(out, "\nDatabase:")
			fmt.Fprintf(out, "  Type:             %s\n", cfg.Database.Type)
			switch {
			case cfg.Database.Type == "sqlite":
				fmt.Fprintf(out, "  Path:             %s\n", cfg.Database.Path)
			case cfg.Database.URL != "":
				fmt.Fprintf(out, "  URL:              %s\n", maskPassword(cfg.Database.URL))
			default:
				fmt.Fprintf(out, "  Host:             %s\n", cfg.Database.Host)
				fmt.Fprintf(out, "  Port:             %d\n", cfg.Database.Port)
				fmt.Fprintf(out, "  Database:         %s\n", cfg.Database.Name)
				fmt.Fprintf(out, "  User:             %s\n", cfg.Database.User)
			}

			fmt.Fprintln(out, "\nDaemon:")
			fmt.Fprintf(out, "  Socket Path:      %s\n", cfg.Daemon.SocketPath)
			fmt.Fprintf(out, "  PID File:         %s\n", cfg.Daemon.PIDFile)
			fmt.Fprintf(out, "  Max Runs:         %d\n", cfg.Daemon.MaxConcurrentRuns)
			fmt.Fprintf(out, "  Shutdown Timeout: %s\n", cfg.Daemon.ShutdownTimeout)

			fmt.Fprintln(out, "\nMetrics:")
			if cfg.Metrics.Enabled {
				fmt.Fprintf(out, "  Endpoint:         %s\n", cfg.Metrics.Endpoint())
			} else {
				fmt.Fprintf(out, "  Endpoint:         (disabled)\n")
			}

			fmt.Fprintln(out, "\nLogging:")
			fmt.Fprintf(out, "  Level:            %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "  Format:           %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "  Output:           %s\n", cfg.Logging.Output)
			fmt.Fprintf(out, "  Persist:          %t\n", cfg.Logging.Persist)

			return nil
		},
	}

	return cmd
}

// maskPassword hides the password of a database URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
