package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

var (
	// Global flags
	configPath string
	socketPath string
	verbose    bool
)

// Exit codes
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "floodfill",
		Short: "floodfill - label fire events in burned-area rasters",
		Long: `floodfill groups burned pixels of a burn-date raster into fire events.
Two burned pixels belong to the same event when they touch (4 or 8 adjacency)
and their burn dates lie within the cut-off window.

Batches run in-process with "run" or on the daemon with "submit".

Examples:
  floodfill run --input ./mcd64 --output-folder ./events --workers 8
  floodfill run --input tile.tif --output-folder ./events --adjacency 4 --cut-off 5 -b
  floodfill submit --input ./mcd64 --output-folder ./events --wait
  floodfill runs list
  floodfill runs logs run-1a2b3c4d --level ERROR`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ., ./configs, /etc/floodfill)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", getDefaultSocketPath(),
		"Path to daemon Unix socket")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewSubmitCommand())
	rootCmd.AddCommand(NewRunsCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// getDefaultSocketPath returns the default socket path
func getDefaultSocketPath() string {
	if path := os.Getenv("FF_DAEMON_SOCKET_PATH"); path != "" {
		return path
	}
	return "/tmp/floodfill-daemon.sock"
}

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cfgErr *shared.ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	return ExitFailure
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(ExitCode(err))
	}
}
