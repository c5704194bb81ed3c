package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rebind-dev/rebind/internal/config"
	rberrors "github.com/rebind-dev/rebind/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌┐ ┬┌┐┌┌┬┐
  ├┬┘├┤ ├┴┐││││ ││
  ┴└─└─┘└─┘┴┘└┘─┴┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "rebind",
		Short: "Coordinated effects over live channel feeds",
		Long: `Rebind coordinates side effects over changing values.

It ships a websocket feed hub for publishing channel values, and a
tail command that binds to channels and runs a coalesced effect over
them. Together they demonstrate the bindeffect pipeline end to end:

  • Bindings with stable identity and change tracking
  • Debounced, latest-wins effect evaluation
  • Deep change detection to suppress no-op firings
  • Journaling and Prometheus metrics for every firing`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(
		serveCmd(),
		tailCmd(),
		versionCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		rberrors.PrintError(err)
		os.Exit(1)
	}
}

// loadConfig loads rebind.json from the working tree. Serve and tail
// run fine without one, so a missing config file falls back to the
// built-in defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		var re *rberrors.RebindError
		if errors.As(err, &re) && re.Code == "E101" {
			return config.New(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// printBanner prints the rebind ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
