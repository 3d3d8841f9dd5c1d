package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/config"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/logging"
)

// ErrIssuesFound is returned by check when any snippet did not run cleanly.
var ErrIssuesFound = errors.New("issues found")

type options struct {
	logLevel string
	verbose  bool
}

// NewRootCommand builds the command tree. cfg supplies sandbox limits.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "bugfinder",
		Short:         "Find bugs in JavaScript snippets",
		Long:          "Validate, scan and run JavaScript snippets in an isolated sandbox and explain what went wrong.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log pipeline stages to stderr")

	root.AddCommand(newCheckCommand(cfg, opts))
	root.AddCommand(newTipsCommand())
	return root
}

func (o *options) logger() (*logging.Logger, error) {
	level := o.logLevel
	if o.verbose {
		level = "debug"
	}
	return logging.New(logging.Config{
		Level:       level,
		Development: true,
		OutputPaths: []string{"stderr"},
	})
}

// Execute runs the command line and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return 2
	}

	root := NewRootCommand(cfg)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		if errors.Is(err, ErrIssuesFound) {
			return 1
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

// Main is Execute over the process arguments and standard streams.
func Main() int {
	return Execute(os.Args[1:], os.Stdout, os.Stderr)
}
