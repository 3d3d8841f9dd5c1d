package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/bugfinder/internal/domain/analysis"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/config"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/server"
	"github.com/GriffinCanCode/bugfinder/internal/providers/sandbox"
)

const stdinName = "-"

type checkOptions struct {
	format      string
	concurrency int
}

// fileResult pairs an analysis with the file it came from. Err is set when
// the file could not be read and Result is empty.
type fileResult struct {
	index  int
	File   string          `json:"file"`
	Result analysis.Result `json:"result"`
	Err    string          `json:"error,omitempty"`
}

func (r fileResult) clean() bool {
	return r.Err == "" && r.Result.Category == analysis.CategoryNoError
}

func newCheckCommand(cfg *config.Config, root *options) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [file...]",
		Short: "Analyze JavaScript files",
		Long: `Analyze each file as an independent snippet. Use "-" to read from stdin.
Exits with status 1 when any file has a syntax error, a runtime error or a possible issue.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "table" && opts.format != "json" {
				return fmt.Errorf("unknown format %q (want table or json)", opts.format)
			}

			logger, err := root.logger()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			sbCfg := server.SandboxConfig(cfg)
			if opts.concurrency > sbCfg.PoolSize {
				sbCfg.PoolSize = opts.concurrency
			}
			executor, err := sandbox.NewExecutor(sbCfg)
			if err != nil {
				return err
			}
			defer executor.Close()

			analyzer := analysis.NewAnalyzer(executor).
				WithMaxSourceBytes(cfg.Sandbox.MaxSourceBytes).
				WithLogger(logger.Component("analysis"))

			results := checkFiles(cmd.Context(), analyzer, args, cmd.InOrStdin(), opts.concurrency)

			out := cmd.OutOrStdout()
			if opts.format == "json" {
				err = renderJSON(out, results)
			} else {
				err = renderTable(out, results)
			}
			if err != nil {
				return err
			}

			for _, r := range results {
				if !r.clean() {
					return ErrIssuesFound
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "table", "Output format (table, json)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 4, "Files analyzed at once")
	return cmd
}

// checkFiles analyzes every file on a bounded pool and returns results in
// argument order.
func checkFiles(ctx context.Context, analyzer *analysis.Analyzer, files []string, stdin io.Reader, concurrency int) []fileResult {
	if ctx == nil {
		ctx = context.Background()
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	// stdin can only be read once, so it is loaded before fanning out
	var stdinSource []byte
	var stdinErr error
	for _, f := range files {
		if f == stdinName {
			stdinSource, stdinErr = io.ReadAll(stdin)
			break
		}
	}

	p := pool.NewWithResults[fileResult]().WithMaxGoroutines(concurrency)
	for i, file := range files {
		p.Go(func() fileResult {
			r := fileResult{index: i, File: file}

			var source []byte
			var err error
			if file == stdinName {
				source, err = stdinSource, stdinErr
			} else {
				source, err = os.ReadFile(file)
			}
			if err != nil {
				r.Err = err.Error()
				return r
			}

			r.Result = analyzer.Analyze(ctx, string(source))
			return r
		})
	}

	results := p.Wait()
	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })
	return results
}
