// Package cli defines the prr command tree. The commands are thin: they
// parse flags, build the orchestrator through an injected constructor, and
// hand off to the review use case.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/reviewbot/prr/internal/store"
	"github.com/reviewbot/prr/internal/usecase/review"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Reviewer defines the dependency required to run the review commands.
type Reviewer interface {
	ReviewPR(ctx context.Context, req review.PRRequest) (review.Result, error)
	ReviewAll(ctx context.Context, req review.AllRequest) ([]review.Result, error)
	ReviewLocal(ctx context.Context, req review.LocalRequest) (review.Result, error)
	RunHistory(ctx context.Context, limit int) ([]store.Run, error)
	RunFindings(ctx context.Context, runID string) (store.Run, []store.FindingRecord, error)
}

// Builder constructs the reviewer once the config path and verbosity are
// known. Construction is deferred to here because both come from flags.
type Builder func(configPath string, verbose bool) (Reviewer, error)

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Build   Builder
	Args    Arguments
	Version string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	var configPath string
	var verbose bool
	var showVersion bool

	var prNumber int
	var reviewAll bool
	var output string
	var force bool

	root := &cobra.Command{
		Use:   "prr",
		Short: "Automated pull request review",
		Long:  "prr fetches pull request changes from GitHub, runs style, security, quality, and LLM analyzers over them, and reports a scored review to the console or back to the pull request.",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")

	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler

	root.Flags().IntVar(&prNumber, "pr", 0, "Pull request number to review")
	root.Flags().BoolVar(&reviewAll, "all", false, "Review every open pull request")
	root.Flags().StringVar(&output, "output", review.OutputBoth, "Where to deliver results: console, github, or both")
	root.Flags().BoolVar(&force, "force", false, "Review even if the head commit was already reviewed")
	root.MarkFlagsMutuallyExclusive("pr", "all")

	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		if prNumber <= 0 && !reviewAll {
			return errors.New("either --pr or --all is required")
		}

		reviewer, err := deps.Build(configPath, verbose)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if reviewAll {
			results, err := reviewer.ReviewAll(ctx, review.AllRequest{Output: output, Force: force})
			if err != nil {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), results)
			return nil
		}

		result, err := reviewer.ReviewPR(ctx, review.PRRequest{Number: prNumber, Output: output, Force: force})
		if err != nil {
			return err
		}
		if result.Skipped {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pull request #%d unchanged since the last review; use --force to review again.\n", prNumber)
		}
		return nil
	}

	root.AddCommand(localCommand(deps.Build, &configPath, &verbose))
	root.AddCommand(historyCommand(deps.Build, &configPath, &verbose))

	return root
}

func localCommand(build Builder, configPath *string, verbose *bool) *cobra.Command {
	var baseRef string
	var targetRef string

	cmd := &cobra.Command{
		Use:   "local [target]",
		Short: "Review a local branch against a base reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				targetRef = args[0]
			}

			reviewer, err := build(*configPath, *verbose)
			if err != nil {
				return err
			}

			_, err = reviewer.ReviewLocal(cmd.Context(), review.LocalRequest{
				BaseRef:   baseRef,
				TargetRef: targetRef,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", "main", "Base reference to diff against")
	cmd.Flags().StringVar(&targetRef, "target", "", "Target reference to review (defaults to the checked-out branch)")

	return cmd
}

func historyCommand(build Builder, configPath *string, verbose *bool) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [runID]",
		Short: "List stored review runs, or show the findings of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviewer, err := build(*configPath, *verbose)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if len(args) == 1 {
				run, findings, err := reviewer.RunFindings(ctx, args[0])
				if err != nil {
					return err
				}
				printRun(out, run)
				for _, finding := range findings {
					_, _ = fmt.Fprintf(out, "  %s:%d [%s] %s: %s\n",
						finding.File, finding.Line, finding.Severity, finding.Rule, finding.Message)
				}
				return nil
			}

			runs, err := reviewer.RunHistory(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				_, _ = fmt.Fprintln(out, "No stored review runs.")
				return nil
			}
			for _, run := range runs {
				printRun(out, run)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func printRun(out io.Writer, run store.Run) {
	_, _ = fmt.Fprintf(out, "%s  %s  PR #%d  score %d (%s)  %d finding(s)\n",
		run.RunID, run.Timestamp.UTC().Format(time.RFC3339), run.PRNumber,
		run.Score, run.Verdict, run.TotalFindings)
}

// printRunSummary gives a one-line recap after a multi-PR run; the per-PR
// detail already went out through the configured outputs.
func printRunSummary(out io.Writer, results []review.Result) {
	reviewed := 0
	skipped := 0
	for _, result := range results {
		if result.Skipped {
			skipped++
			continue
		}
		reviewed++
	}
	_, _ = fmt.Fprintf(out, "Reviewed %d pull request(s), skipped %d.\n", reviewed, skipped)
}
