// Package cli defines the command-line interface for prdigest.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prtools/prdigest/internal/adapter/driven/github"
	"github.com/prtools/prdigest/internal/application"
	"github.com/prtools/prdigest/internal/config"
	"github.com/prtools/prdigest/internal/domain/model"
	"github.com/prtools/prdigest/internal/logging"
	"github.com/prtools/prdigest/internal/render"
)

// options stores the flag values of the root command.
type options struct {
	owner           string
	repo            string
	prNumber        int
	allCIFailureLog string
	logLevel        string
}

// Execute builds the root command, runs it with the provided args, and
// returns any error. Cobra reports errors as "Error: ..." on stderr.
func Execute(ctx context.Context, args []string) error {
	rootCmd := newRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// newRootCommand constructs the root cobra.Command.
func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "prdigest [owner/repo/pull/number]",
		Short: "prdigest renders a pull request's comments and CI failures as Markdown",
		Long: "prdigest fetches a pull request's unresolved review threads, general comments,\n" +
			"and failed CI runs from GitHub and prints them as a single Markdown document\n" +
			"suitable for feeding to automated coding agents.",
		Example:      "  prdigest octocat/hello-world/pull/42\n  prdigest --owner octocat --repo hello-world --pr 42",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.owner, "owner", "", "Repository owner (alternative to the PR path)")
	cmd.Flags().StringVar(&opts.repo, "repo", "", "Repository name (alternative to the PR path)")
	cmd.Flags().IntVar(&opts.prNumber, "pr", 0, "PR number (alternative to the PR path)")
	cmd.Flags().StringVar(&opts.allCIFailureLog, "all-ci-failure-log", "false",
		"Include the full CI failure logs instead of only the failure summary (true/false)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

// run wires config, adapter, service, and renderer, and prints the document.
// Nothing is written to stdout unless the whole digest succeeded.
func run(cmd *cobra.Command, args []string, opts *options) error {
	slog.SetDefault(logging.NewLogger(cmd.ErrOrStderr(), logging.ParseLevel(opts.logLevel)))

	ref, err := resolveRef(args, opts)
	if err != nil {
		return err
	}

	includeFullLogs, err := parseBool(opts.allCIFailureLog)
	if err != nil {
		return fmt.Errorf("--all-ci-failure-log: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client, err := github.NewClient(cfg.GitHubToken, cfg.APIBaseURL)
	if err != nil {
		return err
	}

	svc := application.NewDigestService(client)
	digest, err := svc.BuildDigest(cmd.Context(), ref, includeFullLogs)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), render.Markdown(ref, digest.ReviewComments, digest.IssueComments, digest.CIFailures))
	return nil
}

// resolveRef picks the PR reference from the positional path or the three
// flags; exactly one of the two forms must be supplied.
func resolveRef(args []string, opts *options) (model.PRRef, error) {
	if len(args) == 1 && args[0] != "" {
		return model.ParsePRPath(args[0])
	}
	if opts.owner != "" && opts.repo != "" && opts.prNumber != 0 {
		return model.PRRef{Owner: opts.owner, Repo: opts.repo, Number: opts.prNumber}, nil
	}
	return model.PRRef{}, errors.New("provide either a PR path ('owner/repo/pull/number') or --owner, --repo, and --pr")
}

// parseBool accepts the usual truthy and falsy spellings, case-insensitively.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y", "on":
		return true, nil
	case "false", "0", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean value %q: use true or false", value)
}
