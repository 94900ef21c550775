package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

const defaultChangelog = "CHANGELOG.md"

// ChangelogCmd regenerates the changelog from conventional commits with git-chglog.
func ChangelogCmd() *cobra.Command {
	var next, output, query string
	cmd := &cobra.Command{
		Use:   "changelog [QUERY]",
		Short: "Regenerate CHANGELOG.md from git history",
		Long: `Regenerate the changelog with git-chglog from conventional commit messages
(feat, fix, perf, refactor, docs, test, build, ci, chore).

QUERY restricts the output to a tag or a tag range, e.g. v0.2.0 or v0.1.0..v0.2.0.

  dev changelog
  dev changelog --next v0.3.0
  dev changelog v0.1.0..v0.2.0 --output RELEASE.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bin, err := exec.LookPath("git-chglog")
			if err != nil {
				slog.Error("git-chglog not found in PATH, install it with: go install github.com/git-chglog/git-chglog/cmd/git-chglog@latest")
				return fmt.Errorf("git-chglog not installed: %w", err)
			}
			if len(args) == 1 {
				query = args[0]
			}
			chglogArgs := []string{"--output", output}
			if next != "" {
				chglogArgs = append(chglogArgs, "--next-tag", next)
			}
			if query != "" {
				chglogArgs = append(chglogArgs, query)
			}
			slog.Info("generating changelog", "output", output, "next", next, "query", query)
			run := exec.CommandContext(cmd.Context(), bin, chglogArgs...)
			run.Stdout = os.Stdout
			run.Stderr = os.Stderr
			if err := run.Run(); err != nil {
				return fmt.Errorf("git-chglog failed: %w", err)
			}
			slog.Info("changelog written", "output", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&next, "next", "", "tag to use for unreleased commits (e.g. v0.3.0)")
	cmd.Flags().StringVar(&output, "output", defaultChangelog, "output file")
	return cmd
}
