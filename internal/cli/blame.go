package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/lmsync/internal/scm"
)

// BlameOptions holds flags for the blame command.
type BlameOptions struct {
	*RootOptions
	Repository string
	BaseURL    string
}

// BlamedFile summarizes the blame of one file.
type BlamedFile struct {
	Path      string   `json:"path"`
	Lines     int      `json:"lines"`
	Revisions []string `json:"revisions"`
}

// BlameReport is the outcome of a blame run.
type BlameReport struct {
	Files   []BlamedFile `json:"files"`
	Missing []string     `json:"missing"`
}

// NewBlameCommand creates the blame command.
func NewBlameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BlameOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "blame <file>...",
		Short: "Collect blame information of files at HEAD",
		Long: `Blame files of a git repository at its HEAD commit.

Paths are relative to the repository root. Files that cannot be blamed
(untracked, or changed since HEAD) are reported together in a single
analysis warning.

Example:
  lmsync blame --repo . src/main.go src/util.go
  lmsync blame --repo ./project --base-url https://measures.example.com --format json src/a.go`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlame(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Repository, "repo", ".", "path to the git repository")
	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "", "server URL used in warning links (default from config)")

	return cmd
}

func runBlame(opts *BlameOptions, paths []string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)

	baseURL := opts.settings().BaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}

	files := make([]scm.InputFile, 0, len(paths))
	for _, p := range paths {
		rel := filepath.ToSlash(filepath.Clean(p))
		content, err := os.ReadFile(filepath.Join(opts.Repository, rel))
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeInput, "failed to read file", err)
		}
		files = append(files, scm.InputFile{Key: rel, Path: rel, Lines: scm.CountLines(content)})
	}

	warnings := scm.NewWarnings(nil)
	out := scm.NewBlameOutput(baseURL, warnings, files)
	blameErr := scm.NewGitBlamer(opts.Repository).Blame(ctx, out, files)
	out.Finish(blameErr == nil)
	if blameErr != nil {
		return formatter.fail(ExitFailure, ErrCodeBlame, "blame failed", blameErr)
	}

	result := BlameReport{Files: []BlamedFile{}, Missing: []string{}}
	for _, fb := range out.Results() {
		revisions := make([]string, 0, len(fb.Changesets))
		for _, c := range fb.Changesets {
			revisions = append(revisions, c.Revision)
		}
		result.Files = append(result.Files, BlamedFile{Path: fb.File.Path, Lines: len(fb.LineChangesets), Revisions: revisions})
	}
	for _, f := range out.Missing() {
		result.Missing = append(result.Missing, f.Path)
	}

	var texts []string
	for _, m := range warnings.Messages() {
		texts = append(texts, m.Text)
	}

	if opts.Format == "json" {
		return formatter.Success(result, texts...)
	}

	w := cmd.OutOrStdout()
	for _, f := range result.Files {
		fmt.Fprintf(w, "%s: %d line(s), %d revision(s)\n", f.Path, f.Lines, len(f.Revisions))
	}
	for _, p := range result.Missing {
		fmt.Fprintf(w, "%s: no blame\n", p)
	}
	for _, t := range texts {
		fmt.Fprintf(w, "Warning: %s\n", t)
	}
	return nil
}
