package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	codebookfile "github.com/custodia-labs/annotator/internal/adapters/driven/codebook/file"
	"github.com/custodia-labs/annotator/internal/core/domain"
)

var codebookCmd = &cobra.Command{
	Use:   "codebook",
	Short: "Inspect codebooks",
}

var codebookCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Validate a codebook file",
	Long: `Load a TOML or JSON codebook and report problems.

Without a path the configured codebook is checked. Branching targets
that name no question are reported as warnings; they are ignored while
coding.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCodebookCheck,
}

func init() {
	codebookCmd.AddCommand(codebookCheckCmd)
	rootCmd.AddCommand(codebookCmd)
}

func runCodebookCheck(cmd *cobra.Command, args []string) error {
	var (
		cb  *domain.Codebook
		err error
	)
	switch {
	case len(args) == 1:
		cb, err = codebookfile.NewStore(args[0]).Load(cmd.Context())
	case codebookStore != nil:
		cb, err = codebookStore.Load(cmd.Context())
	default:
		return errors.New("no codebook configured; pass a path or set codebook.path")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	relations := 0
	for _, v := range cb.Variables {
		relations += len(v.Relations)
	}
	fmt.Fprintf(out, "Codebook OK: %d questions, %d variables, %d relation codes\n",
		len(cb.Questions), len(cb.Variables), relations)
	for _, target := range cb.UnknownTargets() {
		fmt.Fprintf(out, "  warning: branching target %q names no question\n", target)
	}
	return nil
}
