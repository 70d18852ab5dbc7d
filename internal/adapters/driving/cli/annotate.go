package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/annotator/internal/core/domain"
	"github.com/custodia-labs/annotator/internal/core/ports/driving"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Add or remove annotations on a unit",
	Long: `Add or remove annotations on a stored unit.

Token positions are the indices shown by "code status --tokens". Every
change is saved back to the unit.`,
}

var annotateSpanCmd = &cobra.Command{
	Use:   "span [unit-id] [variable] [value] [start] [end]",
	Short: "Code a run of tokens",
	Long: `Code the tokens from start to end (inclusive) with variable=value.

Overlapping annotations of the same variable with another value are
replaced. Overlapping annotations with the same value are merged.`,
	Args: cobra.RangeArgs(4, 5),
	RunE: runAnnotateSpan,
}

var annotateRelationCmd = &cobra.Command{
	Use:   "relation [unit-id] [variable] [value] [from-id] [to-id]",
	Short: "Connect two span annotations",
	Args:  cobra.ExactArgs(5),
	RunE:  runAnnotateRelation,
}

var annotateFieldCmd = &cobra.Command{
	Use:   "field [unit-id] [variable] [value]",
	Short: "Label the whole unit or one text field",
	Args:  cobra.ExactArgs(3),
	RunE:  runAnnotateField,
}

var annotateDeleteCmd = &cobra.Command{
	Use:   "delete [unit-id] [annotation-id]",
	Short: "Delete an annotation and the relations that depend on it",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnnotateDelete,
}

func init() {
	annotateSpanCmd.Flags().Bool("toggle", false, "remove the annotation instead when it already exists")
	annotateFieldCmd.Flags().String("field", "", "text field to label (default: the whole unit)")

	annotateCmd.AddCommand(annotateSpanCmd)
	annotateCmd.AddCommand(annotateRelationCmd)
	annotateCmd.AddCommand(annotateFieldCmd)
	annotateCmd.AddCommand(annotateDeleteCmd)
	rootCmd.AddCommand(annotateCmd)
}

// openUnit opens a unit on the coding service for one command.
func openUnit(ctx context.Context, unitID string) (*driving.Session, error) {
	if codingService == nil {
		return nil, errors.New("coding service not configured")
	}
	return codingService.Open(ctx, unitID)
}

func runAnnotateSpan(cmd *cobra.Command, args []string) error {
	start, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("%w: start %q is not a token index", domain.ErrInvalidInput, args[3])
	}
	end := start
	if len(args) == 5 {
		if end, err = strconv.Atoi(args[4]); err != nil {
			return fmt.Errorf("%w: end %q is not a token index", domain.ErrInvalidInput, args[4])
		}
	}
	toggle, _ := cmd.Flags().GetBool("toggle")

	sess, err := openUnit(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	span := domain.NewSpan(start, end)
	out := cmd.OutOrStdout()
	if toggle {
		if err := codingService.Toggle(cmd.Context(), sess.Check, args[1], args[2], span); err != nil {
			return err
		}
		fmt.Fprintf(out, "Toggled %s=%s on %s\n", args[1], args[2], span)
		return nil
	}

	a, err := codingService.CreateSpan(cmd.Context(), sess.Check, args[1], args[2], span)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created span %s %s=%s %s %q\n", a.ID, a.Variable, a.Value, a.Span, a.Text)
	return nil
}

func runAnnotateRelation(cmd *cobra.Command, args []string) error {
	sess, err := openUnit(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	a, err := codingService.CreateRelation(cmd.Context(), sess.Check, args[1], args[2], args[3], args[4])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created relation %s %s=%s %s -> %s\n", a.ID, a.Variable, a.Value, a.FromID, a.ToID)
	return nil
}

func runAnnotateField(cmd *cobra.Command, args []string) error {
	field, _ := cmd.Flags().GetString("field")
	sess, err := openUnit(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	a, err := codingService.CreateField(cmd.Context(), sess.Check, args[1], args[2], field)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created field annotation %s %s=%s\n", a.ID, a.Variable, a.Value)
	return nil
}

func runAnnotateDelete(cmd *cobra.Command, args []string) error {
	sess, err := openUnit(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := codingService.Delete(cmd.Context(), sess.Check, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted annotation %s\n", args[1])
	return nil
}
