package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Answer codebook questions for a unit",
}

var codeStatusCmd = &cobra.Command{
	Use:   "status [unit-id]",
	Short: "Show the answers and the questions still to do",
	Args:  cobra.ExactArgs(1),
	RunE:  runCodeStatus,
}

var codeAnswerCmd = &cobra.Command{
	Use:   "answer [unit-id] [question] [value...]",
	Short: "Answer a question",
	Long: `Answer the question at the given index.

For a question with named items, give values as item=value. Giving no
value clears the answer.

Examples:
  annotator code answer u1 0 yes
  annotator code answer u1 2 author=positive reader=negative`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCodeAnswer,
}

var codeRelationsCmd = &cobra.Command{
	Use:   "relations [unit-id] [from-token] [to-token]",
	Short: "List the relations allowed between the spans at two tokens",
	Args:  cobra.ExactArgs(3),
	RunE:  runCodeRelations,
}

func init() {
	codeStatusCmd.Flags().Bool("tokens", false, "also list the tokens with their indices")

	codeCmd.AddCommand(codeStatusCmd)
	codeCmd.AddCommand(codeAnswerCmd)
	codeCmd.AddCommand(codeRelationsCmd)
	rootCmd.AddCommand(codeCmd)
}

func runCodeStatus(cmd *cobra.Command, args []string) error {
	sess, err := openUnit(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	showTokens, _ := cmd.Flags().GetBool("tokens")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Unit %s: %s, %d annotations\n", sess.UnitID, sess.Status, len(sess.Annotations))
	if showTokens {
		for _, tok := range sess.Tokens {
			marker := ""
			if tok.Context {
				marker = " (context)"
			}
			fmt.Fprintf(out, "  %4d  %-10s %s%s\n", tok.Index, tok.Field, tok.Text, marker)
		}
	}
	printAnswers(out, sess.Answers, sess.Irrelevant)
	return nil
}

func runCodeAnswer(cmd *cobra.Command, args []string) error {
	question, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: question %q is not an index", domain.ErrInvalidInput, args[1])
	}

	sess, err := openUnit(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if question < 0 || question >= len(sess.Answers) {
		return fmt.Errorf("%w: question %d out of range (0..%d)", domain.ErrInvalidInput, question, len(sess.Answers)-1)
	}

	answer, err := parseAnswer(sess.Answers[question], args[2:])
	if err != nil {
		return err
	}

	progress, err := codingService.Answer(cmd.Context(), sess.Check, question, answer)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printAnswers(out, progress.Answers, progress.Irrelevant)
	if progress.Next != nil {
		fmt.Fprintf(out, "Next question: %d (%s)\n", *progress.Next, progress.Answers[*progress.Next].Variable)
	} else {
		fmt.Fprintln(out, "Unit done.")
	}
	return nil
}

func runCodeRelations(cmd *cobra.Command, args []string) error {
	from, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: from %q is not a token index", domain.ErrInvalidInput, args[1])
	}
	to, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("%w: to %q is not a token index", domain.ErrInvalidInput, args[2])
	}

	if _, err := openUnit(cmd.Context(), args[0]); err != nil {
		return err
	}
	options, err := codingService.ValidRelations(cmd.Context(), from, to)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(options) == 0 {
		fmt.Fprintln(out, "No relations allowed.")
		return nil
	}
	for _, o := range options {
		fmt.Fprintf(out, "%s=%s  %s (%s=%s) -> %s (%s=%s)\n",
			o.Variable, o.Value, o.From.ID, o.From.Variable, o.From.Value, o.To.ID, o.To.Variable, o.To.Value)
	}
	return nil
}

// parseAnswer fills the items of current from "value" and "item=value"
// arguments. Bare values go to the unnamed item.
func parseAnswer(current domain.Answer, args []string) (domain.Answer, error) {
	answer := current
	answer.Items = make([]domain.AnswerItem, len(current.Items))
	index := make(map[string]int, len(current.Items))
	for i, item := range current.Items {
		answer.Items[i] = item
		answer.Items[i].Values = nil
		index[item.Item] = i
	}

	for _, arg := range args {
		name, value := "", arg
		if k, v, ok := strings.Cut(arg, "="); ok {
			if _, named := index[k]; named && k != "" {
				name, value = k, v
			}
		}
		i, ok := index[name]
		if !ok {
			return domain.Answer{}, fmt.Errorf("%w: question %s needs item=value, got %q", domain.ErrInvalidInput, current.Variable, arg)
		}
		answer.Items[i].Values = append(answer.Items[i].Values, value)
	}
	return answer, nil
}

func printAnswers(out io.Writer, answers []domain.Answer, irrelevant []bool) {
	for i, a := range answers {
		state := "todo"
		switch {
		case i < len(irrelevant) && irrelevant[i]:
			state = "irrelevant"
		case a.Complete():
			state = "done"
		}
		fmt.Fprintf(out, "  [%d] %-20s %-10s %s\n", i, a.Variable, state, formatItems(a))
	}
}

func formatItems(a domain.Answer) string {
	parts := make([]string, 0, len(a.Items))
	for _, item := range a.Items {
		values := strings.Join(item.Values, ",")
		if item.Item == "" {
			parts = append(parts, values)
			continue
		}
		parts = append(parts, item.Item+"="+values)
	}
	return strings.Join(parts, " ")
}
