package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/annotator/internal/core/domain"
)

// unitFile is the JSON document read by "unit import".
type unitFile struct {
	ID          string                  `json:"id"`
	JobID       string                  `json:"job_id,omitempty"`
	Fields      []domain.TextField      `json:"fields"`
	Annotations []domain.WireAnnotation `json:"annotations,omitempty"`
}

var unitCmd = &cobra.Command{
	Use:   "unit",
	Short: "Manage coding units",
}

var unitImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a unit from a JSON file",
	Long: `Tokenise the text fields of a unit and import its annotations.

The file holds one unit:

  {
    "id": "u1",
    "job_id": "job",
    "fields": [{"name": "title", "value": "...", "context": true},
               {"name": "text", "value": "..."}],
    "annotations": [{"type": "span", "variable": "topic", "value": "econ",
                     "field": "text", "offset": 0, "length": 9}]
  }

Annotations that cannot be placed on the tokens are reported and left out.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnitImport,
}

var unitImportTextCmd = &cobra.Command{
	Use:   "import-text [file]",
	Short: "Create a unit from a text, markdown or HTML document",
	Long: `Create a unit from a document file.

Markup is removed and the body becomes the "text" field. A markdown H1
heading or an HTML <title> becomes a "title" field shown as context.
The unit id defaults to the file name without its extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnitImportText,
}

var unitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List units",
	Args:  cobra.NoArgs,
	RunE:  runUnitList,
}

var unitShowCmd = &cobra.Command{
	Use:   "show [unit-id]",
	Short: "Show a unit's text with its coded spans",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnitShow,
}

var unitExportCmd = &cobra.Command{
	Use:   "export [unit-id]",
	Short: "Print a unit's annotations as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnitExport,
}

var unitDeleteCmd = &cobra.Command{
	Use:   "delete [unit-id]",
	Short: "Delete a unit",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnitDelete,
}

func init() {
	unitImportCmd.Flags().String("id", "", "override the unit id from the file")
	unitImportTextCmd.Flags().String("id", "", "unit id (default: the file name)")
	unitImportTextCmd.Flags().String("job", "", "job the unit belongs to")
	unitListCmd.Flags().String("job", "", "only list units of this job")
	unitShowCmd.Flags().Bool("plain", false, "do not colour spans")

	unitCmd.AddCommand(unitImportCmd)
	unitCmd.AddCommand(unitImportTextCmd)
	unitCmd.AddCommand(unitListCmd)
	unitCmd.AddCommand(unitShowCmd)
	unitCmd.AddCommand(unitExportCmd)
	unitCmd.AddCommand(unitDeleteCmd)
	rootCmd.AddCommand(unitCmd)
}

func runUnitImport(cmd *cobra.Command, args []string) error {
	if unitService == nil {
		return errors.New("unit service not configured")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading unit file: %w", err)
	}
	var file unitFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing unit file: %w", err)
	}
	if id, _ := cmd.Flags().GetString("id"); id != "" {
		file.ID = id
	}

	unit, report, err := unitService.Create(cmd.Context(), file.ID, file.JobID, file.Fields, file.Annotations)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported unit %s: %d tokens, %d annotations\n", unit.ID, len(unit.Tokens), len(unit.Annotations))
	if report.Duplicates > 0 {
		fmt.Fprintf(out, "  %d duplicate records merged\n", report.Duplicates)
	}
	for i := range report.Dropped {
		fmt.Fprintf(out, "  dropped %v\n", &report.Dropped[i])
	}
	return nil
}

func runUnitImportText(cmd *cobra.Command, args []string) error {
	if unitService == nil {
		return errors.New("unit service not configured")
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}
	id, _ := cmd.Flags().GetString("id")
	job, _ := cmd.Flags().GetString("job")

	unit, _, err := unitService.CreateFromDocument(cmd.Context(), id, job, args[0], content)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported unit %s: %d tokens\n", unit.ID, len(unit.Tokens))
	return nil
}

func runUnitList(cmd *cobra.Command, _ []string) error {
	if unitService == nil {
		return errors.New("unit service not configured")
	}
	job, _ := cmd.Flags().GetString("job")

	units, err := unitService.List(cmd.Context(), job)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(units) == 0 {
		fmt.Fprintln(out, "No units.")
		return nil
	}
	for _, u := range units {
		fmt.Fprintf(out, "%-24s %-12s %s\n", u.ID, u.Status, u.JobID)
	}
	return nil
}

func runUnitShow(cmd *cobra.Command, args []string) error {
	if unitService == nil {
		return errors.New("unit service not configured")
	}
	unit, err := unitService.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	plain, _ := cmd.Flags().GetBool("plain")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Unit %s (%s)\n\n", unit.ID, unit.Status)
	fmt.Fprintln(out, renderTokens(unit.Tokens, unit.Annotations, !plain))
	fmt.Fprintln(out)
	for _, r := range unit.Annotations {
		fmt.Fprintln(out, describeRecord(r))
	}
	return nil
}

func runUnitExport(cmd *cobra.Command, args []string) error {
	if unitService == nil {
		return errors.New("unit service not configured")
	}
	unit, err := unitService.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	records := unit.Annotations
	if records == nil {
		records = []domain.WireAnnotation{}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func runUnitDelete(cmd *cobra.Command, args []string) error {
	if unitService == nil {
		return errors.New("unit service not configured")
	}
	if err := unitService.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted unit %s\n", args[0])
	return nil
}
