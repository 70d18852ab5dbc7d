// Package cli provides the cobra command tree of the annotator.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/annotator/internal/core/ports/driven"
	"github.com/custodia-labs/annotator/internal/core/ports/driving"
	"github.com/custodia-labs/annotator/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services holds the services the commands call.
type Services struct {
	Unit     driving.UnitService
	Coding   driving.CodingService
	Settings driving.SettingsService
	Config   driven.ConfigStore
	Codebook driven.CodebookStore
}

var (
	unitService     driving.UnitService
	codingService   driving.CodingService
	settingsService driving.SettingsService
	configStore     driven.ConfigStore
	codebookStore   driven.CodebookStore

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "annotator",
	Short: "Code text units with spans, relations and questionnaire answers",
	Long: `annotator stores tokenised text units and the annotations coded on them.

Spans label runs of tokens, relations connect two spans, and field
annotations label a whole unit. Codebook questions are answered per unit;
their branching rules decide which questions remain relevant.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logging to stderr")
}

// SetServices sets the services used by the commands.
func SetServices(s Services) {
	unitService = s.Unit
	codingService = s.Coding
	settingsService = s.Settings
	configStore = s.Config
	codebookStore = s.Codebook
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
