// Command annotator codes tokenised text units with span, relation and
// field annotations and answers codebook questions about them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	codebookfile "github.com/custodia-labs/annotator/internal/adapters/driven/codebook/file"
	"github.com/custodia-labs/annotator/internal/adapters/driven/config/file"
	"github.com/custodia-labs/annotator/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/annotator/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/annotator/internal/adapters/driving/cli"
	"github.com/custodia-labs/annotator/internal/core/ports/driven"
	"github.com/custodia-labs/annotator/internal/core/services"
	"github.com/custodia-labs/annotator/internal/normalisers/html"
	"github.com/custodia-labs/annotator/internal/normalisers/markdown"
	"github.com/custodia-labs/annotator/internal/normalisers/plaintext"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs first.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fail(fmt.Errorf("loading config: %w", err))
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fail(err)
	}
	if err := settings.Validate(); err != nil {
		return fail(fmt.Errorf("config %s: %w", configStore.Path(), err))
	}

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	var codebookStore driven.CodebookStore = memory.NewCodebookStore(nil)
	if settings.Codebook.Path != "" {
		codebookStore = codebookfile.NewStore(settings.Codebook.Path)
	}

	unitService := services.NewUnitService(store.UnitStore(),
		services.WithNormalisers(plaintext.New(), markdown.New(), html.New()))

	cli.SetServices(cli.Services{
		Unit:     unitService,
		Coding:   services.NewCodingService(store.UnitStore(), codebookStore, store.AnnotationSink(), settings.Coding),
		Settings: settingsService,
		Config:   configStore,
		Codebook: codebookStore,
	})
	cli.SetVersion(version)

	// cobra has already printed the error.
	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}
