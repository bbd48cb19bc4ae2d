// Command bgforge generates a desktop background image from a text prompt.
// It resolves a generation service, generates with bounded retries, previews
// the result in the browser, and on approval saves the image into the host
// application's backgrounds directory.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bgforge/config"
	"bgforge/core"
	"bgforge/history"
	"bgforge/hostapp"
	"bgforge/imagegen"
	"bgforge/logging"
	"bgforge/persist"
	"bgforge/preview"
	"bgforge/shutdown"
	"bgforge/workflow"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Load .env if present; absence is normal.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}

	opts, err := parseArgs(args, os.Stderr)
	if err != nil {
		return core.ExitCodeError
	}
	if err := opts.resolvePaths(); err != nil {
		printError(os.Stderr, err)
		return core.ExitCodeError
	}

	isDevelopment := core.EnvBool("DEV_MODE", false)
	logger, err := logging.NewLogger(isDevelopment, opts.logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return core.ExitCodeError
	}
	defer logger.Sync()

	// Maintenance subcommands run and exit before any workflow wiring.
	if opts.setKey != "" {
		if err := runSetKey(opts, os.Stdout); err != nil {
			printError(os.Stderr, err)
			return core.ExitCodeError
		}
		return core.ExitCodeSuccess
	}
	if opts.showHistory {
		if err := runShowHistory(opts, os.Stdout); err != nil {
			printError(os.Stderr, err)
			return core.ExitCodeError
		}
		return core.ExitCodeSuccess
	}

	code, err := runWorkflow(opts, logger)
	if err != nil {
		printError(os.Stderr, err)
	}
	return code
}

// runWorkflow wires the collaborators and drives one generation session.
func runWorkflow(opts *options, logger *logging.Logger) (int, error) {
	manager := shutdown.NewManager(logger)
	manager.Start()
	defer manager.Shutdown()
	manager.Register("logger-sync", 5, func(ctx context.Context) error {
		logger.Sync()
		return nil
	})

	store, err := config.Open(opts.configPath)
	if err != nil {
		return core.ExitCodeError, err
	}

	app, err := hostapp.Discover()
	if err != nil {
		return core.ExitCodeError, err
	}

	httpClient := core.NewHTTPClient()
	providers := []imagegen.Provider{
		imagegen.NewHuggingFaceProvider(httpClient, logger),
		imagegen.NewOpenAIProvider(httpClient, logger),
		imagegen.NewStabilityProvider(httpClient, logger),
	}
	resolver := imagegen.NewResolver(providers, store, logger)
	retry := imagegen.NewRetryPolicy(imagegen.DefaultRetryConfig(), logger)

	browser := preview.NewBrowser(logger)
	manager.Register("preview-cleanup", 40, func(ctx context.Context) error {
		browser.Cleanup()
		return nil
	})

	writer := persist.NewWriter(app.BackgroundsDir(), opts.dryRun, logger)
	manager.Register("temp-files", 45, shutdown.CleanupTempFiles(logger, app.BackgroundsDir()))

	// History is best-effort: a broken database must not block generation.
	var recorder workflow.Recorder
	if !opts.dryRun {
		if histStore, err := history.Open(opts.historyPath); err != nil {
			logger.Warn("history unavailable", zap.Error(err))
		} else {
			manager.Register("history-db", 30, func(ctx context.Context) error {
				return histStore.Close()
			})
			recorder = &historyRecorder{store: histStore}
		}
	}

	prompter := workflow.NewTerminalPrompter(os.Stdin, os.Stdout)
	wf := workflow.New(resolver, retry, prompter, browser, app, writer, store, recorder, logger)

	outcome, err := wf.Run(manager.Context(), workflow.Request{
		Prompt:      opts.prompt,
		Service:     opts.service,
		Interactive: !opts.nonInteractive,
		DryRun:      opts.dryRun,
	})
	if err != nil {
		return core.ExitCodeError, err
	}

	switch outcome.State {
	case workflow.StateDone:
		if outcome.DryRun {
			fmt.Printf("Dry run complete; would have saved %s\n", outcome.SavedPath)
		} else {
			fmt.Printf("Saved %s\n", outcome.SavedPath)
		}
		return core.ExitCodeSuccess, nil
	case workflow.StateAborted:
		if code := manager.ExitCode(); code != core.ExitCodeSuccess {
			return code, nil
		}
		return core.ExitCodeAborted, nil
	default:
		return core.ExitCodeError, fmt.Errorf("session ended in unexpected state %s", outcome.State)
	}
}

// historyRecorder adapts history.Store to the workflow's Recorder interface.
type historyRecorder struct {
	store *history.Store
}

func (r *historyRecorder) RecordSave(ctx context.Context, session *workflow.Session, res *imagegen.Result, saved *persist.SaveResult) error {
	// Recording must survive an already-cancelled session context.
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	_, err := r.store.Insert(ctx, &history.Record{
		CorrelationID: session.CorrelationID(),
		Prompt:        res.Metadata.Prompt,
		Service:       res.Metadata.Service,
		ImagePath:     saved.Path,
		ImageSize:     saved.Size,
		ImageFormat:   res.Metadata.Format,
		Width:         res.Metadata.Width,
		Height:        res.Metadata.Height,
		Attempts:      session.Rounds(),
		CreatedAt:     res.Metadata.GeneratedAt.UTC(),
	})
	return err
}
