package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"bgforge/config"
	"bgforge/core"
	"bgforge/history"
)

// options holds the parsed command line.
type options struct {
	prompt         string
	service        string
	configPath     string
	historyPath    string
	logFile        string
	dryRun         bool
	nonInteractive bool
	setKey         string
	showHistory    bool
	historyLimit   int
}

// parseArgs builds the flag set and parses args (without the program name).
func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("bgforge", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.prompt, "prompt", "", "image description; omit to be asked interactively")
	fs.StringVar(&opts.service, "service", "", "generation service: huggingface, openai, or stability (default: last used)")
	fs.StringVar(&opts.configPath, "config", "", "path to the config file (default: per-user config dir)")
	fs.StringVar(&opts.logFile, "log-file", "bgforge.log", "path to the log file")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "simulate generation and save without side effects")
	fs.BoolVar(&opts.nonInteractive, "non-interactive", false, "auto-approve the first generated image")
	fs.StringVar(&opts.setKey, "set-key", "", "store an API key as service=KEY and exit")
	fs.BoolVar(&opts.showHistory, "history", false, "list recent generations and exit")
	fs.IntVar(&opts.historyLimit, "history-limit", 20, "how many history entries to list")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: bgforge [flags]\n\nGenerate a background image from a text prompt, preview it, and save it on approval.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		// A bare trailing argument reads naturally as the prompt.
		if opts.prompt == "" {
			opts.prompt = strings.Join(rest, " ")
		} else {
			return nil, fmt.Errorf("unexpected arguments: %v", rest)
		}
	}
	return opts, nil
}

// resolvePaths fills in the config and history paths from the per-user
// config directory when not given explicitly.
func (o *options) resolvePaths() error {
	if o.configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return fmt.Errorf("locate config path: %w", err)
		}
		o.configPath = path
	}
	if o.historyPath == "" {
		o.historyPath = filepath.Join(filepath.Dir(o.configPath), "history.db")
	}
	return nil
}

// runSetKey handles -set-key service=KEY: validate, store, confirm.
func runSetKey(opts *options, stdout io.Writer) error {
	service, key, ok := strings.Cut(opts.setKey, "=")
	service = strings.TrimSpace(service)
	if !ok || service == "" || key == "" {
		return &core.ValidationError{
			Message: "invalid -set-key value",
			Action:  "Use the form -set-key openai=sk-...",
		}
	}

	store, err := config.Open(opts.configPath)
	if err != nil {
		return err
	}
	if err := store.SetAPIKey(service, key); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(stdout, "Stored API key for %s in %s\n", service, store.Path())
	return nil
}

// runShowHistory handles -history: print the most recent saves.
func runShowHistory(opts *options, stdout io.Writer) error {
	store, err := history.Open(opts.historyPath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(context.Background(), opts.historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(stdout, "No generations recorded yet.")
		return nil
	}

	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)
	for _, rec := range records {
		bold.Fprintf(stdout, "%s", rec.Prompt)
		fmt.Fprintf(stdout, "  [%s]\n", rec.Service)
		dim.Fprintf(stdout, "  %s  %s  rounds=%d\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.ImagePath, rec.Attempts)
	}
	return nil
}

// printError renders an error with its remedy, when the taxonomy carries one.
func printError(stderr io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprintf(stderr, "Error: ")
	fmt.Fprintln(stderr, err)
	if remedy := core.Remedy(err); remedy != "" {
		color.New(color.FgYellow).Fprintf(stderr, "Hint: %s\n", remedy)
	}
}
