package workflow

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"bgforge/core"
	"bgforge/imagegen"
	"bgforge/logging"
	"bgforge/persist"
)

// ServiceResolver picks the provider and credential for a session.
// Satisfied by imagegen.Resolver.
type ServiceResolver interface {
	Resolve(requested string) (imagegen.Provider, string, error)
}

// Executor runs one generation under the retry policy. Satisfied by
// imagegen.RetryPolicy.
type Executor interface {
	Execute(ctx context.Context, provider imagegen.Provider, prompt, apiKey string) (*imagegen.Result, error)
}

// Previewer shows a result to the user before the verdict. Satisfied by
// preview.Browser.
type Previewer interface {
	Show(res *imagegen.Result) error
	Cleanup()
}

// HostApp gates the session on the host application's state. Satisfied by
// hostapp.App.
type HostApp interface {
	Name() string
	Verify() error
	BackgroundsDir() string
}

// Saver persists approved image bytes. Satisfied by persist.Writer.
type Saver interface {
	Save(filename string, data []byte) (*persist.SaveResult, error)
}

// Preferences remembers the service for next time. Satisfied by
// config.Store.
type Preferences interface {
	SetLastUsedService(name string) error
}

// Recorder appends a saved generation to the history. Optional.
type Recorder interface {
	RecordSave(ctx context.Context, session *Session, res *imagegen.Result, saved *persist.SaveResult) error
}

// Request describes one invocation of the pipeline.
type Request struct {
	Prompt      string // initial prompt; empty means ask the prompter
	Service     string // explicit service name; empty means resolve by preference
	Interactive bool   // false auto-approves the first result
	DryRun      bool   // simulate all side effects
}

// Outcome is the final disposition of a session.
type Outcome struct {
	State         State
	SavedPath     string
	Rounds        int
	DryRun        bool
	CorrelationID string
}

// Workflow wires the collaborators for a generation session.
type Workflow struct {
	resolver  ServiceResolver
	executor  Executor
	prompter  Prompter
	previewer Previewer
	host      HostApp
	saver     Saver
	prefs     Preferences
	recorder  Recorder
	logger    *logging.Logger
}

// New creates a Workflow. recorder may be nil when history is disabled.
func New(
	resolver ServiceResolver,
	executor Executor,
	prompter Prompter,
	previewer Previewer,
	host HostApp,
	saver Saver,
	prefs Preferences,
	recorder Recorder,
	logger *logging.Logger,
) *Workflow {
	return &Workflow{
		resolver:  resolver,
		executor:  executor,
		prompter:  prompter,
		previewer: previewer,
		host:      host,
		saver:     saver,
		prefs:     prefs,
		recorder:  recorder,
		logger:    logger.Named("workflow"),
	}
}

// Run drives a session from idle to a terminal state. The returned error is
// non-nil only for Failed outcomes; an aborted session is a clean Outcome
// with StateAborted.
func (w *Workflow) Run(ctx context.Context, req Request) (*Outcome, error) {
	session := NewSession(w.logger)
	defer w.previewer.Cleanup()

	outcome, err := w.run(ctx, session, req)
	if err != nil {
		// Cancellation is the user's doing, not a failure.
		if errors.Is(err, context.Canceled) {
			w.abort(session)
			return w.outcome(session, ""), nil
		}
		w.fail(session, err)
		return w.outcome(session, ""), err
	}
	return outcome, nil
}

func (w *Workflow) run(ctx context.Context, session *Session, req Request) (*Outcome, error) {
	if err := session.To(StatePrompting); err != nil {
		return nil, err
	}

	prompt, err := w.resolvePrompt(ctx, req)
	if err != nil {
		return nil, err
	}
	session.SetPrompt(prompt)

	// Both checks run before any network call so a doomed session fails in
	// milliseconds, not after a generation. Dry-run skips the host entirely.
	if !req.DryRun {
		if err := w.host.Verify(); err != nil {
			return nil, err
		}
	}

	provider, apiKey, err := w.resolver.Resolve(req.Service)
	if err != nil {
		return nil, err
	}
	session.SetService(provider.Name())

	res, err := w.generateUntilVerdict(ctx, session, provider, apiKey, req)
	if err != nil {
		return nil, err
	}
	if session.State() == StateAborted {
		return w.outcome(session, ""), nil
	}

	if err := session.To(StateSaving); err != nil {
		return nil, err
	}
	res.Metadata.DryRun = req.DryRun

	saved, err := w.saver.Save(imagegen.SuggestFilename(res), res.Bytes)
	if err != nil {
		return nil, err
	}

	if !req.DryRun {
		if err := w.prefs.SetLastUsedService(provider.Name()); err != nil {
			w.logger.Warn("failed to remember service preference", zap.Error(err))
		}
		if w.recorder != nil {
			if err := w.recorder.RecordSave(ctx, session, res, saved); err != nil {
				w.logger.Warn("failed to record history entry", zap.Error(err))
			}
		}
	}

	if err := session.To(StateDone); err != nil {
		return nil, err
	}
	w.logger.Info("session complete",
		zap.String("path", saved.Path),
		zap.Int("rounds", session.Rounds()),
		zap.Bool("dry_run", saved.DryRun))
	out := w.outcome(session, saved.Path)
	out.DryRun = saved.DryRun
	return out, nil
}

// resolvePrompt takes the prompt from the request or asks for one, and
// rejects empty input either way.
func (w *Workflow) resolvePrompt(ctx context.Context, req Request) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		if !req.Interactive {
			return "", core.ErrEmptyPrompt()
		}
		read, err := w.prompter.ReadPrompt(ctx)
		if err != nil {
			return "", err
		}
		prompt = strings.TrimSpace(read)
	}
	if prompt == "" {
		return "", core.ErrEmptyPrompt()
	}
	return prompt, nil
}

// generateUntilVerdict loops generate -> preview -> verdict until the user
// approves, aborts, or a generation fails. The resolved provider is fixed for
// the whole session; only the prompt may change between rounds.
func (w *Workflow) generateUntilVerdict(ctx context.Context, session *Session, provider imagegen.Provider, apiKey string, req Request) (*imagegen.Result, error) {
	for {
		if err := session.To(StateGenerating); err != nil {
			return nil, err
		}
		w.logger.Info("generating image",
			zap.String("service", provider.Name()),
			zap.Int("round", session.Rounds()))

		res, err := w.executor.Execute(ctx, provider, session.Prompt(), apiKey)
		if err != nil {
			return nil, err
		}
		imagegen.DescribeImage(res)

		if err := session.To(StatePreviewing); err != nil {
			return nil, err
		}
		if err := w.previewer.Show(res); err != nil {
			// Preview is best-effort; the verdict prompt still shows the
			// metadata.
			w.logger.Warn("preview unavailable", zap.Error(err))
		}

		if err := session.To(StateAwaitingApproval); err != nil {
			return nil, err
		}
		if !req.Interactive {
			if err := session.To(StateApproved); err != nil {
				return nil, err
			}
			return res, nil
		}

		decision, revision, err := w.prompter.Decide(ctx, res)
		if err != nil {
			return nil, err
		}
		switch decision {
		case DecisionApprove:
			if err := session.To(StateApproved); err != nil {
				return nil, err
			}
			return res, nil
		case DecisionRegenerate:
			if err := session.To(StateRegenerating); err != nil {
				return nil, err
			}
			if revision != "" {
				session.SetPrompt(revision)
			}
			w.logger.Info("regenerating",
				zap.String("service", provider.Name()),
				zap.Bool("prompt_revised", revision != ""))
		case DecisionAbort:
			w.abort(session)
			return res, nil
		}
	}
}

// abort forces the session into StateAborted from wherever it is.
func (w *Workflow) abort(session *Session) {
	if session.State().Terminal() {
		return
	}
	if err := session.To(StateAborted); err != nil {
		w.logger.Warn("abort from unexpected state",
			zap.String("state", string(session.State())))
	}
	w.logger.Info("session aborted", zap.Int("rounds", session.Rounds()))
}

// fail forces the session into StateFailed, logging the cause.
func (w *Workflow) fail(session *Session, cause error) {
	if session.State().Terminal() {
		return
	}
	if err := session.To(StateFailed); err != nil {
		session.logger.Warn("failure from unexpected state",
			zap.String("state", string(session.State())))
	}
	w.logger.Error("session failed",
		zap.String("state", string(session.State())),
		zap.Error(cause))
}

func (w *Workflow) outcome(session *Session, savedPath string) *Outcome {
	return &Outcome{
		State:         session.State(),
		SavedPath:     savedPath,
		Rounds:        session.Rounds(),
		CorrelationID: session.CorrelationID(),
	}
}
