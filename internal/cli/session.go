package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/railchat"
	"github.com/aretw0/railchat/internal/presentation/tui"
	"github.com/aretw0/railchat/pkg/runner"
)

// RunChat runs one interactive conversation on the app until the user leaves, the
// conversation ends or a signal arrives.
func RunChat(app *App, opts ChatOptions) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	sig := runner.NewSignalManager(context.Background())
	defer sig.Stop()
	ctx := sig.Context()

	if opts.Fresh && opts.SessionID != "" {
		if err := app.Sessions.Delete(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(app.Logger),
		runner.WithGreeting(opts.Greeting),
	}
	if opts.SessionID != "" {
		runnerOpts = append(runnerOpts, runner.WithSessionID(opts.SessionID))
	}

	switch {
	case opts.JSON:
		runnerOpts = append(runnerOpts, runner.WithInputHandler(runner.NewJSONHandler(in, out)))
	case opts.Plain:
		runnerOpts = append(runnerOpts, runner.WithInputHandler(runner.NewTextHandler(in, out)))
	default:
		tui.PrintBanner(out, railchat.Version)
		width := 80
		if f, ok := out.(*os.File); ok {
			width = TerminalWidth(f, width)
		}
		runnerOpts = append(runnerOpts, runner.WithInputHandler(
			runner.NewTextHandler(in, out, runner.WithTextHandlerRenderer(tui.NewRenderer(width)))))
	}

	r := runner.NewRunner(app.Sessions, app.Extractor, runnerOpts...)
	app.Logger.Debug("chat started", "session_id", r.SessionID)

	err := r.Run(ctx)
	if err == nil && !opts.JSON {
		sig.CheckRace()
	}
	if sig.Interrupted() {
		app.Logger.Info("chat interrupted", "session_id", r.SessionID)
		return nil
	}
	return err
}
