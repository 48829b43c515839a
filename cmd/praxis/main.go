package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/praxis/internal/config"
	"github.com/ehr/praxis/internal/domain"
	"github.com/ehr/praxis/internal/listedit"
	"github.com/ehr/praxis/internal/platform/apiclient"
	"github.com/ehr/praxis/internal/platform/notification"
	"github.com/ehr/praxis/internal/platform/session"
	"github.com/ehr/praxis/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app holds everything a command needs. It is built once per run in the
// root command's PersistentPreRunE.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *domain.Registry
	sessions *session.Manager
	client   *apiclient.Client
	sink     *notification.Sink
	out      io.Writer
	errOut   io.Writer

	yes         bool
	interactive func() bool
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(&app{interactive: stdinIsTerminal})
}

func newRootCmdFor(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "praxis",
		Short:         "List and edit practice records from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "answer yes to every confirmation")

	root.AddCommand(
		resourcesCmd(a),
		listCmd(a),
		getCmd(a),
		createCmd(a),
		updateCmd(a),
		deleteCmd(a),
		actionCmd(a),
		uploadCmd(a),
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		stubCmd(a),
	)
	a.flushAfter(root)
	return root
}

// flushAfter makes every command print the notifications still queued in
// the sink when it returns, success or not.
func (a *app) flushAfter(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		a.flushAfter(sub)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		defer func() {
			if a.sink != nil {
				a.sink.Flush()
			}
		}()
		return run(cmd, args)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(cfg, a.errOut)

	reg, err := domain.NewRegistry()
	if err != nil {
		return fmt.Errorf("resource registry: %w", err)
	}
	a.registry = reg
	a.sessions = session.NewManager(cfg.SessionFile)

	var tokens apiclient.TokenSource = a.sessions
	if cfg.APIToken != "" {
		tokens = session.StaticToken(cfg.APIToken)
	}
	a.client, err = apiclient.New(cfg.APIBaseURL,
		apiclient.WithTimeout(cfg.RequestTimeout),
		apiclient.WithTokenSource(tokens),
		apiclient.WithAuthHeader(cfg.AuthHeader),
		apiclient.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	a.sink = notification.NewSink(
		notification.WithDuration(cfg.NotifyDuration),
		notification.WithMaxVisible(cfg.NotifyMaxVisible),
		notification.WithRenderer(notification.NewConsoleRenderer(a.errOut)),
	)
	return nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return logger.Level(level)
}

func stdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// resource resolves a resource path argument.
func (a *app) resource(path string) (*listedit.Resource, error) {
	res, ok := a.registry.Lookup(path)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (see praxis resources)", path)
	}
	return res, nil
}

// controller builds a controller for res wired to the console's
// notification sink and auth hook.
func (a *app) controller(res *listedit.Resource, opts ...listedit.Option) *listedit.Controller {
	base := []listedit.Option{
		listedit.WithControllerNotifier(a.sink),
		listedit.WithOnAuthError(a.authExpired),
		listedit.WithPageSize(a.cfg.PageSize),
		listedit.WithLogger(a.logger),
	}
	return listedit.NewController(res, a.client, append(base, opts...)...)
}

func (a *app) authExpired(error) {
	fmt.Fprintln(a.errOut, "session expired, run praxis login")
}

// confirmer asks in the terminal, or answers from --yes when there is no
// terminal to ask in.
func (a *app) confirmer() listedit.Confirmer {
	if a.yes {
		return ui.AutoConfirm(true)
	}
	if a.interactive() {
		return ui.PromptConfirmer{}
	}
	return listedit.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		fmt.Fprintf(a.errOut, "%s\nnot confirmed: no terminal, pass --yes\n", prompt)
		return false, nil
	})
}
