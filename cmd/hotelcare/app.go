package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"hotelcare/internal/auth"
	"hotelcare/internal/config"
	"hotelcare/internal/core"
	"hotelcare/internal/kv"
	"hotelcare/internal/prefs"
	"hotelcare/pkg/domain"
)

// liveTimeout bounds the wait for the first snapshot of the user's document.
const liveTimeout = 15 * time.Second

var (
	errNotSignedIn          = errors.New("nenhum usuário conectado; use login ou informe --email e --password")
	errConfirmationRequired = errors.New("ação destrutiva: repita o comando com --yes para confirmar")
)

type app struct {
	stdout, stderr io.Writer

	configPath string
	email      string
	password   string
	yes        bool

	cfg    config.Config
	logger *slog.Logger
	loc    *time.Location

	db      *kv.DB
	auth    *auth.Provider
	prefs   prefs.Store
	backend core.DocumentBackend
	service *core.Service

	registry *prometheus.Registry
	recorder core.MetricsRecorder

	closers []func()
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hotelcare",
		Short:         "Controle de manutenção de hotéis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "hotelcare.yaml", "configuration file")
	flags.StringVar(&a.email, "email", "", "account e-mail (default $HOTELCARE_EMAIL)")
	flags.StringVar(&a.password, "password", "", "account password (default $HOTELCARE_PASSWORD)")
	flags.BoolVar(&a.yes, "yes", false, "confirm destructive actions")

	root.AddCommand(
		a.signupCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.profileCmd(),
		a.hotelCmd(),
		a.apartmentCmd(),
		a.itemCmd(),
		a.logCmd(),
		a.taskCmd(),
		a.sanitizeCmd(),
		a.watchCmd(),
		a.updateCmd(),
		a.prefsCmd(),
	)
	return root
}

func (a *app) configure() error {
	cfg, err := config.Load(a.configPath, nil)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.loc = loc
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	a.registry = prometheus.NewRegistry()
	ops, err := core.NewPrometheusRecorder(a.registry)
	if err != nil {
		return err
	}
	syncMetrics, err := core.NewSyncMetrics(a.registry)
	if err != nil {
		return err
	}
	a.recorder = core.MultiRecorder{ops, syncMetrics}
	return nil
}

func (a *app) credentials() (string, string) {
	email, password := a.email, a.password
	if email == "" {
		email = os.Getenv("HOTELCARE_EMAIL")
	}
	if password == "" {
		password = os.Getenv("HOTELCARE_PASSWORD")
	}
	return email, password
}

// openState opens the local state database with the account and preference
// stores on top of it.
func (a *app) openState() error {
	if a.db != nil {
		return nil
	}
	if err := os.MkdirAll(a.cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	db, err := kv.Open(kv.Config{Path: a.cfg.StateDir, Logger: a.logger})
	if err != nil {
		return err
	}
	a.db = db
	a.closers = append(a.closers, func() { _ = db.Close() })
	a.auth = auth.New(db)
	a.prefs = prefs.NewKVStore(db)
	return nil
}

// signIn logs in with explicit credentials when given, otherwise restores
// the remembered session.
func (a *app) signIn(ctx context.Context) (*domain.User, error) {
	if err := a.openState(); err != nil {
		return nil, err
	}
	if email, password := a.credentials(); email != "" || password != "" {
		return a.auth.Login(ctx, email, password)
	}
	user, err := a.auth.Restore(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errNotSignedIn
	}
	return user, nil
}

func (a *app) coreOptions() []core.Option {
	return []core.Option{
		core.WithLogger(a.logger),
		core.WithLocation(a.loc),
		core.WithMetricsRecorder(a.recorder),
	}
}

// openService signs in, opens the document store and waits until the
// session mirrors the user's document.
func (a *app) openService(ctx context.Context) (*core.Service, error) {
	if a.service != nil {
		return a.service, nil
	}
	if _, err := a.signIn(ctx); err != nil {
		return nil, err
	}
	backend, err := core.OpenDocumentStore(ctx, a.cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.backend = backend
	a.closers = append(a.closers, func() { _ = backend.Close() })

	session := core.NewSession(backend, a.coreOptions()...)
	followCtx, cancel := context.WithCancel(context.Background())
	stop := session.Follow(followCtx, a.auth)
	a.closers = append(a.closers, func() {
		stop()
		session.Detach()
		cancel()
	})

	waitCtx, cancelWait := context.WithTimeout(ctx, liveTimeout)
	defer cancelWait()
	if err := session.WaitLive(waitCtx); err != nil {
		if last := session.LastError(); last != nil {
			return nil, last
		}
		return nil, fmt.Errorf("aguardando documento: %w", err)
	}
	a.service = core.NewService(session, a.coreOptions()...)
	return a.service, nil
}

// synced reports a write-back failure left behind by the last mutation.
func (a *app) synced() error {
	if a.service == nil {
		return nil
	}
	if err := a.service.Session().LastError(); err != nil {
		return fmt.Errorf("alteração aplicada localmente mas não salva: %w", err)
	}
	return nil
}

// confirm runs the staged destructive action when --yes was given and
// discards it otherwise.
func (a *app) confirm(ctx context.Context, svc *core.Service, p core.Pending) error {
	fmt.Fprintf(a.stdout, "%s %s\n", p.Title, p.Message)
	if !a.yes {
		svc.Confirmations().Cancel()
		return errConfirmationRequired
	}
	if err := svc.Confirmations().Confirm(ctx); err != nil {
		return err
	}
	return a.synced()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
