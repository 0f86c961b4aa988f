package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"hotelcare/internal/core"
	"hotelcare/internal/notify"
	"hotelcare/internal/prefs"
	"hotelcare/internal/update"
	"hotelcare/pkg/domain"
)

func (a *app) sanitizeCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "sanitize <file>",
		Short: "Repair a stored document and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			s := core.Sanitizer{Location: a.loc}
			data := s.SanitizeJSON(raw)
			out, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				return err
			}
			if write {
				return os.WriteFile(args[0], append(out, '\n'), 0o600)
			}
			_, err = fmt.Fprintln(a.stdout, string(out))
			return err
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "overwrite the file instead of printing")
	return cmd
}

func summary(d domain.AppData, reminders int) string {
	apartments, pending := 0, 0
	for _, h := range d.Hotels {
		apartments += len(h.Apartments)
	}
	for _, t := range d.ScheduledTasks {
		if !t.IsComplete {
			pending++
		}
	}
	return fmt.Sprintf("%s: %d hotéis, %d apartamentos, %d tarefas pendentes, %d lembretes",
		d.UserName, len(d.Hotels), apartments, pending, reminders)
}

func (a *app) watchCmd() *cobra.Command {
	var metricsAddr string
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the document and keep reminders scheduled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}
			if metricsAddr != "" {
				shutdown, err := a.serveMetrics(metricsAddr)
				if err != nil {
					return err
				}
				defer shutdown()
			}
			svc, err := a.openService(ctx)
			if err != nil {
				return err
			}
			return a.watch(ctx, svc, notify.NewMemoryScheduler())
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (default until interrupted)")
	return cmd
}

func (a *app) serveMetrics(addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "error", err)
		}
	}()
	fmt.Fprintf(a.stdout, "métricas em http://%s/metrics\n", ln.Addr())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

// watch prints a line per document change and reschedules reminders until
// ctx ends. Changes arriving faster than they are handled are coalesced.
func (a *app) watch(ctx context.Context, svc *core.Service, scheduler notify.Scheduler) error {
	changes := make(chan domain.AppData, 1)
	push := func(d domain.AppData) {
		for {
			select {
			case changes <- d:
				return
			default:
				select {
				case <-changes:
				default:
				}
			}
		}
	}
	remove := svc.Session().OnChange(push)
	defer remove()
	push(svc.Data())

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-svc.Session().Errors():
			fmt.Fprintln(a.stderr, "erro de sincronização:", err)
		case d := <-changes:
			plan, err := notify.Reschedule(ctx, scheduler, d.ScheduledTasks, time.Now(), a.loc)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, summary(d, len(plan)))
		}
	}
}

func (a *app) checker() *update.Checker {
	return &update.Checker{
		RemoteURL: a.cfg.Update.RemoteURL,
		LocalPath: a.cfg.Update.LocalPath,
		Local:     update.Descriptor{VersionCode: a.cfg.Update.VersionCode, Version: a.cfg.Update.Version},
		Client:    &http.Client{Timeout: 10 * time.Second},
		Prefs:     a.prefs,
	}
}

func (a *app) updateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "update", Short: "Check for a newer build"}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Compare the installed build with the published one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.openState(); err != nil {
				return err
			}
			d, err := a.checker().Check(cmd.Context())
			if err != nil {
				return err
			}
			if d == nil {
				fmt.Fprintln(a.stdout, "nenhuma atualização disponível")
				return nil
			}
			fmt.Fprintf(a.stdout, "nova versão %s disponível\n", d.Version)
			for _, note := range d.Notes {
				fmt.Fprintf(a.stdout, "  - %s\n", note)
			}
			if d.URL != "" {
				fmt.Fprintln(a.stdout, d.URL)
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "skip <version>",
		Short: "Stop announcing a version for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openState(); err != nil {
				return err
			}
			return a.checker().Skip(cmd.Context(), args[0])
		},
	})
	return cmd
}

func (a *app) prefsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "prefs", Short: "Display preferences"}
	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print one or all preferences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openState(); err != nil {
				return err
			}
			settings, err := prefs.Load(cmd.Context(), a.prefs)
			if err != nil {
				return err
			}
			keys := prefs.Keys()
			if len(args) == 1 {
				keys = args
			}
			for _, key := range keys {
				v, ok := settings.Get(key)
				if !ok {
					return fmt.Errorf("%w: unknown key %q", prefs.ErrInvalidValue, key)
				}
				fmt.Fprintf(a.stdout, "%s=%s\n", key, v)
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openState(); err != nil {
				return err
			}
			return prefs.Save(cmd.Context(), a.prefs, args[0], args[1])
		},
	})
	return cmd
}
