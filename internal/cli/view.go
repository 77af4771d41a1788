package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/tOgg1/busview/internal/logging"
	"github.com/tOgg1/busview/internal/tui"
)

const metricsShutdownTimeout = 2 * time.Second

func newViewCmd(a *app) *cobra.Command {
	var (
		sf          sessionFlags
		speed       float64
		metricsAddr string
		noWatch     bool
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Replay a capture in the interactive message list",
		Long: `Replay a capture in real time in the interactive message list.

Press ? inside the viewer for key bindings. Logs go to the configured log
file while the viewer owns the terminal.`,
		Example: "  busview view --capture drive-1 --symbols car.yaml --demux 4",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !hasTTY() {
				return errors.New("view requires an interactive terminal (use 'busview list' instead)")
			}
			opts, err := sf.listOptions(cmd, a)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("speed") {
				speed = a.cfg.View.Speed
			}
			if speed <= 0 {
				return fmt.Errorf("--speed must be positive")
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = a.cfg.Metrics.Addr
			}

			closeLog, err := logging.InitFile(logging.Config{
				Level:        a.cfg.Logging.Level,
				Format:       a.cfg.Logging.Format,
				EnableCaller: a.cfg.Logging.EnableCaller,
			}, a.cfg.LogFilePath())
			if err != nil {
				return err
			}
			defer closeLog()
			viewCtx := logging.WithContext(cmd.Context(), logging.Component("view"))

			s, err := a.openSession(viewCtx, &sf)
			if err != nil {
				return err
			}

			runCfg := tui.RunConfig{
				Config: tui.Config{
					Title:          s.capture.Name,
					Theme:          a.cfg.View.Theme,
					Speed:          speed,
					RefreshRate:    a.cfg.View.RefreshRate,
					MultiLineBytes: a.cfg.View.MultiLineBytes,
				},
				WatchSymbols: a.cfg.Symbols.Watch && !noWatch,
				Debounce:     a.cfg.Symbols.Debounce,
			}

			ctx, cancel := context.WithCancel(viewCtx)
			defer cancel()
			g, ctx := errgroup.WithContext(ctx)
			if metricsAddr != "" {
				g.Go(func() error { return serveMetrics(ctx, metricsAddr) })
			}
			g.Go(func() error {
				defer cancel()
				return tui.Run(ctx, s.stream, s.symbols, opts, runCfg)
			})

			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	sf.register(cmd)
	cmd.Flags().Float64Var(&speed, "speed", 1, "playback speed multiplier")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9464)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload the symbol file on change")
	return cmd
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// serveMetrics exposes the default Prometheus registry until ctx is done.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("serving metrics")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
