package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	rberrors "github.com/rebind-dev/rebind/internal/errors"
	"github.com/rebind-dev/rebind/pkg/feed"
	"github.com/rebind-dev/rebind/pkg/journal"
)

func serveCmd() *cobra.Command {
	var (
		port        int
		host        string
		scenario    string
		journalPath string
		metrics     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a feed hub",
		Long: `Start a websocket feed hub.

The hub keeps the latest value per named channel and broadcasts
updates to every connected client. Clients can publish too, so one
hub is enough to fan values out between processes.

With --scenario, a scripted sequence of publishes is replayed into
the hub, which keeps demo and test feeds alive without a real
producer.

Examples:
  rebind serve
  rebind serve --port=9000 --metrics
  rebind serve --scenario=checkout.yaml --journal=hub.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port, host, scenario, journalPath, metrics)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from rebind.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from rebind.json)")
	cmd.Flags().StringVarP(&scenario, "scenario", "s", "", "Scenario file replayed into the hub")
	cmd.Flags().StringVar(&journalPath, "journal", "", "JSONL journal of hub activity")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Expose Prometheus metrics on /metrics")

	return cmd
}

func runServe(port int, host, scenario, journalPath string, metrics bool) error {
	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if port > 0 {
		cfg.Serve.Port = port
	}
	if host != "" {
		cfg.Serve.Host = host
	}
	if scenario != "" {
		cfg.Serve.Scenario = scenario
	}
	if journalPath != "" {
		cfg.Serve.Journal = journalPath
	}
	if metrics {
		cfg.Serve.Metrics = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	hubOpts := []feed.HubOption{feed.WithHubLogger(logger)}
	if path := cfg.ServeJournalPath(); path != "" {
		store, err := journal.NewDiskStore(path)
		if err != nil {
			return rberrors.New("E161").
				WithDetail("Could not open " + path).
				Wrap(err)
		}
		defer store.Close()
		hubOpts = append(hubOpts, feed.WithHubObserver(
			journal.NewRecorder(store, journal.WithLogger(logger))))
	}

	hub := feed.NewHub(hubOpts...)
	defer hub.Close()

	r := chi.NewRouter()
	if cfg.Serve.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Mount("/", hub.Routes())

	// Handle signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var sc *feed.Scenario
	if path := cfg.ScenarioPath(); path != "" {
		sc, err = feed.LoadScenario(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return rberrors.New("E120").
					WithDetail("No scenario file at " + path)
			}
			return rberrors.New("E121").Wrap(err)
		}
	}

	// Print banner
	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	success("Feed hub on http://%s", cfg.Address())
	info("websocket  %s", cfg.FeedURL())
	info("channels   http://%s/channels", cfg.Address())
	if cfg.Serve.Metrics {
		info("metrics    http://%s/metrics", cfg.Address())
	}
	if path := cfg.ServeJournalPath(); path != "" {
		info("journal    %s", path)
	}
	if sc != nil {
		info("scenario   %s (loop=%v)", sc.Name, sc.Loop)
	}
	fmt.Println()

	if sc != nil {
		go func() {
			if err := sc.Run(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
				warn("Scenario stopped: %v", err)
				return
			}
			if !sc.Loop {
				info("Scenario finished")
			}
		}()
	}

	srv := &http.Server{Addr: cfg.Address(), Handler: r}

	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return rberrors.New("E102").
			WithDetail("Could not listen on " + cfg.Address()).
			WithSuggestion("Pick a free port with --port").
			Wrap(err)
	}
	return nil
}
