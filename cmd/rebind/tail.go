package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	rberrors "github.com/rebind-dev/rebind/internal/errors"
	"github.com/rebind-dev/rebind/pkg/bindeffect"
	"github.com/rebind-dev/rebind/pkg/feed"
	"github.com/rebind-dev/rebind/pkg/journal"
	"github.com/rebind-dev/rebind/pkg/observe"
)

// snapshotTimeout bounds the wait for the hub's hello snapshot.
const snapshotTimeout = 10 * time.Second

func tailCmd() *cobra.Command {
	var (
		url         string
		window      time.Duration
		trigger     string
		deep        bool
		journalPath string
		jsonOut     bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "tail [channel...]",
		Short: "Run a coalesced effect over feed channels",
		Long: `Bind to channels on a feed hub and print every effect firing.

Each channel becomes a binding and one coordinated effect watches
them all. Bursts of updates inside the coalescing window collapse
into a single firing; with --deep, firings whose extracted values
did not actually change are suppressed entirely.

Channels come from the arguments, or from rebind.json when no
arguments are given.

Examples:
  rebind tail price qty
  rebind tail price --window=50ms --deep
  rebind tail price --json --journal=firings.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTail(args, url, window, trigger, deep, journalPath, jsonOut, verbose)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "Hub websocket URL (default from rebind.json)")
	cmd.Flags().DurationVarP(&window, "window", "w", 0, "Coalescing window (default from rebind.json)")
	cmd.Flags().StringVarP(&trigger, "trigger", "t", "", "Mount trigger: if-input-changed, always, never, first-mount-only")
	cmd.Flags().BoolVar(&deep, "deep", false, "Suppress firings whose values did not change")
	cmd.Flags().StringVar(&journalPath, "journal", "", "JSONL journal of firings")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print firings as JSON objects")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log notification and scheduling events")

	return cmd
}

func runTail(channels []string, url string, window time.Duration, trigger string, deep bool, journalPath string, jsonOut, verbose bool) error {
	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply command-line overrides
	if url != "" {
		cfg.Tail.URL = url
	}
	if window > 0 {
		cfg.Tail.Window = window.String()
	}
	if trigger != "" {
		cfg.Tail.Trigger = trigger
	}
	if journalPath != "" {
		cfg.Tail.Journal = journalPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if len(channels) == 0 {
		channels = cfg.Tail.Channels
	}
	if len(channels) == 0 {
		return rberrors.New("E160").
			WithExample("rebind tail price qty")
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	// Handle signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()
	}()

	client, err := feed.Dial(ctx, cfg.TailURL(), feed.WithClientLogger(logger))
	if err != nil {
		return rberrors.New("E140").
			WithDetail("Could not reach " + cfg.TailURL()).
			WithSuggestion("Start a hub with: rebind serve").
			Wrap(err)
	}
	defer client.Close()

	readyCtx, readyCancel := context.WithTimeout(ctx, snapshotTimeout)
	err = client.WaitReady(readyCtx)
	readyCancel()
	if err != nil {
		return rberrors.New("E141").Wrap(err)
	}

	pairs := make([]bindeffect.NamedBinding, len(channels))
	for i, name := range channels {
		pairs[i] = bindeffect.Bind(name, client.Binding(name))
	}

	opts := []bindeffect.Option{
		bindeffect.WithID("tail"),
		bindeffect.WithWindow(cfg.TailWindow()),
		bindeffect.WithMountTrigger(mountTrigger(cfg.Tail.Trigger)),
		bindeffect.WithLogger(logger),
	}
	if deep {
		opts = append(opts, bindeffect.DetectInputChanges())
	}

	var observers []observe.Observer
	if verbose {
		observers = append(observers, observe.NewSlogObserver(logger))
	}
	if path := cfg.TailJournalPath(); path != "" {
		store, err := journal.NewDiskStore(path)
		if err != nil {
			return rberrors.New("E161").
				WithDetail("Could not open " + path).
				Wrap(err)
		}
		defer store.Close()
		observers = append(observers, journal.NewRecorder(store,
			journal.WithLogger(logger),
			journal.WithEvents(observe.EventFire, observe.EventSkip)))
	}
	if len(observers) > 0 {
		opts = append(opts, bindeffect.WithObserver(observe.NewMultiObserver(observers...)))
	}

	// Print banner
	printBanner()
	fmt.Println("  tail")
	fmt.Println()
	success("Tailing %s", strings.Join(channels, ", "))
	info("hub      %s", cfg.TailURL())
	info("window   %s", cfg.TailWindow())
	info("trigger  %s", cfg.Tail.Trigger)
	fmt.Println()

	dispose := bindeffect.Create(
		bindeffect.Named(pairs...),
		func(vals bindeffect.Values, _ *bindeffect.Dependencies) {
			printFiring(channels, vals, jsonOut)
		},
		opts...,
	)
	defer dispose()

	select {
	case <-ctx.Done():
		return nil
	case <-client.Done():
		if err := client.Err(); err != nil {
			return rberrors.New("E140").
				WithDetail("Connection to the hub was lost").
				Wrap(err)
		}
		return nil
	}
}

// mountTrigger maps a config trigger name to its policy value. Unknown
// names were rejected by Validate already; the default covers the rest.
func mountTrigger(name string) bindeffect.MountTrigger {
	switch name {
	case "always":
		return bindeffect.TriggerAlways
	case "never":
		return bindeffect.TriggerNever
	case "first-mount-only":
		return bindeffect.TriggerFirstMountOnly
	default:
		return bindeffect.TriggerIfInputChanged
	}
}

// printFiring writes one effect firing to stdout.
func printFiring(channels []string, vals bindeffect.Values, jsonOut bool) {
	stamp := time.Now().Format("15:04:05.000")

	if jsonOut {
		payload, err := json.Marshal(vals.Map())
		if err != nil {
			warn("Unencodable firing: %v", err)
			return
		}
		fmt.Printf("%s  %s\n", stamp, payload)
		return
	}

	var b strings.Builder
	for i, name := range channels {
		if i > 0 {
			b.WriteString("  ")
		}
		v, _ := vals.Get(name)
		fmt.Fprintf(&b, "%s=%v", name, v)
	}
	fmt.Printf("%s  %s\n", stamp, b.String())
}
