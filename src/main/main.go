// Command light-dict is the selection-triggered lookup engine. It watches the
// primary selection, shows the command bar or result panel, and serves the
// org.lightdict.Engine interface on the session bus.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"light-dict/src/api"
	"light-dict/src/config"
	"light-dict/src/dispatcher"
	"light-dict/src/eventloop"
	"light-dict/src/hotkey"
	"light-dict/src/keyboard"
	"light-dict/src/logutil"
	"light-dict/src/notification"
	"light-dict/src/overlay"
	"light-dict/src/runtimeinit"
	"light-dict/src/singleinstance"
	"light-dict/src/tray"
	"light-dict/src/x11"
)

const (
	appID        = "org.lightdict.app"
	loopWorkers  = 4
	startTimeout = 5 * time.Second
)

type mainOptions struct {
	envFile      string
	settingsFile string
	logFile      string
}

func main() {
	if err := runWithArgs(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	normalized := normalizeLegacyArgs(args)
	if len(normalized) > 0 {
		cmd.SetArgs(normalized[1:])
	}
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "light-dict",
		Short:         "Run commands on the selected text",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVar(&opts.envFile, "env", "", "Path to .env file (highest precedence)")
	cmd.Flags().StringVar(&opts.settingsFile, "settings", "", "Path to the settings YAML file")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "Path to log file")
	return cmd
}

// normalizeLegacyArgs accepts single-dash long flags ("-env path").
func normalizeLegacyArgs(args []string) []string {
	out := append([]string(nil), args...)
	for i := 1; i < len(out); i++ {
		for _, name := range []string{"env", "settings", "log-file"} {
			legacy := "-" + name
			if out[i] == legacy || strings.HasPrefix(out[i], legacy+"=") {
				out[i] = "-" + out[i]
			}
		}
	}
	return out
}

func (o *mainOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		EnvFileOverride:      o.envFile,
		SettingsFileOverride: o.settingsFile,
		LogFileOverride:      o.logFile,
	}
}

func run(opts *mainOptions) error {
	cfg, logCloser, err := runtimeinit.Bootstrap(runtimeinit.Options{LoadOptions: opts.loadOptions()})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}
	defer conn.Close()

	owner, err := singleinstance.Acquire(conn, cfg.BusName)
	if errors.Is(err, singleinstance.ErrRunning) {
		fmt.Printf("light-dict is already running as %s\n", cfg.BusName)
		return err
	}
	if err != nil {
		return err
	}
	defer owner.Release()

	store, err := config.Open(cfg.SettingsFile)
	if err != nil {
		return err
	}

	rt, err := x11.Connect()
	if err != nil {
		return err
	}
	defer rt.Close()

	loop := eventloop.New(loopWorkers)
	timers := eventloop.NewTimers(loop.Post)
	defer timers.Stop()
	bridge := config.NewBridge(store, loop.Post)
	defer bridge.Close()

	history := logutil.OpenHistory(cfg.HistoryFile)
	defer history.Close()

	a := app.NewWithID(appID)
	barView := overlay.NewBarView(a, loop.Post, rt)
	panelView := overlay.NewPanelView(a, loop.Post, rt)

	d := dispatcher.New(dispatcher.Deps{
		Runtime:   rt,
		Runner:    loop,
		Scheduler: timers,
		Store:     store,
		Bridge:    bridge,
		BarView:   barView,
		PanelView: panelView,
		Keyboard:  keyboard.New(),
		Notifier:  notification.New(conn),
		History:   history,
		OCRHelper: cfg.OCRHelper,
	})
	barView.SetTarget(d.Bar)
	panelView.SetTarget(d.Panel)

	hotkeys := hotkey.New(loop.Post, map[string]func(){
		hotkey.ActionToggle: func() { d.Toggle() },
		hotkey.ActionOCR:    func() { runOCR(d) },
	})
	defer hotkeys.Stop()
	bridge.Attach(hotkey.Bindings, hotkeys, "")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	t := tray.New(a, store, func() { loop.Post(func() { runOCR(d) }) }, cancel)
	bridge.Attach(tray.Bindings, t, tray.BindingsGroup)

	// The loop outlives ctx so the dispatcher can be stopped on it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(loopCtx) })
	g.Go(func() error { return store.Watch(gctx) })

	if err := startDispatcher(gctx, loop, d); err != nil {
		cancel()
		stopLoop()
		_ = g.Wait()
		return err
	}

	unexport, err := api.Export(conn, api.NewServer(d, loop, api.BusPIDs(conn)))
	if err != nil {
		stopDispatcher(loop, d)
		cancel()
		stopLoop()
		_ = g.Wait()
		return err
	}
	defer unexport()

	appDone := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-gctx.Done()
		stopDispatcher(loop, d)
		select {
		case <-appDone:
		default:
			fyne.Do(a.Quit)
		}
	}()

	slog.Info("light-dict started", "bus", cfg.BusName, "settings", store.Path())
	a.Run()
	close(appDone)

	cancel()
	<-stopped
	stopLoop()
	err = g.Wait()
	slog.Info("light-dict stopped")
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func startDispatcher(ctx context.Context, loop *eventloop.Loop, d *dispatcher.Dispatcher) error {
	ctx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	var startErr error
	if err := loop.Call(ctx, func() { startErr = d.Start(context.WithoutCancel(ctx)) }); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}
	return startErr
}

func stopDispatcher(loop *eventloop.Loop, d *dispatcher.Dispatcher) {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := loop.Call(ctx, d.Stop); err != nil {
		slog.Warn("dispatcher stop did not run", "error", err)
	}
}

func runOCR(d *dispatcher.Dispatcher) {
	if err := d.OCR(""); err != nil {
		slog.Warn("ocr hotkey failed", "error", err)
	}
}
