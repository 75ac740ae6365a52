//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"xclock/app"
	"xclock/hal"
	"xclock/internal/buildinfo"
	"xclock/internal/config"
	"xclock/watchos/tasks/xclock"
)

type options struct {
	cfg      *config.Config
	headless bool
	version  bool
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "xclock: %v\n", err)
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(buildinfo.String())
		return
	}
	if err := run(opts); err != nil {
		slog.Error("xclock stopped", "err", err)
		os.Exit(1)
	}
}

// parseArgs loads the config file named by -config and applies the flags
// that were set explicitly on top of it.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("xclock", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	path := fs.String("config", "", "YAML config file.")
	fs.BoolVar(&opts.headless, "headless", false, "Run without a window.")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit.")
	hz := fs.Int("hz", 0, "Tick rate in headless mode.")
	ticks := fs.Uint64("ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	at := fs.String("at", "", "Pin the clock to HH:MM:SS.")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	cfg, err := config.Read(*path)
	if err != nil {
		return opts, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hz":
			cfg.Headless.Hz = *hz
		case "ticks":
			cfg.Headless.Ticks = *ticks
		case "at":
			cfg.Clock.Fixed = *at
		}
	})
	if err := cfg.Validate(); err != nil {
		return opts, err
	}
	opts.cfg = cfg
	return opts, nil
}

func run(opts options) error {
	cfg := opts.cfg
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	host, appCfg, err := hostSetup(cfg, time.Now())
	if err != nil {
		return err
	}
	newApp := func(h hal.HAL) (hal.App, error) {
		return app.New(h, appCfg)
	}

	slog.Info("xclock starting",
		"version", buildinfo.Short(),
		"headless", opts.headless,
		"width", host.Width,
		"height", host.Height,
		"fixed_clock", cfg.Clock.Fixed,
	)

	if opts.headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err := hal.RunHeadless(ctx, newApp, hal.HeadlessConfig{
			Hz:    cfg.Headless.Hz,
			Ticks: cfg.Headless.Ticks,
			Host:  host,
		})
		if errors.Is(err, context.Canceled) {
			slog.Info("xclock interrupted")
			return nil
		}
		return err
	}

	return hal.RunWindow(newApp, hal.WindowConfig{
		Host:  host,
		Scale: cfg.Display.Scale,
		Title: "xclock",
	})
}

// hostSetup turns a validated config into HAL and app settings.
func hostSetup(cfg *config.Config, now time.Time) (hal.HostConfig, app.Config, error) {
	fg, bg, err := cfg.Colors()
	if err != nil {
		return hal.HostConfig{}, app.Config{}, err
	}
	fixed, ok, err := cfg.FixedTime(now)
	if err != nil {
		return hal.HostConfig{}, app.Config{}, err
	}

	host := hal.HostConfig{
		Width:  cfg.Display.Width,
		Height: cfg.Display.Height,
		Clock:  hal.SystemClock{},
	}
	if ok {
		host.Clock = hal.FixedClock{T: fixed}
	}

	appCfg := app.DefaultConfig()
	appCfg.Face = xclock.Config{Foreground: fg, Background: bg}
	return host, appCfg, nil
}
