//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Hz    int
	Ticks uint64
	Host  HostConfig
}

// RunHeadless runs the app without opening a window.
//
// It returns nil after cfg.Ticks frames (0 = run until ctx is done) and
// ctx.Err() on cancellation. The app is always closed before returning.
func RunHeadless(ctx context.Context, newApp func(HAL) (App, error), cfg HeadlessConfig) (err error) {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := newHost(cfg.Host)
	app, err := newApp(h)
	if err != nil {
		return fmt.Errorf("headless: start app: %w", err)
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("headless: close app: %w", cerr)
		}
	}()

	t := time.NewTicker(d)
	defer t.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-t.C:
			h.t.advance(now)
			if err := app.Step(); err != nil {
				return err
			}
			tick++
			if cfg.Ticks > 0 && tick >= cfg.Ticks {
				return nil
			}
		}
	}
}
