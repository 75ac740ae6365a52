//go:build !tinygo && cgo

package hal

import (
	"fmt"
	"time"

	"xclock/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// WindowConfig controls the desktop window runner.
type WindowConfig struct {
	Host  HostConfig
	Scale int
	Title string
}

// RunWindow starts a desktop window that displays the framebuffer.
// It blocks until the window closes, then closes the app.
func RunWindow(newApp func(HAL) (App, error), cfg WindowConfig) (err error) {
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	if cfg.Title == "" {
		cfg.Title = "xclock"
	}

	h := newHost(cfg.Host)
	app, err := newApp(h)
	if err != nil {
		return fmt.Errorf("window: start app: %w", err)
	}
	defer func() {
		if cerr := app.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("window: close app: %w", cerr)
		}
	}()

	g := &hostGame{h: h, app: app}
	ebiten.SetWindowTitle(cfg.Title + " (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.Width()*cfg.Scale, h.fb.Height()*cfg.Scale)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h       *hostHAL
	app     App
	pix     []byte
	scratch []byte
	fbImg   *ebiten.Image
}

func (g *hostGame) Update() error {
	g.h.t.advance(time.Now())
	return g.app.Step()
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	w, h := fb.Width(), fb.Height()
	if g.fbImg == nil {
		g.pix = make([]byte, w*h*4)
		g.scratch = make([]byte, len(fb.Buffer()))
		g.fbImg = ebiten.NewImage(w, h)
	}

	fb.Snapshot(g.scratch)
	convertRGB565(g.pix, g.scratch)

	g.fbImg.WritePixels(g.pix)
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.Width(), g.h.fb.Height()
}
