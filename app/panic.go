package app

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"xclock/hal"
	"xclock/watchos/gfx"
	"xclock/watchos/kernel"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	panicFontHeight = 10
	panicFontOffset = 8
)

func installPanicHandler(k *kernel.Kernel, h hal.HAL) {
	k.SetPanicHandler(func(info kernel.PanicInfo) {
		if l := h.Logger(); l != nil {
			l.WriteLineString(fmt.Sprintf("xclock panic: task=%d panic=%v", info.TaskID, info.Value))
			for _, line := range strings.Split(string(info.Stack), "\n") {
				if line == "" {
					continue
				}
				l.WriteLineString(line)
			}
		}
		drawPanicScreen(h.Display(), info)
	})
}

// drawPanicScreen writes the panic summary onto the display. Stack lines are
// logged only: the watch screen has room for a few lines.
func drawPanicScreen(disp hal.Display, info kernel.PanicInfo) {
	if disp == nil {
		return
	}
	fb, err := gfx.NewFramebuffer(disp.Framebuffer())
	if err != nil {
		return
	}
	fb.SetBackground(color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	fb.Clear()

	font := &proggy.TinySZ8pt7b
	_, outboxWidth := tinyfont.LineWidth(font, "0")
	fontWidth := int16(outboxWidth)
	if fontWidth <= 0 {
		_ = fb.Present()
		return
	}

	w, h := fb.Size()
	cols := w / fontWidth
	if cols <= 0 {
		cols = 1
	}

	fg := color.RGBA{A: 0xFF}
	lines := []string{
		"xclock panic",
		fmt.Sprintf("task: %d", info.TaskID),
		fmt.Sprintf("panic: %v", info.Value),
	}

	y := int16(0)
	for _, line := range lines {
		for len(line) > 0 {
			if y+panicFontHeight > h {
				_ = fb.Present()
				return
			}
			chunk, rest := takeRunes(line, cols)
			tinyfont.WriteLine(fb, font, 0, y+panicFontOffset, chunk, fg)
			y += panicFontHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
	_ = fb.Present()
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}
