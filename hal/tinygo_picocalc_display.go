//go:build tinygo && baremetal && picocalc

package hal

import (
	"errors"
	"machine"
	"time"
)

const ili9488ChunkBytes = 4096

// ili9488 drives the PicoCalc panel over SPI1 in 16bpp mode.
type ili9488 struct {
	spi machine.SPI
	cs  machine.Pin
	dc  machine.Pin
	rst machine.Pin

	tx []byte
}

func initILI9488() (*ili9488, error) {
	if machine.SPI1 == nil {
		return nil, errors.New("ili9488: SPI1 unavailable")
	}
	machine.SPI1.Configure(machine.SPIConfig{
		SCK:       machine.GP10,
		SDO:       machine.GP11,
		SDI:       machine.GP12,
		Frequency: 40_000_000,
	})

	d := &ili9488{
		spi: *machine.SPI1,
		cs:  machine.GP13,
		dc:  machine.GP14,
		rst: machine.GP15,
		tx:  make([]byte, ili9488ChunkBytes),
	}
	for _, p := range []machine.Pin{d.cs, d.dc, d.rst} {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.High()
	}

	d.rst.Low()
	time.Sleep(64 * time.Millisecond)
	d.rst.High()
	time.Sleep(140 * time.Millisecond)

	d.cmd(0xC0, 0x17, 0x15)             // PWCTRL1
	d.cmd(0xC1, 0x41)                   // PWCTRL2
	d.cmd(0xC5, 0x00, 0x12, 0x80, 0x40) // VMCTRL
	d.cmd(0x3A, 0x55)                   // COLMOD 16bpp
	d.cmd(0xB1, 0xA0, 0x11)             // FRMCTRL1
	d.cmd(0xB6, 0x02, 0x22, 0x27)       // DISCTRL, 320 lines
	d.cmd(0x21)                         // INVON
	d.cmd(0x36, 0x40|0x04|0x08)         // MADCTL: MX|MH|BGR for the PicoCalc wiring
	d.cmd(0x11)                         // SLPOUT
	time.Sleep(120 * time.Millisecond)
	d.cmd(0x29) // DISPON

	return d, nil
}

func (d *ili9488) cmd(cmd byte, data ...byte) {
	d.cs.Low()
	d.dc.Low()
	d.spi.Tx([]byte{cmd}, nil)
	d.dc.High()
	if len(data) > 0 {
		d.spi.Tx(data, nil)
	}
	d.cs.High()
}

func (d *ili9488) window(w, h int) {
	x1, y1 := uint16(w-1), uint16(h-1)
	d.cmd(0x2A, 0, 0, byte(x1>>8), byte(x1))
	d.cmd(0x2B, 0, 0, byte(y1>>8), byte(y1))
	d.cmd(0x2C)
}

// blit pushes a full little-endian RGB565 frame; the panel wants big-endian.
func (d *ili9488) blit(buf []byte, w, h int) error {
	n := w * h * 2
	if w <= 0 || h <= 0 || len(buf) < n {
		return errors.New("ili9488: invalid framebuffer")
	}
	d.window(w, h)

	d.cs.Low()
	d.dc.High()
	for off := 0; off < n; {
		m := len(d.tx)
		if m > n-off {
			m = n - off
		}
		src := buf[off : off+m]
		for i := 0; i+1 < m; i += 2 {
			d.tx[i] = src[i+1]
			d.tx[i+1] = src[i]
		}
		d.spi.Tx(d.tx[:m], nil)
		off += m
	}
	d.cs.High()
	return nil
}
