//go:build tinygo && baremetal && pinetime

package hal

import (
	"machine"

	"tinygo.org/x/drivers/st7789"
)

const (
	pineTimeWidth  = 240
	pineTimeHeight = 240

	// Rows per SPI burst when pushing the framebuffer.
	pineTimeBatchRows = 8
)

type pineTimeHAL struct {
	logger serialLogger
	fb     *pineTimeFramebuffer
	t      *tinyGoTime
}

// New returns a PineTime HAL: ST7789 240x240 panel on SPI0.
func New() HAL {
	machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 8_000_000,
		SCK:       machine.LCD_SCK,
		SDO:       machine.LCD_SDI,
		SDI:       machine.LCD_SDI,
		Mode:      3,
	})
	lcd := st7789.New(machine.SPI0,
		machine.LCD_RESET,
		machine.LCD_RS,
		machine.LCD_CS,
		machine.LCD_BACKLIGHT_HIGH)
	lcd.Configure(st7789.Config{
		Width:    pineTimeWidth,
		Height:   pineTimeHeight,
		Rotation: st7789.NO_ROTATION,
	})

	return &pineTimeHAL{
		logger: serialLogger{out: machine.Serial},
		fb:     newPineTimeFramebuffer(&lcd),
		t:      newTinyGoTime(),
	}
}

func (h *pineTimeHAL) Logger() Logger   { return h.logger }
func (h *pineTimeHAL) Display() Display { return tinyGoDisplay{fb: h.fb} }
func (h *pineTimeHAL) Time() Time       { return h.t }
func (h *pineTimeHAL) Clock() Clock     { return SystemClock{} }

// pineTimeFramebuffer keeps RGB565 little-endian in RAM and converts to the
// panel's big-endian order on Present.
type pineTimeFramebuffer struct {
	*MemFramebuffer
	lcd   *st7789.Device
	txBuf []byte
}

func newPineTimeFramebuffer(lcd *st7789.Device) *pineTimeFramebuffer {
	return &pineTimeFramebuffer{
		MemFramebuffer: NewMemFramebuffer(pineTimeWidth, pineTimeHeight),
		lcd:            lcd,
		txBuf:          make([]byte, pineTimeWidth*2*pineTimeBatchRows),
	}
}

func (f *pineTimeFramebuffer) Present() error {
	w, h := f.Width(), f.Height()
	stride := f.StrideBytes()
	buf := f.Buffer()
	for y := 0; y < h; y += pineTimeBatchRows {
		rows := pineTimeBatchRows
		if y+rows > h {
			rows = h - y
		}
		src := buf[y*stride : (y+rows)*stride]
		dst := f.txBuf[:len(src)]
		for i := 0; i+1 < len(src); i += 2 {
			dst[i] = src[i+1]
			dst[i+1] = src[i]
		}
		if err := f.lcd.DrawRGBBitmap8(0, int16(y), dst, int16(w), int16(rows)); err != nil {
			return err
		}
	}
	return f.MemFramebuffer.Present()
}
