//go:build tinygo && baremetal && picocalc

package hal

import "machine"

const (
	picoCalcWidth  = 320
	picoCalcHeight = 320
)

type picoCalcHAL struct {
	logger serialLogger
	fb     *picoCalcFramebuffer
	t      *tinyGoTime
}

// New returns a PicoCalc HAL (Pico/Pico2 on the PicoCalc carrier).
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1. Display: ILI9488 on SPI1.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	fb := &picoCalcFramebuffer{MemFramebuffer: NewMemFramebuffer(picoCalcWidth, picoCalcHeight)}
	if lcd, err := initILI9488(); err == nil {
		fb.lcd = lcd
	}

	return &picoCalcHAL{
		logger: serialLogger{out: uart},
		fb:     fb,
		t:      newTinyGoTime(),
	}
}

func (h *picoCalcHAL) Logger() Logger   { return h.logger }
func (h *picoCalcHAL) Display() Display { return tinyGoDisplay{fb: h.fb} }
func (h *picoCalcHAL) Time() Time       { return h.t }
func (h *picoCalcHAL) Clock() Clock     { return SystemClock{} }

// picoCalcFramebuffer renders in RAM; without a panel Present reports
// ErrNotImplemented and the face window logs it.
type picoCalcFramebuffer struct {
	*MemFramebuffer
	lcd *ili9488
}

func (f *picoCalcFramebuffer) Present() error {
	if f.lcd == nil {
		return ErrNotImplemented
	}
	if err := f.lcd.blit(f.Buffer(), f.Width(), f.Height()); err != nil {
		return err
	}
	return f.MemFramebuffer.Present()
}
