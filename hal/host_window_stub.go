//go:build !tinygo && !cgo

package hal

import "errors"

// WindowConfig controls the desktop window runner.
type WindowConfig struct {
	Host  HostConfig
	Scale int
	Title string
}

func RunWindow(_ func(HAL) (App, error), _ WindowConfig) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
