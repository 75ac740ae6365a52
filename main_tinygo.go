//go:build tinygo

package main

import (
	"xclock/app"
	"xclock/hal"
)

func main() {
	app.Run(hal.New(), app.DefaultConfig())
}
