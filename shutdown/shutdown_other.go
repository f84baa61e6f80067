//go:build !windows

// Package shutdown delivers the termination signals that end a
// listening session so a report is always generated on the way out.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}
