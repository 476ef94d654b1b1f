package async

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"syscall"
)

// EnterKey closes the channel once a line is read from stdin.
func EnterKey() <-chan struct{} {
	return Job(func() {
		bufio.NewReader(os.Stdin).ReadBytes('\n')
	})
}

// Interrupt returns a context canceled on SIGINT or SIGTERM.
func Interrupt(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
