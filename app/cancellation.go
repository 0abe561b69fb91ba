package app

import (
	"os"
	"os/signal"
	"sync/atomic"
)

// SignalCancellation implements compilator.CancellationSource by
// latching an int32 flag the first time the process receives an
// interrupt signal: an external cancel-requested flag set by the
// SIGINT-like signal collaborator, polled cooperatively by the worker
// loop between tasks.
type SignalCancellation struct {
	cancelled int32
	sigCh     chan os.Signal
}

// NewSignalCancellation starts listening for interrupt signals and
// returns the source; call Stop to release the signal subscription
// once the build finishes.
func NewSignalCancellation(signals ...os.Signal) *SignalCancellation {
	s := &SignalCancellation{sigCh: make(chan os.Signal, 1)}
	signal.Notify(s.sigCh, signals...)
	go func() {
		for range s.sigCh {
			atomic.StoreInt32(&s.cancelled, 1)
		}
	}()
	return s
}

// IsCancelled implements compilator.CancellationSource.
func (s *SignalCancellation) IsCancelled() bool {
	return atomic.LoadInt32(&s.cancelled) == 1
}

// Stop unsubscribes from signal delivery.
func (s *SignalCancellation) Stop() {
	signal.Stop(s.sigCh)
	close(s.sigCh)
}
