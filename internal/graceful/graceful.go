package graceful

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

var ErrInterrupted = errors.New("interrupted")

func MakeSigintChan() chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}

// Watch blocks until SIGINT/SIGTERM (ErrInterrupted) or ctx is done (nil).
// A second signal after the first exits the process with status 130.
func Watch(ctx context.Context, logger *logrus.Logger) error {
	return watch(ctx, MakeSigintChan(), logger, func() { os.Exit(130) })
}

func watch(ctx context.Context, sigCh chan os.Signal, logger *logrus.Logger, exit func()) error {
	select {
	case <-ctx.Done():
		signal.Stop(sigCh)
		return nil
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("shutting down, signal again to force exit")
		go func() {
			<-sigCh
			logger.Warn("forced exit")
			exit()
		}()
		return ErrInterrupted
	}
}
