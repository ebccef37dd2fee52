package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"stratum/pkg/logging"
)

// Run drives the server through setup and start, then blocks until an
// interrupt, a termination signal or context cancellation, and shuts the
// server down gracefully. Suitable for foreground use, containers and
// systemd units alike.
func (a *Application) Run(ctx context.Context) error {
	if _, err := a.server.Setup(ctx); err != nil {
		logging.Error("App", err, "Setup failed")
		return err
	}

	// The logging section is validated now; apply it.
	a.reconfigureLogging()

	if a.config.Watch {
		if err := a.cfg.Watch(ctx); err != nil {
			logging.Error("App", err, "Cannot watch configuration for changes")
			return err
		}
	}

	if _, err := a.server.Start(ctx); err != nil {
		logging.Error("App", err, "Start failed")
		stopErr := a.server.Stop(context.Background())
		if stopErr != nil {
			logging.Error("App", stopErr, "Teardown after failed start reported errors")
		}
		return err
	}

	// Under systemd Type=notify this unblocks dependents; elsewhere it is
	// a silent no-op.
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("App", "Cannot notify service manager: %v", err)
	}

	logging.Info("App", "Ready. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logging.Info("App", "Received %s, shutting down", sig)
	case <-ctx.Done():
		logging.Info("App", "Context cancelled, shutting down")
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if err := a.server.Stop(context.Background()); err != nil {
		logging.Error("App", err, "Shutdown reported errors")
		return err
	}
	return nil
}
