// Package serve runs the HTTP API and the reconciliation scheduler
package serve

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"fjacquet/camt-recon/cmd/root"
	"fjacquet/camt-recon/internal/container"
	"fjacquet/camt-recon/internal/scheduler"
	"fjacquet/camt-recon/internal/server"

	"github.com/spf13/cobra"
)

var port int

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reconciliation HTTP API",
	Long: `Serve the reconciliation HTTP API. When scheduler.enabled is set, statements
waiting in status "imported" are reconciled on scheduler.schedule.

Example:
  camt-recon serve --port 8080`,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides server.port)")
}

// newServer wires the HTTP server from the container.
func newServer(c *container.Container) *server.Server {
	cfg := c.GetConfig()
	listen := cfg.Server.Port
	if port != 0 {
		listen = port
	}
	return server.New(server.Config{
		Port:           listen,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         c.GetLogger(),
		Reconciler:     c.GetReconciler(),
		Importer:       c.GetImporter(),
		Health:         c.GetStore(),
	})
}

// newScheduler returns nil when periodic reconciliation is disabled.
func newScheduler(c *container.Container) (*scheduler.Scheduler, error) {
	cfg := c.GetConfig()
	if !cfg.Scheduler.Enabled {
		return nil, nil
	}
	s := scheduler.New(c.GetLogger())
	job := scheduler.NewReconcileImportedJob(c.GetReconciler(), 10*time.Minute, c.GetLogger())
	if err := s.AddJob(cfg.Scheduler.Schedule, job); err != nil {
		return nil, err
	}
	return s, nil
}

func serveFunc(cmd *cobra.Command, args []string) error {
	c, err := root.GetContainer()
	if err != nil {
		return err
	}

	srv := newServer(c)
	sched, err := newScheduler(c)
	if err != nil {
		return err
	}
	if sched != nil {
		sched.Start()
		defer sched.Stop()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}
