package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/closeready/internal/api"
	"github.com/eshaffer321/closeready/internal/application/service"
)

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port int
}

// RunServe runs the API server until SIGINT or SIGTERM.
func RunServe(app *App, flags ServeFlags) error {
	gin.SetMode(gin.ReleaseMode)

	port := app.Config.API.Port
	if flags.Port > 0 {
		port = flags.Port
	}

	apiCfg := api.DefaultConfig()
	apiCfg.Port = port
	if len(app.Config.API.AllowedOrigins) > 0 {
		apiCfg.AllowedOrigins = app.Config.API.AllowedOrigins
	}

	server := api.NewServer(apiCfg, app.Service, app.Logger.With("system", "api"))

	app.Service.StartBackgroundCleanup(10 * time.Minute)
	defer app.Service.StopBackgroundCleanup()

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		app.Logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			app.Logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	cancelled := 0
	for _, job := range app.Service.ListJobs() {
		if job.Status == service.StatusPending || job.Status == service.StatusRunning {
			if err := app.Service.CancelJob(job.ID); err == nil {
				cancelled++
			}
		}
	}
	app.Logger.Info("server stopped", "cancelled_jobs", cancelled)
	return nil
}
