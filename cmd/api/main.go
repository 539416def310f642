package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/tradeezy-assistant/cmd/mainconfig"
	"github.com/wolfman30/tradeezy-assistant/internal/app/bootstrap"
	appconfig "github.com/wolfman30/tradeezy-assistant/internal/config"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

func main() {
	// A local .env is optional; real deployments set the environment.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting tradeezy assistant API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
	)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	app, err := bootstrap.Build(context.Background(), cfg, mainconfig.Loader(cfg), logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	srv := newServer(cfg, app.Handler)

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := app.Close(); err != nil {
		logger.Warn("failed to release resources", "error", err)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// newServer sizes the write timeout for a full tool loop: every round may
// spend up to one outbound timeout on the model and one on the tool.
func newServer(cfg *appconfig.Config, handler http.Handler) *http.Server {
	rounds := cfg.MaxToolRounds
	if rounds < 1 {
		rounds = 1
	}
	write := time.Duration(2*rounds+1)*cfg.OutboundTimeout + 5*time.Second
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: write,
		IdleTimeout:  60 * time.Second,
	}
}
