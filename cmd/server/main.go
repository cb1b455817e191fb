package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pokerjest/animatch/internal/api"
	"github.com/pokerjest/animatch/internal/app"
	"github.com/pokerjest/animatch/internal/config"
	"github.com/pokerjest/animatch/internal/db"
	"github.com/pokerjest/animatch/internal/scheduler"
	"github.com/rs/zerolog/log"
)

func main() {
	// 1. Load Config
	if err := config.LoadConfig("."); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	config.ApplyLogConfig()

	// 2. Setup Gin Mode
	gin.SetMode(config.AppConfig.Server.Mode)

	absPath, _ := filepath.Abs(config.AppConfig.Database.Path)
	log.Info().Str("path", absPath).Msg("Initializing database")
	db.InitDB(config.AppConfig.Database.Path)
	defer db.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(config.AppConfig, db.DB)

	h := api.NewHandler(ctx, a.Runner, a.Catalog, a.Bus, config.AppConfig.Matcher.MaxProcessed)
	r := api.NewRouter(h)

	// Start Scheduler
	sch := scheduler.NewManager(a.Runner, config.AppConfig.Matcher.ScheduleInterval, config.AppConfig.Matcher.MaxProcessed)
	sch.Start(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.AppConfig.Server.Port),
		Handler: r,
		// SSE streams end with the process context
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	sch.Stop()
}
