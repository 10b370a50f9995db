package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edustack/content-engine/api/handlers"
	"github.com/edustack/content-engine/api/middleware"
	"github.com/edustack/content-engine/api/routes"
	"github.com/edustack/content-engine/config"
	"github.com/edustack/content-engine/internal/repository"
	"github.com/edustack/content-engine/internal/service/ingest"
	"github.com/edustack/content-engine/internal/service/study"
	"github.com/edustack/content-engine/pkg/logger"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/app.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := repository.Open(config.GetDatabaseConfig())
	if err != nil {
		log.Fatal("Failed to connect database", logger.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("Failed to migrate database", logger.Error(err))
	}

	ingestService, err := ingest.GetService(db, log)
	if err != nil {
		log.Fatal("Failed to get ingest service", logger.Error(err))
	}
	studyService, err := study.GetService(db, log)
	if err != nil {
		log.Fatal("Failed to get study service", logger.Error(err))
	}

	serverCfg := config.GetServerConfig()
	if !serverCfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.NewHandlers(ingestService, studyService, log)
	auth := middleware.NewAuthMiddleware(config.GetAuthConfig().JWTSecret, log)

	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, auth)

	srv := &http.Server{
		Addr:    serverCfg.Addr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", serverCfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
