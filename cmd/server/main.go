// Package main is the entry point for the Workset server.
package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/workset/internal/config"
	"github.com/CageChen/workset/internal/handler"
	"github.com/CageChen/workset/internal/model"
	"github.com/CageChen/workset/internal/preview"
	"github.com/CageChen/workset/internal/render"
	"github.com/CageChen/workset/internal/runner"
	"github.com/CageChen/workset/internal/storage"
	"github.com/CageChen/workset/internal/tools"
	"github.com/CageChen/workset/internal/watcher"
)

//go:embed web/*
var webFS embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	logger.Info("Workset - agent working set server")
	logger.Info("config", "file", cfg.GetConfigFilePath(), "storage", cfg.StorageDir)

	store, err := storage.NewBlobStore(cfg.StorageDir)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}

	previews := preview.NewManager(preview.NewCache(), cfg.EntryPoints, logger)
	defer previews.CloseAll()

	models := handler.Models{
		Mock:      model.NewScaffold(),
		MockSteps: cfg.MockMaxSteps,
		LiveSteps: cfg.MaxSteps,
	}
	if cfg.HasModel() {
		models.Live = model.NewClient(cfg.Model.Endpoint, cfg.Model.APIKey, cfg.Model.Name, cfg.Model.Timeout)
		logger.Info("model gateway configured", "endpoint", cfg.Model.Endpoint, "max_steps", cfg.MaxSteps)
	} else {
		logger.Warn("no model endpoint configured, only mock runs are available")
	}

	run := runner.New(store, tools.Default(), previews, logger)
	wsHandler := handler.NewWSHandler()
	projectHandler := handler.NewProjectHandler(store, run, previews, models, wsHandler, logger)
	treeHandler := handler.NewTreeHandler(cfg, store)
	fileHandler := handler.NewFileHandler(store, render.New(cfg.Style))

	// Setup storage watcher if enabled
	if cfg.Watch {
		w, err := watcher.New(store.Root(), logger)
		if err != nil {
			logger.Warn("failed to create storage watcher", "error", err)
		} else {
			w.OnChange(wsHandler.OnBlobChange)
			if err := w.Start(); err != nil {
				logger.Warn("failed to start storage watcher", "error", err)
			}
			defer func() { _ = w.Stop() }()
			logger.Info("storage watcher enabled")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	handler.Register(r.Group("/api"), projectHandler, treeHandler, fileHandler, wsHandler)

	// Serve embedded static files
	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		logger.Error("failed to load web assets", "error", err)
		os.Exit(1)
	}
	r.NoRoute(gin.WrapH(http.FileServer(http.FS(webContent))))

	if cfg.Open {
		go openBrowser(fmt.Sprintf("http://localhost:%d", cfg.Port))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
	go func() {
		logger.Info("server starting", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	_ = exec.Command(cmd, args...).Start()
}
