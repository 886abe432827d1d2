package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"memory-graph-mcp/internal/graph"
	"memory-graph-mcp/internal/server"
	"memory-graph-mcp/internal/storage"
	"memory-graph-mcp/internal/viewer"
	"memory-graph-mcp/pkg/config"
	"memory-graph-mcp/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	flag.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport mode: stdio or http")
	flag.StringVar(&cfg.Port, "port", cfg.Port, "HTTP port (only used with --transport http)")
	flag.StringVar(&cfg.MemoryFile, "memory-path", cfg.MemoryFile, "Path to the memory JSONL file")
	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Base directory for a relative memory path")
	flag.BoolVar(&cfg.ViewerEnabled, "viewer", cfg.ViewerEnabled, "Serve the read-only web viewer API")
	flag.StringVar(&cfg.ViewerPort, "viewer-port", cfg.ViewerPort, "Web viewer port")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Init(cfg.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zl := logger.Get()

	store, err := storage.NewFileStore(cfg.StorePath())
	if err != nil {
		zl.Fatal("Failed to open store", zap.String("path", cfg.StorePath()), zap.Error(err))
	}
	mgr := graph.NewManager(store)
	srv := server.New(mgr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.ViewerEnabled {
		viewerSrv := &http.Server{
			Addr:    ":" + cfg.ViewerPort,
			Handler: viewer.New(mgr).Router(),
		}
		g.Go(func() error {
			zl.Info("Viewer API listening", zap.String("addr", viewerSrv.Addr))
			if err := viewerSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return viewerSrv.Shutdown(shutdownCtx)
		})
	}

	switch cfg.Transport {
	case "stdio":
		g.Go(func() error {
			zl.Info("Memory graph MCP server starting (stdio)", zap.String("store", store.Path()))
			return srv.Run(ctx, &mcp.StdioTransport{})
		})
	case "http":
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		mcpSrv := &http.Server{Addr: ":" + cfg.Port, Handler: handler}
		g.Go(func() error {
			zl.Info("Memory graph MCP server listening", zap.String("addr", mcpSrv.Addr), zap.String("store", store.Path()))
			if err := mcpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return mcpSrv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zl.Fatal("Server error", zap.Error(err))
	}
}
