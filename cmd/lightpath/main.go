package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/klauspost/cpuid/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	lpmcp "github.com/sanonone/lightpath/internal/mcp"
	"github.com/sanonone/lightpath/internal/server"
	"github.com/sanonone/lightpath/pkg/config"
	"github.com/sanonone/lightpath/pkg/engine"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file (defaults are used when empty)")
	httpAddr := flag.String("http-addr", "", "Address for the REST API, overrides server.addr (e.g. :9191)")
	authToken := flag.String("auth-token", "", "Bearer token required by the REST API, overrides server.auth_token")
	photoPath := flag.String("photo", "", "Photo to load at startup")
	mcpMode := flag.Bool("mcp", false, "Serve the Model Context Protocol over stdio instead of HTTP")
	preview := flag.Bool("preview", false, "Animate a demo drawing in the terminal")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	// stdout belongs to the MCP transport, so logs always go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		cfg.Server.Addr = *httpAddr
	}
	if *authToken != "" {
		cfg.Server.AuthToken = *authToken
	}

	slog.Info("[Lightpath] Starting",
		"version", version,
		"cpu", cpuid.CPU.BrandName,
		"cores", cpuid.CPU.LogicalCores,
		"depth_provider", cfg.Depth.URL,
		"lines_provider", cfg.Lines.URL,
		"enhancer", cfg.Enhance.URL != "")

	eng := engine.New(engine.OptionsFromConfig(cfg))
	defer eng.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *photoPath != "" {
		data, err := os.ReadFile(*photoPath)
		if err != nil {
			slog.Error("Failed to read photo", "path", *photoPath, "error", err)
			os.Exit(1)
		}
		if err := eng.LoadPhoto(ctx, data); err != nil {
			slog.Error("Failed to load photo", "path", *photoPath, "error", err)
			os.Exit(1)
		}
		for _, n := range eng.Notifications() {
			slog.Warn("[Lightpath] " + n.Message)
		}
	}

	switch {
	case *preview:
		if err := runPreview(ctx, eng); err != nil {
			slog.Error("Preview failed", "error", err)
			os.Exit(1)
		}

	case *mcpMode:
		s := lpmcp.NewMCPServer(eng, version)
		slog.Info("[MCP] Serving on stdio")
		if err := s.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP server stopped", "error", err)
			os.Exit(1)
		}

	default:
		srv := server.NewServer(eng, cfg.Server.Addr, cfg.Server.AuthToken)
		go func() {
			if err := srv.Run(); err != nil {
				slog.Error("Server error", "error", err)
				stop()
			}
		}()

		<-ctx.Done()
		srv.Shutdown()
	}
}
