// Package main is the entry point for the optisigns-mcp server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesprial/optisigns-mcp/internal/assets"
	"github.com/jamesprial/optisigns-mcp/internal/auth"
	"github.com/jamesprial/optisigns-mcp/internal/config"
	"github.com/jamesprial/optisigns-mcp/internal/devices"
	"github.com/jamesprial/optisigns-mcp/internal/graphql"
	"github.com/jamesprial/optisigns-mcp/internal/playlists"
	"github.com/jamesprial/optisigns-mcp/internal/safety"
	"github.com/jamesprial/optisigns-mcp/internal/schedules"
	"github.com/jamesprial/optisigns-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

const (
	defaultConfigPath = "/config/config.yaml"
	serverName        = "optisigns-mcp"
	serverVersion     = "1.0.0"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("warning: %v", err)
	}

	cfg := loadConfig()
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		log.Printf("warning: ignoring invalid environment overrides: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Printf("warning: could not generate auth token: %v; running without authentication", err)
	} else if tokenBefore == "" {
		log.Printf("generated auth token (set %s to persist): %s", config.EnvAuthToken, token)
	}

	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Printf("warning: could not open audit log %q: %v; audit logging disabled", cfg.Audit.LogPath, err)
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	registrations, err := buildRegistrations(cfg, auditLogger)
	if err != nil {
		log.Fatalf("failed to create OptiSigns client: %v", err)
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)
	tools.RegisterAll(mcpServer, registrations)
	log.Printf("registered %d tools", len(registrations))

	httpHandler := server.NewStreamableHTTPServer(mcpServer)
	wrappedHandler := auth.NewAuthMiddleware(cfg.Server.AuthToken)(httpHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           wrappedHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("%s listening on %s", serverName, addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// buildRegistrations wires the OptiSigns managers and safety components into
// the full tool set.
func buildRegistrations(cfg *config.Config, auditLogger *safety.AuditLogger) ([]tools.Registration, error) {
	var opts []graphql.Option
	if cfg.OptiSigns.Timeout > 0 {
		opts = append(opts, graphql.WithTimeout(time.Duration(cfg.OptiSigns.Timeout)*time.Second))
	}
	client, err := graphql.NewHTTPClient(cfg.OptiSigns.Endpoint, cfg.OptiSigns.Token, opts...)
	if err != nil {
		return nil, err
	}
	log.Printf("using OptiSigns API at %s", client.Endpoint())

	uploadClient := &http.Client{Timeout: 10 * time.Minute}
	assetMgr := assets.NewGraphQLAssetManager(client,
		assets.WithDownloadClient(uploadClient),
		assets.WithUploader(assets.NewTransloaditUploader(cfg.OptiSigns.UploadURL, uploadClient)),
	)

	deviceFilter := safety.NewFilter(cfg.Safety.Devices.Allowlist, cfg.Safety.Devices.Denylist)
	teamID := cfg.OptiSigns.TeamID

	var registrations []tools.Registration
	registrations = append(registrations, devices.DeviceTools(
		devices.NewGraphQLDeviceManager(client),
		deviceFilter,
		safety.NewConfirmationTracker(devices.DestructiveTools),
		auditLogger,
		teamID,
	)...)
	registrations = append(registrations, assets.AssetTools(
		assetMgr,
		safety.NewConfirmationTracker(assets.DestructiveTools),
		auditLogger,
		teamID,
	)...)
	registrations = append(registrations, playlists.PlaylistTools(
		playlists.NewGraphQLPlaylistManager(client),
		safety.NewConfirmationTracker(playlists.DestructiveTools),
		auditLogger,
		teamID,
	)...)
	registrations = append(registrations, schedules.ScheduleTools(
		schedules.NewGraphQLScheduleManager(client),
		safety.NewConfirmationTracker(schedules.DestructiveTools),
		auditLogger,
	)...)
	registrations = append(registrations, graphql.GraphQLTools(client, auditLogger)...)

	return registrations, nil
}

// loadConfig reads the config file named by OPTISIGNS_MCP_CONFIG_PATH or the
// default /config/config.yaml. If the file cannot be read, DefaultConfig is
// returned.
func loadConfig() *config.Config {
	path := os.Getenv(config.EnvConfigPath)
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("could not load config from %q (%v), using defaults", path, err)
		return config.DefaultConfig()
	}

	log.Printf("loaded config from %q", path)
	return cfg
}
