package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesprial/mcp-oauth-authlete/internal/config"
	"github.com/jamesprial/mcp-oauth-authlete/internal/mcp"
	"github.com/jamesprial/mcp-oauth-authlete/internal/metrics"
	"github.com/jamesprial/mcp-oauth-authlete/internal/oauth"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport"
)

func newResourceCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "resource",
		Short: "Run the MCP resource server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := overridePort(cmd, "MCP_PORT", port); err != nil {
				return err
			}
			cfg, err := config.LoadResource()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg.Server.LogLevel)
			logger.Info("resource server configuration loaded", "config", cfg.String())

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			m, err := metrics.New("resource")
			if err != nil {
				return fmt.Errorf("create metrics: %w", err)
			}

			verifier, metadata, err := oauth.NewOAuthServices(ctx, &oauth.Config{
				BaseURL:          cfg.Server.BaseURL,
				Issuer:           cfg.Issuer,
				Audience:         cfg.Audience,
				ScopesSupported:  cfg.RequiredScopes,
				ResourceName:     cfg.ResourceName,
				DocumentationURL: cfg.DocumentationURL,
				ClockSkew:        cfg.ClockSkew,
				KeySetTTL:        cfg.KeySetTTL,
				DiscoveryTimeout: cfg.DiscoveryTimeout,
				Metrics:          m,
				Logger:           logger,
			})
			if err != nil {
				return fmt.Errorf("create oauth services: %w", err)
			}

			_, mcpHandler := mcp.NewMCPServices(&mcp.Config{
				ServerName:    cfg.ServerName,
				ServerVersion: cfg.ServerVersion,
				Logger:        logger,
			})

			srv, _, err := transport.NewResourceServices(&transport.ResourceConfig{
				Server:         &cfg.Server,
				Verifier:       verifier,
				Metadata:       metadata,
				MCP:            mcpHandler,
				RequiredScopes: cfg.RequiredScopes,
				Metrics:        m,
				Logger:         logger,
			})
			if err != nil {
				return fmt.Errorf("create transport services: %w", err)
			}
			logger.Info("resource server ready",
				"metadata_url", metadata.GetMetadataURL(),
				"issuer", cfg.Issuer,
				"audience", cfg.Audience,
			)

			return serve(ctx, logger, srv, cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().IntVar(&port, "port", 9001, "listen port (overrides MCP_PORT)")
	return cmd
}
