package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/engine"
	"github.com/jamesprial/mcp-oauth-authlete/internal/authz/session"
	"github.com/jamesprial/mcp-oauth-authlete/internal/config"
	"github.com/jamesprial/mcp-oauth-authlete/internal/metrics"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport"
)

func newAuthzCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "authz",
		Short: "Run the authorization front end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := overridePort(cmd, "OAUTH_PORT", port); err != nil {
				return err
			}
			cfg, err := config.LoadAuthz()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg.Server.LogLevel)
			logger.Info("authorization server configuration loaded", "config", cfg.String())

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			m, err := metrics.New("authz")
			if err != nil {
				return fmt.Errorf("create metrics: %w", err)
			}

			eng, err := engine.NewClient(engine.Options{
				BaseURL:     cfg.AuthleteBaseURL,
				ServiceID:   cfg.AuthleteServiceID,
				AccessToken: cfg.AuthleteAccessToken,
				Timeout:     cfg.AuthleteTimeout,
				Metrics:     m,
				Logger:      logger,
			})
			if err != nil {
				return fmt.Errorf("create engine client: %w", err)
			}

			store, closeStore, err := newSessionStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			sessions, err := session.NewManager(store, cfg.SessionSecret, session.Options{
				TTL:    cfg.SessionTTL,
				Secure: strings.HasPrefix(cfg.Server.BaseURL, "https://"),
			})
			if err != nil {
				return fmt.Errorf("create session manager: %w", err)
			}

			srv, _, err := transport.NewAuthzServices(&transport.AuthzConfig{
				Server:             &cfg.Server,
				Engine:             eng,
				Sessions:           sessions,
				SampleClientID:     cfg.SampleClientID,
				SampleClientScopes: cfg.Scopes,
				Metrics:            m,
				Logger:             logger,
			})
			if err != nil {
				return fmt.Errorf("create transport services: %w", err)
			}
			logger.Info("authorization server ready",
				"base_url", cfg.Server.BaseURL,
				"session_store", cfg.SessionStore,
			)

			return serve(ctx, logger, srv, cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().IntVar(&port, "port", 9000, "listen port (overrides OAUTH_PORT)")
	return cmd
}

// newSessionStore builds the configured backend. The returned func releases
// it.
func newSessionStore(ctx context.Context, cfg *config.Authz, logger *slog.Logger) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		store, err := session.NewRedisStore(ctx, session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			TTL:      cfg.SessionTTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect session store: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing session store", "error", err)
			}
		}, nil
	default:
		return session.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}
}
