// Command server runs either the MCP resource server or the authorization
// front end:
//
//	server resource [--port 9001] [--env-file .env]
//	server authz    [--port 9000] [--env-file .env]
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesprial/mcp-oauth-authlete/internal/config"
	"github.com/jamesprial/mcp-oauth-authlete/internal/transport"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "server",
		Short:        "MCP resource server and delegated OAuth authorization server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.LoadEnvFile(envFile, cmd.Flags().Changed("env-file"))
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to seed the environment from; process variables win")

	root.AddCommand(newResourceCommand(), newAuthzCommand())
	return root
}

// overridePort makes a --port flag win over the port variable, so that
// derived defaults such as the base URL follow it.
func overridePort(cmd *cobra.Command, envKey string, port int) error {
	if !cmd.Flags().Changed("port") {
		return nil
	}
	return os.Setenv(envKey, strconv.Itoa(port))
}

func newLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// serve runs srv until ctx is cancelled or the listener fails, then drains
// it within shutdownTimeout.
func serve(ctx context.Context, logger *slog.Logger, srv transport.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr())
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping server gracefully")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, transport.ErrServerClosed) {
		logger.Error("shutdown error", "error", err)
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
