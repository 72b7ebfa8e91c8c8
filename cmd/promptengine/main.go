// Command promptengine runs the prompt execution engine's HTTP and MCP
// transports over a single shared engine.Engine, following the teacher's
// options → config → apiServer staging (internal/hivemind/options,
// internal/hivemind/config, internal/hivemind/server.go) reduced to what
// this repo actually vendors: pflag + viper for configuration, gin for
// HTTP, mark3labs/mcp-go for MCP, and automaxprocs so the container's
// cgroup CPU quota (not the host's core count) sizes GOMAXPROCS.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/forgecrew/promptengine/internal/engine"
	transporthttp "github.com/forgecrew/promptengine/internal/transport/http"
	transportmcp "github.com/forgecrew/promptengine/internal/transport/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/forgecrew/promptengine/internal/pkg/logger"
)

var version = "dev"

type serverOptions struct {
	Addr               string
	SessionStorePath   string
	ReloadJournalDir   string
	DefaultFrameworkID string
	AuthToken          string
	MCPStdio           bool
}

func newServerOptions() *serverOptions {
	return &serverOptions{
		Addr:             ":8080",
		ReloadJournalDir: "./data/reload-journals",
	}
}

func (o *serverOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Addr, "addr", o.Addr, "HTTP listen address")
	fs.StringVar(&o.SessionStorePath, "session-store", o.SessionStorePath, "BoltDB file for chain sessions (empty uses an in-memory store)")
	fs.StringVar(&o.ReloadJournalDir, "reload-journal-dir", o.ReloadJournalDir, "directory for hot-reload resource journals")
	fs.StringVar(&o.DefaultFrameworkID, "default-framework", o.DefaultFrameworkID, "framework ID used when a command doesn't specify one")
	fs.StringVar(&o.AuthToken, "auth-token", o.AuthToken, "bearer token required on non-loopback requests (empty disables auth)")
	fs.BoolVar(&o.MCPStdio, "mcp-stdio", o.MCPStdio, "also serve the MCP tool surface over stdio alongside HTTP")
}

func main() {
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Info(format, args...)
	})); err != nil {
		logger.Warn("[promptengine] automaxprocs: %v", err)
	}

	opts := newServerOptions()
	fs := pflag.NewFlagSet("promptengine", pflag.ExitOnError)
	opts.addFlags(fs)
	_ = fs.Parse(os.Args[1:])
	_ = viper.BindPFlags(fs)
	viper.SetEnvPrefix("PROMPTENGINE")
	viper.AutomaticEnv()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "promptengine:", err)
		os.Exit(1)
	}
}

func run(opts *serverOptions) error {
	cfg := &engine.Config{
		SessionStorePath:   opts.SessionStorePath,
		ReloadJournalDir:   opts.ReloadJournalDir,
		DefaultFrameworkID: opts.DefaultFrameworkID,
	}
	e, err := cfg.Complete().New()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	if err := e.Start(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer e.Stop()

	for kind, n := range e.StartupDiagnostics() {
		if n > 0 {
			logger.Warn("[promptengine] %d %s modified on disk while the process was down", n, kind)
		}
	}

	var auth *transporthttp.AuthConfig
	if opts.AuthToken != "" {
		auth = &transporthttp.AuthConfig{Enabled: true, Token: opts.AuthToken}
	}
	router := transporthttp.NewRouter(e, transporthttp.RouterConfig{
		Auth:    auth,
		Version: version,
	})

	srv := &http.Server{Addr: opts.Addr, Handler: router}

	if opts.MCPStdio {
		go func() {
			if err := mcpserver.ServeStdio(transportmcp.NewServer(e, version)); err != nil {
				logger.Warn("[promptengine] mcp stdio server exited: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[promptengine] listening on %s", opts.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("[promptengine] shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
