// Command pop3sfd wires a loaded configuration, the structured logger, the
// Prometheus registry and the engine together, and drives the process
// lifecycle (accept, serve, signal-triggered graceful shutdown). It carries
// no protocol logic; all of that lives in the root package.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitlabuda/pop3sf"
	"github.com/vitlabuda/pop3sf/config"
	"github.com/vitlabuda/pop3sf/internal/logging"
)

func main() {
	configPath := flag.String("config", "/etc/pop3sf/pop3sf.yaml", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "pop3sfd:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	_ = level.UnmarshalText([]byte(cfg.LogLevel))
	logger := logging.New(level, os.Stderr)

	// This process ships only the non-persistent reference adapter; a real
	// deployment supplies its own pop3sf.MailboxProvider/Authorizer built
	// against cfg.Adapter.Identifier/Options.
	if cfg.Adapter.Identifier != "reference" {
		logger.Warn("unrecognized adapter identifier, falling back to the non-persistent reference adapter", "identifier", cfg.Adapter.Identifier)
	}
	mboxProvider := pop3sf.EmptyMailboxProvider{}
	authorizer := pop3sf.AllowAllAuthorizer{}

	metrics := pop3sf.NewMetrics(prometheus.DefaultRegisterer)

	srv := pop3sf.NewServer(authorizer, mboxProvider, cfg.AuthDelayCurve())
	srv.ConnectionsLimit = cfg.MaxConcurrentSessions
	srv.IdleTimeout = cfg.IdleTimeout()
	srv.AllowReadOnlyMode = cfg.AllowReadOnlyMode
	srv.AllowPlaintextAuthWithoutTLS = cfg.AllowPlaintextAuthWithoutTLS
	srv.MaxInvalidCommands = cfg.MaxInvalidCommands
	srv.Logger = logger
	srv.Metrics = metrics

	listeners := make([]net.Listener, 0, len(cfg.Listeners))
	specs := make([]pop3sf.ListenerSpec, 0, len(cfg.Listeners))
	for _, lc := range cfg.Listeners {
		addr := fmt.Sprintf("%s:%d", lc.Address, lc.Port)
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		listeners = append(listeners, ln)

		spec := pop3sf.ListenerSpec{Addr: addr}
		switch lc.TLS {
		case config.TLSModeImplicit:
			spec.TLSMode = pop3sf.TLSModeImplicit
		case config.TLSModeSTLS:
			spec.TLSMode = pop3sf.TLSModeSTLS
		default:
			spec.TLSMode = pop3sf.TLSModeNone
		}
		if spec.TLSMode != pop3sf.TLSModeNone {
			tlsConfig, err := loadTLSConfig(cfg.TLS.CertificatePath, cfg.TLS.KeyPath)
			if err != nil {
				return fmt.Errorf("loading TLS material for %s: %w", addr, err)
			}
			spec.TLSConfig = tlsConfig
		}
		specs = append(specs, spec)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ServeAll(ctx, listeners, specs) }()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining sessions")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownDeadline())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown did not complete cleanly", "error", err)
	}

	if err := <-serveErr; err != nil && !errors.Is(err, pop3sf.ErrServerClosed) {
		return err
	}
	return nil
}

func loadTLSConfig(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
