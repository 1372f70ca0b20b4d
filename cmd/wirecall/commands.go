package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/danmuck/wirecall/internal/admin"
	"github.com/danmuck/wirecall/internal/config"
	"github.com/danmuck/wirecall/internal/demo"
	"github.com/danmuck/wirecall/internal/registry"
	"github.com/danmuck/wirecall/internal/rpc"
	"github.com/danmuck/wirecall/internal/transport"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
)

func resolveServerConfig(c *cli.Context) (config.ServerConfig, error) {
	cfg := config.DefaultServerConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadServerConfig(path)
		if err != nil {
			return config.ServerConfig{}, err
		}
		cfg = loaded
	}
	if c.IsSet("transport") {
		cfg.Transport = strings.ToLower(strings.TrimSpace(c.String("transport")))
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("admin-addr") {
		cfg.AdminAddr = c.String("admin-addr")
	}
	return cfg, config.ValidateServerConfig(cfg)
}

func serveCommand(c *cli.Context) error {
	cfg, err := resolveServerConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var exitCode atomic.Int64
	reg := demo.Registry(demo.Hooks{Exit: func(code int) {
		exitCode.Store(int64(code))
		cancel()
	}})
	logger := log.With().Str("node", cfg.Name).Logger()

	if cfg.AdminAddr != "" {
		adm, err := admin.New(cfg.Name, cfg.AdminAddr, reg, rpc.NewServer(reg, nil, rpc.WithLogger(logger)), cfg.CorsOrigins)
		if err != nil {
			return err
		}
		adm.SetReady(true)
		go func() {
			if err := adm.Serve(serveCtx); err != nil {
				logger.Error().Err(err).Msg("admin server stopped")
				cancel()
			}
		}()
	}

	limits := transport.Limits{MaxMessageBytes: cfg.MaxMessageBytes}
	switch cfg.Transport {
	case config.TransportTCP:
		err = serveTCP(serveCtx, cfg.Addr, reg, limits)
	default:
		stream := transport.Stdio().WithLimits(limits)
		err = rpc.NewServer(reg, stream, rpc.WithLogger(logger)).Listen(serveCtx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if code := int(exitCode.Load()); code != 0 {
		return cli.NewExitError("", code)
	}
	return nil
}

// serveTCP serves every accepted peer on its own goroutine until ctx is done.
func serveTCP(ctx context.Context, addr string, reg *registry.Registry, limits transport.Limits) error {
	ln, err := transport.Listen(addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	log.Info().Str("addr", ln.Addr().String()).Msg("rpc.tcp listen")

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			return err
		}
		conn.WithLimits(limits)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			err := rpc.NewServer(reg, conn, rpc.WithName(ln.Addr().String())).Listen(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("rpc.tcp peer dropped")
			}
		}()
	}
}

func demoCommand(c *cli.Context) error {
	cfg := DefaultClientConfig()
	if path := c.String("config"); path != "" {
		loaded, err := loadClientConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if c.IsSet("transport") {
		cfg.Transport = strings.ToLower(strings.TrimSpace(c.String("transport")))
	}
	if code := c.Int("exit-code"); code >= 0 {
		cfg.ExitCode = code
	}
	if err := validateClientConfig(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	peer, err := connectPeer(ctx, cfg)
	if err != nil {
		return err
	}
	client := rpc.NewClient(demo.Declared(), peer, rpc.WithName(cfg.Transport))
	sum, runErr := demo.Run(ctx, client, cfg.ExitCode)
	closeErr := peer.Close()
	if runErr != nil {
		return runErr
	}
	fmt.Fprintln(c.App.Writer, sum)

	if cfg.Transport == clientTransportProcess {
		if code := transport.ExitCode(closeErr); code != cfg.ExitCode {
			return fmt.Errorf("peer exited with %d, expected %d", code, cfg.ExitCode)
		}
		return nil
	}
	return closeErr
}

type peerTransport interface {
	rpc.Transport
	io.Closer
}

type nopCloser struct {
	rpc.Transport
}

func (nopCloser) Close() error { return nil }

func connectPeer(ctx context.Context, cfg ClientConfig) (peerTransport, error) {
	switch cfg.Transport {
	case clientTransportTCP:
		return transport.DialRetry(ctx, cfg.Addr, transport.DefaultBackoff())
	case clientTransportSSH:
		return transport.DialSSH(ctx, cfg.SSH.SSHConfig, cfg.SSH.Command, cfg.SSH.Args...)
	case clientTransportWS:
		return transport.DialWebSocket(ctx, cfg.WSURL, cfg.Origin)
	case clientTransportHTTP:
		return nopCloser{transport.NewHTTPTransport(cfg.URL, &http.Client{Timeout: cfg.Timeout})}, nil
	case clientTransportLoopback:
		reg := demo.Registry(demo.Hooks{})
		return nopCloser{transport.NewLoopback(rpc.NewServer(reg, nil, rpc.WithName("loopback")))}, nil
	default:
		command := cfg.Command
		if command == "" {
			self, err := os.Executable()
			if err != nil {
				return nil, fmt.Errorf("locate wirecall binary: %w", err)
			}
			command = self
		}
		return transport.Spawn(ctx, command, cfg.Args...)
	}
}

func functionsCommand(c *cli.Context) error {
	for _, d := range demo.Declared().Descriptors() {
		fmt.Fprintf(c.App.Writer, "%d\t%s\n", d.Index, d.Signature())
	}
	return nil
}

func configInitCommand(c *cli.Context) error {
	path := c.String("out")
	if err := config.WriteTemplate(path, c.String("kind"), c.Bool("force")); err != nil {
		return err
	}
	log.Info().Str("path", path).Str("kind", c.String("kind")).Msg("config template written")
	return nil
}

func configValidateCommand(c *cli.Context) error {
	path := c.String("config")
	switch strings.ToLower(c.String("kind")) {
	case "client":
		if _, err := loadClientConfig(path); err != nil {
			return err
		}
	default:
		if _, err := config.LoadServerConfig(path); err != nil {
			return err
		}
	}
	log.Info().Str("path", path).Msg("config valid")
	return nil
}
