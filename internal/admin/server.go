// Package admin serves the HTTP side surface of a wirecall server: probes,
// metrics, the function table, a JSON-RPC bridge into the dispatcher and a
// websocket endpoint that runs a full call session per connection.
package admin

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/danmuck/wirecall/internal/observability"
	"github.com/danmuck/wirecall/internal/registry"
	"github.com/danmuck/wirecall/internal/rpc"
	"github.com/danmuck/wirecall/internal/transport"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

type Server struct {
	Name    string
	Addr    string
	Started time.Time

	registry *registry.Registry
	bridge   http.Handler
	sockets  http.Handler
	router   *gin.Engine
	ready    atomic.Bool
}

// New builds the admin router for reg. Calls posted to /rpc are handed to d.
func New(name, addr string, reg *registry.Registry, d transport.Dispatcher, corsOrigins []string) (*Server, error) {
	observability.RegisterMetrics()
	bridge, err := transport.NewBridgeHandler(d)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestObserver(name, log.Logger))
	origins := normalizeOrigins(corsOrigins)
	r.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	sockets := transport.NewWebSocketHandler(origins, transport.DefaultLimits(), func(ctx context.Context, ws *transport.WebSocket) {
		err := rpc.NewServer(reg, ws, rpc.WithName("ws")).Listen(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Str("service", name).Err(err).Msg("admin.ws session ended")
		}
	})

	s := &Server{
		Name:     name,
		Addr:     addr,
		Started:  time.Now(),
		registry: reg,
		bridge:   bridge,
		sockets:  sockets,
		router:   r,
	}
	s.RegisterRoutes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// SetReady flips the /ready probe.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Started).String(),
			"service": s.Name,
			"version": version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		status := http.StatusOK
		if !s.ready.Load() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   s.ready.Load(),
			"uptime":  time.Since(s.Started).String(),
			"service": s.Name,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/functions", func(c *gin.Context) {
		descs := s.registry.Descriptors()
		signatures := make([]string, len(descs))
		for i, d := range descs {
			signatures[i] = d.Signature()
		}
		c.JSON(http.StatusOK, gin.H{
			"functions":  descs,
			"signatures": signatures,
		})
	})

	s.router.POST("/rpc", gin.WrapH(s.bridge))
	s.router.GET("/ws", gin.WrapH(s.sockets))
}

// Serve runs the admin listener until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.Addr).Str("service", s.Name).Msg("admin.listen")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
