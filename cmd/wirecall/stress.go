package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/danmuck/wirecall/internal/demo"
	"github.com/danmuck/wirecall/internal/rpc"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"
)

type stressReport struct {
	Calls    int
	Failures int64
	Conns    int
	Elapsed  time.Duration
}

func (r stressReport) String() string {
	rate := 0.0
	if r.Elapsed > 0 {
		rate = float64(r.Calls) / r.Elapsed.Seconds()
	}
	return fmt.Sprintf("calls=%d failures=%d conns=%d elapsed=%s rate=%.0f/s",
		r.Calls, r.Failures, r.Conns, r.Elapsed.Round(time.Millisecond), rate)
}

func stressCommand(c *cli.Context) error {
	cfg := DefaultClientConfig()
	if path := c.String("config"); path != "" {
		loaded, err := loadClientConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Transport = clientTransportTCP
	if c.IsSet("transport") {
		cfg.Transport = strings.ToLower(strings.TrimSpace(c.String("transport")))
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("ws-url") {
		cfg.WSURL = c.String("ws-url")
	}
	switch cfg.Transport {
	case clientTransportTCP, clientTransportWS, clientTransportLoopback:
	default:
		return fmt.Errorf("stress needs a connection transport (tcp, ws or loopback), got %q", cfg.Transport)
	}
	if err := validateClientConfig(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runStress(ctx, cfg, c.Int("calls"), c.Int("conns"), c.Int("workers"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, report)
	if report.Failures > 0 {
		return fmt.Errorf("%d of %d calls failed", report.Failures, report.Calls)
	}
	return nil
}

// runStress drives add(i, i) through a connection pool and checks every sum.
func runStress(ctx context.Context, cfg ClientConfig, calls, conns, workers int) (stressReport, error) {
	if calls <= 0 || conns <= 0 {
		return stressReport{}, fmt.Errorf("calls and conns must be positive")
	}
	if workers <= 0 {
		workers = conns * 2
	}

	var dialed atomic.Int32
	pool, err := rpc.NewPool(demo.Declared(), rpc.PoolConfig{
		InitialCap:  1,
		MaxIdle:     conns,
		MaxCap:      conns,
		IdleTimeout: time.Minute,
		Dial: func() (rpc.Conn, error) {
			dialed.Add(1)
			return connectPeer(ctx, cfg)
		},
	}, rpc.WithName("stress"))
	if err != nil {
		return stressReport{}, err
	}
	defer pool.Close()

	jobs := make(chan int)
	var failures atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				sum, err := demo.Add.Call(ctx, pool, i, i)
				if err == nil && sum != 2*i {
					err = fmt.Errorf("add(%d, %d) = %d", i, i, sum)
				}
				if err != nil {
					failures.Add(1)
					log.Warn().Err(err).Int("call", i).Msg("stress.call failed")
				}
			}
		}()
	}
	sent := 0
feed:
	for ; sent < calls; sent++ {
		i := sent
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	report := stressReport{
		Calls:    sent,
		Failures: failures.Load(),
		Conns:    int(dialed.Load()),
		Elapsed:  time.Since(start),
	}
	log.Info().
		Int("calls", report.Calls).
		Int64("failures", report.Failures).
		Int("conns", report.Conns).
		Dur("elapsed", report.Elapsed).
		Str("transport", cfg.Transport).
		Msg("stress.done")
	return report, ctx.Err()
}
