// goportal-loadtest drives many browsing contexts concurrently against a
// shared Redis preference store and reports guard and toggle latencies.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	goPortal "github.com/MrEthical07/goPortal"
	"github.com/MrEthical07/goPortal/guard"
	"github.com/MrEthical07/goPortal/internal/loop"
	"github.com/MrEthical07/goPortal/kv"
)

// browsingContext is one simulated tab. Its Controller is single-threaded,
// so workers take mu for every call.
type browsingContext struct {
	mu   sync.Mutex
	ctrl *goPortal.Controller
	loop *loop.Loop
}

func main() {
	var (
		contexts    int
		concurrency int
		ops         int
		redisAddr   string
		prefix      string
	)
	flagSet := pflag.NewFlagSet("goportal-loadtest", pflag.ContinueOnError)
	flagSet.IntVar(&contexts, "contexts", 10000, "number of browsing contexts to log in")
	flagSet.IntVar(&concurrency, "concurrency", 256, "number of concurrent workers")
	flagSet.IntVar(&ops, "ops", 200000, "operations per phase (enter + toggle)")
	flagSet.StringVar(&redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	flagSet.StringVar(&prefix, "prefix", "gpload", "preference key prefix")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if contexts <= 0 || concurrency <= 0 || ops <= 0 {
		fmt.Fprintln(os.Stderr, "contexts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := goPortal.DefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	telemetry := goPortal.NewTelemetry(cfg, nil)
	defer telemetry.Close()

	states := make([]*browsingContext, contexts)
	fmt.Printf("logging in %d contexts...\n", contexts)
	startSeed := time.Now()
	for i := 0; i < contexts; i++ {
		bc, err := newContext(ctx, cfg, telemetry, client, fmt.Sprintf("%s:dev-%d", prefix, i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = bc
	}
	fmt.Printf("logged in in %s\n", time.Since(startSeed).Round(time.Millisecond))

	routes := cfg.Routes
	enterStats := runPhase(states, ops, concurrency, 7919, func(bc *browsingContext) error {
		_, err := bc.ctrl.Enter(ctx, guard.Page{Path: routes.Dashboards["admin"]})
		return err
	})
	toggleStats := runPhase(states, ops, concurrency, 6151, func(bc *browsingContext) error {
		_, err := bc.ctrl.ToggleSidebar(ctx)
		return err
	})

	fmt.Println("---- results ----")
	printStats("enter", enterStats)
	printStats("toggle", toggleStats)

	snap := telemetry.MetricsSnapshot()
	fmt.Printf("guard renders=%d toggles=%d\n",
		snap.Counters[goPortal.MetricGuardRender],
		snap.Counters[goPortal.MetricSidebarToggle],
	)
}

func newContext(ctx context.Context, cfg goPortal.Config, telemetry *goPortal.Telemetry, client redis.UniversalClient, prefix string) (*browsingContext, error) {
	l := loop.New(time.Now())
	ctrl, err := goPortal.New().
		WithConfig(cfg).
		WithDurableStore(kv.NewRedis(client, prefix)).
		WithNavigator(goPortal.NavigatorFunc(func(context.Context, string) {})).
		WithScheduler(l).
		WithTelemetry(telemetry).
		Build()
	if err != nil {
		return nil, err
	}
	if _, err := ctrl.Login(ctx, "admin@ulilamwal.sch.id", "admin123", "admin"); err != nil {
		return nil, err
	}
	return &browsingContext{ctrl: ctrl, loop: l}, nil
}

func runPhase(states []*browsingContext, ops, concurrency int, seed int64, op func(bc *browsingContext) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				bc := states[r.Intn(len(states))]

				bc.mu.Lock()
				t0 := time.Now()
				err := op(bc)
				d := time.Since(t0)
				// Let notification timers fire as a page would between actions.
				bc.loop.Advance(time.Second)
				bc.mu.Unlock()

				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
