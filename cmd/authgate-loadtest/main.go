// Command authgate-loadtest drives an in-process gate through the
// authenticate and login paths and reports throughput and latency
// percentiles. Against miniredis the numbers measure the gate itself;
// point it at a real Redis with -redis-addr to include network cost.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	authgate "github.com/hqstack/authgate"
	"github.com/hqstack/authgate/token"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type loadAccounts struct {
	hash string
}

func (a loadAccounts) GetAccount(_ context.Context, id string) (*authgate.Account, error) {
	return &authgate.Account{ID: id, PasswordHash: a.hash}, nil
}

type identityHasher struct{}

func (identityHasher) Hash(password string) (string, error) { return password, nil }

func (identityHasher) Verify(password, encodedHash string) (bool, error) {
	return password == encodedHash, nil
}

func main() {
	var (
		accounts    = flag.Int("accounts", 10000, "number of accounts to issue tokens for")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (authenticate + login)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
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
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", mr.Addr())
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := authgate.DefaultConfig()
	cfg.Token.Secret = "authgate-loadtest-secret-key-0"
	cfg.Retry.Enabled = false // lockout would skew the login phase

	gate, err := authgate.New().
		WithConfig(cfg).
		WithRedis(client).
		WithLogger(zerolog.Nop()).
		WithAccountProvider(loadAccounts{hash: "load-password"}).
		WithPasswordHasher(identityHasher{}).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gate build failed: %v\n", err)
		os.Exit(1)
	}
	defer gate.Close()

	fmt.Printf("issuing %d tokens...\n", *accounts)
	startSeed := time.Now()
	tokens := make([]string, *accounts)
	for i := range tokens {
		tok, err := gate.Codec().Issue(fmt.Sprintf("acct-%d", i), token.TerminalPC, -1)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		tokens[i] = tok
	}
	fmt.Printf("issued in %s\n", time.Since(startSeed).Round(time.Millisecond))

	authStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		_, err := gate.Authenticate(ctx, tokens[r.Intn(len(tokens))])
		return err
	})
	loginStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		account := fmt.Sprintf("acct-%d", r.Intn(*accounts))
		_, err := gate.Login(ctx, account, "load-password", token.TerminalPC)
		return err
	})

	fmt.Println("---- results ----")
	printStats("authenticate", authStats)
	printStats("login", loginStats)

	snap := gate.MetricsSnapshot()
	fmt.Printf("allowed=%d login_success=%d store_fallback=%d\n",
		snap.Counters[authgate.MetricAllow],
		snap.Counters[authgate.MetricLoginSuccess],
		snap.Counters[authgate.MetricStoreFallback],
	)
}

func runPhase(ops, concurrency int, op func(r *rand.Rand) error) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r)
				d := time.Since(t0)
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
	return computeStats(time.Since(start), latencies, failures)
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
	idx := (len(samples)*p + 99) / 100
	if idx >= len(samples) {
		idx = len(samples) - 1
	}
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%-12s ops=%d failures=%d total=%s rate=%.0f/s p50=%s p95=%s p99=%s\n",
		name, s.ops, s.failures, s.total.Round(time.Millisecond), s.opsPerS,
		s.p50.Round(time.Microsecond), s.p95.Round(time.Microsecond), s.p99.Round(time.Microsecond))
}
