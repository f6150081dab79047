// Command userbot-login exercises the full engine surface against a
// simulated transport: it logs a set of accounts in, joins channels for
// each, and pages the channel listing, printing throughput and the engine's
// own counters at the end. With -redis-addr (or REDIS_ADDR) the flood-wait
// state and sessions are shared through a real Redis; otherwise an embedded
// miniredis is used.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goUserbot"
)

func main() {
	var (
		accounts    = flag.Int("accounts", 50, "number of accounts to log in")
		joins       = flag.Int("joins", 200, "channel joins to issue across accounts")
		channels    = flag.Int("channels", 500, "channels the simulated service knows")
		concurrency = flag.Int("concurrency", 16, "concurrent workers")
		floodEvery  = flag.Int("flood-every", 0, "inject a FLOOD_WAIT on every nth join call (0 disables)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *joins <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, joins, and concurrency must be > 0")
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
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg, err := goUserbot.ConfigFromEnv()
	if err != nil {
		cfg = simulationConfig()
	}
	// The simulation hammers the engine; pacing off, fail fast on waits.
	cfg.Rate.JoinsPerMinute = 0
	cfg.Rate.DialogPagesPerSecond = 0
	cfg.Rate.NonBlocking = true

	sim := newSimTransport(*channels, *floodEvery)

	engine, err := goUserbot.New().
		WithConfig(cfg).
		WithTransport(sim).
		WithRedis(client).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "building engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	identities := make([]string, *accounts)
	for i := range identities {
		identities[i] = fmt.Sprintf("1555%07d", i)
	}

	fmt.Printf("logging in %d accounts...\n", *accounts)
	startLogin := time.Now()
	for _, identity := range identities {
		if _, err := engine.RequestCode(ctx, identity); err != nil {
			fmt.Fprintf(os.Stderr, "request code for %s: %v\n", identity, err)
			os.Exit(1)
		}
		if _, err := engine.SubmitCode(ctx, identity, "12345"); err != nil {
			fmt.Fprintf(os.Stderr, "submit code for %s: %v\n", identity, err)
			os.Exit(1)
		}
	}
	fmt.Printf("logged in, %s\n", time.Since(startLogin).Round(time.Millisecond))

	fmt.Printf("joining %d channels across accounts...\n", *joins)
	var (
		wg          sync.WaitGroup
		cursor      int64
		joined      int64
		throttled   int64
		failures    int64
		startJoins  = time.Now()
		channelRefs = sim.references()
	)
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= *joins {
					return
				}
				identity := identities[r.Intn(len(identities))]
				ref := channelRefs[r.Intn(len(channelRefs))]
				_, err := engine.Join(ctx, identity, ref)
				switch {
				case err == nil:
					atomic.AddInt64(&joined, 1)
				case errors.Is(err, goUserbot.ErrRateLimited):
					atomic.AddInt64(&throttled, 1)
				default:
					atomic.AddInt64(&failures, 1)
				}
			}
		}(w)
	}
	wg.Wait()
	joinTotal := time.Since(startJoins)

	fmt.Println("listing channels per account...")
	startList := time.Now()
	var listed int64
	for _, identity := range identities {
		records, err := engine.ListChannels(ctx, identity)
		if err != nil {
			if errors.Is(err, goUserbot.ErrRateLimited) {
				continue
			}
			fmt.Fprintf(os.Stderr, "listing for %s: %v\n", identity, err)
			os.Exit(1)
		}
		listed += int64(len(records))
	}
	listTotal := time.Since(startList)

	fmt.Println("---- results ----")
	fmt.Printf("joins:    %d ok, %d throttled, %d failed in %s (%.0f ops/s)\n",
		joined, throttled, failures, joinTotal.Round(time.Millisecond),
		float64(*joins)/joinTotal.Seconds())
	fmt.Printf("listings: %d records in %s\n", listed, listTotal.Round(time.Millisecond))

	snapshot := engine.MetricsSnapshot()
	fmt.Printf("engine:   auth=%d joins=%d already=%d pending=%d floodwaits=%d throttled=%d pages=%d\n",
		snapshot.Counters[goUserbot.MetricAuthSuccess],
		snapshot.Counters[goUserbot.MetricJoinSuccess],
		snapshot.Counters[goUserbot.MetricJoinAlreadyMember],
		snapshot.Counters[goUserbot.MetricJoinPending],
		snapshot.Counters[goUserbot.MetricFloodWait],
		snapshot.Counters[goUserbot.MetricThrottled],
		snapshot.Counters[goUserbot.MetricDialogPages])
}

func simulationConfig() goUserbot.Config {
	cfg := goUserbot.Config{}
	cfg.API.ID = 1
	cfg.API.Hash = "simulated"
	cfg.Auth.TwoFactorMaxAttempts = 3
	cfg.Registry.PageSize = 100
	cfg.Metrics.Enabled = true
	return cfg
}
