// Command bench runs synthetic workloads against the sharded cache and the
// loading dictionary, and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/latchcache/latchcache/cache"
	pmet "github.com/latchcache/latchcache/metrics/prom"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/latchcache/latchcache/loadingdict"
)

func main() {
	// ---- Flags ----
	var (
		capacity       = flag.Int("cap", 100_000, "cache capacity (entries)")
		shards         = flag.Int("shards", 0, "number of shards (0=auto)")
		updateExisting = flag.Bool("update_existing", false, "replace in place on put collision")
		itemLifetime   = flag.Duration("item_lifetime", 0, "TLRU item lifetime (0=disabled)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = cap/2)")

		runLoadingDict = flag.Bool("loadingdict", true, "also exercise the loading dictionary")
		loaderLatency  = flag.Duration("loader_latency", time.Millisecond, "simulated loader latency")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "latchcache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	c := cache.New[string, string](cache.Options[string, string]{
		Capacity:       *capacity,
		Shards:         *shards,
		UpdateExisting: *updateExisting,
		ItemLifetime:   *itemLifetime,
		Metrics:        metrics,
	})
	defer func() { _ = c.Close() }()

	// ---- Preload half capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *capacity / 2
	}
	for i := 0; i < pl; i++ {
		k := "k:" + strconv.Itoa(i)
		c.Put(k, "v"+strconv.Itoa(i))
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation against the LRU cache ----
	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if _, ok := c.Get(keyByZipf()); ok {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					k := keyByZipf()
					c.Put(k, "v"+strconv.Itoa(localR.Int()))
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report (LRU cache) ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("[cache] cap=%d shards=%d update_existing=%v item_lifetime=%v workers=%d keys=%d dur=%v seed=%d\n",
		*capacity, *shards, *updateExisting, *itemLifetime, workersN, *keys, elapsed, seedBase)
	fmt.Printf("[cache] ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("[cache] hits=%d  misses=%d  hit-rate=%.2f%%  miss_ratio=%.4f\n",
		hitsN, missesN, hitRate, c.MissRatio())
	fmt.Printf("[cache] Len()=%d\n", c.Len())

	if !*runLoadingDict {
		return
	}

	// ---- Loading dictionary: single-flight workload ----
	var loaderCalls int64
	d := loadingdict.New[string, string](loadingdict.Options[string, string]{
		Loader: func(ctx context.Context, k string) (string, error) {
			atomic.AddInt64(&loaderCalls, 1)
			select {
			case <-time.After(*loaderLatency):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			return "v:" + k, nil
		},
	})

	const dictKeys = 1000
	dictWorkers := workersN
	var dictOps int64
	dStart := time.Now()
	var dwg sync.WaitGroup
	dwg.Add(dictWorkers)
	dctx, dcancel := context.WithTimeout(context.Background(), (*duration)/4)
	defer dcancel()
	for w := 0; w < dictWorkers; w++ {
		go func(id int) {
			defer dwg.Done()
			r := rand.New(rand.NewSource(seedBase + int64(id)*7919))
			for {
				select {
				case <-dctx.Done():
					return
				default:
				}
				k := "d:" + strconv.Itoa(r.Intn(dictKeys))
				if _, err := d.Get(dctx, k); err == nil {
					atomic.AddInt64(&dictOps, 1)
				}
			}
		}(w)
	}
	dwg.Wait()

	fmt.Printf("[loadingdict] ops=%d loader_invocations=%d keys=%d dur=%v\n",
		atomic.LoadInt64(&dictOps), atomic.LoadInt64(&loaderCalls), dictKeys, time.Since(dStart))
}
