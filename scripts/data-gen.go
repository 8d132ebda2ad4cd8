/*
	Basic Script that writes sharded data logs with hint streams to help test recovery and index rebuilds.
*/

package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/0xRadioAc7iv/bitcask-format/core"
)

const (
	concurrency = 6

	// Fixed universe
	totalKeys   = 100
	totalValues = 100

	// Per-cycle behavior
	keysPerCycleWrite  = 20
	keysPerCycleDelete = 10
	cyclesPerWorker    = 500

	progressEvery = 100
)

func main() {
	dir := flag.String("dir", "./fixtures", "Directory to write shards into")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0755); err != nil {
		log.Fatal(err)
	}

	start := time.Now()
	fmt.Println("Starting shard generator")

	keys := makeKeys(totalKeys)
	values := makeValues(totalValues)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// Each worker owns one shard, so no two goroutines share a file.
	var g errgroup.Group
	for i := 0; i < concurrency; i++ {
		i := i
		g.Go(func() error {
			return runWorker(i, *dir, keys, values, logger)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Generation finished in %v\n", time.Since(start))
}

func runWorker(id int, dir string, keys []string, values []string, logger *slog.Logger) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	lp, err := core.OpenLogPair(core.Options{
		DataPath: filepath.Join(dir, fmt.Sprintf("%s%d%s", core.DataFileSuffix, id, core.DataFileExt)),
		HintPath: filepath.Join(dir, fmt.Sprintf("%s%d%s", core.DataFileSuffix, id, core.HintFileExt)),
		Logger:   logger.With("worker", id),
	})
	if err != nil {
		return fmt.Errorf("worker %d: %w", id, err)
	}
	defer lp.Close()

	for cycle := 1; cycle <= cyclesPerWorker; cycle++ {
		level := int64(cycle)

		// ---- WRITE / OVERWRITE PHASE ----
		for i := 0; i < keysPerCycleWrite; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]

			if _, err := lp.Put(level, []byte(key), []byte(val)); err != nil {
				return fmt.Errorf("worker %d PUT: %w", id, err)
			}
		}

		// ---- DELETE PHASE ----
		for i := 0; i < keysPerCycleDelete; i++ {
			key := keys[rng.Intn(len(keys))]

			if err := lp.Delete([]byte(key)); err != nil {
				return fmt.Errorf("worker %d DEL: %w", id, err)
			}
		}

		if cycle%progressEvery == 0 {
			fmt.Printf("[worker %d] completed %d cycles, %d live keys\n", id, cycle, lp.Len())
		}
	}

	return lp.Sync()
}

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("key-%03d", i)
	}
	return keys
}

func makeValues(n int) []string {
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = fmt.Sprintf("value-%03d-xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", i)
	}
	return values
}
