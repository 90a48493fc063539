// Command gochan-bench drives a Pool and a Channel against each other to
// exercise the runtime end to end: it submits a configurable number of
// squaring tasks, feeds their results through a channel, and reports
// throughput. It has no business logic of its own; it exists to give the
// core something to run under `go run`.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/EklabDev/gochan"
	"github.com/EklabDev/gochan/internal/logging"
)

func main() {
	var (
		workers = flag.Int("workers", runtime.NumCPU(), "number of pool workers")
		tasks   = flag.Int("tasks", 1000, "number of tasks to submit")
		verbose = flag.Bool("v", false, "log each result")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	pool := gochan.NewPool(gochan.PoolConfig{Size: *workers, Logger: logger})
	defer pool.Terminate()

	logger.Info("starting run", "workers", *workers, "tasks", *tasks)

	results, err := gochan.NewChannel(gochan.ChannelConfig{
		Capacity: uint32(*workers) * 2,
		SlotSize: 64,
	})
	if err != nil {
		log.Fatalf("creating results channel: %v", err)
	}

	pool.RegisterSharedTask("square-and-publish", func(lookup gochan.ChannelLookup, args ...any) (any, error) {
		ch, ok := lookup("results")
		if !ok {
			return nil, fmt.Errorf("results channel not registered")
		}
		n := args[0].(float64)
		if err := ch.Send(n * n); err != nil {
			return nil, err
		}
		return n * n, nil
	})
	pool.RegisterChannel("results", results)

	start := time.Now()

	go func() {
		for i := 0; i < *tasks; i++ {
			if _, err := pool.SubmitShared("square-and-publish", i); err != nil {
				log.Printf("submit %d: %v", i, err)
			}
		}
	}()

	for i := 0; i < *tasks; i++ {
		select {
		case <-ctx.Done():
			fmt.Println("interrupted")
			return
		default:
		}
		v, err := results.Receive()
		if err != nil {
			log.Fatalf("receive: %v", err)
		}
		if *verbose {
			fmt.Printf("result %d: %v\n", i, v)
		}
	}

	elapsed := time.Since(start)
	fmt.Printf("%d tasks across %d workers in %s (%.0f tasks/sec)\n",
		*tasks, *workers, elapsed, float64(*tasks)/elapsed.Seconds())
}
