// Command uvcore-demo exercises the AIO bridge and timer wheel together:
// a repeating timer drives a write-then-read-back cycle against a
// scratch file, all dispatched through one epoll-backed Loop.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loopforge/uvcore"
	"github.com/loopforge/uvcore/aio"
	"github.com/loopforge/uvcore/internal/epoll"
	"github.com/loopforge/uvcore/internal/logging"
	"github.com/loopforge/uvcore/timer"
)

// systemClock reports milliseconds elapsed since it was created, the
// basis the timer wheel measures all deadlines against.
type systemClock struct {
	start time.Time
}

func newSystemClock() *systemClock { return &systemClock{start: time.Now()} }

func (c *systemClock) NowMillis() int64 { return time.Since(c.start).Milliseconds() }

func main() {
	var (
		path     = flag.String("file", os.TempDir()+"/uvcore-demo.dat", "scratch file for the read/write cycle")
		interval = flag.Int64("interval", 500, "timer repeat interval in milliseconds")
		size     = flag.Int("size", 64, "bytes written and read back per cycle")
		verbose  = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	f, err := os.OpenFile(*path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		log.Fatalf("open scratch file: %v", err)
	}
	defer f.Close()
	defer os.Remove(*path)
	if err := f.Truncate(int64(*size)); err != nil {
		log.Fatalf("truncate scratch file: %v", err)
	}

	poller, err := epoll.New()
	if err != nil {
		log.Fatalf("create poller: %v", err)
	}
	defer poller.Close()

	clock := newSystemClock()
	metrics := uvcore.NewMetrics()
	obs := uvcore.NewMetricsObserver(metrics)

	loop, err := uvcore.NewLoop(uvcore.LoopConfig{
		Poller:  poller,
		Clock:   clock,
		Watcher: aio.WatcherConfig{Observer: obs},
		Wheel:   timer.WheelConfig{Observer: obs},
	})
	if err != nil {
		log.Fatalf("create loop: %v", err)
	}
	defer loop.Close()

	readHandle, err := loop.NewAIOHandle(func(_ *aio.Handle, r *aio.Request) {
		logger.Info("read completed", "result", r.Result())
	})
	if err != nil {
		log.Fatalf("create read handle: %v", err)
	}

	writeHandle, err := loop.NewAIOHandle(func(_ *aio.Handle, r *aio.Request) {
		logger.Info("write completed", "result", r.Result())
		if r.Result() < 0 {
			return
		}
		readReq := &aio.Request{
			File:    f,
			Buffers: []aio.Buffer{{Base: make([]byte, *size)}},
			Op:      aio.OpRead,
		}
		if err := readHandle.Submit(readReq); err != nil {
			logger.Error("read submit failed", "error", err)
		}
	})
	if err != nil {
		log.Fatalf("create write handle: %v", err)
	}

	payload := make([]byte, *size)
	cycle := 0
	tick := loop.NewTimer()
	if err := tick.Start(func(*timer.Handle) {
		cycle++
		for i := range payload {
			payload[i] = byte(cycle)
		}
		req := &aio.Request{
			File:    f,
			Buffers: []aio.Buffer{{Base: payload}},
			Op:      aio.OpWrite,
		}
		if err := writeHandle.Submit(req); err != nil {
			logger.Error("write submit failed", "error", err)
		}
	}, *interval, *interval); err != nil {
		log.Fatalf("start timer: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("uvcore-demo running against %s, interval=%dms, size=%dB\n", *path, *interval, *size)
	fmt.Println("Press Ctrl+C to stop...")

	for {
		select {
		case <-sigCh:
			logger.Info("shutdown signal received")
			snap := metrics.Snapshot()
			fmt.Printf("final metrics: submits=%d completions=%d timer_fires=%d\n",
				snap.AIOSubmits, snap.AIOCompletions, snap.TimerFires)
			return
		default:
		}

		waitMs := 100
		if next := loop.NextTimeout(); next >= 0 && next < int64(waitMs) {
			waitMs = int(next)
		}
		if _, err := poller.Wait(waitMs); err != nil {
			logger.Error("poller wait failed", "error", err)
		}
		loop.Tick()
	}
}
