package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 10

// Options configures a Pool.
type Options struct {
	// Workers bounds the number of downloads in flight.
	Workers int

	// Client configures the per-worker HTTP clients.
	Client ClientOptions

	// Logger receives one record per failed task plus debug noise.
	Logger zerolog.Logger

	// Tracker, if set, is updated with live progress counters.
	Tracker *Tracker

	// History, if set, receives every finished outcome.
	History HistoryRecorder
}

// Pool coordinates concurrent downloads over a bounded set of workers.
// Individual task failures are absorbed into the returned Stats; they never
// stop sibling tasks.
type Pool struct {
	workers int
	factory ClientFactory
	log     zerolog.Logger
	tracker *Tracker
	history HistoryRecorder
}

func NewPool(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Tracker == nil {
		opts.Tracker = NewTracker()
	}
	return &Pool{
		workers: opts.Workers,
		factory: NewClientFactory(opts.Client),
		log:     opts.Logger,
		tracker: opts.Tracker,
		history: opts.History,
	}
}

// Run schedules one download per non-empty trimmed line of urls and blocks
// until every task has finished. outDir must already exist; that is the
// only condition Run fails on. Outcome order is not input order.
func (p *Pool) Run(ctx context.Context, urls io.Reader, outDir string) (Stats, error) {
	info, err := os.Stat(outDir)
	if err != nil || !info.IsDir() {
		return Stats{}, fmt.Errorf("%w: %s", ErrInvalidOutDir, outDir)
	}

	jobs := make(chan Task, p.workers)
	results := make(chan Outcome, p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// One client per worker, reused across its tasks for keep-alive.
			fetcher := NewFetcher(p.factory(), p.log)
			for task := range jobs {
				p.tracker.TaskStarted()
				name, err := fetcher.FetchOne(ctx, task.URL, task.OutDir)
				results <- Outcome{Task: task, Filename: name, Err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		scanner := bufio.NewScanner(urls)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			p.tracker.TaskScheduled()
			jobs <- Task{ID: ksuid.New().String(), URL: line, OutDir: outDir}
		}
		if err := scanner.Err(); err != nil {
			p.log.Error().Err(err).Msg("reading url list failed")
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var stats Stats
	for out := range results {
		stats.Total++
		if out.Err != nil {
			stats.Failed++
			p.log.Error().Str("url", out.Task.URL).Err(out.Err).Msg("download failed")
		} else {
			stats.Success++
		}
		p.tracker.TaskDone(out.Err)

		if p.history != nil {
			if err := p.history.Record(out); err != nil {
				p.log.Warn().Str("url", out.Task.URL).Err(err).Msg("recording outcome failed")
			}
		}
	}

	return stats, nil
}
