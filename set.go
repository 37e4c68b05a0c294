package queueindex

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// SetOptions configures a Set.
type SetOptions struct {
	Logger *slog.Logger
	// FlushInterval is how often StartBackground drives FlushJournal
	// across every member State. Defaults to 1 second.
	FlushInterval time.Duration
}

// Set is a convenience multi-queue driver for the opportunistic,
// caller-paced flush contract: each queue owns its own State, but a
// broker process typically wants one loop that walks every open queue
// and calls FlushJournal when it has no higher-priority work. Segments in
// this format never rotate by size or time, only by filling their fixed
// rel-seq range, so a Set only ever has flushing to drive.
type Set struct {
	logger *slog.Logger

	lock    sync.Mutex
	_states []*State

	flushInterval time.Duration
}

// SetRunner is a background loop started by Set.StartBackground.
type SetRunner struct {
	shutdown context.CancelFunc
	wg       sync.WaitGroup
}

// NewSet creates an empty Set.
func NewSet(opt SetOptions) *Set {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.FlushInterval == 0 {
		opt.FlushInterval = time.Second
	}
	return &Set{
		logger:        opt.Logger,
		flushInterval: opt.FlushInterval,
	}
}

// Add registers s with the Set.
func (set *Set) Add(s *State) {
	set.lock.Lock()
	defer set.lock.Unlock()
	set._states = append(set._states, s)
}

// Remove unregisters s from the Set. It does not close s.
func (set *Set) Remove(s *State) {
	set.lock.Lock()
	defer set.lock.Unlock()
	if i := slices.Index(set._states, s); i != -1 {
		set._states = slices.Delete(set._states, i, i+1)
	}
}

// States returns a snapshot of the currently registered states.
func (set *Set) States() []*State {
	set.lock.Lock()
	defer set.lock.Unlock()
	return slices.Clone(set._states)
}

// FlushAll calls FlushJournal once on every registered State, stopping
// early if ctx is cancelled. It returns the number of states whose
// FlushJournal call succeeded, whether or not it had any acks to flush.
func (set *Set) FlushAll(ctx context.Context) int {
	states := set.States()
	var actions int
	for _, s := range states {
		if ctx.Err() != nil {
			return actions
		}
		_, err := s.FlushJournal()
		if err != nil {
			set.logger.Error("queueindex: flush error", "queue", s.label, "err", err)
			continue
		}
		actions++
	}
	return actions
}

// StartBackground runs FlushAll every FlushInterval until the returned
// SetRunner is closed or ctx is cancelled.
func (set *Set) StartBackground(ctx context.Context) *SetRunner {
	ctx, cancel := context.WithCancel(ctx)
	runner := &SetRunner{shutdown: cancel}
	runner.wg.Add(1)
	go runPeriodical(ctx, &runner.wg, set.FlushAll, set.flushInterval)
	return runner
}

// Close stops the background loop and waits for it to exit.
func (runner *SetRunner) Close() {
	runner.shutdown()
	runner.wg.Wait()
}

func runPeriodical(ctx context.Context, wg *sync.WaitGroup, f func(ctx context.Context) int, interval time.Duration) {
	defer wg.Done()
	for {
		timer := time.NewTimer(interval)
		select {
		case <-timer.C:
			// nop -- run again
		case <-ctx.Done():
			timer.Stop()
			return
		}
		f(ctx)
	}
}
