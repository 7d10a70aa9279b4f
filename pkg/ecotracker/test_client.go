package ecotracker

import (
	"context"
	"sync"
	"time"
)

type fetchResult struct {
	snapshot *Snapshot
	err      error
}

// TestDeviceReader replays a scripted sequence of fetch results. Once the
// script is exhausted the last entry repeats.
type TestDeviceReader struct {
	mu     sync.Mutex
	script []fetchResult
	calls  int
}

func CreateTestDeviceReader() *TestDeviceReader {
	return &TestDeviceReader{}
}

func (r *TestDeviceReader) ThenSnapshot(s *Snapshot) *TestDeviceReader {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.script = append(r.script, fetchResult{snapshot: s})
	return r
}

func (r *TestDeviceReader) ThenError(err error) *TestDeviceReader {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.script = append(r.script, fetchResult{err: err})
	return r
}

func (r *TestDeviceReader) Fetch(_ context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	r.calls++
	if len(r.script) == 0 {
		return nil, ErrCannotConnect
	}
	if i >= len(r.script) {
		i = len(r.script) - 1
	}
	return r.script[i].snapshot, r.script[i].err
}

func (r *TestDeviceReader) Probe(ctx context.Context) error {
	_, err := r.Fetch(ctx)
	return err
}

func (r *TestDeviceReader) URL() string {
	return "http://test-device/v1/json"
}

func (r *TestDeviceReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// TestSnapshot builds a snapshot directly from values, for tests.
func TestSnapshot(values map[string]float64) *Snapshot {
	copied := make(map[string]float64, len(values))
	for field, value := range values {
		copied[field] = value
	}
	return &Snapshot{
		values:    copied,
		fetchedAt: time.Now(),
	}
}
