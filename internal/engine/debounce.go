// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package engine

import (
	"sync"
	"time"
)

// debouncer coalesces rapid re-schedules per key into one trailing-edge
// run. Scheduling a key with a run still pending drops the pending run.
type debouncer struct {
	interval time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval, timers: map[string]*time.Timer{}}
}

func (d *debouncer) schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
}

func (d *debouncer) stopAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
