/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package index

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// indexWorker indexes queued files with a pool of goroutines. A file queued again before its
// delay has passed is indexed only once.
type indexWorker struct {
	db      *Db
	opts    *options
	jobs    chan string
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

func newIndexWorker(db *Db, opts *options) *indexWorker {
	w := &indexWorker{
		db:      db,
		opts:    opts,
		jobs:    make(chan string, opts.workers),
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}
	for i := 0; i < opts.workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	return w
}

func (w *indexWorker) run() {
	defer w.wg.Done()
	for {
		var filePath string
		select {
		case filePath = <-w.jobs:
		case <-w.done:
			return
		}
		entry, err := IndexFile(w.db, filePath, w.opts.decodeOptions...)
		if err != nil {
			log.Warnf("Failed to index %s: %v", filePath, err)
		} else {
			log.Infof("Indexed %s: transaction %s (%s)", filePath, entry.TCN, entry.TOT)
		}
		if w.opts.onIndexed != nil {
			w.opts.onIndexed(entry, err)
		}
	}
}

// Queue schedules filePath for indexing after delay.
func (w *indexWorker) Queue(filePath string, delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.pending[filePath]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		w.mu.Lock()
		if w.closed || w.pending[filePath] != timer {
			w.mu.Unlock()
			return
		}
		delete(w.pending, filePath)
		w.mu.Unlock()

		select {
		case w.jobs <- filePath:
		case <-w.done:
		}
	})
	w.pending[filePath] = timer
}

// Shutdown drops pending files and waits for files being indexed.
func (w *indexWorker) Shutdown() {
	w.mu.Lock()
	w.closed = true
	for filePath, t := range w.pending {
		t.Stop()
		delete(w.pending, filePath)
	}
	w.mu.Unlock()
	close(w.done)
	w.wg.Wait()
}
