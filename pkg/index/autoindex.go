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
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// AutoIndexer indexes the NIST files in a set of directories and keeps watching them for
// new and modified files.
type AutoIndexer struct {
	watcher     *fsnotify.Watcher
	indexWorker *indexWorker
	opts        *options
	done        chan struct{}
}

// NewAutoIndexer indexes the files in dirs and starts watching them.
func NewAutoIndexer(db *Db, dirs []string, opts ...Option) (*AutoIndexer, error) {
	o := newOptions(opts...)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	a := &AutoIndexer{
		watcher:     watcher,
		indexWorker: newIndexWorker(db, o),
		opts:        o,
		done:        make(chan struct{}),
	}
	go a.fileWatcher()
	for _, dir := range dirs {
		if err := a.addAndIndexDir(dir, 0); err != nil {
			a.Shutdown()
			return nil, err
		}
	}
	return a, nil
}

// Shutdown stops watching and waits for files being indexed.
func (a *AutoIndexer) Shutdown() {
	_ = a.watcher.Close()
	<-a.done
	a.indexWorker.Shutdown()
}

func (a *AutoIndexer) skip(name string) bool {
	for _, suffix := range a.opts.skipSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func (a *AutoIndexer) fileWatcher() {
	defer close(a.done)
	for {
		select {
		case event, ok := <-a.watcher.Events:
			if !ok {
				return
			}

			if a.skip(event.Name) {
				continue
			}

			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) == 0:
				continue
			case event.Op&fsnotify.Create == fsnotify.Create:
				fStat, err := os.Stat(event.Name)
				if err != nil {
					// the file may already be gone again
					log.Debug(err)
					continue
				}
				if fStat.IsDir() {
					if err := a.watcher.Add(event.Name); err != nil {
						log.Errorf("Error occurred when trying to listen to new directory '%v', err: %v", event.Name, err)
					}
					continue
				}
			}
			log.Debugf("modified file: %v", event.Name)
			a.indexWorker.Queue(event.Name, a.opts.debounce)

		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("watcher error: %v", err)
		}
	}
}

// addAndIndexDir adds a directory and its subdirectories down to the watch depth to the
// watcher and queues the files in them.
func (a *AutoIndexer) addAndIndexDir(path string, currentDepth int) error {
	if err := a.watcher.Add(path); err != nil {
		return err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if a.skip(e.Name()) {
			continue
		}

		if !e.IsDir() {
			a.indexWorker.Queue(filepath.Join(path, e.Name()), 0)
		} else if currentDepth < a.opts.watchDepth {
			if err := a.addAndIndexDir(filepath.Join(path, e.Name()), currentDepth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
