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

// Package index keeps an index of NIST transactions on disk. Transactions are looked up by
// their transaction control number (field 1.009).
package index

import (
	"encoding/json"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a transaction is not in the index.
var ErrNotFound = errors.New("gonist: index: transaction not found")

// Entry is the summary of an indexed NIST file.
type Entry struct {
	TCN     string      `json:"tcn"`
	TOT     string      `json:"tot"`
	Path    string      `json:"path"`
	Records map[int]int `json:"records"` // Number of records per record type
	Length  int         `json:"length"`
	Digest  string      `json:"digest,omitempty"` // Digest of the uncompressed file content
	Indexed time.Time   `json:"indexed"`
}

type Db struct {
	dbDir       string
	tcnIndex    *badger.DB
	fileIndex   *badger.DB
	tcnIndexGc  *time.Ticker
	fileIndexGc *time.Ticker
	gcDone      chan struct{}
	gcRunning   sync.WaitGroup
}

// NewIndexDb opens or creates an index in dbDir.
func NewIndexDb(dbDir string) (*Db, error) {
	dbDir = path.Join(dbDir, "nistdb")
	tcnIndexDir := path.Join(dbDir, "tcn-index")
	fileIndexDir := path.Join(dbDir, "file-index")

	d := &Db{
		dbDir:       dbDir,
		tcnIndexGc:  time.NewTicker(5 * time.Minute),
		fileIndexGc: time.NewTicker(5 * time.Minute),
		gcDone:      make(chan struct{}),
	}

	var err error
	d.tcnIndex, err = openIndex(tcnIndexDir, d.tcnIndexGc, d.gcDone, &d.gcRunning)
	if err != nil {
		return nil, err
	}

	d.fileIndex, err = openIndex(fileIndexDir, d.fileIndexGc, d.gcDone, &d.gcRunning)
	if err != nil {
		close(d.gcDone)
		d.gcRunning.Wait()
		_ = d.tcnIndex.Close()
		return nil, err
	}

	return d, nil
}

func openIndex(indexDir string, gcTrigger *time.Ticker, done <-chan struct{}, running *sync.WaitGroup) (*badger.DB, error) {
	if err := os.MkdirAll(indexDir, 0777); err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(indexDir)
	opts.Logger = log.StandardLogger()
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	running.Add(1)
	go func() {
		defer running.Done()
		for {
			select {
			case <-gcTrigger.C:
				for db.RunValueLogGC(0.7) == nil {
				}
			case <-done:
				return
			}
		}
	}()
	return db, nil
}

// Delete removes the index from disk. The index must be closed.
func (d *Db) Delete() error {
	return os.RemoveAll(d.dbDir)
}

func (d *Db) Close() {
	d.tcnIndexGc.Stop()
	d.fileIndexGc.Stop()
	close(d.gcDone)
	d.gcRunning.Wait()
	for {
		err := d.tcnIndex.RunValueLogGC(0.7)
		if err != nil {
			break
		}
	}
	_ = d.tcnIndex.Close()
	for {
		err := d.fileIndex.RunValueLogGC(0.7)
		if err != nil {
			break
		}
	}
	_ = d.fileIndex.Close()
}

// Add stores an entry. An entry previously indexed for the same file is replaced.
func (d *Db) Add(entry Entry) error {
	var err error
	entry.Path, err = filepath.Abs(entry.Path)
	if err != nil {
		return err
	}
	if entry.Indexed.IsZero() {
		entry.Indexed = time.Now().UTC()
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	var previousTcn string
	err = d.fileIndex.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(entry.Path))
		switch err {
		case nil:
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			previousTcn = string(v)
		case badger.ErrKeyNotFound:
		default:
			return err
		}
		return txn.Set([]byte(entry.Path), []byte(entry.TCN))
	})
	if err != nil {
		return err
	}

	return d.tcnIndex.Update(func(txn *badger.Txn) error {
		if previousTcn != "" && previousTcn != entry.TCN {
			log.Debugf("file %s changed transaction from %s to %s", entry.Path, previousTcn, entry.TCN)
			if err := txn.Delete([]byte(previousTcn)); err != nil {
				return err
			}
		}
		return txn.Set([]byte(entry.TCN), value)
	})
}

// Lookup returns the entry of the transaction with the given control number.
func (d *Db) Lookup(tcn string) (Entry, error) {
	var entry Entry
	err := d.tcnIndex.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tcn))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return json.Unmarshal(val, &entry)
	})
	if err == badger.ErrKeyNotFound {
		return Entry{}, ErrNotFound
	}
	return entry, err
}

// LookupFile returns the entry of the transaction stored in the given file.
func (d *Db) LookupFile(filePath string) (Entry, error) {
	filePath, err := filepath.Abs(filePath)
	if err != nil {
		return Entry{}, err
	}
	var tcn []byte
	err = d.fileIndex.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(filePath))
		if err != nil {
			return err
		}
		tcn, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return d.Lookup(string(tcn))
}

// List returns every entry ordered by transaction control number.
func (d *Db) List() ([]Entry, error) {
	var result []Entry
	opt := badger.DefaultIteratorOptions
	opt.PrefetchSize = 10
	err := d.tcnIndex.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(opt)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var entry Entry
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			result = append(result, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("Counted %d entries", len(result))
	return result, nil
}

// ListFilePaths returns the paths of every indexed file in lexical order.
func (d *Db) ListFilePaths() ([]string, error) {
	var result []string
	opt := badger.DefaultIteratorOptions
	opt.PrefetchValues = false
	err := d.fileIndex.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(opt)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			result = append(result, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	sort.Strings(result)
	return result, err
}
