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
	"time"

	"github.com/ivosh/gonist"
)

type options struct {
	watchDepth    int
	debounce      time.Duration
	workers       int
	decodeOptions []gonist.Option
	skipSuffixes  []string
	onIndexed     func(Entry, error)
}

// Option configures an AutoIndexer.
type Option interface {
	apply(*options)
}

type funcOption struct {
	f func(*options)
}

func (fo *funcOption) apply(o *options) {
	fo.f(o)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{f: f}
}

func newOptions(opts ...Option) *options {
	o := &options{
		watchDepth:   4,
		debounce:     10 * time.Second,
		workers:      8,
		skipSuffixes: []string{"~", ".open"},
	}
	for _, opt := range opts {
		opt.apply(o)
	}
	return o
}

// WithWatchDepth sets how many levels of subdirectories are watched.
// defaults to 4
func WithWatchDepth(depth int) Option {
	return newFuncOption(func(o *options) {
		o.watchDepth = depth
	})
}

// WithDebounce sets how long a modified file must stay unchanged before it is indexed.
// defaults to 10 seconds
func WithDebounce(d time.Duration) Option {
	return newFuncOption(func(o *options) {
		o.debounce = d
	})
}

// WithWorkers sets the number of files indexed concurrently.
// defaults to 8
func WithWorkers(n int) Option {
	return newFuncOption(func(o *options) {
		if n > 0 {
			o.workers = n
		}
	})
}

// WithDecodeOptions sets the options used when decoding files, such as the field rules
// used to validate them.
// defaults to no options
func WithDecodeOptions(opts ...gonist.Option) Option {
	return newFuncOption(func(o *options) {
		o.decodeOptions = opts
	})
}

// WithSkipSuffixes sets the file name suffixes which are never indexed.
// defaults to "~" and ".open"
func WithSkipSuffixes(suffixes ...string) Option {
	return newFuncOption(func(o *options) {
		o.skipSuffixes = suffixes
	})
}

// WithOnIndexed registers a function called after each attempt to index a file.
// defaults to no function
func WithOnIndexed(fn func(Entry, error)) Option {
	return newFuncOption(func(o *options) {
		o.onIndexed = fn
	})
}
