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

package nistfile

import "math"

type options struct {
	compression    Compression
	sync           bool
	openFileSuffix string
	maxSize        int64
}

// Option configures reading and writing of NIST files.
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
		compression:    None,
		openFileSuffix: ".open",
		maxSize:        math.MaxUint32,
	}
	for _, opt := range opts {
		opt.apply(o)
	}
	return o
}

// WithCompression sets the compression used when writing.
// defaults to None
func WithCompression(c Compression) Option {
	return newFuncOption(func(o *options) {
		o.compression = c
	})
}

// WithSync makes WriteFile sync the file to disk before it is renamed.
// defaults to false
func WithSync(sync bool) Option {
	return newFuncOption(func(o *options) {
		o.sync = sync
	})
}

// WithOpenFileSuffix sets the suffix of the file name used while the file is written.
// defaults to ".open"
func WithOpenFileSuffix(suffix string) Option {
	return newFuncOption(func(o *options) {
		o.openFileSuffix = suffix
	})
}

// WithMaxSize sets the largest uncompressed size ReadFile accepts.
// defaults to 4 GiB, the largest NIST file
func WithMaxSize(n int64) Option {
	return newFuncOption(func(o *options) {
		o.maxSize = n
	})
}
