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

package gonist

import "math"

// maxEncodedLength is the largest buffer encode is willing to allocate.
const maxEncodedLength = math.MaxUint32

type options struct {
	ignoreMissingMandatoryFields bool
	ignoreValidationChecks       bool
	checkForbiddenFields         bool
	codecOptions                 *CodecOptions
	maxEncodedLength             int64
}

// Option configures decoding, validation and encoding of NIST files.
type Option interface {
	apply(*options)
}

// EmptyOption does not alter the configuration. It can be embedded in
// another structure to build custom options.
type EmptyOption struct{}

func (EmptyOption) apply(*options) {}

// funcOption wraps a function that modifies options into an
// implementation of the Option interface.
type funcOption struct {
	f func(*options)
}

func (fo *funcOption) apply(po *options) {
	fo.f(po)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

func defaultOptions() options {
	return options{
		maxEncodedLength: maxEncodedLength,
	}
}

func newOptions(opts ...Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return &o
}

// WithIgnoreMissingMandatoryFields makes validation pass even if mandatory fields are missing.
// defaults to false
func WithIgnoreMissingMandatoryFields(ignore bool) Option {
	return newFuncOption(func(o *options) {
		o.ignoreMissingMandatoryFields = ignore
	})
}

// WithIgnoreValidationChecks makes validation ignore failed length, regex, custom rule and 7-bit ASCII checks.
// Checks for forbidden LEN and IDC fields before encoding are never ignored.
// defaults to false
func WithIgnoreValidationChecks(ignore bool) Option {
	return newFuncOption(func(o *options) {
		o.ignoreValidationChecks = ignore
	})
}

// WithCodecOptions sets the per-field rules used for validation, default values and formatting.
// defaults to no rules
func WithCodecOptions(c *CodecOptions) Option {
	return newFuncOption(func(o *options) {
		o.codecOptions = c
	})
}

// WithMaxEncodedLength sets the largest output encode is allowed to produce.
// defaults to the 32-bit limit of 4 GiB
func WithMaxEncodedLength(n int64) Option {
	return newFuncOption(func(o *options) {
		o.maxEncodedLength = n
	})
}
