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

// Package countingreader guards reads of (possibly decompressed) NIST files against
// unbounded input.
package countingreader

import (
	"errors"
	"io"
	"sync/atomic"
)

// ErrLimitExceeded is returned by a limited Reader when the underlying reader has more
// data than allowed.
var ErrLimitExceeded = errors.New("gonist: input exceeds size limit")

// Reader counts the bytes read through it.
type Reader struct {
	r         io.Reader
	bytesRead int64
	maxBytes  int64
}

// New makes a Reader which counts bytes without a limit.
func New(r io.Reader) *Reader {
	return &Reader{r: r, maxBytes: -1}
}

// NewLimited makes a Reader which fails with ErrLimitExceeded as soon as more than
// maxBytes bytes are available from r.
func NewLimited(r io.Reader, maxBytes int64) *Reader {
	return &Reader{r: r, maxBytes: maxBytes}
}

func (r *Reader) Read(p []byte) (n int, err error) {
	if r.maxBytes < 0 {
		n, err = r.r.Read(p)
		atomic.AddInt64(&r.bytesRead, int64(n))
		return
	}

	// one byte past the limit tells a reader at the limit from a reader with more data
	remaining := r.maxBytes + 1 - r.N()
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err = r.r.Read(p)
	total := atomic.AddInt64(&r.bytesRead, int64(n))
	if total > r.maxBytes {
		atomic.AddInt64(&r.bytesRead, -1)
		return n - 1, ErrLimitExceeded
	}
	return
}

// N returns the number of bytes read so far.
func (r *Reader) N() int64 {
	return atomic.LoadInt64(&r.bytesRead)
}
