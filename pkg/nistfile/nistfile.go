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

// Package nistfile reads and writes NIST files on disk. Files compressed with gzip or zstd
// are recognized by their magic bytes. Files are written under a temporary name and renamed
// when complete.
package nistfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ivosh/gonist/pkg/countingreader"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/tsdb/fileutil"
	log "github.com/sirupsen/logrus"
)

// Compression of a NIST file on disk.
type Compression string

const (
	None Compression = "none"
	Gzip Compression = "gzip"
	Zstd Compression = "zstd"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// ParseCompression parses the name of a compression.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(name); c {
	case None, Gzip, Zstd:
		return c, nil
	case "":
		return None, nil
	}
	return "", fmt.Errorf("unknown compression: %q", name)
}

// Detect returns the compression of data based on its first bytes.
func Detect(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return Gzip
	case bytes.HasPrefix(data, zstdMagic):
		return Zstd
	}
	return None
}

// NewReader returns a reader of the uncompressed content of r.
func NewReader(r io.Reader) (io.ReadCloser, Compression, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, None, err
	}

	switch c := Detect(magic); c {
	case Gzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, err
		}
		return gz, c, nil
	case Zstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, c, err
		}
		return zr.IOReadCloser(), c, nil
	}
	return io.NopCloser(br), None, nil
}

// ReadFile reads the uncompressed content of the named file.
func ReadFile(path string, opts ...Option) ([]byte, error) {
	o := newOptions(opts...)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, c, err := NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file: %s: %w", c, path, err)
	}
	defer r.Close()

	cr := countingreader.NewLimited(r, o.maxSize)
	data, err := io.ReadAll(cr)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %s: %w", path, err)
	}
	log.Debugf("Read %d bytes (%s) from %s", cr.N(), c, path)
	return data, nil
}

// WriteFile writes data to the named file. The data is first written to the file name
// with the open file suffix appended, which is renamed to path once the file is closed.
func WriteFile(path string, data []byte, opts ...Option) error {
	o := newOptions(opts...)

	openName := path + o.openFileSuffix
	f, err := os.OpenFile(openName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}

	if err := write(f, data, o); err != nil {
		_ = f.Close()
		_ = os.Remove(openName)
		return fmt.Errorf("failed to write file: %s: %w", openName, err)
	}
	if o.sync {
		if err := f.Sync(); err != nil {
			_ = f.Close()
			_ = os.Remove(openName)
			return err
		}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(openName)
		return fmt.Errorf("failed to close file: %s: %w", openName, err)
	}
	if err := fileutil.Rename(openName, path); err != nil {
		return fmt.Errorf("failed to rename file: %s: %w", openName, err)
	}
	log.Debugf("Wrote %d bytes (%s) to %s", len(data), o.compression, path)
	return nil
}

func write(w io.Writer, data []byte, o *options) error {
	switch o.compression {
	case Gzip:
		gz := gzip.NewWriter(w)
		if _, err := gz.Write(data); err != nil {
			return err
		}
		return gz.Close()
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := zw.Write(data); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	}
	_, err := w.Write(data)
	return err
}
