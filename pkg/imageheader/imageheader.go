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

// Package imageheader reads dimensions and resolution from the headers of images
// stored in NIST records: JPEG (JFIF), JPEG2000 and WSQ.
package imageheader

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Type is the kind of image.
type Type string

const (
	TypeJPEG     Type = "JPEG"
	TypeJPEG2000 Type = "JPEG2000"
	TypeWSQ      Type = "WSQ"
)

// Units of a resolution.
type Units uint8

const (
	NoUnits       Units = 0
	PixelsPerInch Units = 1
	PixelsPerCm   Units = 2
)

func (u Units) String() string {
	switch u {
	case PixelsPerInch:
		return "ppi"
	case PixelsPerCm:
		return "ppcm"
	default:
		return "no units"
	}
}

// Resolution of an image.
type Resolution struct {
	Horizontal int
	Vertical   int
	Units      Units
}

// Header is the metadata read from an image header.
// Resolution is nil when the image format or the image does not carry it.
type Header struct {
	Type       Type
	Width      int
	Height     int
	Resolution *Resolution
}

func (h *Header) String() string {
	s := fmt.Sprintf("%s %dx%d", h.Type, h.Width, h.Height)
	if h.Resolution != nil {
		s += fmt.Sprintf(", %dx%d %s", h.Resolution.Horizontal, h.Resolution.Vertical, h.Resolution.Units)
	}
	return s
}

// Error is returned when an image header cannot be read.
type Error struct {
	Detail string
}

func newError(msg string, param ...interface{}) *Error {
	return &Error{Detail: fmt.Sprintf(msg, param...)}
}

func newTruncatedError(kind Type, segment string, start, shift, end int) *Error {
	if segment != "" {
		return newError("%s image seems to be truncated for %s: %d + %d >= %d", kind, segment, start, shift, end)
	}
	return newError("%s image seems to be truncated: %d + %d >= %d", kind, start, shift, end)
}

func (e *Error) Error() string {
	return "gonist: image header: " + e.Detail
}

func u16(data []byte, offset int) int {
	return int(binary.BigEndian.Uint16(data[offset:]))
}

func u32(data []byte, offset int) int {
	return int(binary.BigEndian.Uint32(data[offset:]))
}

func isJPEG(data []byte) error {
	switch {
	case len(data) < 18:
		return newError("JPEG data length is too small (less than 18 bytes)")
	case u16(data, 0) != 0xffd8:
		return newError("JPEG image does not start with a start marker (SOI) ff d8")
	case u16(data, 2) != 0xffe0:
		return newError("JPEG image does not contain APP0 marker ff e0")
	case string(data[6:10]) != "JFIF":
		return newError("JPEG image does not contain 'JFIF' identifier in APP0 segment")
	}
	return nil
}

// JPEG reads the header of a JFIF image. Resolution comes from the APP0 segment and
// dimensions from the first SOF0 segment.
func JPEG(data []byte) (*Header, error) {
	if err := isJPEG(data); err != nil {
		return nil, err
	}

	offset := 2 // start marker
	resolution := &Resolution{
		Horizontal: u16(data, offset+12),
		Vertical:   u16(data, offset+14),
		Units:      Units(data[offset+11]),
	}

	for offset < len(data) {
		if data[offset] != 0xff {
			return nil, newError("JPEG segment does not start with a marker 0xff")
		}
		if offset+3 >= len(data) {
			return nil, newTruncatedError(TypeJPEG, "segment", offset, 3, len(data))
		}
		if data[offset+1] == 0xc0 {
			if offset+8 >= len(data) {
				return nil, newTruncatedError(TypeJPEG, "SOF0 segment", offset, 8, len(data))
			}
			return &Header{
				Type:       TypeJPEG,
				Height:     u16(data, offset+5),
				Width:      u16(data, offset+7),
				Resolution: resolution,
			}, nil
		}

		segmentLength := u16(data, offset+2)
		if segmentLength == 0 {
			return nil, newError("JPEG segment contains segment length of 0 at offset %d", offset)
		}
		offset += 2 + segmentLength
	}
	return nil, newError("JPEG image does not contain segment SOF0 with image dimensions")
}

func isJPEG2000(data []byte) error {
	switch {
	case len(data) < 8:
		return newError("JPEG2000 data length is too small (less than 8 bytes)")
	case string(data[4:8]) != "jP  ":
		return newError("JPEG2000 image does not contain 'jP  ' signature")
	}
	return nil
}

// JPEG2000 reads the dimensions of a JPEG2000 image from its header box (jp2h).
// JPEG2000 headers do not yield a resolution.
func JPEG2000(data []byte) (*Header, error) {
	if err := isJPEG2000(data); err != nil {
		return nil, err
	}

	for offset := 0; offset < len(data); {
		if offset+8 >= len(data) {
			return nil, newTruncatedError(TypeJPEG2000, "", offset, 8, len(data))
		}
		if string(data[offset+4:offset+8]) == "jp2h" {
			if offset+24 >= len(data) {
				return nil, newTruncatedError(TypeJPEG2000, "header segment", offset, 24, len(data))
			}
			return &Header{
				Type:   TypeJPEG2000,
				Height: u32(data, offset+16),
				Width:  u32(data, offset+20),
			}, nil
		}

		segmentLength := u32(data, offset)
		if segmentLength == 0 {
			return nil, newError("JPEG2000 segment contains segment length of 0 at offset %d", offset)
		}
		offset += segmentLength
	}
	return nil, newError("JPEG2000 image does not contain header segment with image dimensions")
}

func isWSQ(data []byte) error {
	switch {
	case len(data) < 14:
		return newError("WSQ data length is too small (less than 14 bytes)")
	case u16(data, 0) != 0xffa0:
		return newError("WSQ image does not start with a start marker (SOI) ff a0")
	case u16(data, len(data)-2) != 0xffa1:
		return newError("WSQ image does not end with an end marker (EOI) ff a1")
	}
	return nil
}

// parseComment parses "key value" lines of a WSQ comment. Lines of other shapes are skipped.
func parseComment(text string) map[string]string {
	attributes := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		kv := strings.Split(line, " ")
		if len(kv) == 2 {
			attributes[kv[0]] = kv[1]
		}
	}
	return attributes
}

// WSQ reads the header of a WSQ fingerprint image. Dimensions come from the SOF segment and
// resolution from the PPI attribute of the first NIST comment segment.
//
// Some encoders write several comment segments, some of them empty. Only the first one
// is used.
func WSQ(data []byte) (*Header, error) {
	if err := isWSQ(data); err != nil {
		return nil, err
	}

	var (
		h          *Header
		resolution *Resolution
	)
	for offset := 2; offset < len(data); {
		if data[offset] != 0xff {
			return nil, newError("WSQ segment does not start with a marker 0xff")
		}
		if offset+1 >= len(data) {
			return nil, newTruncatedError(TypeWSQ, "segment", offset, 1, len(data))
		}

		marker := data[offset+1]
		if marker == 0xa1 {
			break
		}
		if offset+3 >= len(data) {
			return nil, newTruncatedError(TypeWSQ, "segment", offset, 3, len(data))
		}

		switch {
		case marker == 0xa2:
			if offset+10 >= len(data) {
				return nil, newTruncatedError(TypeWSQ, "SOF segment", offset, 10, len(data))
			}
			h = &Header{Type: TypeWSQ, Height: u16(data, offset+6), Width: u16(data, offset+8)}
		case marker == 0xa8 && resolution == nil:
			if offset+11 >= len(data) {
				return nil, newTruncatedError(TypeWSQ, "COM segment", offset, 11, len(data))
			}
			end := offset + u16(data, offset+2) + 2
			if end > len(data) {
				end = len(data)
			}
			var text string
			if end > offset+4 {
				text = string(data[offset+4 : end])
			}
			attributes := parseComment(text)
			if _, ok := attributes["NIST_COM"]; !ok {
				return nil, newError("WSQ comment segment does not contain 'NIST_COM' attribute")
			}
			if v, ok := attributes["PPI"]; ok {
				ppi, err := strconv.Atoi(v)
				if err != nil {
					return nil, newError("WSQ comment segment contains non-numeric 'PPI' attribute")
				}
				resolution = &Resolution{Horizontal: ppi, Vertical: ppi, Units: PixelsPerInch}
			}
		}

		if h != nil && resolution != nil {
			break
		}

		segmentLength := u16(data, offset+2)
		if segmentLength == 0 {
			return nil, newError("WSQ segment contains segment length of 0 at offset %d", offset)
		}
		offset += 2 + segmentLength
	}

	if h == nil {
		return nil, newError("WSQ image does not contain segment SOF with image dimensions")
	}
	h.Resolution = resolution
	return h, nil
}

// Detect determines the type of the image and reads its header.
// JPEG is tried first, then JPEG2000 and WSQ.
func Detect(data []byte) (*Header, error) {
	readers := []struct {
		is   func([]byte) error
		read func([]byte) (*Header, error)
	}{
		{isJPEG, JPEG},
		{isJPEG2000, JPEG2000},
		{isWSQ, WSQ},
	}
	for _, r := range readers {
		if r.is(data) != nil {
			continue
		}
		if h, err := r.read(data); err == nil {
			return h, nil
		}
	}
	return nil, newError("Unable to determine image type")
}
