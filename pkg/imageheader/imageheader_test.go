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

package imageheader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	minimalJPEG = []byte{
		0xff, 0xd8, 0xff, 0xe0, 0x00, 0x0e, 0x4a, 0x46, 0x49, 0x46, 0x00, 0x01, 0x02, 0x01, 0x01,
		0xf4, 0x01, 0xf4, 0xff, 0xc0, 0x00, 0x05, 0x00, 0x01, 0x40, 0x01, 0xe0,
	}
	minimalJPEG2000 = []byte{
		0x00, 0x00, 0x00, 0x0c, 0x6a, 0x50, 0x20, 0x20, 0x0d, 0x0a, 0x87, 0x0a, 0x00, 0x00, 0x00,
		0x18, 0x6a, 0x70, 0x32, 0x68, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x01, 0x40, 0x00, 0x00, 0x01, 0xe0, 0x00,
	}
	minimalWSQ = []byte{
		0xff, 0xa0, 0xff, 0xa8, 0x00, 0x14, 0x4e, 0x49, 0x53, 0x54, 0x5f, 0x43, 0x4f, 0x4d, 0x20,
		0x32, 0x0a, 0x50, 0x50, 0x49, 0x20, 0x35, 0x30, 0x30, 0xff, 0xa2, 0x00, 0x08, 0x00, 0xff,
		0x01, 0xe0, 0x01, 0x40, 0xff, 0xa1,
	}
)

type reader func([]byte) (*Header, error)

func TestRead(t *testing.T) {
	ppi500 := &Resolution{Horizontal: 500, Vertical: 500, Units: PixelsPerInch}

	tests := []struct {
		name    string
		read    reader
		data    []byte
		want    *Header
		wantErr string
	}{
		{
			"minimal JPEG",
			JPEG,
			minimalJPEG,
			&Header{Type: TypeJPEG, Width: 480, Height: 320, Resolution: ppi500},
			"",
		},
		{
			"JPEG too small",
			JPEG,
			[]byte{0x01},
			nil,
			"JPEG data length is too small (less than 18 bytes)",
		},
		{
			"JPEG without SOI",
			JPEG,
			[]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12},
			nil,
			"JPEG image does not start with a start marker (SOI) ff d8",
		},
		{
			"JPEG without APP0",
			JPEG,
			[]byte{0xff, 0xd8, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12},
			nil,
			"JPEG image does not contain APP0 marker ff e0",
		},
		{
			"JPEG without JFIF identifier",
			JPEG,
			[]byte{0xff, 0xd8, 0xff, 0xe0, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12},
			nil,
			"JPEG image does not contain 'JFIF' identifier in APP0 segment",
		},
		{
			"JPEG segment length over total length",
			JPEG,
			[]byte{0xff, 0xd8, 0xff, 0xe0, 0xaa, 0xbb, 0x4a, 0x46, 0x49, 0x46, 0x00, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12},
			nil,
			"JPEG image does not contain segment SOF0 with image dimensions",
		},
		{
			"JPEG segment without marker",
			JPEG,
			[]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x06, 0x4a, 0x46, 0x49, 0x46, 0xbb, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			nil,
			"JPEG segment does not start with a marker 0xff",
		},
		{
			"JPEG truncated SOF0",
			JPEG,
			[]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x07, 0x4a, 0x46, 0x49, 0x46, 0x00, 0xff, 0xc0, 0x00, 0x00, 0xee, 0x00, 0x00},
			nil,
			"JPEG image seems to be truncated for SOF0 segment: 11 + 8 >= 18",
		},
		{
			"JPEG without SOF0",
			JPEG,
			[]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x07, 0x4a, 0x46, 0x49, 0x46, 0x00, 0xff, 0xc1, 0x00, 0x05, 0x00, 0x00, 0x00},
			nil,
			"JPEG image does not contain segment SOF0 with image dimensions",
		},
		{
			"JPEG segment length 0",
			JPEG,
			[]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x07, 0x4a, 0x46, 0x49, 0x46, 0x00, 0xff, 0xc1, 0x00, 0x00, 0xff, 0xff, 0xff},
			nil,
			"JPEG segment contains segment length of 0 at offset 11",
		},
		{
			"minimal JPEG2000",
			JPEG2000,
			minimalJPEG2000,
			&Header{Type: TypeJPEG2000, Width: 480, Height: 320},
			"",
		},
		{
			"JPEG2000 too small",
			JPEG2000,
			[]byte{0x01},
			nil,
			"JPEG2000 data length is too small (less than 8 bytes)",
		},
		{
			"JPEG2000 without signature",
			JPEG2000,
			[]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09},
			nil,
			"JPEG2000 image does not contain 'jP  ' signature",
		},
		{
			"JPEG2000 segment length over total length",
			JPEG2000,
			[]byte{0x00, 0x00, 0x00, 0x0c, 0x6a, 0x50, 0x20, 0x20, 0x0d, 0x0a, 0x87, 0x0a, 0xaa, 0xbb, 0xcc, 0xdd, 0x66, 0x74, 0x79, 0x70},
			nil,
			"JPEG2000 image seems to be truncated: 12 + 8 >= 20",
		},
		{
			"JPEG2000 truncated header",
			JPEG2000,
			[]byte{0x00, 0x00, 0x00, 0x0c, 0x6a, 0x50, 0x20, 0x20, 0x0d, 0x0a, 0x87, 0x0a, 0x00, 0x00, 0x00, 0x0a, 0x6a, 0x70, 0x32, 0x68, 0x00},
			nil,
			"JPEG2000 image seems to be truncated for header segment: 12 + 24 >= 21",
		},
		{
			"JPEG2000 without header",
			JPEG2000,
			[]byte{0x00, 0x00, 0x00, 0x0c, 0x6a, 0x50, 0x20, 0x20, 0x0d, 0x0a, 0x87, 0x0a, 0x00, 0x00, 0x00, 0x09, 0x6a, 0x70, 0x31, 0x68, 0x00},
			nil,
			"JPEG2000 image does not contain header segment with image dimensions",
		},
		{
			"JPEG2000 segment length 0",
			JPEG2000,
			[]byte{0x00, 0x00, 0x00, 0x0c, 0x6a, 0x50, 0x20, 0x20, 0x0d, 0x0a, 0x87, 0x0a, 0x00, 0x00, 0x00, 0x00, 0x6a, 0x70, 0x31, 0x68, 0x00, 0x00, 0x00, 0x0a},
			nil,
			"JPEG2000 segment contains segment length of 0 at offset 12",
		},
		{
			"minimal WSQ",
			WSQ,
			minimalWSQ,
			&Header{Type: TypeWSQ, Width: 320, Height: 480, Resolution: ppi500},
			"",
		},
		{
			"WSQ with an empty second comment",
			WSQ,
			[]byte{
				0xff, 0xa0, 0xff, 0xa8, 0x00, 0x14, 0x4e, 0x49, 0x53, 0x54, 0x5f, 0x43, 0x4f, 0x4d, 0x20,
				0x32, 0x0a, 0x50, 0x50, 0x49, 0x20, 0x35, 0x30, 0x30, 0xff, 0xa8, 0x00, 0x02, 0xff, 0xa2,
				0x00, 0x08, 0x00, 0xff, 0x01, 0xe0, 0x01, 0x40, 0xff, 0xa1,
			},
			&Header{Type: TypeWSQ, Width: 320, Height: 480, Resolution: ppi500},
			"",
		},
		{
			"WSQ without resolution",
			WSQ,
			[]byte{0xff, 0xa0, 0xff, 0xa2, 0x00, 0x08, 0x00, 0xff, 0x01, 0xe0, 0x01, 0x40, 0x00, 0x00, 0xff, 0xa1},
			&Header{Type: TypeWSQ, Width: 320, Height: 480},
			"",
		},
		{
			"WSQ too small",
			WSQ,
			[]byte{0x01},
			nil,
			"WSQ data length is too small (less than 14 bytes)",
		},
		{
			"WSQ without SOI",
			WSQ,
			[]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12},
			nil,
			"WSQ image does not start with a start marker (SOI) ff a0",
		},
		{
			"WSQ segment length over total length",
			WSQ,
			[]byte{0xff, 0xa0, 0xff, 0xa3, 0xaa, 0xbb, 0x4a, 0x46, 0x49, 0x46, 0x00, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11, 0x12, 0xff, 0xa1},
			nil,
			"WSQ image does not contain segment SOF with image dimensions",
		},
		{
			"WSQ segment without marker",
			WSQ,
			[]byte{0xff, 0xa0, 0xff, 0xe0, 0x00, 0x06, 0x4a, 0x46, 0x49, 0x46, 0xbb, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xa1},
			nil,
			"WSQ segment does not start with a marker 0xff",
		},
		{
			"WSQ truncated SOF",
			WSQ,
			[]byte{0xff, 0xa0, 0xff, 0xa3, 0x00, 0x07, 0x03, 0x04, 0x05, 0x06, 0x07, 0xff, 0xa2, 0x00, 0x00, 0xee, 0x00, 0x00, 0xff, 0xa1},
			nil,
			"WSQ image seems to be truncated for SOF segment: 11 + 10 >= 20",
		},
		{
			"WSQ without SOF",
			WSQ,
			[]byte{0xff, 0xa0, 0xff, 0xe0, 0x00, 0x07, 0x03, 0x04, 0x05, 0x06, 0x07, 0xff, 0xc1, 0x00, 0x05, 0x00, 0x00, 0x00, 0xff, 0xa1},
			nil,
			"WSQ image does not contain segment SOF with image dimensions",
		},
		{
			"WSQ segment length 0",
			WSQ,
			[]byte{0xff, 0xa0, 0xff, 0xe0, 0x00, 0x07, 0x03, 0x04, 0x05, 0x06, 0x07, 0xff, 0xc1, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff, 0xa1},
			nil,
			"WSQ segment contains segment length of 0 at offset 11",
		},
		{
			"WSQ comment without NIST_COM",
			WSQ,
			[]byte{0xff, 0xa0, 0xff, 0xa8, 0x00, 0x09, 'P', 'P', 'I', ' ', '5', '0', '0', 0x00, 0x00, 0xff, 0xa1},
			nil,
			"WSQ comment segment does not contain 'NIST_COM' attribute",
		},
		{
			"WSQ comment with non-numeric PPI",
			WSQ,
			[]byte{0xff, 0xa0, 0xff, 0xa8, 0x00, 0x13, 'N', 'I', 'S', 'T', '_', 'C', 'O', 'M', ' ', '2', '\n',
				'P', 'P', 'I', ' ', 'x', 0x00, 0x00, 0x00, 0xff, 0xa1},
			nil,
			"WSQ comment segment contains non-numeric 'PPI' attribute",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.read(tt.data)
			if tt.wantErr != "" {
				require.Error(t, err)
				var he *Error
				require.True(t, errors.As(err, &he))
				assert.Equal(t, tt.wantErr, he.Detail)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantType Type
		wantErr  bool
	}{
		{"JPEG", minimalJPEG, TypeJPEG, false},
		{"JPEG2000", minimalJPEG2000, TypeJPEG2000, false},
		{"WSQ", minimalWSQ, TypeWSQ, false},
		{"unknown", []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.data)
			if tt.wantErr {
				assert.EqualError(t, err, "gonist: image header: Unable to determine image type")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, got.Type)
		})
	}
}

func TestHeaderString(t *testing.T) {
	h, err := WSQ(minimalWSQ)
	require.NoError(t, err)
	assert.Equal(t, "WSQ 320x480, 500x500 ppi", h.String())
}
