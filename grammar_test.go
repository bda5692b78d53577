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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nistBuffer concatenates strings, byte slices and separators into a buffer.
func nistBuffer(parts ...interface{}) []byte {
	var b []byte
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			b = append(b, v...)
		case []byte:
			b = append(b, v...)
		case byte:
			b = append(b, v)
		case int:
			b = append(b, byte(v))
		default:
			panic("unsupported part")
		}
	}
	return b
}

func TestDecodeGenericRecord(t *testing.T) {
	tests := []struct {
		name       string
		buf        []byte
		recordType int
		start      int
		end        int // -1 means the last byte of buf
		want       Record
		wantLength int
		wantErr    bool
	}{
		{
			"LEN at offset 0",
			nistBuffer("1.001:8", FS),
			1, 0, -1,
			Record{1: Item("8")},
			8,
			false,
		},
		{
			"LEN at offset 5",
			nistBuffer([]byte{0, 1, 2, 3, 4}, "1.001:8", FS),
			1, 5, -1,
			Record{1: Item("8")},
			8,
			false,
		},
		{
			"CNT with record separators",
			nistBuffer("1.001:24", GS, "1.003:1", US, "1", RS, "2", US, "00", FS),
			1, 0, -1,
			Record{1: Item("24"), 3: Subfields(Set("1", "1"), Set("2", "00"))},
			24,
			false,
		},
		{
			"CNT without record separators",
			nistBuffer("1.001:19", GS, "1.003:1", US, "1", FS),
			1, 0, -1,
			Record{1: Item("19"), 3: Subfields(Set("1", "1"))},
			19,
			false,
		},
		{
			"repeating subfields with single items",
			nistBuffer("1.001:25", GS, "1.068:CAN1", RS, "CAN2", FS),
			1, 0, -1,
			Record{1: Item("25"), 68: Subfields(Scalar("CAN1"), Scalar("CAN2"))},
			25,
			false,
		},
		{
			"field always decoded as a set",
			nistBuffer("9.001:18", GS, "9.302:01", FS),
			9, 0, -1,
			Record{1: Item("18"), 302: Items("01")},
			18,
			false,
		},
		{
			"binary field containing a file separator",
			nistBuffer("10.001:23", GS, "10.999:", []byte{'a', 'b', FS, 'c', 'd'}, FS),
			10, 0, -1,
			Record{1: Item("23"), 999: Binary([]byte{'a', 'b', FS, 'c', 'd'})},
			23,
			false,
		},
		{
			"record followed by another record",
			nistBuffer("2.001:8", FS, "2.001:8", FS),
			2, 0, -1,
			Record{1: Item("8")},
			8,
			false,
		},
		{
			"LEN without value",
			nistBuffer("1.001:", FS),
			1, 0, -1,
			nil, 0, true,
		},
		{
			"LEN without field number separator",
			nistBuffer([]byte{0, 1, 2, 3, 4}, "1.001 8", FS, []byte{13, 14, 15}),
			1, 5, 12,
			nil, 0, true,
		},
		{
			"LEN with field number in wrong format",
			nistBuffer("1 001:8", FS),
			1, 0, -1,
			nil, 0, true,
		},
		{
			"LEN not numeric",
			nistBuffer("1.001:<=>", FS),
			1, 0, -1,
			nil, 0, true,
		},
		{
			"LEN zero",
			nistBuffer("1.001:0", FS),
			1, 0, -1,
			nil, 0, true,
		},
		{
			"LEN negative",
			nistBuffer("1.001:-8", FS),
			1, 0, -1,
			nil, 0, true,
		},
		{
			"field of another record type",
			nistBuffer("1.001:19", GS, "2.064:<=>", FS),
			1, 0, -1,
			nil, 0, true,
		},
		{
			"LEN more than available",
			nistBuffer("1.001:18", FS),
			1, 0, -1,
			nil, 0, true,
		},
		{
			"record not ending with file separator",
			nistBuffer("2.001:7"),
			2, 0, -1,
			nil, 0, true,
		},
		{
			"missing LEN",
			nistBuffer("2.003:A", FS),
			2, 0, -1,
			nil, 0, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := tt.end
			if end < 0 {
				end = len(tt.buf) - 1
			}
			got, length, err := DecodeGenericRecord(tt.buf, tt.recordType, 1, tt.start, end)
			if tt.wantErr {
				require.Error(t, err)
				var de *DecodeError
				assert.True(t, errors.As(err, &de), "expected DecodeError, got %T", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantLength, length)
		})
	}
}

func TestDecodeGenericRecordErrorOffsets(t *testing.T) {
	buf := nistBuffer("1.001:18", FS)
	_, _, err := DecodeGenericRecord(buf, 1, 1, 0, len(buf)-1)
	require.Error(t, err)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.True(t, de.HasOffsets())
	assert.Equal(t, 0, de.StartOffset)
	assert.Equal(t, 8, de.EndOffset)
	assert.Contains(t, de.Detail, "indicates 18 bytes but only 9 available")
	assert.Equal(t, &Source{Type: 1, Record: 1, Field: 1}, de.Source)
}

func TestFieldLength(t *testing.T) {
	tests := []struct {
		name  string
		key   FieldKey
		value Value
		want  int
	}{
		{"item", FieldKey{Type: 1, Field: 4}, Item("CRM"), 10},
		{"set", FieldKey{Type: 1, Field: 3}, Items("1", "0"), 10},
		{"subfields", FieldKey{Type: 1, Field: 3}, Subfields(Set("1", "1"), Set("2", "00")), 15},
		{"binary", FieldKey{Type: 10, Field: 999}, Binary(make([]byte, 100)), 108},
		{"empty", FieldKey{Type: 2, Field: 5}, Item(""), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldLength(tt.key, tt.value))
			encoded := appendField(nil, tt.key, tt.value)
			assert.Len(t, encoded, tt.want)
			assert.Equal(t, byte(GS), encoded[len(encoded)-1])
		})
	}
}

func TestRecordLength(t *testing.T) {
	tests := []struct {
		name       string
		recordType int
		partial    int
		want       int
	}{
		{"Type-1 without overflow", 1, 122, 132},
		{"Type-2 overflowing to three digits", 2, 99, 109},
		{"upper edge without overflow", 1, 989, 999},
		{"overflowing to four digits", 1, 990, 1001},
		{"smallest record", 2, 9, 18},
		{"two digit record type", 10, 50, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recordLength(tt.recordType, tt.partial))
		})
	}
}
