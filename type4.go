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
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Type-4 field numbers.
const (
	Type4IMP  = 3 // Impression type
	Type4FGP  = 4 // Friction ridge generalized positions
	Type4ISR  = 5 // Image scanning resolution
	Type4HLL  = 6 // Horizontal line length
	Type4VLL  = 7 // Vertical line length
	Type4CGA  = 8 // Compression algorithm
	Type4DATA = 9 // Image data
)

// type4HeaderLength is the length of the fixed part of a Type-4 record.
const type4HeaderLength = 18

// fgpCount is the number of friction ridge position slots in a Type-4 record.
const fgpCount = 6

// fgpUnused marks an unused friction ridge position slot.
const fgpUnused = 0xff

// DecodeType4Record decodes a binary Type-4 record starting at start. end is the offset of the last byte
// available in buf. The returned length is the length of the record as given by its length field.
//
// Image data (field 4.009) refers to buf without copying.
func DecodeType4Record(buf []byte, instance, start, end int) (Record, int, error) {
	if end >= len(buf) {
		end = len(buf) - 1
	}
	if end-start+1 < type4HeaderLength {
		return nil, 0, newDecodeError(nil, start, end,
			"NIST Type-4 record #%d contains only %d bytes but at least %d bytes required",
			instance, end-start+1, type4HeaderLength)
	}

	length := int(binary.BigEndian.Uint32(buf[start:]))
	if length > end-start+1 {
		return nil, 0, newDecodeError(&Source{Type: 4, Record: instance, Field: FieldLEN}, start, end,
			"NIST Type-4 record #%d's record length indicates %d bytes but only %d available",
			instance, length, end-start+1)
	}
	if length < type4HeaderLength {
		return nil, 0, newDecodeError(&Source{Type: 4, Record: instance, Field: FieldLEN}, start, end,
			"NIST Type-4 record #%d's record length %d is shorter than its header", instance, length)
	}

	recordEnd := start + length - 1
	h := buf[start : start+type4HeaderLength]
	r := Record{
		FieldLEN:  Item(strconv.Itoa(length)),
		FieldIDC:  Item(fmt.Sprintf("%02d", h[4])),
		Type4IMP:  Item(strconv.Itoa(int(h[5]))),
		Type4FGP:  decodeFGP(h[6:12]),
		Type4ISR:  Item(strconv.Itoa(int(h[12]))),
		Type4HLL:  Item(strconv.Itoa(int(int16(binary.BigEndian.Uint16(h[13:]))))),
		Type4VLL:  Item(strconv.Itoa(int(int16(binary.BigEndian.Uint16(h[15:]))))),
		Type4CGA:  Item(strconv.Itoa(int(h[17]))),
		Type4DATA: Binary(buf[start+type4HeaderLength : recordEnd+1]),
	}
	return r, length, nil
}

// decodeFGP strips unused positions at the end. Unused positions in between become empty items.
func decodeFGP(b []byte) Value {
	last := len(b) - 1
	for last >= 0 && b[last] == fgpUnused {
		last--
	}
	positions := make([]Subfield, 0, last+1)
	for _, p := range b[:last+1] {
		if p == fgpUnused {
			positions = append(positions, Scalar(""))
		} else {
			positions = append(positions, Scalar(strconv.Itoa(int(p))))
		}
	}
	return Subfields(positions...)
}

// type4Number parses a numeric Type-4 field and checks that it fits in [lo, hi].
func type4Number(key FieldKey, v Value, lo, hi int) (int, error) {
	if v.Kind() == KindNone {
		return 0, newValidationError(key, "Missing value for %s", key)
	}
	s, ok := v.Text()
	if !ok {
		return 0, newValidationError(key, "Invalid value format for %s: %s", key, v)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, newValidationError(key, "Invalid value for %s: %s", key, s)
	}
	if n < lo || n > hi {
		return 0, newValidationError(key, "Value for %s out of range [%d, %d]: %s", key, lo, hi, s)
	}
	return n, nil
}

// AppendType4Record appends the binary encoding of a populated Type-4 record to dst.
// Every numeric field must be a decimal string; the error names the offending field.
func AppendType4Record(dst []byte, r Record, instance int) ([]byte, error) {
	key := func(field int) FieldKey {
		return FieldKey{Type: 4, Record: instance, Field: field}
	}

	length, err := type4Number(key(FieldLEN), r[FieldLEN], type4HeaderLength, math.MaxUint32)
	if err != nil {
		return dst, err
	}
	var header [type4HeaderLength]byte
	binary.BigEndian.PutUint32(header[0:], uint32(length))

	for _, f := range []struct {
		field  int
		offset int
	}{{FieldIDC, 4}, {Type4IMP, 5}, {Type4ISR, 12}, {Type4CGA, 17}} {
		n, err := type4Number(key(f.field), r[f.field], 0, math.MaxUint8)
		if err != nil {
			return dst, err
		}
		header[f.offset] = byte(n)
	}

	for _, f := range []struct {
		field  int
		offset int
	}{{Type4HLL, 13}, {Type4VLL, 15}} {
		n, err := type4Number(key(f.field), r[f.field], math.MinInt16, math.MaxInt16)
		if err != nil {
			return dst, err
		}
		binary.BigEndian.PutUint16(header[f.offset:], uint16(int16(n)))
	}

	positions := header[6:12]
	for i := range positions {
		positions[i] = fgpUnused
	}
	fgp := r[Type4FGP]
	var items []string
	switch fgp.Kind() {
	case KindItem:
		items = []string{fgp.item}
	case KindSubfields:
		for _, s := range fgp.Subfields() {
			items = append(items, s.Items()...)
		}
	default:
		return dst, newValidationError(key(Type4FGP), "Missing value for %s", key(Type4FGP))
	}
	if len(items) > fgpCount {
		return dst, newValidationError(key(Type4FGP), "Too many positions for %s: %d", key(Type4FGP), len(items))
	}
	for i, item := range items {
		if item == "" {
			continue
		}
		n, err := type4Number(key(Type4FGP), Item(item), 0, math.MaxUint8-1)
		if err != nil {
			return dst, err
		}
		positions[i] = byte(n)
	}

	data := r[Type4DATA].Bytes()
	if length != type4HeaderLength+len(data) {
		return dst, newValidationError(key(FieldLEN), "Value for %s does not match image data length %d: %d",
			key(FieldLEN), len(data), length)
	}

	dst = append(dst, header[:]...)
	return append(dst, data...), nil
}
