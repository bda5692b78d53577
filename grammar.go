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
	"bytes"
	"strconv"
)

// Separator characters
const (
	FS    = 0x1c // File separator, between records
	GS    = 0x1d // Group separator, between fields of a record
	RS    = 0x1e // Record separator, between repeating subfields
	US    = 0x1f // Unit separator, between information items of a subfield
	colon = 0x3a // Separates the field key from the field value
)

// alwaysDecodeAsSet lists fields whose first information item is mandatory and the rest optional.
// A value without separators is still a set for these fields.
var alwaysDecodeAsSet = map[string]bool{
	"9.135":  true,
	"9.302":  true,
	"9.324":  true,
	"9.354":  true,
	"9.355":  true,
	"9.356":  true,
	"10.42":  true,
	"10.48":  true,
	"10.995": true,
	"10.997": true,
	"13.995": true,
	"13.997": true,
	"14.995": true,
	"14.997": true,
}

func decodesAsSet(key FieldKey) bool {
	return alwaysDecodeAsSet[strconv.Itoa(key.Type)+"."+strconv.Itoa(key.Field)]
}

// findSeparator returns the offset of the first sep within [start, end] or -1.
func findSeparator(buf []byte, sep byte, start, end int) int {
	if start < 0 || start > end || start >= len(buf) {
		return -1
	}
	if end >= len(buf) {
		end = len(buf) - 1
	}
	i := bytes.IndexByte(buf[start:end+1], sep)
	if i < 0 {
		return -1
	}
	return start + i
}

// findSeparators returns the offset of the nearest of the given separators within [start, end] or -1.
func findSeparators(buf []byte, start, end int, seps ...byte) int {
	found := -1
	for _, sep := range seps {
		if o := findSeparator(buf, sep, start, end); o >= 0 && (found < 0 || o < found) {
			found = o
		}
	}
	return found
}

// stringValue returns the bytes within [start, end] as a string.
func stringValue(buf []byte, start, end int) string {
	if start > end || start >= len(buf) {
		return ""
	}
	if end >= len(buf) {
		end = len(buf) - 1
	}
	return string(buf[start : end+1])
}

func decodeSubfield(key FieldKey, buf []byte, start, end int) Subfield {
	us := findSeparator(buf, US, start, end)
	if us >= 0 {
		var items []string
		for offset := start; offset <= end; {
			if us >= 0 {
				items = append(items, stringValue(buf, offset, us-1))
				offset = us + 1
			} else {
				items = append(items, stringValue(buf, offset, end))
				offset = end + 1
			}
			us = findSeparator(buf, US, offset, end)
		}
		return Set(items...)
	}
	if decodesAsSet(key) {
		return Set(stringValue(buf, start, end))
	}
	return Scalar(stringValue(buf, start, end))
}

// decodeFieldValue decodes the value within [start, end] according to the separator grammar.
func decodeFieldValue(key FieldKey, buf []byte, start, end int) Value {
	rs := findSeparator(buf, RS, start, end)
	if rs < 0 {
		if findSeparator(buf, US, start, end) < 0 {
			if decodesAsSet(key) {
				return Items(stringValue(buf, start, end))
			}
			return Item(stringValue(buf, start, end))
		}
		return Subfields(decodeSubfield(key, buf, start, end))
	}

	var subfields []Subfield
	for offset := start; offset <= end; {
		if rs >= 0 {
			subfields = append(subfields, decodeSubfield(key, buf, offset, rs-1))
			offset = rs + 1
		} else {
			subfields = append(subfields, decodeSubfield(key, buf, offset, end))
			offset = end + 1
		}
		rs = findSeparator(buf, RS, offset, end)
	}
	return Subfields(subfields...)
}

// decodeFieldKey decodes the key of the field starting at start. The returned key length
// includes the field number separator.
func decodeFieldKey(buf []byte, start, end, instance int) (FieldKey, int, error) {
	sep := findSeparator(buf, colon, start, end)
	if sep < 0 {
		return FieldKey{}, 0, newDecodeError(nil, start, end,
			"cannot find NIST field number separator between offsets [%d, %d]", start, end)
	}

	s := stringValue(buf, start, sep-1)
	m := fieldKeyRegexp.FindStringSubmatch(s)
	if m == nil {
		return FieldKey{}, 0, newDecodeError(nil, start, end,
			"NIST field number '%s' at offset %d does not have a correct format of 'x.yyy'", s, start)
	}
	t, err1 := strconv.Atoi(m[1])
	f, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return FieldKey{}, 0, newDecodeError(nil, start, end,
			"NIST field number '%s' at offset %d is out of range", s, start)
	}
	return FieldKey{Type: t, Record: instance, Field: f}, sep - start + 1, nil
}

func itemLength(item string) int {
	return len(item)
}

func subfieldLength(s Subfield) int {
	n := 0
	for _, item := range s.items {
		n += itemLength(item)
	}
	if len(s.items) > 1 {
		n += len(s.items) - 1 // unit separators
	}
	return n
}

// valueLength returns the number of bytes the value occupies when encoded, separators included.
func valueLength(v Value) int {
	switch v.kind {
	case KindItem:
		return itemLength(v.item)
	case KindBinary:
		return len(v.data)
	case KindSubfields:
		n := 0
		for _, s := range v.subfields {
			n += subfieldLength(s)
		}
		if len(v.subfields) > 1 {
			n += len(v.subfields) - 1 // record separators
		}
		return n
	}
	return 0
}

// fieldLength returns the encoded length of a field: key, field number separator, value and group separator.
func fieldLength(key FieldKey, v Value) int {
	return len(key.String()) + 1 + valueLength(v) + 1
}

// appendValue appends the encoded value to dst.
func appendValue(dst []byte, v Value) []byte {
	switch v.kind {
	case KindItem:
		dst = append(dst, v.item...)
	case KindBinary:
		dst = append(dst, v.data...)
	case KindSubfields:
		for i, s := range v.subfields {
			if i > 0 {
				dst = append(dst, RS)
			}
			for j, item := range s.items {
				if j > 0 {
					dst = append(dst, US)
				}
				dst = append(dst, item...)
			}
		}
	}
	return dst
}

// appendField appends key, field number separator, value and group separator to dst.
func appendField(dst []byte, key FieldKey, v Value) []byte {
	dst = append(dst, key.String()...)
	dst = append(dst, colon)
	dst = appendValue(dst, v)
	return append(dst, GS)
}
