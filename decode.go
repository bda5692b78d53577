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
	"strconv"

	log "github.com/sirupsen/logrus"
)

func decodeRecordLength(key FieldKey, v Value) (int, error) {
	s, ok := v.Text()
	if !ok || s == "" {
		return 0, newDecodeError(sourceOf(key), noOffset, noOffset,
			"NIST field %s (LEN) does not have any value", key)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, newDecodeError(sourceOf(key), noOffset, noOffset,
			"NIST field %s (LEN) does not have a numeric value: '%s'", key, s)
	}
	if n <= 0 {
		return 0, newDecodeError(sourceOf(key), noOffset, noOffset,
			"NIST field %s (LEN) does not contain a positive number: %s", key, s)
	}
	return n, nil
}

// DecodeGenericRecord decodes a tagged (ASCII) record of the given type starting at start.
// end is the offset of the last byte the record may occupy.
//
// The record ends where its LEN field (xx.001) says so; the returned length includes the
// trailing file separator. Binary field xx.999 runs up to the record end and refers to buf without copying.
func DecodeGenericRecord(buf []byte, recordType, instance, start, end int) (Record, int, error) {
	if end >= len(buf) {
		end = len(buf) - 1
	}

	record := Record{}
	recordEnd := -1 // known after LEN is decoded
	recordLength := 0
	limit := func() int {
		if recordEnd >= 0 {
			return recordEnd
		}
		return end
	}

	for offset := start; offset < limit(); {
		fieldEnd := end
		if sep := findSeparators(buf, offset, limit(), FS, GS); sep >= 0 {
			fieldEnd = sep - 1
		} else if recordEnd >= 0 {
			fieldEnd = recordEnd - 1
		}

		key, keyLength, err := decodeFieldKey(buf, offset, fieldEnd, instance)
		if err != nil {
			return nil, 0, err
		}
		if key.Type != recordType {
			return nil, 0, newDecodeError(sourceOf(key), offset, limit(),
				"NIST field %s decoded at offset %d contains an unexpected record type %d; expected %d",
				key, offset, key.Type, recordType)
		}

		valueStart := offset + keyLength
		var value Value
		if key.Field == FieldData {
			// Binary field is always the last one and is delimited by the record end only.
			fieldEnd = limit()
			if valueStart > fieldEnd {
				return nil, 0, newDecodeError(sourceOf(key), offset, fieldEnd,
					"NIST field %s at offset %d seems to be truncated", key, offset)
			}
			value = Binary(buf[valueStart:fieldEnd])
		} else {
			value = decodeFieldValue(key, buf, valueStart, fieldEnd)
		}

		if key.Field == FieldLEN {
			n, err := decodeRecordLength(key, value)
			if err != nil {
				return nil, 0, err
			}
			if n > end-start+1 {
				return nil, 0, newDecodeError(sourceOf(key), start, end,
					"Record length decoded from NIST field %s indicates %d bytes but only %d available",
					key, n, end-start+1)
			}
			recordLength = n
			recordEnd = start + n - 1
			if buf[recordEnd] != FS {
				return nil, 0, newDecodeError(nil, start, recordEnd,
					"Cannot find NIST file separator between offsets [%d, %d]", start, recordEnd)
			}
		}

		record[key.Field] = value
		offset = fieldEnd + 2
	}

	if recordLength == 0 {
		return nil, 0, newDecodeError(&Source{Type: recordType, Record: instance, Field: FieldLEN}, start, limit(),
			"Record %d does not contain NIST field %s (LEN)", recordType, FormatFieldKey(recordType, FieldLEN))
	}
	return record, recordLength, nil
}

// decodeFile decodes the records of a NIST file in the order given by field 1.003 (CNT).
func decodeFile(buf []byte) (*File, error) {
	end := len(buf) - 1
	fs := findSeparator(buf, FS, 0, end)
	if fs < 0 {
		return nil, newDecodeError(nil, 0, end, "Cannot find NIST file separator between offsets [0, %d]", end)
	}

	type1, _, err := DecodeGenericRecord(buf, 1, 1, 0, fs)
	if err != nil {
		return nil, err
	}

	cnt, ok := type1[FieldCNT]
	if !ok {
		return nil, newDecodeError(nil, 0, end, "NIST field 1.003 (CNT) was not found between offsets [0, %d]", end)
	}
	if cnt.Kind() != KindSubfields || len(cnt.Subfields()) < 1 {
		return nil, newDecodeError(&Source{Type: 1, Record: 1, Field: FieldCNT}, 0, end,
			"NIST field 1.003 (CNT) does not have a correct format: %s", cnt)
	}
	log.Debugf("gonist: decoded Type-1 record, %d records listed", len(cnt.Subfields())-1)

	f := &File{Type1: type1}
	offset := fs + 1
	for i, info := range cnt.Subfields() {
		if i == 0 {
			continue
		}
		source := &Source{Type: 1, Record: 1, Field: FieldCNT, SubField: i}
		if !info.IsSet() || len(info.Items()) != 2 {
			return nil, newDecodeError(source, offset, end,
				"NIST subfield 1.003.%d does not have a correct format: %s", i, cnt)
		}
		recordType, err := strconv.Atoi(info.Item(0))
		if err != nil {
			return nil, newDecodeError(source, offset, end,
				"NIST subfield 1.003.%d does not contain numeric value: %s", i, cnt)
		}

		switch {
		case recordType == 1:
			return nil, newDecodeError(source, offset, end, "NIST field 1.003 indicates two Type-1 records: %s", cnt)
		case recordType == 2 && f.Type2 != nil:
			return nil, newDecodeError(nil, offset, end, "More than one Type-2 NIST record in one NIST file is unsupported")
		case !isSupportedRecordType(recordType):
			return nil, newDecodeError(nil, offset, end, "NIST record Type-%d is unsupported", recordType)
		}

		instance := len(f.Records(recordType)) + 1
		var (
			record Record
			length int
		)
		if recordType == 4 {
			record, length, err = DecodeType4Record(buf, instance, offset, end)
		} else {
			record, length, err = DecodeGenericRecord(buf, recordType, instance, offset, end)
		}
		if err != nil {
			return nil, err
		}
		log.Debugf("gonist: decoded Type-%d record #%d at offset %d, %d bytes", recordType, instance, offset, length)

		f.AddRecord(recordType, record)
		offset += length
	}
	return f, nil
}

// applyParsers replaces values of fields which have a custom parser configured.
func applyParsers(f *File, o *options) error {
	return VisitFile(f, Strategy{}, o.codecOptions, nil, func(f *File, field Field, opts *FieldOptions) (Value, error) {
		if opts == nil || opts.Parser == nil {
			return Value{}, nil
		}
		v, err := opts.Parser(field, f)
		if err != nil {
			return Value{}, newParseError(field.Key, err)
		}
		return v, nil
	})
}

// Decode decodes a NIST file.
//
// The decoded file is validated without checks for forbidden fields and default values are
// provided for missing fields. Binary fields refer to buf without copying and must not be modified.
func Decode(buf []byte, opts ...Option) (*File, error) {
	o := newOptions(opts...)

	f, err := decodeFile(buf)
	if err != nil {
		return nil, err
	}
	if err := applyParsers(f, o); err != nil {
		return nil, err
	}

	o.checkForbiddenFields = false
	if err := validate(f, o); err != nil {
		return nil, err
	}

	provideDefaults(f, o.codecOptions)
	return f, nil
}
