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
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// provideDefaults sets configured default values of missing fields.
func provideDefaults(f *File, c *CodecOptions) {
	_ = VisitFile(f, Strategy{VisitMissingFields: true}, c, nil, func(f *File, field Field, opts *FieldOptions) (Value, error) {
		if field.Value.IsEmpty() && opts != nil && opts.DefaultValue.IsSet() {
			return opts.DefaultValue.Resolve(field, f), nil
		}
		return Value{}, nil
	})
}

func invokeFormatters(f *File, c *CodecOptions) {
	_ = VisitFile(f, Strategy{}, c, nil, func(f *File, field Field, opts *FieldOptions) (Value, error) {
		if opts != nil && opts.Formatter != nil {
			return opts.Formatter(field, f), nil
		}
		return Value{}, nil
	})
}

// determineCharset marks the file as UTF-8 in field 1.015 if any field is not 7-bit ASCII.
//
// The standard is ambiguous about whether 1.015 is needed for UTF-8: some sections imply it is,
// others that it is not. It is always set here.
func determineCharset(f *File) {
	if err := VisitFile(f, Strategy{}, nil, nil, check7bitASCII); err != nil {
		f.Type1[FieldDCS] = Items("3", "UTF-8")
	}
}

// assignIDC sets xx.002 (IDC) of every record except Type-1 in file order and lists the records in 1.003 (CNT).
func assignIDC(f *File) error {
	var (
		idc     int
		content []Subfield
	)
	err := VisitFile(f, Strategy{}, nil, func(rv RecordVisit) error {
		if rv.Type > 1 {
			s := fmt.Sprintf("%02d", idc)
			rv.Record[FieldIDC] = Item(s)
			content = append(content, Set(strconv.Itoa(rv.Type), s))
			idc++
		}
		return nil
	}, nil)
	if err != nil {
		return err
	}

	cnt := append([]Subfield{Set("1", strconv.Itoa(len(content)))}, content...)
	f.Type1[FieldCNT] = Subfields(cnt...)
	return nil
}

// recordLength computes the value of the LEN field of a tagged record whose other fields take partial bytes.
// The LEN field counts itself; when its own digits make the length one digit longer, one more byte is added.
func recordLength(recordType, partial int) int {
	lenField := fieldLength(FieldKey{Type: recordType, Field: FieldLEN}, Item(strconv.Itoa(partial)))
	length := lenField + partial
	if len(strconv.Itoa(length)) > len(strconv.Itoa(partial)) {
		length++
	}
	return length
}

// assignRecordLengths sets xx.001 (LEN) of every record and returns the total length of the file.
func assignRecordLengths(f *File) (int, error) {
	total := 0
	err := VisitFile(f, Strategy{}, nil, func(rv RecordVisit) error {
		var length int
		if rv.Type == 4 {
			length = type4HeaderLength + len(rv.Record[Type4DATA].Bytes())
		} else {
			partial := 0
			rv.Visitor = func(_ *File, field Field, _ *FieldOptions) (Value, error) {
				if field.Key.Field != FieldLEN {
					partial += fieldLength(field.Key, field.Value)
				}
				return Value{}, nil
			}
			if err := VisitRecord(rv); err != nil {
				return err
			}
			length = recordLength(rv.Type, partial)
		}
		rv.Record[FieldLEN] = Item(strconv.Itoa(length))
		total += length
		return nil
	}, nil)
	return total, err
}

// Populate returns a copy of the file with default values provided, formatters invoked and
// automatic fields computed: 1.015 (character set) when needed, xx.002 (IDC), 1.003 (CNT) and
// xx.001 (LEN). The total length of the encoded file is returned as well.
//
// The input file is not modified; values are shared with the copy.
func Populate(f *File, opts ...Option) (*File, int, error) {
	o := newOptions(opts...)
	return populate(f, o)
}

func populate(orig *File, o *options) (*File, int, error) {
	if orig == nil || orig.Type1 == nil {
		return nil, 0, newValidationError(FieldKey{Type: 1, Record: 1}, "Type-1 record is missing")
	}

	f := orig.ShallowCopy()
	provideDefaults(f, o.codecOptions)
	invokeFormatters(f, o.codecOptions)
	determineCharset(f)

	if err := assignIDC(f); err != nil {
		return nil, 0, err
	}
	total, err := assignRecordLengths(f)
	if err != nil {
		return nil, 0, err
	}
	log.Debugf("gonist: populated %s transaction, total length %d", f.TOT(), total)
	return f, total, nil
}
