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
	"regexp"
	"sort"
	"strconv"
)

// Well known field numbers shared by all record types.
const (
	FieldLEN = 1 // Record length
	FieldIDC = 2 // Information designation character
)

// Well known Type-1 field numbers.
const (
	FieldVER = 2  // Version
	FieldCNT = 3  // Transaction content
	FieldTOT = 4  // Type of transaction
	FieldDAT = 5  // Date
	FieldTCN = 9  // Transaction control number
	FieldDCS = 15 // Directory of character sets
)

// FieldData is the field number of binary image data in tagged records.
const FieldData = 999

// RecordTypes lists the supported record types in the order they are visited and encoded.
var RecordTypes = []int{1, 2, 4, 9, 10, 13, 14}

func isSupportedRecordType(t int) bool {
	for _, rt := range RecordTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// FieldKey identifies a field within a NIST file.
type FieldKey struct {
	Type   int // Record type, such as 9 in 9.302
	Record int // Record instance among records of the same type, starting at 1
	Field  int // Field number, such as 302 in 9.302
}

// FormatFieldKey formats a field key as type.field with the field number zero-padded to three digits.
func FormatFieldKey(recordType, field int) string {
	return fmt.Sprintf("%d.%03d", recordType, field)
}

func (k FieldKey) String() string {
	return FormatFieldKey(k.Type, k.Field)
}

var fieldKeyRegexp = regexp.MustCompile(`^(\d+)\.(\d+)$`)

// ParseFieldKey parses a key in the form type.field, such as 1.003.
// The record instance of the returned key is 1.
func ParseFieldKey(s string) (FieldKey, error) {
	m := fieldKeyRegexp.FindStringSubmatch(s)
	if m == nil {
		return FieldKey{}, fmt.Errorf("gonist: field key '%s' does not have a correct format of 'x.yyy'", s)
	}
	t, err := strconv.Atoi(m[1])
	if err != nil {
		return FieldKey{}, fmt.Errorf("gonist: field key '%s': %w", s, err)
	}
	f, err := strconv.Atoi(m[2])
	if err != nil {
		return FieldKey{}, fmt.Errorf("gonist: field key '%s': %w", s, err)
	}
	return FieldKey{Type: t, Record: 1, Field: f}, nil
}

// Field is a field key together with its value.
type Field struct {
	Key   FieldKey
	Value Value
}

// Record maps field numbers to field values.
type Record map[int]Value

// Get returns the value of field n. The zero Value is returned for a missing field.
func (r Record) Get(n int) Value {
	return r[n]
}

// Text returns the text of field n if it is a single item, otherwise an empty string.
func (r Record) Text(n int) string {
	s, _ := r[n].Text()
	return s
}

// FieldNumbers returns the field numbers present in the record in ascending order.
func (r Record) FieldNumbers() []int {
	numbers := make([]int, 0, len(r))
	for n := range r {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// Copy returns a copy of the record. Values are shared.
func (r Record) Copy() Record {
	c := make(Record, len(r))
	for n, v := range r {
		c[n] = v.copyShallow()
	}
	return c
}

// File is a decoded NIST file.
//
// Type1 is always present. Type2 is nil when the file does not contain a Type-2 record.
type File struct {
	Type1  Record
	Type2  Record
	Type4  []Record
	Type9  []Record
	Type10 []Record
	Type13 []Record
	Type14 []Record
}

// TOT returns the type of transaction (field 1.004).
func (f *File) TOT() string {
	if f == nil || f.Type1 == nil {
		return ""
	}
	return f.Type1.Text(FieldTOT)
}

// Records returns the records of the given record type in file order.
func (f *File) Records(recordType int) []Record {
	switch recordType {
	case 1:
		if f.Type1 != nil {
			return []Record{f.Type1}
		}
	case 2:
		if f.Type2 != nil {
			return []Record{f.Type2}
		}
	case 4:
		return f.Type4
	case 9:
		return f.Type9
	case 10:
		return f.Type10
	case 13:
		return f.Type13
	case 14:
		return f.Type14
	}
	return nil
}

// Record returns record instance n (starting at 1) of the given type, or nil.
func (f *File) Record(recordType, n int) Record {
	records := f.Records(recordType)
	if n < 1 || n > len(records) {
		return nil
	}
	return records[n-1]
}

// AddRecord appends a record of the given type. Types 1 and 2 hold a single record which is replaced.
func (f *File) AddRecord(recordType int, r Record) {
	switch recordType {
	case 1:
		f.Type1 = r
	case 2:
		f.Type2 = r
	case 4:
		f.Type4 = append(f.Type4, r)
	case 9:
		f.Type9 = append(f.Type9, r)
	case 10:
		f.Type10 = append(f.Type10, r)
	case 13:
		f.Type13 = append(f.Type13, r)
	case 14:
		f.Type14 = append(f.Type14, r)
	}
}

// ShallowCopy copies the structure of the file: every record map is new but field values are shared.
func (f *File) ShallowCopy() *File {
	c := &File{}
	for _, t := range RecordTypes {
		for range f.Records(t) {
			c.AddRecord(t, Record{})
		}
	}
	_ = VisitFile(f, Strategy{}, nil, VisitRecord, func(_ *File, field Field, _ *FieldOptions) (Value, error) {
		c.Record(field.Key.Type, field.Key.Record)[field.Key.Field] = field.Value.copyShallow()
		return Value{}, nil
	})
	return c
}
