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

import "sort"

// Strategy controls how a traversal proceeds.
type Strategy struct {
	// NoStopOnErrors continues the traversal after a failure. The last failure is returned.
	NoStopOnErrors bool

	// VisitMissingFields visits also fields which have options configured but are missing in the record.
	// Such fields are visited with the zero Value after all present fields.
	VisitMissingFields bool
}

// FieldVisitor is called for every visited field with the options resolved for it (possibly nil).
// A returned non-empty Value replaces the value of the field in the record.
type FieldVisitor func(f *File, field Field, opts *FieldOptions) (Value, error)

// RecordVisit is the input of a RecordVisitor.
type RecordVisit struct {
	File     *File
	Type     int
	Number   int // Record instance, starting at 1
	Record   Record
	Options  RecordOptions
	Strategy Strategy
	Visitor  FieldVisitor
}

// RecordVisitor is called for every visited record.
type RecordVisitor func(rv RecordVisit) error

func noopFieldVisitor(*File, Field, *FieldOptions) (Value, error) {
	return Value{}, nil
}

// VisitRecord visits the fields of a record in ascending field number order. It is the default RecordVisitor.
func VisitRecord(rv RecordVisit) error {
	visitor := rv.Visitor
	if visitor == nil {
		visitor = noopFieldVisitor
	}

	numbers := rv.Record.FieldNumbers()
	if rv.Strategy.VisitMissingFields && rv.Options != nil {
		var missing []int
		for n := range rv.Options {
			if _, ok := rv.Record[n]; !ok {
				missing = append(missing, n)
			}
		}
		sort.Ints(missing)
		numbers = append(numbers, missing...)
	}

	var summary error
	for _, n := range numbers {
		field := Field{
			Key:   FieldKey{Type: rv.Type, Record: rv.Number, Field: n},
			Value: rv.Record[n],
		}
		v, err := visitor(rv.File, field, rv.Options[n])
		if err != nil {
			if !rv.Strategy.NoStopOnErrors {
				return err
			}
			summary = err
			continue
		}
		if !v.IsEmpty() && rv.Record != nil {
			rv.Record[n] = v
		}
	}
	return summary
}

// VisitFile visits every record of every record type in file order.
//
// Field options are resolved once per traversal for the type of transaction of the file.
// A nil RecordVisitor defaults to VisitRecord and a nil FieldVisitor does nothing.
func VisitFile(f *File, s Strategy, opts *CodecOptions, rv RecordVisitor, fv FieldVisitor) error {
	if rv == nil {
		rv = VisitRecord
	}
	if fv == nil {
		fv = noopFieldVisitor
	}
	perTot := opts.Resolve(f.TOT())

	var summary error
	for _, t := range RecordTypes {
		for i, r := range f.Records(t) {
			err := rv(RecordVisit{
				File:     f,
				Type:     t,
				Number:   i + 1,
				Record:   r,
				Options:  perTot[t],
				Strategy: s,
				Visitor:  fv,
			})
			if err != nil {
				if !s.NoStopOnErrors {
					return err
				}
				summary = err
			}
		}
	}
	return summary
}
