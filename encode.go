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
	log "github.com/sirupsen/logrus"
)

// encoder serializes a populated file into a preallocated buffer.
type encoder struct {
	buf []byte
}

func (e *encoder) appendField(_ *File, field Field, _ *FieldOptions) (Value, error) {
	e.buf = appendField(e.buf, field.Key, field.Value)
	return Value{}, nil
}

func (e *encoder) encodeRecord(rv RecordVisit) error {
	if rv.Type == 4 {
		buf, err := AppendType4Record(e.buf, rv.Record, rv.Number)
		if err != nil {
			return err
		}
		e.buf = buf
		return nil
	}

	rv.Visitor = e.appendField
	if err := VisitRecord(rv); err != nil {
		return err
	}
	// The last group separator of a record becomes the file separator.
	e.buf[len(e.buf)-1] = FS
	return nil
}

// Encode validates, populates and serializes a NIST file.
//
// The file is validated first with checks for forbidden fields enabled. The input file is not modified.
func Encode(f *File, opts ...Option) ([]byte, error) {
	o := newOptions(opts...)
	o.checkForbiddenFields = true
	if f == nil || f.Type1 == nil {
		return nil, newValidationError(FieldKey{Type: 1, Record: 1}, "Type-1 record is missing")
	}
	if err := validate(f, o); err != nil {
		return nil, err
	}

	p, total, err := populate(f, o)
	if err != nil {
		return nil, err
	}
	if int64(total) > o.maxEncodedLength {
		return nil, newEncodeError(nil, "Cannot allocate buffer of %d bytes: limit is %d bytes", total, o.maxEncodedLength)
	}

	e := &encoder{buf: make([]byte, 0, total)}
	if err := VisitFile(p, Strategy{}, nil, e.encodeRecord, nil); err != nil {
		return nil, err
	}
	if len(e.buf) != total {
		return nil, newEncodeError(nil, "Encoded %d bytes but %d bytes expected", len(e.buf), total)
	}
	log.Debugf("gonist: encoded %s transaction, %d bytes", p.TOT(), total)
	return e.buf, nil
}
