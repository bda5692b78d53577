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
	"strings"
)

// noOffset marks an offset which is not known for a DecodeError.
const noOffset = -1

// Source identifies the NIST field an error originates from.
type Source struct {
	Type     int
	Record   int
	Field    int
	SubField int // zero when not relevant
}

func sourceOf(key FieldKey) *Source {
	return &Source{Type: key.Type, Record: key.Record, Field: key.Field}
}

func (s *Source) String() string {
	if s == nil {
		return ""
	}
	if s.SubField > 0 {
		return fmt.Sprintf("%d/%d/%d/%d", s.Type, s.Record, s.Field, s.SubField)
	}
	return fmt.Sprintf("%d/%d/%d", s.Type, s.Record, s.Field)
}

// DecodeError is used for structural malformation of the input buffer.
type DecodeError struct {
	Detail      string
	Source      *Source
	StartOffset int
	EndOffset   int
}

func newDecodeError(source *Source, startOffset, endOffset int, msg string, param ...interface{}) *DecodeError {
	return &DecodeError{
		Detail:      fmt.Sprintf(msg, param...),
		Source:      source,
		StartOffset: startOffset,
		EndOffset:   endOffset,
	}
}

// HasOffsets reports whether the error carries byte offsets into the decoded buffer.
func (e *DecodeError) HasOffsets() bool {
	return e.StartOffset != noOffset && e.EndOffset != noOffset
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	sb.WriteString("gonist: decode: ")
	sb.WriteString(e.Detail)
	if e.Source != nil {
		sb.WriteString(" (source ")
		sb.WriteString(e.Source.String())
		sb.WriteByte(')')
	}
	if e.HasOffsets() {
		fmt.Fprintf(&sb, " [%d, %d]", e.StartOffset, e.EndOffset)
	}
	return sb.String()
}

// ParseError is used when a caller supplied field parser fails.
type ParseError struct {
	Detail  string
	Source  *Source
	wrapped error
}

func newParseError(key FieldKey, wrapped error) *ParseError {
	return &ParseError{
		Detail:  fmt.Sprintf("cannot parse field %s: %v", key, wrapped),
		Source:  sourceOf(key),
		wrapped: wrapped,
	}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("gonist: parse: %s (source %s)", e.Detail, e.Source)
}

func (e *ParseError) Unwrap() error {
	return e.wrapped
}

// ValidationError is used for violations of the configured field rules.
// It always names the offending field and never carries offsets.
type ValidationError struct {
	Detail string
	Source *Source
}

func newValidationError(key FieldKey, msg string, param ...interface{}) *ValidationError {
	return &ValidationError{Detail: fmt.Sprintf(msg, param...), Source: sourceOf(key)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("gonist: validation: %s (source %s)", e.Detail, e.Source)
}

// EncodeError is used when the encoded output cannot be produced.
type EncodeError struct {
	Detail  string
	wrapped error
}

func newEncodeError(wrapped error, msg string, param ...interface{}) *EncodeError {
	return &EncodeError{Detail: fmt.Sprintf(msg, param...), wrapped: wrapped}
}

func (e *EncodeError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("gonist: encode: %s: %v", e.Detail, e.wrapped)
	}
	return fmt.Sprintf("gonist: encode: %s", e.Detail)
}

func (e *EncodeError) Unwrap() error {
	return e.wrapped
}

type multiErr []error

func (e multiErr) Error() string {
	switch len(e) {

	case 0:
		return ""

	case 1:
		return e[0].Error()
	}

	const (
		start = "["
		sep   = ", "
		end   = "]"
	)

	n := len(start) + len(end) + (len(sep) * (len(e) - 1))
	for i := 0; i < len(e); i++ {
		n += len(e[i].Error())
	}

	var b strings.Builder
	b.Grow(n)
	b.WriteString(start)
	b.WriteString(e[0].Error())
	for _, s := range e[1:] {
		b.WriteString(sep)
		b.WriteString(s.Error())
	}
	b.WriteString(end)
	return b.String()
}

// Join combines errors into one error. Nil errors are dropped and nil is returned
// when nothing is left.
func Join(errs ...error) error {
	var me multiErr
	for _, err := range errs {
		if err != nil {
			me = append(me, err)
		}
	}
	if len(me) == 0 {
		return nil
	}
	return me
}
