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

// Rule is a field rule which is either a literal value or computed from the visited field and file.
// The zero Rule is not set.
type Rule[T any] struct {
	literal T
	fn      func(Field, *File) T
	set     bool
}

// Literal creates a rule with a fixed value.
func Literal[T any](v T) Rule[T] {
	return Rule[T]{literal: v, set: true}
}

// Computed creates a rule whose value is computed for every visited field.
func Computed[T any](fn func(Field, *File) T) Rule[T] {
	return Rule[T]{fn: fn, set: fn != nil}
}

// IsSet reports whether the rule has been configured.
func (r Rule[T]) IsSet() bool {
	return r.set
}

// IsComputed reports whether the rule is computed.
func (r Rule[T]) IsComputed() bool {
	return r.fn != nil
}

// Resolve returns the value of the rule for the given field.
func (r Rule[T]) Resolve(field Field, f *File) T {
	if r.fn != nil {
		return r.fn(field, f)
	}
	return r.literal
}

// Regex is a regular expression a text field value must match.
type Regex struct {
	Regex  string
	ErrMsg string
}

// FieldOptions holds the rules for one field.
type FieldOptions struct {
	DefaultValue Rule[Value]
	Mandatory    Rule[bool]
	MaxLength    Rule[int]
	MinLength    Rule[int]
	Regexs       []Rule[Regex]

	// Rules are additional validation checks. A returned error fails validation of the field.
	Rules []func(Field, *File) error

	// Formatter replaces the field value before encoding.
	Formatter func(Field, *File) Value

	// Parser replaces the field value after decoding.
	Parser func(Field, *File) (Value, error)
}

// RecordOptions maps field numbers to field options.
type RecordOptions map[int]*FieldOptions

// TotOptions maps record types to record options.
type TotOptions map[int]RecordOptions

// CodecOptions holds field options for every processing path.
// Default applies to every file; ByTot is keyed by the type of transaction (field 1.004, case sensitive)
// and is merged on top of Default.
type CodecOptions struct {
	Default TotOptions
	ByTot   map[string]TotOptions
}

// Resolve returns the effective options for the given type of transaction.
//
// Options for the same field are merged property by property where properties set in the
// TOT specific bucket take precedence. Lists are replaced, not appended to.
func (c *CodecOptions) Resolve(tot string) TotOptions {
	if c == nil {
		return nil
	}
	specific := c.ByTot[tot]
	result := make(TotOptions, len(c.Default)+len(specific))
	for recordType, ro := range c.Default {
		result[recordType] = mergeRecordOptions(ro, specific[recordType])
	}
	for recordType, ro := range specific {
		if _, ok := result[recordType]; !ok {
			result[recordType] = mergeRecordOptions(nil, ro)
		}
	}
	return result
}

func mergeRecordOptions(def, tot RecordOptions) RecordOptions {
	result := make(RecordOptions, len(def)+len(tot))
	for n, fo := range def {
		result[n] = fo
	}
	for n, fo := range tot {
		result[n] = mergeFieldOptions(result[n], fo)
	}
	return result
}

func mergeFieldOptions(def, tot *FieldOptions) *FieldOptions {
	if def == nil {
		return tot
	}
	if tot == nil {
		return def
	}
	merged := *def
	if tot.DefaultValue.IsSet() {
		merged.DefaultValue = tot.DefaultValue
	}
	if tot.Mandatory.IsSet() {
		merged.Mandatory = tot.Mandatory
	}
	if tot.MaxLength.IsSet() {
		merged.MaxLength = tot.MaxLength
	}
	if tot.MinLength.IsSet() {
		merged.MinLength = tot.MinLength
	}
	if tot.Regexs != nil {
		merged.Regexs = tot.Regexs
	}
	if tot.Rules != nil {
		merged.Rules = tot.Rules
	}
	if tot.Formatter != nil {
		merged.Formatter = tot.Formatter
	}
	if tot.Parser != nil {
		merged.Parser = tot.Parser
	}
	return &merged
}
