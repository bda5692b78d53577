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
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Validation contain validation results.
type Validation []error

func (v *Validation) String() string {
	if len(*v) == 0 {
		return ""
	}

	sb := strings.Builder{}
	sb.WriteString("gonist: Validation errors:\n")
	for i, e := range *v {
		sb.WriteString("  ")
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(": ")
		sb.WriteString(e.Error())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (v *Validation) AddError(err error) {
	*v = append(*v, err)
}

// Valid reports whether no errors were found.
func (v *Validation) Valid() bool {
	return len(*v) == 0
}

var regexCache sync.Map

func compileRegex(expr string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Load(expr); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	regexCache.Store(expr, re)
	return re, nil
}

func checkMandatory(f *File, field Field, opts *FieldOptions) (Value, error) {
	if opts == nil || !opts.Mandatory.IsSet() {
		return Value{}, nil
	}
	required := opts.Mandatory.Resolve(field, f) && !opts.DefaultValue.IsSet()
	if required && field.Value.IsEmpty() {
		return Value{}, newValidationError(field.Key, "Field %s is mandatory but not provided", field.Key)
	}
	return Value{}, nil
}

// Length limits of zero count as not configured. An empty value fails a configured limit.
func checkMaxLength(f *File, field Field, opts *FieldOptions) (Value, error) {
	if opts == nil || !opts.MaxLength.IsSet() {
		return Value{}, nil
	}
	maxLength := opts.MaxLength.Resolve(field, f)
	if maxLength == 0 {
		return Value{}, nil
	}
	if field.Value.IsEmpty() || field.Value.Len() > maxLength {
		return Value{}, newValidationError(field.Key, "Field %s exceeds maximum length of %d", field.Key, maxLength)
	}
	return Value{}, nil
}

func checkMinLength(f *File, field Field, opts *FieldOptions) (Value, error) {
	if opts == nil || !opts.MinLength.IsSet() {
		return Value{}, nil
	}
	minLength := opts.MinLength.Resolve(field, f)
	if minLength == 0 {
		return Value{}, nil
	}
	if field.Value.IsEmpty() || field.Value.Len() < minLength {
		return Value{}, newValidationError(field.Key, "Field %s does not meet minimal length of %d", field.Key, minLength)
	}
	return Value{}, nil
}

// checkRegexs checks the first configured regex only.
func checkRegexs(f *File, field Field, opts *FieldOptions) (Value, error) {
	if opts == nil || len(opts.Regexs) == 0 {
		return Value{}, nil
	}
	regex := opts.Regexs[0].Resolve(field, f)
	re, err := compileRegex(regex.Regex)
	if err != nil {
		return Value{}, newValidationError(field.Key, "Invalid regex '%s' for field %s: %v", regex.Regex, field.Key, err)
	}
	if s, ok := field.Value.Text(); !ok || !re.MatchString(s) {
		return Value{}, newValidationError(field.Key, "%s for field %s", regex.ErrMsg, field.Key)
	}
	return Value{}, nil
}

func checkRules(f *File, field Field, opts *FieldOptions) (Value, error) {
	if opts == nil {
		return Value{}, nil
	}
	for _, rule := range opts.Rules {
		if err := rule(field, f); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return Value{}, ve
			}
			return Value{}, newValidationError(field.Key, "%s for field %s", err.Error(), field.Key)
		}
	}
	return Value{}, nil
}

func is7bitASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

func check7bitASCII(_ *File, field Field, _ *FieldOptions) (Value, error) {
	if !field.Value.items(is7bitASCII) {
		return Value{}, newValidationError(field.Key, "Field %s is not 7-bit ASCII", field.Key)
	}
	return Value{}, nil
}

func checkForbiddenLEN(_ *File, field Field, _ *FieldOptions) (Value, error) {
	if field.Key.Field == FieldLEN {
		return Value{}, newValidationError(field.Key, "Field %s (LEN) must not be provided", field.Key)
	}
	return Value{}, nil
}

func checkForbiddenIDC(_ *File, field Field, _ *FieldOptions) (Value, error) {
	if field.Key.Field == FieldIDC && field.Key.Type != 1 {
		return Value{}, newValidationError(field.Key, "Field %s (IDC) must not be provided", field.Key)
	}
	return Value{}, nil
}

// validationStep is one check of the validation sequence.
type validationStep struct {
	check    FieldVisitor
	strategy Strategy
	type1    bool // restrict the check to the Type-1 record
	ignore   func(o *options) bool
	enabled  func(o *options) bool
}

func never(*options) bool  { return false }
func always(*options) bool { return true }

func ignoreChecks(o *options) bool { return o.ignoreValidationChecks }

var validationSteps = []validationStep{
	{check: checkMandatory, strategy: Strategy{VisitMissingFields: true},
		ignore: func(o *options) bool { return o.ignoreMissingMandatoryFields }, enabled: always},
	{check: checkMaxLength, ignore: ignoreChecks, enabled: always},
	{check: checkMinLength, ignore: ignoreChecks, enabled: always},
	{check: checkRegexs, ignore: ignoreChecks, enabled: always},
	{check: checkRules, ignore: ignoreChecks, enabled: always},
	{check: check7bitASCII, type1: true, ignore: ignoreChecks, enabled: always},
	{check: checkForbiddenLEN, ignore: never, enabled: func(o *options) bool { return o.checkForbiddenFields }},
	{check: checkForbiddenIDC, ignore: never, enabled: func(o *options) bool { return o.checkForbiddenFields }},
}

func (s validationStep) run(f *File, o *options, strategy Strategy, check FieldVisitor) error {
	if s.type1 {
		return VisitRecord(RecordVisit{
			File:     f,
			Type:     1,
			Number:   1,
			Record:   f.Type1,
			Strategy: strategy,
			Visitor:  check,
		})
	}
	return VisitFile(f, strategy, o.codecOptions, nil, check)
}

// validate runs all validation steps in order and returns the first failure which is not ignored.
func validate(f *File, o *options) error {
	for _, step := range validationSteps {
		if !step.enabled(o) {
			continue
		}
		if err := step.run(f, o, step.strategy, step.check); err != nil && !step.ignore(o) {
			return err
		}
	}
	return nil
}

// Validate checks a NIST file against the configured rules before encoding.
// Fields xx.001 (LEN) and xx.002 (IDC, except 1.002) are computed during encoding and must not be provided.
func Validate(f *File, opts ...Option) error {
	o := newOptions(opts...)
	o.checkForbiddenFields = true
	if f == nil || f.Type1 == nil {
		return newValidationError(FieldKey{Type: 1, Record: 1}, "Type-1 record is missing")
	}
	return validate(f, o)
}

// Report validates a decoded NIST file and returns every failure instead of stopping at the first one.
// Ignore options are honored; forbidden LEN and IDC fields are not reported.
func Report(f *File, opts ...Option) Validation {
	o := newOptions(opts...)
	v := Validation{}
	if f == nil || f.Type1 == nil {
		v.AddError(newValidationError(FieldKey{Type: 1, Record: 1}, "Type-1 record is missing"))
		return v
	}
	for _, step := range validationSteps {
		if !step.enabled(o) || step.ignore(o) {
			continue
		}
		check := step.check
		collect := func(f *File, field Field, fo *FieldOptions) (Value, error) {
			_, err := check(f, field, fo)
			if err != nil {
				v.AddError(err)
			}
			return Value{}, err
		}
		strategy := step.strategy
		strategy.NoStopOnErrors = true
		_ = step.run(f, o, strategy, collect)
	}
	return v
}
