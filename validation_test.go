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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	zeroLengths := testEncodeOptions()
	zeroLengths.Default[1][4].MaxLength = Literal(0)
	zeroLengths.Default[1][2].MinLength = Literal(0)

	tests := []struct {
		name       string
		modify     func(f *File)
		opts       []Option
		wantSource *Source
		wantDetail string
	}{
		{
			name:   "valid",
			modify: func(f *File) {},
		},
		{
			name:       "missing mandatory 1.004",
			modify:     func(f *File) { delete(f.Type1, 4) },
			wantSource: &Source{Type: 1, Record: 1, Field: 4},
			wantDetail: "Field 1.004 is mandatory but not provided",
		},
		{
			name:       "empty mandatory value",
			modify:     func(f *File) { f.Type1[7] = Item("") },
			wantSource: &Source{Type: 1, Record: 1, Field: 7},
			wantDetail: "Field 1.007 is mandatory but not provided",
		},
		{
			name:   "missing mandatory field with default value",
			modify: func(f *File) { delete(f.Type1, 2) },
		},
		{
			name:   "missing mandatory field ignored",
			modify: func(f *File) { delete(f.Type1, 4) },
			opts:   []Option{WithIgnoreMissingMandatoryFields(true)},
		},
		{
			name:       "maxLength exceeded",
			modify:     func(f *File) { f.Type1[2] = Item("0502x") },
			wantSource: &Source{Type: 1, Record: 1, Field: 2},
			wantDetail: "Field 1.002 exceeds maximum length of 4",
		},
		{
			name:       "minLength not met",
			modify:     func(f *File) { f.Type1[2] = Item("02") },
			wantSource: &Source{Type: 1, Record: 1, Field: 2},
			wantDetail: "Field 1.002 does not meet minimal length of 3",
		},
		{
			name:       "empty value with a length limit",
			modify:     func(f *File) { f.Type1[2] = Item("") },
			wantSource: &Source{Type: 1, Record: 1, Field: 2},
			wantDetail: "Field 1.002 exceeds maximum length of 4",
		},
		{
			name:   "zero length limits are not checked",
			modify: func(f *File) {},
			opts:   []Option{WithCodecOptions(zeroLengths)},
		},
		{
			name:       "regex of 1.002",
			modify:     func(f *File) { f.Type1[2] = Item("0x02") },
			wantSource: &Source{Type: 1, Record: 1, Field: 2},
			wantDetail: "Expected three or four digits for field 1.002",
		},
		{
			name:       "regex of 1.005",
			modify:     func(f *File) { f.Type1[5] = Item("20190x17") },
			wantSource: &Source{Type: 1, Record: 1, Field: 5},
			wantDetail: "Expected eight digits for field 1.005",
		},
		{
			name:       "regex of optional 1.006",
			modify:     func(f *File) { f.Type1[6] = Item("10") },
			wantSource: &Source{Type: 1, Record: 1, Field: 6},
			wantDetail: "Expected a number between 1 and 9 for field 1.006",
		},
		{
			name:   "checks ignored",
			modify: func(f *File) { f.Type1[6] = Item("10") },
			opts:   []Option{WithIgnoreValidationChecks(true)},
		},
		{
			name:       "Type-1 not 7-bit ASCII",
			modify:     func(f *File) { f.Type1[7] = Item("DAI03545ě") },
			wantSource: &Source{Type: 1, Record: 1, Field: 7},
			wantDetail: "Field 1.007 is not 7-bit ASCII",
		},
		{
			name:   "Type-2 not 7-bit ASCII",
			modify: func(f *File) { f.Type2[4] = Item("Koloděj") },
		},
		{
			name:       "forbidden LEN",
			modify:     func(f *File) { f.Type2[1] = Item("56") },
			wantSource: &Source{Type: 2, Record: 1, Field: 1},
			wantDetail: "Field 2.001 (LEN) must not be provided",
		},
		{
			name:       "forbidden LEN not ignored",
			modify:     func(f *File) { f.Type1[1] = Item("137") },
			opts:       []Option{WithIgnoreValidationChecks(true), WithIgnoreMissingMandatoryFields(true)},
			wantSource: &Source{Type: 1, Record: 1, Field: 1},
			wantDetail: "Field 1.001 (LEN) must not be provided",
		},
		{
			name:       "forbidden IDC",
			modify:     func(f *File) { f.Type2[2] = Item("00") },
			wantSource: &Source{Type: 2, Record: 1, Field: 2},
			wantDetail: "Field 2.002 (IDC) must not be provided",
		},
		{
			name: "SRE without hit indicator",
			modify: func(f *File) {
				f.Type1[4] = Item("SRE")
			},
			wantSource: &Source{Type: 2, Record: 1, Field: 59},
			wantDetail: "Field 2.059 is mandatory but not provided",
		},
		{
			name: "SRE no hit without candidates",
			modify: func(f *File) {
				f.Type1[4] = Item("SRE")
				f.Type2[59] = Item("N")
			},
		},
		{
			name: "SRE hit without candidates",
			modify: func(f *File) {
				f.Type1[4] = Item("SRE")
				f.Type2[59] = Item("I")
			},
			wantSource: &Source{Type: 2, Record: 1, Field: 64},
			wantDetail: "Field 2.064 is mandatory but not provided",
		},
		{
			name: "SRE hit indicator too long",
			modify: func(f *File) {
				f.Type1[4] = Item("SRE")
				f.Type2[59] = Item("IN")
				f.Type2[64] = Item("X")
			},
			wantSource: &Source{Type: 2, Record: 1, Field: 59},
			wantDetail: "Field 2.059 exceeds maximum length of 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &File{Type1: type1("CRM", "20190717"), Type2: johnDoe()}
			tt.modify(f)
			err := Validate(f, append([]Option{WithCodecOptions(testEncodeOptions())}, tt.opts...)...)
			if tt.wantDetail == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %T: %v", err, err)
			assert.Equal(t, tt.wantSource, ve.Source)
			assert.Equal(t, tt.wantDetail, ve.Detail)
		})
	}
}

func TestValidateCustomRule(t *testing.T) {
	c := testEncodeOptions()
	c.Default[2] = RecordOptions{
		7: {Rules: []func(Field, *File) error{
			func(field Field, _ *File) error {
				if field.Value.String() > "2000" {
					return errors.New("Expected a date before 2000")
				}
				return nil
			},
		}},
	}
	f := &File{Type1: type1("CRM", "20190717"), Type2: johnDoe()}
	require.NoError(t, Validate(f, WithCodecOptions(c)))

	f.Type2[7] = Item("2001-01-01")
	err := Validate(f, WithCodecOptions(c))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Expected a date before 2000 for field 2.007", ve.Detail)
}

func TestValidateMissingType1(t *testing.T) {
	err := Validate(&File{Type2: johnDoe()})
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestReport(t *testing.T) {
	f := &File{Type1: type1("CRM", "20190x17"), Type2: johnDoe()}
	delete(f.Type1, 4)
	f.Type1[2] = Item("0x02")
	f.Type1[7] = Item("DAI03545ě")
	f.Type2[1] = Item("56")

	v := Report(f, WithCodecOptions(testEncodeOptions()))
	require.False(t, v.Valid())

	var details []string
	for _, err := range v {
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		details = append(details, ve.Detail)
	}
	assert.Equal(t, []string{
		"Field 1.004 is mandatory but not provided",
		"Expected three or four digits for field 1.002",
		"Expected eight digits for field 1.005",
		"Field 1.007 is not 7-bit ASCII",
	}, details)
	assert.Contains(t, v.String(), "gonist: Validation errors:\n  1: ")

	v = Report(f, WithCodecOptions(testEncodeOptions()), WithIgnoreValidationChecks(true))
	assert.Len(t, v, 1)
}
