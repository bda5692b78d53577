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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    FieldKey
		wantErr bool
	}{
		{"padded", "1.003", FieldKey{Type: 1, Record: 1, Field: 3}, false},
		{"unpadded", "10.999", FieldKey{Type: 10, Record: 1, Field: 999}, false},
		{"missing field", "1.", FieldKey{}, true},
		{"letters", "1.abc", FieldKey{}, true},
		{"sign", "-1.003", FieldKey{}, true},
		{"trailing", "1.003 ", FieldKey{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFieldKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFieldKey(t *testing.T) {
	assert.Equal(t, "1.003", FormatFieldKey(1, 3))
	assert.Equal(t, "9.302", FieldKey{Type: 9, Record: 2, Field: 302}.String())
	assert.Equal(t, "10.1000", FormatFieldKey(10, 1000))
}

func TestValueAccessors(t *testing.T) {
	tests := []struct {
		name   string
		value  Value
		kind   Kind
		length int
		str    string
		at00   string
	}{
		{"none", Value{}, KindNone, 0, "", ""},
		{"item", Item("Müller"), KindItem, 6, "Müller", "Müller"},
		{"binary", Binary([]byte{1, 2, 3}), KindBinary, 3, "<3 bytes>", ""},
		{"set", Items("1", "2"), KindSubfields, 1, "[[1 2]]", "1"},
		{"subfields", Subfields(Scalar("a"), Set("b", "c")), KindSubfields, 2, "[a [b c]]", "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.value.Kind())
			assert.Equal(t, tt.length, tt.value.Len())
			assert.Equal(t, tt.str, tt.value.String())
			assert.Equal(t, tt.at00, tt.value.At(0, 0))
		})
	}

	v := Subfields(Scalar("a"), Set("b", "c"))
	assert.Equal(t, "c", v.At(1, 1))
	assert.Equal(t, "", v.At(2, 0))
	assert.Equal(t, "", v.At(1, 5))
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Item("a").Equal(Item("a")))
	assert.False(t, Item("a").Equal(Items("a")))
	assert.True(t, Items("a", "b").Equal(Subfields(Set("a", "b"))))
	assert.False(t, Subfields(Scalar("a")).Equal(Subfields(Set("a"))))
	assert.True(t, Binary([]byte{1}).Equal(Binary([]byte{1})))
	assert.False(t, Binary([]byte{1}).Equal(Binary([]byte{2})))
}

func TestValueIsEmpty(t *testing.T) {
	assert.True(t, Value{}.IsEmpty())
	assert.True(t, Item("").IsEmpty())
	assert.False(t, Item("0").IsEmpty())
	assert.False(t, Binary(nil).IsEmpty())
}

func TestFileRecords(t *testing.T) {
	f := &File{}
	f.AddRecord(1, Record{FieldTOT: Item("CRM")})
	f.AddRecord(2, Record{4: Item("first")})
	f.AddRecord(2, Record{4: Item("second")})
	f.AddRecord(10, Record{3: Item("FACE")})
	f.AddRecord(10, Record{3: Item("SMT")})

	assert.Equal(t, "CRM", f.TOT())
	assert.Len(t, f.Records(2), 1)
	assert.Equal(t, "second", f.Record(2, 1).Text(4))
	assert.Len(t, f.Records(10), 2)
	assert.Equal(t, "SMT", f.Record(10, 2).Text(3))
	assert.Nil(t, f.Record(10, 0))
	assert.Nil(t, f.Record(10, 3))
	assert.Nil(t, f.Records(4))
	assert.Nil(t, f.Records(7))

	var empty *File
	assert.Equal(t, "", empty.TOT())
}

func TestRecordFieldNumbers(t *testing.T) {
	r := Record{999: Binary(nil), 1: Item("10"), 3: Item("FACE"), 20: Item("x")}
	assert.Equal(t, []int{1, 3, 20, 999}, r.FieldNumbers())
	assert.Equal(t, "FACE", r.Text(3))
	assert.Equal(t, "", r.Text(999))
	assert.Equal(t, KindNone, r.Get(4).Kind())
}
