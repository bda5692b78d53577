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
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind is the shape of a field value.
type Kind uint8

const (
	KindNone      Kind = iota // No value
	KindItem                  // A single text information item
	KindBinary                // A single binary information item
	KindSubfields             // An ordered list of subfields
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindBinary:
		return "binary"
	case KindSubfields:
		return "subfields"
	default:
		return "none"
	}
}

// Subfield is either a single information item or an ordered list of information items.
// Items of a set are joined by the unit separator when encoded.
type Subfield struct {
	items []string
	set   bool
}

// Scalar creates a subfield holding a single information item.
func Scalar(item string) Subfield {
	return Subfield{items: []string{item}}
}

// Set creates a subfield holding a list of information items.
func Set(items ...string) Subfield {
	return Subfield{items: append([]string(nil), items...), set: true}
}

// IsSet reports whether the subfield is a list of items rather than a single item.
func (s Subfield) IsSet() bool {
	return s.set
}

// Items returns the information items of the subfield.
func (s Subfield) Items() []string {
	return s.items
}

// Item returns information item i or an empty string if there is no such item.
func (s Subfield) Item(i int) string {
	if i < 0 || i >= len(s.items) {
		return ""
	}
	return s.items[i]
}

func (s Subfield) String() string {
	if !s.set {
		return s.Item(0)
	}
	return "[" + strings.Join(s.items, " ") + "]"
}

// Value is the value of a NIST field.
//
// The zero Value has KindNone and represents a missing field.
type Value struct {
	kind      Kind
	item      string
	data      []byte
	subfields []Subfield
}

// Item creates a field value holding a single text information item.
func Item(s string) Value {
	return Value{kind: KindItem, item: s}
}

// Binary creates a field value holding a binary information item.
// The slice is not copied.
func Binary(b []byte) Value {
	return Value{kind: KindBinary, data: b}
}

// Subfields creates a field value holding an ordered list of subfields.
// Subfields are joined by the record separator when encoded.
func Subfields(subfields ...Subfield) Value {
	return Value{kind: KindSubfields, subfields: append([]Subfield(nil), subfields...)}
}

// Items creates a field value holding one subfield with multiple information items
// which do not repeat.
func Items(items ...string) Value {
	return Subfields(Set(items...))
}

// Kind returns the shape of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsEmpty reports whether the value counts as not provided: a missing value or an empty text item.
func (v Value) IsEmpty() bool {
	return v.kind == KindNone || (v.kind == KindItem && v.item == "")
}

// String returns the text of a single item value. For other kinds a human readable rendering is returned.
func (v Value) String() string {
	switch v.kind {
	case KindItem:
		return v.item
	case KindBinary:
		return "<" + strconv.Itoa(len(v.data)) + " bytes>"
	case KindSubfields:
		parts := make([]string, len(v.subfields))
		for i, s := range v.subfields {
			parts[i] = s.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return ""
	}
}

// Text returns the text of a single item value and true, or false if the value is not a text item.
func (v Value) Text() (string, bool) {
	return v.item, v.kind == KindItem
}

// Bytes returns the content of a binary value.
func (v Value) Bytes() []byte {
	return v.data
}

// Subfields returns the list of subfields of a subfields value.
func (v Value) Subfields() []Subfield {
	return v.subfields
}

// At returns information item i of subfield s, or an empty string if it does not exist.
// A single item value is treated as one subfield with one item.
func (v Value) At(s, i int) string {
	switch v.kind {
	case KindItem:
		if s == 0 && i == 0 {
			return v.item
		}
	case KindSubfields:
		if s >= 0 && s < len(v.subfields) {
			return v.subfields[s].Item(i)
		}
	}
	return ""
}

// Len returns the length used by length rules: runes of a text item, bytes of a binary item
// or the number of subfields.
func (v Value) Len() int {
	switch v.kind {
	case KindItem:
		return utf8.RuneCountInString(v.item)
	case KindBinary:
		return len(v.data)
	case KindSubfields:
		return len(v.subfields)
	default:
		return 0
	}
}

// Equal reports whether two values have the same shape and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindItem:
		return v.item == o.item
	case KindBinary:
		return bytes.Equal(v.data, o.data)
	case KindSubfields:
		if len(v.subfields) != len(o.subfields) {
			return false
		}
		for i := range v.subfields {
			a, b := v.subfields[i], o.subfields[i]
			if a.set != b.set || len(a.items) != len(b.items) {
				return false
			}
			for j := range a.items {
				if a.items[j] != b.items[j] {
					return false
				}
			}
		}
	}
	return true
}

// items visits every text item of the value. Binary items are skipped.
func (v Value) items(fn func(string) bool) bool {
	switch v.kind {
	case KindItem:
		return fn(v.item)
	case KindSubfields:
		for _, s := range v.subfields {
			for _, item := range s.items {
				if !fn(item) {
					return false
				}
			}
		}
	}
	return true
}

// copyShallow copies the subfield list so that the copy can be extended without touching the original.
// Information items are shared.
func (v Value) copyShallow() Value {
	if v.kind == KindSubfields {
		v.subfields = append([]Subfield(nil), v.subfields...)
	}
	return v
}
