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

// Package document converts between NIST files and YAML transaction documents.
//
// A document maps record types to records. Types 1 and 2 hold a single record, other
// types hold a list of records. A record maps field numbers to values:
//
//	1:
//	  4: CRM
//	  7: DAI035454
//	2:
//	  4: John
//	4:
//	  - 3: "0"
//	    4: ["7"]
//	    9: {file: right-thumb.wsq}
//	10:
//	  - 3: FACE
//	    999: {base64: /9j/4AAQ}
//
// A string is a single information item. A list holds subfields where a nested list is a
// set of information items. Binary fields reference a file relative to the document or
// carry base64 encoded content.
package document

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ivosh/gonist"
	"gopkg.in/yaml.v3"
)

// Unmarshal parses a transaction document. Files referenced by binary fields are resolved
// relative to dir.
func Unmarshal(data []byte, dir string) (*gonist.File, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("gonist: document: %w", err)
	}

	f := &gonist.File{}
	for _, recordType := range gonist.RecordTypes {
		n, ok := doc[strconv.Itoa(recordType)]
		if !ok {
			continue
		}
		delete(doc, strconv.Itoa(recordType))

		var records []*yaml.Node
		switch n.Kind {
		case yaml.MappingNode:
			records = []*yaml.Node{&n}
		case yaml.SequenceNode:
			records = n.Content
		default:
			return nil, fmt.Errorf("gonist: document: line %d: record type %d must be a record or a list of records", n.Line, recordType)
		}
		if recordType <= 2 && len(records) > 1 {
			return nil, fmt.Errorf("gonist: document: line %d: record type %d allows a single record", n.Line, recordType)
		}

		for _, rn := range records {
			r, err := unmarshalRecord(rn, recordType, dir)
			if err != nil {
				return nil, fmt.Errorf("gonist: document: %w", err)
			}
			f.AddRecord(recordType, r)
		}
	}
	for k, n := range doc {
		return nil, fmt.Errorf("gonist: document: line %d: unsupported record type '%s'", n.Line, k)
	}
	if f.Type1 == nil {
		return nil, fmt.Errorf("gonist: document: Type-1 record is missing")
	}
	return f, nil
}

// UnmarshalFile reads a transaction document from the named file.
func UnmarshalFile(path string) (*gonist.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, filepath.Dir(path))
}

func unmarshalRecord(n *yaml.Node, recordType int, dir string) (gonist.Record, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: record of type %d must be a mapping of field numbers", n.Line, recordType)
	}
	r := make(gonist.Record, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		fieldNumber, err := strconv.Atoi(k.Value)
		if err != nil || fieldNumber <= 0 {
			return nil, fmt.Errorf("line %d: field number '%s' of record type %d is not a positive number", k.Line, k.Value, recordType)
		}
		value, err := ValueFromNode(v, dir)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", gonist.FormatFieldKey(recordType, fieldNumber), err)
		}
		r[fieldNumber] = value
	}
	return r, nil
}

// ValueFromNode converts a YAML node into a field value. Files referenced by binary values are
// resolved relative to dir.
func ValueFromNode(n *yaml.Node, dir string) (gonist.Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return gonist.Item(n.Value), nil
	case yaml.SequenceNode:
		subfields := make([]gonist.Subfield, 0, len(n.Content))
		for _, c := range n.Content {
			switch c.Kind {
			case yaml.ScalarNode:
				subfields = append(subfields, gonist.Scalar(c.Value))
			case yaml.SequenceNode:
				items := make([]string, 0, len(c.Content))
				for _, i := range c.Content {
					if i.Kind != yaml.ScalarNode {
						return gonist.Value{}, fmt.Errorf("line %d: information items cannot be nested deeper than two levels", i.Line)
					}
					items = append(items, i.Value)
				}
				subfields = append(subfields, gonist.Set(items...))
			default:
				return gonist.Value{}, fmt.Errorf("line %d: unexpected subfield", c.Line)
			}
		}
		return gonist.Subfields(subfields...), nil
	case yaml.MappingNode:
		return binaryFromNode(n, dir)
	}
	return gonist.Value{}, fmt.Errorf("line %d: value must be a string, a list or a binary reference", n.Line)
}

type binaryDoc struct {
	File   string `yaml:"file"`
	Base64 string `yaml:"base64"`
	Size   *int   `yaml:"size"`
}

func binaryFromNode(n *yaml.Node, dir string) (gonist.Value, error) {
	var b binaryDoc
	if err := n.Decode(&b); err != nil {
		return gonist.Value{}, err
	}
	switch {
	case b.File != "" && b.Base64 != "":
		return gonist.Value{}, fmt.Errorf("line %d: binary value cannot have both file and base64", n.Line)
	case b.File != "":
		path := b.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return gonist.Value{}, err
		}
		return gonist.Binary(data), nil
	case b.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(b.Base64)
		if err != nil {
			return gonist.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return gonist.Binary(data), nil
	case b.Size != nil:
		return gonist.Value{}, fmt.Errorf("line %d: binary value of %d bytes has no content", n.Line, *b.Size)
	}
	return gonist.Value{}, fmt.Errorf("line %d: binary value needs file or base64", n.Line)
}

// Marshal renders a NIST file as a transaction document. Binary fields are summarized by
// their size.
func Marshal(f *gonist.File) ([]byte, error) {
	return marshal(f, func(_ gonist.FieldKey, data []byte) (*yaml.Node, error) {
		return mapping("size", strconv.Itoa(len(data)), "!!int"), nil
	})
}

// MarshalExtract renders a NIST file as a transaction document and writes the content of
// binary fields to files in dir. The document references the written files so it can be
// read back with Unmarshal.
func MarshalExtract(f *gonist.File, dir string) ([]byte, error) {
	return marshal(f, func(key gonist.FieldKey, data []byte) (*yaml.Node, error) {
		name := fmt.Sprintf("%d.%d.%03d.bin", key.Type, key.Record, key.Field)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return nil, err
		}
		return mapping("file", name, "!!str"), nil
	})
}

type binaryRenderer func(key gonist.FieldKey, data []byte) (*yaml.Node, error)

func marshal(f *gonist.File, binary binaryRenderer) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, recordType := range gonist.RecordTypes {
		records := f.Records(recordType)
		if len(records) == 0 {
			continue
		}

		var value *yaml.Node
		if recordType <= 2 {
			n, err := recordNode(records[0], gonist.FieldKey{Type: recordType, Record: 1}, binary)
			if err != nil {
				return nil, err
			}
			value = n
		} else {
			value = &yaml.Node{Kind: yaml.SequenceNode}
			for i, r := range records {
				n, err := recordNode(r, gonist.FieldKey{Type: recordType, Record: i + 1}, binary)
				if err != nil {
					return nil, err
				}
				value.Content = append(value.Content, n)
			}
		}
		root.Content = append(root.Content, scalar(strconv.Itoa(recordType), "!!int"), value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func recordNode(r gonist.Record, key gonist.FieldKey, binary binaryRenderer) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, fieldNumber := range r.FieldNumbers() {
		key.Field = fieldNumber
		v := r[fieldNumber]

		var value *yaml.Node
		switch v.Kind() {
		case gonist.KindBinary:
			b, err := binary(key, v.Bytes())
			if err != nil {
				return nil, err
			}
			value = b
		case gonist.KindSubfields:
			value = &yaml.Node{Kind: yaml.SequenceNode}
			for _, sf := range v.Subfields() {
				if !sf.IsSet() {
					value.Content = append(value.Content, scalar(sf.Item(0), "!!str"))
					continue
				}
				set := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
				for _, item := range sf.Items() {
					set.Content = append(set.Content, scalar(item, "!!str"))
				}
				value.Content = append(value.Content, set)
			}
		default:
			value = scalar(v.String(), "!!str")
		}
		n.Content = append(n.Content, scalar(strconv.Itoa(fieldNumber), "!!int"), value)
	}
	return n, nil
}

func scalar(value, tag string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value, Tag: tag}
}

func mapping(key, value, tag string) *yaml.Node {
	return &yaml.Node{
		Kind:    yaml.MappingNode,
		Style:   yaml.FlowStyle,
		Content: []*yaml.Node{scalar(key, "!!str"), scalar(value, tag)},
	}
}
