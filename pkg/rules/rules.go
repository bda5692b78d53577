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

// Package rules loads field rule tables from YAML documents into gonist.CodecOptions.
//
// A rule table maps a bucket name to record types, record types to field numbers and
// field numbers to rules:
//
//	default:
//	  1:
//	    2:
//	      mandatory: true
//	      defaultValue: "0502"
//	      formatter: zeroPad:4
//	SRE:
//	  2:
//	    64:
//	      mandatoryIf: {field: "2.059", equals: "I"}
//
// The bucket named default applies to every file. Other buckets are keyed by the type of
// transaction (field 1.004).
package rules

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ivosh/gonist"
	"github.com/ivosh/gonist/pkg/document"
	"gopkg.in/yaml.v3"
)

// DefaultBucket is the name of the bucket applied to every file.
const DefaultBucket = "default"

//go:embed encode.yaml
var encodeRules []byte

//go:embed decode.yaml
var decodeRules []byte

type regexDoc struct {
	Regex  string `yaml:"regex"`
	ErrMsg string `yaml:"errMsg"`
}

type conditionDoc struct {
	Field  string `yaml:"field"`
	Equals string `yaml:"equals"`
}

type fieldDoc struct {
	Mandatory    *bool         `yaml:"mandatory"`
	MandatoryIf  *conditionDoc `yaml:"mandatoryIf"`
	MaxLength    *int          `yaml:"maxLength"`
	MinLength    *int          `yaml:"minLength"`
	DefaultValue yaml.Node     `yaml:"defaultValue"`
	DefaultFrom  string        `yaml:"defaultFrom"`
	Formatter    string        `yaml:"formatter"`
	Regexs       []regexDoc    `yaml:"regexs"`
}

type recordDoc map[string]*fieldDoc

type tableDoc map[string]map[string]recordDoc

type generator func(gonist.Field, *gonist.File) gonist.Value

var generators = map[string]generator{
	"uuid": func(gonist.Field, *gonist.File) gonist.Value {
		return gonist.Item(uuid.New().String())
	},
	"today": func(gonist.Field, *gonist.File) gonist.Value {
		return gonist.Item(time.Now().Format("20060102"))
	},
	"fingerprintResolution": func(_ gonist.Field, f *gonist.File) gonist.Value {
		if len(f.Type4) > 0 {
			return gonist.Item("19.69")
		}
		return gonist.Item("00.00")
	},
}

// Load reads a rule table from r.
func Load(r io.Reader) (*gonist.CodecOptions, error) {
	var doc tableDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return &gonist.CodecOptions{}, nil
		}
		return nil, fmt.Errorf("gonist: rules: %w", err)
	}

	c := &gonist.CodecOptions{}
	for bucket, records := range doc {
		tot, err := convertBucket(records)
		if err != nil {
			return nil, fmt.Errorf("gonist: rules: bucket '%s': %w", bucket, err)
		}
		if bucket == DefaultBucket {
			c.Default = tot
			continue
		}
		if c.ByTot == nil {
			c.ByTot = make(map[string]gonist.TotOptions)
		}
		c.ByTot[bucket] = tot
	}
	return c, nil
}

// LoadFile reads a rule table from the named file.
func LoadFile(path string) (*gonist.CodecOptions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// DefaultEncode returns the built-in rules for encoding.
func DefaultEncode() *gonist.CodecOptions {
	c, err := Load(bytes.NewReader(encodeRules))
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultDecode returns the built-in rules for decoding.
func DefaultDecode() *gonist.CodecOptions {
	c, err := Load(bytes.NewReader(decodeRules))
	if err != nil {
		panic(err)
	}
	return c
}

func convertBucket(records map[string]recordDoc) (gonist.TotOptions, error) {
	tot := make(gonist.TotOptions, len(records))
	for rt, fields := range records {
		recordType, err := strconv.Atoi(rt)
		if err != nil {
			return nil, fmt.Errorf("record type '%s' is not a number", rt)
		}
		ro := make(gonist.RecordOptions, len(fields))
		for fn, fd := range fields {
			fieldNumber, err := strconv.Atoi(fn)
			if err != nil {
				return nil, fmt.Errorf("field number '%s' of record type %d is not a number", fn, recordType)
			}
			if fd == nil {
				continue
			}
			fo, err := convertField(fd)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", gonist.FormatFieldKey(recordType, fieldNumber), err)
			}
			ro[fieldNumber] = fo
		}
		tot[recordType] = ro
	}
	return tot, nil
}

func convertField(fd *fieldDoc) (*gonist.FieldOptions, error) {
	fo := &gonist.FieldOptions{}

	switch {
	case fd.MandatoryIf != nil:
		key, err := gonist.ParseFieldKey(fd.MandatoryIf.Field)
		if err != nil {
			return nil, err
		}
		equals := fd.MandatoryIf.Equals
		fo.Mandatory = gonist.Computed(func(_ gonist.Field, f *gonist.File) bool {
			r := f.Record(key.Type, key.Record)
			return r != nil && r.Text(key.Field) == equals
		})
	case fd.Mandatory != nil:
		fo.Mandatory = gonist.Literal(*fd.Mandatory)
	}
	if fd.MaxLength != nil {
		fo.MaxLength = gonist.Literal(*fd.MaxLength)
	}
	if fd.MinLength != nil {
		fo.MinLength = gonist.Literal(*fd.MinLength)
	}

	if err := convertDefault(fd, fo); err != nil {
		return nil, err
	}

	if fd.Formatter != "" {
		formatter, err := parseFormatter(fd.Formatter)
		if err != nil {
			return nil, err
		}
		fo.Formatter = formatter
	}

	for _, r := range fd.Regexs {
		if r.Regex == "" {
			return nil, fmt.Errorf("regex is empty")
		}
		fo.Regexs = append(fo.Regexs, gonist.Literal(gonist.Regex{Regex: r.Regex, ErrMsg: r.ErrMsg}))
	}
	return fo, nil
}

func convertDefault(fd *fieldDoc, fo *gonist.FieldOptions) error {
	switch fd.DefaultFrom {
	case "", "literal":
		if fd.DefaultValue.Kind == 0 {
			if fd.DefaultFrom == "literal" {
				return fmt.Errorf("defaultFrom 'literal' requires a defaultValue")
			}
			return nil
		}
		v, err := document.ValueFromNode(&fd.DefaultValue, "")
		if err != nil {
			return err
		}
		fo.DefaultValue = gonist.Literal(v)
		return nil
	}

	g, ok := generators[fd.DefaultFrom]
	if !ok {
		return fmt.Errorf("unknown default value generator '%s'", fd.DefaultFrom)
	}
	fo.DefaultValue = gonist.Computed(g)
	return nil
}

func parseFormatter(s string) (func(gonist.Field, *gonist.File) gonist.Value, error) {
	name, arg := s, ""
	if i := strings.IndexByte(s, ':'); i >= 0 {
		name, arg = s[:i], s[i+1:]
	}

	text := func(fn func(string) string) func(gonist.Field, *gonist.File) gonist.Value {
		return func(field gonist.Field, _ *gonist.File) gonist.Value {
			t, ok := field.Value.Text()
			if !ok {
				return field.Value
			}
			return gonist.Item(fn(t))
		}
	}

	switch name {
	case "zeroPad":
		width, err := strconv.Atoi(arg)
		if err != nil || width <= 0 {
			return nil, fmt.Errorf("formatter '%s' requires a positive width", s)
		}
		return text(func(t string) string {
			if len(t) < width {
				return strings.Repeat("0", width-len(t)) + t
			}
			return t
		}), nil
	case "upper":
		return text(strings.ToUpper), nil
	case "trim":
		return text(strings.TrimSpace), nil
	}
	return nil, fmt.Errorf("unknown formatter '%s'", s)
}
