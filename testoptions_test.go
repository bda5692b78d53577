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
	"strings"
)

func fingerprintResolution(_ Field, f *File) Value {
	if len(f.Type4) > 0 {
		return Item("19.69")
	}
	return Item("00.00")
}

func padVersion(field Field, _ *File) Value {
	s := field.Value.String()
	if len(s) < 4 {
		s = strings.Repeat("0", 4-len(s)) + s
	}
	return Item(s)
}

func regexs(regex, errMsg string) []Rule[Regex] {
	return []Rule[Regex]{Literal(Regex{Regex: regex, ErrMsg: errMsg})}
}

// testEncodeOptions returns the field rules used by the encoding tests.
func testEncodeOptions() *CodecOptions {
	resolution := regexs(`^[0-9]{2}.[0-9]{2}$`, "Expected a string in format dd.dd")
	return &CodecOptions{
		Default: TotOptions{
			1: RecordOptions{
				2: {
					DefaultValue: Literal(Item("0502")),
					Formatter:    padVersion,
					Mandatory:    Literal(true),
					MaxLength:    Literal(4),
					MinLength:    Literal(3),
					Regexs:       regexs(`^[0-9]{3,4}$`, "Expected three or four digits"),
				},
				4:  {Mandatory: Literal(true), MaxLength: Literal(16)},
				5:  {Mandatory: Literal(true), Regexs: regexs(`^[0-9]{8}$`, "Expected eight digits")},
				6:  {Mandatory: Literal(false), Regexs: regexs(`^[1-9]{1}$`, "Expected a number between 1 and 9")},
				7:  {Mandatory: Literal(true)},
				8:  {Mandatory: Literal(true)},
				9:  {Mandatory: Literal(true)},
				10: {Mandatory: Literal(false)},
				11: {DefaultValue: Computed(fingerprintResolution), Mandatory: Literal(true), Regexs: resolution},
				12: {DefaultValue: Computed(fingerprintResolution), Mandatory: Literal(true), Regexs: resolution},
			},
			4: RecordOptions{
				3: {Mandatory: Literal(true)},
				4: {Mandatory: Literal(true)},
				5: {DefaultValue: Literal(Item("0")), Mandatory: Literal(true)},
				6: {DefaultValue: Literal(Item("500")), Mandatory: Literal(true)},
				7: {DefaultValue: Literal(Item("750")), Mandatory: Literal(true)},
				8: {DefaultValue: Literal(Item("1")), Mandatory: Literal(true)},
			},
		},
		ByTot: map[string]TotOptions{
			"MAP": {
				1: RecordOptions{
					6: {
						DefaultValue: Literal(Item("5")),
						Mandatory:    Literal(true),
						Regexs:       regexs(`^[1-9]{1}$`, "Expected a number between 1 and 9"),
					},
				},
			},
			"SRE": {
				2: RecordOptions{
					59: {Mandatory: Literal(true), MaxLength: Literal(1), Regexs: regexs(`^[IN]$`, "Expected I or N")},
					64: {Mandatory: Computed(func(_ Field, f *File) bool {
						return f.Type2 != nil && f.Type2.Text(59) == "I"
					})},
				},
			},
		},
	}
}

// testDecodeOptions returns the field rules used by the decoding tests.
func testDecodeOptions() *CodecOptions {
	resolution := regexs(`^[0-9]{2}.[0-9]{2}$`, "Expected a string in format dd.dd")
	return &CodecOptions{
		Default: TotOptions{
			1: RecordOptions{
				2: {
					Mandatory: Literal(true),
					MaxLength: Literal(4),
					MinLength: Literal(3),
					Regexs:    regexs(`^[0-9]{3,4}$`, "Expected three or four digits"),
				},
				4:  {Mandatory: Literal(true), MaxLength: Literal(16)},
				5:  {Mandatory: Literal(true), Regexs: regexs(`^[0-9]{8}$`, "Expected eight digits")},
				7:  {Mandatory: Literal(true)},
				8:  {Mandatory: Literal(true)},
				9:  {Mandatory: Literal(true)},
				11: {Mandatory: Literal(true), Regexs: resolution},
				12: {Mandatory: Literal(true), Regexs: resolution},
			},
		},
		ByTot: map[string]TotOptions{
			"MAP": {
				2: RecordOptions{48: {Mandatory: Literal(true)}},
			},
			"SRE": {
				2: RecordOptions{23: {DefaultValue: Literal(Item("sorry")), Mandatory: Literal(true)}},
			},
		},
	}
}

// type1 returns a Type-1 record with the fields every test transaction carries.
func type1(tot, date string) Record {
	return Record{
		2: Item("0502"),
		4: Item(tot),
		5: Item(date),
		7: Item("DAI035454"),
		8: Item("ORI38574354"),
		9: Item("TCN2487S054"),
	}
}

func johnDoe() Record {
	return Record{
		4: Item("John"),
		5: Item("Doe"),
		7: Item("1978-05-12"),
	}
}

// fingerprint returns n bytes of fake image data.
func fingerprint(n int) []byte {
	return bytes.Repeat([]byte{0xa5, 0x5a, 0x00, 0xff}, n/4+1)[:n]
}
