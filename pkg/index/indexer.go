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

package index

import (
	"fmt"

	"github.com/ivosh/gonist"
	"github.com/ivosh/gonist/pkg/nistfile"
)

// NewEntry summarizes a decoded NIST file.
func NewEntry(f *gonist.File, filePath string, length int) Entry {
	records := make(map[int]int)
	for _, t := range gonist.RecordTypes {
		if n := len(f.Records(t)); n > 0 {
			records[t] = n
		}
	}
	return Entry{
		TCN:     f.Type1.Text(gonist.FieldTCN),
		TOT:     f.TOT(),
		Path:    filePath,
		Records: records,
		Length:  length,
	}
}

// IndexFile decodes the named file and adds it to the index.
func IndexFile(db *Db, filePath string, opts ...gonist.Option) (Entry, error) {
	data, err := nistfile.ReadFile(filePath)
	if err != nil {
		return Entry{}, err
	}
	f, err := gonist.Decode(data, opts...)
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", filePath, err)
	}
	entry := NewEntry(f, filePath, len(data))
	if entry.Digest, err = Digest(DefaultDigestAlgorithm, data); err != nil {
		return Entry{}, err
	}
	if entry.TCN == "" {
		return Entry{}, fmt.Errorf("%s: transaction has no control number in field %s", filePath,
			gonist.FormatFieldKey(1, gonist.FieldTCN))
	}
	if err := db.Add(entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Verify checks that the file of an entry still has the content it had when it was indexed.
func Verify(entry Entry) error {
	if entry.Digest == "" {
		return fmt.Errorf("%s: entry has no digest", entry.Path)
	}
	data, err := nistfile.ReadFile(entry.Path)
	if err != nil {
		return err
	}
	if err := VerifyDigest(entry.Digest, data); err != nil {
		return fmt.Errorf("%s: %w", entry.Path, err)
	}
	return nil
}
