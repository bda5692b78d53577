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
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// DefaultDigestAlgorithm is the algorithm used for digests of indexed files.
const DefaultDigestAlgorithm = "sha256"

type digestEncoding uint8

const (
	Base16 digestEncoding = 1
	Base32 digestEncoding = 2
)

func (d digestEncoding) encode(sum []byte) string {
	if d == Base16 {
		return strings.ToUpper(hex.EncodeToString(sum))
	}
	return base32.StdEncoding.EncodeToString(sum)
}

func detectEncoding(size int, digest string) digestEncoding {
	if len(digest) == size*2 {
		return Base16
	}
	return Base32
}

type digest struct {
	hash.Hash
	name     string
	hash     string
	encoding digestEncoding
}

// newDigest parses a digest in the form algorithm:value. A digest without value
// is used to compute a new one.
func newDigest(digestString string) (*digest, error) {
	t := strings.SplitN(digestString, ":", 2)
	algorithm := strings.ToLower(t[0])
	var value string
	if len(t) > 1 {
		value = t[1]
	}

	var h hash.Hash
	switch algorithm {
	case "sha1":
		h = sha1.New()
	case "sha256", "":
		algorithm = "sha256"
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	default:
		return nil, fmt.Errorf("unsupported digest algorithm '%s'", algorithm)
	}
	return &digest{Hash: h, name: algorithm, hash: value, encoding: detectEncoding(h.Size(), value)}, nil
}

func (d *digest) format() string {
	return fmt.Sprintf("%s:%s", d.name, d.encoding.encode(d.Sum(nil)))
}

func (d *digest) validate() error {
	computed := d.encoding.encode(d.Sum(nil))
	if d.hash != computed {
		return fmt.Errorf("wrong digest: expected %s:%s, computed: %s:%s", d.name, d.hash, d.name, computed)
	}
	return nil
}

// Digest computes the digest of data with the given algorithm.
func Digest(algorithm string, data []byte) (string, error) {
	d, err := newDigest(algorithm)
	if err != nil {
		return "", err
	}
	_, _ = d.Write(data)
	return d.format(), nil
}

// VerifyDigest checks data against a digest in the form algorithm:value.
func VerifyDigest(digestString string, data []byte) error {
	d, err := newDigest(digestString)
	if err != nil {
		return err
	}
	_, _ = d.Write(data)
	return d.validate()
}
