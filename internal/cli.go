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

package internal

import (
	"github.com/ivosh/gonist"
	"github.com/ivosh/gonist/pkg/nistfile"
	"github.com/ivosh/gonist/pkg/rules"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Viper keys shared by the commands.
const (
	KeyLogLevel = "loglevel"
	KeyRules    = "rules"
	KeyIndexDir = "indexdir"
	KeyWatchDir = "watchdir"
)

// CodecOptions returns the rules configured with the rules key, or the result of defaults
// when none is configured.
func CodecOptions(defaults func() *gonist.CodecOptions) (*gonist.CodecOptions, error) {
	path := viper.GetString(KeyRules)
	if path == "" {
		return defaults(), nil
	}
	log.Debugf("Using rules from %s", path)
	return rules.LoadFile(path)
}

// ReadNistFile reads and decodes the named, possibly compressed, NIST file.
func ReadNistFile(path string, opts ...gonist.Option) (*gonist.File, []byte, error) {
	data, err := nistfile.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := gonist.Decode(data, opts...)
	if err != nil {
		return nil, data, err
	}
	return f, data, nil
}
