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
	"fmt"
	"strconv"
	"strings"
)

// Sprintt is like fmt.Sprintf, but accepts named parameters from a map.
// A parameter is referenced as %{name} followed by flags and a verb.
//
// Example:
//   params := map[string]any{
//     "type":  2,
//     "field": 4,
//     "value": "John",
//   }
//
//   result := internal.Sprintt("%{type}d.%{field}03d: %{value}s", params)
//
// Result will then be: '2.004: John'
//
// Unknown names are left in the output as %!{name}.
func Sprintt(format string, params map[string]any) string {
	var (
		sb    strings.Builder
		args  []any
		index = make(map[string]int)
	)
	for {
		i := strings.Index(format, "%{")
		if i < 0 {
			sb.WriteString(format)
			break
		}
		j := strings.IndexByte(format[i:], '}')
		if j < 0 {
			sb.WriteString(format[:i] + "%" + format[i:])
			break
		}
		name := format[i+2 : i+j]
		sb.WriteString(format[:i])
		format = format[i+j+1:]

		val, ok := params[name]
		if !ok {
			sb.WriteString("%%!{" + name + "}")
			continue
		}
		pos, ok := index[name]
		if !ok {
			args = append(args, val)
			pos = len(args)
			index[name] = pos
		}
		// flags must precede the argument index
		k := 0
		for k < len(format) && strings.IndexByte("+-# 0", format[k]) >= 0 {
			k++
		}
		sb.WriteString("%" + format[:k] + "[" + strconv.Itoa(pos) + "]")
		format = format[k:]
	}
	return fmt.Sprintf(sb.String(), args...)
}
