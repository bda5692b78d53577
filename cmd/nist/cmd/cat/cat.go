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

package cat

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ivosh/gonist"
	"github.com/ivosh/gonist/internal"
	"github.com/ivosh/gonist/pkg/document"
	"github.com/spf13/cobra"
)

type conf struct {
	fileName string
	key      gonist.FieldKey
	record   int
	extract  string
}

func NewCommand() *cobra.Command {
	c := &conf{}
	var cmd = &cobra.Command{
		Use:   "cat FILE [FIELD]",
		Short: "Print a field or the whole transaction of a NIST file",
		Long: `Print a field of a NIST file, such as 1.003. Binary fields are written
as they are, so an image can be extracted with

  nist cat transaction.nist 10.999 --record 1 > face.jpg

Without a field the transaction is printed as a YAML document.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.fileName = args[0]
			if len(args) == 1 {
				return catDocument(cmd.OutOrStdout(), c)
			}
			key, err := gonist.ParseFieldKey(args[1])
			if err != nil {
				return err
			}
			c.key = key
			c.key.Record = c.record
			return catField(cmd.OutOrStdout(), c)
		},
	}

	cmd.Flags().IntVarP(&c.record, "record", "r", 1, "record instance among records of the same type, starting at 1")
	cmd.Flags().StringVarP(&c.extract, "extract", "x", "", "write binary fields to files in this directory and reference them from the document")

	return cmd
}

func catField(w io.Writer, c *conf) error {
	f, _, err := internal.ReadNistFile(c.fileName, gonist.WithIgnoreMissingMandatoryFields(true))
	if err != nil {
		return err
	}
	r := f.Record(c.key.Type, c.key.Record)
	if r == nil {
		return fmt.Errorf("%s has no Type-%d record %d", c.fileName, c.key.Type, c.key.Record)
	}
	v := r.Get(c.key.Field)
	switch v.Kind() {
	case gonist.KindNone:
		return fmt.Errorf("%s has no field %s in record %d", c.fileName, c.key, c.key.Record)
	case gonist.KindBinary:
		_, err = w.Write(v.Bytes())
	default:
		_, err = fmt.Fprintln(w, v.String())
	}
	return err
}

func catDocument(w io.Writer, c *conf) error {
	f, _, err := internal.ReadNistFile(c.fileName, gonist.WithIgnoreMissingMandatoryFields(true))
	if err != nil {
		return err
	}
	var out []byte
	if c.extract != "" {
		if err := os.MkdirAll(c.extract, 0777); err != nil {
			return err
		}
		out, err = document.MarshalExtract(f, c.extract)
	} else {
		out, err = document.Marshal(f)
	}
	if err != nil {
		return err
	}
	if len(out) == 0 {
		return errors.New("empty document")
	}
	_, err = w.Write(out)
	return err
}
