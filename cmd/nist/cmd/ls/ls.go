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

package ls

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/ivosh/gonist"
	"github.com/ivosh/gonist/internal"
	"github.com/ivosh/gonist/pkg/imageheader"
	"github.com/spf13/cobra"
)

const defaultFormat = "%{key}s\t%{value}s"

type conf struct {
	fileNames   []string
	format      string
	recordTypes []int
	noColor     bool
}

func NewCommand() *cobra.Command {
	c := &conf{}
	var cmd = &cobra.Command{
		Use:   "ls FILE...",
		Short: "List the records and fields of NIST files",
		Long: `List the records and fields of NIST files.

Binary fields are summarized by their size and, for images, their header.
Each field is printed with --format where %{key}, %{type}, %{record}, %{field}
and %{value} are replaced by the field key (e.g. 1.003), record type,
record instance, field number and value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("missing file name")
			}
			c.fileNames = args
			if c.noColor {
				color.NoColor = true
			}
			return runE(cmd.OutOrStdout(), c)
		},
	}

	cmd.Flags().StringVarP(&c.format, "format", "f", defaultFormat, "field format")
	cmd.Flags().IntSliceVarP(&c.recordTypes, "type", "t", nil, "only list records of these types")
	cmd.Flags().BoolVar(&c.noColor, "no-color", false, "disable colored output")

	return cmd
}

func runE(w io.Writer, c *conf) error {
	var errs []error
	for _, fileName := range c.fileNames {
		if err := listFile(w, c, fileName); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %s: %v\n", fileName, err)
			errs = append(errs, err)
		}
	}
	return gonist.Join(errs...)
}

func listFile(w io.Writer, c *conf, fileName string) error {
	f, data, err := internal.ReadNistFile(fileName, gonist.WithIgnoreMissingMandatoryFields(true))
	if err != nil {
		return err
	}

	fileColor := color.New(color.FgGreen, color.Bold)
	recordColor := color.New(color.FgCyan)
	keyColor := color.New(color.FgYellow)

	_, _ = fileColor.Fprintf(w, "%s: %s transaction %s, %d bytes\n", fileName, f.TOT(), f.Type1.Text(gonist.FieldTCN), len(data))
	for _, recordType := range gonist.RecordTypes {
		if !c.listed(recordType) {
			continue
		}
		for i, r := range f.Records(recordType) {
			_, _ = recordColor.Fprintf(w, "Type-%d record %d\n", recordType, i+1)
			for _, fieldNumber := range r.FieldNumbers() {
				key := gonist.FieldKey{Type: recordType, Record: i + 1, Field: fieldNumber}
				line := internal.Sprintt(c.format, map[string]any{
					"key":    keyColor.Sprint(key.String()),
					"type":   recordType,
					"record": i + 1,
					"field":  fieldNumber,
					"value":  describe(r[fieldNumber]),
				})
				_, _ = fmt.Fprintln(w, line)
			}
		}
	}
	return nil
}

func (c *conf) listed(recordType int) bool {
	if len(c.recordTypes) == 0 {
		return true
	}
	for _, t := range c.recordTypes {
		if t == recordType {
			return true
		}
	}
	return false
}

// describe renders a field value. Images are summarized with their header.
func describe(v gonist.Value) string {
	if v.Kind() != gonist.KindBinary {
		return v.String()
	}
	h, err := imageheader.Detect(v.Bytes())
	if err != nil {
		return v.String()
	}
	return fmt.Sprintf("<%d bytes, %s>", len(v.Bytes()), h)
}
