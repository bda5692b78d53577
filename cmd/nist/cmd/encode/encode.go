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

package encode

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ivosh/gonist"
	"github.com/ivosh/gonist/internal"
	"github.com/ivosh/gonist/pkg/document"
	"github.com/ivosh/gonist/pkg/nistfile"
	"github.com/ivosh/gonist/pkg/rules"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type conf struct {
	docName                string
	output                 string
	compression            string
	sync                   bool
	ignoreMissingMandatory bool
	ignoreValidationChecks bool
}

func NewCommand() *cobra.Command {
	c := &conf{}
	var cmd = &cobra.Command{
		Use:   "encode DOCUMENT",
		Short: "Encode a YAML transaction document as a NIST file",
		Long: `Encode a YAML transaction document as a NIST file.

Default values, formatting and validation follow the built-in encoding rules
unless --rules is given. Record lengths, the transaction content field (1.003)
and the IDC of each record are computed. Binary fields are read from files
relative to the document:

  1:
    4: CRM
  10:
    - 3: FACE
      999: {file: face.jpg}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.docName = args[0]
			if c.output == "" {
				return errors.New("missing output file name")
			}
			return runE(cmd.OutOrStdout(), c)
		},
	}

	cmd.Flags().StringVarP(&c.output, "output", "o", "", "output file")
	cmd.Flags().StringVarP(&c.compression, "compression", "c", "none", "compression of the output file, one of: none, gzip, zstd")
	cmd.Flags().BoolVar(&c.sync, "sync", false, "sync the output file to disk before it is renamed")
	cmd.Flags().BoolVar(&c.ignoreMissingMandatory, "ignore-missing-mandatory", false, "encode even if mandatory fields are missing")
	cmd.Flags().BoolVar(&c.ignoreValidationChecks, "ignore-checks", false, "encode even if length, regex or character set checks fail")

	return cmd
}

func runE(w io.Writer, c *conf) error {
	compression, err := nistfile.ParseCompression(c.compression)
	if err != nil {
		return err
	}
	codecOptions, err := internal.CodecOptions(rules.DefaultEncode)
	if err != nil {
		return err
	}

	f, err := document.UnmarshalFile(c.docName)
	if err != nil {
		return err
	}

	opts := []gonist.Option{
		gonist.WithCodecOptions(codecOptions),
		gonist.WithIgnoreMissingMandatoryFields(c.ignoreMissingMandatory),
		gonist.WithIgnoreValidationChecks(c.ignoreValidationChecks),
	}
	data, err := gonist.Encode(f, opts...)
	if err != nil {
		var ve *gonist.ValidationError
		if errors.As(err, &ve) {
			// report everything that is wrong, not only the first violation
			v := gonist.Report(f, opts...)
			return fmt.Errorf("%s is not valid:\n%s", c.docName, strings.TrimSuffix(v.String(), "\n"))
		}
		return err
	}

	if err := nistfile.WriteFile(c.output, data, nistfile.WithCompression(compression), nistfile.WithSync(c.sync)); err != nil {
		return err
	}
	log.Infof("Encoded %s into %s", c.docName, c.output)
	_, err = fmt.Fprintf(w, "%s: %d bytes\n", c.output, len(data))
	return err
}
