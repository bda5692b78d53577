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

package validate

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/ivosh/gonist"
	"github.com/ivosh/gonist/internal"
	"github.com/ivosh/gonist/pkg/rules"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type conf struct {
	fileNames              []string
	ignoreMissingMandatory bool
	ignoreValidationChecks bool
}

func NewCommand() *cobra.Command {
	c := &conf{}
	var cmd = &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate NIST files against the field rules",
		Long: `Validate NIST files against the field rules and report every violation.

The built-in decoding rules are used unless --rules is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("missing file name")
			}
			c.fileNames = args
			return runE(cmd.OutOrStdout(), c)
		},
	}

	cmd.Flags().BoolVar(&c.ignoreMissingMandatory, "ignore-missing-mandatory", false, "do not report missing mandatory fields")
	cmd.Flags().BoolVar(&c.ignoreValidationChecks, "ignore-checks", false, "do not report length, regex and character set violations")

	return cmd
}

func runE(w io.Writer, c *conf) error {
	codecOptions, err := internal.CodecOptions(rules.DefaultDecode)
	if err != nil {
		return err
	}

	invalid := 0
	for _, fileName := range c.fileNames {
		f, _, err := internal.ReadNistFile(fileName, gonist.WithIgnoreMissingMandatoryFields(true))
		if err != nil {
			_, _ = fmt.Fprintf(w, "%s: %s\n  %v\n", fileName, color.RedString("unreadable"), err)
			invalid++
			continue
		}

		v := gonist.Report(f,
			gonist.WithCodecOptions(codecOptions),
			gonist.WithIgnoreMissingMandatoryFields(c.ignoreMissingMandatory),
			gonist.WithIgnoreValidationChecks(c.ignoreValidationChecks))
		if v.Valid() {
			_, _ = fmt.Fprintf(w, "%s: %s\n", fileName, color.GreenString("valid"))
			continue
		}
		invalid++
		log.Debugf("%s has %d validation errors", fileName, len(v))
		_, _ = fmt.Fprintf(w, "%s: %s\n%s", fileName, color.RedString("invalid"), v.String())
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d files are not valid", invalid, len(c.fileNames))
	}
	return nil
}
