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

package header

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ivosh/gonist"
	"github.com/ivosh/gonist/pkg/imageheader"
	"github.com/spf13/cobra"
)

type conf struct {
	fileNames []string
}

func NewCommand() *cobra.Command {
	c := &conf{}
	var cmd = &cobra.Command{
		Use:   "header IMAGE...",
		Short: "Print the type, dimensions and resolution of JPEG, JPEG2000 and WSQ images",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("missing file name")
			}
			c.fileNames = args
			return runE(cmd.OutOrStdout(), c)
		},
	}
	return cmd
}

func runE(w io.Writer, c *conf) error {
	var errs []error
	for _, fileName := range c.fileNames {
		data, err := os.ReadFile(fileName)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		h, err := imageheader.Detect(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", fileName, err))
			continue
		}
		_, _ = fmt.Fprintf(w, "%s: %s\n", fileName, h)
	}
	return gonist.Join(errs...)
}
