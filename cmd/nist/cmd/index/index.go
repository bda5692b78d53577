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
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ivosh/gonist"
	"github.com/ivosh/gonist/internal"
	"github.com/ivosh/gonist/pkg/index"
	"github.com/ivosh/gonist/pkg/rules"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type conf struct {
	dirs     []string
	watch    bool
	lookup   string
	verify   string
	list     bool
	validate bool
	debounce time.Duration
	depth    int
}

func NewCommand() *cobra.Command {
	c := &conf{}
	var cmd = &cobra.Command{
		Use:   "index [DIR...]",
		Short: "Index NIST files by transaction control number",
		Long: `Index the NIST files in directories by their transaction control number
(field 1.009). With --watch the directories are watched and new or modified
files are indexed until the command is interrupted.

Directories may also be configured with the watchdir key and the index
location with the indexdir key.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.dirs = args
			if len(c.dirs) == 0 {
				c.dirs = viper.GetStringSlice(internal.KeyWatchDir)
			}
			return runE(cmd.OutOrStdout(), c)
		},
	}

	cmd.Flags().String("index-dir", ".", "directory of the index")
	_ = viper.BindPFlag(internal.KeyIndexDir, cmd.Flags().Lookup("index-dir"))
	cmd.Flags().BoolVarP(&c.watch, "watch", "w", false, "keep watching the directories")
	cmd.Flags().StringVarP(&c.lookup, "lookup", "l", "", "print the indexed transaction with this control number")
	cmd.Flags().StringVar(&c.verify, "verify", "", "check that the file of the indexed transaction with this control number is unchanged")
	cmd.Flags().BoolVar(&c.list, "list", false, "print every indexed transaction")
	cmd.Flags().BoolVar(&c.validate, "validate", false, "only index files which are valid according to the field rules")
	cmd.Flags().DurationVar(&c.debounce, "debounce", 10*time.Second, "how long a modified file must stay unchanged before it is indexed")
	cmd.Flags().IntVar(&c.depth, "depth", 4, "how many levels of subdirectories are indexed")

	return cmd
}

func runE(w io.Writer, c *conf) error {
	db, err := index.NewIndexDb(viper.GetString(internal.KeyIndexDir))
	if err != nil {
		return err
	}
	defer db.Close()

	switch {
	case c.lookup != "":
		entry, err := db.Lookup(c.lookup)
		if err != nil {
			return err
		}
		printEntry(w, entry)
		return nil
	case c.verify != "":
		entry, err := db.Lookup(c.verify)
		if err != nil {
			return err
		}
		if err := index.Verify(entry); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%s: %s is unchanged\n", entry.TCN, entry.Path)
		return nil
	case c.list:
		entries, err := db.List()
		if err != nil {
			return err
		}
		for _, e := range entries {
			printEntry(w, e)
		}
		return nil
	}

	if len(c.dirs) == 0 {
		return errors.New("missing directory")
	}

	decodeOptions := []gonist.Option{gonist.WithIgnoreMissingMandatoryFields(true)}
	if c.validate {
		codecOptions, err := internal.CodecOptions(rules.DefaultDecode)
		if err != nil {
			return err
		}
		decodeOptions = []gonist.Option{gonist.WithCodecOptions(codecOptions)}
	}

	var (
		indexed = make(chan struct{}, 1)
		count   int
		failed  int
	)
	onIndexed := func(_ index.Entry, err error) {
		if err != nil {
			failed++
		} else {
			count++
		}
		select {
		case indexed <- struct{}{}:
		default:
		}
	}

	opts := []index.Option{
		index.WithDecodeOptions(decodeOptions...),
		index.WithWatchDepth(c.depth),
		index.WithDebounce(c.debounce),
		// counters are updated by a single worker
		index.WithWorkers(1),
		index.WithOnIndexed(onIndexed),
	}
	a, err := index.NewAutoIndexer(db, c.dirs, opts...)
	if err != nil {
		return err
	}

	if c.watch {
		log.Infof("Watching %s", strings.Join(c.dirs, ", "))
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
	} else {
		waitIdle(indexed)
	}
	a.Shutdown()

	_, _ = fmt.Fprintf(w, "Indexed %d files, %d failed\n", count, failed)
	return nil
}

// waitIdle waits until no file has been indexed for a while.
func waitIdle(indexed <-chan struct{}) {
	for {
		select {
		case <-indexed:
		case <-time.After(time.Second):
			return
		}
	}
}

func printEntry(w io.Writer, e index.Entry) {
	types := make([]int, 0, len(e.Records))
	for t := range e.Records {
		types = append(types, t)
	}
	sort.Ints(types)
	records := make([]string, len(types))
	for i, t := range types {
		records[i] = strconv.Itoa(t) + ":" + strconv.Itoa(e.Records[t])
	}
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", e.TCN, e.TOT, e.Path, e.Length,
		strings.Join(records, ","), e.Indexed.Format(time.RFC3339))
}
