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

package cmd

import (
	"fmt"
	"strings"

	"github.com/ivosh/gonist/cmd/nist/cmd/cat"
	"github.com/ivosh/gonist/cmd/nist/cmd/encode"
	"github.com/ivosh/gonist/cmd/nist/cmd/header"
	"github.com/ivosh/gonist/cmd/nist/cmd/index"
	"github.com/ivosh/gonist/cmd/nist/cmd/ls"
	"github.com/ivosh/gonist/cmd/nist/cmd/validate"
	"github.com/ivosh/gonist/internal"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type conf struct {
	cfgFile string
}

// NewCommand returns a new cobra.Command implementing the root command for nist
func NewCommand() *cobra.Command {
	c := &conf{}
	cmd := &cobra.Command{
		Use:   "nist",
		Short: "Read, write, validate and index ANSI/NIST-ITL files",
		Long: `nist works with biometric transactions in the ANSI/NIST-ITL traditional encoding.

Files may be compressed with gzip or zstd. Field rules used for validation and
for default values are read from a YAML rule table given with --rules; built-in
rules are used otherwise.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(viper.GetString(internal.KeyLogLevel))
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
	}

	cobra.OnInitialize(func() { c.initConfig() })

	// Flags
	cmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.nist.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "log level, one of: trace, debug, info, warn, error")
	cmd.PersistentFlags().String("rules", "", "YAML file with field rules (default is the built-in rules)")
	_ = viper.BindPFlag(internal.KeyLogLevel, cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(internal.KeyRules, cmd.PersistentFlags().Lookup("rules"))

	// Subcommands
	cmd.AddCommand(ls.NewCommand())
	cmd.AddCommand(cat.NewCommand())
	cmd.AddCommand(validate.NewCommand())
	cmd.AddCommand(encode.NewCommand())
	cmd.AddCommand(header.NewCommand())
	cmd.AddCommand(index.NewCommand())

	return cmd
}

// initConfig reads in config file and ENV variables if set.
func (c *conf) initConfig() {
	if c.cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(c.cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			log.Fatal(err)
		}

		// Search config in home directory with name ".nist" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".nist")
	}

	viper.SetEnvPrefix("NIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if c.cfgFile != "" {
		log.Fatal(fmt.Errorf("failed to read config file: %w", err))
	}
}
