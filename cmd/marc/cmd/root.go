/*
 * Copyright 2020 National Library of Norway.
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
	"os"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nlnwa/gomarc/cmd/marc/cmd/cat"
	"github.com/nlnwa/gomarc/cmd/marc/cmd/count"
	"github.com/nlnwa/gomarc/cmd/marc/cmd/validate"
)

type conf struct {
	cfgFile  string
	logLevel string
}

// NewCommand returns a new cobra.Command implementing the root command for marc
func NewCommand() *cobra.Command {
	c := &conf{}
	cmd := &cobra.Command{
		Use:   "marc",
		Short: "Tools for working with binary MARC 21 record files",
		Long: `marc reads and inspects files of bibliographic records in the binary
MARC 21 (ISO 2709) interchange format.`,
	}

	cobra.OnInitialize(func() { c.initConfig() })

	// Flags
	cmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is $HOME/.marc.yaml)")
	cmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")

	// Subcommands
	cmd.AddCommand(cat.NewCommand())
	cmd.AddCommand(count.NewCommand())
	cmd.AddCommand(validate.NewCommand())

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
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".marc" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".marc")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	if level, err := log.ParseLevel(c.logLevel); err == nil {
		log.SetLevel(level)
	}
}
