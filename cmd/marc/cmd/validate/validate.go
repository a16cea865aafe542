/*
 * Copyright 2019 National Library of Norway.
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
	"github.com/spf13/cobra"

	"github.com/nlnwa/gomarc"
)

type conf struct {
	fileName string
}

func NewCommand() *cobra.Command {
	c := &conf{}
	var cmd = &cobra.Command{
		Use:   "validate <file>",
		Short: "Check the records of a MARC file for structural problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("missing file name")
			}
			c.fileName = args[0]
			return runE(c)
		},
	}
	return cmd
}

func runE(c *conf) error {
	reader, err := gomarc.NewMarcFileReader(c.fileName, gomarc.WithRecoveryMode(gomarc.Lenient))
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed)
	good := color.New(color.FgGreen)

	count := 0
	flagged := 0
	for {
		record, validation, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			bad.Printf("record %d: %v\n", count, err)
			break
		}
		count++
		if !validation.Valid() {
			flagged++
			warn.Printf("record %d (%s):\n", count, record.Identifier())
			for _, e := range *validation {
				warn.Printf("  %v\n", e)
			}
		}
	}

	skipped := reader.Skipped()
	if flagged == 0 && skipped == 0 {
		good.Printf("%d records, no problems found\n", count)
		return nil
	}
	fmt.Printf("%d records: ", count)
	bad.Printf("%d undecodable, ", skipped)
	warn.Printf("%d with diagnostics\n", flagged)
	return nil
}
