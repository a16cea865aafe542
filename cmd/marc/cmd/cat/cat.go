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

package cat

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nlnwa/gomarc"
)

type conf struct {
	fileName    string
	recordCount int
	recovery    string
}

func NewCommand() *cobra.Command {
	c := &conf{}
	var cmd = &cobra.Command{
		Use:   "cat <file>",
		Short: "Print the records of a MARC file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("missing file name")
			}
			c.fileName = args[0]
			return runE(c)
		},
	}

	cmd.Flags().IntVarP(&c.recordCount, "record-count", "c", 0, "the maximum number of records to show (0 = all)")
	cmd.Flags().StringVarP(&c.recovery, "recovery", "r", "lenient", "recovery mode (strict, lenient, permissive)")

	return cmd
}

func runE(c *conf) error {
	mode, err := gomarc.ParseRecoveryMode(c.recovery)
	if err != nil {
		return err
	}

	reader, err := gomarc.NewMarcFileReader(c.fileName, gomarc.WithRecoveryMode(mode))
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	count := 0
	for {
		record, _, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v, rec num: %d\n", err, count)
			break
		}
		printRecord(record)
		count++
		if c.recordCount > 0 && count >= c.recordCount {
			break
		}
	}
	fmt.Printf("Count: %d\n", count)
	return nil
}

func printRecord(record *gomarc.Record) {
	fmt.Printf("LDR %s\n", record.Leader)
	for _, field := range record.Fields {
		fmt.Println(field)
	}
	fmt.Println()
}
