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

package count

import (
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nlnwa/gomarc"
)

type conf struct {
	fileName string
	workers  int
	recovery string
}

func NewCommand() *cobra.Command {
	c := &conf{}
	var cmd = &cobra.Command{
		Use:   "count <file>",
		Short: "Count the records of a MARC file using the parallel pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("missing file name")
			}
			c.fileName = args[0]
			return runE(c)
		},
	}

	cmd.Flags().IntVarP(&c.workers, "workers", "w", 0, "number of decode workers (0 = number of CPUs)")
	cmd.Flags().StringVarP(&c.recovery, "recovery", "r", "lenient", "recovery mode (strict, lenient, permissive)")

	return cmd
}

func runE(c *conf) error {
	mode, err := gomarc.ParseRecoveryMode(c.recovery)
	if err != nil {
		return err
	}

	src, err := gomarc.NewFileSource(c.fileName)
	if err != nil {
		return err
	}

	opts := []gomarc.Option{gomarc.WithRecoveryMode(mode)}
	if c.workers > 0 {
		opts = append(opts, gomarc.WithWorkers(c.workers))
	}
	pipeline := gomarc.NewPipeline(src, opts...)
	defer func() { _ = pipeline.Close() }()

	start := time.Now()
	count := 0
	for {
		_, _, err := pipeline.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		count++
	}
	elapsed := time.Since(start)

	log.WithFields(log.Fields{
		"records": count,
		"skipped": pipeline.Skipped(),
		"elapsed": elapsed,
	}).Debug("count finished")

	fmt.Printf("Records: %d (skipped: %d) in %v\n", count, pipeline.Skipped(), elapsed)
	return nil
}
