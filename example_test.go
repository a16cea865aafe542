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

package gomarc_test

import (
	"fmt"
	"io"

	"github.com/nlnwa/gomarc"
)

func ExampleUnmarshal() {
	data := []byte("00064nam a2200049   4500" +
		"001000400000" +
		"245001000004" +
		"\x1e" +
		"123\x1e" +
		"10\x1faTitle\x1e" +
		"\x1d")

	record, validation, err := gomarc.Unmarshal(data, gomarc.WithRecoveryMode(gomarc.Lenient))
	if err == nil {
		fmt.Printf("%s\n%s", record, validation)
	}

	// Output: MARC record: status: n, type: am, id: 123
}

func ExampleNewRecordBuilder() {
	builder := gomarc.NewRecordBuilder()
	builder.AddControlField("001", "123")
	builder.AddDataField("245", '1', '0',
		gomarc.Subfield{Code: 'a', Value: "Title"},
		gomarc.Subfield{Code: 'c', Value: "Author"})

	if record, err := builder.Build(); err == nil {
		fmt.Println(record)
	}

	// Output: MARC record: status: n, type: am, id: 123
}

func ExampleNewMarcFileWriter() {
	nameGenerator := &gomarc.PatternNameGenerator{Directory: "directory-name"}

	w := gomarc.NewMarcFileWriter(gomarc.WithFileNameGenerator(nameGenerator))
	defer func() {
		_ = w.Close()
	}()

	builder := gomarc.NewRecordBuilder()
	builder.AddControlField("001", "123")
	builder.AddDataField("245", '1', '0', gomarc.Subfield{Code: 'a', Value: "Title"})

	if record, err := builder.Build(); err == nil {
		w.Write(record)
	}
}

func ExampleNewMarcFileReader() {
	reader, err := gomarc.NewMarcFileReader("records.marc", gomarc.WithRecoveryMode(gomarc.Permissive))
	if err != nil {
		fmt.Println("Error creating marc reader:", err)
		return
	}

	for {
		record, _, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println("Error reading record:", err)
			return
		}
		fmt.Println("Record id:", record.Identifier())
		// Do more with record as per needs
	}
}

func ExampleNewPipeline() {
	src, err := gomarc.NewFileSource("records.marc")
	if err != nil {
		fmt.Println("Error opening file:", err)
		return
	}

	pipeline := gomarc.NewPipeline(src, gomarc.WithWorkers(4), gomarc.WithRecoveryMode(gomarc.Lenient))
	defer func() {
		_ = pipeline.Close()
	}()

	for {
		record, _, err := pipeline.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println("Error reading record:", err)
			return
		}
		fmt.Println("Record id:", record.Identifier())
	}
}
