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

package gomarc

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MarcFileReader(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "records.marc")
	require.NoError(t, os.WriteFile(filename, []byte(recordA+recordB), 0644))

	reader, err := NewMarcFileReader(filename)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	var ids []string
	for {
		record, _, err := reader.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ids = append(ids, record.Identifier())
	}
	assert.Equal(t, []string{"123", "456"}, ids)
}

func Test_PatternNameGenerator(t *testing.T) {
	defer func() { now = time.Now }()
	now = func() time.Time { return time.Date(2001, 9, 12, 5, 30, 20, 0, time.UTC) }

	g := &PatternNameGenerator{Directory: "/tmp", Prefix: "marc-"}

	dir, name := g.NewMarcFileName()
	assert.Equal(t, "/tmp", dir)
	assert.Equal(t, "marc-20010912053020-0001.marc", name)

	dir, name = g.NewMarcFileName()
	assert.Equal(t, "/tmp", dir)
	assert.Equal(t, "marc-20010912053020-0002.marc", name)
}

func Test_MarcFileWriter_rotation(t *testing.T) {
	testDir := t.TempDir()

	// Each encoded record is 64 bytes, so a 100 byte ceiling fits exactly one
	// record per file.
	w := NewMarcFileWriter(
		WithFileNameGenerator(&PatternNameGenerator{Directory: testDir, Prefix: "test-"}),
		WithMaxFileSize(100))

	record, _, err := Unmarshal([]byte(recordA))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		resp := w.Write(record)
		require.NoError(t, resp.Err)
		assert.Equal(t, int64(0), resp.FileOffset)
		assert.Equal(t, int64(64), resp.BytesWritten)
	}
	require.NoError(t, w.Close())

	open, err := filepath.Glob(filepath.Join(testDir, "*.open"))
	require.NoError(t, err)
	assert.Empty(t, open, "no file should keep the open suffix after Close")

	files, err := filepath.Glob(filepath.Join(testDir, "test-*.marc"))
	require.NoError(t, err)
	require.Len(t, files, 3)

	// Every rotated file must read back as one intact record.
	for _, f := range files {
		reader, err := NewMarcFileReader(f)
		require.NoError(t, err)
		got, _, err := reader.Next()
		require.NoError(t, err)
		assert.Equal(t, "123", got.Identifier())
		_, _, err = reader.Next()
		assert.Equal(t, io.EOF, err)
		require.NoError(t, reader.Close())
	}
}

func Test_MarcFileWriter_offsets(t *testing.T) {
	testDir := t.TempDir()

	w := NewMarcFileWriter(
		WithFileNameGenerator(&PatternNameGenerator{Directory: testDir}),
		WithMaxFileSize(0))

	record, _, err := Unmarshal([]byte(recordA))
	require.NoError(t, err)

	first := w.Write(record)
	require.NoError(t, first.Err)
	second := w.Write(record)
	require.NoError(t, second.Err)
	require.NoError(t, w.Close())

	assert.Equal(t, first.FileName, second.FileName)
	assert.Equal(t, int64(0), first.FileOffset)
	assert.Equal(t, int64(64), second.FileOffset)
}
