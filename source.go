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
	"bytes"
	"io"
	"os"
)

// Source abstracts where record bytes come from. The single contract is the
// io.Reader one: fill the caller's buffer, report bytes read or io.EOF.
//
// A source is chosen once at construction and is owned by exactly one
// reading goroutine for its whole life.
type Source interface {
	io.Reader
}

// FileSource reads records from a local file.
type FileSource struct {
	file *os.File
}

func NewFileSource(filename string) (*FileSource, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	return &FileSource{file: file}, nil
}

func (s *FileSource) Read(p []byte) (int, error) {
	return s.file.Read(p)
}

func (s *FileSource) Close() error {
	return s.file.Close()
}

// BufferSource reads records from an in-memory buffer. It is a cursor over
// the buffer and costs nothing beyond the slice copy into the caller's
// buffer.
type BufferSource struct {
	reader *bytes.Reader
}

func NewBufferSource(data []byte) *BufferSource {
	return &BufferSource{reader: bytes.NewReader(data)}
}

func (s *BufferSource) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Guard is acquired around each fill of a ReaderSource whose underlying
// handle is owned by an embedding environment. The guard is held only for
// the duration of the read, never across scanning or decode, and no
// host-owned reference leaves the guarded region.
type Guard interface {
	Acquire()
	Release()
}

// ReaderSource reads records from an externally-owned byte-producing handle.
//
// Crossing into the owning environment has a per-call cost, so callers keep
// the call frequency down by reading in large chunks; the pipeline and the
// batched reader already do.
type ReaderSource struct {
	reader io.Reader
	guard  Guard
}

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{reader: r}
}

// NewGuardedReaderSource wraps an externally-owned handle whose environment
// requires a lock to be held while it is touched.
func NewGuardedReaderSource(r io.Reader, guard Guard) *ReaderSource {
	return &ReaderSource{reader: r, guard: guard}
}

func (s *ReaderSource) Read(p []byte) (int, error) {
	if s.guard != nil {
		s.guard.Acquire()
		defer s.guard.Release()
	}
	return s.reader.Read(p)
}
