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
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nlnwa/gomarc/internal/timestamp"
	"github.com/prometheus/tsdb/fileutil"
	log "github.com/sirupsen/logrus"
)

// MarcFileReader reads records sequentially from a local file through a
// BatchedReader.
type MarcFileReader struct {
	file   *os.File
	reader *BatchedReader
}

func NewMarcFileReader(filename string, opts ...Option) (*MarcFileReader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	return &MarcFileReader{
		file:   file,
		reader: NewBatchedReader(&FileSource{file: file}, opts...),
	}, nil
}

// Next returns the next record from the file. When at end of file only
// io.EOF is returned.
func (r *MarcFileReader) Next() (*Record, *Validation, error) {
	return r.reader.Next()
}

// Skipped returns the number of undecodable records dropped so far.
func (r *MarcFileReader) Skipped() int64 {
	return r.reader.Skipped()
}

// Close closes the MarcFileReader.
func (r *MarcFileReader) Close() error {
	return r.file.Close()
}

// FileNameGenerator is the interface that wraps the NewMarcFileName function.
type FileNameGenerator interface {
	// NewMarcFileName returns a directory (might be the empty string for
	// current directory) and a file name
	NewMarcFileName() (string, string)
}

// PatternNameGenerator implements the FileNameGenerator.
type PatternNameGenerator struct {
	Directory string // Directory to store the files. Defaults to the empty string
	Prefix    string // Prefix for generated file names. Defaults to the empty string
	Serial    int32  // Serial number, atomically increased with every generated file name.
}

// Allow overriding of time.Now for tests
var now = time.Now

func (g *PatternNameGenerator) NewMarcFileName() (string, string) {
	name := fmt.Sprintf("%s%s-%04d.marc", g.Prefix, timestamp.UTC14(now()), atomic.AddInt32(&g.Serial, 1))
	return g.Directory, name
}

// MarcFileWriter marshals records to size-rotated files. Files keep an
// openFileSuffix while being written and are renamed in place when closed.
type MarcFileWriter struct {
	opts            *writerOptions
	writeLock       sync.Mutex
	currentFile     *os.File
	currentFileName string
	currentFileSize int64
}

// NewMarcFileWriter creates a new MarcFileWriter with the supplied options.
func NewMarcFileWriter(opts ...WriterOption) *MarcFileWriter {
	o := defaultWriterOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return &MarcFileWriter{opts: &o}
}

// WriteResponse is the result of writing one record.
type WriteResponse struct {
	FileName     string // filename
	FileOffset   int64  // the offset in file
	BytesWritten int64  // number of bytes written
	Err          error  // eventual error
}

// Write marshals one record to the current file, creating or rotating files
// as needed.
func (w *MarcFileWriter) Write(record *Record) (response WriteResponse) {
	w.writeLock.Lock()
	defer w.writeLock.Unlock()

	var buf bytes.Buffer
	if _, err := w.opts.marshaler.Marshal(&buf, record); err != nil {
		response.Err = err
		return
	}

	// Check if the current file has space for the new record
	if w.currentFile != nil && w.opts.maxFileSize > 0 &&
		w.currentFileSize > 0 && w.currentFileSize+int64(buf.Len()) > w.opts.maxFileSize {
		if err := w.close(); err != nil {
			response.Err = err
			return
		}
	}

	if w.currentFile == nil {
		if err := w.createFile(); err != nil {
			response.Err = err
			return
		}
	}

	response.FileName = w.currentFileName
	response.FileOffset = w.currentFileSize

	n, err := w.currentFile.Write(buf.Bytes())
	response.BytesWritten = int64(n)
	w.currentFileSize += int64(n)
	if err != nil {
		response.Err = err
		return
	}

	if w.opts.flush {
		// sync file to reduce possibility of half written records in case of crash
		if response.Err = w.currentFile.Sync(); response.Err != nil {
			return
		}
	}
	return
}

func (w *MarcFileWriter) createFile() error {
	dir, fileName := w.opts.nameGenerator.NewMarcFileName()
	path := dir
	if path != "" && !strings.HasSuffix(path, "/") {
		path += "/"
	}
	path += fileName + w.opts.openFileSuffix

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0666)
	if err != nil {
		return err
	}
	log.WithField("file", fileName).Debug("created new file")
	w.currentFile = file
	w.currentFileName = fileName
	w.currentFileSize = 0
	return nil
}

// Rotate closes the file currently being written to.
// A call to Write after Rotate creates a new file.
func (w *MarcFileWriter) Rotate() error {
	w.writeLock.Lock()
	defer w.writeLock.Unlock()
	return w.close()
}

// Close closes the current file and releases the MarcFileWriter.
func (w *MarcFileWriter) Close() error {
	w.writeLock.Lock()
	defer w.writeLock.Unlock()
	return w.close()
}

func (w *MarcFileWriter) close() error {
	if w.currentFile == nil {
		return nil
	}
	f := w.currentFile
	w.currentFile = nil
	w.currentFileName = ""

	var errs multiErr
	if err := f.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close file: %s: %w", f.Name(), err))
	}
	if err := fileutil.Rename(f.Name(), strings.TrimSuffix(f.Name(), w.opts.openFileSuffix)); err != nil {
		errs = append(errs, fmt.Errorf("failed to rename file: %s: %w", f.Name(), err))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Options for the file writer
type writerOptions struct {
	maxFileSize    int64
	openFileSuffix string
	nameGenerator  FileNameGenerator
	marshaler      Marshaler
	flush          bool
}

// WriterOption configures how to write record files.
type WriterOption interface {
	apply(*writerOptions)
}

// funcWriterOption wraps a function that modifies writerOptions into an
// implementation of the WriterOption interface.
type funcWriterOption struct {
	f func(*writerOptions)
}

func (fo *funcWriterOption) apply(o *writerOptions) {
	fo.f(o)
}

func newFuncWriterOption(f func(*writerOptions)) *funcWriterOption {
	return &funcWriterOption{
		f: f,
	}
}

func defaultWriterOptions() writerOptions {
	return writerOptions{
		maxFileSize:    1024 * 1024 * 1024, // 1 GiB
		openFileSuffix: ".open",
		nameGenerator:  &PatternNameGenerator{},
		marshaler:      &defaultMarshaler{},
		flush:          false,
	}
}

// WithMaxFileSize sets the max size of a file before creating a new one.
// A value of zero disables rotation.
// defaults to 1 GiB
func WithMaxFileSize(size int64) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.maxFileSize = size
	})
}

// WithOpenFileSuffix sets a suffix to be added to the file name while the
// file is open for writing. The suffix is removed when the file is closed.
// defaults to ".open"
func WithOpenFileSuffix(suffix string) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.openFileSuffix = suffix
	})
}

// WithFileNameGenerator sets the FileNameGenerator to use for new file names.
// defaults to PatternNameGenerator
func WithFileNameGenerator(generator FileNameGenerator) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.nameGenerator = generator
	})
}

// WithMarshaler sets the record marshaler to use.
// defaults to defaultMarshaler
func WithMarshaler(marshaler Marshaler) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.marshaler = marshaler
	})
}

// WithFlush sets if the writer should commit each record to stable storage.
// defaults to false
func WithFlush(flush bool) WriterOption {
	return newFuncWriterOption(func(o *writerOptions) {
		o.flush = flush
	})
}
