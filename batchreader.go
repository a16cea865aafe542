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

	log "github.com/sirupsen/logrus"
)

type readerState int8

const (
	// stateFilling pulls a new batch from the source when the queue drains.
	stateFilling readerState = iota
	// stateDrainingAtEof serves buffered records; the source is exhausted and
	// no further I/O happens.
	stateDrainingAtEof
	// stateExhausted reports io.EOF forever, with no I/O.
	stateExhausted
)

// BatchedReader is a single-goroutine, pull-based record reader.
//
// Instead of touching the source per record it reads, scans and decodes in
// batches bounded by a record-count ceiling and a byte-size ceiling, which
// also bounds its peak memory regardless of stream length. After the source
// is exhausted every further Next call returns io.EOF without I/O.
//
// A BatchedReader is not safe for concurrent use.
type BatchedReader struct {
	opts        *options
	src         Source
	unmarshaler Unmarshaler

	buf      []byte // carry of unscanned bytes between fills
	queue    []decoded
	head     int
	state    readerState
	eof      bool
	terminal error // pending TruncatedError or SourceError, delivered once
	skipped  int64
}

type decoded struct {
	record     *Record
	validation *Validation
	err        error
}

func NewBatchedReader(src Source, opts ...Option) *BatchedReader {
	o := newOptions(opts...)
	return &BatchedReader{
		opts:        o,
		src:         src,
		unmarshaler: &unmarshaler{opts: o},
		state:       stateFilling,
	}
}

// Next returns the next record, a per-record decode error, or io.EOF when
// the stream is exhausted.
//
// With recovery mode Lenient or Permissive, or with WithSkipInvalidRecords,
// records that fail to decode are skipped instead of surfaced; see Skipped.
// A TruncatedError or SourceError is delivered once and ends the stream.
func (b *BatchedReader) Next() (*Record, *Validation, error) {
	for {
		if b.head < len(b.queue) {
			d := b.queue[b.head]
			b.head++
			return d.record, d.validation, d.err
		}

		switch b.state {
		case stateExhausted:
			if b.terminal != nil {
				err := b.terminal
				b.terminal = nil
				return nil, nil, err
			}
			return nil, nil, io.EOF
		case stateDrainingAtEof:
			b.state = stateExhausted
		case stateFilling:
			b.fill()
			if b.eof {
				b.state = stateDrainingAtEof
			}
		}
	}
}

// Skipped returns the number of undecodable records dropped so far.
func (b *BatchedReader) Skipped() int64 {
	return b.skipped
}

// fill pulls one batch: it reads up to the byte ceiling from the source,
// scans for record boundaries, decodes up to the record ceiling into the
// queue and carries any trailing partial record to the next fill.
func (b *BatchedReader) fill() {
	b.queue = b.queue[:0]
	b.head = 0

	bytesPulled := 0
	for len(b.queue) < b.opts.batchRecordCeiling && bytesPulled < b.opts.batchByteCeiling && !b.eof {
		chunk := make([]byte, b.opts.batchByteCeiling-bytesPulled)
		n, err := b.src.Read(chunk)
		bytesPulled += n
		b.buf = append(b.buf, chunk[:n]...)

		if err == io.EOF {
			b.eof = true
		} else if err != nil {
			b.eof = true
			b.terminal = newSourceError(err)
			b.buf = nil
			return
		}

		spans, next := ScanBoundaries(b.buf)
		for _, span := range spans {
			d := decoded{}
			d.record, d.validation, d.err = b.unmarshaler.Unmarshal(b.buf[span.Offset : span.Offset+span.Length])
			if d.err != nil && (b.opts.skipInvalidRecords || b.opts.recovery != Strict) {
				b.skipped++
				log.WithError(d.err).Debug("skipping undecodable record")
				continue
			}
			b.queue = append(b.queue, d)
		}
		b.buf = append(b.buf[:0], b.buf[next:]...)
	}

	if b.eof && len(b.buf) > 0 {
		b.terminal = newTruncatedError(len(b.buf))
		b.buf = nil
	}
}
