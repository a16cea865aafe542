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
	"fmt"
	"runtime"
)

// RecoveryMode is the decode-time tolerance policy. It is a property of a
// decoding session, not of a record.
type RecoveryMode int8

const (
	// Strict fails the whole record on any structural deviation.
	Strict RecoveryMode = iota
	// Lenient drops a field that fails to parse, records the drop in the
	// Validation and keeps decoding the record.
	Lenient
	// Permissive additionally tolerates directory/data length mismatches by
	// clamping offsets to the available data.
	Permissive
)

func (m RecoveryMode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	case Permissive:
		return "permissive"
	default:
		return "unknown"
	}
}

// ParseRecoveryMode resolves a mode name as used in configuration and flags.
func ParseRecoveryMode(s string) (RecoveryMode, error) {
	switch s {
	case "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	case "permissive":
		return Permissive, nil
	default:
		return Strict, fmt.Errorf("gomarc: unknown recovery mode: %q", s)
	}
}

type options struct {
	recovery           RecoveryMode
	skipInvalidRecords bool
	batchRecordCeiling int
	batchByteCeiling   int
	chunkSize          int
	batchSize          int
	workers            int
	channelCapacity    int
}

// Option configures deserialization, the batched reader and the parallel
// pipeline.
type Option interface {
	apply(*options)
}

// EmptyOption does not alter the configuration. It can be embedded in
// another structure to build custom options.
type EmptyOption struct{}

func (EmptyOption) apply(*options) {}

// funcOption wraps a function that modifies options into an
// implementation of the Option interface.
type funcOption struct {
	f func(*options)
}

func (fo *funcOption) apply(o *options) {
	fo.f(o)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{
		f: f,
	}
}

func defaultOptions() options {
	return options{
		recovery:           Strict,
		skipInvalidRecords: false,
		batchRecordCeiling: 256,
		batchByteCeiling:   1024 * 1024,
		chunkSize:          512 * 1024,
		batchSize:          100,
		workers:            runtime.NumCPU(),
		channelCapacity:    1000,
	}
}

func newOptions(opts ...Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return &o
}

// WithRecoveryMode sets the decode tolerance policy.
// defaults to Strict
func WithRecoveryMode(mode RecoveryMode) Option {
	return newFuncOption(func(o *options) {
		o.recovery = mode
	})
}

// WithSkipInvalidRecords decides if the batched reader and the pipeline skip
// a record that fails to decode instead of surfacing the error. Records are
// always skipped when the recovery mode is Lenient or Permissive.
// defaults to false
func WithSkipInvalidRecords(skip bool) Option {
	return newFuncOption(func(o *options) {
		o.skipInvalidRecords = skip
	})
}

// WithBatchRecordCeiling sets the maximum number of records the batched
// reader decodes per fill.
// defaults to 256
func WithBatchRecordCeiling(n int) Option {
	return newFuncOption(func(o *options) {
		if n > 0 {
			o.batchRecordCeiling = n
		}
	})
}

// WithBatchByteCeiling sets the maximum number of bytes the batched reader
// pulls from the source per fill.
// defaults to 1 MiB
func WithBatchByteCeiling(n int) Option {
	return newFuncOption(func(o *options) {
		if n > 0 {
			o.batchByteCeiling = n
		}
	})
}

// WithChunkSize sets the size of the buffer the pipeline producer fills per
// read from the source.
// defaults to 512 KiB
func WithChunkSize(n int) Option {
	return newFuncOption(func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	})
}

// WithBatchSize sets the number of record spans grouped into one unit of
// decode work in the pipeline.
// defaults to 100
func WithBatchSize(n int) Option {
	return newFuncOption(func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	})
}

// WithWorkers sets the number of decode workers in the pipeline.
// defaults to the number of CPUs
func WithWorkers(n int) Option {
	return newFuncOption(func(o *options) {
		if n > 0 {
			o.workers = n
		}
	})
}

// WithChannelCapacity sets the capacity of the pipeline's result channel.
// A full channel blocks decoding and, transitively, further source reads.
// defaults to 1000
func WithChannelCapacity(n int) Option {
	return newFuncOption(func(o *options) {
		if n > 0 {
			o.channelCapacity = n
		}
	})
}
