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
	"errors"
	"fmt"
	"strings"
)

// ErrPipelineClosed is returned by Pipeline.Next after Close has been called.
var ErrPipelineClosed = errors.New("gomarc: pipeline closed")

// LeaderError is used for a record whose leader cannot be parsed.
type LeaderError struct {
	msg string
}

func newLeaderError(msg string) *LeaderError {
	return &LeaderError{msg: msg}
}

func newLeaderErrorf(msg string, param ...interface{}) *LeaderError {
	return &LeaderError{msg: fmt.Sprintf(msg, param...)}
}

func (e *LeaderError) Error() string {
	return fmt.Sprintf("gomarc: malformed leader: %s", e.msg)
}

// DirectoryError is used when directory entries are unparsable or do not
// tile the data area.
type DirectoryError struct {
	tag string
	msg string
}

func newDirectoryError(tag string, msg string) *DirectoryError {
	return &DirectoryError{tag: tag, msg: msg}
}

func newDirectoryErrorf(tag string, msg string, param ...interface{}) *DirectoryError {
	return &DirectoryError{tag: tag, msg: fmt.Sprintf(msg, param...)}
}

func (e *DirectoryError) Error() string {
	if e.tag != "" {
		return fmt.Sprintf("gomarc: malformed directory: %s at tag %s", e.msg, e.tag)
	}
	return fmt.Sprintf("gomarc: malformed directory: %s", e.msg)
}

// FieldError is used for a field body that violates the indicator/subfield
// structure.
type FieldError struct {
	tag string
	msg string
}

func newFieldErrorf(tag string, msg string, param ...interface{}) *FieldError {
	return &FieldError{tag: tag, msg: fmt.Sprintf(msg, param...)}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("gomarc: malformed field %s: %s", e.tag, e.msg)
}

// OverflowError is an encode-time failure: a field or record exceeds the
// fixed-width slots of the format.
type OverflowError struct {
	tag string
	msg string
}

func newOverflowErrorf(tag string, msg string, param ...interface{}) *OverflowError {
	return &OverflowError{tag: tag, msg: fmt.Sprintf(msg, param...)}
}

func (e *OverflowError) Error() string {
	if e.tag != "" {
		return fmt.Sprintf("gomarc: field overflow at tag %s: %s", e.tag, e.msg)
	}
	return fmt.Sprintf("gomarc: field overflow: %s", e.msg)
}

// TruncatedError indicates that the byte stream ended in the middle of a
// record. It always terminates a stream since no reliable boundary
// information exists past this point.
type TruncatedError struct {
	remaining int
}

func newTruncatedError(remaining int) *TruncatedError {
	return &TruncatedError{remaining: remaining}
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("gomarc: truncated input: stream ended with %d bytes of a partial record", e.remaining)
}

// SourceError wraps an I/O failure of the backend source. It always
// terminates a stream.
type SourceError struct {
	wrapped error
}

func newSourceError(err error) *SourceError {
	return &SourceError{wrapped: err}
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("gomarc: source: %v", e.wrapped)
}

func (e *SourceError) Unwrap() error {
	return e.wrapped
}

type multiErr []error

func (e multiErr) Error() string {
	switch len(e) {

	case 0:
		return ""

	case 1:
		return e[0].Error()
	}

	const (
		start = "["
		sep   = ", "
		end   = "]"
	)

	n := len(start) + len(end) + (len(sep) * (len(e) - 1))
	for i := 0; i < len(e); i++ {
		n += len(e[i].Error())
	}

	var b strings.Builder
	b.Grow(n)
	b.WriteString(start)
	b.WriteString(e[0].Error())
	for _, s := range e[1:] {
		b.WriteString(sep)
		b.WriteString(s.Error())
	}
	b.WriteString(end)
	return b.String()
}
