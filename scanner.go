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
)

// Slice is an (offset, length) view of one complete record within a buffer.
// It borrows from the scanned buffer and is valid only while that buffer is
// neither mutated nor freed.
type Slice struct {
	Offset int
	Length int
}

// ScanBoundaries finds every complete record span in buf without decoding.
//
// It returns the spans in stream order together with the offset of the first
// unconsumed byte. A buffer may end mid-record; the caller carries the
// remainder into its next read and scans again.
//
// Fast path: the 5-digit length field of a candidate leader is read directly
// and accepted when the byte at offset+length-1 is the record terminator.
// Fallback: on an implausible length or a missing terminator, the scan
// advances byte-by-byte to the next record terminator and accepts up to and
// including it, so corrupt input always makes forward progress.
//
// ScanBoundaries is a pure function over an immutable buffer and is safe for
// concurrent use.
func ScanBoundaries(buf []byte) ([]Slice, int) {
	var spans []Slice
	pos := 0
	for {
		remaining := len(buf) - pos
		if remaining == 0 {
			return spans, pos
		}
		if remaining < 5 {
			// Could be the start of a partial leader; carry it.
			return spans, pos
		}

		if length, ok := atoiFixed(buf[pos : pos+5]); ok && length >= minRecordLength && length <= maxRecordLength {
			if pos+length > len(buf) {
				// Partial record at the tail; carry it.
				return spans, pos
			}
			if buf[pos+length-1] == recordTerminator {
				spans = append(spans, Slice{Offset: pos, Length: length})
				pos += length
				continue
			}
		}

		// Implausible length field or terminator not where the leader claims.
		// Accept everything up to the next record terminator; the codec will
		// report what is wrong with it.
		next := bytes.IndexByte(buf[pos:], recordTerminator)
		if next < 0 {
			return spans, pos
		}
		spans = append(spans, Slice{Offset: pos, Length: next + 1})
		pos += next + 1
	}
}
