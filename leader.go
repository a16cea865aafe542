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

// Leader is the fixed 24-byte header of a MARC record.
//
// The record length (positions 0-4) and base address of data (positions
// 12-16) are not stored as mutable fields: both are derived from the field
// sequence and recomputed every time the record is encoded. The values found
// during a decode are available through Length and BaseAddress.
//
// The encoding flag (positions 8-9) distinguishes legacy 8-bit data (space)
// from Unicode data ('a'). It is carried through verbatim and never
// interpreted by this package.
type Leader struct {
	Status            byte    // position 5, record status
	Type              [2]byte // positions 6-7, type of record and bibliographic level
	Encoding          [2]byte // positions 8-9, character encoding flag
	IndicatorCount    byte    // position 10, conventionally '2'
	SubfieldCodeCount byte    // position 11, conventionally '2'
	Codes             [3]byte // positions 17-19, further type codes
	EntryMap          [4]byte // positions 20-23, conventionally "4500"

	length      int
	baseAddress int
}

// DefaultLeader returns a leader with conventional values for a new
// bibliographic record.
func DefaultLeader() *Leader {
	return &Leader{
		Status:            'n',
		Type:              [2]byte{'a', 'm'},
		Encoding:          [2]byte{' ', 'a'},
		IndicatorCount:    '2',
		SubfieldCodeCount: '2',
		Codes:             [3]byte{' ', ' ', ' '},
		EntryMap:          [4]byte{'4', '5', '0', '0'},
	}
}

// Length returns the record length found in the leader at decode time.
// It is informational only; encoding recomputes the length.
func (l *Leader) Length() int { return l.length }

// BaseAddress returns the base address of data found in the leader at decode
// time. It is informational only; encoding recomputes the base address.
func (l *Leader) BaseAddress() int { return l.baseAddress }

// Unicode reports whether the encoding flag marks the record data as Unicode.
func (l *Leader) Unicode() bool { return l.Encoding[1] == 'a' }

func (l *Leader) String() string {
	b := l.encode(l.length, l.baseAddress)
	return string(b[:])
}

// parseLeader decodes the first 24 bytes of data.
//
// Strict and Lenient fail on non-numeric length or base address slots. In
// Permissive mode the span length substitutes for a bad length field and the
// base address is recovered by locating the directory terminator.
func parseLeader(data []byte, opts *options, validation *Validation) (*Leader, error) {
	if len(data) < leaderLength {
		return nil, newLeaderErrorf("record shorter than leader: %d bytes", len(data))
	}

	l := &Leader{
		Status:            data[5],
		Type:              [2]byte{data[6], data[7]},
		Encoding:          [2]byte{data[8], data[9]},
		IndicatorCount:    data[10],
		SubfieldCodeCount: data[11],
		Codes:             [3]byte{data[17], data[18], data[19]},
		EntryMap:          [4]byte{data[20], data[21], data[22], data[23]},
	}

	length, lengthOk := atoiFixed(data[0:5])
	base, baseOk := atoiFixed(data[12:17])

	if !lengthOk || !baseOk {
		if opts.recovery != Permissive {
			return nil, newLeaderErrorf("non-numeric length or base address: %q", data[0:17])
		}
		validation.AddError(newLeaderErrorf("non-numeric length or base address: %q", data[0:17]))
		length = len(data)
		base = recoverBaseAddress(data)
		if base < 0 {
			return nil, newLeaderError("no directory terminator found")
		}
	}

	if length != len(data) {
		if opts.recovery != Permissive {
			return nil, newLeaderErrorf("leader length %d does not match record span %d", length, len(data))
		}
		validation.AddError(newLeaderErrorf("leader length %d does not match record span %d", length, len(data)))
		length = len(data)
	}

	l.length = length
	l.baseAddress = base
	return l, nil
}

// recoverBaseAddress locates the byte after the first field terminator,
// which ends the directory in a structurally sound record.
func recoverBaseAddress(data []byte) int {
	i := bytes.IndexByte(data[leaderLength:], fieldTerminator)
	if i < 0 {
		return -1
	}
	return leaderLength + i + 1
}

// encode serializes the leader with the given computed length and base address.
func (l *Leader) encode(length, base int) [leaderLength]byte {
	var b [leaderLength]byte
	putIntFixed(b[0:5], length)
	b[5] = l.Status
	b[6], b[7] = l.Type[0], l.Type[1]
	b[8], b[9] = l.Encoding[0], l.Encoding[1]
	b[10] = l.IndicatorCount
	b[11] = l.SubfieldCodeCount
	putIntFixed(b[12:17], base)
	b[17], b[18], b[19] = l.Codes[0], l.Codes[1], l.Codes[2]
	b[20], b[21], b[22], b[23] = l.EntryMap[0], l.EntryMap[1], l.EntryMap[2], l.EntryMap[3]
	return b
}

// atoiFixed parses a fixed-width slot of ASCII digits.
func atoiFixed(b []byte) (int, bool) {
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// putIntFixed writes v zero-padded into the full width of b.
// The caller guarantees v fits; encode-time overflow is checked before this point.
func putIntFixed(b []byte, v int) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = byte('0' + v%10)
		v /= 10
	}
}
