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
)

// Marshaler is the interface that wraps the Marshal function.
//
// Marshal converts a record to its serialized form and returns the number of
// bytes written or any error encountered.
//
// The directory and the leader's length and base address slots are always
// computed from the record's current field sequence, never reused from a
// prior decode, so a mutated record round-trips correctly.
type Marshaler interface {
	Marshal(w io.Writer, record *Record) (int64, error)
}

type defaultMarshaler struct {
}

func NewMarshaler() Marshaler {
	return &defaultMarshaler{}
}

// Marshal serializes one record. It is a convenience for a one-off encode;
// reuse a Marshaler for streams.
func Marshal(record *Record) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := NewMarshaler().Marshal(&buf, record); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *defaultMarshaler) Marshal(w io.Writer, record *Record) (int64, error) {
	var directory bytes.Buffer
	var data bytes.Buffer

	offset := 0
	for _, field := range record.Fields {
		if len(field.Tag) != 3 {
			return 0, newOverflowErrorf(field.Tag, "tag must be exactly 3 bytes")
		}

		start := data.Len()
		if field.IsControl() {
			data.WriteString(field.Value)
		} else {
			data.WriteByte(indicatorByte(field.Indicator1))
			data.WriteByte(indicatorByte(field.Indicator2))
			for _, sf := range field.Subfields {
				data.WriteByte(subfieldDelimiter)
				data.WriteByte(sf.Code)
				data.WriteString(sf.Value)
			}
		}
		data.WriteByte(fieldTerminator)

		fieldLength := data.Len() - start
		if fieldLength > maxFieldLength {
			return 0, newOverflowErrorf(field.Tag, "field length %d exceeds slot maximum %d", fieldLength, maxFieldLength)
		}
		if offset > maxFieldOffset {
			return 0, newOverflowErrorf(field.Tag, "field offset %d exceeds slot maximum %d", offset, maxFieldOffset)
		}

		var entry [directoryEntryLength]byte
		copy(entry[0:3], field.Tag)
		putIntFixed(entry[3:7], fieldLength)
		putIntFixed(entry[7:12], offset)
		directory.Write(entry[:])

		offset += fieldLength
	}
	directory.WriteByte(fieldTerminator)

	base := leaderLength + directory.Len()
	total := base + data.Len() + 1
	if total > maxRecordLength {
		return 0, newOverflowErrorf("", "record length %d exceeds slot maximum %d", total, maxRecordLength)
	}

	leader := record.Leader
	if leader == nil {
		leader = DefaultLeader()
	}
	leaderBytes := leader.encode(total, base)

	var bytesWritten int64
	n, err := w.Write(leaderBytes[:])
	bytesWritten += int64(n)
	if err != nil {
		return bytesWritten, err
	}

	bw, err := directory.WriteTo(w)
	bytesWritten += bw
	if err != nil {
		return bytesWritten, err
	}

	bw, err = data.WriteTo(w)
	bytesWritten += bw
	if err != nil {
		return bytesWritten, err
	}

	n, err = w.Write([]byte{recordTerminator})
	bytesWritten += int64(n)
	return bytesWritten, err
}

// indicatorByte maps the zero value to the blank indicator so that records
// built programmatically without explicit indicators stay valid.
func indicatorByte(b byte) byte {
	if b == 0 {
		return ' '
	}
	return b
}
