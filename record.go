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
	"strings"
)

const (
	recordTerminator  = 0x1d // ends a serialized record
	fieldTerminator   = 0x1e // ends the directory and every field body
	subfieldDelimiter = 0x1f // introduces a subfield code within a data field

	leaderLength         = 24
	directoryEntryLength = 12

	// A record can never be shorter than leader + directory terminator + record terminator.
	minRecordLength = leaderLength + 2

	// Absolute size ceilings imposed by the fixed-width leader and directory slots.
	maxRecordLength = 99999
	maxFieldLength  = 9999
	maxFieldOffset  = 99999
)

// Subfield is a single (code, value) pair within a data field.
//
// Value holds the raw bytes from the record. The leader's encoding flag
// decides how they should be interpreted as text, which is up to the caller.
type Subfield struct {
	Code  byte
	Value string
}

// Field is one variable field of a MARC record.
//
// Fields with a tag in the control range (00X) carry a raw Value and no
// indicators or subfields. All other fields carry two indicators and an
// ordered list of subfields; Value is ignored for those.
type Field struct {
	Tag        string
	Value      string
	Indicator1 byte
	Indicator2 byte
	Subfields  []Subfield
}

// IsControlTag reports whether tag belongs to the reserved control field range (001-009).
func IsControlTag(tag string) bool {
	return len(tag) == 3 && tag[0] == '0' && tag[1] == '0'
}

// IsControl reports whether the field is a control field.
func (f *Field) IsControl() bool {
	return IsControlTag(f.Tag)
}

// AddSubfield appends a subfield, keeping insertion order.
func (f *Field) AddSubfield(code byte, value string) *Field {
	f.Subfields = append(f.Subfields, Subfield{Code: code, Value: value})
	return f
}

// Subfield returns the value of the first subfield with the given code and
// whether it was found.
func (f *Field) Subfield(code byte) (string, bool) {
	for _, sf := range f.Subfields {
		if sf.Code == code {
			return sf.Value, true
		}
	}
	return "", false
}

func (f *Field) String() string {
	if f.IsControl() {
		return fmt.Sprintf("%s %s", f.Tag, f.Value)
	}
	var sb strings.Builder
	sb.WriteString(f.Tag)
	sb.WriteByte(' ')
	sb.WriteByte(printableIndicator(f.Indicator1))
	sb.WriteByte(printableIndicator(f.Indicator2))
	for _, sf := range f.Subfields {
		sb.WriteString(" $")
		sb.WriteByte(sf.Code)
		sb.WriteByte(' ')
		sb.WriteString(sf.Value)
	}
	return sb.String()
}

func printableIndicator(b byte) byte {
	if b == ' ' || b == 0 {
		return '#'
	}
	return b
}

// Record is one MARC record: a Leader and its fields in storage order.
//
// Field order is the order the fields appeared in the serialized record.
// Grouping by tag is a derived view, see GetFields. The leader's length and
// base address are recomputed whenever the record is encoded, so a record may
// be freely mutated between a decode and an encode.
type Record struct {
	Leader *Leader
	Fields []*Field
}

// AddField appends a field, keeping insertion order.
func (r *Record) AddField(f *Field) {
	r.Fields = append(r.Fields, f)
}

// GetFields returns all fields with the given tag in storage order.
func (r *Record) GetFields(tag string) []*Field {
	var fields []*Field
	for _, f := range r.Fields {
		if f.Tag == tag {
			fields = append(fields, f)
		}
	}
	return fields
}

// Identifier returns the value of the record's control number field (001),
// or the empty string if the record has none.
func (r *Record) Identifier() string {
	for _, f := range r.Fields {
		if f.Tag == "001" {
			return f.Value
		}
	}
	return ""
}

func (r *Record) String() string {
	return fmt.Sprintf("MARC record: status: %c, type: %s, id: %s",
		r.Leader.Status, string(r.Leader.Type[:]), r.Identifier())
}
