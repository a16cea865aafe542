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

	log "github.com/sirupsen/logrus"
)

// Unmarshaler is the interface that wraps the Unmarshal function.
//
// Unmarshal decodes the bytes of exactly one record, as delimited by the
// boundary scanner, into a Record. The returned Validation holds the
// non-fatal diagnostics tolerated by the configured recovery mode.
type Unmarshaler interface {
	Unmarshal(data []byte) (*Record, *Validation, error)
}

type unmarshaler struct {
	opts *options
}

func NewUnmarshaler(opts ...Option) Unmarshaler {
	return &unmarshaler{opts: newOptions(opts...)}
}

// Unmarshal decodes one record span with the given options. It is a
// convenience for a one-off decode; reuse an Unmarshaler for streams.
func Unmarshal(data []byte, opts ...Option) (*Record, *Validation, error) {
	return NewUnmarshaler(opts...).Unmarshal(data)
}

func (u *unmarshaler) Unmarshal(data []byte) (*Record, *Validation, error) {
	validation := &Validation{}

	if len(data) < minRecordLength {
		return nil, validation, newLeaderErrorf("record too short: %d bytes", len(data))
	}

	leader, err := parseLeader(data, u.opts, validation)
	if err != nil {
		return nil, validation, err
	}

	base := leader.baseAddress
	if base < leaderLength+1 || base >= len(data) || data[base-1] != fieldTerminator {
		if u.opts.recovery != Permissive {
			return nil, validation, newDirectoryErrorf("", "missing directory terminator at base address %d", base)
		}
		validation.AddError(newDirectoryErrorf("", "missing directory terminator at base address %d", base))
		base = recoverBaseAddress(data)
		if base < 0 || base >= len(data) {
			return nil, validation, newDirectoryError("", "no directory terminator found")
		}
		leader.baseAddress = base
	}

	dir := data[leaderLength : base-1]
	if rest := len(dir) % directoryEntryLength; rest != 0 {
		if u.opts.recovery != Permissive {
			return nil, validation, newDirectoryErrorf("", "directory size %d is not a multiple of %d", len(dir), directoryEntryLength)
		}
		validation.AddError(newDirectoryErrorf("", "directory size %d is not a multiple of %d", len(dir), directoryEntryLength))
		dir = dir[:len(dir)-rest]
	}

	dataEnd := len(data) - 1
	if data[dataEnd] != recordTerminator {
		if u.opts.recovery != Permissive {
			return nil, validation, newTruncatedError(len(data))
		}
		validation.AddError(newDirectoryError("", "missing record terminator"))
		dataEnd = len(data)
	}
	dataArea := data[base:dataEnd]

	record := &Record{Leader: leader}
	running := 0

	for i := 0; i < len(dir); i += directoryEntryLength {
		entry := dir[i : i+directoryEntryLength]
		tag := string(entry[0:3])

		fieldLength, lengthOk := atoiFixed(entry[3:7])
		fieldOffset, offsetOk := atoiFixed(entry[7:12])
		if !lengthOk || !offsetOk {
			if u.opts.recovery == Strict {
				return nil, validation, newDirectoryErrorf(tag, "non-numeric length or offset: %q", entry[3:12])
			}
			validation.AddError(newDirectoryErrorf(tag, "non-numeric length or offset: %q", entry[3:12]))
			continue
		}

		// Entries must tile the data area without gaps under Strict.
		if u.opts.recovery == Strict && fieldOffset != running {
			return nil, validation, newDirectoryErrorf(tag, "entry offset %d does not tile the data area, expected %d", fieldOffset, running)
		}

		end := fieldOffset + fieldLength
		if fieldOffset > len(dataArea) || end > len(dataArea) {
			if u.opts.recovery != Permissive {
				return nil, validation, newDirectoryErrorf(tag, "field of length %d at offset %d exceeds data area of %d bytes", fieldLength, fieldOffset, len(dataArea))
			}
			validation.AddError(newDirectoryErrorf(tag, "field of length %d at offset %d clamped to data area of %d bytes", fieldLength, fieldOffset, len(dataArea)))
			if fieldOffset >= len(dataArea) {
				continue
			}
			end = len(dataArea)
		}
		running = end

		body := dataArea[fieldOffset:end]
		if len(body) > 0 && body[len(body)-1] == fieldTerminator {
			body = body[:len(body)-1]
		} else {
			if u.opts.recovery == Strict {
				return nil, validation, newDirectoryErrorf(tag, "missing field terminator")
			}
			validation.AddError(newDirectoryErrorf(tag, "missing field terminator"))
		}

		if IsControlTag(tag) {
			record.AddField(&Field{Tag: tag, Value: string(body)})
			continue
		}

		field, fieldErr := parseDataField(tag, body)
		if fieldErr != nil {
			if u.opts.recovery == Strict {
				return nil, validation, fieldErr
			}
			log.WithField("tag", tag).Debug("dropping unparsable field")
			validation.AddError(fieldErr)
			continue
		}
		record.AddField(field)
	}

	if u.opts.recovery == Strict && running != len(dataArea) {
		return nil, validation, newDirectoryErrorf("", "directory covers %d of %d data bytes", running, len(dataArea))
	}

	return record, validation, nil
}

// parseDataField splits a field body into two indicators and its subfields.
func parseDataField(tag string, body []byte) (*Field, error) {
	if len(body) < 2 {
		return nil, newFieldErrorf(tag, "missing indicators")
	}
	field := &Field{Tag: tag, Indicator1: body[0], Indicator2: body[1]}

	rest := body[2:]
	for len(rest) > 0 {
		if rest[0] != subfieldDelimiter {
			return nil, newFieldErrorf(tag, "expected subfield delimiter, got %#x", rest[0])
		}
		rest = rest[1:]
		if len(rest) == 0 {
			return nil, newFieldErrorf(tag, "subfield delimiter without code")
		}
		code := rest[0]
		rest = rest[1:]
		valueEnd := bytes.IndexByte(rest, subfieldDelimiter)
		if valueEnd < 0 {
			valueEnd = len(rest)
		}
		field.Subfields = append(field.Subfields, Subfield{Code: code, Value: string(rest[:valueEnd])})
		rest = rest[valueEnd:]
	}
	return field, nil
}
