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

	"github.com/google/uuid"
)

// RecordBuilder constructs records programmatically.
type RecordBuilder interface {
	SetLeader(leader *Leader)
	AddControlField(tag string, value string)
	AddDataField(tag string, indicator1 byte, indicator2 byte, subfields ...Subfield)
	// Build returns the record after verifying that it can be encoded within
	// the format's fixed-width size slots. A record without a control number
	// field (001) gets a generated one.
	Build() (*Record, error)
}

type recordBuilder struct {
	leader *Leader
	fields []*Field
}

func NewRecordBuilder() RecordBuilder {
	return &recordBuilder{}
}

func (rb *recordBuilder) SetLeader(leader *Leader) {
	rb.leader = leader
}

func (rb *recordBuilder) AddControlField(tag string, value string) {
	rb.fields = append(rb.fields, &Field{Tag: tag, Value: value})
}

func (rb *recordBuilder) AddDataField(tag string, indicator1 byte, indicator2 byte, subfields ...Subfield) {
	rb.fields = append(rb.fields, &Field{
		Tag:        tag,
		Indicator1: indicator1,
		Indicator2: indicator2,
		Subfields:  subfields,
	})
}

func (rb *recordBuilder) Build() (*Record, error) {
	leader := rb.leader
	if leader == nil {
		leader = DefaultLeader()
	}

	record := &Record{Leader: leader, Fields: rb.fields}
	if record.Identifier() == "" {
		// Control number fields come first in conventional storage order.
		record.Fields = append([]*Field{{Tag: "001", Value: uuid.New().String()}}, record.Fields...)
	}

	// A trial encode surfaces overflow errors at build time.
	if _, err := NewMarshaler().Marshal(io.Discard, record); err != nil {
		return nil, err
	}
	return record, nil
}
