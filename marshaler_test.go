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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_marshaler_roundTrip(t *testing.T) {
	for _, input := range []string{recordA, recordB} {
		record, _, err := Unmarshal([]byte(input))
		require.NoError(t, err)

		encoded, err := Marshal(record)
		require.NoError(t, err)
		assert.Equal(t, input, string(encoded))

		again, _, err := Unmarshal(encoded)
		require.NoError(t, err)
		assert.Equal(t, record, again)
	}
}

func Test_marshaler_recomputesLeader(t *testing.T) {
	record, _, err := Unmarshal([]byte(recordA))
	require.NoError(t, err)

	// Mutate the record; length, offsets and base address in the old leader
	// are now stale and must not survive the encode.
	record.GetFields("245")[0].Subfields[0].Value = "A much longer title than before"
	record.AddField((&Field{Tag: "650", Indicator1: ' ', Indicator2: '0'}).AddSubfield('a', "Subject"))

	encoded, err := Marshal(record)
	require.NoError(t, err)

	again, _, err := Unmarshal(encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), again.Leader.Length())

	title, ok := again.GetFields("245")[0].Subfield('a')
	require.True(t, ok)
	assert.Equal(t, "A much longer title than before", title)
	subject, ok := again.GetFields("650")[0].Subfield('a')
	require.True(t, ok)
	assert.Equal(t, "Subject", subject)
}

func Test_marshaler_overflow(t *testing.T) {
	t.Run("field length", func(t *testing.T) {
		record := &Record{Leader: DefaultLeader()}
		record.AddField(&Field{Tag: "009", Value: strings.Repeat("x", maxFieldLength)})

		_, err := Marshal(record)
		var overflow *OverflowError
		require.True(t, errors.As(err, &overflow))
	})

	t.Run("record length", func(t *testing.T) {
		record := &Record{Leader: DefaultLeader()}
		for i := 0; i < 12; i++ {
			record.AddField(&Field{Tag: "009", Value: strings.Repeat("x", 9000)})
		}

		_, err := Marshal(record)
		var overflow *OverflowError
		require.True(t, errors.As(err, &overflow))
	})

	t.Run("bad tag", func(t *testing.T) {
		record := &Record{Leader: DefaultLeader()}
		record.AddField(&Field{Tag: "24", Indicator1: ' ', Indicator2: ' '})

		_, err := Marshal(record)
		assert.Error(t, err)
	})
}

func Test_marshaler_emptyDataField(t *testing.T) {
	record := &Record{Leader: DefaultLeader()}
	record.AddField(&Field{Tag: "001", Value: "1"})
	record.AddField(&Field{Tag: "245", Indicator1: '0', Indicator2: '0'})

	encoded, err := Marshal(record)
	require.NoError(t, err)

	again, _, err := Unmarshal(encoded)
	require.NoError(t, err)
	fields := again.GetFields("245")
	require.Len(t, fields, 1)
	assert.Empty(t, fields[0].Subfields)
}
