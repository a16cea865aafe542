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
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlnwa/gomarc/internal/countingreader"
)

// numberedStream encodes count records whose 001 field is the zero-padded
// sequence number, so tests can check delivery order.
func numberedStream(t *testing.T, count int) []byte {
	t.Helper()
	var stream bytes.Buffer
	m := NewMarshaler()
	for i := 0; i < count; i++ {
		record := &Record{Leader: DefaultLeader()}
		record.AddField(&Field{Tag: "001", Value: fmt.Sprintf("%08d", i)})
		record.AddField((&Field{Tag: "245", Indicator1: '1', Indicator2: '0'}).AddSubfield('a', fmt.Sprintf("Title no. %d", i)))
		_, err := m.Marshal(&stream, record)
		require.NoError(t, err)
	}
	return stream.Bytes()
}

func Test_Pipeline_preservesOrder(t *testing.T) {
	const count = 300
	stream := numberedStream(t, count)

	for _, workers := range []int{1, 2, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			pipeline := NewPipeline(NewBufferSource(stream),
				WithWorkers(workers),
				WithBatchSize(7),
				WithChunkSize(1024))
			defer func() { _ = pipeline.Close() }()

			for i := 0; i < count; i++ {
				record, validation, err := pipeline.Next()
				require.NoError(t, err)
				assert.True(t, validation.Valid())
				require.Equal(t, fmt.Sprintf("%08d", i), record.Identifier())
			}
			_, _, err := pipeline.Next()
			assert.Equal(t, io.EOF, err)
		})
	}
}

func Test_Pipeline_strictFatalIsLast(t *testing.T) {
	pipeline := NewPipeline(NewBufferSource([]byte(recordA + recordBadLength + recordB)))
	defer func() { _ = pipeline.Close() }()

	record, _, err := pipeline.Next()
	require.NoError(t, err)
	assert.Equal(t, "123", record.Identifier())

	_, _, err = pipeline.Next()
	var dirErr *DirectoryError
	require.True(t, errors.As(err, &dirErr))

	_, _, err = pipeline.Next()
	assert.Equal(t, io.EOF, err)
}

func Test_Pipeline_lenientSkips(t *testing.T) {
	pipeline := NewPipeline(NewBufferSource([]byte(recordA+recordBadLength+recordB)),
		WithRecoveryMode(Lenient))
	defer func() { _ = pipeline.Close() }()

	var ids []string
	for {
		record, _, err := pipeline.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ids = append(ids, record.Identifier())
	}

	assert.Equal(t, []string{"123", "456"}, ids)
	assert.Equal(t, int64(1), pipeline.Skipped())
}

func Test_Pipeline_truncatedStream(t *testing.T) {
	pipeline := NewPipeline(NewBufferSource([]byte(recordA + recordB[:30])))
	defer func() { _ = pipeline.Close() }()

	record, _, err := pipeline.Next()
	require.NoError(t, err)
	assert.Equal(t, "123", record.Identifier())

	_, _, err = pipeline.Next()
	var truncated *TruncatedError
	require.True(t, errors.As(err, &truncated))

	_, _, err = pipeline.Next()
	assert.Equal(t, io.EOF, err)
}

func Test_Pipeline_sourceError(t *testing.T) {
	pipeline := NewPipeline(NewReaderSource(&failingReader{err: errors.New("connection reset")}))
	defer func() { _ = pipeline.Close() }()

	_, _, err := pipeline.Next()
	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))

	_, _, err = pipeline.Next()
	assert.Equal(t, io.EOF, err)
}

func Test_Pipeline_Close(t *testing.T) {
	stream := numberedStream(t, 100)
	pipeline := NewPipeline(NewBufferSource(stream))

	_, _, err := pipeline.Next()
	require.NoError(t, err)

	require.NoError(t, pipeline.Close())
	_, _, err = pipeline.Next()
	assert.Equal(t, ErrPipelineClosed, err)

	// Closing twice is harmless.
	assert.NoError(t, pipeline.Close())
}

func Test_Pipeline_backpressure(t *testing.T) {
	stream := numberedStream(t, 2000)
	cr := countingreader.New(bytes.NewReader(stream))

	// A tiny result channel and chunk size, and a consumer that never calls
	// Next. The pipeline must stall instead of reading the source to the end.
	pipeline := NewPipeline(NewReaderSource(cr),
		WithChannelCapacity(10),
		WithChunkSize(512),
		WithBatchSize(5),
		WithWorkers(2))
	defer func() { _ = pipeline.Close() }()

	time.Sleep(100 * time.Millisecond)
	calls := cr.Calls()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, calls, cr.Calls())
	assert.Less(t, cr.N(), int64(len(stream)))
}
