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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGuard struct {
	acquired int
	released int
}

func (g *countingGuard) Acquire() { g.acquired++ }
func (g *countingGuard) Release() { g.released++ }

func Test_ReaderSource_guard(t *testing.T) {
	guard := &countingGuard{}
	src := NewGuardedReaderSource(bytes.NewReader([]byte(recordA)), guard)

	buf := make([]byte, 32)
	reads := 0
	for {
		_, err := src.Read(buf)
		reads++
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	// The guard brackets every read and is never left held.
	assert.Equal(t, reads, guard.acquired)
	assert.Equal(t, guard.acquired, guard.released)
}

func Test_BufferSource(t *testing.T) {
	src := NewBufferSource([]byte(recordB))

	got, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, recordB, string(got))

	n, err := src.Read(make([]byte, 1))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}
