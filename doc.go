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

// Package gomarc provides parsing and serialization of MARC 21 bibliographic
// records in the binary ISO 2709 interchange format.
//
// The package offers three ways to consume a record stream: decoding single
// record spans with an Unmarshaler, pulling records sequentially through a
// BatchedReader, and streaming records from a multi-core decode Pipeline that
// preserves source order. Encoding is done with a Marshaler; leader lengths
// and the directory are always recomputed from the record's current fields.
//
// Values are carried as raw bytes. The leader's encoding flag (legacy 8-bit
// versus Unicode) is preserved verbatim; interpreting field data as text is
// left to the caller.
package gomarc
