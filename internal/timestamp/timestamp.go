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

package timestamp

import (
	"time"
)

// UTC14 formats t as a 14-digit UTC timestamp for use in file names.
func UTC14(t time.Time) string {
	return t.UTC().Format("20060102150405")
}

// UTCW3cIso8601 formats t as a W3C ISO 8601 UTC timestamp.
func UTCW3cIso8601(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
