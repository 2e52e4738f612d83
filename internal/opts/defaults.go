/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package opts

import (
	"os"
	"strconv"
)

const (
	_DefaultPointerSize   = 8    // 64-bit targets
	_DefaultLogVerbosity  = 0    // errors and warnings only
	_DefaultMaxIterations = 0    // no cap on dataflow rounds
)

var (
	PointerSize   = parseOrDefault("GCFLOW_POINTER_SIZE", _DefaultPointerSize, 1)
	LogVerbosity  = parseOrDefault("GCFLOW_LOG_VERBOSITY", _DefaultLogVerbosity, -1)
	MaxIterations = parseOrDefault("GCFLOW_MAX_ITERATIONS", _DefaultMaxIterations, -1)
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("gcflow: invalid value for " + key)
	} else if ret := int(val); ret <= min {
		panic("gcflow: value too small for " + key)
	} else {
		return ret
	}
}
