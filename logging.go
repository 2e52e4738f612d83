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

package gcflow

import (
    `github.com/cloudwego/gcflow/internal/opts`
    `github.com/tliron/commonlog`

    _ `github.com/tliron/commonlog/simple`
)

// ConfigureLogging sends the debug traces of the analyses and the summaries
// of the optimizer to stderr. A verbosity of 0 keeps errors and warnings
// only, every step above adds one level of detail.
func ConfigureLogging(verbosity int) {
    commonlog.Configure(verbosity, nil)
}

func init() {
    if opts.LogVerbosity > 0 {
        ConfigureLogging(opts.LogVerbosity)
    }
}
