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
    `github.com/cloudwego/gcflow/internal/utils`
)

// FlowError occures when a routine cannot be turned into a flow graph.
type FlowError = utils.FlowError

type ErrorKind = utils.ErrorKind

const (
    DanglingTarget    = utils.K_dangling
    JoinInconsistency = utils.K_join
    UninitializedTemp = utils.K_uninit
    TypeConflict      = utils.K_type
    Malformed         = utils.K_malformed
    IllegalQualifier  = utils.K_qualifier
    IterationLimit    = utils.K_limit
)

// IsKind reports whether err is a FlowError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
    return utils.IsKind(err, kind)
}
