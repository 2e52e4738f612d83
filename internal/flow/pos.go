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

package flow

import (
    `fmt`
)

// Pos addresses one instruction of a flow graph.
type Pos struct {
    B int
    I int
}

func (self Pos) String() string {
    return fmt.Sprintf("bb_%d.ins[%d]", self.B, self.I)
}

func (self Pos) IsPriorTo(other Pos) bool {
    return self.B < other.B || (self.I < other.I && self.B == other.B)
}
