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

package gcopt

import (
    `github.com/cloudwego/gcflow/internal/flow`
    `github.com/oleiade/lane`
)

// EscapesBetween reports whether control leaving block a may reach a
// collection point, or leave the routine, before it arrives at block b.
// Any block without successors counts as leaving the routine, even when
// nothing could observe the object after it.
func EscapesBetween(g *flow.FlowGraph, a int, b int) bool {
    if a == b {
        return false
    }

    /* b ends every path */
    st := lane.NewStack()
    done := make([]bool, g.Len())
    done[b] = true

    /* start from the successors of a */
    for _, s := range g.Blocks[a].Succ {
        st.Push(s)
    }

    /* depth-first scan */
    for !st.Empty() {
        n := st.Pop().(int)
        bb := g.Blocks[n]

        /* already seen */
        if done[n] {
            continue
        }

        /* collection points and exits are escapes */
        if done[n] = true; bb.MayCollect() || len(bb.Succ) == 0 {
            return true
        }

        /* keep going */
        for _, s := range bb.Succ {
            if !done[s] {
                st.Push(s)
            }
        }
    }
    return false
}
