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
    `github.com/cloudwego/gcflow/internal/instr`
)

func resolveHop(lb int, hops map[int]int) int {
    seen := map[int]bool { lb: true }
    for {
        next, ok := hops[lb]
        if !ok {
            return lb
        }

        /* a cycle of hops never gets anywhere, leave it alone */
        if seen[next] {
            return lb
        }

        /* follow the chain */
        lb = next
        seen[lb] = true
    }
}

// threadHops redirects every BRANCH and HOP whose label is immediately
// followed by another HOP straight to the final destination. The input is
// left untouched.
func threadHops(ins []instr.Instr) []instr.Instr {
    hops := make(map[int]int)

    /* find all the TARGET(a) HOP(b) pairs */
    for i := 1; i < len(ins); i++ {
        if ins[i - 1].Op == instr.OP_target && ins[i].Op == instr.OP_hop && ins[i - 1].Lb != ins[i].Lb {
            hops[ins[i - 1].Lb] = ins[i].Lb
        }
    }

    /* nothing to thread */
    if len(hops) == 0 {
        return ins
    }

    /* rewrite the jumps */
    ret := make([]instr.Instr, len(ins))
    copy(ret, ins)
    for i, p := range ret {
        if p.Op == instr.OP_branch || p.Op == instr.OP_hop {
            if lb := resolveHop(p.Lb, hops); lb != p.Lb {
                if p.Op == instr.OP_branch {
                    ret[i] = instr.Branch(lb, p.Sense)
                } else {
                    ret[i] = instr.Hop(lb)
                }
            }
        }
    }
    return ret
}
