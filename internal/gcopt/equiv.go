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
    `sort`

    `github.com/cloudwego/gcflow/internal/instr`
)

// Classes maps every tracked temporary to the smallest temporary it is
// known to alias. Only temporaries stored exactly once are tracked, so a
// class is a safe syntactic alias and never a may-alias guess.
type Classes map[int]int

func (self Classes) Of(tv int) (int, bool) {
    c, ok := self[tv]
    return c, ok
}

// Members returns the temporaries of class c in ascending order.
func (self Classes) Members(c int) []int {
    var ret []int
    for tv, v := range self {
        if v == c {
            ret = append(ret, tv)
        }
    }
    sort.Ints(ret)
    return ret
}

// ConstDetect finds the temporaries stored exactly once in the routine.
type ConstDetect struct{}

func (ConstDetect) Apply(r *Routine) {
    stores := make(map[int]int)
    for _, bb := range r.Graph.Blocks {
        for _, p := range bb.Ins {
            if p.Op == instr.OP_tstore {
                stores[p.Tv]++
            }
        }
    }

    /* keep the single assignments */
    for tv, n := range stores {
        if n == 1 {
            r.Consts[tv] = true
        }
    }
}

// Equivalence groups constant temporaries copied from one another.
type Equivalence struct{}

func (Equivalence) Apply(r *Routine) {
    uf := make(map[int]int)

    /* union-find over temporaries, the smallest index is the root */
    find := func(v int) int {
        for uf[v] != v {
            uf[v] = uf[uf[v]]
            v = uf[v]
        }
        return v
    }

    /* scan every TSTORE of a constant */
    for i := range r.Graph.Blocks {
        f := r.forest(i)
        for _, rt := range f.Roots {
            p, _ := f.at(rt._Node)
            if p.Op != instr.OP_tstore || !r.Consts[p.Tv] {
                continue
            }

            /* every constant is its own class to begin with */
            if _, ok := uf[p.Tv]; !ok {
                uf[p.Tv] = p.Tv
            }

            /* copies of another constant of the same type */
            v, ok := f.at(rt.child(0))
            if !ok || v.Op != instr.OP_tload || v.Ty != p.Ty || !r.Consts[v.Tv] {
                continue
            }

            /* the source may not have been seen yet */
            if _, ok = uf[v.Tv]; !ok {
                uf[v.Tv] = v.Tv
            }

            /* merge the two classes */
            if a, b := find(p.Tv), find(v.Tv); a < b {
                uf[b] = a
            } else {
                uf[a] = b
            }
        }
    }

    /* flatten */
    for tv := range uf {
        r.Classes[tv] = find(tv)
    }
}
