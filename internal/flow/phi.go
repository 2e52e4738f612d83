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
    `github.com/oleiade/lane`
)

// Definitions returns, per block, the temporaries that count as defined for
// phi placement. Besides ordinary stores, a reference temporary is defined
// at the end of a collecting block when it leaves the block through an edge
// set that would rather keep it in a register, and it is not when the edge
// set keeps it in memory anyway.
func (self *FlowGraph) Definitions() []TempSet {
    if self.defs != nil {
        return self.defs
    }

    /* start from the stores */
    prefs := self.Preferences()
    ret := make([]TempSet, len(self.Blocks))
    for i, bb := range self.Blocks {
        ret[i] = bb.Defs.clone()
        if !bb.HasChild() {
            continue
        }

        /* adjust by the preferences of the outgoing edge set */
        for _, r := range prefs.Refs.Sorted() {
            if prefs.Edges[bb.Child][r] > 0 {
                ret[i].remove(r)
            } else if bb.MayCollect() {
                ret[i].add(r)
            }
        }
    }

    /* cache the result */
    self.defs = ret
    return ret
}

// PhiNodes returns, per block, the temporaries that need a phi node at the
// start of the block. Iterated dominance frontiers, as in Appel.
func (self *FlowGraph) PhiNodes() []TempSet {
    if self.phis != nil {
        return self.phis
    }

    /* collect the definition sites */
    nb := len(self.Blocks)
    df := self.Dominators().DominanceFrontier
    defs := self.Definitions()
    sites := make(map[int][]int)
    for i := 0; i < nb; i++ {
        for _, a := range defs[i].Sorted() {
            sites[a] = append(sites[a], i)
        }
    }

    /* no phi anywhere yet */
    phis := make([]TempSet, nb)
    for i := range phis {
        phis[i] = make(TempSet)
    }

    /* place phi nodes for every temporary */
    for _, a := range self.Temps().Sorted() {
        q := lane.NewQueue()
        for _, n := range sites[a] {
            q.Enqueue(n)
        }

        /* walk the iterated frontier */
        for !q.Empty() {
            n := q.Dequeue().(int)
            for _, y := range df[n] {
                if phis[y].add(a) && !defs[y].Contains(a) {
                    q.Enqueue(y)
                }
            }
        }
    }

    /* cache the result */
    self.phis = phis
    return phis
}
