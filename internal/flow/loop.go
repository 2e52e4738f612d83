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
    `sort`
    `strings`

    `github.com/oleiade/lane`
)

// LoopNode is one level of the loop-nest tree. Nodes lists the blocks that
// belong to this loop but not to any loop nested inside it, the header is
// not included. The root of the tree stands for the whole routine.
type LoopNode struct {
    Header   int
    Nodes    []int
    Children []*LoopNode
    Depth    int
    body     bitset
}

func (self *LoopNode) String() string {
    ns := make([]string, 0, len(self.Nodes))
    for _, n := range self.Nodes {
        ns = append(ns, fmt.Sprintf("bb_%d", n))
    }
    return fmt.Sprintf("loop(bb_%d){%s}", self.Header, strings.Join(ns, ", "))
}

// LoopNest returns the root of the loop-nest tree.
func (self *FlowGraph) LoopNest() *LoopNode {
    if self.loops == nil {
        self.buildLoopNest()
    }
    return self.loops
}

// LoopDepth returns the number of loops block i is nested in.
func (self *FlowGraph) LoopDepth(i int) int {
    if self.loops == nil {
        self.buildLoopNest()
    }
    return self.depth[i]
}

// naturalLoop gathers the blocks dominated by head that reach tail without
// passing through head.
func (self *FlowGraph) naturalLoop(body bitset, head int, tail int) {
    dt := self.Dominators()
    st := lane.NewStack()
    seen := newBitset(len(self.Blocks))
    seen.set(head)

    /* walk backwards from the tail */
    for st.Push(tail); !st.Empty(); {
        n := st.Pop().(int)
        if seen.test(n) {
            continue
        }

        /* leaving the region dominated by the header */
        if seen.set(n); !dt.Dominates(head, n) {
            continue
        }

        /* part of the loop */
        body.set(n)
        for _, p := range self.Blocks[n].Pred {
            st.Push(p)
        }
    }
}

func (self *FlowGraph) buildLoopNest() {
    nb := len(self.Blocks)
    dt := self.Dominators()
    top := &LoopNode { Header: 0, body: fullBitset(nb) }
    loops := make(map[int]*LoopNode)

    /* every back edge adds to the loop of its header */
    for _, bb := range self.Blocks {
        for _, s := range bb.Succ {
            if dt.Dominates(s, bb.Id) {
                lp, ok := loops[s]
                if !ok {
                    lp = &LoopNode { Header: s, body: newBitset(nb) }
                    loops[s] = lp
                }
                self.naturalLoop(lp.body, s, bb.Id)
            }
        }
    }

    /* smaller loops first, the routine itself comes last */
    all := make([]*LoopNode, 0, len(loops) + 1)
    for _, lp := range loops {
        all = append(all, lp)
    }

    /* order by size, then by header */
    sort.Slice(all, func(i int, j int) bool {
        if a, b := all[i].body.count(), all[j].body.count(); a != b {
            return a < b
        } else {
            return all[i].Header < all[j].Header
        }
    })

    /* each loop nests in the smallest larger loop containing its header */
    all = append(all, top)
    for i, lp := range all[:len(all) - 1] {
        for _, outer := range all[i + 1:] {
            if outer.body.test(lp.Header) {
                outer.Children = append(outer.Children, lp)
                break
            }
        }
    }

    /* strip nested blocks and assign depths */
    self.depth = make([]int, nb)
    self.finishLoop(top, 0)
    self.loops = top
}

func (self *FlowGraph) finishLoop(lp *LoopNode, depth int) {
    own := lp.body.clone()
    own.clear(lp.Header)

    /* children are ordered by header */
    sort.Slice(lp.Children, func(i int, j int) bool {
        return lp.Children[i].Header < lp.Children[j].Header
    })

    /* blocks of inner loops belong to them */
    for _, c := range lp.Children {
        own.andNot(c.body)
        own.clear(c.Header)
    }

    /* everything left is at this depth */
    lp.Depth = depth
    lp.Nodes = own.members()
    self.depth[lp.Header] = depth
    for _, n := range lp.Nodes {
        self.depth[n] = depth
    }

    /* recurse into the inner loops */
    for _, c := range lp.Children {
        self.finishLoop(c, depth + 1)
    }
}
