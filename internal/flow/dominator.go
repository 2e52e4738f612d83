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

// DominatorTree holds the dominance facts of a flow graph. Blocks are
// referred to by index, the root is always the entry block.
type DominatorTree struct {
    Root              int
    DominatedBy       []int
    DominatorOf       [][]int
    DominanceFrontier [][]int
    dom               []bitset
}

// Dominates reports whether every path from the entry to b passes through a.
func (self *DominatorTree) Dominates(a int, b int) bool {
    return self.dom[b].test(a)
}

func (self *DominatorTree) StrictlyDominates(a int, b int) bool {
    return a != b && self.dom[b].test(a)
}

// Dominators returns the dominator set of block n in ascending order.
func (self *DominatorTree) Dominators(n int) []int {
    return self.dom[n].members()
}

// Dominators returns the dominator tree built with the graph.
func (self *FlowGraph) Dominators() *DominatorTree {
    return self.dom
}

func (self *FlowGraph) computeDominators() (err error) {
    self.dom, err = self.buildDominatorTree()
    return
}

func (self *FlowGraph) dominatorSets() ([]bitset, error) {
    nb := len(self.Blocks)
    dom := make([]bitset, nb)

    /* the entry dominates only itself, everything else starts full */
    dom[0] = newBitset(nb)
    dom[0].set(0)
    for i := 1; i < nb; i++ {
        dom[i] = fullBitset(nb)
    }

    /* Dom(n) = {n} + intersection of Dom(p) for all predecessors */
    for n, changed := 0, true; changed; {
        n++
        changed = false
        if err := self.checkRounds("dominators", n); err != nil {
            return nil, err
        }

        /* update every block except the entry */
        for i := 1; i < nb; i++ {
            s := fullBitset(nb)
            for _, p := range self.Blocks[i].Pred {
                s.and(dom[p])
            }

            /* check for changes */
            if s.set(i); !s.equal(dom[i]) {
                dom[i] = s
                changed = true
            }
        }
    }
    return dom, nil
}

func (self *FlowGraph) buildDominatorTree() (*DominatorTree, error) {
    nb := len(self.Blocks)
    dom, err := self.dominatorSets()
    if err != nil {
        return nil, err
    }

    /* create the tree */
    dt := &DominatorTree {
        dom               : dom,
        DominatedBy       : make([]int, nb),
        DominatorOf       : make([][]int, nb),
        DominanceFrontier : make([][]int, nb),
    }

    /* the immediate dominator is the one with exactly one fewer dominator */
    dt.DominatedBy[0] = -1
    for i := 1; i < nb; i++ {
        n := dom[i].count()
        for _, d := range dom[i].members() {
            if d != i && dom[d].count() == n - 1 {
                dt.DominatedBy[i] = d
                dt.DominatorOf[d] = append(dt.DominatorOf[d], i)
                break
            }
        }
    }

    /* frontiers are computed bottom-up */
    dt.computeFrontiers(self)
    return dt, nil
}

func (self *DominatorTree) computeFrontiers(g *FlowGraph) {
    nb := len(g.Blocks)
    df := make([]bitset, nb)
    st := lane.NewStack()
    order := make([]int, 0, nb)

    /* pre-order walk of the dominator tree */
    for st.Push(self.Root); !st.Empty(); {
        n := st.Pop().(int)
        order = append(order, n)
        for _, c := range self.DominatorOf[n] {
            st.Push(c)
        }
    }

    /* children are always visited before their parents in reverse */
    for i := len(order) - 1; i >= 0; i-- {
        n := order[i]
        df[n] = newBitset(nb)

        /* DF_local: successors not immediately dominated by n */
        for _, s := range g.Blocks[n].Succ {
            if self.DominatedBy[s] != n {
                df[n].set(s)
            }
        }

        /* DF_up: frontiers of children not strictly dominated by n */
        for _, c := range self.DominatorOf[n] {
            for _, w := range df[c].members() {
                if !self.StrictlyDominates(n, w) {
                    df[n].set(w)
                }
            }
        }

        /* dump the frontier */
        self.DominanceFrontier[n] = df[n].members()
    }
}
