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
    `math`
    `sort`

    `gonum.org/v1/gonum/graph`
    `gonum.org/v1/gonum/graph/simple`
    `gonum.org/v1/gonum/graph/topo`
)

func byID(nodes []graph.Node) {
    sort.Slice(nodes, func(i int, j int) bool {
        return nodes[i].ID() < nodes[j].ID()
    })
}

// Directed returns the control-flow edges of the graph as a gonum graph,
// with node IDs equal to block indices. Self loops are left out.
func (self *FlowGraph) Directed() *simple.DirectedGraph {
    return self.directed(func(int, int) bool { return true })
}

func (self *FlowGraph) directed(keep func(p int, s int) bool) *simple.DirectedGraph {
    g := simple.NewDirectedGraph()
    for _, bb := range self.Blocks {
        g.AddNode(simple.Node(bb.Id))
    }

    /* add all the edges */
    for _, bb := range self.Blocks {
        for _, s := range bb.Succ {
            if s != bb.Id && keep(bb.Id, s) {
                g.SetEdge(g.NewEdge(simple.Node(bb.Id), simple.Node(s)))
            }
        }
    }
    return g
}

// forwardOrder sorts the blocks topologically along the edges that do not
// go back to a dominator. Irreducible graphs may still have cycles there,
// in which case layout order is used instead.
func (self *FlowGraph) forwardOrder() []int {
    dt := self.Dominators()
    fwd := self.directed(func(p int, s int) bool { return !dt.Dominates(s, p) })
    nodes, err := topo.SortStabilized(fwd, byID)

    /* fall back to layout order */
    if err != nil {
        logger.Debugf("forward edges are not acyclic, weighting in layout order: %v", err)
        ret := make([]int, len(self.Blocks))
        for i := range ret {
            ret[i] = i
        }
        return ret
    }

    /* convert to block indices */
    ret := make([]int, 0, len(nodes))
    for _, n := range nodes {
        ret = append(ret, int(n.ID()))
    }
    return ret
}

// Weights returns a static estimate of how often each block executes: the
// entry runs once, a branch splits its weight evenly over its forward
// successors, and every enclosing loop multiplies it by ten.
func (self *FlowGraph) Weights() []float64 {
    if self.weights != nil {
        return self.weights
    }

    /* split along the forward edges */
    dt := self.Dominators()
    ret := make([]float64, len(self.Blocks))
    ret[0] = 1.0
    for _, n := range self.forwardOrder() {
        var fwd []int
        for _, s := range self.Blocks[n].Succ {
            if !dt.Dominates(s, n) {
                fwd = append(fwd, s)
            }
        }
        for _, s := range fwd {
            ret[s] += ret[n] / float64(len(fwd))
        }
    }

    /* scale by loop nesting */
    for i := range ret {
        ret[i] *= math.Pow(10, float64(self.LoopDepth(i)))
    }

    /* cache the result */
    self.weights = ret
    return ret
}

func (self *FlowGraph) Weight(i int) float64 {
    return self.Weights()[i]
}
