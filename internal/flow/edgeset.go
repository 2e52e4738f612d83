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

    `github.com/cloudwego/gcflow/internal/delta`
    mapset `github.com/deckarep/golang-set`
)

// EdgeSet groups the control-flow edges that meet at one decision point.
// Every block in Parents jumps to every block in Children, so all paths
// crossing the set must agree on the stack and cursor state.
type EdgeSet struct {
    Id       int
    Delta    delta.Triple
    parents  mapset.Set
    children mapset.Set
    valid    bool
}

func newEdgeSet(p int, s int) *EdgeSet {
    return &EdgeSet {
        parents  : mapset.NewSet(p),
        children : mapset.NewSet(s),
    }
}

func sortedInts(s mapset.Set) []int {
    ret := make([]int, 0, s.Cardinality())
    for _, v := range s.ToSlice() {
        ret = append(ret, v.(int))
    }
    sort.Ints(ret)
    return ret
}

// Parents returns the indices of the blocks the edges leave from.
func (self *EdgeSet) Parents() []int {
    return sortedInts(self.parents)
}

// Children returns the indices of the blocks the edges lead to.
func (self *EdgeSet) Children() []int {
    return sortedInts(self.children)
}

func (self *EdgeSet) String() string {
    return fmt.Sprintf("es_%d%v->%v", self.Id, self.Parents(), self.Children())
}

func (self *EdgeSet) merge(other *EdgeSet) {
    self.parents = self.parents.Union(other.parents)
    self.children = self.children.Union(other.children)
}

func addEdgeToSets(sets []*EdgeSet, p int, s int) []*EdgeSet {
    var ep *EdgeSet
    var ec *EdgeSet

    /* find the sets already holding either end */
    for _, es := range sets {
        if es.parents.Contains(p) {
            ep = es
        }
        if es.children.Contains(s) {
            ec = es
        }
    }

    /* fold the edge in */
    switch {
        case ep == nil && ec == nil : return append(sets, newEdgeSet(p, s))
        case ep == nil              : ec.parents.Add(p)
        case ec == nil              : ep.children.Add(s)
        case ep != ec               : return mergeEdgeSets(sets, ep, ec)
    }
    return sets
}

func mergeEdgeSets(sets []*EdgeSet, into *EdgeSet, from *EdgeSet) []*EdgeSet {
    into.merge(from)
    for i, es := range sets {
        if es == from {
            return append(sets[:i], sets[i + 1:]...)
        }
    }
    panic("gcflow: merging an edge set that is not in the list")
}

func (self *FlowGraph) buildEdgeSets() {
    var sets []*EdgeSet
    for _, bb := range self.Blocks {
        for _, s := range bb.Succ {
            sets = addEdgeToSets(sets, bb.Id, s)
        }
    }

    /* number them and link the blocks */
    for i, es := range sets {
        es.Id = i
        for _, p := range es.Parents() {
            self.Blocks[p].Child = i
        }
        for _, c := range es.Children() {
            self.Blocks[c].Parent = i
        }
    }

    /* every physical edge must live in exactly one set */
    for _, bb := range self.Blocks {
        for _, s := range bb.Succ {
            if bb.Child != self.Blocks[s].Parent {
                panic(fmt.Sprintf("gcflow: edge %s -> %s spans two edge sets", bb, self.Blocks[s]))
            }
        }
    }
    self.EdgeSets = sets
}

// ParentOf returns the edge set control enters block i through, or nil for
// the entry block.
func (self *FlowGraph) ParentOf(i int) *EdgeSet {
    if bb := self.Blocks[i]; bb.HasParent() {
        return self.EdgeSets[bb.Parent]
    } else {
        return nil
    }
}

// ChildOf returns the edge set control leaves block i through, or nil when
// the block has no successors.
func (self *FlowGraph) ChildOf(i int) *EdgeSet {
    if bb := self.Blocks[i]; bb.HasChild() {
        return self.EdgeSets[bb.Child]
    } else {
        return nil
    }
}
