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

    `github.com/cloudwego/gcflow/internal/flow`
    `github.com/cloudwego/gcflow/internal/instr`
)

// MarkerFusion drops the zero-initialization of an allocation when the
// FULLY_INITIALIZED marker of the same object is reached without passing
// through any collection point.
type MarkerFusion struct{}

func (MarkerFusion) Apply(r *Routine) {
    allocs := make(map[int]flow.Pos)
    marks := make(map[int]flow.Pos)

    /* find the allocations and the markers of every class */
    for i := range r.Graph.Blocks {
        f := r.forest(i)
        for _, rt := range f.Roots {
            if f.is(rt._Node, instr.OP_fully_initialized) {
                if c, ok := r.loadedClass(f, rt.child(0)); ok {
                    marks[c] = flow.Pos { B: i, I: rt.I }
                }
            } else if c, ok := r.allocatedInto(f, rt._Node); ok {
                if p, _ := f.at(rt.child(0)); r.Table.IsAllocate(p) {
                    allocs[c] = flow.Pos { B: i, I: rt.child(0).I }
                }
            }
        }
    }

    /* markers in class order */
    cls := make([]int, 0, len(marks))
    for c := range marks {
        cls = append(cls, c)
    }

    /* pair them up */
    sort.Ints(cls)
    for _, c := range cls {
        if m, ok := allocs[c]; ok && r.reachesUncollected(m, marks[c]) {
            r.replace(InitMarker, m, r.Table.AllocateOnly)
        }
    }
}

// reachesUncollected reports whether every path leaving the allocation at
// m arrives at the marker at i without a collection point.
func (self *Routine) reachesUncollected(m flow.Pos, i flow.Pos) bool {
    if m.B == i.B {
        return m.I < i.I && !self.collectsIn(m.B, m.I + 1, i.I)
    }

    /* the rest of the allocating block, and the head of the marking block */
    if self.collectsIn(m.B, m.I + 1, self.Graph.Blocks[m.B].Len()) || self.collectsIn(i.B, 0, i.I) {
        return false
    }

    /* and everything in between */
    return !EscapesBetween(self.Graph, m.B, i.B)
}

// _Alloc is an allocation whose words are being written explicitly.
type _Alloc struct {
    at   flow.Pos
    bits uint64
}

// FixedInit drops the zero-initialization of an allocation when every word
// of it is stored at a constant offset before any collection point and
// before the object is used in any other way. No instruction is added or
// removed, a partially covered allocation is left alone.
type FixedInit struct{}

func (FixedInit) Apply(r *Routine) {
    for i := range r.Graph.Blocks {
        r.coverFields(i)
    }
}

func (self *Routine) coverFields(b int) {
    f := self.forest(b)
    live := make(map[int]*_Alloc)

    /* follow the trees in execution order */
    for _, rt := range f.Roots {
        if rt.Collects {
            live = make(map[int]*_Alloc)
        }

        /* any other use of a tracked object stops the tracking */
        self.dropEscapes(f, rt, live)
        p, _ := f.at(rt._Node)

        /* constant offset stores into tracked objects */
        if self.Table.IsFieldStore(p) {
            if c, ok := self.loadedClass(f, rt.child(1)); ok && live[c] != nil {
                self.coverWords(c, live, f, rt._Node)
            }
            continue
        }

        /* fresh allocations of constant size */
        if c, ok := self.allocatedInto(f, rt._Node); ok {
            if a := self.trackAlloc(f, b, rt.child(0)); a != nil {
                live[c] = a
                self.checkCovered(c, live)
            }
        }
    }
}

func (self *Routine) trackAlloc(f *_Forest, b int, n *_Node) *_Alloc {
    ptr := self.Graph.PointerSize()
    p, _ := f.at(n)
    v, ok := f.at(n.child(0))

    /* only zeroing allocations of a known size */
    if !self.Table.IsAllocate(p) || !ok || v.Op != instr.OP_number || v.Iv < 0 {
        return nil
    }

    /* one bit per word, larger objects are not worth tracking */
    words := (v.Iv + int64(ptr) - 1) / int64(ptr)
    if words > 64 {
        return nil
    }

    /* all words still need writing */
    ret := &_Alloc { at: flow.Pos { B: b, I: n.I } }
    if words == 64 {
        ret.bits = ^uint64(0)
    } else {
        ret.bits = (uint64(1) << uint(words)) - 1
    }
    return ret
}

func (self *Routine) coverWords(c int, live map[int]*_Alloc, f *_Forest, n *_Node) {
    ptr := self.Graph.PointerSize()
    p, _ := f.at(n)
    v, ok := f.at(n.child(2))

    /* only aligned stores of whole words at a known offset */
    if !ok || v.Op != instr.OP_number || v.Iv < 0 || v.Iv % int64(ptr) != 0 || p.Ty.Size(ptr) < ptr {
        return
    }

    /* clear the words written */
    w := int(v.Iv / int64(ptr))
    for k := 0; k < p.Ty.Size(ptr) / ptr; k++ {
        if w + k < 64 {
            live[c].bits &^= uint64(1) << uint(w + k)
        }
    }

    /* done once every word is written */
    self.checkCovered(c, live)
}

func (self *Routine) checkCovered(c int, live map[int]*_Alloc) {
    if a := live[c]; a.bits == 0 {
        delete(live, c)
        self.replace(InitCovered, a.at, self.Table.AllocateOnly)
    }
}

// dropEscapes stops tracking every object the tree uses other than as the
// target of a field store, or as the source of a copy into its own class.
func (self *Routine) dropEscapes(f *_Forest, rt _Root, live map[int]*_Alloc) {
    var skip *_Node

    /* nothing to check */
    if len(live) == 0 {
        return
    }

    /* the one use of a tracked object this tree may make */
    p, _ := f.at(rt._Node)
    if self.Table.IsFieldStore(p) {
        skip = rt.child(1)
    } else if c, isc := self.Classes.Of(p.Tv); p.Op == instr.OP_tstore && isc {
        if d, isd := self.loadedClass(f, rt.child(0)); isd && c == d {
            skip = rt.child(0)
        }
    }

    /* everything else is an escape */
    drop := func(n *_Node) {
        if c, ok := self.loadedClass(f, n); ok && n != skip {
            delete(live, c)
        }
    }

    /* the tree, and whatever it abandoned */
    walk(rt._Node, drop)
    for _, v := range rt.Dropped {
        walk(v, drop)
    }
}
