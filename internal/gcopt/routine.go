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
    `github.com/cloudwego/gcflow/internal/instr`
)

// Routine is the flow graph being optimized, together with the facts the
// passes share. Substitutions never change the shape of an instruction, so
// the forests stay valid for the whole run.
type Routine struct {
    Graph   *flow.FlowGraph
    Table   instr.Table
    Consts  map[int]bool
    Classes Classes
    Report  *Report
    forests []*_Forest
}

func newRoutine(g *flow.FlowGraph, tab instr.Table) *Routine {
    return &Routine {
        Graph   : g,
        Table   : tab,
        Consts  : make(map[int]bool),
        Classes : make(Classes),
        Report  : new(Report),
        forests : make([]*_Forest, g.Len()),
    }
}

func (self *Routine) forest(i int) *_Forest {
    if self.forests[i] == nil {
        self.forests[i] = buildForest(self.Graph.Blocks[i])
    }
    return self.forests[i]
}

func (self *Routine) replace(kind Kind, p flow.Pos, ins instr.Instr) {
    old := self.Graph.At(p)
    self.Graph.Replace(p, ins)
    self.Report.add(kind, p, old, ins)
    logger.Debugf("%s: %s replaced with %s (%s)", p, old, ins, kind)
}

func (self *Routine) isAllocation(p instr.Instr) bool {
    return p.Op == self.Table.Allocate.Op || p.Op == self.Table.AllocateOnly.Op
}

// loadedClass returns the class of a tracked reference loaded by n.
func (self *Routine) loadedClass(f *_Forest, n *_Node) (int, bool) {
    if p, ok := f.at(n); !ok || p.Op != instr.OP_tload || p.Ty != instr.R {
        return 0, false
    } else {
        return self.Classes.Of(p.Tv)
    }
}

// allocatedInto returns the class of a tracked temporary n stores a fresh
// allocation into.
func (self *Routine) allocatedInto(f *_Forest, n *_Node) (int, bool) {
    if p, ok := f.at(n); !ok || p.Op != instr.OP_tstore {
        return 0, false
    } else if v, ok := f.at(n.child(0)); !ok || !self.isAllocation(v) {
        return 0, false
    } else {
        return self.Classes.Of(p.Tv)
    }
}

// collectsIn reports whether any instruction in [begin, end) of block b
// may trigger a collection.
func (self *Routine) collectsIn(b int, begin int, end int) bool {
    for _, p := range self.Graph.Blocks[b].Ins[begin:end] {
        if p.MayCollect() {
            return true
        }
    }
    return false
}
