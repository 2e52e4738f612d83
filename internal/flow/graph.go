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

    `github.com/cloudwego/gcflow/internal/delta`
    `github.com/cloudwego/gcflow/internal/instr`
    `github.com/cloudwego/gcflow/internal/opts`
    `github.com/cloudwego/gcflow/internal/utils`
    `github.com/tliron/commonlog`
)

var logger = commonlog.GetLogger("gcflow.flow")

// FlowGraph is the control-flow graph of one routine, together with the
// facts derived from it. Block 0 is the unique entry. The fixpoints run
// during construction, the remaining facts are computed on first use. None
// are ever invalidated, since the only mutation
// allowed after construction is an arity-preserving instruction swap.
type FlowGraph struct {
    Blocks   []*BasicBlock
    EdgeSets []*EdgeSet
    Delta    delta.Triple
    Refs     TempSet

    opts     opts.Options
    locs     [][2]_Loc
    rounds   int
    gctemps  TempSet
    dom      *DominatorTree
    loops    *LoopNode
    depth    []int
    weights  []float64
    prefs    *Preferences
    defs     []TempSet
    phis     []TempSet
}

func newFlowGraph(o opts.Options, nb int) *FlowGraph {
    return &FlowGraph {
        opts   : o,
        Blocks : make([]*BasicBlock, 0, nb),
        locs   : make([][2]_Loc, 0, nb),
    }
}

// Build constructs a flow graph with a throw-away builder.
func Build(ins []instr.Instr, o opts.Options) (*FlowGraph, error) {
    return NewBuilder(o).Build(ins)
}

func (self *FlowGraph) Entry() *BasicBlock {
    return self.Blocks[0]
}

func (self *FlowGraph) Len() int {
    return len(self.Blocks)
}

func (self *FlowGraph) PointerSize() int {
    return self.opts.Platform.PointerSize
}

func (self *FlowGraph) Options() opts.Options {
    return self.opts
}

// At returns the instruction at p.
func (self *FlowGraph) At(p Pos) instr.Instr {
    return self.Blocks[p.B].Ins[p.I]
}

// Replace swaps the instruction at p for one with the same stack shape and
// collection behavior. Anything else would invalidate the cached facts, so
// it is treated as a programming error.
func (self *FlowGraph) Replace(p Pos, ins instr.Instr) {
    old := self.At(p)
    if old.In != ins.In || old.Out != ins.Out || old.Nb != ins.Nb || old.MayCollect() != ins.MayCollect() {
        panic(fmt.Sprintf("gcflow: cannot replace %s with %s at %s", old, ins, p))
    }
    self.Blocks[p.B].Ins[p.I] = ins
}

// MayCollect reports whether any block may trigger a collection.
func (self *FlowGraph) MayCollect() bool {
    for _, bb := range self.Blocks {
        if bb.MayCollect() {
            return true
        }
    }
    return false
}

// FallsThrough reports whether control can fall off the end of the routine.
func (self *FlowGraph) FallsThrough() bool {
    for _, bb := range self.Blocks {
        if bb.Exit {
            return true
        }
    }
    return false
}

// Temps returns every temporary loaded or stored in the graph.
func (self *FlowGraph) Temps() TempSet {
    ret := make(TempSet)
    for _, bb := range self.Blocks {
        for _, p := range bb.Ins {
            if p.IsTempAccess() {
                ret.add(p.Tv)
            }
        }
    }
    return ret
}

func (self *FlowGraph) collectRefs() {
    self.Refs = make(TempSet)
    for _, bb := range self.Blocks {
        for _, p := range bb.Ins {
            if p.IsTempAccess() && p.Ty == instr.R {
                self.Refs.add(p.Tv)
            }
        }
    }
}

// checkRounds guards the fixpoints over this graph. A well-formed graph
// converges within |blocks|^2 rounds, MaxIterations tightens that further.
func (self *FlowGraph) checkRounds(what string, n int) error {
    if nb := len(self.Blocks); n > nb * nb + 1 {
        panic(fmt.Sprintf("gcflow: %s did not converge after %d rounds", what, n))
    }
    if !self.opts.CanIterate(n - 1) {
        return utils.ELimit(what, self.opts.MaxIterations)
    }
    return nil
}
