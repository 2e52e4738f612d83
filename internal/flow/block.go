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
)

const (
    _NoEdgeSet = -1
)

// BasicBlock is a maximal straight-line run of instructions. Blocks live in
// the Blocks slice of their FlowGraph and refer to each other by index.
type BasicBlock struct {
    Id      int
    Ins     []instr.Instr
    Pred    []int
    Succ    []int
    Exit    bool
    Parent  int
    Child   int
    Delta   delta.Triple
    Defs    TempSet
    Uses    TempSet
    LiveIn  TempSet
    LiveOut TempSet
    collect bool
}

func (self *BasicBlock) String() string {
    return fmt.Sprintf("bb_%d", self.Id)
}

func (self *BasicBlock) Len() int {
    return len(self.Ins)
}

// MayCollect reports whether any instruction in the block may trigger a
// collection.
func (self *BasicBlock) MayCollect() bool {
    return self.collect
}

func (self *BasicBlock) HasParent() bool {
    return self.Parent != _NoEdgeSet
}

func (self *BasicBlock) HasChild() bool {
    return self.Child != _NoEdgeSet
}

func (self *BasicBlock) IsSucc(i int) bool {
    for _, v := range self.Succ {
        if v == i {
            return true
        }
    }
    return false
}

func (self *BasicBlock) summarize() {
    var tr delta.Tracker
    self.Defs = make(TempSet)
    self.Uses = make(TempSet)
    self.collect = false

    /* scan every instruction */
    for _, p := range self.Ins {
        p.Apply(&tr)
        self.collect = self.collect || p.MayCollect()

        /* local def/use sets */
        switch p.Op {
            case instr.OP_tstore: {
                self.Defs.add(p.Tv)
            }
            case instr.OP_tload: {
                if !self.Defs.Contains(p.Tv) {
                    self.Uses.add(p.Tv)
                }
            }
        }
    }

    /* stack effect of the whole block */
    self.Delta = tr.Triple()
}
