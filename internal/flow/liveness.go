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
    `github.com/cloudwego/gcflow/internal/instr`
    `github.com/cloudwego/gcflow/internal/utils`
)

func (self *FlowGraph) computeLiveness() error {
    for _, bb := range self.Blocks {
        bb.LiveIn = make(TempSet)
        bb.LiveOut = make(TempSet)
    }

    /* iterate backwards until nothing grows */
    for changed := true; changed; {
        self.rounds++
        changed = false
        if err := self.checkRounds("liveness", self.rounds); err != nil {
            return err
        }

        /* round-robin over the blocks in reverse layout order */
        for i := len(self.Blocks) - 1; i >= 0; i-- {
            bb := self.Blocks[i]
            in := bb.Uses.clone()

            /* live out is the union of the live in of successors */
            for _, s := range bb.Succ {
                if bb.LiveOut.addAll(self.Blocks[s].LiveIn) {
                    changed = true
                }
            }

            /* live in = uses + (live out - defs) */
            for t := range bb.LiveOut {
                if !bb.Defs.Contains(t) {
                    in.add(t)
                }
            }

            /* merge into the current set */
            if bb.LiveIn.addAll(in) {
                changed = true
            }
        }
    }

    /* nothing may be live into the entry */
    if live := self.Entry().LiveIn; len(live) != 0 {
        return utils.EUninit(live.Sorted()[0])
    } else {
        return nil
    }
}

// Iterations returns the number of rounds the liveness fixpoint took,
// including the final one that changed nothing.
func (self *FlowGraph) Iterations() int {
    return self.rounds
}

// RefLiveIn returns the reference temporaries live into block i.
func (self *FlowGraph) RefLiveIn(i int) TempSet {
    return self.Blocks[i].LiveIn.Intersect(self.Refs)
}

// RefLiveOut returns the reference temporaries live out of block i.
func (self *FlowGraph) RefLiveOut(i int) TempSet {
    return self.Blocks[i].LiveOut.Intersect(self.Refs)
}

// GCTemps returns the reference temporaries that are live across at least
// one instruction that may trigger a collection. A code generator has to keep
// them somewhere the collector can see.
func (self *FlowGraph) GCTemps() TempSet {
    if self.gctemps != nil {
        return self.gctemps
    }

    /* walk every block backwards from its live-out set */
    ret := make(TempSet)
    for _, bb := range self.Blocks {
        live := bb.LiveOut.Intersect(self.Refs)
        for i := len(bb.Ins) - 1; i >= 0; i-- {
            switch p := bb.Ins[i]; {
                case p.MayCollect(): {
                    ret.addAll(live)
                }
                case p.Op == instr.OP_tstore: {
                    live.remove(p.Tv)
                }
                case p.Op == instr.OP_tload && self.Refs.Contains(p.Tv): {
                    live.add(p.Tv)
                }
            }
        }
    }

    /* cache the result */
    self.gctemps = ret
    return ret
}
