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
)

// Storage-location preferences of reference temporaries.
const (
    PreferRegister = -1
    PreferNeither  = 0
    PreferMemory   = 1
)

// Preferences records where each reference temporary would rather live at
// the boundaries of every block, and the verdict for every edge set.
type Preferences struct {
    Refs  TempSet
    Start []map[int]int
    End   []map[int]int
    Edges []map[int]int
}

func (self *FlowGraph) preferredStart(bb *BasicBlock, refs TempSet) map[int]int {
    ret := make(map[int]int, len(refs))
    live := bb.LiveIn.Intersect(refs)

    /* the first access to each temporary decides */
    for _, p := range bb.Ins {
        switch {
            case p.Op == instr.OP_tstore: {
                if _, ok := ret[p.Tv]; !ok && refs.Contains(p.Tv) {
                    ret[p.Tv] = PreferNeither
                }
            }
            case p.Op == instr.OP_tload: {
                if _, ok := ret[p.Tv]; !ok && refs.Contains(p.Tv) {
                    ret[p.Tv] = PreferRegister
                }
            }
            case p.MayCollect(): {
                for r := range live {
                    if _, ok := ret[r]; !ok {
                        ret[r] = PreferMemory
                    }
                }
            }
        }
    }

    /* untouched temporaries are neutral */
    for r := range refs {
        if _, ok := ret[r]; !ok {
            ret[r] = PreferNeither
        }
    }
    return ret
}

func (self *FlowGraph) preferredEnd(bb *BasicBlock, refs TempSet) map[int]int {
    ret := make(map[int]int, len(refs))
    live := bb.LiveOut.Intersect(refs)

    /* the last access to each temporary decides */
    for i := len(bb.Ins) - 1; i >= 0; i-- {
        switch p := bb.Ins[i]; {
            case p.IsTempAccess(): {
                if _, ok := ret[p.Tv]; !ok && refs.Contains(p.Tv) {
                    ret[p.Tv] = PreferRegister
                }
            }
            case p.MayCollect(): {
                for r := range live {
                    if _, ok := ret[r]; !ok {
                        ret[r] = PreferMemory
                    }
                }
            }
        }
    }

    /* untouched temporaries are neutral */
    for r := range refs {
        if _, ok := ret[r]; !ok {
            ret[r] = PreferNeither
        }
    }
    return ret
}

// RefPreferences computes the storage-location preferences of the given
// reference temporaries. Each edge set gets the sign of the sum of the
// preferences of its blocks, weighted by how often they run.
func (self *FlowGraph) RefPreferences(refs TempSet) *Preferences {
    nb := len(self.Blocks)
    wt := self.Weights()
    ret := &Preferences {
        Refs  : refs.clone(),
        Start : make([]map[int]int, nb),
        End   : make([]map[int]int, nb),
        Edges : make([]map[int]int, len(self.EdgeSets)),
    }

    /* block boundaries */
    for i, bb := range self.Blocks {
        ret.Start[i] = self.preferredStart(bb, refs)
        ret.End[i] = self.preferredEnd(bb, refs)
    }

    /* edge sets */
    for i, es := range self.EdgeSets {
        sum := make(map[int]float64, len(refs))
        for _, p := range es.Parents() {
            for r, v := range ret.End[p] {
                sum[r] += float64(v) * wt[p]
            }
        }
        for _, c := range es.Children() {
            for r, v := range ret.Start[c] {
                sum[r] += float64(v) * wt[c]
            }
        }

        /* only the sign matters */
        ret.Edges[i] = make(map[int]int, len(refs))
        for r := range refs {
            if sum[r] > 0 {
                ret.Edges[i][r] = PreferMemory
            } else {
                ret.Edges[i][r] = PreferRegister
            }
        }
    }
    return ret
}

// Preferences returns the preferences of the temporaries in GCTemps.
func (self *FlowGraph) Preferences() *Preferences {
    if self.prefs == nil {
        self.prefs = self.RefPreferences(self.GCTemps())
    }
    return self.prefs
}
