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
    `github.com/cloudwego/gcflow/internal/delta`
    `github.com/cloudwego/gcflow/internal/utils`
)

func (self *FlowGraph) joinError(bb *BasicBlock, err error) error {
    e, ok := err.(delta.CursorMismatch)
    if !ok {
        return err
    }
    loc := self.locs[bb.Id][1]
    return utils.EJoin(e.A, e.B).Locate(loc.file, loc.line)
}

func (self *FlowGraph) computeDeltas() error {
    entry := self.Entry()
    nb := len(self.Blocks)

    /* straight-line routine */
    if len(self.EdgeSets) == 0 {
        self.Delta = entry.Delta
        return nil
    }

    /* seed the edge set leaving the entry */
    es := self.EdgeSets[entry.Child]
    es.Delta = entry.Delta
    es.valid = true

    /* give every edge set the value of the first path reaching it */
    for changed := true; changed; {
        changed = false
        for _, bb := range self.Blocks {
            if bb.HasParent() && bb.HasChild() {
                p := self.EdgeSets[bb.Parent]
                c := self.EdgeSets[bb.Child]

                /* propagate along the block */
                if p.valid && !c.valid {
                    c.Delta = delta.Concat(p.Delta, bb.Delta)
                    c.valid = true
                    changed = true
                }
            }
        }
    }

    /* then every other path must agree with it */
    for _, bb := range self.Blocks {
        if bb.HasParent() && bb.HasChild() {
            p := self.EdgeSets[bb.Parent]
            c := self.EdgeSets[bb.Child]
            d, err := delta.Merge(c.Delta, delta.Concat(p.Delta, bb.Delta))

            /* differing cursors can never be reconciled */
            if err != nil {
                return self.joinError(bb, err)
            }
            c.Delta = d
        }
    }

    /* the whole routine ends with the last block */
    if last := self.Blocks[nb - 1]; last.HasParent() {
        self.Delta = delta.Concat(self.EdgeSets[last.Parent].Delta, last.Delta)
    } else {
        self.Delta = last.Delta
    }
    return nil
}
