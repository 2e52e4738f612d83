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
    `io`
    `strings`
)

const _SummaryRule = "________________________________________"

func joinInts(v []int) string {
    rs := make([]string, 0, len(v))
    for _, x := range v {
        rs = append(rs, fmt.Sprint(x))
    }
    return strings.Join(rs, ", ")
}

func (self *FlowGraph) printTable(w io.Writer, title string, row func(i int) string) {
    fmt.Fprintf(w, "%s:\n", title)
    for i, bb := range self.Blocks {
        fmt.Fprintf(w, "%s : %s\n", bb, row(i))
    }
    fmt.Fprintf(w, "%s\n\n", _SummaryRule)
}

func (self *LoopNode) dump(w io.Writer) {
    fmt.Fprintf(w, "%s%s\n", strings.Repeat("    ", self.Depth), self)
    for _, c := range self.Children {
        c.dump(w)
    }
}

// Summary prints the definitions, dominators, dominance frontiers, phi
// nodes and loop nest of the graph in a human readable form.
func (self *FlowGraph) Summary(w io.Writer) {
    dt := self.Dominators()
    defs := self.Definitions()
    phis := self.PhiNodes()

    /* per-block facts */
    self.printTable(w, "SSA definitions", func(i int) string { return joinInts(defs[i].Sorted()) })
    self.printTable(w, "SSA dominators", func(i int) string { return joinInts(dt.Dominators(i)) })
    self.printTable(w, "SSA dominance frontiers", func(i int) string { return joinInts(dt.DominanceFrontier[i]) })
    self.printTable(w, "SSA Phi nodes", func(i int) string { return joinInts(phis[i].Sorted()) })

    /* loop nest */
    fmt.Fprintln(w, "Loop nest:")
    self.LoopNest().dump(w)
}
