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
    `strings`

    `gonum.org/v1/gonum/graph`
    `gonum.org/v1/gonum/graph/encoding`
    `gonum.org/v1/gonum/graph/encoding/dot`
    `gonum.org/v1/gonum/graph/multi`
)

// DrawFlags selects the annotations MarshalDOT puts on every block.
type DrawFlags uint8

const (
    DrawInstructions DrawFlags = 1 << iota
    DrawLiveness
    DrawDefUse
    DrawPreferences
    DrawPhis
    DrawWeights
    DrawExit
)

type _DotNode struct {
    id    int64
    label string
}

func (self _DotNode) ID() int64      { return self.id }
func (self _DotNode) DOTID() string  { return fmt.Sprintf("bb_%d", self.id) }

func (self _DotNode) Attributes() []encoding.Attribute {
    return []encoding.Attribute {
        { Key: "shape", Value: "record" },
        { Key: "label", Value: self.label },
    }
}

type _DotLine struct {
    multi.Line
    label string
}

func (self _DotLine) Attributes() []encoding.Attribute {
    if self.label == "" {
        return nil
    } else {
        return []encoding.Attribute {{ Key: "label", Value: self.label }}
    }
}

type _DotAttrs []encoding.Attribute

func (self _DotAttrs) Attributes() []encoding.Attribute {
    return self
}

type _DotGraph struct {
    *multi.DirectedGraph
}

func (self _DotGraph) DOTAttributers() (encoding.Attributer, encoding.Attributer, encoding.Attributer) {
    return _DotAttrs {
        { Key: "rankdir", Value: "TB" },
        { Key: "ratio", Value: "2" },
    }, _DotAttrs {
        { Key: "fontsize", Value: "8" },
        { Key: "shape", Value: "rectangle" },
    }, _DotAttrs(nil)
}

func joinTemps(ts TempSet) string {
    rs := make([]string, 0, len(ts))
    for _, r := range ts.Sorted() {
        rs = append(rs, fmt.Sprint(r))
    }
    return strings.Join(rs, ", ")
}

func joinPrefs(prefs map[int]int) string {
    ks := make([]int, 0, len(prefs))
    for k := range prefs {
        ks = append(ks, k)
    }

    /* sort by temporary */
    sort.Ints(ks)
    rs := make([]string, 0, len(ks))

    /* non-positive means register */
    for _, k := range ks {
        if prefs[k] <= 0 {
            rs = append(rs, fmt.Sprintf("%d:reg", k))
        } else {
            rs = append(rs, fmt.Sprintf("%d:mem", k))
        }
    }
    return strings.Join(rs, ",")
}

func escapeRecord(s string) string {
    return strings.NewReplacer(
        `{`, `\{`,
        `}`, `\}`,
        `|`, `\|`,
        `<`, `\<`,
        `>`, `\>`,
        `"`, `\"`,
    ).Replace(s)
}

func (self *FlowGraph) blockLabel(bb *BasicBlock, flags DrawFlags) string {
    buf := []string { fmt.Sprintf("Block %d", bb.Id) }

    /* block entry */
    if flags & DrawWeights != 0 {
        buf = append(buf, fmt.Sprintf("weight: %g", self.Weight(bb.Id)))
    }
    if flags & DrawDefUse != 0 {
        buf = append(buf, "uses: " + joinTemps(bb.Uses))
    }
    if flags & DrawLiveness != 0 {
        buf = append(buf, "live: " + joinTemps(bb.LiveIn))
    }
    if flags & DrawPreferences != 0 {
        buf = append(buf, "pref: " + joinPrefs(self.Preferences().Start[bb.Id]))
    }
    if flags & DrawPhis != 0 {
        buf = append(buf, "phis: " + joinTemps(self.PhiNodes()[bb.Id]))
    }

    /* block body */
    if flags & DrawInstructions != 0 {
        for _, p := range bb.Ins {
            buf = append(buf, escapeRecord(p.String()))
        }
    }

    /* block exit */
    if flags & DrawDefUse != 0 {
        buf = append(buf, "defns: " + joinTemps(bb.Defs))
    }
    if flags & DrawLiveness != 0 {
        buf = append(buf, "live: " + joinTemps(bb.LiveOut))
    }
    if flags & DrawPreferences != 0 {
        buf = append(buf, "pref: " + joinPrefs(self.Preferences().End[bb.Id]))
    }
    if flags & DrawExit != 0 && bb.Exit {
        buf = append(buf, "exits")
    }
    return "{" + strings.Join(buf, " | ") + "}"
}

// MarshalDOT renders the graph in Graphviz DOT format, one record per block.
// Edges are labelled with the preferences of their edge set when
// DrawPreferences is set.
func (self *FlowGraph) MarshalDOT(name string, flags DrawFlags) ([]byte, error) {
    g := _DotGraph { multi.NewDirectedGraph() }
    nodes := make([]graph.Node, len(self.Blocks))

    /* one node per block */
    for i, bb := range self.Blocks {
        nodes[i] = _DotNode { id: int64(i), label: self.blockLabel(bb, flags) }
        g.AddNode(nodes[i])
    }

    /* one line per edge, self loops included */
    for _, bb := range self.Blocks {
        for _, s := range bb.Succ {
            ln := _DotLine { Line: g.NewLine(nodes[bb.Id], nodes[s]).(multi.Line) }
            if flags & DrawPreferences != 0 && bb.HasChild() {
                ln.label = joinPrefs(self.Preferences().Edges[bb.Child])
            }
            g.SetLine(ln)
        }
    }

    /* encode the graph */
    return dot.MarshalMulti(g, name, "", "    ")
}
