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

    `github.com/ajstarks/svgo`
    `github.com/cloudwego/gcflow/internal/instr`
)

type _LivePoint struct {
    y   int
    def bool
}

// livePoints returns, for every temporary, the instructions it is live
// across, in layout order.
func (self *FlowGraph) livePoints(rows []int) map[int][]_LivePoint {
    ret := make(map[int][]_LivePoint)
    for b, bb := range self.Blocks {
        live := bb.LiveOut.clone()
        pts := make([]TempSet, len(bb.Ins))

        /* walk backwards from the live-out set */
        for i := len(bb.Ins) - 1; i >= 0; i-- {
            p := bb.Ins[i]
            pts[i] = live.clone()

            /* the accessed temporary is live at its own access */
            if p.IsTempAccess() {
                pts[i].add(p.Tv)
            }

            /* stores kill, loads gen */
            switch p.Op {
                case instr.OP_tstore : live.remove(p.Tv)
                case instr.OP_tload  : live.add(p.Tv)
            }
        }

        /* dump in layout order */
        for i, ts := range pts {
            p := bb.Ins[i]
            for _, t := range ts.Sorted() {
                ret[t] = append(ret[t], _LivePoint {
                    y   : rows[b] + i,
                    def : p.Op == instr.OP_tstore && p.Tv == t,
                })
            }
        }
    }
    return ret
}

// DrawLiveness renders the live ranges of all temporaries as SVG, one
// column per temporary next to the instruction listing. Filled dots mark
// instructions a temporary is live across, hollow ones mark its stores.
func (self *FlowGraph) DrawLiveness(w io.Writer) {
    n := 0
    maxi := 0
    rows := make([]int, len(self.Blocks))

    /* lay out the instruction rows, one spare row per block header */
    for b, bb := range self.Blocks {
        rows[b] = n + b + 1
        n += len(bb.Ins)
        for _, p := range bb.Ins {
            if s := p.String(); len(s) > maxi {
                maxi = len(s)
            }
        }
    }

    /* geometry */
    temps := self.Temps().Sorted()
    pts := self.livePoints(rows)
    insw := maxi * 9 + 120
    regw := 48
    rowy := func(r int) int { return 95 + r * 24 }

    /* draw the listing */
    p := svg.New(w)
    p.Start(len(temps) * regw + insw + 100, (n + len(self.Blocks)) * 24 + 100)
    p.Rect(0, 0, len(temps) * regw + insw + 100, (n + len(self.Blocks)) * 24 + 100, "fill:white")
    for b, bb := range self.Blocks {
        h := rowy(rows[b] - 1)
        p.Text(16, h + 5, bb.String(), "fill:gray;font-size:16px;font-family:monospace")
        p.Line(10, h - 11, insw + 5, h - 11, "stroke:lightgray")
        for i, v := range bb.Ins {
            h = rowy(rows[b] + i)
            p.Text(insw, h + 5, v.String(), "fill:black;font-size:16px;font-family:monospace;text-anchor:end")
            p.Line(insw + 10, h, len(temps) * regw + insw + 50, h, "stroke:gray")
        }
    }

    /* draw the live ranges */
    for i, t := range temps {
        x := insw + i * regw + 50
        p.Text(x, 70, fmt.Sprintf("t%d", t), "fill:black;font-size:16px;font-family:monospace;text-anchor:middle")
        if lr := pts[t]; len(lr) != 0 {
            p.Line(x, rowy(lr[0].y), x, rowy(lr[len(lr) - 1].y), "stroke:black;stroke-width:3")
            for _, pt := range lr {
                if pt.def {
                    p.Circle(x, rowy(pt.y), 4, "fill:white;stroke:black;stroke-width:2")
                } else {
                    p.Circle(x, rowy(pt.y), 4, "fill:black;stroke:black;stroke-width:2")
                }
            }
        }
    }
    p.End()
}
