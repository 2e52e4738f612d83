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
    mapset `github.com/deckarep/golang-set`
    `github.com/oleiade/lane`
)

// BarrierElim replaces checked reference stores with unchecked ones when
// the target object is known to be fresh, or when the stored value is null.
//
// An object is fresh from the moment it is allocated until the next
// collection point. A checked store also leaves the object barriered until
// the next collection point, so later stores into it need no barrier either.
type BarrierElim struct{}

func (BarrierElim) Apply(r *Routine) {
    for i, fresh := range freshAtEntry(r) {
        r.scanBarriers(i, fresh, true)
    }
}

func isNull(f *_Forest, n *_Node) bool {
    p, ok := f.at(n)
    return ok && p.Op == instr.OP_number && p.Iv == 0
}

// scanBarriers walks block b with the classes fresh at its entry and
// returns the classes fresh at its exit. Redundant barriers are rewritten
// when rewrite is set.
func (self *Routine) scanBarriers(b int, fresh mapset.Set, rewrite bool) mapset.Set {
    f := self.forest(b)
    fresh = fresh.Clone()

    /* follow the trees in execution order */
    for _, rt := range f.Roots {
        if rt.Collects {
            fresh.Clear()
        }

        /* checked stores of references */
        if p, _ := f.at(rt._Node); self.Table.IsCheckedStore(p) {
            c, ok := self.loadedClass(f, rt.child(1))
            pos := flow.Pos { B: b, I: rt.I }

            /* either the barrier is redundant, or it marks the object */
            switch {
                case isNull(f, rt.child(0))  : self.elideBarrier(BarrierNull, pos, rewrite)
                case ok && fresh.Contains(c) : self.elideBarrier(BarrierFresh, pos, rewrite)
                case ok                      : fresh.Add(c)
            }
        }

        /* freshly allocated objects */
        if c, ok := self.allocatedInto(f, rt._Node); ok {
            fresh.Add(c)
        }
    }

    /* collections after the last tree */
    if f.Tail {
        fresh.Clear()
    }
    return fresh
}

func (self *Routine) elideBarrier(kind Kind, p flow.Pos, rewrite bool) {
    if rewrite {
        self.replace(kind, p, self.Table.UncheckedStore)
    }
}

// freshAtEntry computes, for every block, the classes that are fresh on
// every path reaching it. The entry block starts with nothing.
func freshAtEntry(r *Routine) []mapset.Set {
    g := r.Graph
    nb := g.Len()
    all := mapset.NewSet()

    /* the universe of classes */
    for _, c := range r.Classes {
        all.Add(c)
    }

    /* local facts, and the optimistic starting point */
    queued := make([]bool, nb)
    local := make([]mapset.Set, nb)
    start := make([]mapset.Set, nb)
    end := make([]mapset.Set, nb)

    /* every block is visited at least once */
    for i := range g.Blocks {
        start[i] = mapset.NewSet()
        local[i] = r.scanBarriers(i, start[i], false)
        end[i] = all
    }

    /* the entry block has no fresh objects at all */
    q := lane.NewQueue()
    end[0] = local[0]

    /* everything else goes through the work list */
    for i := 1; i < nb; i++ {
        q.Enqueue(i)
        queued[i] = true
    }

    /* propagate until stable */
    for !q.Empty() {
        n := q.Dequeue().(int)
        bb := g.Blocks[n]
        queued[n] = false

        /* fresh on every incoming edge */
        in := all.Clone()
        for _, p := range bb.Pred {
            in = in.Intersect(end[p])
        }

        /* a collection inside the block only leaves its own facts */
        out := local[n]
        start[n] = in
        if !bb.MayCollect() {
            out = r.scanBarriers(n, in, false)
        }

        /* requeue the successors on change */
        if !out.Equal(end[n]) {
            end[n] = out
            for _, s := range bb.Succ {
                if s != 0 && !queued[s] {
                    q.Enqueue(s)
                    queued[s] = true
                }
            }
        }
    }
    return start
}
