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
    `testing`

    `github.com/cloudwego/gcflow/internal/flow`
    `github.com/cloudwego/gcflow/internal/instr`
    `github.com/cloudwego/gcflow/internal/opts`
    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/require`
)

func build(t *testing.T, ptr int, ins ...instr.Instr) *flow.FlowGraph {
    o := opts.GetDefaultOptions()
    o.Platform.PointerSize = ptr
    g, err := flow.Build(ins, o)
    require.NoError(t, err)
    return g
}

func optimize(t *testing.T, ptr int, ins ...instr.Instr) (*flow.FlowGraph, *Report) {
    g := build(t, ptr, ins...)
    r := Optimize(g, instr.DefaultTable(), opts.GetDefaultOptions().Optimizer)
    t.Logf("substitutions:\n%s", r)
    return g, r
}

func positionsOf(g *flow.FlowGraph, op instr.OpCode) []flow.Pos {
    var ret []flow.Pos
    for b, bb := range g.Blocks {
        for i, p := range bb.Ins {
            if p.Op == op {
                ret = append(ret, flow.Pos { B: b, I: i })
            }
        }
    }
    return ret
}

func blockOf(g *flow.FlowGraph, op instr.OpCode) int {
    ps := positionsOf(g, op)
    if len(ps) == 0 {
        panic("no " + op.String() + " in the routine")
    }
    return ps[0].B
}

func insert(ins []instr.Instr, at int, p instr.Instr) []instr.Instr {
    ret := make([]instr.Instr, 0, len(ins) + 1)
    ret = append(ret, ins[:at]...)
    ret = append(ret, p)
    return append(ret, ins[at:]...)
}

func fieldStore(tv int, val int64, off int64) []instr.Instr {
    return []instr.Instr {
        instr.Number(val),
        instr.TLoad(instr.R, tv),
        instr.Number(off),
        instr.RStore(instr.R),
    }
}

func routine(parts ...[]instr.Instr) []instr.Instr {
    var ret []instr.Instr
    for _, v := range parts {
        ret = append(ret, v...)
    }
    return ret
}

func allocate(tv int, size int64) []instr.Instr {
    return []instr.Instr {
        instr.Number(size),
        instr.GCMalloc(),
        instr.TStore(instr.R, tv),
    }
}

func ret() []instr.Instr {
    return []instr.Instr { instr.Return(instr.V) }
}

func scenarioB() []instr.Instr {
    return routine(
        allocate(0, 12),
        fieldStore(0, 7, 0),
        fieldStore(0, 7, 4),
        fieldStore(0, 7, 8),
        ret(),
    )
}

func TestForest_Trees(t *testing.T) {
    g := build(t, 4, scenarioB()...)
    f := buildForest(g.Entry())
    if len(f.Roots) != 5 {
        spew.Dump(f.Roots)
    }
    require.Len(t, f.Roots, 5)
    require.Equal(t, 2, f.Roots[0].I)
    require.True(t, f.Roots[0].Collects)
    require.Equal(t, 1, f.Roots[0].child(0).I)
    require.Equal(t, 0, f.Roots[0].child(0).child(0).I)
    for i, v := range []int { 6, 10, 14 } {
        require.Equal(t, v, f.Roots[i + 1].I)
        require.False(t, f.Roots[i + 1].Collects)
        require.Equal(t, v - 3, f.Roots[i + 1].child(0).I)
        require.Equal(t, v - 2, f.Roots[i + 1].child(1).I)
        require.Equal(t, v - 1, f.Roots[i + 1].child(2).I)
    }
    require.False(t, f.Tail)
}

func TestForest_ComplexInstructions(t *testing.T) {
    g := build(t, 8,
        instr.Number(1),
        instr.TStore(instr.R, 0),
        instr.TLoad(instr.R, 0),
        instr.NativeArg(instr.R),
        instr.NCall("f"),
        instr.Number(1),
        instr.Number(2),
        instr.Return(instr.I8),
    )
    f := buildForest(g.Entry())
    require.Len(t, f.Roots, 4)
    require.Equal(t, 3, f.Roots[1].I)
    require.Empty(t, f.Roots[1].Kids)
    require.Len(t, f.Roots[1].Dropped, 1)
    require.Equal(t, 2, f.Roots[1].Dropped[0].I)
    require.False(t, f.Roots[1].Collects)
    require.Equal(t, 4, f.Roots[2].I)
    require.True(t, f.Roots[2].Collects)
    require.Equal(t, 6, f.Roots[3].child(0).I)
    require.False(t, f.Tail)
}

func TestEquivalence_Classes(t *testing.T) {
    g := build(t, 8, routine(
        allocate(0, 16),
        []instr.Instr {
            instr.TLoad(instr.R, 0),
            instr.TStore(instr.R, 1),
            instr.TLoad(instr.R, 1),
            instr.TStore(instr.R, 2),
            instr.Number(1),
            instr.TStore(instr.I4, 3),
            instr.Number(2),
            instr.TStore(instr.I4, 3),
            instr.TLoad(instr.I4, 3),
            instr.TStore(instr.I4, 4),
        },
        ret(),
    )...)
    r := newRoutine(g, instr.DefaultTable())
    ConstDetect{}.Apply(r)
    Equivalence{}.Apply(r)
    require.Equal(t, map[int]bool { 0: true, 1: true, 2: true, 4: true }, r.Consts)
    require.Equal(t, Classes { 0: 0, 1: 0, 2: 0, 4: 4 }, r.Classes)
    require.Equal(t, []int { 0, 1, 2 }, r.Classes.Members(0))
    _, ok := r.Classes.Of(3)
    require.False(t, ok)
}

func TestOptimize_FixedInitialization(t *testing.T) {
    g, r := optimize(t, 4, scenarioB()...)
    require.Equal(t, instr.OP_gc_allocate_only, g.At(flow.Pos { B: 0, I: 1 }).Op)
    require.True(t, r.Has(InitCovered, flow.Pos { B: 0, I: 1 }))
    require.Equal(t, 3, r.Count(BarrierFresh))
    for _, p := range positionsOf(g, instr.OP_rstore_simple) {
        require.Equal(t, 3, g.At(p).Inputs())
        require.Equal(t, 0, g.At(p).Outputs())
    }
}

func TestOptimize_FixedInitializationInterrupted(t *testing.T) {
    g, r := optimize(t, 4, routine(
        allocate(0, 12),
        fieldStore(0, 7, 0),
        fieldStore(0, 7, 4),
        []instr.Instr { instr.NCall("native") },
        fieldStore(0, 7, 8),
        ret(),
    )...)
    require.Equal(t, instr.OP_gc_malloc, g.At(flow.Pos { B: 0, I: 1 }).Op)
    require.Zero(t, r.Initializations())
    require.Equal(t, 2, r.Count(BarrierFresh))
    require.Len(t, positionsOf(g, instr.OP_rstore), 1)
}

func TestOptimize_FixedInitializationPartial(t *testing.T) {
    g, r := optimize(t, 8, routine(
        allocate(0, 24),
        fieldStore(0, 7, 0),
        fieldStore(0, 7, 12),
        fieldStore(0, 7, 16),
        ret(),
    )...)
    require.Equal(t, instr.OP_gc_malloc, g.At(flow.Pos { B: 0, I: 1 }).Op)
    require.Zero(t, r.Initializations())
}

func TestOptimize_FixedInitializationWideStore(t *testing.T) {
    g, r := optimize(t, 4, routine(
        allocate(0, 12),
        []instr.Instr {
            instr.Number(7),
            instr.TLoad(instr.R, 0),
            instr.Number(0),
            instr.RStoreSimple(instr.I8),
        },
        fieldStore(0, 7, 8),
        ret(),
    )...)
    require.Equal(t, instr.OP_gc_allocate_only, g.At(flow.Pos { B: 0, I: 1 }).Op)
    require.Equal(t, 1, r.Count(InitCovered))
}

func TestOptimize_ObjectUsedBeforeInitialization(t *testing.T) {
    g, r := optimize(t, 8, routine(
        allocate(0, 16),
        []instr.Instr {
            instr.TLoad(instr.R, 0),
            instr.TStore(instr.R, 1),
            instr.TLoad(instr.R, 0),
            instr.TLoad(instr.R, 1),
            instr.Number(0),
            instr.RStore(instr.R),
        },
        fieldStore(1, 7, 8),
        ret(),
    )...)
    require.Equal(t, instr.OP_gc_malloc, g.At(flow.Pos { B: 0, I: 1 }).Op)
    require.Zero(t, r.Initializations())
    require.Equal(t, 2, r.Count(BarrierFresh))
}

func TestOptimize_NullStores(t *testing.T) {
    g, r := optimize(t, 8, routine(
        []instr.Instr {
            instr.Number(64),
            instr.PLoad(instr.R),
            instr.TStore(instr.R, 1),
        },
        fieldStore(1, 0, 8),
        fieldStore(1, 5, 8),
        fieldStore(1, 6, 16),
        ret(),
    )...)
    require.True(t, r.Has(BarrierNull, flow.Pos { B: 0, I: 6 }))
    require.Equal(t, instr.OP_rstore, g.At(flow.Pos { B: 0, I: 10 }).Op)
    require.True(t, r.Has(BarrierFresh, flow.Pos { B: 0, I: 14 }))
    require.Zero(t, r.Initializations())
}

func barrierJoin(collect bool) []instr.Instr {
    mid := instr.Nop()
    if collect {
        mid = instr.GCSafe()
    }
    return routine(
        allocate(0, 16),
        []instr.Instr { instr.Number(1), instr.Branch(1, true) },
        fieldStore(0, 1, 0),
        []instr.Instr { instr.Hop(2), instr.Target(1), mid, instr.Target(2) },
        fieldStore(0, 2, 8),
        ret(),
    )
}

func TestOptimize_BarriersAcrossBlocks(t *testing.T) {
    g, r := optimize(t, 8, barrierJoin(true)...)
    require.Equal(t, 1, r.Count(BarrierFresh))
    require.Len(t, positionsOf(g, instr.OP_rstore_simple), 1)
    require.Len(t, positionsOf(g, instr.OP_rstore), 1)
    require.Equal(t, g.Len() - 1, positionsOf(g, instr.OP_rstore)[0].B)

    /* without the safe point both arms keep the object fresh */
    g, r = optimize(t, 8, barrierJoin(false)...)
    require.Equal(t, 2, r.Count(BarrierFresh))
    require.Empty(t, positionsOf(g, instr.OP_rstore))
}

func markerAcrossBlocks(collect bool) []instr.Instr {
    mid := instr.Nop()
    if collect {
        mid = instr.GCSafe()
    }
    return routine(
        allocate(0, 32),
        []instr.Instr { instr.Number(1), instr.Branch(1, true), mid },
        fieldStore(0, 1, 0),
        []instr.Instr {
            instr.Target(1),
            instr.TLoad(instr.R, 0),
            instr.FullyInitialized(),
        },
        ret(),
    )
}

func TestOptimize_InitMarker(t *testing.T) {
    g, r := optimize(t, 8, markerAcrossBlocks(false)...)
    require.Equal(t, 1, r.Count(InitMarker))
    require.Equal(t, []flow.Pos { { B: 0, I: 1 } }, positionsOf(g, instr.OP_gc_allocate_only))
    require.False(t, EscapesBetween(g, 0, blockOf(g, instr.OP_fully_initialized)))

    /* a safe point on one of the paths */
    g, r = optimize(t, 8, markerAcrossBlocks(true)...)
    require.Zero(t, r.Count(InitMarker))
    require.Empty(t, positionsOf(g, instr.OP_gc_allocate_only))
    require.True(t, EscapesBetween(g, 0, blockOf(g, instr.OP_fully_initialized)))
}

func TestEscapesBetween(t *testing.T) {
    g := build(t, 8, markerAcrossBlocks(false)...)
    exit := blockOf(g, instr.OP_return)
    require.Equal(t, 3, g.Len())
    require.False(t, EscapesBetween(g, 0, 0))
    require.False(t, EscapesBetween(g, 0, exit))
    require.True(t, EscapesBetween(g, 1, 0))
}

func TestOptimize_Disabled(t *testing.T) {
    g := build(t, 4, scenarioB()...)
    r := Optimize(g, instr.DefaultTable(), opts.Optimizer{})
    require.Empty(t, r.Sites)
    require.Equal(t, instr.OP_gc_malloc, g.At(flow.Pos { B: 0, I: 1 }).Op)
    require.Len(t, positionsOf(g, instr.OP_rstore), 3)
}

func TestOptimize_MismatchedTable(t *testing.T) {
    g := build(t, 4, scenarioB()...)
    tab := instr.DefaultTable()
    tab.AllocateOnly = instr.Nop()
    r := Optimize(g, tab, opts.GetDefaultOptions().Optimizer)
    require.Empty(t, r.Sites)
    require.Equal(t, instr.OP_gc_malloc, g.At(flow.Pos { B: 0, I: 1 }).Op)
}

func TestOptimize_CollectionPointDefeatsSubstitution(t *testing.T) {
    tests := []struct {
        name string
        kind Kind
        ins  []instr.Instr
        at   int
    } {
        {
            name : "fresh barrier",
            kind : BarrierFresh,
            ins  : routine(allocate(0, 8), fieldStore(0, 1, 0), ret()),
            at   : 3,
        },
        {
            name : "barriered object",
            kind : BarrierFresh,
            ins  : routine(
                []instr.Instr { instr.Number(64), instr.PLoad(instr.R), instr.TStore(instr.R, 0) },
                fieldStore(0, 1, 0),
                fieldStore(0, 2, 8),
                ret(),
            ),
            at   : 7,
        },
        {
            name : "covered allocation",
            kind : InitCovered,
            ins  : scenarioB(),
            at   : 11,
        },
        {
            name : "initialization marker",
            kind : InitMarker,
            ins  : routine(
                allocate(0, 8),
                []instr.Instr { instr.TLoad(instr.R, 0), instr.FullyInitialized() },
                ret(),
            ),
            at   : 3,
        },
        {
            name : "initialization marker across blocks",
            kind : InitMarker,
            ins  : markerAcrossBlocks(false),
            at   : 10,
        },
    }
    for _, tc := range tests {
        t.Run(tc.name, func(t *testing.T) {
            _, r := optimize(t, 4, tc.ins...)
            require.NotZero(t, r.Count(tc.kind))
            _, r = optimize(t, 4, insert(tc.ins, tc.at, instr.GCSafe())...)
            require.Zero(t, r.Count(tc.kind))
        })
    }
}
