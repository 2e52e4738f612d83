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
    `testing`

    `github.com/cloudwego/gcflow/internal/delta`
    `github.com/cloudwego/gcflow/internal/instr`
    `github.com/cloudwego/gcflow/internal/opts`
    `github.com/cloudwego/gcflow/internal/utils`
    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/require`
)

func mustBuild(t *testing.T, ins ...instr.Instr) *FlowGraph {
    g, err := Build(ins, opts.GetDefaultOptions())
    require.NoError(t, err)
    return g
}

func buildError(t *testing.T, kind utils.ErrorKind, ins ...instr.Instr) *utils.FlowError {
    g, err := Build(ins, opts.GetDefaultOptions())
    if err == nil {
        spew.Dump(g.Blocks)
    }
    require.Error(t, err)
    require.True(t, utils.IsKind(err, kind), "unexpected error: %v", err)
    return err.(*utils.FlowError)
}

func TestBuilder_StraightLine(t *testing.T) {
    g := mustBuild(t,
        instr.Number(1),
        instr.TStore(instr.I4, 0),
        instr.TLoad(instr.I4, 0),
        instr.Return(instr.I4),
    )
    require.Equal(t, 1, g.Len())
    require.Empty(t, g.EdgeSets)
    require.Equal(t, delta.Of(0, 0, 0), g.Delta)
    require.False(t, g.FallsThrough())
    require.False(t, g.MayCollect())
}

func TestBuilder_BranchArmsHopToSameTarget(t *testing.T) {
    g := mustBuild(t,
        instr.Target(0),
        instr.Branch(1, false),
        instr.Hop(2),
        instr.Target(1),
        instr.Hop(2),
        instr.Target(2),
        instr.Return(instr.V),
    )
    if g.Len() != 2 {
        spew.Dump(g.Blocks)
    }
    require.Equal(t, 2, g.Len())
    require.Equal(t, []int { 1 }, g.Entry().Succ)
    require.Equal(t, []int { 0 }, g.Blocks[1].Pred)
    require.Equal(t, instr.OP_branch, g.Entry().Ins[len(g.Entry().Ins) - 1].Op)
    require.Equal(t, instr.OP_return, g.Blocks[1].Ins[len(g.Blocks[1].Ins) - 1].Op)
}

func TestBuilder_MergeDropsHopTargetPair(t *testing.T) {
    g := mustBuild(t,
        instr.Number(1),
        instr.TStore(instr.I4, 0),
        instr.Hop(1),
        instr.Target(1),
        instr.TLoad(instr.I4, 0),
        instr.Return(instr.I4),
    )
    require.Equal(t, 1, g.Len())
    require.Equal(t, []instr.Instr {
        instr.Number(1),
        instr.TStore(instr.I4, 0),
        instr.TLoad(instr.I4, 0),
        instr.Return(instr.I4),
    }, g.Entry().Ins)
}

func TestBuilder_DeadBlocks(t *testing.T) {
    g := mustBuild(t,
        instr.Hop(1),
        instr.Target(2),
        instr.NCall("unreachable"),
        instr.Target(1),
        instr.Return(instr.V),
    )
    require.Equal(t, 1, g.Len())
    require.False(t, g.MayCollect())
}

func TestBuilder_Exit(t *testing.T) {
    g := mustBuild(t,
        instr.Number(1),
        instr.Branch(1, true),
        instr.Return(instr.V),
        instr.Target(1),
        instr.Nop(),
    )
    require.True(t, g.FallsThrough())
    require.True(t, g.Blocks[g.Len() - 1].Exit)
    require.False(t, g.Entry().Exit)
}

func TestBuilder_Dangling(t *testing.T) {
    e := buildError(t, utils.K_dangling,
        instr.File("a.gv"),
        instr.Line(7),
        instr.Hop(3),
    )
    require.Equal(t, 3, e.Label)
    require.EqualError(t, e, "a.gv:7: BRANCH or HOP to 3 has no target")
}

func TestBuilder_DuplicateTarget(t *testing.T) {
    buildError(t, utils.K_malformed,
        instr.Target(1),
        instr.Target(1),
        instr.Return(instr.V),
    )
}

func TestBuilder_TypeConflict(t *testing.T) {
    e := buildError(t, utils.K_type,
        instr.File("a.gv"),
        instr.Line(3),
        instr.Number(1),
        instr.TStore(instr.I4, 1),
        instr.Line(4),
        instr.TLoad(instr.R, 1),
        instr.Return(instr.R),
    )
    require.Equal(t, 1, e.Temp)
    require.Equal(t, 4, e.Line)

    /* word-sized integers are interchangeable */
    mustBuild(t,
        instr.Number(1),
        instr.TStore(instr.I4, 1),
        instr.TLoad(instr.U8, 1),
        instr.Return(instr.U8),
    )
}

func TestBuilder_Uninitialized(t *testing.T) {
    e := buildError(t, utils.K_uninit,
        instr.File("f.gv"),
        instr.Line(3),
        instr.TLoad(instr.I4, 5),
        instr.Return(instr.I4),
    )
    require.Equal(t, 5, e.Temp)
    require.EqualError(t, e, "f.gv:3: uninitialized temporary 5")

    /* the declaration is a better place to point at */
    e = buildError(t, utils.K_uninit,
        instr.File("f.gv"),
        instr.Line(2),
        instr.Name(5, "x"),
        instr.Line(3),
        instr.TLoad(instr.I4, 5),
        instr.Return(instr.I4),
    )
    require.EqualError(t, e, "f.gv:2: uninitialized temporary 5 'x' declared in this scope")

    /* without any location */
    e = buildError(t, utils.K_uninit,
        instr.TLoad(instr.I4, 5),
        instr.Return(instr.I4),
    )
    require.EqualError(t, e, "uninitialized temporary 5")
}

func TestBuilder_UninitializedOnOnePath(t *testing.T) {
    buildError(t, utils.K_uninit,
        instr.Number(1),
        instr.Branch(1, true),
        instr.Number(2),
        instr.TStore(instr.I4, 0),
        instr.Target(1),
        instr.TLoad(instr.I4, 0),
        instr.Return(instr.I4),
    )
}

func TestBuilder_JoinInconsistency(t *testing.T) {
    e := buildError(t, utils.K_join,
        instr.Number(1),
        instr.Branch(1, true),
        instr.Fetch(2),
        instr.Hop(2),
        instr.Target(1),
        instr.Fetch(3),
        instr.Target(2),
        instr.Return(instr.I4),
    )
    require.EqualError(t, e, "join inconsistency: differing operand-cursor offsets at join point: 2 and 3")
}

func TestBuilder_JoinConsistent(t *testing.T) {
    g := mustBuild(t,
        instr.Number(1),
        instr.Branch(1, true),
        instr.Fetch(2),
        instr.Hop(2),
        instr.Target(1),
        instr.Fetch(2),
        instr.Target(2),
        instr.Return(instr.I4),
    )
    require.Len(t, g.EdgeSets, 2)
    require.Equal(t, []int { 0 }, g.EdgeSets[0].Parents())
    require.Equal(t, []int { 1, 2 }, g.EdgeSets[0].Children())
    require.Equal(t, []int { 1, 2 }, g.EdgeSets[1].Parents())
    require.Equal(t, []int { 3 }, g.EdgeSets[1].Children())
    require.Equal(t, delta.Of(2, 0, 1), g.EdgeSets[1].Delta)
    require.Equal(t, delta.Of(2, 0, 0), g.Delta)
    require.Equal(t, g.EdgeSets[1], g.ParentOf(3))
    require.Nil(t, g.ParentOf(0))
    require.Nil(t, g.ChildOf(3))
}

func TestBuilder_IdsAreNotShared(t *testing.T) {
    b := NewBuilder(opts.GetDefaultOptions())
    ins := []instr.Instr {
        instr.Number(1),
        instr.Branch(1, true),
        instr.Target(1),
        instr.Return(instr.V),
    }
    g1, err := b.Build(ins)
    require.NoError(t, err)
    g2, err := b.Build(ins)
    require.NoError(t, err)
    require.Equal(t, g1.Len(), g2.Len())
    require.Equal(t, g1.Blocks[0].Succ, g2.Blocks[0].Succ)
}

func TestBuilder_HopThreading(t *testing.T) {
    ins := []instr.Instr {
        instr.Number(1),
        instr.Branch(1, true),
        instr.Target(1),
        instr.Hop(2),
        instr.Target(2),
        instr.Hop(3),
        instr.Target(3),
        instr.Return(instr.V),
    }
    out := threadHops(ins)
    require.Equal(t, instr.Branch(3, true), out[1])
    require.Equal(t, instr.Hop(3), out[3])
    require.Equal(t, instr.Branch(1, true), ins[1])

    /* cycles of hops stay where they are */
    cyc := threadHops([]instr.Instr {
        instr.Target(1),
        instr.Hop(2),
        instr.Target(2),
        instr.Hop(1),
    })
    require.Len(t, cyc, 4)
}

func TestBuilder_MaxIterations(t *testing.T) {
    o := opts.GetDefaultOptions()
    o.MaxIterations = 1
    g, err := Build(loopRoutine(), o)
    require.Nil(t, g)
    require.True(t, utils.IsKind(err, utils.K_limit), "unexpected error: %v", err)
    require.Contains(t, err.Error(), "liveness")
    o.MaxIterations = 3
    g, err = Build(loopRoutine(), o)
    require.NoError(t, err)
    require.NotNil(t, g.Dominators())
    require.NotNil(t, g.LoopNest())
}

func TestCompound(t *testing.T) {
    o := opts.GetDefaultOptions()
    p, err := NewCompound("f", []string { "private" }, []instr.Instr {
        instr.Number(1),
        instr.Return(instr.I4),
    }, o)
    require.NoError(t, err)
    require.Equal(t, instr.OP_compound, p.Op)
    require.True(t, p.AlwaysTransfers())
    require.False(t, p.MayCollect())
    require.NotNil(t, Nested(p))
    require.Nil(t, Nested(instr.Nop()))

    /* a terminating compound ends the enclosing block */
    g := mustBuild(t, p, instr.Number(2), instr.Return(instr.I4))
    require.Equal(t, 1, g.Len())
    require.Equal(t, []instr.Instr { p }, g.Entry().Ins)
    require.False(t, g.FallsThrough())

    /* errors name the compound */
    _, err = NewCompound("f", []string { "public" }, nil, o)
    require.EqualError(t, err, "unrecognised qualifier 'public' in compound instruction f")
    _, err = NewCompound("g", nil, []instr.Instr {
        instr.TLoad(instr.I4, 1),
        instr.Return(instr.I4),
    }, o)
    require.EqualError(t, err, "uninitialized temporary 1 in compound instruction g")
}

func TestCompound_Collecting(t *testing.T) {
    p, err := NewCompound("h", nil, []instr.Instr {
        instr.Number(16),
        instr.GCMalloc(),
        instr.Drop(),
    }, opts.GetDefaultOptions())
    require.NoError(t, err)
    require.True(t, p.MayCollect())
    require.False(t, p.AlwaysTransfers())
    require.Equal(t, delta.Of(0, 0, 0), p.Sub.Delta)
}
