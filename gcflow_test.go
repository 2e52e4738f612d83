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

package gcflow

import (
    `os`
    `path/filepath`
    `testing`

    `github.com/cloudwego/gcflow/internal/instr`
    `github.com/stretchr/testify/require`
)

func allocateAndFill(size int64, ptr int64) []Instr {
    ins := []Instr {
        instr.Number(size),
        instr.GCMalloc(),
        instr.TStore(instr.R, 0),
    }
    for off := int64(0); off < size; off += ptr {
        ins = append(ins,
            instr.Number(1),
            instr.TLoad(instr.R, 0),
            instr.Number(off),
            instr.RStore(instr.R),
        )
    }
    return append(ins, instr.TLoad(instr.R, 0), instr.Return(instr.R))
}

func TestCompile(t *testing.T) {
    g, r, err := Compile(allocateAndFill(12, 4), WithPointerSize(4))
    require.NoError(t, err)
    require.Equal(t, 1, g.Len())
    require.Equal(t, 3, r.Barriers())
    require.Equal(t, 1, r.Initializations())
    require.Equal(t, instr.OP_gc_allocate_only, g.Entry().Ins[1].Op)
}

func TestCompile_PointerSize(t *testing.T) {
    _, r, err := Compile(allocateAndFill(16, 8), WithPointerSize(8))
    require.NoError(t, err)
    require.Equal(t, 1, r.Initializations())

    /* the same stores only cover every other word */
    g, r, err := Compile(allocateAndFill(16, 8), WithPointerSize(4))
    require.NoError(t, err)
    require.Zero(t, r.Initializations())
    require.Equal(t, instr.OP_gc_malloc, g.Entry().Ins[1].Op)
}

func TestCompile_PassSwitches(t *testing.T) {
    _, r, err := Compile(allocateAndFill(12, 4),
        WithPointerSize(4),
        WithWriteBarrierElision(false),
        WithInitMarkerFusion(false),
        WithFixedInitElision(false),
    )
    require.NoError(t, err)
    require.Empty(t, r.Sites)
}

func TestAnalyze_Errors(t *testing.T) {
    _, err := Analyze([]Instr { instr.Hop(3) })
    require.True(t, IsKind(err, DanglingTarget))
    _, err = Analyze([]Instr { instr.TLoad(instr.I4, 5), instr.Return(instr.I4) })
    require.True(t, IsKind(err, UninitializedTemp))
    require.Equal(t, 5, err.(*FlowError).Temp)
}

func TestAnalyze_IterationLimit(t *testing.T) {
    loop := []Instr {
        instr.Number(0),
        instr.TStore(instr.I4, 0),
        instr.Target(1),
        instr.TLoad(instr.I4, 0),
        instr.Branch(2, true),
        instr.TLoad(instr.I4, 0),
        instr.Number(1),
        instr.Op("add", 2, 1),
        instr.TStore(instr.I4, 0),
        instr.Hop(1),
        instr.Target(2),
        instr.TLoad(instr.I4, 0),
        instr.Return(instr.I4),
    }
    require.NotPanics(t, func() {
        _, err := Analyze(loop, WithMaxIterations(2))
        require.True(t, IsKind(err, IterationLimit), "unexpected error: %v", err)
    })
    g, err := Analyze(loop, WithMaxIterations(3))
    require.NoError(t, err)
    require.Len(t, g.Dominators().DominatedBy, g.Len())
}

func TestOptions_Invalid(t *testing.T) {
    require.Panics(t, func() { WithPointerSize(3) })
    require.Panics(t, func() { WithMaxIterations(-1) })
    require.Panics(t, func() { WithTable("GC_MALLOC", "NOP", "RSTORE", "RSTORE_SIMPLE") })
    require.NotPanics(t, func() { WithTable("GC_MALLOC", "GC_ALLOCATE_ONLY", "PSTORE", "PSTORE") })
}

func TestOptions_Table(t *testing.T) {
    _, r, err := Compile(allocateAndFill(12, 4),
        WithPointerSize(4),
        WithTable("GC_MALLOC", "GC_ALLOCATE_ONLY", "PSTORE", "PSTORE"),
    )
    require.NoError(t, err)
    require.Zero(t, r.Barriers())
    require.Zero(t, r.Initializations())
}

func TestLoadConfig(t *testing.T) {
    fn := filepath.Join(t.TempDir(), "gcflow.toml")
    require.NoError(t, os.WriteFile(fn, []byte("[platform]\npointer_size = 4\n[optimizer]\nwrite_barriers = false\n"), 0644))
    cfg, err := LoadConfig(fn)
    require.NoError(t, err)
    _, r, err := Compile(allocateAndFill(12, 4), cfg)
    require.NoError(t, err)
    require.Zero(t, r.Barriers())
    require.Equal(t, 1, r.Initializations())

    /* a table the optimizer cannot use */
    require.NoError(t, os.WriteFile(fn, []byte("[platform]\nallocate_only = \"NOP\"\n"), 0644))
    _, err = LoadConfig(fn)
    require.Error(t, err)
}

func TestSetPointerSize(t *testing.T) {
    old := SetPointerSize(4)
    defer SetPointerSize(old)
    g, err := Analyze(allocateAndFill(12, 4))
    require.NoError(t, err)
    require.Equal(t, 4, g.PointerSize())
}
