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

// Package gcflow builds control-flow graphs for stack-machine routines,
// computes the dataflow facts a code generator needs from them, and removes
// redundant write barriers and zero-initializations.
package gcflow

import (
    `github.com/cloudwego/gcflow/internal/flow`
    `github.com/cloudwego/gcflow/internal/gcopt`
    `github.com/cloudwego/gcflow/internal/instr`
    `github.com/cloudwego/gcflow/internal/opts`
)

type (
    Instr     = instr.Instr
    Table     = instr.Table
    FlowGraph = flow.FlowGraph
    Report    = gcopt.Report
)

func makeOptions(options []Option) opts.Options {
    ret := opts.GetDefaultOptions()
    for _, fn := range options {
        fn(&ret)
    }
    return ret
}

// TableOf returns the replacement table named by the options.
func TableOf(o opts.Options) (Table, error) {
    return instr.TableOf(
        o.Platform.Allocate,
        o.Platform.AllocateOnly,
        o.Platform.CheckedStore,
        o.Platform.UncheckedStore,
    )
}

// Analyze builds the flow graph of one routine. Every other fact about the
// routine is computed on demand from the returned graph.
func Analyze(ins []Instr, options ...Option) (*FlowGraph, error) {
    return flow.Build(ins, makeOptions(options))
}

// Optimize rewrites the instructions of g in place. The only possible error
// is a replacement table that cannot be used, the optimizer itself only ever
// declines to rewrite what it cannot prove safe.
func Optimize(g *FlowGraph, options ...Option) (*Report, error) {
    o := makeOptions(options)
    tab, err := TableOf(o)
    if err != nil {
        return nil, err
    }
    return gcopt.Optimize(g, tab, o.Optimizer), nil
}

// Compile analyzes and then optimizes one routine.
func Compile(ins []Instr, options ...Option) (*FlowGraph, *Report, error) {
    g, err := Analyze(ins, options...)
    if err != nil {
        return nil, nil, err
    }
    r, err := Optimize(g, options...)
    if err != nil {
        return nil, nil, err
    }
    return g, r, nil
}
