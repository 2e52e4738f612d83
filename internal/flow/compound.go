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
    `github.com/cloudwego/gcflow/internal/opts`
    `github.com/cloudwego/gcflow/internal/utils`
)

// NewCompound analyzes a nested routine and wraps it into a single
// instruction of the enclosing routine. Errors from the nested routine are
// tagged with its name.
func NewCompound(name string, qualifiers []string, ins []instr.Instr, o opts.Options) (instr.Instr, error) {
    if err := instr.CheckQualifiers(qualifiers); err != nil {
        return instr.Instr{}, utils.EInCompound(err, name)
    }

    /* build the nested graph */
    g, err := Build(ins, o)
    if err != nil {
        return instr.Instr{}, utils.EInCompound(err, name)
    }

    /* summarize it for the enclosing routine */
    return instr.Compound(&instr.Summary {
        Name       : name,
        Qualifiers : qualifiers,
        Delta      : g.Delta,
        Collects   : g.MayCollect(),
        Terminates : !g.FallsThrough(),
        Body       : g,
    }), nil
}

// Nested returns the flow graph of a compound instruction built by
// NewCompound, or nil.
func Nested(p instr.Instr) *FlowGraph {
    if p.Op != instr.OP_compound || p.Sub == nil {
        return nil
    }
    g, _ := p.Sub.Body.(*FlowGraph)
    return g
}
