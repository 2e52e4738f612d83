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
    `github.com/cloudwego/gcflow/internal/opts`
    `github.com/tliron/commonlog`
)

var logger = commonlog.GetLogger("gcflow.gcopt")

type Pass interface {
    Apply(*Routine)
}

type PassDescriptor struct {
    Pass    Pass
    Name    string
    Enabled func(opts.Optimizer) bool
}

var Passes = [...]PassDescriptor {
    { Name: "SSA Constant Detection"       , Pass: new(ConstDetect) },
    { Name: "Equivalence Classes"          , Pass: new(Equivalence) },
    { Name: "Write Barrier Elision"        , Pass: new(BarrierElim) , Enabled: func(o opts.Optimizer) bool { return o.WriteBarriers } },
    { Name: "Initialization Marker Fusion" , Pass: new(MarkerFusion), Enabled: func(o opts.Optimizer) bool { return o.InitMarkers } },
    { Name: "Fixed Initialization Elision" , Pass: new(FixedInit)   , Enabled: func(o opts.Optimizer) bool { return o.FixedInitialization } },
}

// Optimize removes redundant write barriers and zero-initializations from
// g, rewriting its instructions in place with variants taken from tab. It
// never fails: whatever cannot be proven safe is left untouched.
func Optimize(g *flow.FlowGraph, tab instr.Table, o opts.Optimizer) *Report {
    r := newRoutine(g, tab)

    /* a table with mismatched variants cannot be used at all */
    if _, err := instr.NewTable(tab.Allocate, tab.AllocateOnly, tab.CheckedStore, tab.UncheckedStore); err != nil {
        logger.Errorf("optimizer disabled: %s", err)
        return r.Report
    }

    /* run every enabled pass */
    for _, p := range Passes {
        if p.Enabled != nil && !p.Enabled(o) {
            logger.Debugf("pass %q is disabled", p.Name)
        } else {
            p.Pass.Apply(r)
        }
    }

    /* summary */
    logger.Infof(
        "%d write barriers and %d zero-initializations removed",
        r.Report.Barriers(),
        r.Report.Initializations(),
    )
    return r.Report
}
