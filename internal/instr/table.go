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

package instr

import (
    `fmt`

    `github.com/cloudwego/gcflow/internal/utils`
)

// Table lists the platform variants the GC optimizer is allowed to swap.
// Each replacement must have exactly the same stack shape as the instruction
// it replaces, so facts cached on a flow graph survive the substitution.
type Table struct {
    Allocate       Instr
    AllocateOnly   Instr
    CheckedStore   Instr
    UncheckedStore Instr
}

func DefaultTable() Table {
    return Table {
        Allocate       : GCMalloc(),
        AllocateOnly   : GCAllocateOnly(),
        CheckedStore   : RStore(R),
        UncheckedStore : RStoreSimple(R),
    }
}

func sameShape(a Instr, b Instr) bool {
    return a.In == b.In && a.Out == b.Out && a.Nb == b.Nb
}

// NewTable validates a replacement table.
func NewTable(alloc Instr, allocOnly Instr, checked Instr, unchecked Instr) (Table, error) {
    tab := Table {
        Allocate       : alloc,
        AllocateOnly   : allocOnly,
        CheckedStore   : checked,
        UncheckedStore : unchecked,
    }

    /* check every pair */
    if !sameShape(alloc, allocOnly) {
        return Table{}, utils.EMalformed(fmt.Sprintf("%s and %s differ in arity", alloc, allocOnly))
    } else if !sameShape(checked, unchecked) {
        return Table{}, utils.EMalformed(fmt.Sprintf("%s and %s differ in arity", checked, unchecked))
    } else if alloc.MayCollect() != allocOnly.MayCollect() {
        return Table{}, utils.EMalformed(fmt.Sprintf("%s and %s differ in collection behavior", alloc, allocOnly))
    } else if checked.MayCollect() != unchecked.MayCollect() {
        return Table{}, utils.EMalformed(fmt.Sprintf("%s and %s differ in collection behavior", checked, unchecked))
    } else {
        return tab, nil
    }
}

// IsCheckedStore reports whether p is the barriered store of this table.
func (self Table) IsCheckedStore(p Instr) bool {
    return p.Op == self.CheckedStore.Op && p.Ty == self.CheckedStore.Ty
}

func (self Table) IsAllocate(p Instr) bool {
    return p.Op == self.Allocate.Op
}

// IsFieldStore reports whether p writes a field of an object at an offset
// given on the stack, with or without a barrier.
func (self Table) IsFieldStore(p Instr) bool {
    return p.Op == self.CheckedStore.Op || p.Op == self.UncheckedStore.Op
}

// Mnemonic returns the default form of the instruction with the given name.
// Field and pointer accesses are taken to be of reference type.
func Mnemonic(name string) (Instr, error) {
    for op := OP_nop; op < _OP_max; op++ {
        if _OpTab[op].name != name {
            continue
        }

        /* some instructions cannot be built from a name alone */
        p := newInstr(op)
        switch op {
            case OP_op, OP_compound, OP_branch, OP_hop, OP_target, OP_tload, OP_tstore: {
                return Instr{}, utils.EMalformed(fmt.Sprintf("%s needs operands", name))
            }
            case OP_rload, OP_rstore, OP_rstore_simple, OP_pload, OP_pstore: {
                p.Ty = R
            }
        }
        return p, nil
    }
    return Instr{}, utils.EMalformed(fmt.Sprintf("unknown instruction %q", name))
}

// TableOf builds a replacement table from instruction mnemonics.
func TableOf(alloc string, allocOnly string, checked string, unchecked string) (Table, error) {
    var err error
    var ins [4]Instr
    for i, name := range [4]string { alloc, allocOnly, checked, unchecked } {
        if ins[i], err = Mnemonic(name); err != nil {
            return Table{}, err
        }
    }
    return NewTable(ins[0], ins[1], ins[2], ins[3])
}
