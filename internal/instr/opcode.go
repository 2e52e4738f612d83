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
)

type OpCode byte

const (
    OP_nop OpCode = iota    // no operation
    OP_comment              // free text, Sv
    OP_file                 // source file name, Sv
    OP_line                 // source line number, Iv
    OP_name                 // temporary Tv is called Sv in the source
    OP_number               // Iv -> push
    OP_fetch                // cursor[Nb] -> push
    OP_tload                // temp[Tv] -> push
    OP_tstore               // pop -> temp[Tv]
    OP_rload                // pop obj, off -> push *(obj + off)
    OP_rstore               // pop val, obj, off -> *(obj + off), write barrier for references
    OP_rstore_simple        // pop val, obj, off -> *(obj + off), no write barrier
    OP_pload                // pop ptr -> push *ptr
    OP_pstore               // pop val, ptr -> *ptr
    OP_op                   // generic arithmetic, In -> Out
    OP_gc_malloc            // pop size -> push zeroed object
    OP_gc_allocate_only     // pop size -> push uninitialized object
    OP_fully_initialized    // pop obj, marks all fields as written
    OP_branch               // pop cond, if cond == Sense goto Lb
    OP_hop                  // goto Lb
    OP_target               // Lb:
    OP_return               // pop In -> return
    OP_jump                 // pop addr, computed jump
    OP_far_jump             // pop addr, leaves the routine
    OP_call                 // interpreted call, stack becomes dynamic
    OP_n_call               // native call
    OP_v_call               // variadic native call
    OP_n_call_no_gc         // native call that never collects
    OP_native_arg           // pop -> native argument register
    OP_alloca               // pop count -> push stack memory
    OP_pick                 // push stack[Iv]
    OP_stack                // push the stack pointer
    OP_flush                // spill the virtual stack
    OP_insert               // insert Iv slots into the stack
    OP_gc_safe              // safe point, may collect
    OP_gc_safe_call         // call from a safe point
    OP_drop                 // pop and discard
    OP_drop_n               // discard a dynamic number of slots
    OP_compound             // nested routine, see Sub
    _OP_max
)

const (
    _F_collect  = 1 << iota     // may trigger a collection
    _F_transfer                 // always transfers control, never falls through
    _F_complex                  // operands cannot be treated as pure subexpressions
    _F_reset                    // leaves the stack depth absolute
    _F_meta                     // carries no semantics, only debug information
)

type _OpInfo struct {
    name  string
    in    int
    out   int
    nb    int
    flags int
}

var _OpTab = [_OP_max]_OpInfo {
    OP_nop               : { "NOP"               , 0, 0, 0, _F_meta },
    OP_comment           : { "COMMENT"           , 0, 0, 0, _F_meta },
    OP_file              : { "FILE"              , 0, 0, 0, _F_meta },
    OP_line              : { "LINE"              , 0, 0, 0, _F_meta },
    OP_name              : { "NAME"              , 0, 0, 0, _F_meta },
    OP_number            : { "NUMBER"            , 0, 1, 0, 0 },
    OP_fetch             : { "FETCH"             , 0, 1, 1, 0 },
    OP_tload             : { "TLOAD"             , 0, 1, 0, 0 },
    OP_tstore            : { "TSTORE"            , 1, 0, 0, 0 },
    OP_rload             : { "RLOAD"             , 2, 1, 0, 0 },
    OP_rstore            : { "RSTORE"            , 3, 0, 0, 0 },
    OP_rstore_simple     : { "RSTORE_SIMPLE"     , 3, 0, 0, 0 },
    OP_pload             : { "PLOAD"             , 1, 1, 0, 0 },
    OP_pstore            : { "PSTORE"            , 2, 0, 0, 0 },
    OP_op                : { "OP"                , 2, 1, 0, 0 },
    OP_gc_malloc         : { "GC_MALLOC"         , 1, 1, 0, _F_collect },
    OP_gc_allocate_only  : { "GC_ALLOCATE_ONLY"  , 1, 1, 0, _F_collect },
    OP_fully_initialized : { "FULLY_INITIALIZED" , 1, 0, 0, 0 },
    OP_branch            : { "BRANCH"            , 1, 0, 0, 0 },
    OP_hop               : { "HOP"               , 0, 0, 0, _F_transfer },
    OP_target            : { "TARGET"            , 0, 0, 0, 0 },
    OP_return            : { "RETURN"            , 1, 0, 0, _F_transfer },
    OP_jump              : { "JUMP"              , 1, 0, 0, _F_transfer },
    OP_far_jump          : { "FAR_JUMP"          , 1, 0, 0, _F_transfer },
    OP_call              : { "CALL"              , 1, 0, 0, _F_collect | _F_complex | _F_reset },
    OP_n_call            : { "N_CALL"            , 0, 0, 0, _F_collect | _F_complex | _F_reset },
    OP_v_call            : { "V_CALL"            , 0, 0, 0, _F_collect | _F_complex | _F_reset },
    OP_n_call_no_gc      : { "N_CALL_NO_GC"      , 0, 0, 0, _F_complex | _F_reset },
    OP_native_arg        : { "NATIVE_ARG"        , 1, 0, 0, _F_complex },
    OP_alloca            : { "ALLOCA"            , 1, 1, 0, _F_complex },
    OP_pick              : { "PICK"              , 0, 1, 1, _F_complex },
    OP_stack             : { "STACK"             , 0, 1, 0, _F_complex },
    OP_flush             : { "FLUSH"             , 0, 0, 0, _F_complex | _F_reset },
    OP_insert            : { "INSERT"            , 0, 0, 0, _F_complex | _F_reset },
    OP_gc_safe           : { "GC_SAFE"           , 0, 0, 0, _F_collect | _F_complex },
    OP_gc_safe_call      : { "GC_SAFE_CALL"      , 1, 0, 0, _F_collect | _F_complex | _F_reset },
    OP_drop              : { "DROP"              , 1, 0, 0, _F_complex },
    OP_drop_n            : { "DROP_N"            , 1, 0, 0, _F_complex | _F_reset },
    OP_compound          : { "COMPOUND"          , 0, 0, 0, _F_complex },
}

func (self OpCode) String() string {
    if self < _OP_max {
        return _OpTab[self].name
    } else {
        return fmt.Sprintf("OpCode(%d)", self)
    }
}

func (self OpCode) has(f int) bool {
    return self < _OP_max && (_OpTab[self].flags & f) != 0
}

// IsMeta reports whether the opcode only carries debug information.
func (self OpCode) IsMeta() bool {
    return self.has(_F_meta)
}
