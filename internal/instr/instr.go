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
    `strings`

    `github.com/cloudwego/gcflow/internal/delta`
    `github.com/cloudwego/gcflow/internal/utils`
)

// Summary describes a nested compound instruction as seen from the
// routine that contains it.
type Summary struct {
    Name       string
    Qualifiers []string
    Delta      delta.Triple
    Collects   bool
    Terminates bool
    Body       interface{}
}

// Instr is a single stack-machine instruction. Instructions are values and
// never change once built, rewriting a routine means replacing them.
type Instr struct {
    Op    OpCode
    Ty    Type
    Tv    int
    Lb    int
    Sense bool
    Iv    int64
    Sv    string
    In    int
    Out   int
    Nb    int
    Sub   *Summary
}

func newInstr(op OpCode) Instr {
    return Instr {
        Op  : op,
        In  : _OpTab[op].in,
        Out : _OpTab[op].out,
        Nb  : _OpTab[op].nb,
    }
}

func Nop()                       Instr { return newInstr(OP_nop) }
func Comment(s string)           Instr { p := newInstr(OP_comment); p.Sv = s; return p }
func File(name string)           Instr { p := newInstr(OP_file); p.Sv = name; return p }
func Line(n int)                 Instr { p := newInstr(OP_line); p.Iv = int64(n); return p }
func Name(tv int, name string)   Instr { p := newInstr(OP_name); p.Tv, p.Sv = tv, name; return p }
func Number(v int64)             Instr { p := newInstr(OP_number); p.Iv = v; return p }
func Fetch(nb int)               Instr { p := newInstr(OP_fetch); p.Nb = nb; return p }
func TLoad(ty Type, tv int)      Instr { p := newInstr(OP_tload); p.Ty, p.Tv = ty, tv; return p }
func TStore(ty Type, tv int)     Instr { p := newInstr(OP_tstore); p.Ty, p.Tv = ty, tv; return p }
func RLoad(ty Type)              Instr { p := newInstr(OP_rload); p.Ty = ty; return p }
func RStore(ty Type)             Instr { p := newInstr(OP_rstore); p.Ty = ty; return p }
func RStoreSimple(ty Type)       Instr { p := newInstr(OP_rstore_simple); p.Ty = ty; return p }
func PLoad(ty Type)              Instr { p := newInstr(OP_pload); p.Ty = ty; return p }
func PStore(ty Type)             Instr { p := newInstr(OP_pstore); p.Ty = ty; return p }
func GCMalloc()                  Instr { return newInstr(OP_gc_malloc) }
func GCAllocateOnly()            Instr { return newInstr(OP_gc_allocate_only) }
func FullyInitialized()          Instr { return newInstr(OP_fully_initialized) }
func Branch(lb int, sense bool)  Instr { p := newInstr(OP_branch); p.Lb, p.Sense = lb, sense; return p }
func Hop(lb int)                 Instr { p := newInstr(OP_hop); p.Lb = lb; return p }
func Target(lb int)              Instr { p := newInstr(OP_target); p.Lb = lb; return p }
func Jump()                      Instr { return newInstr(OP_jump) }
func FarJump()                   Instr { return newInstr(OP_far_jump) }
func Call()                      Instr { return newInstr(OP_call) }
func NCall(name string)          Instr { p := newInstr(OP_n_call); p.Sv = name; return p }
func VCall(name string)          Instr { p := newInstr(OP_v_call); p.Sv = name; return p }
func NCallNoGC(name string)      Instr { p := newInstr(OP_n_call_no_gc); p.Sv = name; return p }
func NativeArg(ty Type)          Instr { p := newInstr(OP_native_arg); p.Ty = ty; return p }
func Alloca(ty Type)             Instr { p := newInstr(OP_alloca); p.Ty = ty; return p }
func Pick()                      Instr { return newInstr(OP_pick) }
func Stack()                     Instr { return newInstr(OP_stack) }
func Flush()                     Instr { return newInstr(OP_flush) }
func Insert(depth int)           Instr { p := newInstr(OP_insert); p.Iv = int64(depth); return p }
func GCSafe()                    Instr { return newInstr(OP_gc_safe) }
func GCSafeCall()                Instr { return newInstr(OP_gc_safe_call) }
func Drop()                      Instr { return newInstr(OP_drop) }
func DropN()                     Instr { return newInstr(OP_drop_n) }

// Return pops the returned value, or nothing for void routines.
func Return(ty Type) Instr {
    p := newInstr(OP_return)
    p.Ty = ty

    /* void returns take nothing */
    if ty == V {
        p.In = 0
    }
    return p
}

// Op is a side-effect free operator with explicit arity.
func Op(name string, in int, out int) Instr {
    p := newInstr(OP_op)
    p.Sv, p.In, p.Out = name, in, out
    return p
}

// Compound wraps an already analyzed nested routine.
func Compound(sub *Summary) Instr {
    p := newInstr(OP_compound)
    p.Sv, p.Sub = sub.Name, sub
    return p
}

func (self Instr) Inputs() int         { return self.In }
func (self Instr) Outputs() int        { return self.Out }
func (self Instr) CursorOperands() int { return self.Nb }

func (self Instr) MayCollect() bool {
    if self.Op == OP_compound {
        return self.Sub != nil && self.Sub.Collects
    } else {
        return self.Op.has(_F_collect)
    }
}

func (self Instr) AlwaysTransfers() bool {
    if self.Op == OP_compound {
        return self.Sub != nil && self.Sub.Terminates
    } else {
        return self.Op.has(_F_transfer)
    }
}

func (self Instr) FallsThrough() bool {
    return !self.AlwaysTransfers()
}

// IsComplex reports whether the operands of the instruction cannot be
// matched against the instructions that produced them.
func (self Instr) IsComplex() bool {
    return self.Op.has(_F_complex)
}

func (self Instr) IsMeta() bool {
    return self.Op.IsMeta()
}

// IsTempAccess reports whether the instruction reads or writes a temporary.
func (self Instr) IsTempAccess() bool {
    return self.Op == OP_tload || self.Op == OP_tstore
}

// Apply feeds the stack and cursor effect of the instruction to a tracker.
func (self Instr) Apply(tr *delta.Tracker) {
    tr.Fetch(self.Nb)

    /* nested routines carry their own summary */
    if self.Op == OP_compound {
        if self.Sub != nil {
            tr.Apply(self.Sub.Delta)
        }
        return
    }

    /* ordinary instructions */
    tr.Pop(self.In)
    if self.Op.has(_F_reset) {
        tr.Reset(self.resetDepth())
    }
    tr.Push(self.Out)
}

func (self Instr) resetDepth() int {
    if self.Op == OP_insert && self.Iv > 0 {
        return int(self.Iv)
    } else {
        return 0
    }
}

var LegalQualifiers = [...]string {
    "protected",
    "private",
    "nocomp",
    "componly",
}

func isLegalQualifier(q string) bool {
    for _, v := range LegalQualifiers {
        if v == q {
            return true
        }
    }
    return false
}

// CheckQualifiers validates the qualifiers of a compound instruction.
func CheckQualifiers(qs []string) error {
    for _, q := range qs {
        if !isLegalQualifier(q) {
            return utils.EQualifier(q)
        }
    }
    return nil
}

// Validate checks the structural sanity of the instruction operands.
func (self Instr) Validate() error {
    switch {
        case self.Op >= _OP_max                       : return utils.EMalformed(fmt.Sprintf("invalid opcode %d", self.Op))
        case self.In < 0 || self.Out < 0              : return utils.EMalformed(fmt.Sprintf("%s has negative arity", self.Op))
        case self.Nb < 0                              : return utils.EMalformed(fmt.Sprintf("%s has negative operand count", self.Op))
        case self.IsTempAccess() && self.Tv < 0       : return utils.EMalformed(fmt.Sprintf("%s of negative temporary %d", self.Op, self.Tv))
        case self.Op == OP_name && self.Tv < 0        : return utils.EMalformed(fmt.Sprintf("NAME of negative temporary %d", self.Tv))
        case self.isLabelled() && self.Lb < 0         : return utils.EMalformed(fmt.Sprintf("%s to negative label %d", self.Op, self.Lb))
        case self.IsTempAccess() && self.Ty == V      : return utils.EMalformed(fmt.Sprintf("%s of void temporary %d", self.Op, self.Tv))
        case self.Op == OP_compound && self.Sub == nil : return utils.EMalformed("COMPOUND without body")
        case self.Op == OP_compound                   : return CheckQualifiers(self.Sub.Qualifiers)
        default                                       : return nil
    }
}

func (self Instr) isLabelled() bool {
    return self.Op == OP_branch || self.Op == OP_hop || self.Op == OP_target
}

func (self Instr) String() string {
    switch self.Op {
        case OP_comment       : return fmt.Sprintf("// %s", self.Sv)
        case OP_file          : return fmt.Sprintf("FILE %q", self.Sv)
        case OP_line          : return fmt.Sprintf("LINE %d", self.Iv)
        case OP_name          : return fmt.Sprintf("NAME %d %q", self.Tv, self.Sv)
        case OP_number        : return fmt.Sprintf("%d", self.Iv)
        case OP_fetch         : return fmt.Sprintf("FETCH #%d", self.Nb)
        case OP_tload         : return fmt.Sprintf("TLOAD_%s(%d)", self.Ty, self.Tv)
        case OP_tstore        : return fmt.Sprintf("TSTORE_%s(%d)", self.Ty, self.Tv)
        case OP_rload         : fallthrough
        case OP_rstore        : fallthrough
        case OP_rstore_simple : fallthrough
        case OP_pload         : fallthrough
        case OP_pstore        : return fmt.Sprintf("%s_%s", self.Op, self.Ty)
        case OP_op            : return fmt.Sprintf("%s/%d/%d", self.Sv, self.In, self.Out)
        case OP_branch        : return fmt.Sprintf("BRANCH_%s(%d)", strings.ToUpper(fmt.Sprint(self.Sense))[:1], self.Lb)
        case OP_hop           : return fmt.Sprintf("HOP(%d)", self.Lb)
        case OP_target        : return fmt.Sprintf("TARGET(%d)", self.Lb)
        case OP_insert        : return fmt.Sprintf("INSERT(%d)", self.Iv)
        case OP_n_call        : fallthrough
        case OP_v_call        : fallthrough
        case OP_n_call_no_gc  : return fmt.Sprintf("%s(%s)", self.Op, self.Sv)
        case OP_compound      : return fmt.Sprintf("COMPOUND %s", self.Sv)
        default               : return self.Op.String()
    }
}
