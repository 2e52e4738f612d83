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

type Type uint8

const (
    V Type = iota   // void
    I1
    I2
    I4
    I8
    U1
    U2
    U4
    U8
    F4
    F8
    P               // untraced pointer
    R               // traced reference
)

var _TypeNames = [...]string {
    V  : "void",
    I1 : "int8",
    I2 : "int16",
    I4 : "int32",
    I8 : "int64",
    U1 : "uint8",
    U2 : "uint16",
    U4 : "uint32",
    U8 : "uint64",
    F4 : "float32",
    F8 : "float64",
    P  : "pointer",
    R  : "reference",
}

func (self Type) String() string {
    if int(self) < len(_TypeNames) {
        return _TypeNames[self]
    } else {
        return fmt.Sprintf("Type(%d)", self)
    }
}

func (self Type) IsInt() bool {
    return self >= I1 && self <= U8
}

// Size returns the storage size of the type in bytes on a platform with the
// given pointer size.
func (self Type) Size(ptr int) int {
    switch self {
        case V      : return 0
        case I1, U1 : return 1
        case I2, U2 : return 2
        case I4, U4 : return 4
        case I8, U8 : return 8
        case F4     : return 4
        case F8     : return 8
        case P, R   : return ptr
        default     : panic(fmt.Sprintf("invalid type: %d", self))
    }
}

// Compatible reports whether a temporary declared as a may be reused with b.
// Integers are interchangeable as long as they sit on the same side of the
// native word size, everything else must match exactly.
func Compatible(a Type, b Type, ptr int) bool {
    if a.IsInt() && b.IsInt() {
        return (a.Size(ptr) <= ptr) == (b.Size(ptr) <= ptr)
    } else {
        return a == b
    }
}
