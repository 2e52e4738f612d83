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

package utils

import (
    `errors`
    `fmt`
)

type ErrorKind uint8

const (
    K_dangling ErrorKind = iota + 1
    K_join
    K_uninit
    K_type
    K_malformed
    K_qualifier
    K_limit
)

var _KindNames = map[ErrorKind]string {
    K_dangling  : "DanglingTarget",
    K_join      : "JoinInconsistency",
    K_uninit    : "UninitializedTemp",
    K_type      : "TypeConflict",
    K_malformed : "Malformed",
    K_qualifier : "IllegalQualifier",
    K_limit     : "IterationLimit",
}

func (self ErrorKind) String() string {
    if s, ok := _KindNames[self]; ok {
        return s
    } else {
        return fmt.Sprintf("ErrorKind(%d)", self)
    }
}

// FlowError is raised when a routine cannot be turned into a flow graph.
// Temp and Label are -1 when they do not apply.
type FlowError struct {
    Kind  ErrorKind
    Msg   string
    File  string
    Line  int
    Temp  int
    Label int
}

func (self *FlowError) Error() string {
    if self.File != "" && self.Line > 0 {
        return fmt.Sprintf("%s:%d: %s", self.File, self.Line, self.Msg)
    } else {
        return self.Msg
    }
}

// Located reports whether the error already carries a source location.
func (self *FlowError) Located() bool {
    return self.File != "" && self.Line > 0
}

// Locate attaches a source location unless the error already has one.
func (self *FlowError) Locate(file string, line int) *FlowError {
    if !self.Located() && file != "" && line > 0 {
        self.File = file
        self.Line = line
    }
    return self
}

func newError(kind ErrorKind, msg string) *FlowError {
    return &FlowError {
        Kind  : kind,
        Msg   : msg,
        Temp  : -1,
        Label : -1,
    }
}

func EDangling(label int) *FlowError {
    e := newError(K_dangling, fmt.Sprintf("BRANCH or HOP to %d has no target", label))
    e.Label = label
    return e
}

func EJoin(a int, b int) *FlowError {
    return newError(K_join, fmt.Sprintf("join inconsistency: differing operand-cursor offsets at join point: %d and %d", a, b))
}

func EUninit(temp int) *FlowError {
    e := newError(K_uninit, fmt.Sprintf("uninitialized temporary %d", temp))
    e.Temp = temp
    return e
}

func EUninitNamed(temp int, name string) *FlowError {
    e := newError(K_uninit, fmt.Sprintf("uninitialized temporary %d '%s' declared in this scope", temp, name))
    e.Temp = temp
    return e
}

func ETypeConflict(temp int, old fmt.Stringer, new fmt.Stringer) *FlowError {
    e := newError(K_type, fmt.Sprintf("reuse of temporary %d of type %s with type %s", temp, old, new))
    e.Temp = temp
    return e
}

func EMalformed(reason string) *FlowError {
    return newError(K_malformed, "malformed instruction: " + reason)
}

func EQualifier(q string) *FlowError {
    return newError(K_qualifier, fmt.Sprintf("unrecognised qualifier '%s'", q))
}

// ELimit is returned when a dataflow fixpoint needs more rounds than the
// configured iteration limit allows.
func ELimit(what string, n int) *FlowError {
    return newError(K_limit, fmt.Sprintf("%s did not converge within %d rounds", what, n))
}

// EInCompound prefixes the message of a nested error with the name of the
// compound instruction it came from. Errors of other types pass through.
func EInCompound(err error, name string) error {
    var fe *FlowError
    if !errors.As(err, &fe) {
        return err
    }
    ret := *fe
    ret.Msg = fmt.Sprintf("%s in compound instruction %s", fe.Msg, name)
    return &ret
}

// IsKind reports whether err is a FlowError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
    var fe *FlowError
    return errors.As(err, &fe) && fe.Kind == kind
}
