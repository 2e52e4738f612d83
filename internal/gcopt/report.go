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
    `fmt`
    `strings`

    `github.com/cloudwego/gcflow/internal/flow`
    `github.com/cloudwego/gcflow/internal/instr`
)

type Kind uint8

const (
    BarrierFresh Kind = iota    // the target object is fresh or already barriered
    BarrierNull                 // the stored value is a null reference
    InitMarker                  // the allocation reaches its FULLY_INITIALIZED marker
    InitCovered                 // every word of the allocation is stored explicitly
)

var _KindNames = [...]string {
    BarrierFresh : "fresh-barrier",
    BarrierNull  : "null-barrier",
    InitMarker   : "init-marker",
    InitCovered  : "init-covered",
}

func (self Kind) String() string {
    if int(self) < len(_KindNames) {
        return _KindNames[self]
    } else {
        return fmt.Sprintf("Kind(%d)", self)
    }
}

// Site is one substitution made by the optimizer.
type Site struct {
    Kind Kind
    Pos  flow.Pos
    Old  instr.Instr
    New  instr.Instr
}

func (self Site) String() string {
    return fmt.Sprintf("%s: %s -> %s (%s)", self.Pos, self.Old, self.New, self.Kind)
}

// Report lists the substitutions in the order they were made.
type Report struct {
    Sites []Site
}

func (self *Report) add(kind Kind, pos flow.Pos, old instr.Instr, ins instr.Instr) {
    self.Sites = append(self.Sites, Site {
        Kind : kind,
        Pos  : pos,
        Old  : old,
        New  : ins,
    })
}

// Count returns the number of substitutions of the given kind.
func (self *Report) Count(kind Kind) int {
    ret := 0
    for _, v := range self.Sites {
        if v.Kind == kind {
            ret++
        }
    }
    return ret
}

// Has reports whether the instruction at p was replaced for the given reason.
func (self *Report) Has(kind Kind, p flow.Pos) bool {
    for _, v := range self.Sites {
        if v.Kind == kind && v.Pos == p {
            return true
        }
    }
    return false
}

func (self *Report) Barriers() int {
    return self.Count(BarrierFresh) + self.Count(BarrierNull)
}

func (self *Report) Initializations() int {
    return self.Count(InitMarker) + self.Count(InitCovered)
}

func (self *Report) String() string {
    sb := strings.Builder{}
    for _, v := range self.Sites {
        sb.WriteString(v.String())
        sb.WriteByte('\n')
    }
    return sb.String()
}
