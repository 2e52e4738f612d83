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
    `fmt`
    `sort`
    `strings`
)

type (
    TempSet map[int]struct{}
)

func NewTempSet(tv ...int) TempSet {
    rs := make(TempSet, len(tv))
    for _, v := range tv {
        rs.add(v)
    }
    return rs
}

func (self TempSet) add(r int) bool {
    if _, ok := self[r]; ok {
        return false
    } else {
        self[r] = struct{}{}
        return true
    }
}

func (self TempSet) clone() (rs TempSet) {
    rs = make(TempSet, len(self))
    for r := range self {
        rs.add(r)
    }
    return
}

func (self TempSet) remove(r int) bool {
    if _, ok := self[r]; !ok {
        return false
    } else {
        delete(self, r)
        return true
    }
}

// addAll merges other into the set, and reports whether the set grew.
func (self TempSet) addAll(other TempSet) (grew bool) {
    for r := range other {
        if self.add(r) {
            grew = true
        }
    }
    return
}

func (self TempSet) Contains(r int) bool {
    _, ok := self[r]
    return ok
}

func (self TempSet) Intersect(other TempSet) (rs TempSet) {
    rs = make(TempSet)
    for r := range self {
        if other.Contains(r) {
            rs.add(r)
        }
    }
    return
}

func (self TempSet) Equal(other TempSet) bool {
    if len(self) != len(other) {
        return false
    }
    for r := range self {
        if !other.Contains(r) {
            return false
        }
    }
    return true
}

// IsSubsetOf reports whether every member of the set is also in other.
func (self TempSet) IsSubsetOf(other TempSet) bool {
    for r := range self {
        if !other.Contains(r) {
            return false
        }
    }
    return true
}

func (self TempSet) Sorted() []int {
    rr := make([]int, 0, len(self))
    for r := range self {
        rr = append(rr, r)
    }
    sort.Ints(rr)
    return rr
}

func (self TempSet) String() string {
    rr := self.Sorted()
    rs := make([]string, 0, len(rr))

    /* convert every temporary */
    for _, r := range rr {
        rs = append(rs, fmt.Sprintf("t%d", r))
    }

    /* join them together */
    return fmt.Sprintf(
        "{%s}",
        strings.Join(rs, ", "),
    )
}
