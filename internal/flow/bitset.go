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
    `math/bits`
)

// bitset is a fixed-size set of block indices.
type bitset []uint64

func newBitset(n int) bitset {
    return make(bitset, (n + 63) >> 6)
}

func fullBitset(n int) bitset {
    s := newBitset(n)
    for i := 0; i < n; i++ {
        s.set(i)
    }
    return s
}

func (s bitset) set(i int) {
    x, y := i >> 6, i & 63 // i/64, i%64
    s[x] |= 1 << y
}

func (s bitset) clear(i int) {
    x, y := i >> 6, i & 63 // i/64, i%64
    s[x] &^= 1 << y
}

func (s bitset) test(i int) bool {
    x, y := i >> 6, i & 63 // i/64, i%64
    return (s[x] & (1 << y)) != 0
}

func (s bitset) clone() bitset {
    r := make(bitset, len(s))
    copy(r, s)
    return r
}

func (s bitset) and(o bitset) {
    for i := range s {
        s[i] &= o[i]
    }
}

func (s bitset) andNot(o bitset) {
    for i := range s {
        s[i] &^= o[i]
    }
}

func (s bitset) equal(o bitset) bool {
    for i := range s {
        if s[i] != o[i] {
            return false
        }
    }
    return true
}

func (s bitset) count() (n int) {
    for _, w := range s {
        n += bits.OnesCount64(w)
    }
    return
}

func (s bitset) members() []int {
    ret := make([]int, 0, s.count())
    for x, w := range s {
        for w != 0 {
            y := bits.TrailingZeros64(w)
            ret = append(ret, x << 6 | y)
            w &= w - 1
        }
    }
    return ret
}
