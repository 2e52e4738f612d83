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

package delta

import (
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/stretchr/testify/require`
)

func randomTriple(f *gofakeit.Faker, cursor int) Triple {
    if f.Number(0, 4) == 0 {
        return Absolute(cursor, f.Number(0, 6))
    } else {
        return Of(cursor, f.Number(0, 6), f.Number(0, 6))
    }
}

func TestDelta_MergeCommutativeIdempotent(t *testing.T) {
    f := gofakeit.New(20221001)
    for i := 0; i < 500; i++ {
        c := f.Number(0, 3)
        a := randomTriple(f, c)
        b := randomTriple(f, c)
        ab, err := Merge(a, b)
        require.NoError(t, err)
        ba, err := Merge(b, a)
        require.NoError(t, err)
        require.Equal(t, ab, ba, "%s vs %s", a, b)
        aa, err := Merge(a, a)
        require.NoError(t, err)
        require.Equal(t, a, aa)
    }
}

func TestDelta_MergeCursorMismatch(t *testing.T) {
    f := gofakeit.New(7)
    for i := 0; i < 100; i++ {
        c := f.Number(0, 5)
        _, err := Merge(randomTriple(f, c), randomTriple(f, c + 1 + f.Number(0, 3)))
        require.Error(t, err)
        require.IsType(t, CursorMismatch{}, err)
    }
    _, err := Merge(Of(2, 0, 0), Of(3, 0, 0))
    require.EqualError(t, err, "differing operand-cursor offsets at join point: 2 and 3")
}

func TestDelta_MergeAbsolute(t *testing.T) {
    d, err := Merge(Of(1, 2, 3), Absolute(1, 5))
    require.NoError(t, err)
    require.Equal(t, Of(1, 2, 3), d)
    d, err = Merge(Absolute(0, 5), Absolute(0, 2))
    require.NoError(t, err)
    require.Equal(t, Absolute(0, 2), d)
}

func TestDelta_Concat(t *testing.T) {
    /* pop one, then pop another */
    require.Equal(t, Of(0, 2, 0), Concat(Of(0, 1, 0), Of(0, 1, 0)))

    /* push two, consume one of them */
    require.Equal(t, Of(0, 0, 1), Concat(Of(0, 0, 2), Of(0, 1, 0)))

    /* cursors add up */
    require.Equal(t, Of(5, 1, 2), Concat(Of(2, 1, 1), Of(3, 1, 2)))

    /* absolute on the right wins */
    require.Equal(t, Absolute(1, 4), Concat(Of(1, 3, 0), Absolute(0, 4)))

    /* absolute on the left stays absolute */
    require.Equal(t, Absolute(0, 3), Concat(Absolute(0, 2), Of(0, 1, 2)))
    require.Equal(t, Absolute(0, 1), Concat(Absolute(0, 0), Of(0, 2, 1)))
}

func TestDelta_ConcatMatchesTracker(t *testing.T) {
    f := gofakeit.New(42)
    for i := 0; i < 300; i++ {
        var all Tracker
        var lhs Tracker
        var rhs Tracker
        na := f.Number(0, 6)
        nb := f.Number(0, 6)
        step := func(tr ...*Tracker) {
            n := f.Number(0, 2)
            if f.Bool() {
                for _, v := range tr { v.Pop(n) }
            } else {
                for _, v := range tr { v.Push(n) }
            }
        }
        for j := 0; j < na; j++ { step(&all, &lhs) }
        for j := 0; j < nb; j++ { step(&all, &rhs) }
        require.Equal(t, all.Triple(), Concat(lhs.Triple(), rhs.Triple()))
    }
}

func TestTracker_Sequence(t *testing.T) {
    var tr Tracker
    tr.Fetch(2)
    tr.Pop(2)
    tr.Push(1)
    require.Equal(t, Of(2, 2, 1), tr.Triple())
    tr.Reset(0)
    tr.Push(1)
    require.Equal(t, Absolute(2, 1), tr.Triple())
    tr.Pop(3)
    require.Equal(t, Absolute(2, 0), tr.Triple())
}

func TestTracker_ApplyNested(t *testing.T) {
    var tr Tracker
    tr.Push(1)
    tr.Apply(Of(1, 2, 1))
    require.Equal(t, Of(1, 1, 1), tr.Triple())
    tr.Apply(Absolute(3, 2))
    require.Equal(t, Absolute(4, 2), tr.Triple())
}
