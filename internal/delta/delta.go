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
    `fmt`
    `strconv`
)

// Count is a non-negative stack slot count, or Unknown.
type Count int

const (
    Unknown Count = -1
)

func (self Count) Known() bool {
    return self >= 0
}

func (self Count) String() string {
    if self == Unknown {
        return "unknown"
    } else {
        return strconv.Itoa(int(self))
    }
}

// Triple describes the net effect of a straight-line instruction sequence
// on the operand cursor and the operand stack.
//
// Consume is the number of slots taken from the stack below the sequence's
// starting depth, Produce is the number of slots left on top of the stack
// after Consume slots were removed. When Consume is Unknown, the stack depth
// at the end of the sequence is absolute and Produce holds that depth.
type Triple struct {
    Cursor  int
    Consume Count
    Produce Count
}

var Zero = Triple{}

func Of(cursor int, consume int, produce int) Triple {
    return Triple {
        Cursor  : cursor,
        Consume : Count(consume),
        Produce : Count(produce),
    }
}

func Absolute(cursor int, produce int) Triple {
    return Triple {
        Cursor  : cursor,
        Consume : Unknown,
        Produce : Count(produce),
    }
}

func (self Triple) IsAbsolute() bool {
    return self.Consume == Unknown
}

func (self Triple) String() string {
    return fmt.Sprintf("(%d, %s, %s)", self.Cursor, self.Consume, self.Produce)
}

// CursorMismatch is returned by Merge when two paths arrive at the same
// join point having consumed a different number of cursor bytes.
type CursorMismatch struct {
    A int
    B int
}

func (self CursorMismatch) Error() string {
    return fmt.Sprintf("differing operand-cursor offsets at join point: %d and %d", self.A, self.B)
}

func minCount(a Count, b Count) Count {
    if a < b {
        return a
    } else {
        return b
    }
}

func maxInt(a int, b int) int {
    if a > b {
        return a
    } else {
        return b
    }
}

// Merge combines the effects of two alternative paths reaching the same
// point. It is commutative and idempotent.
func Merge(a Triple, b Triple) (Triple, error) {
    if a.Cursor != b.Cursor {
        return Triple{}, CursorMismatch { A: a.Cursor, B: b.Cursor }
    }

    /* a known relative effect beats an absolute one */
    switch {
        case a.Consume.Known() && b.Consume.Known() : return Triple { a.Cursor, minCount(a.Consume, b.Consume), minCount(a.Produce, b.Produce) }, nil
        case a.Consume.Known()                      : return a, nil
        case b.Consume.Known()                      : return b, nil
        default                                     : return Triple { a.Cursor, Unknown, minCount(a.Produce, b.Produce) }, nil
    }
}

// Concat returns the effect of running a and then b.
func Concat(a Triple, b Triple) Triple {
    cursor := a.Cursor + b.Cursor

    /* b resets the stack, nothing of a survives */
    if !b.Consume.Known() {
        return Triple { cursor, Unknown, b.Produce }
    }

    /* a resets the stack, b works on top of a's absolute depth */
    if !a.Consume.Known() {
        return Triple { cursor, Unknown, Count(maxInt(int(a.Produce) - int(b.Consume), 0) + int(b.Produce)) }
    }

    /* both relative, b may dig below what a produced */
    c1, p1 := int(a.Consume), int(a.Produce)
    c2, p2 := int(b.Consume), int(b.Produce)
    consume := c1 + maxInt(c2 - p1, 0)
    return Triple { cursor, Count(consume), Count(consume + (p1 - c1) + (p2 - c2)) }
}
