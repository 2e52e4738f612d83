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

// Tracker accumulates the stack and cursor effect of a sequence of
// instructions fed to it one by one.
type Tracker struct {
    sp      int
    abs     bool
    cursor  int
    consume int
}

func (self *Tracker) clampConsume() {
    if !self.abs && -self.sp > self.consume {
        self.consume = -self.sp
    }
}

func (self *Tracker) move(n int) {
    if self.sp += n; self.abs && self.sp < 0 {
        self.sp = 0
    }
}

// Pop removes n slots from the operand stack.
func (self *Tracker) Pop(n int) {
    self.move(-n)
    self.clampConsume()
}

// Push adds n slots to the operand stack.
func (self *Tracker) Push(n int) {
    self.move(n)
}

// Fetch reads n bytes from the operand cursor.
func (self *Tracker) Fetch(n int) {
    self.cursor += n
}

// Reset makes the stack depth absolute from this point on, which happens
// whenever an instruction leaves the stack in a state that cannot be
// derived statically (dynamic-arity calls, flushes, drops).
func (self *Tracker) Reset(depth int) {
    self.sp = depth
    self.abs = true
}

// Apply folds the effect of a nested sequence into the tracker.
func (self *Tracker) Apply(d Triple) {
    self.cursor += d.Cursor

    /* nested sequence ends with an absolute depth */
    if !d.Consume.Known() {
        self.Reset(int(d.Produce))
        return
    }

    /* relative nested effect */
    self.Pop(int(d.Consume))
    self.Push(int(d.Produce))
}

func (self *Tracker) Triple() Triple {
    if self.abs {
        return Absolute(self.cursor, self.sp)
    } else {
        return Of(self.cursor, self.consume, self.sp + self.consume)
    }
}
