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
    `github.com/cloudwego/gcflow/internal/flow`
    `github.com/cloudwego/gcflow/internal/instr`
)

// _Node is an instruction together with the nodes that produced its
// operands. A nil child stands for a value coming from outside the block,
// or from an instruction that could not be matched.
type _Node struct {
    I    int
    Kids []*_Node
}

func (self *_Node) child(i int) *_Node {
    if self == nil || i >= len(self.Kids) {
        return nil
    } else {
        return self.Kids[i]
    }
}

// _Root is a tree whose value is not consumed inside the block.
type _Root struct {
    *_Node
    Collects bool       // a collection may happen after the previous root, up to and including this one
    Dropped  []*_Node   // pending values abandoned by this instruction
}

// _Forest is the sequence of expression trees of one block, in execution
// order. It only pairs producers with consumers, nothing is rewritten
// through it.
type _Forest struct {
    bb    *flow.BasicBlock
    Roots []_Root
    Tail  bool
}

func (self *_Forest) add(node *_Node, gc bool, dropped []*_Node) {
    self.Roots = append(self.Roots, _Root {
        _Node    : node,
        Collects : gc,
        Dropped  : dropped,
    })
}

// at returns the current instruction of a node, if there is one.
func (self *_Forest) at(n *_Node) (instr.Instr, bool) {
    if n == nil {
        return instr.Instr{}, false
    } else {
        return self.bb.Ins[n.I], true
    }
}

func (self *_Forest) is(n *_Node, op instr.OpCode) bool {
    p, ok := self.at(n)
    return ok && p.Op == op
}

// walk visits every node of the tree rooted at n.
func walk(n *_Node, fn func(*_Node)) {
    if n != nil {
        fn(n)
        for _, v := range n.Kids {
            walk(v, fn)
        }
    }
}

func buildForest(bb *flow.BasicBlock) *_Forest {
    var gc bool
    var stack []*_Node
    ret := &_Forest { bb: bb }

    /* replay the block on a stack of partial trees */
    for i, p := range bb.Ins {
        if p.IsMeta() {
            continue
        }

        /* remember every collection point since the last root */
        gc = gc || p.MayCollect()

        /* complex instructions break every pending tree */
        if p.IsComplex() {
            ret.add(&_Node { I: i }, gc, stack)
            stack, gc = nil, false
            continue
        }

        /* pop the operands, the last pushed value is the last operand */
        node := &_Node {
            I    : i,
            Kids : make([]*_Node, p.In),
        }

        /* a short stack means the value came from a previous block */
        for k := p.In - 1; k >= 0; k-- {
            if n := len(stack); n != 0 {
                node.Kids[k] = stack[n - 1]
                stack = stack[:n - 1]
            }
        }

        /* values stay on the stack, everything else becomes a root */
        switch p.Out {
            case 0: {
                ret.add(node, gc, nil)
                gc = false
            }
            case 1: {
                stack = append(stack, node)
            }
            default: {
                ret.add(node, gc, stack)
                stack, gc = nil, false
            }
        }
    }

    /* collections after the last root */
    ret.Tail = gc
    return ret
}
