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

    `github.com/cloudwego/gcflow/internal/instr`
    `github.com/cloudwego/gcflow/internal/opts`
    `github.com/cloudwego/gcflow/internal/utils`
    `github.com/oleiade/lane`
)

type _Loc struct {
    file string
    line int
}

type _NameDecl struct {
    name string
    loc  _Loc
}

type _Node struct {
    id   int
    ins  []instr.Instr
    succ []*_Node
    pred []*_Node
    fall *_Node
    exit bool
    live bool
    gone bool
    head _Loc
    tail _Loc
}

func indexOf(buf []*_Node, p *_Node) int {
    for i, v := range buf {
        if v == p {
            return i
        }
    }
    return -1
}

func appendNode(buf []*_Node, p *_Node) []*_Node {
    if indexOf(buf, p) >= 0 {
        return buf
    } else {
        return append(buf, p)
    }
}

func removeNode(buf []*_Node, p *_Node) []*_Node {
    if i := indexOf(buf, p); i < 0 {
        return buf
    } else {
        return append(buf[:i], buf[i + 1:]...)
    }
}

func (self *_Node) link(to *_Node) {
    self.succ = appendNode(self.succ, to)
    to.pred = appendNode(to.pred, self)
}

func (self *_Node) last() (instr.Instr, bool) {
    if n := len(self.ins); n == 0 {
        return instr.Instr{}, false
    } else {
        return self.ins[n - 1], true
    }
}

func (self *_Node) endsWith(op instr.OpCode) bool {
    p, ok := self.last()
    return ok && p.Op == op
}

// Builder turns flat instruction sequences into flow graphs. It owns the
// block id allocator, so ids are unique across every graph it builds.
type Builder struct {
    opts   opts.Options
    ids    int
    loc    _Loc
    nodes  []*_Node
    labels map[int]*_Node
    target map[int]bool
    refs   map[int]_Loc
    order  []int
    types  map[int]instr.Type
    names  map[int]_NameDecl
    uses   map[int]_Loc
}

func NewBuilder(o opts.Options) *Builder {
    return &Builder { opts: o }
}

func (self *Builder) reset() {
    self.loc    = _Loc{}
    self.nodes  = nil
    self.order  = nil
    self.labels = make(map[int]*_Node)
    self.target = make(map[int]bool)
    self.refs   = make(map[int]_Loc)
    self.types  = make(map[int]instr.Type)
    self.names  = make(map[int]_NameDecl)
    self.uses   = make(map[int]_Loc)
}

func (self *Builder) node() *_Node {
    self.ids++
    return &_Node { id: self.ids, head: self.loc, tail: self.loc }
}

func (self *Builder) forLabel(lb int) *_Node {
    if p, ok := self.labels[lb]; ok {
        return p
    } else {
        p = self.node()
        self.labels[lb] = p
        return p
    }
}

func (self *Builder) reference(lb int) {
    if _, ok := self.refs[lb]; !ok {
        self.refs[lb] = self.loc
        self.order = append(self.order, lb)
    }
}

func (self *Builder) locate(err error, loc _Loc) error {
    if fe, ok := err.(*utils.FlowError); ok {
        return fe.Locate(loc.file, loc.line)
    } else {
        return err
    }
}

func (self *Builder) declare(p instr.Instr) error {
    old, ok := self.types[p.Tv]

    /* first declaration */
    if !ok {
        self.types[p.Tv] = p.Ty
        return nil
    }

    /* re-declaration must be compatible */
    if !instr.Compatible(old, p.Ty, self.opts.Platform.PointerSize) {
        return self.locate(utils.ETypeConflict(p.Tv, old, p.Ty), self.loc)
    } else {
        return nil
    }
}

// Build constructs the flow graph of one routine.
func (self *Builder) Build(ins []instr.Instr) (*FlowGraph, error) {
    var err error
    self.reset()

    /* labels that only hop elsewhere are short-circuited first */
    ins = threadHops(ins)

    /* split into blocks */
    if err = self.scan(ins); err != nil {
        return nil, err
    }

    /* every label must be defined */
    for _, lb := range self.order {
        if !self.target[lb] {
            return nil, self.locate(utils.EDangling(lb), self.refs[lb])
        }
    }

    /* clean up the block list */
    self.removeDeadNodes()
    self.elideHopBlocks()
    self.removeRedundantNodes()

    /* build the final graph */
    g := self.finalize()
    logger.Debugf("built %d blocks and %d edge sets from %d instructions", len(g.Blocks), len(g.EdgeSets), len(ins))

    /* derived facts that may fail */
    if err = g.computeDeltas(); err != nil {
        return nil, err
    }
    if err = g.computeLiveness(); err != nil {
        return nil, self.uninitialized(g, err)
    }
    if err = g.computeDominators(); err != nil {
        return nil, err
    }
    return g, nil
}

func (self *Builder) scan(ins []instr.Instr) error {
    cur := self.node()
    self.nodes = append(self.nodes, cur)

    /* scan every instruction */
    for _, p := range ins {
        if err := p.Validate(); err != nil {
            return self.locate(err, self.loc)
        }

        /* track the source location */
        switch p.Op {
            case instr.OP_file : self.loc = _Loc { file: p.Sv }
            case instr.OP_line : self.loc.line = int(p.Iv)
            case instr.OP_name : self.names[p.Tv] = _NameDecl { name: p.Sv, loc: self.loc }
        }

        /* temporaries keep their declared type */
        if p.IsTempAccess() {
            if err := self.declare(p); err != nil {
                return err
            }
            if _, ok := self.uses[p.Tv]; !ok && p.Op == instr.OP_tload {
                self.uses[p.Tv] = self.loc
            }
        }

        /* control flow shapes the blocks */
        switch p.Op {
            case instr.OP_target: {
                if self.target[p.Lb] {
                    return self.locate(utils.EMalformed(fmt.Sprintf("TARGET %d defined twice", p.Lb)), self.loc)
                }
                next := self.forLabel(p.Lb)
                next.head = self.loc
                if cur != nil {
                    cur.link(next)
                    cur.fall = next
                }
                cur = next
                cur.ins = append(cur.ins, p)
                self.target[p.Lb] = true
                self.nodes = append(self.nodes, cur)
            }
            case instr.OP_branch: {
                next := self.node()
                self.reference(p.Lb)
                if cur != nil {
                    cur.ins = append(cur.ins, p)
                    cur.link(self.forLabel(p.Lb))
                    cur.link(next)
                    cur.fall = next
                }
                cur = next
                self.nodes = append(self.nodes, cur)
            }
            case instr.OP_hop: {
                self.reference(p.Lb)
                if cur != nil {
                    cur.ins = append(cur.ins, p)
                    cur.link(self.forLabel(p.Lb))
                    cur = nil
                }
            }
            default: {
                if cur != nil {
                    cur.ins = append(cur.ins, p)
                }
                if p.AlwaysTransfers() {
                    cur = nil
                }
            }
        }

        /* remember where the block ended */
        if cur != nil {
            cur.tail = self.loc
        }
    }

    /* the last open block falls off the end of the routine */
    if cur != nil {
        cur.exit = true
    }
    return nil
}

func (self *Builder) removeDeadNodes() {
    q := lane.NewQueue()
    self.nodes[0].live = true

    /* mark everything reachable from the entry */
    for q.Enqueue(self.nodes[0]); !q.Empty(); {
        p := q.Dequeue().(*_Node)
        for _, s := range p.succ {
            if !s.live {
                s.live = true
                q.Enqueue(s)
            }
        }
    }

    /* drop the dead ones */
    live := self.nodes[:0]
    for _, p := range self.nodes {
        if p.live {
            live = append(live, p)
        }
    }

    /* forget the edges coming from dead nodes */
    for _, p := range live {
        pred := p.pred[:0]
        for _, v := range p.pred {
            if v.live {
                pred = append(pred, v)
            }
        }
        p.pred = pred
    }

    /* update the node list */
    self.nodes = live
}

func isHopOnly(p *_Node) bool {
    n := len(p.ins)
    if n == 0 || p.ins[n - 1].Op != instr.OP_hop {
        return false
    }
    for _, v := range p.ins[:n - 1] {
        if !v.IsMeta() {
            return false
        }
    }
    return true
}

// elideHopBlocks drops blocks that are only reached by falling through and
// do nothing but hop to the block that follows them anyway.
func (self *Builder) elideHopBlocks() {
    ret := self.nodes[:1]
    for i := 1; i < len(self.nodes); i++ {
        p := self.nodes[i]
        if !isHopOnly(p) || len(p.pred) != 1 || len(p.succ) != 1 || i + 1 >= len(self.nodes) {
            ret = append(ret, p)
            continue
        }

        /* the only way in is the fall-through edge of the layout predecessor */
        prev := ret[len(ret) - 1]
        next := self.nodes[i + 1]
        if p.pred[0] != prev || prev.fall != p || p.succ[0] != next || next == p {
            ret = append(ret, p)
            continue
        }

        /* falling through now reaches the hop target directly */
        prev.succ = removeNode(prev.succ, p)
        next.pred = removeNode(next.pred, p)
        prev.link(next)
        prev.fall = next
        p.gone = true
        logger.Debugf("elided hop-only block %d", p.id)
    }
    self.nodes = ret
}

func mergeNodes(n1 *_Node, n2 *_Node) {
    tail, ok := n1.last()
    head := n2.ins

    /* an internal HOP/TARGET pair disappears */
    if ok && tail.Op == instr.OP_hop && len(head) != 0 && head[0].Op == instr.OP_target && head[0].Lb == tail.Lb {
        n1.ins = append(n1.ins[:len(n1.ins) - 1], head[1:]...)
    } else {
        n1.ins = append(n1.ins, head...)
    }

    /* take over the successors */
    n1.succ = n2.succ
    n1.fall = n2.fall
    n1.exit = n1.exit || n2.exit
    n1.tail = n2.tail
    for _, s := range n1.succ {
        s.pred = appendNode(removeNode(s.pred, n2), n1)
    }

    /* n2 is now empty */
    n2.ins = nil
    n2.succ = nil
    n2.pred = nil
    n2.gone = true
}

func (self *Builder) tryToMerge(i int) {
    node := self.nodes[i]
    for !node.gone && len(node.succ) == 1 && !node.endsWith(instr.OP_branch) {
        next := node.succ[0]
        j := i + 1

        /* find the layout successor */
        for j < len(self.nodes) && self.nodes[j].gone {
            j++
        }

        /* must directly follow, and have no other way in */
        if j >= len(self.nodes) || self.nodes[j] != next || next == node || len(next.pred) != 1 {
            return
        }

        /* merge them */
        mergeNodes(node, next)
    }
}

func (self *Builder) removeRedundantNodes() {
    for i := range self.nodes {
        if !self.nodes[i].gone {
            self.tryToMerge(i)
        }
    }

    /* keep the survivors */
    live := self.nodes[:0]
    for _, p := range self.nodes {
        if !p.gone {
            live = append(live, p)
        }
    }
    self.nodes = live
}

func (self *Builder) finalize() *FlowGraph {
    nb := len(self.nodes)
    idx := make(map[*_Node]int, nb)
    ret := newFlowGraph(self.opts, nb)

    /* assign the final indices */
    for i, p := range self.nodes {
        idx[p] = i
    }

    /* create all the blocks */
    for i, p := range self.nodes {
        bb := &BasicBlock {
            Id     : i,
            Ins    : p.ins,
            Exit   : p.exit,
            Parent : _NoEdgeSet,
            Child  : _NoEdgeSet,
        }

        /* successors and predecessors by index */
        for _, s := range p.succ {
            bb.Succ = append(bb.Succ, idx[s])
        }
        for _, s := range p.pred {
            bb.Pred = append(bb.Pred, idx[s])
        }

        /* keep them ordered */
        sort.Ints(bb.Succ)
        sort.Ints(bb.Pred)
        bb.summarize()
        ret.Blocks = append(ret.Blocks, bb)
        ret.locs = append(ret.locs, [2]_Loc { p.head, p.tail })
    }

    /* whole-graph facts */
    ret.buildEdgeSets()
    ret.collectRefs()
    return ret
}

func (self *Builder) uninitialized(g *FlowGraph, err error) error {
    fe, ok := err.(*utils.FlowError)
    if !ok || fe.Kind != utils.K_uninit {
        return err
    }

    /* prefer the declaration of the temporary */
    if decl, ok := self.names[fe.Temp]; ok {
        return utils.EUninitNamed(fe.Temp, decl.name).Locate(decl.loc.file, decl.loc.line)
    }

    /* otherwise its first use */
    if loc, ok := self.uses[fe.Temp]; ok {
        return fe.Locate(loc.file, loc.line)
    } else {
        return fe
    }
}
