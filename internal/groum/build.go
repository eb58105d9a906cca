package groum

import (
	"errors"
	"fmt"

	"questdsl/internal/ast"
	"questdsl/internal/sema"
	"questdsl/internal/symbols"
	"questdsl/internal/types"
)

// frame is one control context: actions created in it are chained by
// Temporal edges and hang off control by ControlParent edges.
type frame struct {
	control NodeID
	last    NodeID
}

type builder struct {
	res *sema.Result
	g   *Groum

	instances map[symbols.SymbolID]InstanceID
	instNode  map[InstanceID]NodeID
	writer    map[InstanceID]NodeID
	next      InstanceID
	frame     *frame
}

// Build constructs the groum of a user function. It only reads res, so
// several builds may run concurrently over one frozen result.
func Build(res *sema.Result, fn symbols.SymbolID) (*Groum, error) {
	if res == nil {
		return nil, errors.New("groum: nil analysis result")
	}
	sym := res.Symbol(fn)
	if sym == nil || sym.Kind != symbols.SymbolFunction {
		return nil, fmt.Errorf("groum: symbol %d is not a function", fn)
	}
	name := res.Table.Name(fn)
	decl := res.Node(sym.Decl)
	if decl == nil || decl.Kind != ast.KindFuncDef {
		return nil, fmt.Errorf("groum: function %q has no body", name)
	}

	b := &builder{
		res:       res,
		g:         New(name, fn),
		instances: make(map[symbols.SymbolID]InstanceID),
		instNode:  make(map[InstanceID]NodeID),
		writer:    make(map[InstanceID]NodeID),
		frame:     &frame{},
	}
	_, body, params := ast.FuncParts(decl)
	for _, param := range params {
		b.param(param)
	}
	b.stmt(body)
	return b.g, nil
}

func (b *builder) label(t types.TypeID) string {
	return types.Label(b.res.Types, t)
}

func (b *builder) newInstance(sym symbols.SymbolID) InstanceID {
	b.next++
	if sym.IsValid() {
		b.instances[sym] = b.next
	}
	return b.next
}

// action adds n to the current frame.
func (b *builder) action(n Node) NodeID {
	id := b.g.AddNode(n)
	if b.frame.last.IsValid() {
		b.g.AddEdge(EdgeTemporal, b.frame.last, id)
	}
	if b.frame.control.IsValid() {
		b.g.AddEdge(EdgeControlParent, b.frame.control, id)
	}
	b.frame.last = id
	return id
}

// nested runs fn in a fresh frame under control.
func (b *builder) nested(control NodeID, fn func()) {
	saved := b.frame
	b.frame = &frame{control: control}
	fn()
	b.frame = saved
}

func (b *builder) reads(producers []NodeID, reader NodeID) {
	for _, p := range producers {
		b.g.AddEdge(EdgeDataRead, p, reader)
	}
}

func (b *builder) writes(producers []NodeID, target NodeID) {
	for _, p := range producers {
		b.g.AddEdge(EdgeDataWrite, p, target)
	}
}

func (b *builder) unbound(id ast.NodeID) {
	b.g.Unbound = append(b.g.Unbound, id)
}

func (b *builder) param(id ast.NodeID) {
	symID, ok := b.res.SymbolOf(id)
	if !ok {
		// malformed parameters are not declared
		return
	}
	sym := b.res.Symbol(symID)
	inst := b.newInstance(symID)
	node := b.action(Node{
		Kind:     ActionParameterInstantiation,
		Label:    fmt.Sprintf("%s:<param_init [%d]>(name: '%s')", b.label(sym.Type), inst, b.res.Table.Name(symID)),
		Instance: inst,
		Symbol:   symID,
		Type:     sym.Type,
		AST:      id,
	})
	b.instNode[inst] = node
	b.writer[inst] = node
}

// declare instantiates a local variable initialised by producers.
func (b *builder) declare(id ast.NodeID, producers []NodeID) NodeID {
	symID, ok := b.res.SymbolOf(id)
	if !ok {
		b.unbound(id)
		return NoNodeID
	}
	sym := b.res.Symbol(symID)
	inst := b.newInstance(symID)
	node := b.action(Node{
		Kind:     ActionInstantiation,
		Label:    fmt.Sprintf("%s:<init [%d]>(name: '%s')", b.label(sym.Type), inst, b.res.Table.Name(symID)),
		Instance: inst,
		Symbol:   symID,
		Type:     sym.Type,
		AST:      id,
	})
	b.writes(producers, node)
	b.instNode[inst] = node
	b.writer[inst] = node
	return node
}

func (b *builder) control(kind ControlKind, id ast.NodeID) NodeID {
	return b.action(Node{Kind: ActionControl, Control: kind, Label: "<" + kind.String() + ">", AST: id})
}

func (b *builder) stmt(id ast.NodeID) {
	node := b.res.Node(id)
	if node == nil {
		return
	}
	switch node.Kind {
	case ast.KindBlock:
		for _, kid := range node.Kids {
			b.stmt(kid)
		}
	case ast.KindVarDecl:
		b.declare(id, b.eval(node.Kid(1)))
	case ast.KindAssign:
		b.assign(node.Kid(0), b.eval(node.Kid(1)))
	case ast.KindIf:
		cond := b.eval(node.Kid(0))
		ifNode := b.control(ControlIf, id)
		b.reads(cond, ifNode)
		b.nested(ifNode, func() { b.stmt(node.Kid(1)) })
		if els := node.Kid(2); els.IsValid() {
			elseNode := b.g.AddNode(Node{Kind: ActionControl, Control: ControlElse, Label: "<else>", AST: els})
			b.g.AddEdge(EdgeControlParent, ifNode, elseNode)
			b.nested(elseNode, func() { b.stmt(els) })
		}
	case ast.KindWhile:
		cond := b.eval(node.Kid(0))
		loop := b.control(ControlWhile, id)
		b.reads(cond, loop)
		b.nested(loop, func() { b.stmt(node.Kid(1)) })
	case ast.KindForEach, ast.KindCountingFor:
		loopVar, iterable, counter, body := ast.LoopParts(node)
		iter := b.eval(iterable)
		kind := ControlFor
		if node.Kind == ast.KindCountingFor {
			kind = ControlCountingFor
		}
		loop := b.control(kind, id)
		b.reads(iter, loop)
		b.nested(loop, func() {
			b.declare(loopVar, []NodeID{loop})
			if counter.IsValid() {
				b.declare(counter, []NodeID{loop})
			}
			b.stmt(body)
		})
	case ast.KindReturn:
		value := b.eval(node.Kid(0))
		ret := b.control(ControlReturn, id)
		b.reads(value, ret)
	default:
		if node.Kind.IsExpr() {
			b.eval(id)
		}
	}
}

// assign writes producers into the instance or property target names.
func (b *builder) assign(target ast.NodeID, producers []NodeID) {
	tn := b.res.Node(target)
	if tn == nil {
		return
	}
	switch tn.Kind {
	case ast.KindIdent:
		symID, ok := b.res.SymbolOf(target)
		if !ok {
			b.unbound(target)
			return
		}
		inst, local := b.instances[symID]
		if !local {
			return
		}
		b.writes(producers, b.instNode[inst])
		if len(producers) > 0 {
			b.writer[inst] = producers[len(producers)-1]
		}
	case ast.KindMember:
		prop := b.eval(target)
		for _, p := range prop {
			b.writes(producers, p)
		}
	}
}

// eval walks an expression in evaluation order and returns the nodes
// producing its value.
func (b *builder) eval(id ast.NodeID) []NodeID {
	node := b.res.Node(id)
	if node == nil {
		return nil
	}
	switch node.Kind {
	case ast.KindIdent:
		symID, ok := b.res.SymbolOf(id)
		if !ok {
			b.unbound(id)
			return nil
		}
		if inst, local := b.instances[symID]; local {
			if w := b.writer[inst]; w.IsValid() {
				return []NodeID{w}
			}
		}
		return nil
	case ast.KindMember:
		return b.member(id, node)
	case ast.KindCall:
		return b.call(id, node)
	case ast.KindBinary, ast.KindUnary, ast.KindListLit, ast.KindSetLit:
		var out []NodeID
		for _, kid := range node.Kids {
			out = append(out, b.eval(kid)...)
		}
		return out
	}
	return nil
}

// receiverInstance is the instance a member access reads. A call receiver
// is the fresh instance of the call's result.
func (b *builder) receiverInstance(recv ast.NodeID, value []NodeID) InstanceID {
	if n := b.res.Node(recv); n != nil && n.Kind == ast.KindCall {
		if len(value) == 1 {
			if produced := b.g.Node(value[0]); produced != nil {
				return produced.Instance
			}
		}
		return NoInstance
	}
	if symID, ok := b.res.SymbolOf(recv); ok {
		return b.instances[symID]
	}
	return NoInstance
}

func (b *builder) member(id ast.NodeID, node *ast.Node) []NodeID {
	recv := node.Kid(0)
	recvValue := b.eval(recv)
	symID, ok := b.res.SymbolOf(id)
	if !ok {
		b.unbound(id)
		return nil
	}
	sym := b.res.Symbol(symID)
	if sym.Kind != symbols.SymbolVariable {
		// enum variants and type members are constants
		return nil
	}
	inst := b.receiverInstance(recv, recvValue)
	access := b.action(Node{
		Kind:     ActionPropertyAccess,
		Label:    fmt.Sprintf("%s.%s:<property_access [%d]>", b.label(b.res.TypeOf(recv)), node.Name, inst),
		Instance: inst,
		Symbol:   symID,
		Type:     b.res.TypeOf(id),
		AST:      id,
	})
	b.reads(recvValue, access)
	return []NodeID{access}
}

func (b *builder) call(id ast.NodeID, node *ast.Node) []NodeID {
	callee, args := ast.CallParts(node)
	var inputs []NodeID
	for _, arg := range args {
		inputs = append(inputs, b.eval(arg)...)
	}
	if cn := b.res.Node(callee); cn != nil && cn.Kind == ast.KindMember {
		inputs = append(inputs, b.eval(cn.Kid(0))...)
	}
	symID, ok := b.res.SymbolOf(id)
	if !ok {
		b.unbound(id)
		return nil
	}
	origin := b.res.Table.Origin(symID)
	sym := b.res.Symbol(origin)
	inst := b.newInstance(symbols.NoSymbolID)

	n := Node{
		Kind:     ActionCall,
		Instance: inst,
		Symbol:   origin,
		Type:     b.res.TypeOf(id),
		AST:      id,
	}
	if sym.Kind == symbols.SymbolType {
		n.Kind = ActionInstantiation
		n.Label = fmt.Sprintf("%s:<init [%d]>", b.label(sym.Type), inst)
	} else {
		n.Label = fmt.Sprintf("%s:<call [%d]>", b.res.Table.Name(origin), inst)
	}
	action := b.action(n)
	b.reads(inputs, action)
	b.instNode[inst] = action
	b.writer[inst] = action
	return []NodeID{action}
}
