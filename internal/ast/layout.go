package ast

// FuncParts splits a FuncDef into its return type, body and parameters.
func FuncParts(n *Node) (ret, body NodeID, params []NodeID) {
	if n == nil || n.Kind != KindFuncDef {
		return NoNodeID, NoNodeID, nil
	}
	if len(n.Kids) > 2 {
		params = n.Kids[2:]
	}
	return n.Kid(0), n.Kid(1), params
}

// ObjectParts splits an ObjectDef into its type identifier and properties.
func ObjectParts(n *Node) (typ NodeID, props []NodeID) {
	if n == nil || n.Kind != KindObjectDef {
		return NoNodeID, nil
	}
	if len(n.Kids) > 1 {
		props = n.Kids[1:]
	}
	return n.Kid(0), props
}

// CallParts splits a Call into callee and arguments.
func CallParts(n *Node) (callee NodeID, args []NodeID) {
	if n == nil || n.Kind != KindCall {
		return NoNodeID, nil
	}
	if len(n.Kids) > 1 {
		args = n.Kids[1:]
	}
	return n.Kid(0), args
}

// LoopParts returns the pieces of ForEach and CountingFor nodes; counter is
// NoNodeID for ForEach.
func LoopParts(n *Node) (loopVar, iterable, counter, body NodeID) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindForEach:
		return n.Kid(0), n.Kid(1), NoNodeID, n.Kid(2)
	case KindCountingFor:
		return n.Kid(0), n.Kid(1), n.Kid(2), n.Kid(3)
	}
	return
}

// EdgeParts splits a GraphEdge or GraphNode statement into its id lists (one
// per chain position, a GraphNode yields its single Ident) and attributes.
func EdgeParts(nodes *Nodes, n *Node) (chain []NodeID, attrs []NodeID) {
	if n == nil {
		return nil, nil
	}
	for _, kid := range n.Kids {
		if nodes.Kind(kid) == KindEdgeAttr {
			attrs = append(attrs, kid)
			continue
		}
		chain = append(chain, kid)
	}
	return chain, attrs
}
