package ast

// NodeID identifies a node inside a Nodes arena. IDs are stable for the
// lifetime of the arena and are used as map keys by every later pass.
type NodeID uint32

const NoNodeID NodeID = 0

func (id NodeID) IsValid() bool { return id != NoNodeID }
