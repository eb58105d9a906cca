package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Semantic analysis
	SemaInfo                Code = 3000
	SemaError               Code = 3001
	SemaDuplicateSymbol     Code = 3002
	SemaScopeMismatch       Code = 3003
	SemaShadowSymbol        Code = 3004
	SemaUnresolvedSymbol    Code = 3005
	SemaUnknownType         Code = 3006
	SemaIllegalMemberAccess Code = 3007
	SemaMalformedDecl       Code = 3008
	SemaNotCallable         Code = 3009
	SemaNoSuchMember        Code = 3010
	SemaNotAType            Code = 3011
	SemaInvariant           Code = 3012

	// Imports
	ImpInfo           Code = 4000
	ImpLoadFailed     Code = 4001
	ImpSymbolNotFound Code = 4002
	ImpImportedSymbol Code = 4003
	ImpNotImportable  Code = 4004
	ImpSelfImport     Code = 4005
	ImpCycle          Code = 4006

	// Task dependency graphs
	GraphInfo            Code = 5000
	GraphUnresolvedTask  Code = 5001
	GraphNotATask        Code = 5002
	GraphCycle           Code = 5003
	GraphUnknownEdgeType Code = 5004
	GraphDuplicateEdge   Code = 5005

	// Program-dependence graphs
	GroumInfo        Code = 6000
	GroumUnboundNode Code = 6001

	// Task content
	TaskInfo         Code = 7000
	TaskNotLiteral   Code = 7001
	TaskAnswerIndex  Code = 7002
	TaskMissingField Code = 7003
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	SemaInfo:                "Semantic information",
	SemaError:               "Semantic error",
	SemaDuplicateSymbol:     "Duplicate symbol",
	SemaScopeMismatch:       "Scope stack mismatch",
	SemaShadowSymbol:        "Symbol shadows outer binding",
	SemaUnresolvedSymbol:    "Unresolved symbol",
	SemaUnknownType:         "Unknown type",
	SemaIllegalMemberAccess: "Illegal member access",
	SemaMalformedDecl:       "Malformed declaration",
	SemaNotCallable:         "Symbol is not callable",
	SemaNoSuchMember:        "No such member",
	SemaNotAType:            "Symbol is not a type",
	SemaInvariant:           "Symbol table invariant violation",
	ImpInfo:                 "Import information",
	ImpLoadFailed:           "Imported unit could not be loaded",
	ImpSymbolNotFound:       "Imported symbol not found",
	ImpImportedSymbol:       "Cannot import an imported symbol",
	ImpNotImportable:        "Symbol cannot be imported",
	ImpSelfImport:           "Unit imports itself",
	ImpCycle:                "Import cycle",
	GraphInfo:               "Task graph information",
	GraphUnresolvedTask:     "Unresolved task reference",
	GraphNotATask:           "Graph node does not reference a task",
	GraphCycle:              "Task dependency cycle",
	GraphUnknownEdgeType:    "Unknown task edge type",
	GraphDuplicateEdge:      "Duplicate task edge",
	GroumInfo:               "Groum information",
	GroumUnboundNode:        "Unbound node in behaviour body",
	TaskInfo:                "Task content information",
	TaskNotLiteral:          "Task property is not a literal",
	TaskAnswerIndex:         "Answer index out of range",
	TaskMissingField:        "Task property missing",
}

// ID returns the stable textual code, e.g. SEM3002.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IMP%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("TDG%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("GRM%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("TSK%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
