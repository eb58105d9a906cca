package sema

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/hostdesc"
	"questdsl/internal/symbols"
	"questdsl/internal/testkit"
	"questdsl/internal/types"
)

const enumHost = `
[[type]]
name = "my_enum"
kind = "enum"
variants = ["A", "B"]
`

func testEnv(t *testing.T, extra string) *Environment {
	t.Helper()
	host := hostdesc.Default()
	if extra != "" {
		more, err := hostdesc.Decode(strings.NewReader(extra))
		if err != nil {
			t.Fatalf("decode extra descriptors: %v", err)
		}
		host.Merge(more)
	}
	return &Environment{Host: host}
}

func analyze(t *testing.T, nodes *ast.Nodes, unit *ast.Unit, opts Options) *Result {
	t.Helper()
	if opts.Env == nil {
		opts.Env = testEnv(t, "")
	}
	opts.Nodes = nodes
	res, err := NewAnalyzer(opts).Analyze(context.Background(), unit)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if err := testkit.CheckTable(res.Table); err != nil {
		t.Fatalf("table invariants: %v", err)
	}
	if err := testkit.CheckBindings(res.Table, res.Nodes, res.Unit.Root); err != nil {
		t.Fatalf("binding invariants: %v", err)
	}
	return res
}

func messages(res *Result, code diag.Code) []string {
	var out []string
	for _, d := range res.Diagnostics.WithCode(code) {
		out = append(out, d.Message)
	}
	return out
}

func mustLookup(t *testing.T, res *Result, name string) symbols.SymbolID {
	t.Helper()
	id, ok := res.Lookup(name)
	if !ok {
		t.Fatalf("symbol %q not found", name)
	}
	return id
}

func mustBound(t *testing.T, res *Result, node ast.NodeID) symbols.SymbolID {
	t.Helper()
	id, ok := res.SymbolOf(node)
	if !ok {
		t.Fatalf("node %d (%s) is unbound", node, res.Nodes.Kind(node))
	}
	return id
}

func idents(nodes *ast.Nodes, root ast.NodeID) []ast.NodeID {
	var out []ast.NodeID
	nodes.Walk(root, func(id ast.NodeID, node *ast.Node) bool {
		if node.Kind == ast.KindIdent {
			out = append(out, id)
		}
		return true
	})
	return out
}

func TestGraphForwardReference(t *testing.T) {
	for _, graphFirst := range []bool{true, false} {
		nodes := ast.NewNodes(0)
		b := ast.NewBuilder(nodes, 0)
		g := b.Graph("g", b.Chain([]string{"t1", "t2"}))
		t1 := b.Object("single_choice_task", "t1", b.Property("description", b.String("first")))
		t2 := b.Object("single_choice_task", "t2", b.Property("description", b.String("second")))
		decls := []ast.NodeID{g, t1, t2}
		if !graphFirst {
			decls = []ast.NodeID{t1, t2, g}
		}
		res := analyze(t, nodes, b.Unit("forward.dng", decls...), Options{})
		if res.Failed {
			t.Fatalf("graphFirst=%v: unexpected diagnostics %v", graphFirst, res.Diagnostics.Items())
		}

		refs := idents(nodes, g)
		if len(refs) != 2 {
			t.Fatalf("expected 2 graph references, got %d", len(refs))
		}
		for i, decl := range []ast.NodeID{t1, t2} {
			got := mustBound(t, res, refs[i])
			if res.Table.CreationNode(got) != decl {
				t.Fatalf("graphFirst=%v: reference %d bound to decl %d, want %d", graphFirst, i, res.Table.CreationNode(got), decl)
			}
			if res.Symbol(got).Kind != symbols.SymbolTask {
				t.Fatalf("expected task symbol, got %s", res.Symbol(got).Kind)
			}
		}
	}
}

func TestFunctionTypesAreInterned(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	unit := b.Unit("fns.dng",
		b.Func("first", b.Type("int"), []ast.NodeID{b.Param("s", b.Type("string"))}, b.Block()),
		b.Func("second", b.Type("int"), []ast.NodeID{b.Param("other", b.Type("string"))}, b.Block()),
	)

	an := NewAnalyzer(Options{Env: testEnv(t, ""), Nodes: nodes})
	in := an.Types()
	detached := in.NewDetachedFn([]types.TypeID{in.Builtins().String}, in.Builtins().Int)
	if _, err := an.DeclareNative("external", detached); err != nil {
		t.Fatalf("DeclareNative: %v", err)
	}
	res, err := an.Analyze(context.Background(), unit)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	first := res.Symbol(mustLookup(t, res, "first")).Type
	second := res.Symbol(mustLookup(t, res, "second")).Type
	external := res.Symbol(mustLookup(t, res, "external")).Type
	if first != second || first != external {
		t.Fatalf("function types not identical: %d %d %d", first, second, external)
	}
	if res.Types.Hash(first) != res.Types.Hash(external) {
		t.Fatalf("hash mismatch")
	}

	fnSym := mustLookup(t, res, "$fn(string) -> int$")
	if sym := res.Symbol(fnSym); sym.Kind != symbols.SymbolType || sym.Sub != symbols.TypeSubFunctionType || sym.Type != first {
		t.Fatalf("unexpected function type symbol %+v", sym)
	}
}

func TestEnumMemberAccessIsReported(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	variant := b.Member(b.Ident("my_enum"), "A")
	onVariant := b.Member(variant, "B")
	assigned := b.Member(b.Ident("my_enum"), "A")
	onValue := b.Member(b.Ident("variable"), "B")
	body := b.Block(
		onVariant,
		b.Var("variable", b.Type("my_enum"), ast.NoNodeID),
		b.Assign(b.Ident("variable"), assigned),
		onValue,
	)
	unit := b.Unit("enum.dng", b.Func("f", ast.NoNodeID, nil, body))
	res := analyze(t, nodes, unit, Options{Env: testEnv(t, enumHost)})

	want := []string{
		"member access on enum value is not allowed: my_enum.A",
		"member access on enum value is not allowed: variable",
	}
	if diff := cmp.Diff(want, messages(res, diag.SemaIllegalMemberAccess)); diff != "" {
		t.Fatalf("illegal member access diagnostics (-want +got):\n%s", diff)
	}
	if !res.Failed {
		t.Fatalf("expected the unit to be flagged as failed")
	}

	for _, id := range []ast.NodeID{variant, assigned} {
		sym := res.Symbol(mustBound(t, res, id))
		if sym.Kind != symbols.SymbolEnumVariant || res.Table.Name(mustBound(t, res, id)) != "A" {
			t.Fatalf("expected variant A, got %s", sym.Kind)
		}
	}
	for _, id := range []ast.NodeID{onVariant, onValue} {
		if _, ok := res.SymbolOf(id); ok {
			t.Fatalf("illegal access %d must stay unbound", id)
		}
		if !res.Types.IsNoType(res.TypeOf(id)) {
			t.Fatalf("illegal access %d must be typed no_type", id)
		}
	}
}

func TestMalformedParameterKeepsBodyResolving(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	printCall := b.CallName("print", b.Ident("param1"))
	fn := b.Func("f", b.Type("int"), []ast.NodeID{b.Error("expected parameter name")}, b.Block(printCall))
	res := analyze(t, nodes, b.Unit("broken.dng", fn), Options{})

	printSym := mustLookup(t, res, "print")
	callee := res.Node(printCall).Kid(0)
	if got := mustBound(t, res, callee); got != printSym {
		t.Fatalf("print callee bound to %d, want builtin %d", got, printSym)
	}
	if got := mustBound(t, res, printCall); got != printSym {
		t.Fatalf("print call bound to %d, want %d", got, printSym)
	}
	if len(res.Diagnostics.WithCode(diag.SemaMalformedDecl)) != 1 {
		t.Fatalf("expected one malformed declaration, got %v", res.Diagnostics.Items())
	}
	if got := messages(res, diag.SemaUnresolvedSymbol); len(got) != 1 || !strings.Contains(got[0], "param1") {
		t.Fatalf("expected param1 to be unresolved, got %v", got)
	}
	if label := types.Label(res.Types, res.Symbol(mustLookup(t, res, "f")).Type); label != "$fn() -> int$" {
		t.Fatalf("function type = %s", label)
	}
}

func TestIfElseBranchesGetDistinctScopes(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	inThen := b.Var("x", ast.NoNodeID, b.Int(1))
	inElse := b.Var("x", ast.NoNodeID, b.Int(2))
	body := b.Block(b.If(b.Bool(true), b.Block(inThen), b.Block(inElse)))
	res := analyze(t, nodes, b.Unit("if.dng", b.Func("f", ast.NoNodeID, nil, body)), Options{})
	if res.Failed || res.Diagnostics.HasWarnings() {
		t.Fatalf("unexpected diagnostics %v", res.Diagnostics.Items())
	}

	fnScope := res.Symbol(mustLookup(t, res, "f")).Own
	thenSym := mustBound(t, res, inThen)
	elseSym := mustBound(t, res, inElse)
	if thenSym == elseSym {
		t.Fatalf("branches share symbol %d", thenSym)
	}
	for _, id := range []symbols.SymbolID{thenSym, elseSym} {
		scope := res.Table.Scopes.Get(res.Symbol(id).Scope)
		parent := res.Table.Scopes.Get(scope.Parent)
		if parent.Parent != fnScope {
			t.Fatalf("grandparent of symbol %d scope = %d, want function scope %d", id, parent.Parent, fnScope)
		}
		if res.Symbol(id).Type != res.Types.Builtins().Int {
			t.Fatalf("x should be inferred as int")
		}
	}
}

func TestIncompleteVarDeclHasNoType(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	decl := b.Var("y", b.Error("expected type after ':'"), ast.NoNodeID)
	use := b.Ident("y")
	body := b.Block(decl, b.CallName("print", use))
	res := analyze(t, nodes, b.Unit("var.dng", b.Func("f", ast.NoNodeID, nil, body)), Options{})

	sym := res.Symbol(mustBound(t, res, decl))
	if !res.Types.IsNoType(sym.Type) {
		t.Fatalf("y typed %s, want no_type", types.Label(res.Types, sym.Type))
	}
	if mustBound(t, res, use) != mustBound(t, res, decl) {
		t.Fatalf("use of y does not bind to its declaration")
	}
	if len(res.Diagnostics.WithCode(diag.SemaMalformedDecl)) != 1 {
		t.Fatalf("expected a malformed declaration diagnostic")
	}
}

func TestLoopVariables(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	elem := b.LoopVar("e", ast.NoNodeID)
	elemUse := b.Ident("e")
	forEach := b.ForEach(elem, b.List(b.Int(1), b.Int(2)), b.Block(b.CallName("rand_int", elemUse)))

	value := b.LoopVar("v", ast.NoNodeID)
	counter := b.LoopVar("i", ast.NoNodeID)
	valueUse, counterUse := b.Ident("v"), b.Ident("i")
	counting := b.CountingFor(value, b.List(b.String("a")), counter, b.Block(b.CallName("print", valueUse), counterUse))

	inWhile := b.Var("w", ast.NoNodeID, b.Float(1.5))
	loop := b.While(b.Binary("<", b.Int(1), b.Int(2)), b.Block(inWhile))

	res := analyze(t, nodes, b.Unit("loops.dng", b.Func("f", ast.NoNodeID, nil, b.Block(forEach, counting, loop))), Options{})
	if res.Failed {
		t.Fatalf("unexpected diagnostics %v", res.Diagnostics.Items())
	}

	bt := res.Types.Builtins()
	cases := []struct {
		decl, use ast.NodeID
		want      types.TypeID
	}{
		{elem, elemUse, bt.Int},
		{value, valueUse, bt.String},
		{counter, counterUse, bt.Int},
	}
	for _, tc := range cases {
		sym := mustBound(t, res, tc.decl)
		if mustBound(t, res, tc.use) != sym {
			t.Fatalf("use of %s not bound to loop variable", res.Table.Name(sym))
		}
		if res.Symbol(sym).Type != tc.want {
			t.Fatalf("%s typed %s", res.Table.Name(sym), types.Label(res.Types, res.Symbol(sym).Type))
		}
		if res.Table.Scopes.Get(res.Symbol(sym).Scope).Kind != symbols.ScopeBlock {
			t.Fatalf("loop variable outside a block scope")
		}
	}
	if res.Symbol(mustBound(t, res, inWhile)).Type != bt.Float {
		t.Fatalf("while body declaration typed wrongly")
	}
}

func TestPropertiesBindToMembers(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	nameProp := b.Property("name", b.String("dungeon"))
	graphRef := b.Ident("g")
	graphProp := b.Property("dependency_graph", graphRef)
	bogus := b.Property("bogus", b.Int(1))
	config := b.Object("dungeon_config", "c", nameProp, graphProp, bogus)
	graph := b.Graph("g", b.GraphNode("t"))
	task := b.Object("single_choice_task", "t")
	potion := b.ItemType("potion",
		b.Property("display_name", b.String("Potion")),
		b.Property("broken", b.Error("dangling ':'")),
		b.Property("cost", b.Int(3)),
	)
	res := analyze(t, nodes, b.Unit("props.dng", config, graph, task, potion), Options{})

	cfg := res.Symbol(mustLookup(t, res, "dungeon_config"))
	nameMember, _ := res.Table.LookupIn(cfg.Own, res.Table.Strings.Intern("name"))
	if mustBound(t, res, nameProp) != nameMember {
		t.Fatalf("name property not bound to dungeon_config.name")
	}
	if mustBound(t, res, graphRef) != mustLookup(t, res, "g") {
		t.Fatalf("graph reference not bound to g")
	}
	if got := messages(res, diag.SemaNoSuchMember); len(got) != 1 || !strings.Contains(got[0], "bogus") {
		t.Fatalf("expected bogus to be rejected, got %v", got)
	}

	item := res.Symbol(mustLookup(t, res, "potion"))
	scope := res.Table.Scopes.Get(item.Own)
	if len(scope.Symbols) != 2 {
		t.Fatalf("potion has %d members, want 2", len(scope.Symbols))
	}
	info, ok := res.Types.AggregateInfo(item.Type)
	if !ok {
		t.Fatalf("potion is not an aggregate")
	}
	got := make(map[string]string)
	for _, m := range info.Members {
		got[m.Name] = types.Label(res.Types, m.Type)
	}
	if diff := cmp.Diff(map[string]string{"display_name": "string", "cost": "int"}, got); diff != "" {
		t.Fatalf("potion members (-want +got):\n%s", diff)
	}
	if len(res.Tasks()) != 1 {
		t.Fatalf("expected one task, got %v", res.Tasks())
	}
}

func TestCallsAndMembers(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	ctor := b.CallName("point", b.Float(1), b.Float(2))
	px := b.Member(b.Ident("p"), "x")
	method := b.Call(b.Member(b.Ident("el"), "get_content"))
	notCallable := b.CallName("p")
	body := b.Block(
		b.Var("p", ast.NoNodeID, ctor),
		b.Var("px", ast.NoNodeID, px),
		b.Var("el", b.Type("element"), ast.NoNodeID),
		b.CallName("print", method),
		notCallable,
	)
	res := analyze(t, nodes, b.Unit("calls.dng", b.Func("f", ast.NoNodeID, nil, body)), Options{})

	if res.Symbol(mustBound(t, res, ctor)).Sub != symbols.TypeSubAggregateAdapted {
		t.Fatalf("point call not bound to the adapted type")
	}
	if got := types.Label(res.Types, res.TypeOf(ctor)); got != "point" {
		t.Fatalf("point(...) typed %s", got)
	}
	if res.TypeOf(px) != res.Types.Builtins().Float {
		t.Fatalf("p.x typed %s", types.Label(res.Types, res.TypeOf(px)))
	}
	if res.TypeOf(method) != res.Types.Builtins().String {
		t.Fatalf("el.get_content() typed %s", types.Label(res.Types, res.TypeOf(method)))
	}
	if len(res.Diagnostics.WithCode(diag.SemaNotCallable)) != 1 {
		t.Fatalf("expected p() to be rejected, got %v", res.Diagnostics.Items())
	}
}

func TestAnalyzerRunsOnceAndFreezes(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	unit := b.Unit("once.dng", b.Func("f", ast.NoNodeID, nil, b.Block()))

	an := NewAnalyzer(Options{Env: testEnv(t, ""), Nodes: nodes})
	res, err := an.Analyze(context.Background(), unit)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.Table.Frozen() {
		t.Fatalf("table not frozen")
	}
	if _, err := an.Analyze(context.Background(), unit); err == nil {
		t.Fatalf("second Analyze should fail")
	}
	if err := res.Table.Validate(); err != nil {
		t.Fatalf("table invariants: %v", err)
	}
}

func TestHostRulesRunOverBoundTree(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	call := b.CallName("show_info", b.String("hello"))
	unit := b.Unit("rule.dng", b.Func("f", ast.NoNodeID, nil, b.Block(call)))

	var seen []string
	rule := RuleFunc{
		RuleName: "no-show-info",
		Fn: func(rc *RuleContext, id ast.NodeID, node *ast.Node) {
			if node.Kind != ast.KindCall {
				return
			}
			if sym, ok := rc.SymbolOf(id); ok {
				name := rc.Table.Strings.MustLookup(sym.Name)
				seen = append(seen, name)
				diag.ReportWarning(rc.Reporter, diag.SemaInfo, node.Span, "avoid "+name).WithNode(id).Emit()
			}
		},
	}
	res := analyze(t, nodes, unit, Options{Rules: []Rule{rule}})
	if diff := cmp.Diff([]string{"show_info"}, seen); diff != "" {
		t.Fatalf("rule saw (-want +got):\n%s", diff)
	}
	if res.Failed || !res.Diagnostics.HasWarnings() {
		t.Fatalf("expected a single warning, got %v", res.Diagnostics.Items())
	}
}

const shiftedHost = `
[[function]]
name = "shifted"
receiver = "position_component"
params = ["int", "int"]
returns = "position_component"
`

func TestMemberAccessOnCallResult(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	other := b.Func("other_func", b.Type("position_component"),
		[]ast.NodeID{b.Param("c", b.Type("position_component"))},
		b.Block(b.Return(b.Ident("c"))))
	pick := b.Func("pick", b.Type("my_enum"), nil, b.Block(b.Return(b.Member(b.Ident("my_enum"), "A"))))

	onCall := b.Member(b.CallName("other_func", b.Ident("comp")), "position")
	method := b.Call(b.Member(b.CallName("other_func", b.Ident("comp")), "shifted"), b.Int(42), b.Int(42))
	onMethod := b.Member(method, "position")
	onEnumCall := b.Member(b.CallName("pick"), "B")
	body := b.Block(
		b.Var("comp", b.Type("position_component"), ast.NoNodeID),
		b.Var("a", ast.NoNodeID, onCall),
		b.Var("m", ast.NoNodeID, onMethod),
		b.Var("e", ast.NoNodeID, onEnumCall),
	)
	unit := b.Unit("call_members.dng", other, pick, b.Func("f", ast.NoNodeID, nil, body))
	res := analyze(t, nodes, unit, Options{Env: testEnv(t, enumHost+shiftedHost)})

	if got := messages(res, diag.SemaNoSuchMember); len(got) != 0 {
		t.Fatalf("unexpected member errors %v", got)
	}
	if name := res.Table.Name(mustBound(t, res, method)); name != "shifted" {
		t.Fatalf("method call bound to %q", name)
	}
	for _, id := range []ast.NodeID{onCall, onMethod} {
		if name := res.Table.Name(mustBound(t, res, id)); name != "position" {
			t.Fatalf("member %d bound to %q", id, name)
		}
		if got := types.Label(res.Types, res.TypeOf(id)); got != "point" {
			t.Fatalf("member %d typed %s", id, got)
		}
	}

	want := []string{"member access on enum value is not allowed: pick()"}
	if diff := cmp.Diff(want, messages(res, diag.SemaIllegalMemberAccess)); diff != "" {
		t.Fatalf("illegal member access diagnostics (-want +got):\n%s", diff)
	}
	if _, ok := res.SymbolOf(onEnumCall); ok {
		t.Fatalf("member access on an enum result must stay unbound")
	}
}
