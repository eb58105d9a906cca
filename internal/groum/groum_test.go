package groum

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"questdsl/internal/ast"
	"questdsl/internal/diag"
	"questdsl/internal/sema"
	"questdsl/internal/testkit"
)

func analyze(t *testing.T, nodes *ast.Nodes, unit *ast.Unit) *sema.Result {
	t.Helper()
	res, err := sema.NewAnalyzer(sema.Options{Env: sema.DefaultEnvironment(), Nodes: nodes}).
		Analyze(context.Background(), unit)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return res
}

func mustFunction(t *testing.T, res *sema.Result, name string) *Groum {
	t.Helper()
	id, ok := res.Lookup(name)
	if !ok {
		t.Fatalf("function %q not found", name)
	}
	g, err := Build(res, id)
	if err != nil {
		t.Fatalf("Build(%s): %v", name, err)
	}
	return g
}

func checkIncidence(t *testing.T, g *Groum) {
	t.Helper()
	edges := make([]testkit.Incidence, 0, len(g.Edges()))
	for _, e := range g.Edges() {
		edges = append(edges, testkit.Incidence{
			Start:      int(e.Start),
			End:        int(e.End),
			IdxOnStart: e.IdxOnStart,
			IdxOnEnd:   e.IdxOnEnd,
		})
	}
	if err := testkit.CheckIncidence(edges); err != nil {
		t.Fatalf("groum %s: %v", g.Name, err)
	}
}

func TestEdgeIndicesAreAssignedAtCreation(t *testing.T) {
	g := New("manual", 0)
	a := g.AddNode(Node{Kind: ActionCall, Label: "a"})
	b := g.AddNode(Node{Kind: ActionCall, Label: "b"})
	c := g.AddNode(Node{Kind: ActionCall, Label: "c"})
	d := g.AddNode(Node{Kind: ActionCall, Label: "d"})

	g.AddEdge(EdgeTemporal, a, b)
	g.AddEdge(EdgeTemporal, a, c)
	g.AddEdge(EdgeTemporal, a, d)
	g.AddEdge(EdgeDataRead, a, b)
	g.AddEdge(EdgeDataWrite, a, c)

	var temporal []int
	for _, e := range g.Outgoing(a) {
		if e.Kind == EdgeTemporal {
			temporal = append(temporal, e.IdxOnStart)
		}
	}
	if diff := cmp.Diff([]int{0, 1, 2}, temporal); diff != "" {
		t.Fatalf("temporal start indices (-want +got):\n%s", diff)
	}

	in := g.Incoming(b)
	if len(in) != 2 || in[0].IdxOnEnd != 0 || in[1].IdxOnEnd != 1 {
		t.Fatalf("unexpected incoming edges of b: %+v", in)
	}
	checkIncidence(t, g)
	if g.AddEdge(EdgeTemporal, a, NodeID(99)) != -1 {
		t.Fatalf("edge to a missing node must be rejected")
	}
}

// Indices count every edge leaving or reaching a node, whatever its kind.
// Edges added later never renumber earlier ones.
func TestEdgeIndicesCountEarlierDataEdges(t *testing.T) {
	g := New("manual", 0)
	a := g.AddNode(Node{Kind: ActionInstantiation, Label: "a"})
	b := g.AddNode(Node{Kind: ActionCall, Label: "b"})
	c := g.AddNode(Node{Kind: ActionCall, Label: "c"})
	d := g.AddNode(Node{Kind: ActionCall, Label: "d"})

	g.AddEdge(EdgeDataWrite, a, d)
	g.AddEdge(EdgeTemporal, a, b)
	g.AddEdge(EdgeTemporal, a, c)
	g.AddEdge(EdgeTemporal, a, d)
	g.AddEdge(EdgeDataRead, a, b)

	type idx struct {
		Kind       EdgeKind
		Start, End int
	}
	var got []idx
	for _, e := range g.Outgoing(a) {
		got = append(got, idx{Kind: e.Kind, Start: e.IdxOnStart, End: e.IdxOnEnd})
	}
	want := []idx{
		{EdgeDataWrite, 0, 0},
		{EdgeTemporal, 1, 0},
		{EdgeTemporal, 2, 0},
		{EdgeTemporal, 3, 1},
		{EdgeDataRead, 4, 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("outgoing indices of a (-want +got):\n%s", diff)
	}
	checkIncidence(t, g)
}

func TestBuildFunctionBody(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	body := b.Block(
		b.Var("y", ast.NoNodeID, b.CallName("rand_int", b.Ident("x"))),
		b.CallName("print", b.Ident("y")),
		b.If(b.Bool(true),
			b.Block(b.CallName("print", b.String("a"))),
			b.Block(b.CallName("show_info", b.String("b"))),
		),
		b.Return(b.Ident("y")),
	)
	fn := b.Func("f", b.Type("int"), []ast.NodeID{b.Param("x", b.Type("int"))}, body)
	res := analyze(t, nodes, b.Unit("f.dng", fn))

	g := mustFunction(t, res, "f")
	var got []string
	for _, e := range g.Edges() {
		got = append(got, g.EdgeString(e))
	}
	want := []string{
		"int:<param_init [1]>(name: 'x') -[temporal]-> rand_int:<call [2]>",
		"int:<param_init [1]>(name: 'x') -[data_read]-> rand_int:<call [2]>",
		"rand_int:<call [2]> -[temporal]-> int:<init [3]>(name: 'y')",
		"rand_int:<call [2]> -[data_write]-> int:<init [3]>(name: 'y')",
		"int:<init [3]>(name: 'y') -[temporal]-> print:<call [4]>",
		"int:<init [3]>(name: 'y') -[data_read]-> print:<call [4]>",
		"print:<call [4]> -[temporal]-> <if>",
		"<if> -[control_parent]-> print:<call [5]>",
		"<if> -[control_parent]-> <else>",
		"<else> -[control_parent]-> show_info:<call [6]>",
		"<if> -[temporal]-> <return>",
		"int:<init [3]>(name: 'y') -[data_read]-> <return>",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("edges (-want +got):\n%s", diff)
	}

	y, ok := g.Find("int:<init [3]>(name: 'y')")
	if !ok {
		t.Fatalf("y instantiation missing")
	}
	var idx []int
	for _, e := range g.Outgoing(y) {
		idx = append(idx, e.IdxOnStart)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, idx); diff != "" {
		t.Fatalf("outgoing indices of y (-want +got):\n%s", diff)
	}
	if len(g.Unbound) != 0 {
		t.Fatalf("unexpected unbound nodes %v", g.Unbound)
	}
	checkIncidence(t, g)
}

func TestLoopsAndPropertyAccess(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	body := b.Block(
		b.Var("p", ast.NoNodeID, b.CallName("point", b.Float(1), b.Float(2))),
		b.ForEach(b.LoopVar("e", ast.NoNodeID), b.List(b.Int(1), b.Int(2)),
			b.Block(b.CallName("print", b.Member(b.Ident("p"), "x"))),
		),
	)
	res := analyze(t, nodes, b.Unit("loop.dng", b.Func("g", ast.NoNodeID, nil, body)))
	g := mustFunction(t, res, "g")

	var labels []string
	for _, n := range g.Nodes() {
		labels = append(labels, n.Label)
	}
	want := []string{
		"point:<init [1]>",
		"point:<init [2]>(name: 'p')",
		"<for>",
		"int:<init [3]>(name: 'e')",
		"point.x:<property_access [2]>",
		"print:<call [4]>",
	}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("node labels (-want +got):\n%s", diff)
	}

	loop, _ := g.Find("<for>")
	elem, _ := g.Find("int:<init [3]>(name: 'e')")
	var kinds []EdgeKind
	for _, e := range g.Incoming(elem) {
		if e.Start == loop {
			kinds = append(kinds, e.Kind)
		}
	}
	if diff := cmp.Diff([]EdgeKind{EdgeControlParent, EdgeDataWrite}, kinds); diff != "" {
		t.Fatalf("edges from loop to element (-want +got):\n%s", diff)
	}
	access, _ := g.Find("point.x:<property_access [2]>")
	p, _ := g.Find("point:<init [2]>(name: 'p')")
	found := false
	for _, e := range g.Incoming(access) {
		found = found || (e.Kind == EdgeDataRead && e.Start == p)
	}
	if !found {
		t.Fatalf("property access must read p")
	}
	checkIncidence(t, g)
}

func TestBuildAllAndCodec(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	unit := b.Unit("all.dng",
		b.Func("one", ast.NoNodeID, nil, b.Block(b.CallName("print", b.String("1")))),
		b.Func("two", ast.NoNodeID, nil, b.Block(b.CallName("undefined_fn"))),
		b.Func("three", ast.NoNodeID, []ast.NodeID{b.Param("n", b.Type("int"))}, b.Block(b.Return(b.Ident("n")))),
	)
	res := analyze(t, nodes, unit)

	groums, err := BuildAll(context.Background(), res, 2)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	var names []string
	for _, g := range groums {
		names = append(names, g.Name)
		checkIncidence(t, g)
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, names); diff != "" {
		t.Fatalf("groum order (-want +got):\n%s", diff)
	}

	bag := diag.NewBag(8)
	ReportUnbound(diag.BagReporter{Bag: bag}, res, groums)
	if len(bag.WithCode(diag.GroumUnboundNode)) != 1 {
		t.Fatalf("expected the unresolved call to be reported once, got %v", bag.Items())
	}

	var buf bytes.Buffer
	if err := Encode(&buf, groums); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded) != len(groums) {
		t.Fatalf("decoded %d groums, want %d", len(decoded), len(groums))
	}
	for i := range groums {
		if diff := cmp.Diff(groums[i].Nodes(), decoded[i].Nodes()); diff != "" {
			t.Fatalf("nodes of %s (-want +got):\n%s", groums[i].Name, diff)
		}
		if diff := cmp.Diff(groums[i].Edges(), decoded[i].Edges()); diff != "" {
			t.Fatalf("edges of %s (-want +got):\n%s", groums[i].Name, diff)
		}
	}
}

func TestBuildRejectsNonFunctions(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	res := analyze(t, nodes, b.Unit("g.dng", b.Graph("g", b.GraphNode("g"))))
	id, _ := res.Lookup("g")
	if _, err := Build(res, id); err == nil {
		t.Fatalf("graph symbol must be rejected")
	}
	printSym, _ := res.Lookup("print")
	if _, err := Build(res, printSym); err == nil {
		t.Fatalf("native function has no body and must be rejected")
	}
}

func TestPropertyAccessOnCallResult(t *testing.T) {
	nodes := ast.NewNodes(0)
	b := ast.NewBuilder(nodes, 0)
	mk := b.Func("mk", b.Type("point"), nil, b.Block(b.Return(b.CallName("point", b.Float(1), b.Float(2)))))
	use := b.Func("use", ast.NoNodeID, nil, b.Block(
		b.Var("px", ast.NoNodeID, b.Member(b.CallName("mk"), "x")),
	))
	res := analyze(t, nodes, b.Unit("call_member.dng", mk, use))
	g := mustFunction(t, res, "use")

	var got []string
	for _, e := range g.Edges() {
		got = append(got, g.EdgeString(e))
	}
	want := []string{
		"mk:<call [1]> -[temporal]-> point.x:<property_access [1]>",
		"mk:<call [1]> -[data_read]-> point.x:<property_access [1]>",
		"point.x:<property_access [1]> -[temporal]-> float:<init [2]>(name: 'px')",
		"point.x:<property_access [1]> -[data_write]-> float:<init [2]>(name: 'px')",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("edges (-want +got):\n%s", diff)
	}
	if len(g.Unbound) != 0 {
		t.Fatalf("unexpected unbound nodes %v", g.Unbound)
	}
	checkIncidence(t, g)
}
