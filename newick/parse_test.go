package newick

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/TuftsBCB/phylo/taxa"
	"github.com/TuftsBCB/phylo/tree"
)

func reader(s string, cfg Config) *Reader {
	return NewReader(strings.NewReader(s), cfg)
}

func readOne(t *testing.T, s string, cfg Config) *tree.Tree {
	t.Helper()
	rd := reader(s, cfg)
	defer rd.Close()
	tr, err := rd.ReadTree()
	if err != nil {
		t.Fatalf("ReadTree(%q): %v", s, err)
	}
	return tr
}

func leafLabels(tr *tree.Tree) []string {
	var labels []string
	for _, leaf := range tr.Leaves() {
		if leaf.Taxon != nil {
			labels = append(labels, leaf.Taxon.Label())
		} else {
			labels = append(labels, leaf.Label)
		}
	}
	return labels
}

func length(nd *tree.Node) float64 {
	if nd.Edge == nil || nd.Edge.Length == nil {
		return -1
	}
	return *nd.Edge.Length
}

func TestBasicStatement(t *testing.T) {
	tr := readOne(t, "(A:1.5,(B:2.0,C:3.0)internal:0.5);", DefaultConfig())

	if tr.Rootedness != tree.RootednessUndefined {
		t.Errorf("rootedness: got %s, want undefined", tr.Rootedness)
	}
	leaves := tr.Leaves()
	if len(leaves) != 3 {
		t.Fatalf("got %d leaves, want 3", len(leaves))
	}
	wantLabels := []string{"A", "B", "C"}
	wantLens := []float64{1.5, 2.0, 3.0}
	for i, leaf := range leaves {
		if leaf.Taxon == nil || leaf.Taxon.Label() != wantLabels[i] {
			t.Errorf("leaf %d: got %v, want taxon %q", i, leaf.Taxon, wantLabels[i])
		}
		if length(leaf) != wantLens[i] {
			t.Errorf("leaf %s: length %v, want %v", wantLabels[i], length(leaf), wantLens[i])
		}
	}

	internal := tr.Seed.Children[1]
	if internal.Label != "internal" {
		t.Errorf("internal node label: got %q, want \"internal\"", internal.Label)
	}
	if internal.Taxon != nil {
		t.Error("internal node must not get a taxon under the default config")
	}
	if length(internal) != 0.5 {
		t.Errorf("internal edge length: got %v, want 0.5", length(internal))
	}
	if length(tr.Seed) != -1 {
		t.Errorf("seed edge must have no length, got %v", length(tr.Seed))
	}
}

func TestChildOrderAndParents(t *testing.T) {
	tr := readOne(t, "((A,B)x,(C,D)y);", DefaultConfig())
	if got := leafLabels(tr); strings.Join(got, "") != "ABCD" {
		t.Errorf("leaf order: got %v, want A B C D", got)
	}
	for _, c := range tr.Seed.Children {
		if c.Parent != tr.Seed {
			t.Error("child lacks parent back-reference")
		}
		if c.Edge.Tail != tr.Seed || c.Edge.Head != c {
			t.Error("edge head/tail wiring wrong")
		}
	}
}

func TestBareTaxonStatement(t *testing.T) {
	tr := readOne(t, "A;", DefaultConfig())
	if !tr.Seed.IsLeaf() {
		t.Fatal("bare-taxon tree must be a single node")
	}
	if tr.Seed.Taxon == nil || tr.Seed.Taxon.Label() != "A" {
		t.Errorf("seed taxon: got %v, want A", tr.Seed.Taxon)
	}
}

func TestEmptyStatementsSkipped(t *testing.T) {
	rd := reader(";;(A,B);;", DefaultConfig())
	defer rd.Close()
	trees, err := rd.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 1 {
		t.Fatalf("got %d trees, want 1", len(trees))
	}
}

func TestBlankChildren(t *testing.T) {
	tr := readOne(t, "(A,,B,);", DefaultConfig())
	kids := tr.Seed.Children
	if len(kids) != 4 {
		t.Fatalf("got %d children, want 4 (two anonymous)", len(kids))
	}
	if kids[1].Taxon != nil || kids[1].Label != "" {
		t.Error("second child should be anonymous")
	}
	if kids[3].Taxon != nil || kids[3].Label != "" {
		t.Error("trailing child should be anonymous")
	}
}

func TestAnonymousWithLength(t *testing.T) {
	tr := readOne(t, "(:0.1,:0.2);", DefaultConfig())
	kids := tr.Seed.Children
	if len(kids) != 2 || length(kids[0]) != 0.1 || length(kids[1]) != 0.2 {
		t.Fatalf("got lengths %v/%v, want 0.1/0.2", length(kids[0]), length(kids[1]))
	}
}

func TestQuotedLabels(t *testing.T) {
	tr := readOne(t, "('it''s',\"B C\");", DefaultConfig())
	got := leafLabels(tr)
	if got[0] != "it's" || got[1] != "B C" {
		t.Errorf("got %v, want [it's, B C]", got)
	}
}

func TestUnderscoreLabels(t *testing.T) {
	tr := readOne(t, "(Homo_sapiens,B);", DefaultConfig())
	if got := leafLabels(tr)[0]; got != "Homo sapiens" {
		t.Errorf("got %q, want \"Homo sapiens\"", got)
	}

	cfg := DefaultConfig()
	cfg.PreserveUnderscores = true
	tr = readOne(t, "(Homo_sapiens,B);", cfg)
	if got := leafLabels(tr)[0]; got != "Homo_sapiens" {
		t.Errorf("preserved: got %q, want \"Homo_sapiens\"", got)
	}
}

func TestDuplicateTaxon(t *testing.T) {
	rd := reader("(A:1,(B:1,A:1):1);", DefaultConfig())
	defer rd.Close()
	_, err := rd.ReadTree()
	if !errors.Is(err, ErrDuplicateTaxon) {
		t.Fatalf("got %v, want ErrDuplicateTaxon", err)
	}
	if !strings.Contains(err.Error(), `"A"`) {
		t.Errorf("error should name the offending label: %v", err)
	}
}

// Repeated identical labels are flagged only in modes where labels
// resolve to taxon identities; with leaf taxa suppressed the labels
// are stored verbatim and never collide.
func TestRepeatedLabelPerMode(t *testing.T) {
	rd := reader("(A,A);", DefaultConfig())
	defer rd.Close()
	if _, err := rd.ReadTree(); !errors.Is(err, ErrDuplicateTaxon) {
		t.Fatalf("taxa mode: got %v, want ErrDuplicateTaxon", err)
	}

	cfg := DefaultConfig()
	cfg.SuppressLeafTaxa = true
	rd2 := reader("(A,A);", cfg)
	defer rd2.Close()
	tr, err := rd2.ReadTree()
	if err != nil {
		t.Fatalf("label mode: %v", err)
	}
	if got := leafLabels(tr); got[0] != "A" || got[1] != "A" {
		t.Errorf("label mode: got %v, want [A A]", got)
	}
	if rd2.Namespace().Len() != 0 {
		t.Error("label mode must not create taxa")
	}
}

func TestUnbalancedStatement(t *testing.T) {
	rd := reader("(A,(B,C);", DefaultConfig())
	defer rd.Close()
	_, err := rd.ReadTree()
	if !errors.Is(err, ErrMalformedStatement) {
		t.Fatalf("got %v, want ErrMalformedStatement", err)
	}
	if !strings.Contains(err.Error(), "1 unclosed") {
		t.Errorf("error should report the open depth: %v", err)
	}
}

func TestExtraCloseParen(t *testing.T) {
	rd := reader("(A,B));", DefaultConfig())
	defer rd.Close()
	if _, err := rd.ReadTree(); !errors.Is(err, ErrMalformedStatement) {
		t.Fatalf("got %v, want ErrMalformedStatement", err)
	}
}

func TestOpenParenAfterClose(t *testing.T) {
	rd := reader("(A,B)(C);", DefaultConfig())
	defer rd.Close()
	if _, err := rd.ReadTree(); !errors.Is(err, ErrMalformedStatement) {
		t.Fatalf("got %v, want ErrMalformedStatement", err)
	}
}

func TestTwoLabelsInSequence(t *testing.T) {
	rd := reader("(A B,C);", DefaultConfig())
	defer rd.Close()
	if _, err := rd.ReadTree(); !errors.Is(err, ErrMalformedStatement) {
		t.Fatalf("got %v, want ErrMalformedStatement", err)
	}
}

func TestInvalidEdgeLength(t *testing.T) {
	rd := reader("(A:fast,B);", DefaultConfig())
	defer rd.Close()
	if _, err := rd.ReadTree(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("got %v, want ErrInvalidValue", err)
	}
}

func TestIntegerEdgeLengths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IntegerEdgeLengths = true
	tr := readOne(t, "(A:3,B:4);", cfg)
	if length(tr.Seed.Children[0]) != 3 {
		t.Errorf("got %v, want 3", length(tr.Seed.Children[0]))
	}

	rd := reader("(A:1.5,B);", cfg)
	defer rd.Close()
	if _, err := rd.ReadTree(); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("got %v, want ErrInvalidValue for a float in integer mode", err)
	}
}

func TestMissingSemicolon(t *testing.T) {
	rd := reader("(A,B)", DefaultConfig())
	defer rd.Close()
	if _, err := rd.ReadTree(); !errors.Is(err, ErrIncompleteStatement) {
		t.Fatalf("got %v, want ErrIncompleteStatement", err)
	}

	cfg := DefaultConfig()
	cfg.AllowMissingSemicolon = true
	tr := readOne(t, "(A,B)", cfg)
	if len(tr.Leaves()) != 2 {
		t.Error("relaxed termination should accept the statement")
	}
}

func TestRootingComments(t *testing.T) {
	tests := []struct {
		input string
		cfg   Config
		want  tree.Rootedness
	}{
		{"[&R](A,B);", DefaultConfig(), tree.Rooted},
		{"[&U](A,B);", DefaultConfig(), tree.Unrooted},
		{"[&r](A,B);", DefaultConfig(), tree.Rooted},
		{"(A,B);", DefaultConfig(), tree.RootednessUndefined},
		{"(A,B);", Config{SuppressInternalTaxa: true, Rooting: RootingDefaultRooted}, tree.Rooted},
		{"(A,B);", Config{SuppressInternalTaxa: true, Rooting: RootingDefaultUnrooted}, tree.Unrooted},
		{"[&R](A,B);", Config{SuppressInternalTaxa: true, Rooting: RootingDefaultUnrooted}, tree.Rooted},
		{"[&R](A,B);", Config{SuppressInternalTaxa: true, Rooting: RootingForceUnrooted}, tree.Unrooted},
		{"[&U](A,B);", Config{SuppressInternalTaxa: true, Rooting: RootingForceRooted}, tree.Rooted},
	}
	for _, test := range tests {
		tr := readOne(t, test.input, test.cfg)
		if tr.Rootedness != test.want {
			t.Errorf("%q with rooting %v: got %s, want %s",
				test.input, test.cfg.Rooting, tr.Rootedness, test.want)
		}
	}
}

func TestTreeWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StoreTreeWeights = true

	tests := []struct {
		input string
		want  float64
	}{
		{"[&W 1/4](A,B);", 0.25},
		{"[&W 2](A,B);", 2},
		{"[&W 0.125](A,B);", 0.125},
	}
	for _, test := range tests {
		tr := readOne(t, test.input, cfg)
		if tr.Weight == nil || *tr.Weight != test.want {
			t.Errorf("%q: got %v, want %v", test.input, tr.Weight, test.want)
		}
	}

	// without weight tracking the comment is kept verbatim
	tr := readOne(t, "[&W 1/4](A,B);", DefaultConfig())
	if tr.Weight != nil {
		t.Error("weight should not be parsed when tracking is off")
	}
	if len(tr.Comments) != 1 || tr.Comments[0] != "&W 1/4" {
		t.Errorf("got comments %v, want the raw directive", tr.Comments)
	}
}

func TestNHXMetadata(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtractMetadata = true
	tr := readOne(t, "(A[&&NHX:S=human:B=100]:1,B:2);", cfg)

	a := tr.Seed.Children[0]
	if len(a.Annotations) != 2 {
		t.Fatalf("got %d annotations, want 2: %+v", len(a.Annotations), a.Annotations)
	}
	if a.Annotations[0].Name != "S" || a.Annotations[0].Value != "human" {
		t.Errorf("got %+v, want S=human", a.Annotations[0])
	}
	if a.Annotations[1].Name != "B" || a.Annotations[1].Value != "100" {
		t.Errorf("got %+v, want B=100", a.Annotations[1])
	}
}

func TestBEASTMetadata(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtractMetadata = true
	tr := readOne(t, "(A:1[&height=10,range={1,5}],B:2);", cfg)

	e := tr.Seed.Children[0].Edge
	if len(e.Annotations) != 2 {
		t.Fatalf("got %d edge annotations, want 2: %+v", len(e.Annotations), e.Annotations)
	}
	if e.Annotations[0].Name != "height" || e.Annotations[0].Value != "10" {
		t.Errorf("got %+v, want height=10", e.Annotations[0])
	}
	r := e.Annotations[1]
	if r.Name != "range" || len(r.Values) != 2 || r.Values[0] != "1" || r.Values[1] != "5" {
		t.Errorf("got %+v, want range={1,5}", r)
	}
}

func TestPlainCommentsKept(t *testing.T) {
	tr := readOne(t, "[a note](A[leaf note],B);", DefaultConfig())
	if len(tr.Comments) != 1 || tr.Comments[0] != "a note" {
		t.Errorf("tree comments: got %v", tr.Comments)
	}
	a := tr.Seed.Children[0]
	if len(a.Comments) != 1 || a.Comments[0] != "leaf note" {
		t.Errorf("node comments: got %v", a.Comments)
	}
}

func TestJplaceEdgeNumbers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JplaceEdgeNumbers = true
	tr := readOne(t, "(A:0.1{0},B:0.2{1}):0.5{2};", cfg)

	kids := tr.Seed.Children
	if kids[0].Edge.Number == nil || *kids[0].Edge.Number != 0 {
		t.Errorf("edge 0: got %v", kids[0].Edge.Number)
	}
	if kids[1].Edge.Number == nil || *kids[1].Edge.Number != 1 {
		t.Errorf("edge 1: got %v", kids[1].Edge.Number)
	}
	if tr.Seed.Edge.Number == nil || *tr.Seed.Edge.Number != 2 {
		t.Errorf("seed edge: got %v", tr.Seed.Edge.Number)
	}

	rd := reader("(A:0.1{0},B);", DefaultConfig())
	defer rd.Close()
	if _, err := rd.ReadTree(); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken when jplace numbers are disabled", err)
	}
}

func TestSharedNamespaceAcrossStatements(t *testing.T) {
	rd := reader("(A,B);(A,C);", DefaultConfig())
	defer rd.Close()
	trees, err := rd.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(trees) != 2 {
		t.Fatalf("got %d trees, want 2", len(trees))
	}
	if rd.Namespace().Len() != 3 {
		t.Errorf("namespace has %d taxa, want 3 (A shared)", rd.Namespace().Len())
	}
	if trees[0].Leaves()[0].Taxon != trees[1].Leaves()[0].Taxon {
		t.Error("taxon A must be the same identity in both trees")
	}
}

func TestTranslateTable(t *testing.T) {
	ns := taxa.NewNamespace("")
	a, _ := ns.Add("Alpha")
	b, _ := ns.Add("Beta")
	res := taxa.NewResolver(ns, taxa.ResolverConfig{})
	defer res.Close()
	res.MapTranslateToken("1", a)
	res.MapTranslateToken("2", b)

	cfg := DefaultConfig()
	cfg.Resolver = res
	tr := readOne(t, "(1:0.3,2:0.4);", cfg)
	leaves := tr.Leaves()
	if leaves[0].Taxon != a || leaves[1].Taxon != b {
		t.Errorf("translate tokens did not resolve: got %v", leafLabels(tr))
	}
}

func TestUnknownTaxonPassesThrough(t *testing.T) {
	ns := taxa.NewNamespace("")
	ns.Add("A")
	ns.SetMutable(false)
	res := taxa.NewResolver(ns, taxa.ResolverConfig{})
	defer res.Close()

	cfg := DefaultConfig()
	cfg.Resolver = res
	rd := reader("(A,Z);", cfg)
	if _, err := rd.ReadTree(); !errors.Is(err, taxa.ErrUnknownTaxon) {
		t.Fatalf("got %v, want taxa.ErrUnknownTaxon", err)
	}
}

func TestExhaustionSignal(t *testing.T) {
	rd := reader("  ", DefaultConfig())
	defer rd.Close()
	if _, err := rd.ReadTree(); err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func TestErrorPosition(t *testing.T) {
	rd := reader("(A:1,\n(B:1,A:1):1);", DefaultConfig())
	defer rd.Close()
	_, err := rd.ReadTree()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("got %T, want *ParseError", err)
	}
	if perr.Line != 2 {
		t.Errorf("duplicate A reported at line %d, want 2", perr.Line)
	}
}
