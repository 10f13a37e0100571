package newick

import (
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/TuftsBCB/phylo/nexus"
	"github.com/TuftsBCB/phylo/taxa"
	"github.com/TuftsBCB/phylo/tree"
)

// A Reader parses tree statements one at a time from a token stream.
// It is stateful (statement counters, seen-taxa set, the tokenizer's
// cursor) and must not be driven concurrently.
type Reader struct {
	tk  *nexus.Tokenizer
	cfg Config
	res *taxa.Resolver

	newTree TreeFactory
	ownsRes bool

	// depth is the parenthesis-nesting counter for the statement in
	// progress. It lives on the reader, not in a recursive call, so
	// balance errors detected after unwinding still see the count.
	depth int
	seen  map[*taxa.Taxon]bool
}

// NewReader returns a reader over r using the NEXUS/Newick grammar
// profile. Callers sharing one tokenizer across readers (as the NEXUS
// block dispatcher does) should use NewTokenReader instead.
func NewReader(r io.Reader, cfg Config) *Reader {
	tc := nexus.NewickConfig()
	tc.PreserveUnderscores = cfg.PreserveUnderscores
	return NewTokenReader(nexus.NewTokenizer(r, tc), cfg)
}

// NewTokenReader returns a reader driving an existing tokenizer.
// Position and captured-comment state carry over between statements
// and between readers sharing the tokenizer.
func NewTokenReader(tk *nexus.Tokenizer, cfg Config) *Reader {
	rd := &Reader{tk: tk, cfg: cfg, newTree: cfg.TreeFactory, res: cfg.Resolver}
	if rd.newTree == nil {
		rd.newTree = tree.New
	}
	if rd.res == nil {
		rd.res = taxa.NewResolver(taxa.NewNamespace(""), taxa.ResolverConfig{
			CaseSensitive: cfg.CaseSensitiveTaxa,
			AllowOrdinals: cfg.AllowOrdinalTaxa,
		})
		rd.ownsRes = true
	}
	return rd
}

// Resolver returns the resolver in use, whether supplied or owned.
func (p *Reader) Resolver() *taxa.Resolver { return p.res }

// Namespace returns the taxon namespace trees are resolved against.
func (p *Reader) Namespace() *taxa.Namespace { return p.res.Namespace() }

// Close releases the reader's internally built resolver, restoring
// its namespace's mutability. It is a no-op for a caller-supplied
// resolver, whose lifecycle belongs to the caller.
func (p *Reader) Close() {
	if p.ownsRes {
		p.res.Close()
	}
}

// ReadAll reads tree statements until the stream is exhausted. The
// first error stops processing and is returned with no trees; the
// error is never io.EOF.
func (p *Reader) ReadAll() ([]*tree.Tree, error) {
	var trees []*tree.Tree
	for {
		t, err := p.ReadTree()
		if err == io.EOF {
			return trees, nil
		} else if err != nil {
			return nil, err
		}
		trees = append(trees, t)
	}
}

// ReadTree parses the next tree statement. At the end of the input it
// returns a nil tree with io.EOF. Empty statements (bare ';') are
// skipped.
func (p *Reader) ReadTree() (*tree.Tree, error) {
	tok, err := p.tk.Next()
	for err == nil && tok.Is(";") {
		p.tk.PullComments()
		tok, err = p.tk.Next()
	}
	if err != nil {
		return nil, err
	}

	p.depth = 0
	p.seen = make(map[*taxa.Taxon]bool)
	t := p.newTree()
	if err := p.applyTreeComments(t, p.tk.PullComments()); err != nil {
		return nil, err
	}

	if err := p.parseNode(t, t.Seed, tok); err != nil {
		return nil, err
	}

	end, err := p.tk.Next()
	if err == io.EOF {
		if !p.cfg.AllowMissingSemicolon {
			line, col := p.tk.Pos()
			return nil, parseErr(ErrIncompleteStatement, line, col,
				"tree statement ended without a terminating ';'")
		}
	} else if err != nil {
		return nil, err
	} else if end.Is(")") {
		return nil, parseErr(ErrMalformedStatement, end.Line, end.Col,
			"unbalanced tree statement: unexpected ')'")
	} else if !end.Is(";") {
		return nil, parseErr(ErrInvalidToken, end.Line, end.Col,
			"expected ';' to terminate tree statement, found %q", end.Value)
	}
	if p.depth != 0 {
		line, col := p.tk.Pos()
		return nil, parseErr(ErrMalformedStatement, line, col,
			"unbalanced tree statement: %d unclosed '('", p.depth)
	}

	if err := p.applyTreeComments(t, p.tk.PullComments()); err != nil {
		return nil, err
	}
	p.finalizeRooting(t)
	return t, nil
}

// parseNode parses one node description whose first token is tok,
// filling in nd.
func (p *Reader) parseNode(t *tree.Tree, nd *tree.Node, tok nexus.Token) error {
	if tok.Is("(") {
		p.depth++
		if err := p.parseChildren(t, nd); err != nil {
			return err
		}
		return p.finishNode(nd, true, nil)
	}
	return p.finishNode(nd, false, &tok)
}

// parseChildren consumes comma-separated child descriptions up to the
// matching ')'. The opening '(' has already been consumed and counted.
// Consecutive commas, or a comma against ')', yield anonymous blank
// children rather than errors.
func (p *Reader) parseChildren(t *tree.Tree, parent *tree.Node) error {
	expecting := true // a child description is due (after '(' or ',')
	for {
		tok, err := p.tk.Require()
		if err != nil {
			return err
		}
		switch {
		case tok.Is(","):
			if expecting {
				parent.NewChild()
			}
			p.attachComments(parent, nil)
			expecting = true
		case tok.Is(")"):
			if expecting {
				parent.NewChild()
			}
			p.depth--
			return nil
		case tok.Is(";"):
			return parseErr(ErrMalformedStatement, tok.Line, tok.Col,
				"';' inside a descendant list: %d unclosed '('", p.depth)
		default:
			if !expecting {
				return parseErr(ErrInvalidToken, tok.Line, tok.Col,
					"expected ',' or ')' in descendant list, found %q", tok.Value)
			}
			child := parent.NewChild()
			if err := p.parseNode(t, child, tok); err != nil {
				return err
			}
			expecting = false
		}
	}
}

// finishNode consumes a node's suffix: an optional label, an optional
// ':' length, and an optional {n} edge number. For leaves the first
// suffix token has already been consumed and is passed in.
func (p *Reader) finishNode(nd *tree.Node, internal bool, first *nexus.Token) error {
	p.attachComments(nd, nil)
	hasLabel, hasLength := false, false
loop:
	for {
		var tok nexus.Token
		if first != nil {
			tok, first = *first, nil
		} else {
			pk, err := p.tk.Peek()
			if err == io.EOF {
				break loop
			} else if err != nil {
				return err
			}
			if pk.Is(",") || pk.Is(")") || pk.Is(";") {
				break loop
			}
			tok, _ = p.tk.Next()
		}

		switch {
		case tok.Is(":"):
			if hasLength {
				return parseErr(ErrMalformedStatement, tok.Line, tok.Col,
					"multiple branch lengths for one node")
			}
			if err := p.parseEdgeLength(nd); err != nil {
				return err
			}
			hasLength = true
			p.attachComments(nd, nd.Edge)
		case tok.Is("{"):
			if !p.cfg.JplaceEdgeNumbers {
				return parseErr(ErrInvalidToken, tok.Line, tok.Col,
					"unexpected '{' (jplace edge numbers are not enabled)")
			}
			if err := p.parseEdgeNumber(nd); err != nil {
				return err
			}
			p.attachComments(nd, nd.Edge)
		case tok.Is("("):
			return parseErr(ErrMalformedStatement, tok.Line, tok.Col,
				"'(' found where a node should be closing")
		case isPunct(tok):
			return parseErr(ErrInvalidToken, tok.Line, tok.Col,
				"unexpected %q in node description", tok.Value)
		default:
			if hasLabel || hasLength {
				return parseErr(ErrMalformedStatement, tok.Line, tok.Col,
					"unexpected second label %q for one node", tok.Value)
			}
			if err := p.assignLabel(nd, internal, tok); err != nil {
				return err
			}
			hasLabel = true
			p.attachComments(nd, nil)
		}
	}

	// Comments scanned along with the lookahead token belong to the
	// node (or its edge) being completed here, not to what follows.
	if hasLength {
		p.attachComments(nd, nd.Edge)
	} else {
		p.attachComments(nd, nil)
	}
	return nil
}

// assignLabel routes a label token per the suppression flags: to the
// symbol resolver, to the node's free label, or nowhere.
func (p *Reader) assignLabel(nd *tree.Node, internal bool, tok nexus.Token) error {
	useTaxon, useLabel := !p.cfg.SuppressLeafTaxa, !p.cfg.SuppressLeafLabels
	if internal {
		useTaxon, useLabel = !p.cfg.SuppressInternalTaxa, !p.cfg.SuppressInternalLabels
	}
	if useTaxon {
		tx, err := p.res.Resolve(tok.Value)
		if err != nil {
			return &ParseError{Err: err, Line: tok.Line, Col: tok.Col, Msg: err.Error()}
		}
		if p.seen[tx] {
			return parseErr(ErrDuplicateTaxon, tok.Line, tok.Col,
				"taxon %q occurs more than once in this tree statement", tx.Label())
		}
		p.seen[tx] = true
		nd.Taxon = tx
		return nil
	}
	if useLabel {
		nd.Label = tok.Value
	}
	return nil
}

func (p *Reader) parseEdgeLength(nd *tree.Node) error {
	tok, err := p.tk.Require()
	if err != nil {
		return err
	}
	if isPunct(tok) {
		return parseErr(ErrInvalidValue, tok.Line, tok.Col,
			"expected a branch length after ':', found %q", tok.Value)
	}
	var v float64
	if p.cfg.IntegerEdgeLengths {
		n, perr := strconv.ParseInt(tok.Value, 10, 64)
		if perr != nil {
			return parseErr(ErrInvalidValue, tok.Line, tok.Col,
				"invalid integer branch length %q", tok.Value)
		}
		v = float64(n)
	} else {
		f, perr := strconv.ParseFloat(tok.Value, 64)
		if perr != nil {
			return parseErr(ErrInvalidValue, tok.Line, tok.Col,
				"invalid branch length %q", tok.Value)
		}
		v = f
	}
	nd.Edge.Length = &v
	return nil
}

// parseEdgeNumber consumes the "n}" remainder of a {n} suffix.
func (p *Reader) parseEdgeNumber(nd *tree.Node) error {
	tok, err := p.tk.Require()
	if err != nil {
		return err
	}
	n, aerr := strconv.Atoi(tok.Value)
	if aerr != nil {
		return parseErr(ErrInvalidValue, tok.Line, tok.Col,
			"invalid jplace edge number %q", tok.Value)
	}
	closer, err := p.tk.Require()
	if err != nil {
		return err
	}
	if !closer.Is("}") {
		return parseErr(ErrInvalidToken, closer.Line, closer.Col,
			"expected '}' after jplace edge number, found %q", closer.Value)
	}
	nd.Edge.Number = &n
	return nil
}

// attachComments drains the tokenizer's side channel onto the node,
// or onto e when the parser has just completed an edge property.
func (p *Reader) attachComments(nd *tree.Node, e *tree.Edge) {
	for _, c := range p.tk.PullComments() {
		if p.cfg.ExtractMetadata && strings.HasPrefix(c, "&") {
			anns := parseMetadata(c)
			if e != nil {
				e.Annotations = append(e.Annotations, anns...)
			} else {
				nd.Annotations = append(nd.Annotations, anns...)
			}
			continue
		}
		if e != nil {
			e.Comments = append(e.Comments, c)
		} else {
			nd.Comments = append(nd.Comments, c)
		}
	}
}

// applyTreeComments interprets statement-level comments: rooting
// directives, weight directives, metadata, or plain comment text.
func (p *Reader) applyTreeComments(t *tree.Tree, comments []string) error {
	for _, c := range comments {
		folded := strings.ToUpper(strings.TrimSpace(c))
		switch {
		case folded == "&R":
			t.Rootedness = tree.Rooted
		case folded == "&U":
			t.Rootedness = tree.Unrooted
		case isWeightComment(folded):
			if !p.cfg.StoreTreeWeights {
				t.Comments = append(t.Comments, c)
				continue
			}
			w, err := parseTreeWeight(strings.TrimSpace(strings.TrimSpace(c)[2:]))
			if err != nil {
				line, col := p.tk.Pos()
				return parseErr(ErrInvalidValue, line, col,
					"invalid tree weight in comment [%s]", c)
			}
			t.Weight = &w
		case strings.HasPrefix(c, "&"):
			if p.cfg.ExtractMetadata {
				t.Annotations = append(t.Annotations, parseMetadata(c)...)
			} else {
				t.Comments = append(t.Comments, c)
			}
		default:
			t.Comments = append(t.Comments, c)
		}
	}
	return nil
}

func (p *Reader) finalizeRooting(t *tree.Tree) {
	switch p.cfg.Rooting {
	case RootingForceRooted:
		t.Rootedness = tree.Rooted
	case RootingForceUnrooted:
		t.Rootedness = tree.Unrooted
	case RootingDefaultRooted:
		if t.Rootedness == tree.RootednessUndefined {
			t.Rootedness = tree.Rooted
		}
	case RootingDefaultUnrooted:
		if t.Rootedness == tree.RootednessUndefined {
			t.Rootedness = tree.Unrooted
		}
	}
}

// parseTreeWeight parses the value of a [&W ...] directive: an
// integer, an int/int rational, or a float.
func parseTreeWeight(s string) (float64, error) {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		num, err := strconv.ParseInt(strings.TrimSpace(s[:i]), 10, 64)
		if err != nil {
			return 0, err
		}
		den, err := strconv.ParseInt(strings.TrimSpace(s[i+1:]), 10, 64)
		if err != nil {
			return 0, err
		}
		if den == 0 {
			return 0, strconv.ErrRange
		}
		return float64(num) / float64(den), nil
	}
	return strconv.ParseFloat(s, 64)
}

// isWeightComment distinguishes a [&W ...] directive from metadata
// that merely starts with "&w" (e.g. "&weight=2").
func isWeightComment(folded string) bool {
	if !strings.HasPrefix(folded, "&W") {
		return false
	}
	rest := folded[2:]
	return rest == "" || !unicode.IsLetter(rune(rest[0]))
}

// isPunct reports whether tok is unquoted Newick punctuation rather
// than label material.
func isPunct(tok nexus.Token) bool {
	if tok.Quoted || len(tok.Value) != 1 {
		return false
	}
	return strings.ContainsAny(tok.Value, "(),;:={}")
}
