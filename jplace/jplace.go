package jplace

import (
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/TuftsBCB/phylo/newick"
	"github.com/TuftsBCB/phylo/tree"
)

// A Document is a parsed jplace placement file.
type Document struct {
	Version int
	Fields  []string

	// Tree is the reference tree; its edges carry the {n} numbers
	// placements refer to.
	Tree *tree.Tree

	Placements []Placement
}

// A Placement assigns one or more query sequences to candidate
// locations on the reference tree.
type Placement struct {
	// Names of the placed sequences, from the "n" or "nm" member.
	Names []string

	// Multiplicities parallels Names when the document uses "nm";
	// otherwise nil.
	Multiplicities []float64

	Locations []Location
}

// A Location is one row of a placement's "p" matrix, keyed by the
// document's declared fields.
type Location struct {
	// EdgeNum is the value of the required "edge_num" field.
	EdgeNum int

	// Values maps each declared field name to its value in this row.
	Values map[string]float64
}

// Read parses a jplace document from r.
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses a jplace document from its JSON encoding.
func Parse(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("jplace: input is not valid JSON")
	}
	root := gjson.ParseBytes(data)

	version := root.Get("version")
	if !version.Exists() {
		return nil, fmt.Errorf("jplace: missing required member \"version\"")
	}
	doc := &Document{Version: int(version.Int())}

	fields := root.Get("fields")
	if !fields.IsArray() {
		return nil, fmt.Errorf("jplace: missing required member \"fields\"")
	}
	edgeCol := -1
	for i, f := range fields.Array() {
		doc.Fields = append(doc.Fields, f.String())
		if f.String() == "edge_num" {
			edgeCol = i
		}
	}
	if edgeCol < 0 {
		return nil, fmt.Errorf("jplace: \"fields\" lacks the required \"edge_num\" entry")
	}

	treeStr := root.Get("tree")
	if !treeStr.Exists() {
		return nil, fmt.Errorf("jplace: missing required member \"tree\"")
	}
	cfg := newick.DefaultConfig()
	cfg.JplaceEdgeNumbers = true
	cfg.PreserveUnderscores = true
	rd := newick.NewReader(strings.NewReader(treeStr.String()), cfg)
	defer rd.Close()
	t, err := rd.ReadTree()
	if err != nil {
		return nil, fmt.Errorf("jplace: reference tree: %w", err)
	}
	doc.Tree = t

	for _, pl := range root.Get("placements").Array() {
		p, err := parsePlacement(pl, doc.Fields, edgeCol)
		if err != nil {
			return nil, err
		}
		doc.Placements = append(doc.Placements, p)
	}
	return doc, nil
}

func parsePlacement(pl gjson.Result, fields []string, edgeCol int) (Placement, error) {
	var p Placement
	for _, n := range pl.Get("n").Array() {
		p.Names = append(p.Names, n.String())
	}
	for _, nm := range pl.Get("nm").Array() {
		pair := nm.Array()
		if len(pair) != 2 {
			return p, fmt.Errorf("jplace: malformed \"nm\" entry %s", nm.Raw)
		}
		p.Names = append(p.Names, pair[0].String())
		p.Multiplicities = append(p.Multiplicities, pair[1].Float())
	}
	for _, row := range pl.Get("p").Array() {
		cells := row.Array()
		if len(cells) != len(fields) {
			return p, fmt.Errorf("jplace: placement row has %d values for %d fields",
				len(cells), len(fields))
		}
		loc := Location{
			EdgeNum: int(cells[edgeCol].Int()),
			Values:  make(map[string]float64, len(fields)),
		}
		for i, cell := range cells {
			loc.Values[fields[i]] = cell.Float()
		}
		p.Locations = append(p.Locations, loc)
	}
	return p, nil
}

// EdgeIndex walks the reference tree and maps each jplace edge
// number to its edge.
func (d *Document) EdgeIndex() map[int]*tree.Edge {
	idx := make(map[int]*tree.Edge)
	var walk func(nd *tree.Node)
	walk = func(nd *tree.Node) {
		if nd.Edge != nil && nd.Edge.Number != nil {
			idx[*nd.Edge.Number] = nd.Edge
		}
		for _, c := range nd.Children {
			walk(c)
		}
	}
	if d.Tree != nil && d.Tree.Seed != nil {
		walk(d.Tree.Seed)
	}
	return idx
}
