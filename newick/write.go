package newick

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/TuftsBCB/phylo/tree"
)

// characters that force a label into quotes when serializing
const needsQuoting = " _()[]{}':;,=\"\t\n\r"

// Write serializes t as a single Newick statement followed by a
// newline.
func Write(w io.Writer, t *tree.Tree) error {
	_, err := io.WriteString(w, String(t)+"\n")
	return err
}

// String returns t as a Newick statement, including rooting and
// weight comments when those are set. Edge lengths are written with
// the shortest representation that round-trips through a float64, so
// parsing the output reconstructs the same topology, leaf labels,
// lengths, and rootedness.
func String(t *tree.Tree) string {
	var b strings.Builder
	switch t.Rootedness {
	case tree.Rooted:
		b.WriteString("[&R] ")
	case tree.Unrooted:
		b.WriteString("[&U] ")
	}
	if t.Weight != nil {
		fmt.Fprintf(&b, "[&W %s] ", formatLength(*t.Weight))
	}
	writeNode(&b, t.Seed)
	b.WriteByte(';')
	return b.String()
}

func writeNode(b *strings.Builder, nd *tree.Node) {
	if !nd.IsLeaf() {
		b.WriteByte('(')
		for i, c := range nd.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNode(b, c)
		}
		b.WriteByte(')')
	}
	label := nd.Label
	if nd.Taxon != nil {
		label = nd.Taxon.Label()
	}
	if label != "" {
		b.WriteString(quoteLabel(label))
	}
	if nd.Edge != nil {
		if nd.Edge.Length != nil {
			b.WriteByte(':')
			b.WriteString(formatLength(*nd.Edge.Length))
		}
		if nd.Edge.Number != nil {
			fmt.Fprintf(b, "{%d}", *nd.Edge.Number)
		}
	}
}

// quoteLabel quotes a label when it contains characters that the
// tokenizer would otherwise treat as delimiters, quotes, comments, or
// underscore-to-space conversions.
func quoteLabel(s string) string {
	if !strings.ContainsAny(s, needsQuoting) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func formatLength(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
