package newick

import (
	"github.com/TuftsBCB/phylo/taxa"
	"github.com/TuftsBCB/phylo/tree"
)

// RootingPolicy governs the rootedness assigned to trees whose
// statements carry no explicit [&R]/[&U] directive. The Force
// policies also override an explicit directive.
type RootingPolicy int

const (
	// RootingDefaultUndefined leaves rootedness undefined unless a
	// directive says otherwise.
	RootingDefaultUndefined RootingPolicy = iota

	// RootingDefaultRooted/Unrooted apply when no directive is
	// present.
	RootingDefaultRooted
	RootingDefaultUnrooted

	// RootingForceRooted/Unrooted apply unconditionally.
	RootingForceRooted
	RootingForceUnrooted
)

// A TreeFactory produces an empty tree with a seed node. It is the
// boundary through which callers control the concrete trees built by
// the parser.
type TreeFactory func() *tree.Tree

// Config enumerates the parser's behavior toggles.
type Config struct {
	// Suppression flags control what happens to a permitted label at
	// each kind of node: when taxa are not suppressed the label is
	// resolved to a Taxon identity; otherwise, when free labels are
	// not suppressed, it is stored verbatim on the node; otherwise it
	// is dropped. The zero value maps leaf labels to taxa and keeps
	// internal labels as free labels once SuppressInternalTaxa is set
	// (see DefaultConfig).
	SuppressLeafTaxa       bool
	SuppressLeafLabels     bool
	SuppressInternalTaxa   bool
	SuppressInternalLabels bool

	Rooting RootingPolicy

	// IntegerEdgeLengths parses edge lengths as base-10 integers
	// instead of floating point.
	IntegerEdgeLengths bool

	// StoreTreeWeights interprets [&W n], [&W n/d] and [&W f]
	// comments; otherwise such comments are stored verbatim.
	StoreTreeWeights bool

	// ExtractMetadata parses '&'-prefixed comments into key/value
	// annotations (NHX and FigTree/BEAST grammars).
	ExtractMetadata bool

	// JplaceEdgeNumbers accepts a {n} integer edge-number suffix.
	JplaceEdgeNumbers bool

	// AllowMissingSemicolon accepts a statement terminated by end of
	// stream rather than ';'.
	AllowMissingSemicolon bool

	// PreserveUnderscores disables underscore-to-space conversion in
	// unquoted labels.
	PreserveUnderscores bool

	// CaseSensitiveTaxa and AllowOrdinalTaxa configure the internally
	// built resolver; they are ignored when Resolver is supplied.
	CaseSensitiveTaxa bool
	AllowOrdinalTaxa  bool

	// TreeFactory, when nil, defaults to tree.New.
	TreeFactory TreeFactory

	// Resolver, when nil, is built over a fresh namespace owned by
	// the reader and released by Close.
	Resolver *taxa.Resolver
}

// DefaultConfig returns the conventional Newick settings: leaf labels
// resolve to taxa, internal labels stay free labels, rootedness is
// undefined unless directed, semicolons are required.
func DefaultConfig() Config {
	return Config{SuppressInternalTaxa: true}
}
