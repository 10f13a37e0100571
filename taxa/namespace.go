package taxa

import (
	"fmt"
	"strings"
)

// A Taxon is an identity object for a single operational taxonomic
// unit. Taxa are compared by identity; the label is descriptive only.
type Taxon struct {
	label  string
	folded string
}

// NewTaxon returns a free-standing taxon with the given label. Most
// callers should go through Namespace.Add instead, which also assigns
// an accession index.
func NewTaxon(label string) *Taxon {
	return &Taxon{label: label, folded: strings.ToLower(label)}
}

// Label returns the taxon's label.
func (t *Taxon) Label() string { return t.label }

// FoldedLabel returns the lower-cased label, cached for fast
// case-insensitive comparison.
func (t *Taxon) FoldedLabel() string { return t.folded }

func (t *Taxon) String() string { return t.label }

// A NamespaceFactory produces or looks up a namespace for a label.
// Document-level readers supply one so that trees from many files can
// share taxon identities.
type NamespaceFactory func(label string) *Namespace

// A Namespace is an ordered collection of unique taxa. Each taxon
// accepted into the namespace receives a monotonically increasing
// accession index, which is never reassigned while the taxon remains
// a member (downstream bipartition encodings use it as a bit
// position).
//
// A namespace may be shared across many parse sessions; the Mutable
// flag gates taxon creation.
type Namespace struct {
	label   string
	taxa    []*Taxon
	indices map[*Taxon]int
	mutable bool
}

// NewNamespace returns an empty, mutable namespace. The label is
// descriptive and may be empty.
func NewNamespace(label string) *Namespace {
	return &Namespace{
		label:   label,
		indices: make(map[*Taxon]int),
		mutable: true,
	}
}

// Label returns the namespace's own label.
func (ns *Namespace) Label() string { return ns.label }

// Mutable reports whether new taxa may currently be added.
func (ns *Namespace) Mutable() bool { return ns.mutable }

// SetMutable toggles whether new taxa may be added.
func (ns *Namespace) SetMutable(m bool) { ns.mutable = m }

// Len returns the number of taxa in the namespace.
func (ns *Namespace) Len() int { return len(ns.taxa) }

// At returns the taxon at accession index i, or nil if out of range.
func (ns *Namespace) At(i int) *Taxon {
	if i < 0 || i >= len(ns.taxa) {
		return nil
	}
	return ns.taxa[i]
}

// All returns the taxa in accession order. The returned slice is
// shared; callers must not modify it.
func (ns *Namespace) All() []*Taxon { return ns.taxa }

// AccessionIndex returns the index assigned to t at insertion, or -1
// if t is not a member.
func (ns *Namespace) AccessionIndex(t *Taxon) int {
	if i, ok := ns.indices[t]; ok {
		return i
	}
	return -1
}

// Lookup returns the first taxon whose label matches the given label,
// or nil. When caseSensitive is false the comparison uses the cached
// folded labels.
func (ns *Namespace) Lookup(label string, caseSensitive bool) *Taxon {
	if caseSensitive {
		for _, t := range ns.taxa {
			if t.label == label {
				return t
			}
		}
		return nil
	}
	folded := strings.ToLower(label)
	for _, t := range ns.taxa {
		if t.folded == folded {
			return t
		}
	}
	return nil
}

// Add creates a taxon with the given label, assigns it the next
// accession index, and returns it. It fails if the namespace is
// immutable.
func (ns *Namespace) Add(label string) (*Taxon, error) {
	if !ns.mutable {
		return nil, fmt.Errorf("taxa: namespace %q is immutable: cannot add taxon %q",
			ns.label, label)
	}
	t := NewTaxon(label)
	ns.indices[t] = len(ns.taxa)
	ns.taxa = append(ns.taxa, t)
	return t, nil
}
