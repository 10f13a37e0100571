package taxa

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownTaxon is reported when a symbol matches no translate
// entry, label, or ordinal, and the namespace does not permit
// creating new taxa.
var ErrUnknownTaxon = errors.New("unknown taxon")

// ResolverConfig enumerates the resolver's lookup behavior.
type ResolverConfig struct {
	// CaseSensitive controls label matching. When false (the default
	// for Newick/NEXUS), "Homo" and "HOMO" match the same taxon.
	CaseSensitive bool

	// AllowOrdinals permits interpreting an otherwise-unmatched
	// numeric symbol as a 1-based position in the namespace's
	// accession order.
	AllowOrdinals bool
}

// A Resolver maps symbol strings from one parse session to Taxon
// identities within a single namespace.
//
// Construction snapshots the namespace's mutability flag and forces
// the namespace immutable, so external code cannot race resolver-
// driven creation during a parse; Close restores the prior flag.
// The resolver's own creation path re-enables mutability around each
// single insertion, and only if the namespace was mutable to begin
// with.
//
// Resolution is idempotent: the same symbol always yields the same
// Taxon for the resolver's lifetime, whichever lookup path it takes.
type Resolver struct {
	ns         *Namespace
	cfg        ResolverConfig
	translate  map[string]*Taxon
	byLabel    map[string]*Taxon
	wasMutable bool
	closed     bool
}

// NewResolver returns a resolver over ns and locks the namespace.
// Callers must Close it to restore the namespace's mutability.
func NewResolver(ns *Namespace, cfg ResolverConfig) *Resolver {
	r := &Resolver{
		ns:         ns,
		cfg:        cfg,
		translate:  make(map[string]*Taxon),
		byLabel:    make(map[string]*Taxon),
		wasMutable: ns.Mutable(),
	}
	ns.SetMutable(false)
	for _, t := range ns.All() {
		r.index(t)
	}
	return r
}

// Namespace returns the namespace this resolver is bound to.
func (r *Resolver) Namespace() *Namespace { return r.ns }

// Close restores the namespace's mutability flag to its value at
// construction. It is safe to call more than once.
func (r *Resolver) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.ns.SetMutable(r.wasMutable)
}

// MapTranslateToken registers a translate-table entry, as declared by
// a NEXUS TRANSLATE statement. Translate entries take precedence over
// every other lookup path.
func (r *Resolver) MapTranslateToken(token string, t *Taxon) {
	r.translate[r.fold(token)] = t
}

// Resolve maps a symbol to a taxon: translate table first, then
// existing labels, then (if enabled) 1-based ordinal position, and
// finally creation of a new taxon when the namespace allows it.
func (r *Resolver) Resolve(symbol string) (*Taxon, error) {
	if t, ok := r.translate[r.fold(symbol)]; ok {
		return t, nil
	}
	if t, ok := r.byLabel[r.fold(symbol)]; ok {
		return t, nil
	}
	if r.cfg.AllowOrdinals {
		if n, err := strconv.Atoi(symbol); err == nil && n >= 1 && n <= r.ns.Len() {
			return r.ns.At(n - 1), nil
		}
	}
	if !r.wasMutable {
		return nil, &ResolveError{Symbol: symbol, Namespace: r.ns.Label()}
	}
	r.ns.SetMutable(true)
	t, err := r.ns.Add(symbol)
	r.ns.SetMutable(false)
	if err != nil {
		return nil, err
	}
	r.index(t)
	return t, nil
}

func (r *Resolver) index(t *Taxon) {
	key := t.Label()
	if !r.cfg.CaseSensitive {
		key = t.FoldedLabel()
	}
	// First taxon with a given label wins; later duplicates stay
	// reachable only by identity or ordinal.
	if _, ok := r.byLabel[key]; !ok {
		r.byLabel[key] = t
	}
}

func (r *Resolver) fold(s string) string {
	if r.cfg.CaseSensitive {
		return s
	}
	return strings.ToLower(s)
}

// A ResolveError reports a symbol that matched nothing in an
// immutable namespace.
type ResolveError struct {
	Symbol    string
	Namespace string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("taxa: unknown taxon %q in immutable namespace %q",
		e.Symbol, e.Namespace)
}

func (e *ResolveError) Unwrap() error { return ErrUnknownTaxon }
