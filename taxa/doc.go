/*
Package taxa manages taxon identities for tree parsing. A Namespace is
an ordered collection of unique Taxon objects, each assigned a stable
accession index at insertion; a Resolver maps textual symbols from a
tree statement to Taxon identities inside one namespace, consulting a
translate table, the existing labels, and 1-based ordinal positions
before falling back to creating a new taxon.

Equivalence is by identity, not by label: two Taxon objects with the
same label are distinct unless explicitly unified.
*/
package taxa
