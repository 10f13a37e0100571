/*
Package newick reads and writes trees in the Newick format, as it
appears standalone or inside NEXUS TREES blocks. The reader is a
recursive-descent parser over the nexus tokenizer: it consumes one
';'-terminated statement per call, resolves node labels to taxon
identities through a taxa.Resolver, and understands the common
extensions to the base grammar: quoted labels with doubling escape,
bracketed comments carrying NHX or FigTree/BEAST metadata, [&R]/[&U]
rooting and [&W] weight directives, and jplace {n} edge numbers.

The grammar accepted is deliberately permissive: anonymous nodes
("(,);"), unlabeled internal nodes, and bare-taxon statements ("A;")
are all valid.
*/
package newick
