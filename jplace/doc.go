/*
Package jplace reads phylogenetic placement documents in the jplace
format (version 2 and 3). A jplace file is a JSON object whose
"tree" member is a Newick string with {n} edge numbers; placements
refer back to those numbers. The reference tree is parsed with the
newick package, edge numbers enabled.

See Matsen et al., "A format for phylogenetic placements", PLoS ONE
7(2), for the format definition.
*/
package jplace
