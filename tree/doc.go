/*
Package tree defines the in-memory representation of a phylogenetic
tree: a Tree owning a seed (root) Node, Nodes owning ordered child
lists and exactly one Edge each, and Edges carrying optional lengths
and annotations.

Child order is semantically significant: it is the left-to-right order
of the source Newick string. Taxon identity is handled by the taxa
package; a Node holds at most a label or a Taxon reference, depending
on how it was read.
*/
package tree
