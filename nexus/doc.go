/*
Package nexus provides the character-stream tokenizer underlying the
NEXUS/Newick grammar family. The tokenizer is generic over a Config of
delimiter classes, quote characters, and comment brackets; NewickConfig
is the fixed profile used for tree statements.

Tokens are produced lazily, one at a time, with the line and column of
their first character recorded for error reporting. Comments are
removed from the token stream; when capture is enabled they accumulate
on a side channel drained with PullComments, which lets a parser attach
the comments preceding a token to whatever construct that token
completes.
*/
package nexus
