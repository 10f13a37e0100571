package newick

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for statement parsing. A failed statement
// yields no tree; the error carries the position at which parsing
// stopped. Tokenizer failures (nexus.ErrUnterminatedQuote,
// nexus.ErrUnexpectedEOF) and resolver failures (taxa.ErrUnknownTaxon)
// pass through unchanged.
var (
	// ErrInvalidToken: an unexpected token where the grammar requires
	// a specific one.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMalformedStatement: a structural violation such as
	// unbalanced parentheses or two labels in sequence.
	ErrMalformedStatement = errors.New("malformed tree statement")

	// ErrIncompleteStatement: the stream ended before the terminating
	// ';' and AllowMissingSemicolon is off.
	ErrIncompleteStatement = errors.New("incomplete tree statement")

	// ErrInvalidValue: a non-numeric token where an edge length or
	// weight was expected.
	ErrInvalidValue = errors.New("invalid value")

	// ErrDuplicateTaxon: the same taxon resolved more than once
	// within one tree statement.
	ErrDuplicateTaxon = errors.New("duplicate taxon")
)

// A ParseError wraps a sentinel error kind with position and detail.
// Match the kind with errors.Is.
type ParseError struct {
	Err  error
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("newick: line %d, column %d: %s", e.Line, e.Col, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(kind error, line, col int, format string, v ...interface{}) *ParseError {
	return &ParseError{
		Err:  kind,
		Line: line,
		Col:  col,
		Msg:  fmt.Sprintf(format, v...),
	}
}
