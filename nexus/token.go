package nexus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnterminatedQuote is reported when a quoted literal is still open
// at the end of the stream.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// ErrUnexpectedEOF is reported when a token was required but the
// stream was exhausted. Plain exhaustion from Next is io.EOF, not an
// error object.
var ErrUnexpectedEOF = errors.New("unexpected end of stream")

// A ScanError wraps one of the tokenizer's sentinel errors with the
// position at which it was detected. Match the kind with errors.Is.
type ScanError struct {
	Err   error
	Line  int
	Col   int
	Quote rune // opening quote, for ErrUnterminatedQuote
}

func (e *ScanError) Error() string {
	if errors.Is(e.Err, ErrUnterminatedQuote) {
		return fmt.Sprintf("nexus: line %d, column %d: unterminated %q-quoted token",
			e.Line, e.Col, e.Quote)
	}
	return fmt.Sprintf("nexus: line %d, column %d: %s", e.Line, e.Col, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// A Token is a single lexical unit: either a one-character captured
// delimiter or a run of ordinary/quoted characters. Line and Col
// locate the token's first character (1-based).
type Token struct {
	Value  string
	Quoted bool
	Line   int
	Col    int
}

// Is reports whether the token is the unquoted punctuation s. A
// quoted token never matches: '(' inside quotes is a label, not a
// delimiter.
func (t Token) Is(s string) bool {
	return !t.Quoted && t.Value == s
}

// Config enumerates the tokenizer's character classes and modes.
type Config struct {
	// UncapturedDelimiters separate tokens and are consumed silently.
	UncapturedDelimiters string

	// CapturedDelimiters are returned as one-character tokens.
	CapturedDelimiters string

	// QuoteChars open a quoted literal, closed by the same character.
	QuoteChars string

	// EscapeQuoteByDoubling collapses two consecutive quote
	// characters inside a literal into one literal quote character.
	EscapeQuoteByDoubling bool

	CommentBegin rune
	CommentEnd   rune

	// CaptureComments appends the content of each comment to the side
	// channel drained by PullComments.
	CaptureComments bool

	// PreserveUnderscores disables the NEXUS convention of reading
	// unquoted underscores as spaces. Quoted content is never
	// normalized.
	PreserveUnderscores bool
}

// NewickConfig returns the fixed grammar profile for NEXUS/Newick
// tree statements.
func NewickConfig() Config {
	return Config{
		UncapturedDelimiters:  " \t\n\r\f\v",
		CapturedDelimiters:    "(),;:={}",
		QuoteChars:            `'"`,
		EscapeQuoteByDoubling: true,
		CommentBegin:          '[',
		CommentEnd:            ']',
		CaptureComments:       true,
	}
}

// A Tokenizer produces a lazy, forward-only sequence of tokens from a
// character stream. It is stateful and must not be shared across
// goroutines.
type Tokenizer struct {
	src *bufio.Reader
	cfg Config

	uncaptured map[rune]bool
	captured   map[rune]bool
	quotes     map[rune]bool

	line int // position of the next unread rune
	col  int

	comments []string

	hasPeek bool
	peekTok Token
	peekErr error

	pushed   bool
	pushR    rune
	pushLine int
	pushCol  int
}

// NewTokenizer returns a tokenizer over r with the given
// configuration.
func NewTokenizer(r io.Reader, cfg Config) *Tokenizer {
	t := &Tokenizer{
		src:        bufio.NewReader(r),
		cfg:        cfg,
		uncaptured: make(map[rune]bool),
		captured:   make(map[rune]bool),
		quotes:     make(map[rune]bool),
		line:       1,
		col:        1,
	}
	for _, r := range cfg.UncapturedDelimiters {
		t.uncaptured[r] = true
	}
	for _, r := range cfg.CapturedDelimiters {
		t.captured[r] = true
	}
	for _, r := range cfg.QuoteChars {
		t.quotes[r] = true
	}
	return t
}

// NewTreeTokenizer returns a tokenizer over r using the NEXUS/Newick
// grammar profile.
func NewTreeTokenizer(r io.Reader) *Tokenizer {
	return NewTokenizer(r, NewickConfig())
}

// Pos returns the line and column of the next unread character.
func (t *Tokenizer) Pos() (line, col int) {
	return t.line, t.col
}

// SetNewlineDelimited moves '\n' and '\r' between the uncaptured and
// captured delimiter classes. Matrix-reading callers enable it so that
// end of line terminates a row; the flag may be toggled mid-stream.
func (t *Tokenizer) SetNewlineDelimited(on bool) {
	for _, r := range "\n\r" {
		if on {
			delete(t.uncaptured, r)
			t.captured[r] = true
		} else {
			delete(t.captured, r)
			t.uncaptured[r] = true
		}
	}
}

// SetHyphenDelimited treats '-' as a captured delimiter while on,
// as needed by numeric-range syntax.
func (t *Tokenizer) SetHyphenDelimited(on bool) {
	if on {
		t.captured['-'] = true
	} else {
		delete(t.captured, '-')
	}
}

// PullComments drains the captured-comment side channel, returning
// the comments collected since the previous drain in order of
// appearance. It returns nil when none were captured.
func (t *Tokenizer) PullComments() []string {
	c := t.comments
	t.comments = nil
	return c
}

// Next returns the next token. At the end of the stream it returns
// io.EOF; all other failures are *ScanError values.
func (t *Tokenizer) Next() (Token, error) {
	if t.hasPeek {
		t.hasPeek = false
		return t.peekTok, t.peekErr
	}
	return t.scan()
}

// Require returns the next token, converting exhaustion into an
// ErrUnexpectedEOF scan error at the current position.
func (t *Tokenizer) Require() (Token, error) {
	tok, err := t.Next()
	if err == io.EOF {
		return Token{}, &ScanError{Err: ErrUnexpectedEOF, Line: t.line, Col: t.col}
	}
	return tok, err
}

// Peek returns the next token without consuming it.
func (t *Tokenizer) Peek() (Token, error) {
	if !t.hasPeek {
		t.peekTok, t.peekErr = t.scan()
		t.hasPeek = true
	}
	return t.peekTok, t.peekErr
}

// PeekFolded returns the upper-cased value of the next token without
// consuming it, for case-insensitive keyword matching. The raw token
// remains retrievable with Next.
func (t *Tokenizer) PeekFolded() (string, error) {
	tok, err := t.Peek()
	if err != nil {
		return "", err
	}
	return strings.ToUpper(tok.Value), nil
}

// next reads one rune, tracking its line and column.
func (t *Tokenizer) next() (r rune, line, col int, err error) {
	if t.pushed {
		t.pushed = false
		return t.pushR, t.pushLine, t.pushCol, nil
	}
	r, _, err = t.src.ReadRune()
	if err != nil {
		return 0, t.line, t.col, err
	}
	line, col = t.line, t.col
	if r == '\n' {
		t.line++
		t.col = 1
	} else {
		t.col++
	}
	return r, line, col, nil
}

// unread pushes back the last rune returned by next. One slot only.
func (t *Tokenizer) unread(r rune, line, col int) {
	t.pushed, t.pushR, t.pushLine, t.pushCol = true, r, line, col
}

func (t *Tokenizer) scan() (Token, error) {
	for {
		r, line, col, err := t.next()
		if err != nil {
			return Token{}, err
		}
		switch {
		case r == t.cfg.CommentBegin:
			if err := t.readComment(line, col); err != nil {
				return Token{}, err
			}
		case t.uncaptured[r]:
			// separator run; nothing to emit
		case t.captured[r]:
			return Token{Value: string(r), Line: line, Col: col}, nil
		case t.quotes[r]:
			return t.readQuoted(r, line, col)
		default:
			return t.readPlain(r, line, col)
		}
	}
}

// readPlain accumulates an unquoted token starting with first. The
// token ends at any delimiter, quote character, or end of stream;
// comments are skipped without splitting the token.
func (t *Tokenizer) readPlain(first rune, line, col int) (Token, error) {
	var b strings.Builder
	write := func(r rune) {
		if r == '_' && !t.cfg.PreserveUnderscores {
			r = ' '
		}
		b.WriteRune(r)
	}
	write(first)
	for {
		r, rl, rc, err := t.next()
		if err == io.EOF {
			break
		} else if err != nil {
			return Token{}, err
		}
		if r == t.cfg.CommentBegin {
			if err := t.readComment(rl, rc); err != nil {
				return Token{}, err
			}
			continue
		}
		if t.uncaptured[r] {
			break
		}
		if t.captured[r] || t.quotes[r] {
			t.unread(r, rl, rc)
			break
		}
		write(r)
	}
	return Token{Value: b.String(), Line: line, Col: col}, nil
}

// readQuoted accumulates a quoted literal opened by q at the given
// position. With doubling escape enabled, qq inside the literal
// reads as one literal q.
func (t *Tokenizer) readQuoted(q rune, line, col int) (Token, error) {
	var b strings.Builder
	for {
		r, _, _, err := t.next()
		if err == io.EOF {
			return Token{}, &ScanError{Err: ErrUnterminatedQuote, Line: line, Col: col, Quote: q}
		} else if err != nil {
			return Token{}, err
		}
		if r != q {
			b.WriteRune(r)
			continue
		}
		if t.cfg.EscapeQuoteByDoubling {
			r2, rl, rc, err := t.next()
			if err == nil && r2 == q {
				b.WriteRune(q)
				continue
			}
			if err == nil {
				t.unread(r2, rl, rc)
			} else if err != io.EOF {
				return Token{}, err
			}
		}
		return Token{Value: b.String(), Quoted: true, Line: line, Col: col}, nil
	}
}

// readComment consumes a comment whose opening bracket was read at
// the given position. Comments nest: an inner begin bracket deepens
// the comment rather than ending it.
func (t *Tokenizer) readComment(line, col int) error {
	var b strings.Builder
	depth := 1
	for {
		r, _, _, err := t.next()
		if err == io.EOF {
			return &ScanError{Err: ErrUnexpectedEOF, Line: line, Col: col}
		} else if err != nil {
			return err
		}
		switch r {
		case t.cfg.CommentBegin:
			depth++
		case t.cfg.CommentEnd:
			depth--
			if depth == 0 {
				if t.cfg.CaptureComments {
					t.comments = append(t.comments, b.String())
				}
				return nil
			}
		}
		b.WriteRune(r)
	}
}
