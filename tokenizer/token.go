// Package tokenizer implements the lowest level of PDF processing:
// turning a byte slice into a stream of lexical tokens. It knows
// nothing about object structure; see package parser for that.
package tokenizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corvidlabs/pdfcore/model"
)

// Kind identifies the lexical class of a Token.
type Kind uint8

const (
	EOF Kind = iota
	Integer
	Real
	Name
	String    // literal string (...)
	StringHex // hex string <...>
	StartArray
	EndArray
	StartDict
	EndDict
	Other // keywords: obj, endobj, stream, endstream, xref, trailer,
	// startxref, null, true, false, n, f, R, and content-stream operators
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Integer:
		return "Integer"
	case Real:
		return "Real"
	case Name:
		return "Name"
	case String:
		return "String"
	case StringHex:
		return "StringHex"
	case StartArray:
		return "StartArray"
	case EndArray:
		return "EndArray"
	case StartDict:
		return "StartDict"
	case EndDict:
		return "EndDict"
	case Other:
		return "Other"
	default:
		return "<invalid token>"
	}
}

func isWhitespace(ch byte) bool {
	switch ch {
	case 0, 9, 10, 12, 13, 32:
		return true
	default:
		return false
	}
}

func isDelimiter(ch byte) bool {
	switch ch {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return isWhitespace(ch)
	}
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

// Token is one lexical unit. Value must be interpreted according to
// Kind; parsing packages do that interpretation.
type Token struct {
	Kind  Kind
	Value string
}

// Int parses the token's value as an integer, also accepting real
// values and truncating them toward zero.
func (t Token) Int() (int, error) {
	f, err := t.Float()
	return int(f), err
}

// Float parses the token's value as a float64.
func (t Token) Float() (float64, error) {
	return strconv.ParseFloat(t.Value, 64)
}

// IsNumber reports whether the token is an Integer or a Real.
func (t Token) IsNumber() bool { return t.Kind == Integer || t.Kind == Real }

// IsOther reports whether the token is a keyword/operator token
// matching exactly the given text.
func (t Token) IsOther(s string) bool { return t.Kind == Other && t.Value == s }

func (t Token) startsBinary() bool {
	return t.Kind == Other && t.Value == "stream"
}

// Tokenize splits the whole input into tokens at once; prefer the
// Tokenizer's NextToken for streaming use.
func Tokenize(data []byte) ([]Token, error) {
	tk := NewTokenizer(data)
	var out []Token
	t, err := tk.NextToken()
	for ; t.Kind != EOF && err == nil; t, err = tk.NextToken() {
		out = append(out, t)
	}
	return out, err
}

// Tokenizer is a PDF lexer with two tokens of lookahead, which is what
// the object parser needs to disambiguate `N G R` indirect references
// from a bare integer followed by another integer.
type Tokenizer struct {
	data []byte

	pos        int // read cursor, past the end of the +2 token
	currentPos int // end of the current (already returned) token
	nextPos    int // end of the +1 token

	aToken  Token // +1 lookahead
	aError  error
	aaToken Token // +2 lookahead
	aaError error

	sawEOLBeforeCurrent bool // set by nextToken for the token it just lexed
	aEOL                bool // EOL seen before the +1 token
	aaEOL               bool // EOL seen before the +2 token
}

// NewTokenizer creates a Tokenizer reading from data, starting at
// position 0.
func NewTokenizer(data []byte) *Tokenizer {
	tk := &Tokenizer{data: data}
	tk.initiateAt(0)
	return tk
}

func (tk *Tokenizer) initiateAt(pos int) {
	tk.currentPos = pos
	tk.pos = pos
	tk.aToken, tk.aError = tk.nextToken()
	tk.aEOL = tk.sawEOLBeforeCurrent
	tk.nextPos = tk.pos
	tk.aaToken, tk.aaError = tk.nextToken()
	tk.aaEOL = tk.sawEOLBeforeCurrent
}

// PeekToken returns the next token without consuming it.
func (tk *Tokenizer) PeekToken() (Token, error) { return tk.aToken, tk.aError }

// PeekPeekToken returns the token after the next one, without
// consuming anything.
func (tk *Tokenizer) PeekPeekToken() (Token, error) { return tk.aaToken, tk.aaError }

// NextToken consumes and returns the next token. At end of input it
// returns an EOF token with a nil error.
func (tk *Tokenizer) NextToken() (Token, error) {
	t, err := tk.aToken, tk.aError
	tk.aToken, tk.aError = tk.aaToken, tk.aaError
	tk.aEOL = tk.aaEOL
	tk.currentPos = tk.nextPos
	tk.nextPos = tk.pos

	if tk.aaToken.startsBinary() {
		// the lexer never decodes stream content: stop tokenizing
		// until the caller resumes past the raw bytes (see SkipBytes)
		tk.aaToken, tk.aaError = Token{Kind: EOF}, nil
		tk.aaEOL = false
	} else {
		tk.aaToken, tk.aaError = tk.nextToken()
		tk.aaEOL = tk.sawEOLBeforeCurrent
	}
	return t, err
}

// CurrentPosition returns the byte offset just past the last token
// returned by NextToken (i.e. where the lookahead buffer starts).
func (tk *Tokenizer) CurrentPosition() int { return tk.currentPos }

// SetPosition rewinds or advances the tokenizer to start fresh at the
// given byte offset, discarding lookahead.
func (tk *Tokenizer) SetPosition(pos int) { tk.initiateAt(pos) }

// StreamPosition returns the byte offset of the first content byte of
// a stream, assuming the `stream` keyword was just consumed by
// NextToken: per spec §4.1, it must be followed by exactly one \r\n or
// \n.
func (tk *Tokenizer) StreamPosition() int {
	p := tk.currentPos
	if p < len(tk.data) && tk.data[p] == '\r' {
		p++
	}
	if p < len(tk.data) && tk.data[p] == '\n' {
		p++
	}
	return p
}

// HasEOLBeforeToken reports whether the token about to be returned by
// NextToken was preceded by a line break (used by the parser's relaxed
// dictionary-value recovery).
func (tk *Tokenizer) HasEOLBeforeToken() bool { return tk.aEOL }

// SkipBytes skips n raw bytes starting at CurrentPosition and resumes
// tokenizing after them; used to step over stream bodies.
func (tk *Tokenizer) SkipBytes(n int) []byte {
	target := tk.currentPos + n
	if target > len(tk.data) {
		target = len(tk.data)
	}
	out := tk.data[tk.currentPos:target]
	tk.initiateAt(target)
	return out
}

// Bytes returns the remaining unconsumed input.
func (tk *Tokenizer) Bytes() []byte {
	if tk.currentPos >= len(tk.data) {
		return nil
	}
	return tk.data[tk.currentPos:]
}

func isHexChar(c byte) (uint8, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func (tk *Tokenizer) read() (byte, bool) {
	if tk.pos >= len(tk.data) {
		return 0, false
	}
	ch := tk.data[tk.pos]
	tk.pos++
	return ch, true
}

func (tk *Tokenizer) nextToken() (Token, error) {
	ch, ok := tk.read()
	sawEOL := false
	for ok && isWhitespace(ch) {
		if ch == '\n' || ch == '\r' {
			sawEOL = true
		}
		ch, ok = tk.read()
	}
	tk.sawEOLBeforeCurrent = sawEOL
	if !ok {
		return Token{Kind: EOF}, nil
	}

	var outBuf []byte
	switch ch {
	case '[':
		return Token{Kind: StartArray}, nil
	case ']':
		return Token{Kind: EndArray}, nil
	case '/':
		for {
			ch, ok = tk.read()
			if !ok || isDelimiter(ch) {
				break
			}
			if ch == '#' {
				h1, ok1 := tk.read()
				h2, ok2 := tk.read()
				v1, d1 := isHexChar(h1)
				v2, d2 := isHexChar(h2)
				if !ok1 || !ok2 || !d1 || !d2 {
					return Token{}, fmt.Errorf("%w: corrupted name escape", errMalformedToken())
				}
				outBuf = append(outBuf, v1<<4|v2)
				continue
			}
			outBuf = append(outBuf, ch)
		}
		if ok {
			tk.pos-- // keep the delimiter for the next token
		}
		return Token{Kind: Name, Value: string(outBuf)}, nil
	case '>':
		ch, ok = tk.read()
		if ch != '>' {
			return Token{}, fmt.Errorf("%w: lone '>'", errMalformedToken())
		}
		return Token{Kind: EndDict}, nil
	case '<':
		v1, ok1 := tk.read()
		if v1 == '<' {
			return Token{Kind: StartDict}, nil
		}
		var v2 byte
		var ok2 bool
		for {
			for ok1 && isWhitespace(v1) {
				v1, ok1 = tk.read()
			}
			if v1 == '>' {
				break
			}
			nib1, d1 := isHexChar(v1)
			if !d1 {
				return Token{}, fmt.Errorf("%w: invalid hex digit", errMalformedToken())
			}
			v2, ok2 = tk.read()
			for ok2 && isWhitespace(v2) {
				v2, ok2 = tk.read()
			}
			if v2 == '>' {
				// odd length: trailing nibble padded with 0
				outBuf = append(outBuf, nib1<<4)
				break
			}
			nib2, d2 := isHexChar(v2)
			if !d2 {
				return Token{}, fmt.Errorf("%w: invalid hex digit", errMalformedToken())
			}
			outBuf = append(outBuf, nib1<<4|nib2)
			v1, ok1 = tk.read()
		}
		return Token{Kind: StringHex, Value: string(outBuf)}, nil
	case '%':
		ch, ok = tk.read()
		for ok && ch != '\r' && ch != '\n' {
			ch, ok = tk.read()
		}
		return tk.nextToken()
	case '(':
		nesting := 0
		for {
			ch, ok = tk.read()
			if !ok {
				break
			}
			if ch == '(' {
				nesting++
			} else if ch == ')' {
				if nesting == 0 {
					break
				}
				nesting--
			} else if ch == '\\' {
				lineBreak := false
				ch, ok = tk.read()
				switch ch {
				case 'n':
					ch = '\n'
				case 'r':
					ch = '\r'
				case 't':
					ch = '\t'
				case 'b':
					ch = '\b'
				case 'f':
					ch = '\f'
				case '(', ')', '\\':
				case '\r':
					lineBreak = true
					ch, ok = tk.read()
					if ch != '\n' && ok {
						tk.pos--
					}
				case '\n':
					lineBreak = true
				default:
					if ch < '0' || ch > '7' {
						break
					}
					octal := ch - '0'
					ch, ok = tk.read()
					if ch < '0' || ch > '7' {
						if ok {
							tk.pos--
						}
						ch = octal
						break
					}
					octal = octal<<3 + ch - '0'
					ch, ok = tk.read()
					if ch < '0' || ch > '7' {
						if ok {
							tk.pos--
						}
						ch = octal
						break
					}
					octal = octal<<3 + ch - '0'
					ch = octal & 0xff
				}
				if lineBreak {
					continue
				}
				if !ok {
					break
				}
			} else if ch == '\r' {
				ch, ok = tk.read()
				if !ok {
					break
				}
				if ch != '\n' {
					tk.pos--
				}
				ch = '\n'
			}
			outBuf = append(outBuf, ch)
		}
		if !ok && nesting >= 0 {
			return Token{}, fmt.Errorf("%w: unterminated literal string", errMalformedToken())
		}
		return Token{Kind: String, Value: string(outBuf)}, nil
	default:
		tk.pos--
		if token, ok := tk.readNumber(); ok {
			return token, nil
		}
		ch, _ = tk.read()
		outBuf = append(outBuf, ch)
		ch, ok = tk.read()
		for ok && !isDelimiter(ch) {
			outBuf = append(outBuf, ch)
			ch, ok = tk.read()
		}
		if ok {
			tk.pos--
		}
		return Token{Kind: Other, Value: string(outBuf)}, nil
	}
}

// readNumber accepts PDF integers and reals, plus the exponential
// notation occasionally emitted by buggy generators even though the
// PDF spec forbids it.
func (tk *Tokenizer) readNumber() (Token, bool) {
	marked := tk.pos
	var sb strings.Builder

	c, ok := tk.read()
	if c == '+' || c == '-' {
		sb.WriteByte(c)
		c, ok = tk.read()
	}

	hasDigit := false
	for isDigit(c) {
		sb.WriteByte(c)
		c, ok = tk.read()
		hasDigit = true
	}

	isReal := false
	if c == '.' {
		isReal = true
		sb.WriteByte(c)
		c, ok = tk.read()
	} else if sb.Len() == 0 || !hasDigit {
		tk.pos = marked
		return Token{}, false
	} else if c == 'E' || c == 'e' {
		isReal = true
		sb.WriteByte('e')
		c, ok = tk.read()
		if c == '-' || c == '+' {
			sb.WriteByte(c)
			c, ok = tk.read()
		}
	} else {
		if ok {
			tk.pos--
		}
		return Token{Value: sb.String(), Kind: Integer}, true
	}

	for isDigit(c) {
		sb.WriteByte(c)
		c, ok = tk.read()
	}
	if ok {
		tk.pos--
	}
	if !isReal {
		return Token{Value: sb.String(), Kind: Integer}, true
	}
	return Token{Value: sb.String(), Kind: Real}, true
}

func errMalformedToken() error { return model.ErrMalformedToken }

// IsHexChar exposes the hex-digit classification used by the lexer for
// use by callers decoding standalone hex strings (e.g. ASCIIHexDecode).
func IsHexChar(c byte) (uint8, bool) { return isHexChar(c) }
