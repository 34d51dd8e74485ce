// Package parser implements recursive-descent parsing of a PDF token
// stream (see package tokenizer) into the object tree defined by
// package model. It knows nothing about cross-reference tables or
// object identity beyond what it can read inline; resolving an
// indirect /Length is delegated to a caller-supplied LengthResolver
// once an xref table exists.
package parser

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/corvidlabs/pdfcore/model"
	"github.com/corvidlabs/pdfcore/tokenizer"
)

var (
	ErrArrayNotTerminated = errors.New("parser: unterminated array")
	ErrDictCorrupt        = errors.New("parser: corrupted dictionary")
	ErrDictDuplicateKey   = errors.New("parser: duplicate dictionary key")
	ErrDictNotTerminated  = errors.New("parser: unterminated dictionary")
	ErrUnexpectedToken    = errors.New("parser: unexpected token")
)

// LengthResolver resolves an indirect /Length reference to a byte
// count. It is supplied by the xref/document layer, which is the only
// layer that knows the object index; the parser package itself never
// imports xref to avoid a cycle.
type LengthResolver func(model.Reference) (int, bool)

// Parser parses a single chunk of PDF syntax: an object, an array, a
// dictionary, or a stream header. It does not span multiple top-level
// objects on its own; callers loop calling ParseObjectDefinition for
// that (see package xref).
type Parser struct {
	tokens *tokenizer.Tokenizer
	data   []byte

	resolveLength LengthResolver
}

// NewParser creates a Parser reading from data.
func NewParser(data []byte) *Parser {
	return &Parser{tokens: tokenizer.NewTokenizer(data), data: data}
}

// NewParserFromTokenizer shares an existing Tokenizer (and the byte
// slice it was built from) with a new Parser.
func NewParserFromTokenizer(tokens *tokenizer.Tokenizer, data []byte) *Parser {
	return &Parser{tokens: tokens, data: data}
}

// SetLengthResolver installs the callback used to resolve a stream's
// /Length when it is an indirect reference. Without one, such streams
// always fall back to endstream-scanning recovery.
func (p *Parser) SetLengthResolver(r LengthResolver) { p.resolveLength = r }

// ParseObject parses one PDF object from the start of data.
func ParseObject(data []byte) (model.Object, error) {
	p := NewParser(data)
	return p.ParseObject()
}

// ParseObject parses one PDF object from the token stream.
func (p *Parser) ParseObject() (model.Object, error) {
	tk, err := p.tokens.NextToken()
	if err != nil {
		return nil, err
	}

	switch tk.Kind {
	case tokenizer.EOF:
		return nil, model.ErrTruncatedFile
	case tokenizer.Name:
		return model.Name(tk.Value), nil
	case tokenizer.String:
		return model.StringObject{Value: []byte(tk.Value), Kind: model.LiteralString}, nil
	case tokenizer.StringHex:
		return model.StringObject{Value: []byte(tk.Value), Kind: model.HexString}, nil
	case tokenizer.StartArray:
		return p.parseArray()
	case tokenizer.StartDict:
		// Try strict dictionary parsing first; some generators
		// terminate a key with EOL instead of supplying a value,
		// which strict parsing rejects. Retry relaxed on failure
		// rather than paying the relaxed path's cost up front.
		save := p.tokens.CurrentPosition()
		dict, err := p.parseDict(false)
		if err != nil {
			p.tokens.SetPosition(save)
			dict, err = p.parseDict(true)
		}
		if err != nil {
			return nil, err
		}
		return p.maybeStream(dict)
	case tokenizer.Real:
		f, err := tk.Float()
		if err != nil {
			return nil, err
		}
		return model.Real(f), nil
	case tokenizer.Other:
		return p.parseKeyword(tk.Value)
	case tokenizer.Integer:
		return p.parseNumericOrReference(tk)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedToken, tk.Kind)
	}
}

func (p *Parser) parseArray() (model.Array, error) {
	arr := model.Array{}
	for {
		tk, err := p.tokens.PeekToken()
		if err != nil {
			return nil, err
		}
		switch tk.Kind {
		case tokenizer.EndArray:
			p.tokens.NextToken()
			return arr, nil
		case tokenizer.EOF:
			return nil, ErrArrayNotTerminated
		default:
			obj, err := p.ParseObject()
			if err != nil {
				return nil, err
			}
			arr = append(arr, obj)
		}
	}
}

// parseDict parses up to the closing `>>`. In relaxed mode, a key
// immediately followed by end-of-line (instead of a value token) is
// given an empty literal string value rather than erroring, matching
// a dialect some broken PDF generators emit.
func (p *Parser) parseDict(relaxed bool) (model.Dict, error) {
	d := model.Dict{}
	for {
		tk, err := p.tokens.PeekToken()
		if err != nil {
			return nil, err
		}
		switch tk.Kind {
		case tokenizer.EndDict:
			p.tokens.NextToken()
			return d, nil
		case tokenizer.EOF:
			return nil, ErrDictNotTerminated
		case tokenizer.Name:
			key := model.Name(tk.Value)
			p.tokens.NextToken() // consume the key

			var obj model.Object
			if relaxed && p.tokens.HasEOLBeforeToken() {
				obj = model.StringObject{Kind: model.LiteralString}
			} else {
				obj, err = p.ParseObject()
				if err != nil {
					return nil, err
				}
			}

			// A null value is equivalent to the entry being absent.
			if _, isNull := obj.(model.Null); isNull {
				continue
			}
			if _, dup := d[key]; dup {
				return nil, fmt.Errorf("%w: %s", ErrDictDuplicateKey, key)
			}
			d[key] = obj
		default:
			return nil, fmt.Errorf("%w: key expected, got %s", ErrDictCorrupt, tk.Kind)
		}
	}
}

func (p *Parser) parseKeyword(value string) (model.Object, error) {
	switch value {
	case "null":
		return model.Null{}, nil
	case "true":
		return model.Boolean(true), nil
	case "false":
		return model.Boolean(false), nil
	default:
		return nil, fmt.Errorf("%w: unexpected keyword %q", ErrUnexpectedToken, value)
	}
}

// parseNumericOrReference disambiguates a bare integer from the
// three-token sequence `n g R`, the one place the lexer's two-token
// lookahead earns its keep.
func (p *Parser) parseNumericOrReference(first tokenizer.Token) (model.Object, error) {
	n, err := first.Int()
	if err != nil {
		return nil, err
	}

	next, err := p.tokens.PeekToken()
	if err != nil || next.Kind != tokenizer.Integer {
		return model.Integer(n), nil
	}
	g, err := next.Int()
	if err != nil {
		return model.Integer(n), nil
	}

	nextNext, _ := p.tokens.PeekPeekToken()
	if !nextNext.IsOther("R") {
		return model.Integer(n), nil
	}

	p.tokens.NextToken() // generation
	p.tokens.NextToken() // "R"
	return model.Reference{ObjectNumber: n, GenerationNumber: g}, nil
}

// maybeStream checks whether a just-parsed dictionary is immediately
// followed by a stream body, and if so consumes it.
func (p *Parser) maybeStream(dict model.Dict) (model.Object, error) {
	tk, err := p.tokens.PeekToken()
	if err != nil || !tk.IsOther("stream") {
		return dict, nil
	}
	p.tokens.NextToken()
	start := p.tokens.StreamPosition()

	length, recovered, ok := p.streamLength(dict)
	var content []byte
	if ok {
		end := start + length
		if end > len(p.data) {
			end = len(p.data)
		}
		content = p.data[start:end]
		p.tokens.SetPosition(end)
	} else {
		content, recovered = p.scanForEndstream(start)
		p.tokens.SetPosition(start + len(content))
	}

	// Consume the trailing `endstream` keyword if present so the
	// caller's tokenizer resumes cleanly after it.
	if tk, err := p.tokens.PeekToken(); err == nil && tk.IsOther("endstream") {
		p.tokens.NextToken()
	}

	return model.Stream{Dict: dict, Content: content, LengthRecovered: recovered}, nil
}

// streamLength resolves /Length to a byte count. ok is false when the
// length is missing, not an integer, or an unresolved reference,
// signaling the caller to fall back to endstream scanning.
func (p *Parser) streamLength(dict model.Dict) (length int, recovered bool, ok bool) {
	lengthObj, has := dict[model.Name("Length")]
	if !has {
		return 0, true, false
	}
	switch v := lengthObj.(type) {
	case model.Integer:
		return int(v), false, true
	case model.Reference:
		if p.resolveLength == nil {
			return 0, true, false
		}
		n, resolvedOK := p.resolveLength(v)
		if !resolvedOK {
			return 0, true, false
		}
		return n, false, true
	default:
		return 0, true, false
	}
}

var endstreamMarker = []byte("endstream")

// scanForEndstream is the length-recovery path: search forward for
// the next `endstream` keyword and treat everything before it (minus
// a single trailing EOL, if present) as the stream content.
func (p *Parser) scanForEndstream(start int) (content []byte, recovered bool) {
	rel := bytes.Index(p.data[start:], endstreamMarker)
	if rel < 0 {
		return p.data[start:], true
	}
	end := start + rel
	// trim exactly one trailing EOL, as generators commonly place
	// `endstream` on its own line
	if end > start && p.data[end-1] == '\n' {
		end--
		if end > start && p.data[end-1] == '\r' {
			end--
		}
	}
	return p.data[start:end], true
}

// ParseObjectDefinition parses one `n g obj ... endobj` header. If
// headerOnly, it stops right after the header and returns a nil
// object (used by the xref linear-scan recovery path, which only
// needs object numbers and offsets).
func ParseObjectDefinition(data []byte, headerOnly bool) (objectNumber, generationNumber int, obj model.Object, err error) {
	return ParseObjectDefinitionWithResolver(data, headerOnly, nil)
}

// ParseObjectDefinitionWithResolver is ParseObjectDefinition with a
// LengthResolver installed before the object body is parsed, so the
// xref/document layer that owns the object index can resolve an
// indirect /Length inline instead of falling back to endstream
// scanning.
func ParseObjectDefinitionWithResolver(data []byte, headerOnly bool, resolver LengthResolver) (objectNumber, generationNumber int, obj model.Object, err error) {
	tokens := tokenizer.NewTokenizer(data)

	tok, err := tokens.NextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	n, err := tok.Int()
	if tok.Kind != tokenizer.Integer || err != nil {
		return 0, 0, nil, fmt.Errorf("%w: missing object number", ErrUnexpectedToken)
	}

	tok, err = tokens.NextToken()
	if err != nil {
		return 0, 0, nil, err
	}
	g, err := tok.Int()
	if tok.Kind != tokenizer.Integer || err != nil {
		return 0, 0, nil, fmt.Errorf("%w: missing generation number", ErrUnexpectedToken)
	}

	tok, err = tokens.NextToken()
	if err != nil || !tok.IsOther("obj") {
		return 0, 0, nil, fmt.Errorf("%w: missing \"obj\" keyword", ErrUnexpectedToken)
	}

	if headerOnly {
		return n, g, nil, nil
	}

	pr := NewParserFromTokenizer(tokens, data)
	if resolver != nil {
		pr.SetLengthResolver(resolver)
	}
	obj, err = pr.ParseObject()
	return n, g, obj, err
}
