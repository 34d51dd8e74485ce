package xref

import (
	"fmt"

	"github.com/corvidlabs/pdfcore/model"
	"github.com/corvidlabs/pdfcore/parser"
	"github.com/corvidlabs/pdfcore/tokenizer"
)

// parseClassicSection parses one classic `xref` table starting right
// after the `xref` keyword has been consumed, per spec §4.3: repeated
// `first count` subsection headers followed by `count` rows of
// `offset generation in-use`, terminated by the `trailer` keyword and
// a trailer dictionary.
func parseClassicSection(tk *tokenizer.Tokenizer, data []byte, table *Table) (model.Dict, error) {
	for {
		peek, err := tk.PeekToken()
		if err != nil {
			return nil, err
		}
		if peek.IsOther("trailer") {
			tk.NextToken()
			pr := parser.NewParserFromTokenizer(tk, data)
			obj, err := pr.ParseObject()
			if err != nil {
				return nil, fmt.Errorf("%w: trailer: %v", model.ErrMalformedXref, err)
			}
			dict, ok := obj.(model.Dict)
			if !ok {
				return nil, fmt.Errorf("%w: trailer is not a dictionary", model.ErrMalformedXref)
			}
			return dict, nil
		}
		if peek.Kind != tokenizer.Integer {
			return nil, fmt.Errorf("%w: %w", model.ErrMalformedXref, errBadSubsection)
		}
		if err := parseSubsection(tk, table); err != nil {
			return nil, err
		}
	}
}

func parseSubsection(tk *tokenizer.Tokenizer, table *Table) error {
	firstTok, err := tk.NextToken()
	if err != nil {
		return err
	}
	first, err := firstTok.Int()
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrMalformedXref, errBadSubsection)
	}

	countTok, err := tk.NextToken()
	if err != nil {
		return err
	}
	count, err := countTok.Int()
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrMalformedXref, errBadSubsection)
	}

	for i := 0; i < count; i++ {
		offsetTok, err := tk.NextToken()
		if err != nil {
			return err
		}
		offset, err := offsetTok.Int()
		if err != nil {
			return fmt.Errorf("%w: %w", model.ErrMalformedXref, errBadEntryRow)
		}

		genTok, err := tk.NextToken()
		if err != nil {
			return err
		}
		gen, err := genTok.Int()
		if err != nil {
			return fmt.Errorf("%w: %w", model.ErrMalformedXref, errBadEntryRow)
		}

		kindTok, err := tk.NextToken()
		if err != nil {
			return err
		}

		objNum := first + i
		ref := model.Reference{ObjectNumber: objNum, GenerationNumber: gen}
		switch {
		case kindTok.IsOther("n"):
			table.set(ref, Entry{Kind: EntryOffset, Offset: int64(offset)})
		case kindTok.IsOther("f"):
			table.set(ref, Entry{Kind: EntryFree})
		default:
			return fmt.Errorf("%w: %w", model.ErrMalformedXref, errBadEntryRow)
		}
	}
	return nil
}
