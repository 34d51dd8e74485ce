package xref

import (
	"bytes"

	"github.com/corvidlabs/pdfcore/model"
	"github.com/corvidlabs/pdfcore/parser"
	"github.com/corvidlabs/pdfcore/tokenizer"
)

// RebuildByScanning is the corrupt-xref recovery path (spec §4.2/§9,
// the source's "bypassXrefSection"-equivalent): when the xref chain
// cannot be parsed at all, scan the whole file linearly for `N G obj`
// declarations and rebuild an index from them. A later declaration of
// the same (number, generation) overrides an earlier one, matching how
// an incrementally-updated file's newest object definition supersedes
// older ones when they happen to share the same generation.
func RebuildByScanning(data []byte) (*Table, error) {
	table := &Table{entries: make(map[model.Reference]Entry)}

	tk := tokenizer.NewTokenizer(data)
	var window [2]tokenizer.Token
	var windowOffsets [2]int
	seen := 0

	for {
		offset := tk.CurrentPosition()
		tok, err := tk.NextToken()
		if err != nil {
			break
		}
		if tok.Kind == tokenizer.EOF {
			break
		}
		if tok.IsOther("stream") {
			// the tokenizer stops at a stream body: resume the scan
			// right after the next endstream keyword
			rel := bytes.Index(data[tk.CurrentPosition():], []byte("endstream"))
			if rel < 0 {
				break
			}
			tk.SetPosition(tk.CurrentPosition() + rel + len("endstream"))
		}
		if tok.IsOther("obj") && seen >= 2 {
			t1, t2 := window[0], window[1]
			if t1.Kind == tokenizer.Integer && t2.Kind == tokenizer.Integer {
				n, e1 := t1.Int()
				g, e2 := t2.Int()
				if e1 == nil && e2 == nil {
					ref := model.Reference{ObjectNumber: n, GenerationNumber: g}
					table.entries[ref] = Entry{Kind: EntryOffset, Offset: int64(windowOffsets[0])}
				}
			}
		}
		window[0], window[1] = window[1], tok
		windowOffsets[0], windowOffsets[1] = windowOffsets[1], offset
		seen++
	}

	if len(table.entries) == 0 {
		return nil, model.ErrMalformedXref
	}

	if trailer := scanLastTrailer(data); trailer != nil {
		table.trailer = trailer
		if _, ok := trailer[model.Name("Root")]; ok {
			return table, nil
		}
	} else {
		table.trailer = model.Dict{}
	}

	// no usable /Root in any trailer: scan recovered objects for a
	// /Type /Catalog dictionary and synthesize a trailer around it.
	maxNum := 0
	for ref, entry := range table.entries {
		if ref.ObjectNumber > maxNum {
			maxNum = ref.ObjectNumber
		}
		if entry.Kind != EntryOffset {
			continue
		}
		n, g, obj, err := parser.ParseObjectDefinition(data[entry.Offset:], false)
		if err != nil {
			continue
		}
		dict, ok := obj.(model.Dict)
		if !ok {
			continue
		}
		if t, ok := dict[model.Name("Type")].(model.Name); ok && t == "Catalog" {
			table.trailer[model.Name("Root")] = model.Reference{ObjectNumber: n, GenerationNumber: g}
			break
		}
	}
	if _, ok := table.trailer[model.Name("Size")]; !ok {
		table.trailer[model.Name("Size")] = model.Integer(maxNum + 1)
	}
	if _, ok := table.trailer[model.Name("Root")]; !ok {
		return nil, model.ErrMissingRoot
	}
	return table, nil
}

var trailerMarker = []byte("trailer")

// scanLastTrailer finds the last `trailer` keyword in the file and
// parses the dictionary that follows it, since a recovery scan trusts
// the most recently written trailer over earlier ones.
func scanLastTrailer(data []byte) model.Dict {
	idx := bytes.LastIndex(data, trailerMarker)
	if idx < 0 {
		return nil
	}
	tk := tokenizer.NewTokenizer(data)
	tk.SetPosition(idx + len(trailerMarker))
	pr := parser.NewParserFromTokenizer(tk, data)
	obj, err := pr.ParseObject()
	if err != nil {
		return nil
	}
	dict, ok := obj.(model.Dict)
	if !ok {
		return nil
	}
	return dict
}
