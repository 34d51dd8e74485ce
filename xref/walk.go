package xref

import (
	"fmt"

	"github.com/corvidlabs/pdfcore/logging"
	"github.com/corvidlabs/pdfcore/model"
	"github.com/corvidlabs/pdfcore/tokenizer"
)

// BuildTable walks the cross-reference chain of a PDF byte stream
// starting at its `startxref` offset, merging classic tables, xref
// streams, and hybrid `/XRefStm` pointers, per spec §4.2/§4.3. On any
// structural failure it falls back to a linear object scan (spec
// §4.2/§9 "bypassXrefSection"-equivalent recovery) rather than failing
// the whole parse outright; MalformedXref is only returned when even
// that recovery cannot find a usable object set.
func BuildTable(data []byte) (*Table, error) {
	return buildTable(data, true)
}

// BuildTableStrict walks the cross-reference chain the same way as
// BuildTable but never falls back to a linear scan: a malformed chain
// or a missing trailer /Root is surfaced directly. This backs
// config.XrefStrict for callers that would rather fail loudly than
// silently substitute a recovered (and possibly incomplete) object
// set, per spec §9.
func BuildTableStrict(data []byte) (*Table, error) {
	return buildTable(data, false)
}

func buildTable(data []byte, allowRecovery bool) (*Table, error) {
	start, err := FindStartXref(data)
	if err != nil {
		if !allowRecovery {
			return nil, err
		}
		logging.Logger().Warn("xref: startxref not found, rebuilding index by linear scan", "error", err)
		return RebuildByScanning(data)
	}

	table := &Table{entries: make(map[model.Reference]Entry)}
	if walkErr := walkChain(data, start, table); walkErr != nil {
		if !allowRecovery {
			return nil, walkErr
		}
		logging.Logger().Warn("xref: chain unreadable, rebuilding index by linear scan", "error", walkErr)
		recovered, rerr := RebuildByScanning(data)
		if rerr != nil {
			return nil, walkErr
		}
		return recovered, nil
	}
	if _, hasRoot := table.trailer[model.Name("Root")]; !hasRoot {
		if !allowRecovery {
			return nil, model.ErrMissingRoot
		}
		logging.Logger().Warn("xref: trailer has no /Root, rebuilding index by linear scan")
		if recovered, rerr := RebuildByScanning(data); rerr == nil {
			return recovered, nil
		}
		return nil, model.ErrMissingRoot
	}
	return table, nil
}

// walkChain follows startxref → /Prev* until exhausted, rejecting
// cycles by tracking visited byte offsets (spec §4.3 "Walks /Prev once
// and rejects cycles by tracking visited byte offsets").
func walkChain(data []byte, start int64, table *Table) error {
	visited := map[int64]bool{}
	offset := start

	for {
		if visited[offset] {
			return model.ErrCyclicXrefChain
		}
		visited[offset] = true

		prev, hasPrev, isHybridTrailer, hybridOffset, err := walkOneSection(data, offset, table)
		if err != nil {
			return err
		}
		if isHybridTrailer {
			// merge the hybrid xref-stream entries before continuing
			// the classic /Prev chain, per PDF 1.5 §7.5.8.4.
			if herr := parseXRefStreamEntriesOnly(data, hybridOffset, table); herr != nil {
				return herr
			}
		}
		if !hasPrev {
			return nil
		}
		offset = prev
	}
}

// walkOneSection parses either a classic `xref` table or a
// cross-reference stream object at offset, merges its entries and
// trailer into table, and reports its /Prev (if any) and, for a
// classic section, whether its trailer carries a hybrid /XRefStm.
func walkOneSection(data []byte, offset int64, table *Table) (prev int64, hasPrev bool, isHybrid bool, hybridOffset int64, err error) {
	if offset < 0 || int(offset) >= len(data) {
		return 0, false, false, 0, fmt.Errorf("%w: xref offset out of range", model.ErrMalformedXref)
	}

	tk := tokenizer.NewTokenizer(data)
	tk.SetPosition(int(offset))
	peek, perr := tk.PeekToken()
	if perr != nil {
		return 0, false, false, 0, fmt.Errorf("%w: %v", model.ErrMalformedXref, perr)
	}

	if peek.IsOther("xref") {
		tk.NextToken()
		trailerDict, perr := parseClassicSection(tk, data, table)
		if perr != nil {
			return 0, false, false, 0, perr
		}
		table.mergeTrailer(trailerDict)

		var p int64
		var hp bool
		if v, ok := trailerDict[model.Name("Prev")]; ok {
			if n, ok := asInt(v); ok {
				p, hp = n, true
			}
		}
		if v, ok := trailerDict[model.Name("XRefStm")]; ok {
			if n, ok := asInt(v); ok {
				return p, hp, true, n, nil
			}
		}
		return p, hp, false, 0, nil
	}

	// not the "xref" keyword: must be an xref-stream indirect object
	// header, "N G obj".
	p, hp, serr := parseXRefStreamObject(data, offset, table)
	return p, hp, false, 0, serr
}
