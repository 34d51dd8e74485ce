package xref

import (
	"fmt"

	"github.com/corvidlabs/pdfcore/model"
	"github.com/corvidlabs/pdfcore/parser"
	"github.com/corvidlabs/pdfcore/parser/filters"
)

// xrefStreamInfo is the subset of a cross-reference stream dictionary
// needed to decode its entry table, per spec §4.3 "/W [w1 w2 w3] field
// widths, optional /Index, /Prev".
type xrefStreamInfo struct {
	w        [3]int
	index    [][2]int
	size     int
	prev     int64
	hasPrev  bool
	xrefStm  int64
	hasHybr  bool
}

func (x xrefStreamInfo) entrySize() int { return x.w[0] + x.w[1] + x.w[2] }

func (x xrefStreamInfo) count() int {
	total := 0
	for _, sub := range x.index {
		total += sub[1]
	}
	return total
}

// parseXRefStreamObject parses the indirect object at offset as a
// cross-reference stream, populates table with its entries, merges its
// dictionary into the trailer, and returns the /Prev offset if any.
func parseXRefStreamObject(data []byte, offset int64, table *Table) (prev int64, hasPrev bool, err error) {
	if offset < 0 || int(offset) >= len(data) {
		return 0, false, fmt.Errorf("%w: xref stream offset out of range", model.ErrMalformedXref)
	}
	_, _, obj, err := parser.ParseObjectDefinition(data[offset:], false)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", model.ErrMalformedXref, err)
	}
	stream, ok := obj.(model.Stream)
	if !ok {
		return 0, false, fmt.Errorf("%w: expected xref stream object", model.ErrMalformedXref)
	}

	info, err := parseXRefStreamInfo(stream.Dict)
	if err != nil {
		return 0, false, err
	}

	decoded, err := decodeDirect(stream)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %v", model.ErrMalformedXref, err)
	}

	if err := extractXRefStreamEntries(decoded, info, table); err != nil {
		return 0, false, err
	}

	table.mergeTrailer(stream.Dict)
	return info.prev, info.hasPrev, nil
}

// parseXRefStreamEntriesOnly decodes and merges the entries of the
// xref stream at offset, and (first-wins, like any xref stream) folds
// its dictionary into the trailer, but does not follow its own /Prev:
// used for the hybrid `/XRefStm` pointer in a classic trailer (spec §4.2 "Hybrid
// documents may contain xref streams alongside classic xref tables;
// both must be merged").
func parseXRefStreamEntriesOnly(data []byte, offset int64, table *Table) error {
	_, _, err := parseXRefStreamObject(data, offset, table)
	return err
}

func parseXRefStreamInfo(d model.Dict) (xrefStreamInfo, error) {
	var out xrefStreamInfo

	if prevObj, ok := d[model.Name("Prev")]; ok {
		if n, ok := asInt(prevObj); ok {
			out.prev, out.hasPrev = int64(n), true
		}
	}
	if xs, ok := d[model.Name("XRefStm")]; ok {
		if n, ok := asInt(xs); ok {
			out.xrefStm, out.hasHybr = int64(n), true
		}
	}

	size, ok := d[model.Name("Size")].(model.Integer)
	if !ok {
		return out, fmt.Errorf("%w: missing /Size", errBadStreamDict)
	}
	out.size = int(size)

	if arr, ok := d[model.Name("Index")].(model.Array); ok && len(arr) >= 2 {
		for i := 0; i+1 < len(arr); i += 2 {
			start, ok1 := arr[i].(model.Integer)
			count, ok2 := arr[i+1].(model.Integer)
			if !ok1 || !ok2 {
				return out, fmt.Errorf("%w: corrupted /Index", errBadStreamDict)
			}
			out.index = append(out.index, [2]int{int(start), int(count)})
		}
	} else {
		out.index = [][2]int{{0, out.size}}
	}

	w, ok := d[model.Name("W")].(model.Array)
	if !ok || len(w) < 3 {
		return out, fmt.Errorf("%w: missing /W", errBadStreamDict)
	}
	for i := 0; i < 3; i++ {
		n, ok := w[i].(model.Integer)
		if !ok || n < 0 {
			return out, fmt.Errorf("%w: bad /W entry", errBadStreamDict)
		}
		out.w[i] = int(n)
	}
	return out, nil
}

func asInt(o model.Object) (int64, bool) {
	switch v := o.(type) {
	case model.Integer:
		return int64(v), true
	case model.Real:
		return int64(v), true
	default:
		return 0, false
	}
}

func bufToInt64(buf []byte) (i int64) {
	for _, b := range buf {
		i <<= 8
		i |= int64(b)
	}
	return i
}

// extractXRefStreamEntries decodes the fixed-width entry table per
// ITU/PDF 1.5 §7.5.8: field 1 selects free (0), offset-based (1), or
// compressed (2); the spec's COLOR_BOTH-style "a value of zero for the
// first width means type defaults to 1" case is honored via
// defaultType1.
func extractXRefStreamEntries(buf []byte, info xrefStreamInfo, table *Table) error {
	entrySize := info.entrySize()
	total := info.count()
	need := entrySize * total
	if len(buf) < need {
		return fmt.Errorf("%w: decoded stream too short (%d < %d)", errBadStreamDict, len(buf), need)
	}
	buf = buf[:need]

	defaultType1 := info.w[0] == 0
	j := 0
	for _, sub := range info.index {
		firstObj, count := sub[0], sub[1]
		for i := 0; i < count; i++ {
			objNum := firstObj + i
			off := j * entrySize
			row := buf[off : off+entrySize]

			var typ int64 = 1
			pos := 0
			if info.w[0] > 0 {
				typ = bufToInt64(row[:info.w[0]])
				pos = info.w[0]
			} else if !defaultType1 {
				pos = 0
			}
			f2 := bufToInt64(row[pos : pos+info.w[1]])
			pos += info.w[1]
			f3 := bufToInt64(row[pos : pos+info.w[2]])

			ref := model.Reference{ObjectNumber: objNum}
			var entry Entry
			switch typ {
			case 0:
				entry = Entry{Kind: EntryFree}
				ref.GenerationNumber = int(f3)
			case 1:
				entry = Entry{Kind: EntryOffset, Offset: f2}
				ref.GenerationNumber = int(f3)
			case 2:
				entry = Entry{Kind: EntryCompressed, ContainerNumber: int(f2), IndexInContainer: int(f3)}
			default:
				j++
				continue
			}
			table.set(ref, entry)
			j++
		}
	}
	return nil
}

// decodeDirect applies a stream's /Filter chain where /Filter and
// /DecodeParms are required to be direct objects (not references),
// per PDF 1.5 §7.5.8.2 for cross-reference streams.
func decodeDirect(s model.Stream) ([]byte, error) {
	steps, err := filterStepsFromDict(s.Dict)
	if err != nil {
		return nil, err
	}
	return filters.DecodeChain(steps, s.Content)
}

func filterStepsFromDict(d model.Dict) ([]filters.Step, error) {
	filterObj := d[model.Name("Filter")]
	if filterObj == nil {
		return nil, nil
	}
	paramsObj := d[model.Name("DecodeParms")]

	var names []model.Name
	switch v := filterObj.(type) {
	case model.Name:
		names = []model.Name{v}
	case model.Array:
		for _, o := range v {
			n, ok := o.(model.Name)
			if !ok {
				return nil, fmt.Errorf("%w: non-name in /Filter array", model.ErrMalformedXref)
			}
			names = append(names, n)
		}
	default:
		return nil, fmt.Errorf("%w: /Filter is neither name nor array", model.ErrMalformedXref)
	}

	var paramDicts []model.Dict
	switch v := paramsObj.(type) {
	case nil:
		paramDicts = make([]model.Dict, len(names))
	case model.Dict:
		paramDicts = make([]model.Dict, len(names))
		paramDicts[0] = v
	case model.Array:
		paramDicts = make([]model.Dict, len(names))
		for i := range names {
			if i < len(v) {
				if d, ok := v[i].(model.Dict); ok {
					paramDicts[i] = d
				}
			}
		}
	default:
		paramDicts = make([]model.Dict, len(names))
	}

	steps := make([]filters.Step, len(names))
	for i, n := range names {
		steps[i] = filters.Step{Name: string(n), Params: flattenParams(paramDicts[i])}
	}
	return steps, nil
}

// flattenParams converts a /DecodeParms dictionary into the integer
// map the filters package works with, per spec §3 Params being
// flattened scalars; booleans encode as 0/1.
func flattenParams(d model.Dict) filters.Params {
	if d == nil {
		return nil
	}
	out := make(filters.Params, len(d))
	for k, v := range d {
		switch val := v.(type) {
		case model.Integer:
			out[string(k)] = int(val)
		case model.Real:
			out[string(k)] = int(val)
		case model.Boolean:
			if val {
				out[string(k)] = 1
			} else {
				out[string(k)] = 0
			}
		}
	}
	return out
}
