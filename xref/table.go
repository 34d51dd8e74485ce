// Package xref locates and parses a PDF's cross-reference
// tables/streams and builds the index mapping every indirect object's
// (number, generation) identity to where it can be found: a byte
// offset for a regular object, or a container object number plus an
// index for one compressed inside an object stream, per spec §4.3.
package xref

import "github.com/corvidlabs/pdfcore/model"

// EntryKind distinguishes how an Entry locates its object.
type EntryKind uint8

const (
	// EntryFree marks an object number not currently in use.
	EntryFree EntryKind = iota
	// EntryOffset locates a regular indirect object at a byte offset.
	EntryOffset
	// EntryCompressed locates an object packed inside an object stream
	// (a PDF 1.5 compressed xref entry, type 2).
	EntryCompressed
)

// Entry is one row of the cross-reference index.
type Entry struct {
	Kind   EntryKind
	Offset int64 // valid when Kind == EntryOffset

	ContainerNumber  int // valid when Kind == EntryCompressed
	IndexInContainer int // valid when Kind == EntryCompressed
}

// Table is the built cross-reference index for one document: every
// indirect object's identity mapped to its Entry, plus the merged
// trailer dictionary. Once built it is read-only.
type Table struct {
	entries map[model.Reference]Entry
	trailer model.Dict
}

// Lookup returns the Entry for (number, generation), if any.
func (t *Table) Lookup(number, generation int) (Entry, bool) {
	e, ok := t.entries[model.Reference{ObjectNumber: number, GenerationNumber: generation}]
	return e, ok
}

// Trailer returns the merged trailer dictionary (the first trailer
// encountered while walking the chain wins for any key also present
// in an older /Prev trailer, per PDF incremental-update semantics).
func (t *Table) Trailer() model.Dict { return t.trailer }

// Size is the number of distinct (number, generation) entries indexed,
// including free entries.
func (t *Table) Size() int { return len(t.entries) }

// set installs an entry only if no entry for ref exists yet: within one
// chain walk, entries found earlier (closer to the most recent
// `startxref`) are newer and must not be overridden by entries found
// later while walking older /Prev sections, per spec §4.3 "later
// entries overriding earlier ones" (later in *write* time, i.e. found
// first while walking backward from the end of the file).
func (t *Table) set(ref model.Reference, e Entry) {
	if _, exists := t.entries[ref]; exists {
		return
	}
	t.entries[ref] = e
}

// mergeTrailer folds a trailer dictionary into the table's merged
// trailer, again on a first-wins basis per key.
func (t *Table) mergeTrailer(d model.Dict) {
	if t.trailer == nil {
		t.trailer = model.Dict{}
	}
	for k, v := range d {
		if _, exists := t.trailer[k]; !exists {
			t.trailer[k] = v
		}
	}
}
