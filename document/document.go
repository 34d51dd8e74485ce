// Package document builds the navigable PDF object graph on top of
// package xref's cross-reference index: root-catalog to page-tree
// traversal, indirect-reference resolution, and memoized stream
// decoding, per spec §4.4.
package document

import (
	"context"
	"fmt"
	"sync"

	"github.com/corvidlabs/pdfcore/config"
	"github.com/corvidlabs/pdfcore/model"
	"github.com/corvidlabs/pdfcore/parser"
	"github.com/corvidlabs/pdfcore/xref"
)

// Document is the materialized object graph of one parsed PDF. It is
// built once from the source bytes and never mutated afterward; its
// decoded-stream cache is the only part populated lazily, on first
// access, and is safe for concurrent readers (spec §5).
type Document struct {
	data    []byte
	table   *xref.Table
	catalog model.Dict

	mu             sync.Mutex
	objects        map[model.Reference]model.Object
	resolving      map[model.Reference]bool
	streamCache    map[model.Reference][]byte
	objStreamCache map[int][]model.Object
	maxObjStreams  int

	pagesOnce sync.Once
	pages     []*Page
}

// ParseDocument locates the xref chain, builds the object index, and
// resolves the trailer's /Root, per spec §4.2 parse_document, using
// config.NewDefaultParserConfig().
func ParseDocument(data []byte) (*Document, error) {
	return ParseDocumentWithConfig(data, config.NewDefaultParserConfig())
}

// ParseDocumentWithConfig is ParseDocument with an explicit
// ParserConfig: cfg.XrefRecovery chooses between xref.BuildTable's
// scan-and-recover fallback and xref.BuildTableStrict's fail-fast
// behavior (spec §9); cfg.MaxObjectStreams bounds how many distinct
// object streams expandObjectStream will decode over the document's
// lifetime; cfg.ParseTimeout bounds the xref-location-and-walk phase.
func ParseDocumentWithConfig(data []byte, cfg *config.ParserConfig) (*Document, error) {
	if cfg == nil {
		cfg = config.NewDefaultParserConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("document: invalid parser config: %w", err)
	}
	if err := xref.CheckHeader(data); err != nil {
		return nil, err
	}

	table, err := buildTableWithTimeout(data, cfg)
	if err != nil {
		return nil, err
	}

	d := &Document{
		data:           data,
		table:          table,
		objects:        make(map[model.Reference]model.Object),
		resolving:      make(map[model.Reference]bool),
		streamCache:    make(map[model.Reference][]byte),
		objStreamCache: make(map[int][]model.Object),
		maxObjStreams:  cfg.MaxObjectStreams,
	}

	rootRef, ok := table.Trailer()[model.Name("Root")]
	if !ok {
		return nil, model.ErrMissingRoot
	}
	catalog, ok := d.Resolve(rootRef).(model.Dict)
	if !ok {
		return nil, model.ErrMissingRoot
	}
	d.catalog = catalog
	return d, nil
}

func buildTableWithTimeout(data []byte, cfg *config.ParserConfig) (*xref.Table, error) {
	build := xref.BuildTable
	if cfg.XrefRecovery == config.XrefStrict {
		build = xref.BuildTableStrict
	}
	if cfg.ParseTimeout <= 0 {
		return build(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ParseTimeout)
	defer cancel()

	type result struct {
		table *xref.Table
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		table, err := build(data)
		ch <- result{table, err}
	}()

	select {
	case r := <-ch:
		return r.table, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("document: %w", ctx.Err())
	}
}

// Trailer returns the document's merged trailer dictionary.
func (d *Document) Trailer() model.Dict { return d.table.Trailer() }

// Catalog returns the document's root catalog dictionary.
func (d *Document) Catalog() model.Dict { return d.catalog }

// Resolve dereferences obj once if it is a Reference, per spec §4.4
// "resolve(object) dereferences a Reference once; repeated resolution
// is idempotent." A direct (non-Reference) object, or nil, is
// returned unchanged (nil becomes model.Null{}); an unresolved
// Reference decodes as Null rather than panicking, per spec §7.
func (d *Document) Resolve(obj model.Object) model.Object {
	if obj == nil {
		return model.Null{}
	}
	ref, ok := obj.(model.Reference)
	if !ok {
		return obj
	}
	return d.resolveRef(ref)
}

// GetObject returns the indirect object numbered n at generation 0,
// per spec §4.4 get_object(n) default.
func (d *Document) GetObject(n int) (model.IndirectObject, bool) {
	return d.GetObjectGeneration(n, 0)
}

// GetObjectGeneration returns the indirect object (n, g), per spec
// §4.4 get_object(n, g).
func (d *Document) GetObjectGeneration(n, g int) (model.IndirectObject, bool) {
	entry, ok := d.table.Lookup(n, g)
	if !ok || entry.Kind == xref.EntryFree {
		return model.IndirectObject{}, false
	}
	val := d.resolveRef(model.Reference{ObjectNumber: n, GenerationNumber: g})
	return model.IndirectObject{Number: n, Generation: g, Value: val}, true
}

func (d *Document) resolveRef(ref model.Reference) model.Object {
	d.mu.Lock()
	if v, ok := d.objects[ref]; ok {
		d.mu.Unlock()
		return v
	}
	if d.resolving[ref] {
		// a cycle in the object graph (e.g. a /Parent loop): resolve
		// to Null rather than recursing forever, per spec §7 "Missing
		// references degrade to Null — never to a panic."
		d.mu.Unlock()
		return model.Null{}
	}
	d.resolving[ref] = true
	d.mu.Unlock()

	obj := d.loadObject(ref)

	d.mu.Lock()
	delete(d.resolving, ref)
	d.objects[ref] = obj
	d.mu.Unlock()
	return obj
}

func (d *Document) loadObject(ref model.Reference) model.Object {
	entry, ok := d.table.Lookup(ref.ObjectNumber, ref.GenerationNumber)
	if !ok {
		return model.Null{}
	}
	switch entry.Kind {
	case xref.EntryFree:
		return model.Null{}
	case xref.EntryOffset:
		return d.parseAtOffset(entry.Offset)
	case xref.EntryCompressed:
		return d.resolveCompressed(entry.ContainerNumber, entry.IndexInContainer)
	default:
		return model.Null{}
	}
}

func (d *Document) parseAtOffset(offset int64) model.Object {
	if offset < 0 || int(offset) >= len(d.data) {
		return model.Null{}
	}
	_, _, obj, err := parser.ParseObjectDefinitionWithResolver(d.data[offset:], false, d.resolveIndirectLength)
	if err != nil {
		return model.Null{}
	}
	return obj
}

// resolveIndirectLength is the parser.LengthResolver used when a
// stream's /Length is itself an indirect reference (spec §4.2): it
// resolves the referenced object through this same Document, so a
// forward reference to an already-indexed integer object just works.
func (d *Document) resolveIndirectLength(ref model.Reference) (int, bool) {
	obj := d.resolveRef(ref)
	n, ok := obj.(model.Integer)
	if !ok {
		return 0, false
	}
	return int(n), true
}

// resolveCompressed resolves a PDF 1.5 compressed xref entry: object
// index into the object stream numbered containerNumber.
func (d *Document) resolveCompressed(containerNumber, index int) model.Object {
	objs, ok := d.expandObjectStream(containerNumber)
	if !ok || index < 0 || index >= len(objs) {
		return model.Null{}
	}
	return objs[index]
}

// expandObjectStream decodes an object stream (/Type /ObjStm) and
// parses out each object it packs, memoizing the result per container.
func (d *Document) expandObjectStream(containerNumber int) ([]model.Object, bool) {
	d.mu.Lock()
	if objs, ok := d.objStreamCache[containerNumber]; ok {
		d.mu.Unlock()
		return objs, true
	}
	if d.maxObjStreams > 0 && len(d.objStreamCache) >= d.maxObjStreams {
		d.mu.Unlock()
		return nil, false
	}
	d.mu.Unlock()

	entry, ok := d.table.Lookup(containerNumber, 0)
	if !ok || entry.Kind != xref.EntryOffset {
		return nil, false
	}
	obj := d.parseAtOffset(entry.Offset)
	stream, ok := obj.(model.Stream)
	if !ok {
		return nil, false
	}

	decoded, err := d.decodeStream(model.Reference{ObjectNumber: containerNumber}, stream)
	if err != nil {
		return nil, false
	}

	objs, ok := parseObjectStreamBody(decoded, stream.Dict)
	if !ok {
		return nil, false
	}

	d.mu.Lock()
	d.objStreamCache[containerNumber] = objs
	d.mu.Unlock()
	return objs, true
}
