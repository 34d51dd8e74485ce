package document

import (
	"bytes"
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/corvidlabs/pdfcore/logging"
	"github.com/corvidlabs/pdfcore/model"
	"github.com/corvidlabs/pdfcore/parser/filters"
)

// Page is a leaf of the page tree: a `/Type /Page` dictionary plus the
// Document it belongs to, per spec §3.
type Page struct {
	doc  *Document
	dict model.Dict
}

// Dict returns the page's raw dictionary.
func (p *Page) Dict() model.Dict { return p.dict }

// MediaBox returns the page's /MediaBox array, resolving an
// inherited value from an ancestor /Pages node if the leaf omits it.
func (p *Page) MediaBox() (model.Array, bool) {
	return p.inheritedArray(model.Name("MediaBox"))
}

// inheritedArray walks /Parent links looking for key, bounded by
// maxAncestry since a Dict (being a map) cannot be used as a visited
// set key to detect a /Parent cycle directly.
const maxAncestry = 64

func (p *Page) inheritedArray(key model.Name) (model.Array, bool) {
	dict := p.dict
	for i := 0; i < maxAncestry && dict != nil; i++ {
		if v, ok := p.doc.Resolve(dict[key]).(model.Array); ok {
			return v, true
		}
		parent, ok := p.doc.Resolve(dict[model.Name("Parent")]).(model.Dict)
		if !ok {
			break
		}
		dict = parent
	}
	return nil, false
}

// ContentsStreamBytes returns the page's decoded content stream bytes,
// concatenated in order, per spec §4.4/§6: /Contents may be a single
// stream reference, or an array of them, and the result must be
// identical either way (testable property 7).
func (p *Page) ContentsStreamBytes() ([]byte, error) {
	items := contentItems(p.dict[model.Name("Contents")])

	var buf bytes.Buffer
	for _, item := range items {
		ref, isRef := item.(model.Reference)
		resolved := p.doc.Resolve(item)
		stream, ok := resolved.(model.Stream)
		if !ok {
			continue
		}

		var decoded []byte
		var err error
		if isRef {
			decoded, err = p.doc.decodeStream(ref, stream)
		} else {
			steps, serr := p.doc.filterSteps(stream.Dict)
			if serr != nil {
				err = serr
			} else {
				decoded, err = filters.DecodeChain(steps, stream.Content)
			}
		}
		if err != nil {
			return nil, err
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(decoded)
	}
	return buf.Bytes(), nil
}

// contentItems normalizes a /Contents value into the list of objects
// (each expected to resolve to a stream) to concatenate, in order.
func contentItems(v model.Object) []model.Object {
	switch o := v.(type) {
	case model.Reference:
		return []model.Object{o}
	case model.Array:
		return o
	case nil:
		return nil
	default:
		return []model.Object{o}
	}
}

// GetAllPages performs a depth-first traversal of the page tree,
// honoring /Kids order, per spec §4.4. A missing /Kids on an internal
// node or a leaf with the wrong /Type is skipped and logged rather
// than aborting the traversal.
func (d *Document) GetAllPages() []*Page {
	d.pagesOnce.Do(func() {
		pagesRoot, ok := d.catalog[model.Name("Pages")]
		if !ok {
			logging.Logger().Warn("document: catalog has no /Pages entry")
			return
		}
		visited := map[model.Reference]bool{}
		d.pages = d.walkPageTree(pagesRoot, visited)
	})
	return d.pages
}

func (d *Document) walkPageTree(node model.Object, visited map[model.Reference]bool) []*Page {
	if ref, isRef := node.(model.Reference); isRef {
		if visited[ref] {
			logging.Logger().Warn("document: cyclic page tree node skipped", "object", ref.ObjectNumber)
			return nil
		}
		visited[ref] = true
	}

	dict, ok := d.Resolve(node).(model.Dict)
	if !ok {
		logging.Logger().Warn("document: page tree node is not a dictionary, skipped")
		return nil
	}

	typ, _ := dict[model.Name("Type")].(model.Name)
	switch typ {
	case "Page":
		return []*Page{{doc: d, dict: dict}}
	case "Pages":
		return d.walkKids(dict, visited)
	default:
		// tolerate a missing/wrong /Type: a node with /Kids is still
		// walked as an intermediate node, otherwise it is logged and
		// skipped, per spec §4.4.
		if _, hasKids := dict[model.Name("Kids")]; hasKids {
			return d.walkKids(dict, visited)
		}
		logging.Logger().Warn("document: page tree node has unexpected /Type", "type", string(typ))
		return nil
	}
}

func (d *Document) walkKids(dict model.Dict, visited map[model.Reference]bool) []*Page {
	kids, ok := dict[model.Name("Kids")].(model.Array)
	if !ok {
		logging.Logger().Warn("document: /Pages node missing /Kids, skipped")
		return nil
	}
	var out []*Page
	for _, kid := range kids {
		out = append(out, d.walkPageTree(kid, visited)...)
	}
	return out
}

// PageCount returns the number of leaf pages, per spec §4.4
// page_count and testable property 1 (page_count() == len(all_pages())
// by construction, since both derive from the same traversal).
func (d *Document) PageCount() int { return len(d.GetAllPages()) }

// GetPage returns the 1-based i-th page in document order, per spec
// §4.4 get_page(i) being 1-based.
func (d *Document) GetPage(i int) (*Page, bool) {
	pages := d.GetAllPages()
	if i < 1 || i > len(pages) {
		return nil, false
	}
	return pages[i-1], true
}

// DecodeAllPageContents decodes every page's content stream bytes
// concurrently, one independent decode per page, matching spec §5's
// "callers that need parallelism run independent decoder instances...
// on separate threads" — safe here because the Document's shared
// decoded-stream cache is mutex-protected.
func (d *Document) DecodeAllPageContents(ctx context.Context) ([][]byte, error) {
	pages := d.GetAllPages()
	out := make([][]byte, len(pages))

	g, _ := errgroup.WithContext(ctx)
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			b, err := page.ContentsStreamBytes()
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
