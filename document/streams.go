package document

import (
	"fmt"

	"github.com/corvidlabs/pdfcore/model"
	"github.com/corvidlabs/pdfcore/parser/filters"
)

// decodeStream applies ref's stream's /Filter chain, memoizing the
// result per spec §4.5 "Decoded bytes are memoized; re-requesting
// returns the same bytes." ref is the stream's own indirect identity;
// it is only used as a cache key.
func (d *Document) decodeStream(ref model.Reference, stream model.Stream) ([]byte, error) {
	d.mu.Lock()
	if b, ok := d.streamCache[ref]; ok {
		d.mu.Unlock()
		return b, nil
	}
	d.mu.Unlock()

	steps, err := d.filterSteps(stream.Dict)
	if err != nil {
		return nil, err
	}
	decoded, err := filters.DecodeChain(steps, stream.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrFilterFailed, err)
	}

	d.mu.Lock()
	d.streamCache[ref] = decoded
	d.mu.Unlock()
	return decoded, nil
}

// filterSteps builds the filters package's Step chain from a stream
// dictionary's /Filter and /DecodeParms, resolving indirect references
// along the way (unlike xref streams, a regular stream's /Filter may
// legally be indirect).
func (d *Document) filterSteps(dict model.Dict) ([]filters.Step, error) {
	filterObj := d.Resolve(dict[model.Name("Filter")])
	if _, isNull := filterObj.(model.Null); isNull {
		return nil, nil
	}

	var names []model.Name
	switch v := filterObj.(type) {
	case model.Name:
		names = []model.Name{v}
	case model.Array:
		for _, o := range v {
			n, ok := d.Resolve(o).(model.Name)
			if !ok {
				return nil, fmt.Errorf("%w: non-name in /Filter array", model.ErrMalformedToken)
			}
			names = append(names, n)
		}
	default:
		return nil, fmt.Errorf("%w: /Filter is neither name nor array", model.ErrMalformedToken)
	}

	paramsObj := d.Resolve(dict[model.Name("DecodeParms")])
	paramDicts := make([]model.Dict, len(names))
	switch v := paramsObj.(type) {
	case model.Dict:
		if len(paramDicts) > 0 {
			paramDicts[0] = v
		}
	case model.Array:
		for i := range names {
			if i < len(v) {
				if dd, ok := d.Resolve(v[i]).(model.Dict); ok {
					paramDicts[i] = dd
				}
			}
		}
	}

	steps := make([]filters.Step, len(names))
	for i, n := range names {
		steps[i] = filters.Step{Name: string(n), Params: flattenParams(paramDicts[i])}
	}
	return steps, nil
}

// flattenParams converts a /DecodeParms dictionary into the scalar map
// the filters package works with (spec §3: Params flattened to
// integers, booleans as 0/1).
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
