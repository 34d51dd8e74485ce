// Package filters decodes PDF stream content through a /Filter chain.
// It works on raw bytes and integer parameter maps rather than on
// model.Dict directly (it only imports package model for the shared
// error sentinels), so it has no dependency on package parser and
// cannot form an import cycle with it.
package filters

import (
	"fmt"

	"github.com/corvidlabs/pdfcore/model"
)

var (
	errUnsupportedFilter = model.ErrUnsupportedFilter
	errFilterFailed      = model.ErrFilterFailed
)

// Filter names, as they appear in a PDF /Filter entry.
const (
	ASCII85   = "ASCII85Decode"
	ASCIIHex  = "ASCIIHexDecode"
	RunLength = "RunLengthDecode"
	LZW       = "LZWDecode"
	Flate     = "FlateDecode"
	DCT       = "DCTDecode"
	JBIG2     = "JBIG2Decode"
	JPX       = "JPXDecode"
	CCITTFax  = "CCITTFaxDecode"
)

// Params is one entry of a /DecodeParms array/dictionary, flattened to
// integers (and booleans encoded as 0/1, matching how they appear as
// PDF objects). A nil Params is equivalent to an empty one; every
// decoder applies its own defaults for missing keys.
type Params map[string]int

// Step is one link of a /Filter chain: a filter name paired with its
// decode parameters.
type Step struct {
	Name   string
	Params Params
}

// Decode applies filter Name to encoded, honoring Params.
func Decode(step Step, encoded []byte) ([]byte, error) {
	switch step.Name {
	case Flate:
		return decodeFlate(step.Params, encoded)
	case ASCIIHex:
		return decodeASCIIHex(encoded)
	case ASCII85:
		return decodeASCII85(encoded)
	case RunLength:
		return decodeRunLength(encoded)
	case CCITTFax:
		return decodeCCITT(step.Params, encoded)
	case DCT, JBIG2, JPX:
		// not interpreted by this core: passed through unchanged
		return encoded, nil
	case LZW:
		return nil, fmt.Errorf("%w: %s", errUnsupportedFilter, LZW)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedFilter, step.Name)
	}
}

// DecodeChain applies a sequence of filter steps left to right, as
// required by spec §4.5 for a stream with multiple /Filter entries.
func DecodeChain(chain []Step, raw []byte) ([]byte, error) {
	out := raw
	for _, step := range chain {
		var err error
		out, err = Decode(step, out)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", step.Name, err)
		}
	}
	return out, nil
}
