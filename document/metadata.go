package document

import (
	"fmt"

	"golang.org/x/text/encoding"

	"github.com/corvidlabs/pdfcore/model"
)

// DocumentInfo resolves the trailer's /Info dictionary (spec §3 "a
// document may carry a caller-supplied charset hint for its text
// strings") and decodes every string value it holds with charset as
// the text hint; charset may be nil, in which case values decode as
// their raw bytes. Non-string entries (numbers, names, references
// that don't resolve to a string) are skipped rather than erroring the whole
// call, matching the document graph's general "degrade, don't fail"
// posture for optional metadata.
func (d *Document) DocumentInfo(charset encoding.Encoding) (map[string]string, error) {
	out := map[string]string{}

	infoObj, ok := d.Trailer()[model.Name("Info")]
	if !ok {
		return out, nil
	}
	infoDict, ok := d.Resolve(infoObj).(model.Dict)
	if !ok {
		return out, nil
	}

	for k, v := range infoDict {
		str, ok := d.Resolve(v).(model.StringObject)
		if !ok {
			continue
		}
		text, err := str.WithCharset(charset).Text()
		if err != nil {
			return nil, fmt.Errorf("document: decode /Info /%s: %w", k, err)
		}
		out[string(k)] = text
	}
	return out, nil
}
