package document

import (
	"github.com/corvidlabs/pdfcore/model"
	"github.com/corvidlabs/pdfcore/parser"
	"github.com/corvidlabs/pdfcore/tokenizer"
)

// parseObjectStreamBody parses the decoded body of a PDF 1.5 object
// stream: /N pairs of `objectNumber byteOffset` starting the content,
// followed at /First by the objects themselves back to back, per PDF
// 1.5 §7.5.7.
func parseObjectStreamBody(decoded []byte, dict model.Dict) ([]model.Object, bool) {
	n, ok := dict[model.Name("N")].(model.Integer)
	if !ok || n < 0 {
		return nil, false
	}
	first, ok := dict[model.Name("First")].(model.Integer)
	if !ok || int(first) > len(decoded) {
		return nil, false
	}

	header := decoded[:first]
	tk := tokenizer.NewTokenizer(header)
	type pair struct{ num, off int }
	pairs := make([]pair, 0, n)
	for i := 0; i < int(n); i++ {
		numTok, err := tk.NextToken()
		if err != nil || numTok.Kind != tokenizer.Integer {
			return nil, false
		}
		offTok, err := tk.NextToken()
		if err != nil || offTok.Kind != tokenizer.Integer {
			return nil, false
		}
		num, _ := numTok.Int()
		off, _ := offTok.Int()
		pairs = append(pairs, pair{num: num, off: off})
	}

	objs := make([]model.Object, len(pairs))
	for i, p := range pairs {
		start := int(first) + p.off
		if start < 0 || start > len(decoded) {
			objs[i] = model.Null{}
			continue
		}
		obj, err := parser.ParseObject(decoded[start:])
		if err != nil {
			objs[i] = model.Null{}
			continue
		}
		objs[i] = obj
	}
	return objs, true
}
