package filters

import (
	"fmt"

	"github.com/corvidlabs/pdfcore/parser/filters/ccitt"
)

// decodeCCITT bridges a /DecodeParms entry for CCITTFaxDecode into the
// ccitt package's Params and packs its decoded lines back into the
// 1bpp bitmap a PDF image stream expects, per spec §4.9.
func decodeCCITT(params Params, encoded []byte) ([]byte, error) {
	p := ccitt.Params{
		K:                      int32(params["K"]),
		Columns:                int32(paramOrDefault(params, "Columns", 1728)),
		Rows:                   int32(params["Rows"]),
		EndOfLine:              params["EndOfLine"] != 0,
		EncodedByteAlign:       params["EncodedByteAlign"] != 0,
		EndOfBlock:             paramOrDefault(params, "EndOfBlock", 1) != 0,
		BlackIs1:               params["BlackIs1"] != 0,
		DamagedRowsBeforeError: int32(params["DamagedRowsBeforeError"]),
	}

	lines, err := ccitt.DecodeToLines(p, encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errFilterFailed, err)
	}
	return ccitt.PackLines(lines, p.Columns, p.BlackIs1), nil
}

func paramOrDefault(params Params, key string, def int) int {
	if params == nil {
		return def
	}
	if v, ok := params[key]; ok {
		return v
	}
	return def
}
