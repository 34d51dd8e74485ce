package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// decodeFlate inflates RFC 1950 zlib data and, when /Predictor
// requests it, reverses the PNG or TIFF row predictor described in
// spec §4.5.
func decodeFlate(params Params, encoded []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errFilterFailed, err)
	}
	defer zr.Close()

	inflated, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errFilterFailed, err)
	}

	pred, err := parsePredictorParams(params)
	if err != nil {
		return nil, err
	}
	if pred.predictor == 0 || pred.predictor == 1 {
		return inflated, nil
	}
	return pred.reverse(inflated)
}

type predictorParams struct {
	predictor int
	colors    int
	bpc       int
	columns   int
}

func parsePredictorParams(params Params) (predictorParams, error) {
	predictor := params["Predictor"]
	switch predictor {
	case 0, 1, 2, 10, 11, 12, 13, 14, 15:
	default:
		return predictorParams{}, fmt.Errorf("%w: unsupported Predictor %d", errFilterFailed, predictor)
	}

	colors, has := params["Colors"]
	if !has {
		colors = 1
	} else if colors <= 0 {
		return predictorParams{}, fmt.Errorf("%w: Colors must be > 0, got %d", errFilterFailed, colors)
	}

	bpc, has := params["BitsPerComponent"]
	if !has {
		bpc = 8
	} else {
		switch bpc {
		case 1, 2, 4, 8, 16:
		default:
			return predictorParams{}, fmt.Errorf("%w: unsupported BitsPerComponent %d", errFilterFailed, bpc)
		}
	}

	columns, has := params["Columns"]
	if !has {
		columns = 1
	}

	return predictorParams{predictor: predictor, colors: colors, bpc: bpc, columns: columns}, nil
}

func (p predictorParams) rowSize() int { return p.bpc * p.colors * p.columns / 8 }

// reverse undoes the PNG (predictor >= 10) or TIFF (predictor == 2)
// row predictor, row by row.
func (p predictorParams) reverse(data []byte) ([]byte, error) {
	bytesPerPixel := (p.bpc*p.colors + 7) / 8
	rowSize := p.rowSize()
	if p.predictor != 2 {
		rowSize++ // PNG rows are prefixed with a filter-type byte
	}

	cr := make([]byte, rowSize)
	pr := make([]byte, rowSize)
	var out []byte

	r := bytes.NewReader(data)
	for {
		if _, err := io.ReadFull(r, cr); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("%w: %v", errFilterFailed, err)
		}

		row, err := p.reverseRow(pr, cr, bytesPerPixel)
		if err != nil {
			return nil, err
		}
		out = append(out, row...)
		pr, cr = cr, pr
	}

	if len(out)%p.rowSize() != 0 {
		return nil, fmt.Errorf("%w: predictor produced a partial row", errFilterFailed)
	}
	return out, nil
}

func (p predictorParams) reverseRow(pr, cr []byte, bytesPerPixel int) ([]byte, error) {
	if p.predictor == 2 {
		return reverseTIFFRow(cr, p.colors), nil
	}

	cdat := cr[1:]
	pdat := pr[1:]
	switch tag := cr[0]; tag {
	case 0:
		// no-op
	case 1: // Sub
		for i := bytesPerPixel; i < len(cdat); i++ {
			cdat[i] += cdat[i-bytesPerPixel]
		}
	case 2: // Up
		for i, b := range pdat {
			cdat[i] += b
		}
	case 3: // Average
		for i := 0; i < bytesPerPixel; i++ {
			cdat[i] += pdat[i] / 2
		}
		for i := bytesPerPixel; i < len(cdat); i++ {
			cdat[i] += byte((int(cdat[i-bytesPerPixel]) + int(pdat[i])) / 2)
		}
	case 4: // Paeth
		reversePaethRow(cdat, pdat, bytesPerPixel)
	default:
		return nil, fmt.Errorf("%w: unknown PNG row filter tag %d", errFilterFailed, tag)
	}
	return cdat, nil
}

func reverseTIFFRow(row []byte, colors int) []byte {
	// Horizontal differencing; 8 bits per component only.
	for i := 1; i < len(row)/colors; i++ {
		for j := 0; j < colors; j++ {
			row[i*colors+j] += row[(i-1)*colors+j]
		}
	}
	return row
}

func abs32(x int32) int32 {
	m := x >> 31
	return (x ^ m) - m
}

func reversePaethRow(cdat, pdat []byte, bytesPerPixel int) {
	var a, b, c, pa, pb, pc int32
	for i := 0; i < bytesPerPixel; i++ {
		a, c = 0, 0
		for j := i; j < len(cdat); j += bytesPerPixel {
			b = int32(pdat[j])
			pa = b - c
			pb = a - c
			pc = abs32(pa + pb)
			pa = abs32(pa)
			pb = abs32(pb)
			switch {
			case pa <= pb && pa <= pc:
				// a stays
			case pb <= pc:
				a = b
			default:
				a = c
			}
			a += int32(cdat[j])
			a &= 0xff
			cdat[j] = byte(a)
			c = b
		}
	}
}
