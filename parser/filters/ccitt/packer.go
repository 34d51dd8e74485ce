package ccitt

// PackLines converts change-position line vectors, as produced by
// DecodeLines, into an MSB-first packed bitmap: one row of
// ceil(columns/8) bytes per line, per spec §4.9. By default (blackIs1
// false) a 0 bit is white and a 1 bit is black; blackIs1 flips that
// convention.
func PackLines(lines [][]int32, columns int32, blackIs1 bool) []byte {
	stride := int((columns + 7) / 8)
	out := make([]byte, stride*len(lines))
	for i, line := range lines {
		packRow(out[i*stride:(i+1)*stride], line, columns, blackIs1)
	}
	return out
}

func packRow(dst []byte, line []int32, columns int32, blackIs1 bool) {
	black := false
	pos := int32(0)
	for _, next := range line {
		if next > columns {
			next = columns
		}
		if black != blackIs1 {
			setBitsRange(dst, pos, next)
		}
		pos = next
		black = !black
		if pos >= columns {
			break
		}
	}
}

// setBitsRange sets bits [from, to) of an MSB-first packed row.
func setBitsRange(dst []byte, from, to int32) {
	for p := from; p < to; p++ {
		dst[p/8] |= 1 << uint(7-p%8)
	}
}

// StreamPacker packs one row at a time, for callers that want to
// write each decoded line to an io.Writer as it becomes available
// instead of holding the whole bitmap in memory; it must produce
// byte-identical output to PackLines given the same lines.
type StreamPacker struct {
	columns  int32
	blackIs1 bool
	stride   int
}

func NewStreamPacker(columns int32, blackIs1 bool) *StreamPacker {
	return &StreamPacker{columns: columns, blackIs1: blackIs1, stride: int((columns + 7) / 8)}
}

// PackRow packs a single line's change-position vector into a
// caller-supplied buffer, which must be at least Stride() bytes.
func (p *StreamPacker) PackRow(line []int32, dst []byte) []byte {
	row := dst[:p.stride]
	for i := range row {
		row[i] = 0
	}
	packRow(row, line, p.columns, p.blackIs1)
	return row
}

func (p *StreamPacker) Stride() int {
	return p.stride
}
