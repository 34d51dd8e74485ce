// Package ccitt implements the T.4 Group 3 (1D and mixed 1D/2D) and
// T.6 Group 4 fax decoders: a bit-level Huffman/reference-line state
// machine producing raw bitmaps, usable both in memory and as a
// streaming pipeline.
package ccitt

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// Params configures a decode run, per spec §3 "CCITT entities / Params".
type Params struct {
	K                      int32 // <=-1: Group 4; 0: pure 1D; >=1: mixed, max K consecutive 2D lines
	Columns                int32 // default 1728
	Rows                   int32 // 0 = unknown
	EndOfLine              bool
	EncodedByteAlign       bool
	EndOfBlock             bool
	BlackIs1               bool
	DamagedRowsBeforeError int32
}

// Decoder runs the CCITT state machine described in spec §4.8. It
// consumes its input exactly once; callers needing parallelism run
// independent Decoder instances, one per stream.
type Decoder struct {
	br *bitReader
	p  Params

	refLine, codingLine []int32
	a0i                 int32
	row                 int32
	nextLine2D          bool
	eof                 bool
	truncated           bool
	damagedRows         int32
}

// NewDecoder validates params and returns a ready-to-use Decoder
// reading from src.
func NewDecoder(src io.ByteReader, p Params) (*Decoder, error) {
	if p.Columns < 1 {
		p.Columns = 1728
	} else if p.Columns > math.MaxInt32-2 {
		return nil, fmt.Errorf("%w: Columns too large", ErrInvalidParams)
	}
	if p.Rows == 0 && !p.EndOfBlock {
		return nil, fmt.Errorf("%w: unknown row count requires EndOfBlock", ErrInvalidParams)
	}

	d := &Decoder{br: newBitReader(src), p: p}
	d.codingLine = make([]int32, p.Columns+1)
	d.refLine = make([]int32, p.Columns+2)
	d.codingLine[0] = p.Columns
	d.nextLine2D = p.K < 0

	if err := d.initialize(); err != nil {
		return nil, err
	}
	return d, nil
}

// initialize skips any leading fill bits and an optional EOL marker,
// then reads the first 1D/2D tag bit for mixed mode.
func (d *Decoder) initialize() error {
	found, err := d.br.readEOL()
	if err != nil {
		return err
	}
	if found {
		d.p.EndOfLine = true
	}
	if d.p.K > 0 {
		b, err := d.br.peek(1)
		if err != nil {
			return err
		}
		if b == eofCode {
			return ErrUnexpectedEOF
		}
		d.nextLine2D = b == 0
		d.br.consume(1)
	}
	return nil
}

// DecodeLines runs the full decode and returns the change-position
// vector for each row, per spec §6 decode_to_lines.
func (d *Decoder) DecodeLines() ([][]int32, error) {
	var lines [][]int32
	for d.p.Rows <= 0 || int32(len(lines)) < d.p.Rows {
		line, err := d.decodeOneLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (d *Decoder) decodeOneLine() ([]int32, error) {
	if d.eof {
		if d.truncated {
			return nil, ErrUnexpectedEOF
		}
		return nil, io.EOF
	}

	err := d.decodeRowInto()
	if err != nil && d.p.DamagedRowsBeforeError > 0 && isBadLine(err) {
		d.damagedRows++
		if d.damagedRows > d.p.DamagedRowsBeforeError {
			return nil, fmt.Errorf("%w: damaged row budget exceeded", ErrDecodeFailed)
		}
		// emit a row identical to the reference line and continue
		copy(d.codingLine, d.refLine[:len(d.codingLine)])
		d.a0i = 0
		for d.a0i < d.p.Columns && d.codingLine[d.a0i] < d.p.Columns {
			d.a0i++
		}
	} else if err != nil {
		return nil, err
	}

	line := d.currentLinePositions()
	d.finishRow()
	d.row++
	return line, nil
}

func isBadLine(err error) bool {
	return errors.Is(err, ErrBadLine) || errors.Is(err, ErrBadHorizontalCode) || errors.Is(err, ErrBadModeCode)
}

func (d *Decoder) decodeRowInto() error {
	if d.nextLine2D {
		return d.decode2DRow()
	}
	return d.decode1DRow()
}

// finishRow detects EOL markers, byte-aligns, reads the next tag bit
// for mixed mode, and checks for RTC/end-of-block, mirroring the
// bookkeeping a real G3/G4 stream intersperses between rows. Running
// out of input here is a clean end of input whenever Params.Rows is 0
// ("unknown", per spec §3 — decode until the data runs out) or the row
// just decoded is the one Params.Rows says is last; if Rows is known
// and fewer rows than that were decoded (including failing to find
// the mixed-mode tag bit that is supposed to follow every row), the
// stream ended early and that is recorded via truncated, per spec §9.
func (d *Decoder) finishRow() {
	gotEOL := false
	expectedEnd := !d.p.EndOfBlock && d.p.Rows > 0 && d.row == d.p.Rows-1
	if expectedEnd {
		d.eof = true
	} else if d.p.EndOfLine || !d.p.EncodedByteAlign {
		found, err := d.br.readEOL()
		if err == nil && found {
			gotEOL = true
		}
	}

	if d.p.EncodedByteAlign && !gotEOL {
		d.br.alignToByte()
	}

	if d.p.EndOfBlock && gotEOL {
		// look for five more EOLs completing the six-EOL RTC sequence;
		// this is checked before the generic premature-EOF check below
		// so a clean RTC is never mistaken for a truncated stream.
		allEOL := true
		for i := 0; i < 5; i++ {
			found, err := d.br.readEOL()
			if err != nil || !found {
				allEOL = false
				break
			}
		}
		if allEOL {
			d.eof = true
		}
	}

	if !d.eof {
		code, err := d.br.peek(1)
		if err != nil || code == eofCode {
			d.eof = true
			if d.p.Rows > 0 && d.row < d.p.Rows-1 {
				d.truncated = true
			}
		}
	}

	if !d.eof && d.p.K > 0 {
		b, err := d.br.peek(1)
		if err == nil && b != eofCode {
			d.nextLine2D = b == 0
			d.br.consume(1)
		}
	}
}

func (d *Decoder) currentLinePositions() []int32 {
	out := make([]int32, 0, d.a0i+1)
	for i := int32(0); i <= d.a0i && i < int32(len(d.codingLine)); i++ {
		out = append(out, d.codingLine[i])
	}
	if len(out) == 0 || out[len(out)-1] != d.p.Columns {
		out = append(out, d.p.Columns)
	}
	return out
}

// decodeRun accumulates make-up codes (>=64 pixels) followed by one
// terminating code (0-63 pixels), per spec §4.7.
func (d *Decoder) decodeRun(color Color) (int32, error) {
	table := whiteCodes
	if color == Black {
		table = blackCodes
	}
	var total int32
	for {
		window, err := d.br.peek(16)
		if err != nil {
			return 0, err
		}
		if window == eofCode {
			return 0, ErrUnexpectedEOF
		}
		w := uint32(window)
		idx := -1
		for i := range table {
			if w&table[i].Mask == table[i].Value {
				idx = i
				break
			}
		}
		if idx < 0 {
			return 0, fmt.Errorf("%w: 0x%04x", ErrBadHorizontalCode, w)
		}
		c := table[idx]
		d.br.consume(c.BitsUsed)
		total += c.Pixels
		if c.IsTerminating {
			return total, nil
		}
	}
}

func (d *Decoder) decodeMode() (Mode, error) {
	window, err := d.br.peek(8)
	if err != nil {
		return 0, err
	}
	if window == eofCode {
		return 0, io.EOF
	}
	w := uint32(window)
	for _, m := range modeCodes {
		if w&m.mask == m.value {
			d.br.consume(m.bits)
			return m.mode, nil
		}
	}
	return 0, fmt.Errorf("%w: 0x%02x", ErrBadModeCode, w)
}

func (d *Decoder) addPixels(a1 int32, black int32) error {
	if a1 > d.codingLine[d.a0i] {
		if a1 > d.p.Columns {
			return fmt.Errorf("%w: run extends past Columns (%d)", ErrBadLine, a1)
		}
		if (d.a0i&1)^black != 0 {
			d.a0i++
		}
		d.codingLine[d.a0i] = a1
	}
	return nil
}

func (d *Decoder) addPixelsNeg(a1 int32, black int32) error {
	if a1 > d.codingLine[d.a0i] {
		return d.addPixels(a1, black)
	} else if a1 < d.codingLine[d.a0i] {
		if a1 < 0 {
			return fmt.Errorf("%w: negative run position", ErrBadLine)
		}
		for d.a0i > 0 && a1 <= d.codingLine[d.a0i-1] {
			d.a0i--
		}
		d.codingLine[d.a0i] = a1
	}
	return nil
}

// decode1DRow implements T.4 1D coding (K=0, and 1D lines within
// mixed mode): alternating white/black runs until position reaches
// Columns.
func (d *Decoder) decode1DRow() error {
	// keep refLine equal to the previous row, as decode2DRow does, so a
	// damaged 1D row is replaced by the row before it
	var i int32
	for i = 0; i < d.p.Columns && d.codingLine[i] < d.p.Columns; i++ {
		d.refLine[i] = d.codingLine[i]
	}
	for ; i < d.p.Columns+2; i++ {
		d.refLine[i] = d.p.Columns
	}
	d.codingLine[0] = 0
	d.a0i = 0
	var black int32
	for d.codingLine[d.a0i] < d.p.Columns {
		run, err := d.decodeRun(colorFor(black))
		if err != nil {
			return err
		}
		if err := d.addPixels(d.codingLine[d.a0i]+run, black); err != nil {
			return err
		}
		black ^= 1
	}
	return nil
}

func colorFor(black int32) Color {
	if black != 0 {
		return Black
	}
	return White
}

// decode2DRow implements T.6 Group 4 (and 2D lines within Group 3
// mixed mode) against the previously decoded reference line.
func (d *Decoder) decode2DRow() error {
	var i, b1i, black int32
	for i = 0; i < d.p.Columns && d.codingLine[i] < d.p.Columns; i++ {
		d.refLine[i] = d.codingLine[i]
	}
	for ; i < d.p.Columns+2; i++ {
		d.refLine[i] = d.p.Columns
	}
	d.codingLine[0] = 0
	d.a0i = 0

	advanceB1 := func() error {
		b1i += 2
		if b1i > d.p.Columns+1 {
			return fmt.Errorf("%w: 2D reference overrun", ErrBadLine)
		}
		return nil
	}

	for d.codingLine[d.a0i] < d.p.Columns {
		mode, err := d.decodeMode()
		if err == io.EOF {
			if err := d.addPixels(d.p.Columns, 0); err != nil {
				return err
			}
			d.eof = true
			return nil
		}
		if err != nil {
			return err
		}

		switch mode {
		case ModePass:
			if b1i+1 < d.p.Columns+2 {
				if err := d.addPixels(d.refLine[b1i+1], black); err != nil {
					return err
				}
				if d.refLine[b1i+1] < d.p.Columns {
					b1i += 2
				}
			}
		case ModeHorizontal:
			run1, err := d.decodeRun(colorFor(black))
			if err != nil {
				return err
			}
			run2, err := d.decodeRun(colorFor(1 - black))
			if err != nil {
				return err
			}
			if err := d.addPixels(d.codingLine[d.a0i]+run1, black); err != nil {
				return err
			}
			if d.codingLine[d.a0i] < d.p.Columns {
				if err := d.addPixels(d.codingLine[d.a0i]+run2, 1-black); err != nil {
					return err
				}
			}
			for d.refLine[b1i] <= d.codingLine[d.a0i] && d.refLine[b1i] < d.p.Columns {
				if err := advanceB1(); err != nil {
					return err
				}
			}
		case ModeVR1, ModeVR2, ModeVR3, ModeV0, ModeVL1, ModeVL2, ModeVL3:
			if b1i > d.p.Columns+1 {
				return fmt.Errorf("%w: 2D reference index out of range", ErrBadModeCode)
			}
			offset := verticalOffset(mode)
			var err error
			if offset >= 0 {
				err = d.addPixels(d.refLine[b1i]+offset, black)
			} else {
				err = d.addPixelsNeg(d.refLine[b1i]+offset, black)
			}
			if err != nil {
				return err
			}
			black ^= 1
			if d.codingLine[d.a0i] < d.p.Columns {
				if mode == ModeVL1 || mode == ModeVL2 || mode == ModeVL3 {
					if b1i > 0 {
						b1i--
					} else {
						b1i++
					}
				} else {
					b1i++
				}
				for d.refLine[b1i] <= d.codingLine[d.a0i] && d.refLine[b1i] < d.p.Columns {
					if err := advanceB1(); err != nil {
						return err
					}
				}
			}
		case ModeExtension:
			return fmt.Errorf("%w", ErrUnsupportedExtension)
		default:
			return fmt.Errorf("%w: mode %d", ErrBadModeCode, mode)
		}
	}
	return nil
}

func verticalOffset(m Mode) int32 {
	switch m {
	case ModeV0:
		return 0
	case ModeVR1:
		return 1
	case ModeVR2:
		return 2
	case ModeVR3:
		return 3
	case ModeVL1:
		return -1
	case ModeVL2:
		return -2
	case ModeVL3:
		return -3
	}
	return 0
}
