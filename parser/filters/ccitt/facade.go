package ccitt

import (
	"bufio"
	"bytes"
	"image"
	"image/color"
	"io"

	"golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"

	"github.com/corvidlabs/pdfcore/config"
)

// Pos is a column offset within a decoded row, per spec §3/§6.
type Pos = int32

// DecodeToLines decodes input fully and returns the change-position
// vector for each row, per spec §6 decode_to_lines.
func DecodeToLines(params Params, input []byte) ([][]Pos, error) {
	return decodeToLines(params, bytes.NewReader(input))
}

// DecodeReaderToLines is the reader-accepting counterpart, for
// callers streaming a CCITT payload rather than holding it in memory.
func DecodeReaderToLines(params Params, r io.Reader) ([][]Pos, error) {
	return decodeToLines(params, bufio.NewReader(r))
}

func decodeToLines(params Params, src io.ByteReader) ([][]Pos, error) {
	d, err := NewDecoder(src, params)
	if err != nil {
		return nil, err
	}
	return d.DecodeLines()
}

// DecodeToStream decodes input and writes packed 1bpp rows to sink as
// they complete, returning the number of bytes written, per spec §6
// decode_to_stream. It never buffers the full bitmap.
func DecodeToStream(params Params, input []byte, sink io.Writer) (int64, error) {
	return decodeToStream(params, bytes.NewReader(input), sink)
}

func decodeToStream(params Params, src io.ByteReader, sink io.Writer) (int64, error) {
	d, err := NewDecoder(src, params)
	if err != nil {
		return 0, err
	}
	packer := NewStreamPacker(params.Columns, params.BlackIs1)
	buf := make([]byte, packer.Stride())
	var total int64
	for {
		line, err := d.decodeOneLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, err
		}
		row := packer.PackRow(line, buf)
		n, err := sink.Write(row)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// DecodeBatch decodes several independent CCITT payloads concurrently,
// one Decoder per payload, matching the concurrency model of spec §5:
// no shared mutable state, parallelism through independent instances.
func DecodeBatch(jobs []struct {
	Params Params
	Input  []byte
}) ([][][]Pos, error) {
	results := make([][][]Pos, len(jobs))
	var g errgroup.Group
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			lines, err := DecodeToLines(job.Params, job.Input)
			if err != nil {
				return err
			}
			results[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DecodeBatchWithConfig is DecodeBatch bounded by cfg: at most
// cfg.MaxConcurrentDecodes decoders run at once, and every job's
// Params.DamagedRowsBeforeError is overridden by cfg's operational
// tolerance before decoding starts.
func DecodeBatchWithConfig(jobs []struct {
	Params Params
	Input  []byte
}, cfg *config.CCITTRunConfig) ([][][]Pos, error) {
	if cfg == nil {
		cfg = config.NewDefaultCCITTRunConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	results := make([][][]Pos, len(jobs))
	var g errgroup.Group
	g.SetLimit(cfg.MaxConcurrentDecodes)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			job.Params.DamagedRowsBeforeError = cfg.DamagedRowsBeforeError
			lines, err := DecodeToLines(job.Params, job.Input)
			if err != nil {
				return err
			}
			results[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EncodeTIFF renders decoded lines into an 8-bit image.Gray (white
// pixels 255, black pixels 0) and writes it as a Deflate-compressed
// TIFF, giving the CCITT core an interchange format any image viewer
// can open.
func EncodeTIFF(w io.Writer, lines [][]Pos, columns int32) error {
	rows := len(lines)
	img := image.NewGray(image.Rect(0, 0, int(columns), rows))
	for y, line := range lines {
		black := false
		pos := int32(0)
		for _, next := range line {
			if next > columns {
				next = columns
			}
			c := color.Gray{Y: 255}
			if black {
				c = color.Gray{Y: 0}
			}
			for x := pos; x < next; x++ {
				img.SetGray(int(x), y, c)
			}
			pos = next
			black = !black
			if pos >= columns {
				break
			}
		}
	}
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}
