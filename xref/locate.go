package xref

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/corvidlabs/pdfcore/model"
)

// startXrefSearchWindow bounds how far from the end of the file the
// trailing `startxref <off> %%EOF` is searched for, matching the
// practice of scanning a tail chunk rather than the whole file.
const startXrefSearchWindow = 2048

// headerSearchWindow bounds how far into the file the `%PDF-x.y`
// header must appear, per spec §6.
const headerSearchWindow = 1024

var (
	pdfHeaderMarker = []byte("%PDF-")
	startxrefMarker = []byte("startxref")
	eofMarker       = []byte("%%EOF")
)

// CheckHeader verifies the file starts with a recognizable `%PDF-x.y`
// signature within the first 1024 bytes, per spec §6.
func CheckHeader(data []byte) error {
	window := data
	if len(window) > headerSearchWindow {
		window = window[:headerSearchWindow]
	}
	if bytes.Index(window, pdfHeaderMarker) < 0 {
		return model.ErrNotAPDF
	}
	return nil
}

// FindStartXref locates the byte offset of the latest xref section by
// scanning backward from the end of the file for `startxref <off>`
// followed by `%%EOF`, per spec §6 "the byte offset of the latest
// startxref must appear before the final %%EOF".
func FindStartXref(data []byte) (int64, error) {
	tail := data
	start := 0
	if len(tail) > startXrefSearchWindow {
		start = len(tail) - startXrefSearchWindow
		tail = tail[start:]
	}

	j := bytes.LastIndex(tail, startxrefMarker)
	if j < 0 {
		return 0, fmt.Errorf("%w: %w", model.ErrMalformedXref, errNoStartXref)
	}
	rest := tail[j+len(startxrefMarker):]
	eofIdx := bytes.Index(rest, eofMarker)
	if eofIdx < 0 {
		return 0, fmt.Errorf("%w: %w", model.ErrMalformedXref, errNoStartXref)
	}
	numField := bytes.TrimSpace(rest[:eofIdx])
	offset, err := strconv.ParseInt(string(numField), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad startxref offset: %v", model.ErrMalformedXref, err)
	}
	return offset, nil
}
