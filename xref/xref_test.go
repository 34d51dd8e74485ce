package xref

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidlabs/pdfcore/model"
)

// buildClassicPDF assembles a minimal well-formed PDF with a classic
// xref table, mirroring spec §8 end-to-end scenario 1, and returns its
// bytes.
func buildClassicPDF(t *testing.T) []byte {
	t.Helper()

	header := "%PDF-1.4\n"
	objs := []string{
		"1 0 obj<< /Type/Catalog /Pages 2 0 R>>endobj\n",
		"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n",
		"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]/Contents 4 0 R/Resources<<>>>>endobj\n",
		"4 0 obj<</Length 10>>stream\nHelloWorld\nendstream endobj\n",
	}

	var sb strings.Builder
	sb.WriteString(header)
	offsets := make([]int, len(objs)+1)
	for i, o := range objs {
		offsets[i+1] = sb.Len()
		sb.WriteString(o)
	}

	xrefOffset := sb.Len()
	sb.WriteString("xref\n")
	sb.WriteString(fmt.Sprintf("0 %d\n", len(objs)+1))
	sb.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objs); i++ {
		sb.WriteString(fmt.Sprintf("%010d 00000 n \n", offsets[i]))
	}
	sb.WriteString(fmt.Sprintf("trailer<</Size %d/Root 1 0 R>>\n", len(objs)+1))
	sb.WriteString(fmt.Sprintf("startxref\n%d\n%%%%EOF", xrefOffset))

	return []byte(sb.String())
}

func TestBuildTableClassic(t *testing.T) {
	data := buildClassicPDF(t)

	table, err := BuildTable(data)
	require.NoError(t, err)

	root, ok := table.Trailer()[model.Name("Root")]
	require.True(t, ok)
	require.Equal(t, model.Reference{ObjectNumber: 1, GenerationNumber: 0}, root)

	entry, ok := table.Lookup(3, 0)
	require.True(t, ok)
	require.Equal(t, EntryOffset, entry.Kind)

	free, ok := table.Lookup(0, 65535)
	require.True(t, ok)
	require.Equal(t, EntryFree, free.Kind)
}

func TestFindStartXrefRejectsMissingEOF(t *testing.T) {
	_, err := FindStartXref([]byte("startxref\n10\nnope"))
	require.Error(t, err)
}

func TestCheckHeader(t *testing.T) {
	require.NoError(t, CheckHeader([]byte("%PDF-1.7\n...")))
	require.ErrorIs(t, CheckHeader([]byte("not a pdf at all")), model.ErrNotAPDF)
}

func TestBuildTableRecoversFromCorruptXref(t *testing.T) {
	data := buildClassicPDF(t)
	corrupted := strings.Replace(string(data), "xref\n", "xreX\n", 1)

	table, err := BuildTable([]byte(corrupted))
	require.NoError(t, err)
	_, ok := table.Lookup(1, 0)
	require.True(t, ok)
}
