package document

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

// buildPDFWithInfo is buildPDF's layout plus a trailer /Info entry
// pointing at the last object in objs, for exercising DocumentInfo.
func buildPDFWithInfo(t *testing.T, objs []string) []byte {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs)+1)
	for i, o := range objs {
		offsets[i+1] = sb.Len()
		sb.WriteString(o)
	}

	xrefOffset := sb.Len()
	sb.WriteString("xref\n")
	fmt.Fprintf(&sb, "0 %d\n", len(objs)+1)
	sb.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&sb, "%010d 00000 n \n", offsets[i])
	}
	infoNum := len(objs)
	fmt.Fprintf(&sb, "trailer<</Size %d/Root 1 0 R/Info %d 0 R>>\n", len(objs)+1, infoNum)
	fmt.Fprintf(&sb, "startxref\n%d\n%%%%EOF", xrefOffset)
	return []byte(sb.String())
}

func TestDocumentInfoDecodesRawAndUTF16BE(t *testing.T) {
	objs := []string{
		"1 0 obj<< /Type/Catalog /Pages 2 0 R>>endobj\n",
		"2 0 obj<</Type/Pages/Kids[]/Count 0>>endobj\n",
		"3 0 obj<</Title(hello)/Author<00480069>>>endobj\n",
	}
	data := buildPDFWithInfo(t, objs)

	doc, err := ParseDocument(data)
	require.NoError(t, err)

	raw, err := doc.DocumentInfo(nil)
	require.NoError(t, err)
	require.Equal(t, "hello", raw["Title"])

	decoded, err := doc.DocumentInfo(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM))
	require.NoError(t, err)
	require.Equal(t, "Hi", decoded["Author"])
}

func TestDocumentInfoMissingIsEmptyMap(t *testing.T) {
	objs := []string{
		"1 0 obj<< /Type/Catalog /Pages 2 0 R>>endobj\n",
		"2 0 obj<</Type/Pages/Kids[]/Count 0>>endobj\n",
	}
	data := buildPDF(t, objs)

	doc, err := ParseDocument(data)
	require.NoError(t, err)

	info, err := doc.DocumentInfo(nil)
	require.NoError(t, err)
	require.Empty(t, info)
}
