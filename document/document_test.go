package document

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvidlabs/pdfcore/config"
	"github.com/corvidlabs/pdfcore/logging"
	"github.com/corvidlabs/pdfcore/model"
)

// buildPDF assembles a well-formed classic-xref PDF from a list of
// `n g obj ... endobj` bodies (without the header/xref/trailer), and
// computes correct offsets, mirroring spec §8 end-to-end scenarios.
func buildPDF(t *testing.T, objs []string) []byte {
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
	fmt.Fprintf(&sb, "trailer<</Size %d/Root 1 0 R>>\n", len(objs)+1)
	fmt.Fprintf(&sb, "startxref\n%d\n%%%%EOF", xrefOffset)
	return []byte(sb.String())
}

func TestParseDocumentScenarioOne(t *testing.T) {
	content := "BT /F1 12 Tf 100 700 Td (Hello World) Tj ET\n"
	objs := []string{
		"1 0 obj<< /Type/Catalog /Pages 2 0 R>>endobj\n",
		"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n",
		"3 0 obj<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]/Contents 4 0 R/Resources<<>>>>endobj\n",
		fmt.Sprintf("4 0 obj<</Length %d>>stream\n%sendstream endobj\n", len(content), content),
	}
	data := buildPDF(t, objs)

	doc, err := ParseDocument(data)
	require.NoError(t, err)
	require.Equal(t, 1, doc.PageCount())

	page, ok := doc.GetPage(1)
	require.True(t, ok)

	bs, err := page.ContentsStreamBytes()
	require.NoError(t, err)
	require.Contains(t, string(bs), "Hello World")
}

func TestContentsStreamArrayConcatenation(t *testing.T) {
	c5 := "BT (A) Tj ET "
	c6 := "BT (B) Tj ET"
	objs := []string{
		"1 0 obj<< /Type/Catalog /Pages 2 0 R>>endobj\n",
		"2 0 obj<</Type/Pages/Kids[3 0 R]/Count 1>>endobj\n",
		"3 0 obj<</Type/Page/Parent 2 0 R/Contents[5 0 R 6 0 R]/Resources<<>>>>endobj\n",
		"4 0 obj<<>>endobj\n",
		fmt.Sprintf("5 0 obj<</Length %d>>stream\n%sendstream endobj\n", len(c5), c5),
		fmt.Sprintf("6 0 obj<</Length %d>>stream\n%sendstream endobj\n", len(c6), c6),
	}
	data := buildPDF(t, objs)

	doc, err := ParseDocument(data)
	require.NoError(t, err)

	page, ok := doc.GetPage(1)
	require.True(t, ok)

	bs, err := page.ContentsStreamBytes()
	require.NoError(t, err)
	require.Contains(t, string(bs), "A")
	require.Contains(t, string(bs), "B")
}

func TestResolveUnresolvedReferenceIsNull(t *testing.T) {
	objs := []string{
		"1 0 obj<< /Type/Catalog /Pages 2 0 R>>endobj\n",
		"2 0 obj<</Type/Pages/Kids[]/Count 0>>endobj\n",
	}
	data := buildPDF(t, objs)

	doc, err := ParseDocument(data)
	require.NoError(t, err)

	got := doc.Resolve(model.Reference{ObjectNumber: 999, GenerationNumber: 0})
	require.Equal(t, model.Null{}, got)
}

func TestGetAllPagesSkipsMalformedKidsAndLogs(t *testing.T) {
	handler := logging.NewBufferedHandler(nil)
	logging.SetLogger(slog.New(handler))
	defer logging.SetLogger(nil)

	objs := []string{
		"1 0 obj<< /Type/Catalog /Pages 2 0 R>>endobj\n",
		"2 0 obj<</Type/Pages/Count 0>>endobj\n", // missing /Kids
	}
	data := buildPDF(t, objs)

	doc, err := ParseDocument(data)
	require.NoError(t, err)
	require.Equal(t, 0, doc.PageCount())
	require.True(t, handler.Contains("/Kids"))
}

func TestGetObjectGenerationMismatchIsAbsent(t *testing.T) {
	objs := []string{
		"1 0 obj<< /Type/Catalog /Pages 2 0 R>>endobj\n",
		"2 0 obj<</Type/Pages/Kids[]/Count 0>>endobj\n",
	}
	data := buildPDF(t, objs)

	doc, err := ParseDocument(data)
	require.NoError(t, err)

	_, ok := doc.GetObjectGeneration(1, 7)
	require.False(t, ok)

	obj, ok := doc.GetObject(1)
	require.True(t, ok)
	require.Equal(t, 1, obj.Number)
}

func TestParseDocumentWithConfigStrictRejectsCorruptXref(t *testing.T) {
	objs := []string{
		"1 0 obj<< /Type/Catalog /Pages 2 0 R>>endobj\n",
		"2 0 obj<</Type/Pages/Kids[]/Count 0>>endobj\n",
	}
	data := buildPDF(t, objs)
	corrupt := strings.Replace(string(data), "xref\n", "xreX\n", 1)

	cfg := config.NewDefaultParserConfig()
	cfg.XrefRecovery = config.XrefStrict
	_, err := ParseDocumentWithConfig([]byte(corrupt), cfg)
	require.Error(t, err)

	// the default (recover-scan) config still recovers the same file.
	doc, err := ParseDocument([]byte(corrupt))
	require.NoError(t, err)
	_, ok := doc.GetObject(1)
	require.True(t, ok)
}

func TestParseDocumentWithConfigRejectsInvalidConfig(t *testing.T) {
	objs := []string{
		"1 0 obj<< /Type/Catalog /Pages 2 0 R>>endobj\n",
		"2 0 obj<</Type/Pages/Kids[]/Count 0>>endobj\n",
	}
	data := buildPDF(t, objs)

	cfg := config.NewDefaultParserConfig()
	cfg.XrefRecovery = "bogus"
	_, err := ParseDocumentWithConfig(data, cfg)
	require.Error(t, err)
}
