package extract_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/shiftplan/internal/extract"
)

func TestLines(t *testing.T) {
	runs := []extract.Run{
		// second line, out of order
		{X: 40, Y: 700, W: 10, Size: 10, S: "KO*"},
		{X: 10, Y: 700.5, W: 10, Size: 10, S: "05"},
		{X: 24, Y: 699, W: 12, Size: 10, S: "Di"},
		// first line, split glyph by glyph
		{X: 10, Y: 720, W: 5, Size: 10, S: "A"},
		{X: 15, Y: 720, W: 5, Size: 10, S: "b"},
		{X: 30, Y: 720, W: 20, Size: 10, S: "03/2024"},
		// footer
		{X: 10, Y: 40, W: 30, Size: 8, S: "Seite 1 "},
	}

	assert.Equal(t, []string{"Ab 03/2024", "05 Di KO*", "Seite 1"}, extract.Lines(runs))
	assert.Nil(t, extract.Lines(nil))
}

func TestPlainText(t *testing.T) {
	ctx := context.Background()

	got, err := extract.PlainText{}.Extract(ctx, []byte("Abrechnungsmonat 03/2024\r\n05 Di KO*"))
	require.NoError(t, err)
	assert.Equal(t, "Abrechnungsmonat 03/2024\n05 Di KO*", got)

	// decomposed u + combining diaeresis
	got, err = extract.PlainText{}.Extract(ctx, []byte("Personalschlu\u0308ssel"))
	require.NoError(t, err)
	assert.Equal(t, "Personalschlüssel", got)

	// Windows-1252 "Prüfung"
	got, err = extract.PlainText{}.Extract(ctx, []byte{'P', 'r', 0xfc, 'f', 'u', 'n', 'g'})
	require.NoError(t, err)
	assert.Equal(t, "Prüfung", got)
}

func TestPlainTextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := extract.PlainText{}.Extract(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForFile(t *testing.T) {
	ex, err := extract.ForFile("Dienstplan_03.PDF", nil)
	require.NoError(t, err)
	assert.IsType(t, &extract.PDF{}, ex)

	ex, err = extract.ForFile("roster.txt", nil)
	require.NoError(t, err)
	assert.IsType(t, extract.PlainText{}, ex)

	_, err = extract.ForFile("roster.docx", nil)
	assert.ErrorIs(t, err, extract.ErrUnsupported)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.txt")
	require.NoError(t, os.WriteFile(path, []byte("Abrechnungsmonat 03/2024\n"), 0o644))

	got, err := extract.File(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Abrechnungsmonat 03/2024\n", got)

	_, err = extract.File(context.Background(), filepath.Join(dir, "missing.txt"), nil)
	assert.Error(t, err)
}

func TestPDFRejectsGarbage(t *testing.T) {
	_, err := (&extract.PDF{}).Extract(context.Background(), []byte("not a pdf"))
	assert.Error(t, err)
}

// minimalPDF builds a single page document with the given content stream.
func minimalPDF(content string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFText(t *testing.T) {
	got, err := (&extract.PDF{}).Extract(context.Background(), minimalPDF("BT /F1 12 Tf 10 700 Td (Frueh) Tj ET"))
	require.NoError(t, err)
	assert.Contains(t, got, "Frueh")
}

func TestPDFUnterminatedHexStringHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := (&extract.PDF{}).Extract(ctx, minimalPDF("BT /F1 12 Tf 10 700 Td <4142"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
