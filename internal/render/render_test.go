package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"
	"time"

	"reforma-budgets/internal/form"
	"reforma-budgets/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func jpegPage(t *testing.T, index, w, h int) RasterPage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solidImage(w, h, color.Gray{Y: uint8(40 * index)}), nil))
	return RasterPage{Index: index, Width: w, Height: h, JPEG: buf.Bytes()}
}

func TestSnapshotPageCount(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		offset int
		slice  int
	}{
		{"shorter than a page", 210, 200, 1, 1},
		{"just under a page", 210, 296, 1, 1},
		{"exactly one page", 210, 297, 2, 1},
		{"just over a page", 210, 298, 2, 2},
		{"exactly two pages", 210, 594, 3, 2},
		{"two and a bit", 210, 600, 3, 3},
		{"print width single page", 1588, 2200, 1, 1},
		{"print width long", 1588, 5000, 3, 3},
		{"degenerate", 0, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.offset, SnapshotPageCount(tt.width, tt.height, PaginationOffset))
			assert.Equal(t, tt.slice, SnapshotPageCount(tt.width, tt.height, PaginationSlice))
		})
	}
}

func TestParsePagination(t *testing.T) {
	assert.Equal(t, PaginationSlice, ParsePagination("slice"))
	assert.Equal(t, PaginationSlice, ParsePagination(" SLICE "))
	assert.Equal(t, PaginationOffset, ParsePagination("offset"))
	assert.Equal(t, PaginationOffset, ParsePagination("whatever"))
}

func TestAssembler_SnapshotThenAttachmentPages(t *testing.T) {
	a := NewAssembler(PaginationOffset, 80, zap.NewNop())
	snap := &Snapshot{Image: solidImage(420, 400, color.White), Width: 420, Height: 400}
	pages := []RasterPage{jpegPage(t, 1, 60, 85), jpegPage(t, 2, 60, 85), jpegPage(t, 3, 85, 60)}

	doc, err := a.Assemble(context.Background(), "ORC-1A2B3C4D", snap, pages)
	require.NoError(t, err)

	assert.Equal(t, "orcamento-ORC-1A2B3C4D.pdf", doc.FileName)
	assert.Equal(t, 1, doc.SnapshotPages)
	assert.Equal(t, 3, doc.AttachmentPages)
	assert.Equal(t, 4, doc.PageCount)

	n, err := PageCount(doc.Data)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestAssembler_TallSnapshotWithoutAttachment(t *testing.T) {
	// 210 x 700 spans 700/297 = 2.36 pages
	snap := &Snapshot{Image: solidImage(210, 700, color.White), Width: 210, Height: 700}

	offset, err := NewAssembler(PaginationOffset, 80, zap.NewNop()).Assemble(context.Background(), "ORC-00000001", snap, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, offset.PageCount)
	assert.Zero(t, offset.AttachmentPages)

	// exact multiple: offset keeps the trailing blank page, slice drops it
	exact := &Snapshot{Image: solidImage(210, 594, color.White), Width: 210, Height: 594}
	withBlank, err := NewAssembler(PaginationOffset, 80, zap.NewNop()).Assemble(context.Background(), "ORC-00000002", exact, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, withBlank.PageCount)

	sliced, err := NewAssembler(PaginationSlice, 80, zap.NewNop()).Assemble(context.Background(), "ORC-00000002", exact, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, sliced.PageCount)
}

func TestAssembler_MissingSnapshot(t *testing.T) {
	_, err := NewAssembler(PaginationOffset, 80, zap.NewNop()).Assemble(context.Background(), "ORC-1", nil, nil)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindContentNotReady))
}

func TestAssembler_EmptyAttachmentPage(t *testing.T) {
	snap := &Snapshot{Image: solidImage(210, 100, color.White), Width: 210, Height: 100}
	_, err := NewAssembler(PaginationOffset, 80, zap.NewNop()).Assemble(context.Background(), "ORC-1", snap, []RasterPage{{Index: 1}})
	require.Error(t, err)
}

func TestRasterizer_PageCountRoundTrip(t *testing.T) {
	// build a 3 page PDF: one snapshot page plus two attachment pages
	snap := &Snapshot{Image: solidImage(210, 150, color.White), Width: 210, Height: 150}
	doc, err := NewAssembler(PaginationOffset, 80, zap.NewNop()).
		Assemble(context.Background(), "ORC-ROUNDTRIP", snap, []RasterPage{jpegPage(t, 1, 60, 85), jpegPage(t, 2, 60, 85)})
	require.NoError(t, err)
	require.Equal(t, 3, doc.PageCount)

	pages, err := NewRasterizer(1.0, 85, zap.NewNop()).Rasterize(context.Background(), doc.Data)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, p := range pages {
		assert.Equal(t, i+1, p.Index)
		assert.Positive(t, p.Width)
		assert.Positive(t, p.Height)

		img, err := jpeg.Decode(bytes.NewReader(p.JPEG))
		require.NoError(t, err)
		assert.Equal(t, p.Width, img.Bounds().Dx())
	}
}

func TestRasterizer_RejectsNonPDF(t *testing.T) {
	r := NewRasterizer(1.5, 90, zap.NewNop())

	for name, data := range map[string][]byte{
		"empty":     nil,
		"text":      []byte("just some text"),
		"png":       {0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
		"truncated": []byte("%PDF-1.7\n1 0 obj\n<<"),
	} {
		t.Run(name, func(t *testing.T) {
			pages, err := r.Rasterize(context.Background(), data)
			require.Error(t, err)
			assert.Nil(t, pages)
			assert.True(t, models.IsKind(err, models.KindDocumentParse), "got %v", err)
		})
	}
}

func TestPageCount_RejectsNonPDF(t *testing.T) {
	_, err := PageCount([]byte("nope"))
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindDocumentParse))
}

func testFields() form.Fields {
	return form.Fields{
		BudgetNumber:      "ORC-ABCDEF12",
		ClientName:        "Maria Souza",
		Description:       "Pintura completa do apartamento.\nTroca de piso da cozinha.",
		Duration:          "10 dias",
		ValueWithMaterial: "1500.50",
		ValidityDays:      "15",
		PaymentMethod:     "PIX",
		Date:              time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestSnapshotter_RequiresResolvedLayout(t *testing.T) {
	s := NewSnapshotter(2, zap.NewNop())

	_, err := s.Capture(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindContentNotReady))

	l := NewLayout(LayoutInput{Fields: testFields()})
	_, err = s.Capture(context.Background(), l)
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindContentNotReady))
}

func TestSnapshotter_CapturesOnePage(t *testing.T) {
	settings := models.DefaultCompanySettings(uuid.New())
	l := NewLayout(LayoutInput{Fields: testFields(), Company: settings, AttachmentName: "materiais.pdf"})

	require.NoError(t, l.Resolve())
	select {
	case <-l.Done():
	default:
		t.Fatal("layout not marked done after Resolve")
	}
	require.NoError(t, l.Resolve())

	w, h := l.Size()
	assert.Equal(t, PageWidthPx, w)
	assert.Equal(t, PageHeightPx, h)

	snap, err := NewSnapshotter(2, zap.NewNop()).Capture(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, 2*PageWidthPx, snap.Width)
	assert.Equal(t, 2*PageHeightPx, snap.Height)
	assert.Equal(t, 1, SnapshotPageCount(snap.Width, snap.Height, PaginationOffset))

	// something besides the white background was drawn
	inked := false
	for i := 0; i < len(snap.Image.Pix) && !inked; i += 4 {
		inked = snap.Image.Pix[i] < 0x80
	}
	assert.True(t, inked)
}

func TestLayout_LongDescriptionGrows(t *testing.T) {
	fields := testFields()
	fields.Description = strings.Repeat("Remoção de revestimento antigo e aplicação de massa corrida. ", 300)

	l := NewLayout(LayoutInput{Fields: fields, Logo: solidImage(300, 100, color.Black)})
	require.NoError(t, l.Resolve())

	_, h := l.Size()
	assert.Greater(t, h, PageHeightPx)

	snap, err := NewSnapshotter(1, zap.NewNop()).Capture(context.Background(), l)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, SnapshotPageCount(snap.Width, snap.Height, PaginationOffset), 2)
}

func TestWrapText(t *testing.T) {
	width := func(s string) float64 { return float64(len(s)) }

	assert.Equal(t, []string{"aaa bbb", "ccc"}, wrapText("aaa bbb ccc", 7, width))
	assert.Equal(t, []string{"one", "", "two"}, wrapText("one\n\ntwo", 10, width))
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, wrapText("abcdefghij", 4, width))
}

func grayAt(t *testing.T, p RasterPage, x, y int) int {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(p.JPEG))
	require.NoError(t, err)
	b := img.Bounds()
	return int(color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y)
}

func TestAssembler_AttachmentPagesKeepOrder(t *testing.T) {
	snap := &Snapshot{Image: solidImage(210, 150, color.White), Width: 210, Height: 150}
	pages := []RasterPage{jpegPage(t, 1, 60, 85), jpegPage(t, 2, 60, 85), jpegPage(t, 3, 60, 85)}

	doc, err := NewAssembler(PaginationOffset, 90, zap.NewNop()).Assemble(context.Background(), "ORC-ORDER001", snap, pages)
	require.NoError(t, err)
	require.Equal(t, 4, doc.PageCount)

	out, err := NewRasterizer(1.0, 95, zap.NewNop()).Rasterize(context.Background(), doc.Data)
	require.NoError(t, err)
	require.Len(t, out, 4)

	assert.InDelta(t, 255, grayAt(t, out[0], out[0].Width/2, out[0].Height/2), 8)
	for i, want := range []int{40, 80, 120} {
		p := out[i+1]
		assert.InDelta(t, want, grayAt(t, p, p.Width/2, p.Height/2), 8, "page %d", i+2)
	}
}

func TestAssembler_TallAttachmentPageFillsWidth(t *testing.T) {
	snap := &Snapshot{Image: solidImage(210, 150, color.White), Width: 210, Height: 150}
	// 60 x 170 is taller than A4 proportions, 170 x 60 is wider
	pages := []RasterPage{jpegPage(t, 1, 60, 170), jpegPage(t, 2, 170, 60)}

	doc, err := NewAssembler(PaginationOffset, 90, zap.NewNop()).Assemble(context.Background(), "ORC-TALL0001", snap, pages)
	require.NoError(t, err)
	require.Equal(t, 3, doc.PageCount)

	out, err := NewRasterizer(1.0, 95, zap.NewNop()).Rasterize(context.Background(), doc.Data)
	require.NoError(t, err)
	require.Len(t, out, 3)

	tall := out[1]
	assert.InDelta(t, 40, grayAt(t, tall, 5, 5), 8)
	assert.InDelta(t, 40, grayAt(t, tall, tall.Width-5, 5), 8, "right edge left blank")
	assert.InDelta(t, 40, grayAt(t, tall, tall.Width/2, tall.Height-5), 8, "page bottom left blank")

	wide := out[2]
	assert.InDelta(t, 80, grayAt(t, wide, 5, 5), 8)
	assert.InDelta(t, 80, grayAt(t, wide, wide.Width-5, 5), 8)
}

func TestAssembler_FitPageWidthCropsBottom(t *testing.T) {
	a := NewAssembler(PaginationOffset, 90, zap.NewNop())

	short := jpegPage(t, 1, 210, 200)
	data, err := a.fitPageWidth(short)
	require.NoError(t, err)
	assert.Equal(t, short.JPEG, data)

	tall := jpegPage(t, 2, 210, 600)
	data, err = a.fitPageWidth(tall)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 210, cfg.Width)
	assert.Equal(t, 297, cfg.Height)

	// size read from the JPEG when the page carries none
	tall.Width, tall.Height = 0, 0
	data, err = a.fitPageWidth(tall)
	require.NoError(t, err)
	cfg, err = jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 297, cfg.Height)
}
