package render

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"reforma-budgets/internal/models"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// RasterPage is one rendered attachment page.
type RasterPage struct {
	Index  int
	Width  int
	Height int
	JPEG   []byte
}

type Rasterizer struct {
	zoom    float64
	quality int
	logger  *zap.Logger
}

// NewRasterizer renders pages at 72*zoom dpi and encodes them as JPEG.
func NewRasterizer(zoom float64, quality int, logger *zap.Logger) *Rasterizer {
	if zoom <= 0 {
		zoom = 1.5
	}
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &Rasterizer{
		zoom:    zoom,
		quality: quality,
		logger:  logger,
	}
}

// Rasterize renders every page of pdf in order. Any failure discards the pages
// rendered so far and returns a DocumentParseError.
func (r *Rasterizer) Rasterize(ctx context.Context, pdf []byte) ([]RasterPage, error) {
	if !hasPDFHeader(pdf) {
		return nil, models.DocumentParseError("attachment is not a PDF document", nil)
	}

	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, models.DocumentParseError("failed to open attachment", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total <= 0 {
		return nil, models.DocumentParseError("attachment has no pages", nil)
	}

	dpi := 72 * r.zoom
	pages := make([]RasterPage, 0, total)
	for n := 0; n < total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(n, dpi)
		if err != nil {
			return nil, models.DocumentParseError(fmt.Sprintf("failed to render page %d", n+1), err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality}); err != nil {
			return nil, models.DocumentParseError(fmt.Sprintf("failed to encode page %d", n+1), err)
		}

		bounds := img.Bounds()
		pages = append(pages, RasterPage{
			Index:  n + 1,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
			JPEG:   buf.Bytes(),
		})
	}

	r.logger.Debug("attachment rasterized",
		zap.Int("pages", len(pages)),
		zap.Float64("dpi", dpi),
	)

	return pages, nil
}

// PageCount validates pdf and returns its number of pages.
func PageCount(pdf []byte) (int, error) {
	if !hasPDFHeader(pdf) {
		return 0, models.DocumentParseError("attachment is not a PDF document", nil)
	}
	n, err := api.PageCount(bytes.NewReader(pdf), relaxedConfig())
	if err != nil {
		return 0, models.DocumentParseError("failed to read attachment", err)
	}
	return n, nil
}

func relaxedConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// hasPDFHeader looks for the "%PDF-" marker, which may follow some junk bytes.
func hasPDFHeader(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}
