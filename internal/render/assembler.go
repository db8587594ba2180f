package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"strings"

	"reforma-budgets/internal/models"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

func init() {
	api.DisableConfigDir()
}

// A4 in millimetres.
const (
	pageWidthMM  = 210
	pageHeightMM = 297
)

// Pagination selects how a snapshot taller than one page is split.
type Pagination string

const (
	// PaginationOffset walks windows of one page height while the remaining
	// height is >= 0, so an exact multiple of the page height gets a
	// trailing blank page.
	PaginationOffset Pagination = "offset"
	// PaginationSlice emits only windows that contain part of the snapshot.
	PaginationSlice Pagination = "slice"
)

func ParsePagination(s string) Pagination {
	switch Pagination(strings.ToLower(strings.TrimSpace(s))) {
	case PaginationSlice:
		return PaginationSlice
	default:
		return PaginationOffset
	}
}

// FinalDocument is the assembled budget PDF.
type FinalDocument struct {
	FileName        string
	Data            []byte
	PageCount       int
	SnapshotPages   int
	AttachmentPages int
}

// FileNameFor returns the download name of a budget document.
func FileNameFor(budgetNumber string) string {
	return fmt.Sprintf("orcamento-%s.pdf", budgetNumber)
}

type Assembler struct {
	pagination Pagination
	quality    int
	logger     *zap.Logger
}

func NewAssembler(pagination Pagination, quality int, logger *zap.Logger) *Assembler {
	if pagination != PaginationSlice {
		pagination = PaginationOffset
	}
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	return &Assembler{
		pagination: pagination,
		quality:    quality,
		logger:     logger,
	}
}

// SnapshotPageCount returns how many A4 pages a width x height bitmap spans
// once scaled to the page width.
func SnapshotPageCount(width, height int, mode Pagination) int {
	if width <= 0 || height <= 0 {
		return 1
	}
	// H/297 with H = height*210/width, kept in integers
	num := height * pageWidthMM
	den := width * pageHeightMM

	if mode == PaginationSlice {
		k := (num + den - 1) / den
		if k < 1 {
			k = 1
		}
		return k
	}
	return 1 + num/den
}

// Assemble builds the budget PDF: the snapshot pages first, then one page per
// attachment page in order. Nothing is returned unless every page is written.
func (a *Assembler) Assemble(ctx context.Context, budgetNumber string, snap *Snapshot, pages []RasterPage) (*FinalDocument, error) {
	if snap == nil || snap.Image == nil {
		return nil, models.ContentNotReadyError("snapshot is missing")
	}

	tiles, err := a.tileSnapshot(ctx, snap)
	if err != nil {
		return nil, err
	}

	readers := make([]io.Reader, 0, len(tiles)+len(pages))
	for _, t := range tiles {
		readers = append(readers, bytes.NewReader(t))
	}
	for _, p := range pages {
		if len(p.JPEG) == 0 {
			return nil, fmt.Errorf("failed to assemble document: attachment page %d is empty", p.Index)
		}
		data, err := a.fitPageWidth(p)
		if err != nil {
			return nil, err
		}
		readers = append(readers, bytes.NewReader(data))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	imp, err := api.Import("formsize:A4, position:tl, scalefactor:1.0 rel", types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to configure page import: %w", err)
	}

	var out bytes.Buffer
	if err := importPages(&out, readers, imp); err != nil {
		return nil, fmt.Errorf("failed to assemble document: %w", err)
	}

	want := len(tiles) + len(pages)
	got, err := api.PageCount(bytes.NewReader(out.Bytes()), relaxedConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to verify assembled document: %w", err)
	}
	if got != want {
		return nil, fmt.Errorf("failed to verify assembled document: got %d pages, want %d", got, want)
	}

	a.logger.Info("budget document assembled",
		zap.String("budget_number", budgetNumber),
		zap.Int("snapshot_pages", len(tiles)),
		zap.Int("attachment_pages", len(pages)),
		zap.Int("bytes", out.Len()),
	)

	return &FinalDocument{
		FileName:        FileNameFor(budgetNumber),
		Data:            out.Bytes(),
		PageCount:       got,
		SnapshotPages:   len(tiles),
		AttachmentPages: len(pages),
	}, nil
}

func importPages(w io.Writer, readers []io.Reader, imp *pdfcpu.Import) error {
	return api.ImportImages(nil, w, readers, imp, relaxedConfig())
}

// fitPageWidth makes an attachment page span the full page width. Pages
// taller than A4 proportions lose the rows below the page bottom; other
// pages pass through unchanged.
func (a *Assembler) fitPageWidth(p RasterPage) ([]byte, error) {
	width, height := p.Width, p.Height
	if width <= 0 || height <= 0 {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(p.JPEG))
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment page %d: %w", p.Index, err)
		}
		width, height = cfg.Width, cfg.Height
	}
	if height*pageWidthMM <= width*pageHeightMM {
		return p.JPEG, nil
	}

	src, err := jpeg.Decode(bytes.NewReader(p.JPEG))
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment page %d: %w", p.Index, err)
	}
	bounds := src.Bounds()
	keep := int(math.Round(float64(bounds.Dx()) * pageHeightMM / pageWidthMM))
	if keep < 1 {
		keep = 1
	}
	if keep >= bounds.Dy() {
		return p.JPEG, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), keep))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: a.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode attachment page %d: %w", p.Index, err)
	}
	a.logger.Debug("attachment page cropped to page height",
		zap.Int("page", p.Index),
		zap.Int("height", bounds.Dy()),
		zap.Int("kept", keep),
	)
	return buf.Bytes(), nil
}

// tileSnapshot crops the snapshot into page-sized windows. Window i covers
// rows [i*page, (i+1)*page); rows past the bitmap stay white.
func (a *Assembler) tileSnapshot(ctx context.Context, snap *Snapshot) ([][]byte, error) {
	bounds := snap.Image.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	k := SnapshotPageCount(width, height, a.pagination)
	pageHeight := float64(width) * pageHeightMM / pageWidthMM
	tileHeight := int(math.Round(pageHeight))

	tiles := make([][]byte, 0, k)
	for i := 0; i < k; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tile := image.NewRGBA(image.Rect(0, 0, width, tileHeight))
		draw.Draw(tile, tile.Bounds(), image.White, image.Point{}, draw.Src)

		top := bounds.Min.Y + int(math.Round(float64(i)*pageHeight))
		if top < bounds.Max.Y {
			src := image.Rect(bounds.Min.X, top, bounds.Max.X, top+tileHeight).Intersect(bounds)
			draw.Draw(tile, image.Rect(0, 0, src.Dx(), src.Dy()), snap.Image, src.Min, draw.Src)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, tile, &jpeg.Options{Quality: a.quality}); err != nil {
			return nil, fmt.Errorf("failed to encode snapshot page %d: %w", i+1, err)
		}
		tiles = append(tiles, buf.Bytes())
	}

	return tiles, nil
}
