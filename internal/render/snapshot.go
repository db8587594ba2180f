package render

import (
	"context"
	"image"
	"math"

	"reforma-budgets/internal/models"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Snapshot is a bitmap capture of a resolved layout.
type Snapshot struct {
	Image  *image.RGBA
	Width  int
	Height int
}

type Snapshotter struct {
	scale  float64
	logger *zap.Logger
}

// NewSnapshotter captures layouts oversampled by scale (2 for print).
func NewSnapshotter(scale float64, logger *zap.Logger) *Snapshotter {
	if scale <= 0 {
		scale = 2
	}
	return &Snapshotter{
		scale:  scale,
		logger: logger,
	}
}

// Capture draws l onto a white canvas. The layout must already be resolved;
// Capture never waits for it.
func (s *Snapshotter) Capture(ctx context.Context, l *Layout) (*Snapshot, error) {
	if l == nil {
		return nil, models.ContentNotReadyError("budget layout is not available")
	}
	select {
	case <-l.Done():
	default:
		return nil, models.ContentNotReadyError("budget layout has not been resolved")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs, err := loadFonts()
	if err != nil {
		return nil, err
	}

	w, h := l.Size()
	width := int(math.Round(float64(w) * s.scale))
	height := int(math.Round(float64(h) * s.scale))

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	for _, op := range l.snapshotOps() {
		switch op.kind {
		case opText:
			if err := s.drawText(canvas, fs, op); err != nil {
				return nil, err
			}
		case opRule, opBox:
			draw.Draw(canvas, s.rect(op), image.NewUniform(op.fill), image.Point{}, draw.Over)
		case opImage:
			draw.CatmullRom.Scale(canvas, s.rect(op), op.img, op.img.Bounds(), draw.Over, nil)
		}
	}

	s.logger.Debug("budget layout captured",
		zap.Int("width", width),
		zap.Int("height", height),
	)

	return &Snapshot{Image: canvas, Width: width, Height: height}, nil
}

func (s *Snapshotter) rect(op drawOp) image.Rectangle {
	x0 := int(math.Round(op.x * s.scale))
	y0 := int(math.Round(op.y * s.scale))
	x1 := int(math.Round((op.x + op.w) * s.scale))
	y1 := int(math.Round((op.y + op.h) * s.scale))
	if y1 == y0 {
		y1++
	}
	return image.Rect(x0, y0, x1, y1)
}

func (s *Snapshotter) drawText(dst *image.RGBA, fs *fontSet, op drawOp) error {
	if op.text == "" {
		return nil
	}

	face, err := fs.face(op.style.size*s.scale, op.style.bold)
	if err != nil {
		return err
	}

	x := op.x * s.scale
	switch op.align {
	case alignRight:
		x -= measure(face, op.text)
	case alignCenter:
		x -= measure(face, op.text) / 2
	}

	// center the glyph box vertically in the line box
	metrics := face.Metrics()
	ascent := fixedToFloat(metrics.Ascent)
	descent := fixedToFloat(metrics.Descent)
	lineHeight := op.style.lineHeight * s.scale
	baseline := op.y*s.scale + (lineHeight-(ascent+descent))/2 + ascent

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(op.style.color),
		Face: face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(baseline))),
	}
	d.DrawString(op.text)
	return nil
}
