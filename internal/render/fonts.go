package render

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type faceKey struct {
	size float64
	bold bool
}

// fontSet hands out faces of the Go fonts by pixel size, cached per size.
type fontSet struct {
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

var (
	fontsOnce sync.Once
	fonts     *fontSet
	fontsErr  error
)

func loadFonts() (*fontSet, error) {
	fontsOnce.Do(func() {
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontsErr = fmt.Errorf("failed to parse regular font: %w", err)
			return
		}
		bold, err := opentype.Parse(gobold.TTF)
		if err != nil {
			fontsErr = fmt.Errorf("failed to parse bold font: %w", err)
			return
		}
		fonts = &fontSet{
			regular: regular,
			bold:    bold,
			faces:   make(map[faceKey]font.Face),
		}
	})
	return fonts, fontsErr
}

// face returns a face whose em is size pixels.
func (fs *fontSet) face(size float64, bold bool) (font.Face, error) {
	key := faceKey{size: size, bold: bold}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if f, ok := fs.faces[key]; ok {
		return f, nil
	}

	src := fs.regular
	if bold {
		src = fs.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	fs.faces[key] = f
	return f, nil
}

func measure(f font.Face, s string) float64 {
	return fixedToFloat(font.MeasureString(f, s))
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
