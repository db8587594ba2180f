package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

// LogoFetcher downloads and decodes the company logo (PNG, JPEG or WebP).
type LogoFetcher struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewLogoFetcher(timeout time.Duration, logger *zap.Logger) *LogoFetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LogoFetcher{
		timeout: timeout,
		logger:  logger,
	}
}

func (f *LogoFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	if url == "" {
		return nil, errors.New("empty logo url")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	code, body, errs := fiber.Get(url).Timeout(f.timeout).Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to fetch logo: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("failed to fetch logo: unexpected status %d", code)
	}

	f.logger.Debug("logo fetched", zap.String("url", url), zap.Int("bytes", len(body)))
	return DecodeImage(body)
}

// DecodeImage decodes any of the registered image formats.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
