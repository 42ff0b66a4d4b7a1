// Package debug provides screenshots and light gizmos for the demo.
package debug

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/Faultbox/forwardfx/internal/engine/gpu"
)

// ScreenshotCapture writes render targets to PNG files.
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewScreenshotCapture creates a new screenshot capture handler.
func NewScreenshotCapture(outputDir, prefix string) *ScreenshotCapture {
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// SetOutputDir sets the output directory for screenshots.
func (sc *ScreenshotCapture) SetOutputDir(dir string) {
	sc.outputDir = dir
}

// Capture reads a target back from the device and saves it.
func (sc *ScreenshotCapture) Capture(ctx gpu.Context, target gpu.Target, width, height int) (string, error) {
	pixels, err := ctx.ReadPixels(target, width, height)
	if err != nil {
		return "", fmt.Errorf("reading pixels: %w", err)
	}
	return sc.CaptureFromPixels(pixels, width, height)
}

// CaptureFromPixels saves RGBA rows ordered bottom to top, as read back from
// the device, flipping them upright.
func (sc *ScreenshotCapture) CaptureFromPixels(pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := &image.NRGBA{
		Pix:    pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	return sc.CaptureFromImage(imaging.FlipV(img))
}

// CaptureFromImage saves an upright image.
func (sc *ScreenshotCapture) CaptureFromImage(img image.Image) (string, error) {
	if sc.outputDir != "" {
		if err := os.MkdirAll(sc.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := sc.GenerateFilename()
	if err := imaging.Save(img, filename); err != nil {
		return "", fmt.Errorf("saving %s: %w", filename, err)
	}
	return filename, nil
}

// GenerateFilename generates a screenshot filename without saving.
func (sc *ScreenshotCapture) GenerateFilename() string {
	timestamp := sc.now().Format("2006-01-02_15-04-05.000")
	filename := fmt.Sprintf("%s_%s.png", sc.prefix, timestamp)
	if sc.outputDir != "" {
		filename = filepath.Join(sc.outputDir, filename)
	}
	return filename
}
