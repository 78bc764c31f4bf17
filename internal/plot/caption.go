package plot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const captionFontSize = 9.0

var (
	captionFont    *opentype.Font
	captionFontErr error
	captionOnce    sync.Once
)

func loadCaptionFont() (*opentype.Font, error) {
	captionOnce.Do(func() {
		captionFont, captionFontErr = opentype.Parse(goregular.TTF)
		if captionFontErr != nil {
			captionFontErr = fmt.Errorf("parse Go Regular: %w", captionFontErr)
		}
	})
	return captionFont, captionFontErr
}

// drawCaption decodes the rendered chart, writes caption along the bottom
// right edge and re-encodes it as PNG.
func drawCaption(src io.Reader, dst io.Writer, caption string, dpi float64) error {
	f, err := loadCaptionFont()
	if err != nil {
		return fmt.Errorf("load fonts: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    captionFontSize,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("create caption face: %w", err)
	}
	defer face.Close()

	decoded, err := png.Decode(src)
	if err != nil {
		return fmt.Errorf("decode chart: %w", err)
	}

	img := image.NewRGBA(decoded.Bounds())
	draw.Draw(img, img.Bounds(), decoded, decoded.Bounds().Min, draw.Src)

	bounds := img.Bounds()
	width := font.MeasureString(face, caption).Ceil()
	x := bounds.Max.X - width - 12
	if x < bounds.Min.X+4 {
		x = bounds.Min.X + 4
	}
	y := bounds.Max.Y - 10

	drawText(img, caption, x, y, color.RGBA{100, 100, 100, 255}, face)

	if err := png.Encode(dst, img); err != nil {
		return fmt.Errorf("encode captioned chart: %w", err)
	}
	return nil
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
