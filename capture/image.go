package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gen2brain/heic"
	"golang.org/x/image/draw"

	// Registered so image.Decode handles PNG and GIF uploads
	_ "image/gif"
	_ "image/png"
)

// JPEG qualities used when encoding frames for the OCR model. The second
// value is the escalated quality for the retry attempt.
const (
	QualityStandard = 85
	QualityHigh     = 95
)

// DecodeFrame decodes an uploaded screenshot. HEIC/HEIF needs a dedicated
// decoder; everything else goes through image.Decode.
func DecodeFrame(data []byte, mimeType string) (image.Image, error) {
	if mimeType == "image/heic" || mimeType == "image/heif" {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode heic: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// HEIC files are often uploaded without a usable content type
		if himg, herr := heic.Decode(bytes.NewReader(data)); herr == nil {
			return himg, nil
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// ScaleToWidth scales an image down so its width is at most maxWidth pixels,
// preserving aspect ratio. Smaller images are returned unchanged.
func ScaleToWidth(src image.Image, maxWidth int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxWidth <= 0 || w <= maxWidth {
		return src
	}

	newW := maxWidth
	newH := h * maxWidth / w
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

// EncodeJPEG encodes the frame at the given quality
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
