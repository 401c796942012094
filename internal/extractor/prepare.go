package extractor

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Decoders for the formats a camera frame or an uploaded file may arrive in.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Defaults of the face model input.
const (
	DefaultInputSize   = 112
	DefaultJPEGQuality = 95
)

// Prepare decodes a cropped face image, scales it to a size x size square and
// re-encodes it as JPEG. The aspect ratio is not preserved; the model expects
// the face crop stretched to its full input.
func Prepare(data []byte, size, quality int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrExtraction)
	}
	if size <= 0 {
		size = DefaultInputSize
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %w", ErrExtraction, err)
	}
	if b := src.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s image has no pixels", ErrExtraction, format)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: encode image: %w", ErrExtraction, err)
	}
	return buf.Bytes(), nil
}
