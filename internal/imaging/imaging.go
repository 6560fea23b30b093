// Package imaging normalizes proof-of-purchase photos before they are stored.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/promoraffle/promoraffle/internal/model"
)

// MaxUploadBytes caps the raw upload. Phone photos of receipts fit comfortably.
const MaxUploadBytes = 10 << 20

// MaxDimension is the longest stored edge. Receipts must stay legible.
const MaxDimension = 2000

// MinDimension rejects thumbnails that cannot show a receipt.
const MinDimension = 64

// JPEGQuality is the compression quality for stored evidence.
const JPEGQuality = 85

// AllowedMIME lists the accepted upload types, sniffed from content.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Evidence is a processed image ready for storage.
type Evidence struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Process validates an uploaded receipt photo, downscales it and re-encodes
// it as JPEG. Rejections wrap model.ErrValidation.
func Process(r io.Reader) (*Evidence, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: image larger than %d bytes", model.ErrValidation, MaxUploadBytes)
	}

	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("%w: unsupported image format %s", model.ErrValidation, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", model.ErrValidation, err)
	}

	b := img.Bounds()
	if b.Dx() < MinDimension || b.Dy() < MinDimension {
		return nil, fmt.Errorf("%w: image %dx%d is too small", model.ErrValidation, b.Dx(), b.Dy())
	}

	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	return &Evidence{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

// fit scales img down so its longest edge is maxDim, keeping the aspect ratio.
func fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, h*maxDim/w
	if h > w {
		newW, newH = w*maxDim/h, maxDim
	}
	newW, newH = max(newW, 1), max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("webp", "RIFF????WEBPVP8", webp.Decode, webp.DecodeConfig)
}
