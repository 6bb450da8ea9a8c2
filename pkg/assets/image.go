// Package assets validates and normalizes the binary attachments of an
// application: the profile picture and the zipped source archive.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	// Registers the WebP decoder with image.Decode. WebP inputs are
	// re-encoded as JPEG because no pure-Go WebP encoder exists.
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageBytes is the pre-compression ceiling for profile pictures.
	MaxImageBytes = 20 << 20
	// TargetImageBytes is the post-compression size bound.
	TargetImageBytes = 1 << 20
	// MaxDimensionPx bounds both output dimensions.
	MaxDimensionPx = 1080
)

var (
	// ErrImageTypeNotAllowed indicates the picture is not JPEG, PNG or WebP.
	ErrImageTypeNotAllowed = errors.New("image type not allowed")
	// ErrImageTooLarge indicates the picture exceeds the upload ceiling.
	ErrImageTooLarge = errors.New("image exceeds maximum allowed size")
	// ErrCompressionFailed indicates no conforming output could be produced.
	ErrCompressionFailed = errors.New("image compression failed")
)

// Image is a compressed, size-bounded picture ready for upload.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// ValidateImage sniffs the picture's real content type and enforces the
// pre-compression size ceiling. It returns the detected MIME type.
func ValidateImage(data []byte) (string, error) {
	if int64(len(data)) > MaxImageBytes {
		return "", ErrImageTooLarge
	}

	detected := mimetype.Detect(data).String()
	switch detected {
	case "image/jpeg", "image/png", "image/webp":
		return detected, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrImageTypeNotAllowed, detected)
	}
}

// Compress bounds the picture to MaxDimensionPx on both axes and
// TargetImageBytes on disk. JPEG stays JPEG, PNG stays PNG when that already
// fits the byte bound, and WebP (or an oversized PNG) is re-encoded as JPEG.
// Inputs that already conform pass through untouched, so a second pass never
// grows the output.
func Compress(data []byte) (Image, error) {
	contentType, err := ValidateImage(data)
	if err != nil {
		return Image{}, err
	}

	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
	}

	bounds := decoded.Bounds()
	fits := bounds.Dx() <= MaxDimensionPx && bounds.Dy() <= MaxDimensionPx

	if fits && int64(len(data)) <= TargetImageBytes && contentType != "image/webp" {
		return Image{Data: data, ContentType: contentType, Extension: extensionFor(contentType)}, nil
	}

	if !fits {
		decoded = imaging.Fit(decoded, MaxDimensionPx, MaxDimensionPx, imaging.Lanczos)
	}

	if contentType == "image/png" {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, decoded, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return Image{}, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
		}
		if buf.Len() <= TargetImageBytes {
			return Image{Data: buf.Bytes(), ContentType: "image/png", Extension: ".png"}, nil
		}
		// PNG cannot reach the bound; JPEG is the fallback.
	}

	for quality := 85; quality >= 40; quality -= 5 {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, decoded, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return Image{}, fmt.Errorf("%w: %v", ErrCompressionFailed, err)
		}
		if buf.Len() <= TargetImageBytes {
			return Image{Data: buf.Bytes(), ContentType: "image/jpeg", Extension: ".jpg"}, nil
		}
	}

	return Image{}, ErrCompressionFailed
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
