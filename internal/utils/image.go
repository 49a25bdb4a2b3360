package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NormalizeImage decodes a jpeg or png upload, scales it down so that neither
// edge exceeds maxEdge, and re-encodes it as jpeg.
func NormalizeImage(r io.Reader, filename string, maxEdge uint) ([]byte, *ImageDimensions, error) {
	img, err := decodeImage(r, filename)
	if err != nil {
		return nil, nil, err
	}

	resized := fitImage(img, maxEdge, maxEdge)

	var buf bytes.Buffer
	if err := EncodeImage(resized, "jpeg", &buf, 85); err != nil {
		return nil, nil, err
	}

	bounds := resized.Bounds()
	return buf.Bytes(), &ImageDimensions{Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

func fitImage(img image.Image, maxWidth, maxHeight uint) image.Image {
	bounds := img.Bounds()
	width := uint(bounds.Dx())
	height := uint(bounds.Dy())

	if maxWidth == 0 || maxHeight == 0 || (width <= maxWidth && height <= maxHeight) {
		return img
	}

	widthRatio := float64(maxWidth) / float64(width)
	heightRatio := float64(maxHeight) / float64(height)

	var newWidth, newHeight uint
	if widthRatio < heightRatio {
		newWidth = maxWidth
		newHeight = uint(float64(height) * widthRatio)
	} else {
		newWidth = uint(float64(width) * heightRatio)
		newHeight = maxHeight
	}
	if newWidth == 0 {
		newWidth = 1
	}
	if newHeight == 0 {
		newHeight = 1
	}

	return resize.Resize(newWidth, newHeight, img, resize.Lanczos3)
}

func decodeImage(r io.Reader, filename string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".png":
		return png.Decode(r)
	default:
		img, _, err := image.Decode(r)
		if err != nil {
			return nil, ErrUnsupportedImage
		}
		return img, nil
	}
}

func EncodeImage(img image.Image, format string, writer io.Writer, quality int) error {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
	case "png":
		return png.Encode(writer, img)
	default:
		return ErrUnsupportedImage
	}
}

func IsValidImageFormat(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range AllowedImageTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}
