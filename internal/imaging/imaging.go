// Package imaging applies the width cap used for publicly displayed raster
// images.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/nfnt/resize"
)

// Width caps for the two public display contexts.
const (
	WallpaperMaxWidth = 2048
	DefaultMaxWidth   = 1024
)

// resizable lists the formats with both a decoder and an encoder available.
// Other image types (svg, webp) are stored at their original bytes.
var resizable = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// FitWidth scales the image down to at most maxWidth pixels wide, preserving
// aspect ratio and never upscaling. The output format matches the input
// format; for formats without an encoder the input bytes are returned
// unchanged.
func FitWidth(data []byte, mime string, maxWidth uint) ([]byte, error) {
	if !resizable[mime] {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if uint(img.Bounds().Dx()) <= maxWidth {
		return data, nil
	}

	resized := resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch mime {
	case "image/png":
		err = png.Encode(&buf, resized)
	case "image/jpeg":
		err = jpeg.Encode(&buf, resized, nil)
	case "image/gif":
		err = gif.Encode(&buf, resized, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}

	return buf.Bytes(), nil
}
