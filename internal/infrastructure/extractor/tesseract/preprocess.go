package tesseract

import (
	"bytes"

	"github.com/disintegration/imaging"
)

// minWidth is the narrowest scan the engine reads reliably; anything
// smaller gets upscaled first.
const minWidth = 1000

// preprocess grayscales and upscales the scan before recognition. When the
// bytes do not decode as an image they pass through untouched and the
// engine reports its own error.
func preprocess(raw []byte) []byte {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return raw
	}

	gray := imaging.Grayscale(img)
	if w := gray.Bounds().Dx(); w > 0 && w < minWidth {
		gray = imaging.Resize(gray, minWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return raw
	}
	return buf.Bytes()
}
