//go:build !ocr

package tesseract

import "errors"

func recognize([]byte) (string, error) {
	return "", errors.New("image recognition needs a build with the ocr tag and a tesseract install")
}
