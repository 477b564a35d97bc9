package capture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/JaimeStill/quill/pkg/formatting"
)

// EncodeUpload validates an uploaded image and returns its bytes verbatim as
// a data URI. The image is never resized or re-encoded.
func EncodeUpload(data []byte, maxBytes int64) (string, error) {
	if len(data) == 0 {
		return "", ErrNoFile
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: limit is %s", ErrImageTooLarge, formatting.FormatBytes(maxBytes, 0))
	}

	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return "", ErrInvalidImage
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", ErrInvalidImage
	}

	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
