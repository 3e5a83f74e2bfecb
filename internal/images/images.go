// Package images turns local image files into the inline data
// representation stored on an entity's image field. There is no external
// blob storage; documents carry their images.
package images

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// maxFileSize caps inline images. The whole document travels on every read,
// so oversized images would make the sync visibly sluggish.
const maxFileSize = 1 << 20

// EncodeFile reads a local file and returns it as a data URI.
func EncodeFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}
	if info.Size() > maxFileSize {
		return "", fmt.Errorf("image %s is %d bytes, larger than the %d byte limit", path, info.Size(), maxFileSize)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return Encode(b), nil
}

// Encode wraps raw bytes as a data URI, sniffing the content type.
func Encode(b []byte) string {
	mime := http.DetectContentType(b)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b)
}

// IsDataURI reports whether a stored image field holds an inline image.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}
