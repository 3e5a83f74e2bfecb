package images

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Minimal valid PNG header so content-type sniffing identifies the format.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestEncodeFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, pngHeader, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	uri, err := EncodeFile(path)
	if err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("uri = %q, want image/png data uri", uri)
	}
	if !IsDataURI(uri) {
		t.Fatal("IsDataURI = false for an encoded image")
	}

	payload := strings.TrimPrefix(uri, "data:image/png;base64,")
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !bytes.Equal(decoded, pngHeader) {
		t.Fatalf("payload round-trip mismatch: %v", decoded)
	}
}

func TestEncodeFile_RejectsOversized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.bin")
	if err := os.WriteFile(path, make([]byte, maxFileSize+1), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := EncodeFile(path); err == nil {
		t.Fatal("EncodeFile accepted an oversized image")
	}
}

func TestEncodeFile_MissingFile(t *testing.T) {
	if _, err := EncodeFile(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Fatal("EncodeFile succeeded on a missing file")
	}
}
