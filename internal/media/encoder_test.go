package media

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeProducesDataURI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "selfie.png")
	// Minimal PNG header so content sniffing has something to chew on.
	payload := []byte("\x89PNG\r\n\x1a\nrest-of-image")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	encoded, err := Encode(path)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if !strings.HasPrefix(encoded, "data:image/png;base64,") {
		t.Fatalf("expected png data uri, got %q", encoded[:40])
	}

	raw := strings.TrimPrefix(encoded, "data:image/png;base64,")
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != string(payload) {
		t.Fatalf("round trip mismatch")
	}
}

func TestEncodeMissingFile(t *testing.T) {
	_, err := Encode(filepath.Join(t.TempDir(), "nope.jpg"))

	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncodingError, got %v", err)
	}
	if !strings.Contains(encErr.Ref, "nope.jpg") {
		t.Fatalf("expected ref in error, got %q", encErr.Ref)
	}
}

func TestEncodeEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jpg")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var encErr *EncodingError
	if _, err := Encode(path); !errors.As(err, &encErr) {
		t.Fatalf("expected EncodingError for empty capture, got %v", err)
	}
}
