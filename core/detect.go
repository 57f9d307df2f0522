package core

import (
	"bytes"
	"path/filepath"
	"strings"
)

var (
	pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	tiffLE       = []byte{0x49, 0x49, 0x2A, 0x00}
	tiffBE       = []byte{0x4D, 0x4D, 0x00, 0x2A}
)

// PNGSignature returns a copy of the 8-byte PNG file signature.
func PNGSignature() []byte { return append([]byte(nil), pngSignature...) }

// Sniff classifies b by its magic bytes. Twelve bytes are enough for every
// supported format; shorter input simply matches fewer formats.
func Sniff(b []byte) ContainerKind {
	switch {
	// JPEG: FF D8
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8:
		return KindJPEG
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	case bytes.HasPrefix(b, pngSignature):
		return KindPNG
	// GIF: GIF87a or GIF89a
	case bytes.HasPrefix(b, []byte("GIF87a")) || bytes.HasPrefix(b, []byte("GIF89a")):
		return KindGIF
	// WebP: RIFF????WEBP
	case len(b) >= 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WEBP")):
		return KindWebP
	// TIFF: II*\0 (little-endian) or MM\0* (big-endian)
	case bytes.HasPrefix(b, tiffLE) || bytes.HasPrefix(b, tiffBE):
		return KindTIFF
	}
	return KindUnsupported
}

// extMap maps lowercase extensions to container kinds.
var extMap = map[string]ContainerKind{
	".jpg":  KindJPEG,
	".jpeg": KindJPEG,
	".jpe":  KindJPEG,
	".png":  KindPNG,
	".gif":  KindGIF,
	".webp": KindWebP,
	".tif":  KindTIFF,
	".tiff": KindTIFF,
}

// KindForPath guesses a kind from a file name. It is only a hint for callers
// that want to warn about misnamed files; Sniff is authoritative.
func KindForPath(path string) ContainerKind {
	if k, ok := extMap[strings.ToLower(filepath.Ext(path))]; ok {
		return k
	}
	return KindUnsupported
}
