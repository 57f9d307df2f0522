package core

import (
	"testing"

	"github.com/pkg/errors"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want ContainerKind
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, KindJPEG},
		{"png", PNGSignature(), KindPNG},
		{"gif87a", []byte("GIF87a\x10\x00"), KindGIF},
		{"gif89a", []byte("GIF89a"), KindGIF},
		{"webp", []byte("RIFF\x1a\x00\x00\x00WEBPVP8L"), KindWebP},
		{"riff but not webp", []byte("RIFF\x1a\x00\x00\x00WAVEfmt "), KindUnsupported},
		{"tiff little-endian", []byte("II*\x00\x08\x00\x00\x00"), KindTIFF},
		{"tiff big-endian", []byte("MM\x00*\x00\x00\x00\x08"), KindTIFF},
		{"bmp", []byte("BM\x36\x00\x00\x00"), KindUnsupported},
		{"empty", nil, KindUnsupported},
		{"one byte", []byte{0xFF}, KindUnsupported},
		{"short png", PNGSignature()[:5], KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff(tt.in); got != tt.want {
				t.Errorf("Sniff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindForPath(t *testing.T) {
	for path, want := range map[string]ContainerKind{
		"photo.JPG":     KindJPEG,
		"a/b/scan.tiff": KindTIFF,
		"anim.webp":     KindWebP,
		"notes.txt":     KindUnsupported,
		"noext":         KindUnsupported,
	} {
		if got := KindForPath(path); got != want {
			t.Errorf("KindForPath(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestMIMEType(t *testing.T) {
	if got := KindWebP.MIMEType(); got != "image/webp" {
		t.Errorf("KindWebP.MIMEType() = %q", got)
	}
	if got := KindUnsupported.MIMEType(); got != "application/octet-stream" {
		t.Errorf("KindUnsupported.MIMEType() = %q", got)
	}
}

func TestMalformedWrapsSentinel(t *testing.T) {
	err := Malformed(KindPNG, 42, "chunk %q", "IDAT")
	if !errors.Is(err, ErrMalformedContainer) {
		t.Fatalf("errors.Is(%v, ErrMalformedContainer) = false", err)
	}
	if want := "PNG at offset 42: chunk \"IDAT\": malformed container"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCleaningResult(t *testing.T) {
	r := &CleaningResult{
		OriginalSize: 100,
		CleanedSize:  60,
		Removed: []Segment{
			{Kind: MetadataExif, Offset: 2, Length: 30},
			{Kind: MetadataOther, Offset: 32, Length: 10},
		},
	}
	if got := r.BytesSaved(); got != 40 {
		t.Errorf("BytesSaved() = %d, want 40", got)
	}
	kinds := r.RemovedKinds()
	if len(kinds) != 2 || kinds[0] != MetadataExif || kinds[1] != MetadataOther {
		t.Errorf("RemovedKinds() = %v", kinds)
	}
}
