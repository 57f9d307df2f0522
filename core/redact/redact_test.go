package redact

import (
	"bytes"
	"encoding/binary"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/image/riff"

	"github.com/ankit-chaubey/image-surgery/core"
	"github.com/ankit-chaubey/image-surgery/core/internal/testimg"
	"github.com/ankit-chaubey/image-surgery/core/walk"
)

var exifTIFF = testimg.TIFF{
	IFD0: []testimg.Tag{testimg.ASCII(0x010F, "Canon"), testimg.ASCII(0xA431, "SN-123")},
	GPS: []testimg.Tag{
		testimg.ASCII(0x01, "N"),
		testimg.Rational(0x02, testimg.DMS(40, 26, 46)...),
	},
}.Bytes()

func samples() map[string][]byte {
	return map[string][]byte{
		"jpeg": append(testimg.JPEG(
			testimg.JPEGSegment(0xE0, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")),
			testimg.ExifAPP1(exifTIFF),
			testimg.XMPAPP1(`<x:xmpmeta xmlns:x="adobe:ns:meta/"/>`),
			testimg.IPTCAPP13(map[byte]string{0x50: "Jane"}, []byte{0x50}),
			testimg.JPEGSegment(0xFE, []byte("shot on holiday")),
		), "trailing"...),
		"png": testimg.PNG(
			testimg.PNGChunk("eXIf", exifTIFF),
			testimg.PNGChunk("tEXt", []byte("Author\x00Jane")),
			testimg.PNGChunk("tIME", []byte{0x07, 0xE8, 1, 2, 3, 4, 5}),
		),
		"gif": testimg.GIF(
			testimg.GIFComment("secret"),
			testimg.GIFApplication("XMP DataXMP", []byte("<x/>")),
		),
		"webp": testimg.WebP(
			testimg.VP8X(0x20|0x08|0x04),
			testimg.WebPChunk("ICCP", []byte("icc-profile")),
			testimg.WebPChunk("VP8L", testimg.VP8LPayload),
			testimg.WebPChunk("EXIF", exifTIFF),
			testimg.WebPChunk("XMP ", []byte("<x/>")),
		),
	}
}

func pixels(t *testing.T, buf []byte) []byte {
	t.Helper()
	_, segs, err := walk.Walk(buf)
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	var out []byte
	for _, s := range segs {
		if s.Kind == core.PixelData {
			out = append(out, s.Bytes(buf)...)
		}
	}
	return out
}

func TestCleanRoundTrip(t *testing.T) {
	for name, buf := range samples() {
		t.Run(name, func(t *testing.T) {
			res, err := Clean(buf)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			if len(res.Removed) == 0 {
				t.Fatal("nothing was removed")
			}
			if res.OriginalSize != len(buf) || res.CleanedSize != len(res.Data) || res.BytesSaved() <= 0 {
				t.Errorf("sizes: original %d cleaned %d data %d", res.OriginalSize, res.CleanedSize, len(res.Data))
			}

			_, segs, err := walk.Walk(res.Data)
			if err != nil {
				t.Fatalf("cleaned output does not walk: %v", err)
			}
			for _, s := range segs {
				if s.Kind.IsMetadata() {
					t.Errorf("metadata segment %s survived", s.Name)
				}
			}
			if !bytes.Equal(pixels(t, buf), pixels(t, res.Data)) {
				t.Error("pixel data changed")
			}
			for _, secret := range []string{"Canon", "Jane", "secret", "holiday", "trailing"} {
				if bytes.Contains(res.Data, []byte(secret)) {
					t.Errorf("%q still present in output", secret)
				}
			}
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	for name, buf := range samples() {
		t.Run(name, func(t *testing.T) {
			once, err := Clean(buf)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			twice, err := Clean(once.Data)
			if err != nil {
				t.Fatalf("second Clean() error = %v", err)
			}
			if !bytes.Equal(once.Data, twice.Data) {
				t.Error("second clean changed the output")
			}
			if len(twice.Removed) != 0 {
				t.Errorf("second clean removed %d segments", len(twice.Removed))
			}
		})
	}
}

func TestCleanDecodesIdentically(t *testing.T) {
	src := samples()
	for name, decode := range map[string]func([]byte) ([]byte, error){
		"jpeg": func(b []byte) ([]byte, error) {
			img, err := jpeg.Decode(bytes.NewReader(b))
			if err != nil {
				return nil, err
			}
			var out bytes.Buffer
			err = png.Encode(&out, img)
			return out.Bytes(), err
		},
		"png": func(b []byte) ([]byte, error) {
			img, err := png.Decode(bytes.NewReader(b))
			if err != nil {
				return nil, err
			}
			var out bytes.Buffer
			err = png.Encode(&out, img)
			return out.Bytes(), err
		},
		"gif": func(b []byte) ([]byte, error) {
			img, err := gif.Decode(bytes.NewReader(b))
			if err != nil {
				return nil, err
			}
			var out bytes.Buffer
			err = png.Encode(&out, img)
			return out.Bytes(), err
		},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := Clean(src[name])
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			before, err := decode(src[name])
			if err != nil {
				t.Fatalf("decode original: %v", err)
			}
			after, err := decode(res.Data)
			if err != nil {
				t.Fatalf("decode cleaned: %v", err)
			}
			if !bytes.Equal(before, after) {
				t.Error("decoded pixels differ")
			}
		})
	}
}

func TestCleanWebPFixups(t *testing.T) {
	res, err := Clean(samples()["webp"])
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	out := res.Data
	if got := binary.LittleEndian.Uint32(out[4:8]); int(got) != len(out)-8 {
		t.Errorf("RIFF size = %d, want %d", got, len(out)-8)
	}
	// VP8X flags keep ICC (0x20) and lose EXIF and XMP.
	if flags := out[12+8]; flags != 0x20 {
		t.Errorf("VP8X flags = %#02x, want 0x20", flags)
	}

	formType, r, err := riff.NewReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("riff.NewReader() error = %v", err)
	}
	if formType != (riff.FourCC{'W', 'E', 'B', 'P'}) {
		t.Errorf("form type = %q", formType[:])
	}
	var ids []string
	for {
		id, _, data, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("riff Next() error = %v", err)
		}
		if _, err := io.Copy(io.Discard, data); err != nil {
			t.Fatalf("reading chunk %q: %v", id[:], err)
		}
		ids = append(ids, string(id[:]))
	}
	want := []string{"VP8X", "ICCP", "VP8L"}
	if len(ids) != len(want) {
		t.Fatalf("chunks = %q, want %q", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestCleanNothingToRemove(t *testing.T) {
	buf := testimg.PNG()
	res, err := Clean(buf)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if !bytes.Equal(res.Data, buf) || len(res.Removed) != 0 {
		t.Error("metadata-free input was changed")
	}
}

func TestCleanRejects(t *testing.T) {
	png := samples()["png"]
	tiff := testimg.TIFF{IFD0: []testimg.Tag{testimg.ASCII(0x010F, "Canon")}}.Bytes()

	for name, tt := range map[string]struct {
		buf  []byte
		want error
	}{
		"truncated png": {png[:8+25+2], core.ErrMalformedContainer},
		"tiff":          {tiff, core.ErrUnsupportedFormat},
		"text":          {[]byte("hello"), core.ErrUnsupportedFormat},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := Clean(tt.buf)
			if res != nil {
				t.Error("Clean() returned output with an error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Clean() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRedactRequiresPartition(t *testing.T) {
	buf := samples()["gif"]
	_, segs, err := walk.Walk(buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Redact(core.KindGIF, buf, segs[1:]); err == nil {
		t.Error("Redact() accepted segments that do not cover the input")
	}
}

func TestCleanKeepsGIFLoop(t *testing.T) {
	buf := testimg.GIF(
		testimg.GIFApplication("NETSCAPE2.0", []byte{1, 0, 0}),
		testimg.GIFApplication("XMP DataXMP", []byte("<x/>")),
	)
	res, err := Clean(buf)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if !bytes.Contains(res.Data, []byte("NETSCAPE2.0")) {
		t.Error("loop extension was removed")
	}
	if bytes.Contains(res.Data, []byte("XMP DataXMP")) {
		t.Error("XMP application block survived")
	}
	g, err := gif.DecodeAll(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatalf("gif.DecodeAll() error = %v", err)
	}
	if g.LoopCount != 0 {
		t.Errorf("LoopCount = %d, want 0", g.LoopCount)
	}
}
