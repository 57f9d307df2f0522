// Package testimg builds small synthetic image containers for tests.
package testimg

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
)

// ─── TIFF / EXIF ─────────────────────────────────────────────────────────────

// Tag is one IFD entry. Its value is encoded when the TIFF is built so the
// same tag can be written in either byte order.
type Tag struct {
	ID    uint16
	Type  uint16
	Count uint32
	enc   func(o binary.ByteOrder) []byte
}

func ASCII(id uint16, s string) Tag {
	b := append([]byte(s), 0)
	return Tag{ID: id, Type: 2, Count: uint32(len(b)), enc: func(binary.ByteOrder) []byte { return b }}
}

func Short(id uint16, vals ...uint16) Tag {
	return Tag{ID: id, Type: 3, Count: uint32(len(vals)), enc: func(o binary.ByteOrder) []byte {
		b := make([]byte, 2*len(vals))
		for i, v := range vals {
			o.PutUint16(b[2*i:], v)
		}
		return b
	}}
}

func Long(id uint16, vals ...uint32) Tag {
	return Tag{ID: id, Type: 4, Count: uint32(len(vals)), enc: func(o binary.ByteOrder) []byte {
		b := make([]byte, 4*len(vals))
		for i, v := range vals {
			o.PutUint32(b[4*i:], v)
		}
		return b
	}}
}

// Rational takes numerator/denominator pairs.
func Rational(id uint16, vals ...[2]uint32) Tag {
	return Tag{ID: id, Type: 5, Count: uint32(len(vals)), enc: func(o binary.ByteOrder) []byte {
		b := make([]byte, 8*len(vals))
		for i, v := range vals {
			o.PutUint32(b[8*i:], v[0])
			o.PutUint32(b[8*i+4:], v[1])
		}
		return b
	}}
}

// SRational takes signed numerator/denominator pairs.
func SRational(id uint16, vals ...[2]int32) Tag {
	return Tag{ID: id, Type: 10, Count: uint32(len(vals)), enc: func(o binary.ByteOrder) []byte {
		b := make([]byte, 8*len(vals))
		for i, v := range vals {
			o.PutUint32(b[8*i:], uint32(v[0]))
			o.PutUint32(b[8*i+4:], uint32(v[1]))
		}
		return b
	}}
}

func Undefined(id uint16, data []byte) Tag {
	return Tag{ID: id, Type: 7, Count: uint32(len(data)), enc: func(binary.ByteOrder) []byte { return data }}
}

// Raw writes a tag with an arbitrary type code and a literal 4-byte value
// field.
func Raw(id, typ uint16, count uint32, field [4]byte) Tag {
	return Tag{ID: id, Type: typ, Count: count, enc: func(binary.ByteOrder) []byte { return field[:] }}
}

// TIFF lays out IFD0 at offset 8, followed by the Exif, GPS and IFD1
// directories when they have tags. Pointer tags are added automatically.
type TIFF struct {
	Order binary.ByteOrder
	IFD0  []Tag
	Exif  []Tag
	GPS   []Tag
	IFD1  []Tag
}

func (t TIFF) Bytes() []byte {
	o := t.Order
	if o == nil {
		o = binary.LittleEndian
	}
	ifd0 := append([]Tag(nil), t.IFD0...)
	if len(t.Exif) > 0 {
		ifd0 = append(ifd0, Long(0x8769, 0))
	}
	if len(t.GPS) > 0 {
		ifd0 = append(ifd0, Long(0x8825, 0))
	}

	offExif := 8 + ifdSize(ifd0, o)
	offGPS := offExif
	if len(t.Exif) > 0 {
		offGPS += ifdSize(t.Exif, o)
	}
	offIFD1 := offGPS
	if len(t.GPS) > 0 {
		offIFD1 += ifdSize(t.GPS, o)
	}
	for i, tag := range ifd0 {
		switch {
		case tag.ID == 0x8769 && tag.Type == 4:
			ifd0[i] = Long(0x8769, offExif)
		case tag.ID == 0x8825 && tag.Type == 4:
			ifd0[i] = Long(0x8825, offGPS)
		}
	}

	var buf []byte
	if o == binary.BigEndian {
		buf = []byte{'M', 'M', 0, 42, 0, 0, 0, 8}
	} else {
		buf = []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	}
	next := uint32(0)
	if len(t.IFD1) > 0 {
		next = offIFD1
	}
	buf = appendIFD(buf, o, ifd0, next)
	if len(t.Exif) > 0 {
		buf = appendIFD(buf, o, t.Exif, 0)
	}
	if len(t.GPS) > 0 {
		buf = appendIFD(buf, o, t.GPS, 0)
	}
	if len(t.IFD1) > 0 {
		buf = appendIFD(buf, o, t.IFD1, 0)
	}
	return buf
}

func ifdSize(tags []Tag, o binary.ByteOrder) uint32 {
	n := uint32(2 + 12*len(tags) + 4)
	for _, t := range tags {
		if d := len(t.enc(o)); d > 4 {
			n += uint32(d + d%2)
		}
	}
	return n
}

func appendIFD(buf []byte, o binary.ByteOrder, tags []Tag, next uint32) []byte {
	dataPos := uint32(len(buf)) + uint32(2+12*len(tags)+4)
	var data []byte
	buf = put16(buf, o, uint16(len(tags)))
	for _, t := range tags {
		v := t.enc(o)
		buf = put16(buf, o, t.ID)
		buf = put16(buf, o, t.Type)
		buf = put32(buf, o, t.Count)
		if len(v) <= 4 {
			field := make([]byte, 4)
			copy(field, v)
			buf = append(buf, field...)
			continue
		}
		buf = put32(buf, o, dataPos+uint32(len(data)))
		data = append(data, v...)
		if len(v)%2 == 1 {
			data = append(data, 0)
		}
	}
	buf = put32(buf, o, next)
	return append(buf, data...)
}

func put16(b []byte, o binary.ByteOrder, v uint16) []byte {
	var tmp [2]byte
	o.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

func put32(b []byte, o binary.ByteOrder, v uint32) []byte {
	var tmp [4]byte
	o.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// DMS is degrees, minutes and seconds as whole-number rationals.
func DMS(d, m, s uint32) [][2]uint32 {
	return [][2]uint32{{d, 1}, {m, 1}, {s, 1}}
}

// ─── Pixels ──────────────────────────────────────────────────────────────────

// Picture returns a small image with a gradient so encoders emit real data.
func Picture() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 32), B: 128, A: 255})
		}
	}
	return img
}

// ─── JPEG ────────────────────────────────────────────────────────────────────

// JPEGSegment frames payload as a marker segment.
func JPEGSegment(marker byte, payload []byte) []byte {
	b := []byte{0xFF, marker, 0, 0}
	binary.BigEndian.PutUint16(b[2:], uint16(len(payload)+2))
	return append(b, payload...)
}

// ExifAPP1 wraps a TIFF payload in an APP1 segment.
func ExifAPP1(tiff []byte) []byte {
	return JPEGSegment(0xE1, append([]byte("Exif\x00\x00"), tiff...))
}

// XMPAPP1 wraps an XMP packet in an APP1 segment.
func XMPAPP1(packet string) []byte {
	return JPEGSegment(0xE1, append([]byte("http://ns.adobe.com/xap/1.0/\x00"), packet...))
}

// IPTCAPP13 builds a Photoshop APP13 segment with one IPTC resource holding
// record-2 datasets.
func IPTCAPP13(datasets map[byte]string, order []byte) []byte {
	var iptc []byte
	for _, ds := range order {
		v := datasets[ds]
		iptc = append(iptc, 0x1C, 2, ds, byte(len(v)>>8), byte(len(v)))
		iptc = append(iptc, v...)
	}
	res := []byte("8BIM")
	res = append(res, 0x04, 0x04, 0, 0) // type 0x0404, empty name padded
	res = binary.BigEndian.AppendUint32(res, uint32(len(iptc)))
	res = append(res, iptc...)
	if len(iptc)%2 == 1 {
		res = append(res, 0)
	}
	return JPEGSegment(0xED, append([]byte("Photoshop 3.0\x00"), res...))
}

// JPEG encodes Picture and inserts segs right after SOI.
func JPEG(segs ...[]byte) []byte {
	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, Picture(), &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	raw := enc.Bytes()
	out := append([]byte(nil), raw[:2]...)
	for _, s := range segs {
		out = append(out, s...)
	}
	return append(out, raw[2:]...)
}

// ─── PNG ─────────────────────────────────────────────────────────────────────

// PNGChunk frames data as a PNG chunk with a valid CRC.
func PNGChunk(typ string, data []byte) []byte {
	b := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	b = append(b, typ...)
	b = append(b, data...)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	return binary.BigEndian.AppendUint32(b, crc.Sum32())
}

// PNG encodes Picture and inserts chunks right after IHDR.
func PNG(chunks ...[]byte) []byte {
	var enc bytes.Buffer
	if err := png.Encode(&enc, Picture()); err != nil {
		panic(err)
	}
	raw := enc.Bytes()
	const afterIHDR = 8 + 8 + 13 + 4
	out := append([]byte(nil), raw[:afterIHDR]...)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return append(out, raw[afterIHDR:]...)
}

// ─── GIF ─────────────────────────────────────────────────────────────────────

// GIFComment builds a comment extension, split into sub-blocks.
func GIFComment(text string) []byte {
	b := []byte{0x21, 0xFE}
	return append(append(b, subBlocks([]byte(text))...), 0)
}

// GIFApplication builds an application extension with an 11-byte id.
func GIFApplication(id string, data []byte) []byte {
	b := append([]byte{0x21, 0xFF, 11}, id...)
	return append(append(b, subBlocks(data)...), 0)
}

func subBlocks(data []byte) []byte {
	var out []byte
	for len(data) > 0 {
		n := len(data)
		if n > 255 {
			n = 255
		}
		out = append(out, byte(n))
		out = append(out, data[:n]...)
		data = data[n:]
	}
	return out
}

// GIF encodes a paletted Picture and inserts exts before the trailer.
func GIF(exts ...[]byte) []byte {
	src := Picture()
	pal := color.Palette{color.Black, color.White, color.NRGBA{R: 255, A: 255}, color.NRGBA{B: 255, A: 255}}
	img := image.NewPaletted(src.Bounds(), pal)
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.SetColorIndex(x, y, uint8((x+y)%4))
		}
	}
	var enc bytes.Buffer
	if err := gif.Encode(&enc, img, nil); err != nil {
		panic(err)
	}
	raw := enc.Bytes()
	out := append([]byte(nil), raw[:len(raw)-1]...)
	for _, e := range exts {
		out = append(out, e...)
	}
	return append(out, 0x3B)
}

// ─── WebP ────────────────────────────────────────────────────────────────────

// WebPChunk frames data as a RIFF chunk, padded to even length.
func WebPChunk(fourcc string, data []byte) []byte {
	b := append([]byte(fourcc), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(b[4:], uint32(len(data)))
	b = append(b, data...)
	if len(data)%2 == 1 {
		b = append(b, 0)
	}
	return b
}

// VP8X builds an extended-format header chunk for a 16x8 canvas.
func VP8X(flags byte) []byte {
	data := make([]byte, 10)
	data[0] = flags
	data[4], data[7] = 15, 7 // canvas width-1, height-1
	return WebPChunk("VP8X", data)
}

// WebP wraps chunks in a RIFF/WEBP header with a correct size.
func WebP(chunks ...[]byte) []byte {
	var body []byte
	for _, c := range chunks {
		body = append(body, c...)
	}
	b := []byte("RIFF\x00\x00\x00\x00WEBP")
	binary.LittleEndian.PutUint32(b[4:], uint32(4+len(body)))
	return append(b, body...)
}

// VP8LPayload is opaque stand-in bitstream data; walkers never decode it.
var VP8LPayload = []byte{0x2F, 0x0F, 0xC0, 0x01, 0x00, 0x07, 0x10, 0x11, 0x88, 0x88, 0xFE, 0x07, 0x00}
