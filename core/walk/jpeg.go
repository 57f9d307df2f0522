package walk

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ankit-chaubey/image-surgery/core"
)

/*
	Marker segment -> FF xx [length (2 bytes, big-endian, includes itself)] payload
	Standalone     -> FF D8 (SOI), FF D9 (EOI), FF D0..D7 (RSTn), FF 01 (TEM)

	After SOS the entropy-coded data runs until the next marker. Inside it a
	literal FF is always stuffed as FF 00, and RSTn markers belong to the scan.
*/

const (
	markerTEM   = 0x01
	markerSOF0  = 0xC0
	markerDHT   = 0xC4
	markerJPG   = 0xC8
	markerDAC   = 0xCC
	markerRST0  = 0xD0
	markerRST7  = 0xD7
	markerSOI   = 0xD8
	markerEOI   = 0xD9
	markerSOS   = 0xDA
	markerDQT   = 0xDB
	markerDNL   = 0xDC
	markerDRI   = 0xDD
	markerAPP0  = 0xE0
	markerAPP1  = 0xE1
	markerAPP2  = 0xE2
	markerAPP14 = 0xEE
	markerAPP15 = 0xEF
	markerCOM   = 0xFE
)

var (
	exifSignature = []byte("Exif\x00\x00")
	iccSignature  = []byte("ICC_PROFILE\x00")
)

// ExifSignature is the prefix of an EXIF payload inside a JPEG APP1 segment.
func ExifSignature() []byte { return append([]byte(nil), exifSignature...) }

func walkJPEG(buf []byte) ([]core.Segment, error) {
	if len(buf) < 2 || buf[0] != 0xFF || buf[1] != markerSOI {
		return nil, core.Malformed(core.KindJPEG, 0, "missing SOI marker")
	}
	b := &builder{}
	b.add(core.StructuralRequired, "SOI", 2)

	for b.pos < len(buf) {
		i := b.pos
		if buf[i] != 0xFF {
			return nil, core.Malformed(core.KindJPEG, i, "expected marker, found 0x%02X", buf[i])
		}
		// Any number of FF fill bytes may precede a marker.
		for i < len(buf) && buf[i] == 0xFF {
			i++
		}
		if i >= len(buf) {
			return nil, core.Malformed(core.KindJPEG, b.pos, "truncated marker")
		}
		marker := buf[i]
		i++

		switch {
		case marker == markerEOI:
			b.add(core.StructuralRequired, "EOI", i)
			return b.trailer(buf), nil
		case marker == markerSOI:
			return nil, core.Malformed(core.KindJPEG, b.pos, "unexpected SOI marker")
		case marker == markerTEM || (marker >= markerRST0 && marker <= markerRST7):
			b.add(core.StructuralRequired, markerName(marker), i)
			continue
		case marker < markerSOF0:
			return nil, core.Malformed(core.KindJPEG, b.pos, "reserved marker 0xFF%02X", marker)
		}

		if i+2 > len(buf) {
			return nil, core.Malformed(core.KindJPEG, b.pos, "truncated %s length", markerName(marker))
		}
		length := int(binary.BigEndian.Uint16(buf[i:]))
		if length < 2 {
			return nil, core.Malformed(core.KindJPEG, b.pos, "%s length %d is too short", markerName(marker), length)
		}
		end := i + length
		if end > len(buf) {
			return nil, core.Malformed(core.KindJPEG, b.pos, "%s length %d runs past end of data", markerName(marker), length)
		}

		if marker == markerSOS {
			b.add(core.PixelData, "SOS", scanEnd(buf, end))
			continue
		}
		b.add(classifyJPEG(marker, buf[i+2:end]), markerName(marker), end)
	}
	// The data ended on a segment boundary without EOI.
	return b.segs, nil
}

// scanEnd returns the offset of the first marker after entropy-coded data
// starting at i, or len(buf) when the data runs to the end.
func scanEnd(buf []byte, i int) int {
	for i < len(buf) {
		if buf[i] != 0xFF {
			i++
			continue
		}
		if i+1 >= len(buf) {
			return len(buf)
		}
		next := buf[i+1]
		switch {
		case next == 0x00, next >= markerRST0 && next <= markerRST7:
			i += 2
		case next == 0xFF:
			// Fill byte; the marker starts at the last FF of the run.
			i++
		default:
			return i
		}
	}
	return len(buf)
}

func classifyJPEG(marker byte, payload []byte) core.SegmentKind {
	switch {
	case marker == markerAPP1 && bytes.HasPrefix(payload, exifSignature):
		return core.MetadataExif
	case marker == markerAPP0, marker == markerAPP14:
		// JFIF density and the Adobe colour transform steer decoding.
		return core.StructuralRequired
	case marker == markerAPP2 && bytes.HasPrefix(payload, iccSignature):
		return core.StructuralRequired
	case marker >= markerAPP0 && marker <= markerAPP15, marker == markerCOM:
		return core.MetadataOther
	default:
		return core.StructuralRequired
	}
}

func markerName(marker byte) string {
	switch {
	case marker == markerSOI:
		return "SOI"
	case marker == markerEOI:
		return "EOI"
	case marker == markerSOS:
		return "SOS"
	case marker == markerDQT:
		return "DQT"
	case marker == markerDHT:
		return "DHT"
	case marker == markerDRI:
		return "DRI"
	case marker == markerDNL:
		return "DNL"
	case marker == markerDAC:
		return "DAC"
	case marker == markerJPG:
		return "JPG"
	case marker == markerTEM:
		return "TEM"
	case marker == markerCOM:
		return "COM"
	case marker >= markerSOF0 && marker <= 0xCF:
		return fmt.Sprintf("SOF%d", marker-markerSOF0)
	case marker >= markerRST0 && marker <= markerRST7:
		return fmt.Sprintf("RST%d", marker-markerRST0)
	case marker >= markerAPP0 && marker <= markerAPP15:
		return fmt.Sprintf("APP%d", marker-markerAPP0)
	default:
		return fmt.Sprintf("0xFF%02X", marker)
	}
}
