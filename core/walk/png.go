package walk

import (
	"bytes"
	"encoding/binary"

	"github.com/ankit-chaubey/image-surgery/core"
)

/*
	PNG Signature -> 137 80 78 71 13 10 26 10 (8 Bytes)
	PNG Chunk     -> Length (4 Bytes) + Type (4 Bytes) + Data (Length Bytes) + CRC (4 Bytes)

	Lengths are big-endian and limited to 2^31-1. A chunk whose type starts
	with an uppercase letter is critical.
*/

const maxPNGChunkLength = 1<<31 - 1

// Metadata chunks to remove. Every other ancillary chunk (gAMA, sRGB, iCCP,
// tRNS, pHYs, APNG control chunks, ...) affects how pixels are shown and
// is kept.
var pngMetaChunks = map[string]core.SegmentKind{
	"eXIf": core.MetadataExif,
	"tEXt": core.MetadataOther,
	"zTXt": core.MetadataOther,
	"iTXt": core.MetadataOther,
	"tIME": core.MetadataOther,
	"caBX": core.MetadataOther, // C2PA manifest store
}

func walkPNG(buf []byte) ([]core.Segment, error) {
	if !bytes.HasPrefix(buf, core.PNGSignature()) {
		return nil, core.Malformed(core.KindPNG, 0, "missing signature")
	}
	b := &builder{}
	b.add(core.StructuralRequired, "signature", 8)

	for {
		i := b.pos
		if i == len(buf) {
			return nil, core.Malformed(core.KindPNG, i, "missing IEND chunk")
		}
		if i+8 > len(buf) {
			return nil, core.Malformed(core.KindPNG, i, "truncated chunk header")
		}
		length := binary.BigEndian.Uint32(buf[i:])
		typ := buf[i+4 : i+8]
		if length > maxPNGChunkLength {
			return nil, core.Malformed(core.KindPNG, i, "chunk length %d exceeds limit", length)
		}
		if !validChunkType(typ) {
			return nil, core.Malformed(core.KindPNG, i, "invalid chunk type %q", typ)
		}
		end := int64(i) + 12 + int64(length)
		if end > int64(len(buf)) {
			return nil, core.Malformed(core.KindPNG, i, "chunk %s length %d runs past end of data", typ, length)
		}

		name := string(typ)
		b.add(classifyPNG(name), name, int(end))
		if name == "IEND" {
			return b.trailer(buf), nil
		}
	}
}

func classifyPNG(name string) core.SegmentKind {
	if kind, ok := pngMetaChunks[name]; ok {
		return kind
	}
	switch name {
	case "IDAT", "fdAT":
		return core.PixelData
	default:
		return core.StructuralRequired
	}
}

func validChunkType(typ []byte) bool {
	for _, c := range typ {
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z') {
			return false
		}
	}
	return true
}
