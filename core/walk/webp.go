package walk

import (
	"encoding/binary"

	"golang.org/x/image/riff"

	"github.com/ankit-chaubey/image-surgery/core"
)

/*
	"RIFF" size(4, LE) "WEBP" then chunks: FourCC size(4, LE) data [pad byte]
	size counts everything after itself; chunk data is padded to even length.
*/

var (
	fccEXIF = riff.FourCC{'E', 'X', 'I', 'F'}
	fccXMP  = riff.FourCC{'X', 'M', 'P', ' '}
	fccVP8  = riff.FourCC{'V', 'P', '8', ' '}
	fccVP8L = riff.FourCC{'V', 'P', '8', 'L'}
	fccALPH = riff.FourCC{'A', 'L', 'P', 'H'}
	fccANMF = riff.FourCC{'A', 'N', 'M', 'F'}
)

func walkWebP(buf []byte) ([]core.Segment, error) {
	if len(buf) < 12 {
		return nil, core.Malformed(core.KindWebP, 0, "truncated RIFF header")
	}
	riffEnd := 8 + int64(binary.LittleEndian.Uint32(buf[4:8]))
	if riffEnd < 12 || riffEnd > int64(len(buf)) {
		return nil, core.Malformed(core.KindWebP, 4, "RIFF size %d does not fit %d bytes", riffEnd-8, len(buf))
	}
	b := &builder{}
	b.add(core.StructuralRequired, "RIFF", 12)

	for int64(b.pos) < riffEnd {
		i := b.pos
		if int64(i)+8 > riffEnd {
			return nil, core.Malformed(core.KindWebP, i, "truncated chunk header")
		}
		var fcc riff.FourCC
		copy(fcc[:], buf[i:i+4])
		size := int64(binary.LittleEndian.Uint32(buf[i+4:]))
		end := int64(i) + 8 + size + size&1
		if end > riffEnd {
			return nil, core.Malformed(core.KindWebP, i, "chunk %q size %d runs past RIFF end", fcc[:], size)
		}
		b.add(classifyWebP(fcc), string(fcc[:]), int(end))
	}
	return b.trailer(buf), nil
}

func classifyWebP(fcc riff.FourCC) core.SegmentKind {
	switch fcc {
	case fccEXIF:
		return core.MetadataExif
	case fccXMP:
		return core.MetadataOther
	case fccVP8, fccVP8L, fccALPH, fccANMF:
		return core.PixelData
	default:
		// VP8X, ANIM, ICCP and unknown chunks.
		return core.StructuralRequired
	}
}
