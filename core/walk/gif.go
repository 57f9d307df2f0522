package walk

import (
	"bytes"

	"github.com/ankit-chaubey/image-surgery/core"
)

/*
	Header (6) + Logical Screen Descriptor (7) [+ Global Color Table]
	Extension -> 0x21 label sub-blocks... 0x00
	Image     -> 0x2C descriptor (9) [+ Local Color Table] LZW code size sub-blocks... 0x00
	Trailer   -> 0x3B
*/

const (
	gifExtension  = 0x21
	gifImage      = 0x2C
	gifTerminator = 0x3B

	gifPlainText      = 0x01
	gifGraphicControl = 0xF9
	gifComment        = 0xFE
	gifApplication    = 0xFF
)

// Application extensions that control animation playback rather than
// carrying metadata.
var gifLoopExtensions = [][]byte{
	[]byte("NETSCAPE2.0"),
	[]byte("ANIMEXTS1.0"),
}

func walkGIF(buf []byte) ([]core.Segment, error) {
	if len(buf) < 13 {
		return nil, core.Malformed(core.KindGIF, 0, "truncated header")
	}
	end := 13
	if buf[10]&0x80 != 0 {
		end += colorTableSize(buf[10])
	}
	if end > len(buf) {
		return nil, core.Malformed(core.KindGIF, 13, "truncated global color table")
	}
	b := &builder{}
	b.add(core.StructuralRequired, "header", end)

	for {
		i := b.pos
		if i >= len(buf) {
			return nil, core.Malformed(core.KindGIF, i, "missing trailer")
		}
		switch buf[i] {
		case gifExtension:
			if i+2 > len(buf) {
				return nil, core.Malformed(core.KindGIF, i, "truncated extension")
			}
			end, err := skipSubBlocks(buf, i+2)
			if err != nil {
				return nil, err
			}
			kind, name := classifyGIFExtension(buf[i+1], buf[i+2:end])
			b.add(kind, name, end)
		case gifImage:
			j := i + 10
			if j > len(buf) {
				return nil, core.Malformed(core.KindGIF, i, "truncated image descriptor")
			}
			if buf[i+9]&0x80 != 0 {
				j += colorTableSize(buf[i+9])
			}
			j++ // LZW minimum code size
			if j > len(buf) {
				return nil, core.Malformed(core.KindGIF, i, "truncated local color table")
			}
			end, err := skipSubBlocks(buf, j)
			if err != nil {
				return nil, err
			}
			b.add(core.PixelData, "image", end)
		case gifTerminator:
			b.add(core.StructuralRequired, "terminator", i+1)
			return b.trailer(buf), nil
		default:
			return nil, core.Malformed(core.KindGIF, i, "unknown block introducer 0x%02X", buf[i])
		}
	}
}

func colorTableSize(packed byte) int {
	return 3 * (1 << (int(packed&0x07) + 1))
}

// skipSubBlocks returns the offset just past the block terminator of the
// sub-block chain starting at i.
func skipSubBlocks(buf []byte, i int) (int, error) {
	for {
		if i >= len(buf) {
			return 0, core.Malformed(core.KindGIF, i, "unterminated sub-block chain")
		}
		n := int(buf[i])
		i++
		if n == 0 {
			return i, nil
		}
		i += n
		if i > len(buf) {
			return 0, core.Malformed(core.KindGIF, i-n-1, "sub-block of %d bytes runs past end of data", n)
		}
	}
}

func classifyGIFExtension(label byte, body []byte) (core.SegmentKind, string) {
	switch label {
	case gifComment:
		return core.MetadataOther, "comment"
	case gifApplication:
		if len(body) >= 12 && body[0] == 11 {
			for _, id := range gifLoopExtensions {
				if bytes.Equal(body[1:12], id) {
					return core.StructuralRequired, string(id)
				}
			}
		}
		return core.MetadataOther, "application"
	case gifGraphicControl:
		return core.StructuralRequired, "graphic-control"
	case gifPlainText:
		return core.PixelData, "plain-text"
	default:
		return core.StructuralRequired, "extension"
	}
}
