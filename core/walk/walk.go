// Package walk splits an image container into classified segments without
// copying payloads. There is one walker per container family:
// marker-based for JPEG, chunk-based for PNG and WebP, block-based for GIF.
//
// Every walker either returns segments that partition the whole buffer or
// an error wrapping core.ErrMalformedContainer. Nothing is skipped or
// guessed.
package walk

import (
	"github.com/pkg/errors"

	"github.com/ankit-chaubey/image-surgery/core"
)

// Walk sniffs buf and returns its container kind and segments.
func Walk(buf []byte) (core.ContainerKind, []core.Segment, error) {
	kind := core.Sniff(buf)
	segs, err := Segments(kind, buf)
	return kind, segs, err
}

// Segments walks buf as a container of the given kind.
func Segments(kind core.ContainerKind, buf []byte) ([]core.Segment, error) {
	switch kind {
	case core.KindJPEG:
		return walkJPEG(buf)
	case core.KindPNG:
		return walkPNG(buf)
	case core.KindGIF:
		return walkGIF(buf)
	case core.KindWebP:
		return walkWebP(buf)
	case core.KindTIFF:
		// TIFF interleaves metadata and strips through IFD offsets; there is
		// no linear segment layout to walk.
		return nil, errors.Wrap(core.ErrUnsupportedFormat, "TIFF has no segment layout")
	default:
		return nil, core.ErrUnsupportedFormat
	}
}

// Find returns the first segment of the given kind.
func Find(segs []core.Segment, kind core.SegmentKind) (core.Segment, bool) {
	for _, s := range segs {
		if s.Kind == kind {
			return s, true
		}
	}
	return core.Segment{}, false
}

// Partitions reports whether segs are contiguous, non-empty, and cover buf
// exactly.
func Partitions(buf []byte, segs []core.Segment) bool {
	pos := 0
	for _, s := range segs {
		if s.Offset != pos || s.Length <= 0 {
			return false
		}
		pos = s.End()
	}
	return pos == len(buf)
}

// builder accumulates segments while a walker advances through a buffer.
type builder struct {
	segs []core.Segment
	pos  int
}

func (b *builder) add(kind core.SegmentKind, name string, end int) {
	b.segs = append(b.segs, core.Segment{Kind: kind, Offset: b.pos, Length: end - b.pos, Name: name})
	b.pos = end
}

// trailer records any bytes after the format's end marker. They are not
// part of the image and are treated as metadata.
func (b *builder) trailer(buf []byte) []core.Segment {
	if b.pos < len(buf) {
		b.add(core.MetadataOther, "trailer", len(buf))
	}
	return b.segs
}
