// Package redact removes metadata segments from image containers.
//
// It works purely on segment classification from package walk and never
// looks at decoded tag values, so a file the EXIF decoder cannot make sense
// of can still be cleaned.
package redact

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ankit-chaubey/image-surgery/core"
	"github.com/ankit-chaubey/image-surgery/core/walk"
)

// VP8X feature flags that advertise metadata chunks.
const (
	vp8xXMP  = 1 << 2
	vp8xEXIF = 1 << 3
)

// Redact copies the structural and pixel segments of buf into a new buffer
// and drops every metadata segment. segs must be the walker output for buf.
func Redact(kind core.ContainerKind, buf []byte, segs []core.Segment) (*core.CleaningResult, error) {
	if !walk.Partitions(buf, segs) {
		return nil, errors.Errorf("%s: segments do not cover the %d-byte input", kind, len(buf))
	}

	out := make([]byte, 0, len(buf))
	res := &core.CleaningResult{OriginalSize: len(buf)}
	vp8x := -1
	for _, s := range segs {
		if s.Kind.IsMetadata() {
			log.Debug().
				Str("format", kind.String()).
				Str("segment", s.Name).
				Int("offset", s.Offset).
				Int("bytes", s.Length).
				Msg("removing segment")
			res.Removed = append(res.Removed, s)
			continue
		}
		if kind == core.KindWebP && s.Name == "VP8X" {
			vp8x = len(out)
		}
		out = append(out, s.Bytes(buf)...)
	}

	if kind == core.KindWebP {
		fixWebP(out, vp8x)
	}

	res.Data = out
	res.CleanedSize = len(out)
	return res, nil
}

// fixWebP rewrites the RIFF size and clears the VP8X flags for chunks that
// are no longer present. vp8x is the offset of the VP8X chunk in out, or -1.
func fixWebP(out []byte, vp8x int) {
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	// VP8X payload: flags(1) reserved(3) width-1(3) height-1(3)
	if vp8x >= 0 && vp8x+8 < len(out) {
		out[vp8x+8] &^= vp8xEXIF | vp8xXMP
	}
}

// Clean sniffs, walks, and redacts buf. The output is walked again and
// rejected if it still holds metadata, so a nil error means the returned
// bytes are clean.
func Clean(buf []byte) (*core.CleaningResult, error) {
	kind, segs, err := walk.Walk(buf)
	if err != nil {
		return nil, err
	}
	res, err := Redact(kind, buf, segs)
	if err != nil {
		return nil, err
	}

	after, err := walk.Segments(kind, res.Data)
	if err != nil {
		return nil, errors.Wrap(err, "cleaned output does not walk")
	}
	for _, s := range after {
		if s.Kind.IsMetadata() {
			return nil, errors.Errorf("%s: %s segment at offset %d survived cleaning", kind, s.Name, s.Offset)
		}
	}

	log.Debug().
		Str("format", kind.String()).
		Int("removed", len(res.Removed)).
		Int("saved", res.BytesSaved()).
		Msg("cleaned")
	return res, nil
}
