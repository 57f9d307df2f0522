// Package image extracts and removes metadata for the supported image
// containers: JPEG, PNG, GIF, WebP and (extraction only) TIFF.
//
// Both paths take a complete in-memory file and perform no I/O.
package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ankit-chaubey/image-surgery/core"
	"github.com/ankit-chaubey/image-surgery/core/analyze"
	"github.com/ankit-chaubey/image-surgery/core/exif"
	"github.com/ankit-chaubey/image-surgery/core/redact"
	"github.com/ankit-chaubey/image-surgery/core/walk"
)

// Result is the outcome of a successful extraction.
type Result struct {
	Format   core.ContainerKind
	Metadata *exif.Map
	GPS      *exif.Coordinate // nil when absent or unresolvable
	Segments []core.Segment   // nil for TIFF

	// Warnings lists the non-fatal problems: skipped tags, an unresolvable
	// coordinate, unreadable text chunks. It is nil or a *multierror.Error.
	Warnings error
}

// Analyze runs the consistency and privacy rules over the result.
func (r *Result) Analyze() analyze.Report {
	return analyze.Analyze(r.Metadata, r.GPS)
}

// Extract reads all metadata from buf. Container-level problems abort the
// whole extraction and no partial map is returned.
func Extract(buf []byte) (*Result, error) {
	kind := core.Sniff(buf)
	if kind == core.KindUnsupported {
		return nil, core.ErrUnsupportedFormat
	}
	res := &Result{Format: kind}
	var warnings *multierror.Error

	if kind == core.KindTIFF {
		m, err := exif.Decode(buf)
		if err != nil {
			return nil, err
		}
		res.Metadata = m
	} else {
		segs, err := walk.Segments(kind, buf)
		if err != nil {
			return nil, err
		}
		res.Segments = segs
		if res.Metadata, err = decodeExif(kind, buf, segs); err != nil {
			return nil, err
		}
		for _, s := range segs {
			if s.Kind != core.MetadataOther {
				continue
			}
			if err := readText(kind, s, buf, res.Metadata); err != nil {
				log.Debug().Err(err).Str("segment", s.Name).Int("offset", s.Offset).Msg("unreadable text metadata")
				warnings = multierror.Append(warnings, err)
			}
		}
	}

	if skipped := res.Metadata.Skipped(); skipped != nil {
		warnings = multierror.Append(warnings, skipped)
	}
	if res.Metadata.GPS != nil {
		coord, err := exif.Resolve(res.Metadata.GPS)
		if err != nil {
			log.Debug().Err(err).Msg("dropping GPS coordinate")
			warnings = multierror.Append(warnings, err)
		} else {
			res.GPS = &coord
		}
	}
	res.Warnings = warnings.ErrorOrNil()
	return res, nil
}

// Clean removes every metadata segment from buf.
func Clean(buf []byte) (*core.CleaningResult, error) {
	return redact.Clean(buf)
}

// decodeExif decodes the first EXIF segment. Later ones are ignored.
func decodeExif(kind core.ContainerKind, buf []byte, segs []core.Segment) (*exif.Map, error) {
	seg, ok := walk.Find(segs, core.MetadataExif)
	if !ok {
		return exif.NewMap(), nil
	}
	payload := exifPayload(kind, seg.Bytes(buf))
	m, err := exif.Decode(payload)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s segment at offset %d", seg.Name, seg.Offset)
	}
	return m, nil
}

// exifPayload strips the container framing from an EXIF segment and
// returns the TIFF structure inside it.
func exifPayload(kind core.ContainerKind, seg []byte) []byte {
	switch kind {
	case core.KindJPEG:
		return bytes.TrimPrefix(jpegPayload(seg), walk.ExifSignature())
	case core.KindPNG:
		return pngChunkData(seg)
	case core.KindWebP:
		// Some writers keep the JPEG-style signature in the chunk.
		return bytes.TrimPrefix(webpChunkData(seg), walk.ExifSignature())
	}
	return nil
}

// jpegPayload skips fill bytes, the marker and the length field.
func jpegPayload(seg []byte) []byte {
	i := 0
	for i < len(seg) && seg[i] == 0xFF {
		i++
	}
	i += 3
	if i > len(seg) {
		return nil
	}
	return seg[i:]
}

// pngChunkData returns the data of a PNG chunk: length, type, data, CRC.
// The walker has already checked the length against the buffer.
func pngChunkData(seg []byte) []byte {
	if len(seg) < 12 {
		return nil
	}
	return seg[8 : 8+binary.BigEndian.Uint32(seg)]
}

// webpChunkData returns the data of a RIFF chunk: FourCC, size, data, pad.
func webpChunkData(seg []byte) []byte {
	if len(seg) < 8 {
		return nil
	}
	return seg[8 : 8+binary.LittleEndian.Uint32(seg[4:])]
}

// readText adds what a MetadataOther segment carries to m.
func readText(kind core.ContainerKind, s core.Segment, buf []byte, m *exif.Map) error {
	seg := s.Bytes(buf)
	switch kind {
	case core.KindJPEG:
		payload := jpegPayload(seg)
		switch {
		case s.Name == "COM":
			addText(m, "Comment", string(payload))
		case s.Name == "APP1" && bytes.HasPrefix(payload, xmpNamespace):
			parseXMPInto(payload[len(xmpNamespace):], m)
		case s.Name == "APP13" && bytes.HasPrefix(payload, photoshopID):
			parseIPTCInto(payload[len(photoshopID):], m)
		}
	case core.KindPNG:
		if s.Name == "trailer" {
			return nil
		}
		return readPNGText(s.Name, pngChunkData(seg), m)
	case core.KindGIF:
		switch s.Name {
		case "comment":
			addText(m, "Comment", string(gifSubBlocks(seg[2:])))
		case "application":
			if len(seg) > 3+len(gifXMPID) && bytes.Equal(seg[3:3+len(gifXMPID)], gifXMPID) {
				if packet := gifXMP(seg); packet != nil {
					parseXMPInto(packet, m)
				}
			}
		}
	case core.KindWebP:
		if s.Name == "XMP " {
			parseXMPInto(webpChunkData(seg), m)
		}
	}
	return nil
}

// View flattens the result into display rows for the Printer. Segment rows
// are included when withSegments is set.
func (r *Result) View(path string, withSegments bool) *core.Metadata {
	m := &core.Metadata{
		FilePath: path,
		Format:   r.Format.String(),
		MIMEType: r.Format.MIMEType(),
	}
	for _, e := range r.Metadata.Entries() {
		m.Fields = append(m.Fields, core.MetaField{Key: e.Name, Value: e.Value.String(), Category: category(e)})
	}
	for _, e := range r.Metadata.GPS.Entries() {
		m.Fields = append(m.Fields, core.MetaField{Key: e.Name, Value: e.Value.String(), Category: "GPS"})
	}
	if r.GPS != nil {
		m.Fields = append(m.Fields, core.MetaField{Key: "Position", Value: r.GPS.String(), Category: "GPS"})
	}
	if withSegments {
		for _, s := range r.Segments {
			m.Fields = append(m.Fields, core.MetaField{
				Key:      fmt.Sprintf("%08X %s", s.Offset, s.Name),
				Value:    fmt.Sprintf("%s, %d bytes", s.Kind, s.Length),
				Category: "Segments",
			})
		}
	}
	if merr, ok := r.Warnings.(*multierror.Error); ok {
		for _, err := range merr.Errors {
			m.Warnings = append(m.Warnings, err.Error())
		}
	}
	return m
}

func category(e exif.Entry) string {
	if e.IFD != exif.DirNone {
		return e.IFD.String()
	}
	if prefix, _, ok := strings.Cut(e.Name, ":"); ok {
		return prefix
	}
	if strings.HasPrefix(e.Name, "XMP") {
		return "XMP"
	}
	return "Comment"
}
