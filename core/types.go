// Package core defines the shared types, error taxonomy, and format sniffing
// for Image Surgery.
package core

// ContainerKind identifies an image container family. It is determined once
// per input by Sniff and never changes afterwards.
type ContainerKind int

const (
	KindUnsupported ContainerKind = iota
	KindJPEG
	KindPNG
	KindGIF
	KindWebP
	KindTIFF
)

func (k ContainerKind) String() string {
	switch k {
	case KindJPEG:
		return "JPEG"
	case KindPNG:
		return "PNG"
	case KindGIF:
		return "GIF"
	case KindWebP:
		return "WebP"
	case KindTIFF:
		return "TIFF"
	default:
		return "unsupported"
	}
}

// MIMEType returns the registered media type for the container, or
// application/octet-stream for unsupported input.
func (k ContainerKind) MIMEType() string {
	switch k {
	case KindJPEG:
		return "image/jpeg"
	case KindPNG:
		return "image/png"
	case KindGIF:
		return "image/gif"
	case KindWebP:
		return "image/webp"
	case KindTIFF:
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

// SegmentKind classifies a region of a container.
type SegmentKind int

const (
	StructuralRequired SegmentKind = iota // headers, tables, colour information
	PixelData                             // compressed image data
	MetadataExif                          // a TIFF/EXIF payload
	MetadataOther                         // XMP, IPTC, comments, text chunks, trailers
)

func (k SegmentKind) String() string {
	switch k {
	case StructuralRequired:
		return "structural"
	case PixelData:
		return "pixel"
	case MetadataExif:
		return "exif"
	case MetadataOther:
		return "metadata"
	default:
		return "unknown"
	}
}

// IsMetadata reports whether segments of this kind are dropped when cleaning.
func (k SegmentKind) IsMetadata() bool {
	return k == MetadataExif || k == MetadataOther
}

// Segment describes one self-delimited region of an input buffer. Segments
// never own bytes; they index into the buffer they were walked from.
type Segment struct {
	Kind   SegmentKind
	Offset int
	Length int
	Name   string // marker or chunk label, e.g. "APP1", "tEXt", "EXIF"
}

// End returns the offset one past the last byte of the segment.
func (s Segment) End() int { return s.Offset + s.Length }

// Bytes returns the segment's region of buf without copying.
func (s Segment) Bytes(buf []byte) []byte { return buf[s.Offset:s.End()] }

// CleaningResult is the output of one clean operation.
type CleaningResult struct {
	Data         []byte
	OriginalSize int
	CleanedSize  int
	Removed      []Segment // descriptors refer to the original buffer
}

// RemovedKinds lists the kind of every removed segment, in input order.
func (r *CleaningResult) RemovedKinds() []SegmentKind {
	kinds := make([]SegmentKind, len(r.Removed))
	for i, s := range r.Removed {
		kinds[i] = s.Kind
	}
	return kinds
}

// BytesSaved is the size difference between input and output.
func (r *CleaningResult) BytesSaved() int { return r.OriginalSize - r.CleanedSize }

// MetaField is one display row.
type MetaField struct {
	Key      string // e.g. "Make", "PNG:Title", "IPTC:Keywords"
	Value    string
	Category string // e.g. "IFD0", "GPS", "IPTC", "Privacy"
}

// Metadata is the display form of one file's extraction, consumed by the
// Printer.
type Metadata struct {
	FilePath string
	Format   string
	MIMEType string
	Fields   []MetaField
	Warnings []string
}
